// Package wizard implements a multi-step form controller: an ordered list of
// labeled steps, a shared value map, and Next/Back/Submit transitions gated
// on the current step's validation rule.
package wizard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gabrielmiguelok/golivestepper/pkg/forms"
	"github.com/gabrielmiguelok/golivestepper/pkg/logging"
)

// Step is one page of a wizard. Content is opaque to the controller; it only
// hands it back to whoever renders the current step.
type Step[C any] struct {
	// Label is the display name and the step's identity.
	Label string

	// Rule validates the shared values before leaving the step. A nil rule
	// always passes.
	Rule forms.Rule

	// Content is the step's UI fragment.
	Content C
}

// SubmitFunc is the terminal action, invoked once per successful validation
// of the last step with a copy of all values.
type SubmitFunc func(ctx context.Context, values forms.Values, helpers *Helpers) error

// Outcome describes what a successful Advance did.
type Outcome int

const (
	// OutcomeAdvanced means the wizard moved to the next step.
	OutcomeAdvanced Outcome = iota + 1
	// OutcomeSubmitted means the last step validated and the terminal
	// action ran.
	OutcomeSubmitted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdvanced:
		return "advanced"
	case OutcomeSubmitted:
		return "submitted"
	default:
		return "none"
	}
}

// State is a point-in-time copy of a wizard's state.
type State struct {
	Labels     []string
	Index      int
	Values     forms.Values
	Submitting bool
	Submits    int
}

// IsLastStep reports whether Index is the final step.
func (s State) IsLastStep() bool {
	return s.Index == len(s.Labels)-1
}

// Option configures a Wizard.
type Option func(*options)

type options struct {
	logger        logging.Logger
	submitTimeout time.Duration
}

// WithLogger sets the logger used for transition events.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSubmitTimeout bounds the context handed to the terminal action.
func WithSubmitTimeout(d time.Duration) Option {
	return func(o *options) {
		o.submitTimeout = d
	}
}

// Wizard is the step controller. All methods are safe for concurrent use.
type Wizard[C any] struct {
	steps    []Step[C]
	initial  forms.Values
	onSubmit SubmitFunc
	opts     options

	mu         sync.Mutex
	index      int
	values     forms.Values
	errors     forms.Errors
	submitting bool
	submits    int
	status     any
}

// New creates a wizard positioned on the first step with a copy of initial
// as its values. A nil onSubmit is a no-op terminal action.
func New[C any](steps []Step[C], initial forms.Values, onSubmit SubmitFunc, opts ...Option) (*Wizard[C], error) {
	if len(steps) == 0 {
		return nil, &ConfigurationError{Reason: "no steps"}
	}

	seen := make(map[string]bool, len(steps))
	for i, step := range steps {
		if step.Label == "" {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("step %d has no label", i)}
		}
		if seen[step.Label] {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("duplicate step label %q", step.Label)}
		}
		seen[step.Label] = true
	}

	o := options{logger: logging.NopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}

	return &Wizard[C]{
		steps:    append([]Step[C](nil), steps...),
		initial:  initial.Clone(),
		onSubmit: onSubmit,
		opts:     o,
		values:   initial.Clone(),
	}, nil
}

// Advance validates submitted, overlaid on the current values, against the
// current step's rule.
//
// On failure it returns forms.Errors and changes nothing but the errors
// reported by Errors. On success the coerced values are merged; the wizard
// then moves to the next step, or on the last step runs the terminal action
// and stays where it is. A failing action is returned as *SubmitError.
func (w *Wizard[C]) Advance(ctx context.Context, submitted forms.Values) (Outcome, error) {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return 0, ErrSubmitPending
	}

	idx := w.index
	step := w.steps[idx]
	cs := forms.Cast(w.values, submitted).Validate(step.Rule)
	merged, err := cs.Apply()
	if err != nil {
		w.errors = cs.Errors
		w.mu.Unlock()
		w.opts.logger.Debug("step invalid",
			logging.Step(idx),
			logging.String("label", step.Label),
			logging.Any("fields", cs.Errors.Fields()),
		)
		return 0, cs.Errors
	}

	w.values = merged
	w.errors = nil

	if w.index < len(w.steps)-1 {
		w.index++
		next := w.steps[w.index].Label
		w.mu.Unlock()
		w.opts.logger.Debug("step advanced",
			logging.String("from", step.Label),
			logging.String("to", next),
		)
		return OutcomeAdvanced, nil
	}

	w.submitting = true
	values := merged.Clone()
	w.mu.Unlock()

	err = w.runSubmit(ctx, values)

	w.mu.Lock()
	w.submitting = false
	w.submits++
	w.mu.Unlock()

	if err != nil {
		w.opts.logger.Warn("submit failed", logging.Err(err))
		return OutcomeSubmitted, &SubmitError{Err: err}
	}
	w.opts.logger.Debug("submitted", logging.Int("fields", len(values)))
	return OutcomeSubmitted, nil
}

func (w *Wizard[C]) runSubmit(ctx context.Context, values forms.Values) (err error) {
	if w.onSubmit == nil {
		return nil
	}
	if w.opts.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.submitTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in submit action: %v", r)
		}
	}()
	return w.onSubmit(ctx, values, &Helpers{reset: w.reset, setFieldError: w.setFieldError, setStatus: w.setStatus, values: values})
}

// Back moves to the previous step. It returns ErrNoOp on the first step.
// Values are kept and not revalidated.
func (w *Wizard[C]) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.index == 0 {
		return ErrNoOp
	}
	w.index--
	w.errors = nil
	return nil
}

// SetValue records field input without validating it.
func (w *Wizard[C]) SetValue(field string, value any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.values = w.values.Merge(forms.Values{field: value})
}

// SetValues records several inputs at once without validating them.
func (w *Wizard[C]) SetValues(values forms.Values) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.values = w.values.Merge(values)
}

// IsLastStep reports whether the current step is the final one.
func (w *Wizard[C]) IsLastStep() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index == len(w.steps)-1
}

// ButtonLabel returns "Submit" on the last step and "Next" otherwise.
func (w *Wizard[C]) ButtonLabel() string {
	if w.IsLastStep() {
		return "Submit"
	}
	return "Next"
}

// Index returns the current step index.
func (w *Wizard[C]) Index() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index
}

// Len returns the number of steps.
func (w *Wizard[C]) Len() int {
	return len(w.steps)
}

// Current returns the current step.
func (w *Wizard[C]) Current() Step[C] {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.steps[w.index]
}

// Steps returns a copy of the step list.
func (w *Wizard[C]) Steps() []Step[C] {
	return append([]Step[C](nil), w.steps...)
}

// Labels returns the step labels in order.
func (w *Wizard[C]) Labels() []string {
	labels := make([]string, len(w.steps))
	for i, step := range w.steps {
		labels[i] = step.Label
	}
	return labels
}

// Values returns a copy of the shared values.
func (w *Wizard[C]) Values() forms.Values {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.values.Clone()
}

// Errors returns the errors of the last failed Advance on the current step,
// plus any set by the terminal action.
func (w *Wizard[C]) Errors() forms.Errors {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append(forms.Errors(nil), w.errors...)
}

// Submitting reports whether the terminal action is running.
func (w *Wizard[C]) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// Status returns the value last set by Helpers.SetStatus.
func (w *Wizard[C]) Status() any {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// State returns a snapshot of the wizard.
func (w *Wizard[C]) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		Labels:     w.Labels(),
		Index:      w.index,
		Values:     w.values.Clone(),
		Submitting: w.submitting,
		Submits:    w.submits,
	}
}

// Reset returns the wizard to its first step and initial values. It fails
// with ErrSubmitPending while the terminal action runs.
func (w *Wizard[C]) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitting {
		return ErrSubmitPending
	}
	w.resetLocked()
	return nil
}

func (w *Wizard[C]) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
}

func (w *Wizard[C]) resetLocked() {
	w.index = 0
	w.values = w.initial.Clone()
	w.errors = nil
	w.status = nil
}

func (w *Wizard[C]) setFieldError(field, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errors.Add(field, message)
}

func (w *Wizard[C]) setStatus(status any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
}

// Helpers lets the terminal action act on the wizard that invoked it.
type Helpers struct {
	reset         func()
	setFieldError func(field, message string)
	setStatus     func(status any)
	values        forms.Values
}

// Values returns the values the action was invoked with.
func (h *Helpers) Values() forms.Values {
	return h.values.Clone()
}

// Reset returns the wizard to its first step and initial values.
func (h *Helpers) Reset() {
	h.reset()
}

// SetFieldError attaches an error to a field, e.g. one rejected by a backend.
func (h *Helpers) SetFieldError(field, message string) {
	h.setFieldError(field, message)
}

// SetStatus stores an arbitrary status for the caller to render.
func (h *Helpers) SetStatus(status any) {
	h.setStatus(status)
}
