// Package stepper exposes a wizard of form fields as a live component.
//
// The component is driven by four events:
//
//	change  {field, value}   record input without validating
//	next    posted values    validate the current step and advance or submit
//	back                     return to the previous step
//	reset                    start over from the initial values
//
// Validation failures are rendered inline next to their fields and a failed
// submit action is rendered as a banner, so neither is returned to the host.
package stepper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gabrielmiguelok/golivestepper/pkg/core"
	"github.com/gabrielmiguelok/golivestepper/pkg/forms"
	"github.com/gabrielmiguelok/golivestepper/pkg/logging"
	"github.com/gabrielmiguelok/golivestepper/pkg/metrics"
	"github.com/gabrielmiguelok/golivestepper/pkg/wizard"
)

// Event names understood by HandleEvent and HandleForm.
const (
	EventChange = "change"
	EventNext   = "next"
	EventBack   = "back"
	EventReset  = "reset"
)

var (
	// ErrUnknownEvent is returned for events the component does not handle.
	ErrUnknownEvent = core.ErrUnknownEvent
	// ErrUnknownField is returned for input to a field the current step
	// does not show.
	ErrUnknownField = core.ErrUnknownField
)

// Option configures a Stepper.
type Option func(*Stepper)

// WithLogger sets the logger for the component and its wizard.
func WithLogger(logger logging.Logger) Option {
	return func(s *Stepper) {
		s.logger = logger
	}
}

// WithMetrics records transitions and submit durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Stepper) {
		s.metrics = m
	}
}

// WithSubmitTimeout bounds the submit action.
func WithSubmitTimeout(d time.Duration) Option {
	return func(s *Stepper) {
		s.submitTimeout = d
	}
}

// WithEventPath sets the form action used by the no-JavaScript fallback.
// The session ID is appended as a query parameter.
func WithEventPath(path string) Option {
	return func(s *Stepper) {
		s.eventPath = path
	}
}

// Stepper is the live component. The host serializes calls to HandleEvent,
// HandleForm and Render.
type Stepper struct {
	core.BaseComponent

	title         string
	wiz           *wizard.Wizard[[]forms.Field]
	logger        logging.Logger
	metrics       *metrics.Metrics
	submitTimeout time.Duration
	eventPath     string

	submitted bool
	submitErr error
}

// New creates a stepper for def. onSubmit receives all values once the last
// step validates.
func New(def *wizard.Definition, onSubmit wizard.SubmitFunc, opts ...Option) (*Stepper, error) {
	s := &Stepper{
		title:     def.Title,
		logger:    logging.NopLogger{},
		eventPath: "/event",
	}
	for _, opt := range opts {
		opt(s)
	}

	wiz, err := def.New(s.timed(onSubmit),
		wizard.WithLogger(s.logger),
		wizard.WithSubmitTimeout(s.submitTimeout),
	)
	if err != nil {
		return nil, err
	}
	s.wiz = wiz
	return s, nil
}

func (s *Stepper) timed(onSubmit wizard.SubmitFunc) wizard.SubmitFunc {
	if onSubmit == nil {
		return nil
	}
	return func(ctx context.Context, values forms.Values, helpers *wizard.Helpers) error {
		timer := metrics.NewTimer()
		defer func() { s.metrics.ObserveSubmit(timer.Elapsed()) }()
		return onSubmit(ctx, values, helpers)
	}
}

// Name returns the component name.
func (s *Stepper) Name() string {
	return "stepper"
}

// Wizard returns the underlying controller.
func (s *Stepper) Wizard() *wizard.Wizard[[]forms.Field] {
	return s.wiz
}

// Submitted reports whether the last submit succeeded and the success panel
// is showing.
func (s *Stepper) Submitted() bool {
	return s.submitted
}

// SubmitErr returns the error of the last failed submit, if any.
func (s *Stepper) SubmitErr() error {
	return s.submitErr
}

// HandleEvent handles a live event.
func (s *Stepper) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	switch event {
	case EventChange:
		field, _ := payload["field"].(string)
		if field == "" {
			return fmt.Errorf("stepper: %s event without field", EventChange)
		}
		if !s.onCurrentStep(field) {
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		s.wiz.SetValue(field, payload["value"])
		return nil
	case EventNext:
		return s.next(ctx, forms.FromPayload(s.wiz.Current().Content, payload))
	case EventBack:
		return s.back()
	case EventReset:
		return s.reset()
	}
	return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
}

// HandleForm handles a plain form post. An empty event means next.
func (s *Stepper) HandleForm(ctx context.Context, event string, form url.Values) error {
	switch event {
	case "", EventNext:
		return s.next(ctx, forms.FromURLValues(s.wiz.Current().Content, form))
	case EventBack:
		return s.back()
	case EventReset:
		return s.reset()
	}
	return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
}

func (s *Stepper) onCurrentStep(field string) bool {
	for _, f := range s.wiz.Current().Content {
		if f.Name == field {
			return true
		}
	}
	return false
}

// next records values and advances. Unlike Wizard.Advance, which never
// merges rejected input, the stepper keeps what was typed into a rejected
// step so the re-rendered form shows it, as a browser form would.
func (s *Stepper) next(ctx context.Context, values forms.Values) error {
	if s.submitted {
		// A late duplicate of the submit that already succeeded.
		return nil
	}

	s.wiz.SetValues(values)

	step := s.wiz.Current().Label
	outcome, err := s.wiz.Advance(ctx, values)

	var invalid forms.Errors
	var failed *wizard.SubmitError
	switch {
	case errors.As(err, &invalid):
		s.metrics.ObserveTransition(step, metrics.ResultInvalid)
		return nil
	case errors.As(err, &failed):
		s.submitErr = failed.Err
		s.metrics.ObserveTransition(step, metrics.ResultSubmitFailed)
		s.logger.Warn("submit failed", logging.String("step", step), logging.Err(failed.Err))
		return nil
	case errors.Is(err, wizard.ErrSubmitPending):
		s.metrics.ObserveTransition(step, metrics.ResultPending)
		return err
	case err != nil:
		return err
	}

	s.submitErr = nil
	if outcome == wizard.OutcomeSubmitted {
		s.submitted = true
		s.metrics.ObserveTransition(step, metrics.ResultSubmitted)
		s.logger.Info("wizard submitted", logging.Int("submits", s.wiz.State().Submits))
		return nil
	}
	s.metrics.ObserveTransition(step, metrics.ResultAdvanced)
	return nil
}

func (s *Stepper) back() error {
	step := s.wiz.Current().Label
	if err := s.wiz.Back(); err != nil {
		if errors.Is(err, wizard.ErrNoOp) {
			return nil
		}
		return err
	}
	s.submitErr = nil
	s.metrics.ObserveTransition(step, metrics.ResultBack)
	return nil
}

func (s *Stepper) reset() error {
	if err := s.wiz.Reset(); err != nil {
		return err
	}
	s.submitted = false
	s.submitErr = nil
	return nil
}

// Terminate logs the end of the session.
func (s *Stepper) Terminate(ctx context.Context, reason core.TerminateReason) error {
	s.logger.Debug("stepper terminated",
		logging.String("reason", reason.String()),
		logging.Session(core.SessionIDFromContext(ctx)),
	)
	return nil
}
