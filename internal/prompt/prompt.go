// Package prompt runs a wizard definition in the terminal, one huh form per
// step.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gabrielmiguelok/golivestepper/pkg/forms"
	"github.com/gabrielmiguelok/golivestepper/pkg/logging"
	"github.com/gabrielmiguelok/golivestepper/pkg/wizard"
)

// Action is the navigation the user picked on a page.
type Action int

const (
	ActionNext Action = iota
	ActionBack
)

// Page is everything one prompt round shows.
type Page struct {
	Title  string
	Labels []string
	Index  int
	Label  string
	Fields []forms.Field
	Values forms.Values
	Errors forms.Errors
	Button string
}

// CanGoBack reports whether a Back choice is offered.
func (p Page) CanGoBack() bool {
	return p.Index > 0
}

// Answer is the user's input for a page.
type Answer struct {
	Action Action
	Values forms.Values
}

// Asker collects an answer for a page.
type Asker interface {
	Ask(ctx context.Context, page Page) (Answer, error)
}

// Option configures a Runner.
type Option func(*Runner)

// WithAsker replaces the interactive huh asker.
func WithAsker(a Asker) Option {
	return func(r *Runner) {
		r.asker = a
	}
}

// WithOutput sets where headers, errors and the summary are printed.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

// WithLogger sets the wizard logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithSubmitTimeout bounds the submit action.
func WithSubmitTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.submitTimeout = d
	}
}

// Runner drives a wizard from the terminal.
type Runner struct {
	title         string
	wiz           *wizard.Wizard[[]forms.Field]
	asker         Asker
	out           io.Writer
	logger        logging.Logger
	submitTimeout time.Duration
}

// New creates a runner for def.
func New(def *wizard.Definition, onSubmit wizard.SubmitFunc, opts ...Option) (*Runner, error) {
	r := &Runner{
		title:  def.Title,
		asker:  &HuhAsker{},
		out:    os.Stdout,
		logger: logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}

	wiz, err := def.New(onSubmit,
		wizard.WithLogger(r.logger),
		wizard.WithSubmitTimeout(r.submitTimeout),
	)
	if err != nil {
		return nil, err
	}
	r.wiz = wiz
	return r, nil
}

// Wizard returns the underlying controller.
func (r *Runner) Wizard() *wizard.Wizard[[]forms.Field] {
	return r.wiz
}

// Run prompts until the last step validates and the submit action succeeds,
// then returns the submitted values. A failed submit shows its error and
// prompts the last step again.
func (r *Runner) Run(ctx context.Context) (forms.Values, error) {
	var banner string
	for {
		page := r.page()
		fmt.Fprintln(r.out, Header(page))
		if banner != "" {
			fmt.Fprintln(r.out, banner)
			banner = ""
		}

		answer, err := r.asker.Ask(ctx, page)
		if err != nil {
			return nil, err
		}
		r.wiz.SetValues(answer.Values)

		if answer.Action == ActionBack {
			if err := r.wiz.Back(); err != nil && !errors.Is(err, wizard.ErrNoOp) {
				return nil, err
			}
			continue
		}

		outcome, err := r.wiz.Advance(ctx, answer.Values)
		var invalid forms.Errors
		var failed *wizard.SubmitError
		switch {
		case errors.As(err, &invalid):
			banner = ErrorList(invalid)
			continue
		case errors.As(err, &failed):
			banner = errorStyle.Render("Submission failed: " + failed.Err.Error())
			continue
		case err != nil:
			return nil, err
		}

		if outcome == wizard.OutcomeSubmitted {
			values := r.wiz.Values()
			fmt.Fprintln(r.out, Summary(r.title, r.wiz.Steps(), values, r.wiz.Status()))
			return values, nil
		}
	}
}

func (r *Runner) page() Page {
	state := r.wiz.State()
	step := r.wiz.Current()
	return Page{
		Title:  r.title,
		Labels: state.Labels,
		Index:  state.Index,
		Label:  step.Label,
		Fields: step.Content,
		Values: state.Values,
		Errors: r.wiz.Errors(),
		Button: r.wiz.ButtonLabel(),
	}
}

// Header renders the title and the step indicator.
func Header(p Page) string {
	var sb strings.Builder
	if p.Title != "" {
		sb.WriteString(titleStyle.Render(p.Title))
		sb.WriteString("\n")
	}
	parts := make([]string, len(p.Labels))
	for i, label := range p.Labels {
		switch {
		case i < p.Index:
			parts[i] = doneStepStyle.Render("✓ " + label)
		case i == p.Index:
			parts[i] = activeStepStyle.Render("● " + label)
		default:
			parts[i] = pendingStepStyle.Render("○ " + label)
		}
	}
	sb.WriteString(strings.Join(parts, "  "))
	fmt.Fprintf(&sb, "\nStep %d of %d", p.Index+1, len(p.Labels))
	return sb.String()
}

// ErrorList renders validation errors, one field per line.
func ErrorList(errs forms.Errors) string {
	lines := make([]string, 0, len(errs))
	for _, field := range errs.Fields() {
		lines = append(lines, errorStyle.Render("✗ "+errs.Get(field)))
	}
	return strings.Join(lines, "\n")
}

// Summary renders the submitted values in step order, followed by the
// status the submit action set, if any.
func Summary(title string, steps []wizard.Step[[]forms.Field], values forms.Values, status any) string {
	var sb strings.Builder
	heading := "Submitted"
	if title != "" {
		heading = title + " submitted"
	}
	sb.WriteString(successStyle.Render(heading))
	for _, step := range steps {
		for _, f := range step.Content {
			label := f.Label
			if label == "" {
				label = f.Name
			}
			fmt.Fprintf(&sb, "\n  %s %s", keyStyle.Render(label+":"), values.String(f.Name))
		}
	}
	if status != nil {
		fmt.Fprintf(&sb, "\n%v", status)
	}
	return sb.String()
}
