package stepper

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"

	"github.com/gabrielmiguelok/golivestepper/pkg/core"
	"github.com/gabrielmiguelok/golivestepper/pkg/forms"
	"github.com/gabrielmiguelok/golivestepper/pkg/security"
	"github.com/gabrielmiguelok/golivestepper/pkg/wizard"
)

// Render returns the component's HTML fragment.
func (s *Stepper) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s.render(core.SessionIDFromContext(ctx), core.CSRFTokenFromContext(ctx)))
		return err
	})
}

// Title returns the wizard title.
func (s *Stepper) Title() string {
	return s.title
}

func (s *Stepper) render(sessionID, token string) string {
	state := s.wiz.State()

	var sb strings.Builder
	sb.WriteString(`<div class="stepper" data-component="stepper">`)
	if s.title != "" {
		fmt.Fprintf(&sb, `<h1 class="stepper-title">%s</h1>`, html.EscapeString(s.title))
	}

	if s.submitted {
		sb.WriteString(s.renderSuccess(state, sessionID, token))
		sb.WriteString(`</div>`)
		return sb.String()
	}

	sb.WriteString(renderStepIndicator(state))

	if s.submitErr != nil {
		fmt.Fprintf(&sb, `<div class="stepper-banner error" role="alert">Submission failed: %s</div>`,
			html.EscapeString(s.submitErr.Error()))
	}

	fmt.Fprintf(&sb, `<form class="stepper-form" method="post" action="%s" lv-submit="%s" novalidate>`,
		html.EscapeString(s.action(sessionID)), EventNext)
	sb.WriteString(csrfInput(token))

	errs := s.wiz.Errors()
	for _, field := range s.wiz.Current().Content {
		sb.WriteString(renderField(field, state.Values, errs.Get(field.Name)))
	}

	sb.WriteString(`<div class="stepper-actions">`)
	if state.Index > 0 {
		fmt.Fprintf(&sb, `<button type="submit" class="btn" name="_event" value="%s" lv-click="%s" formnovalidate>Back</button>`,
			EventBack, EventBack)
	}
	fmt.Fprintf(&sb, `<button type="submit" class="btn btn-primary" name="_event" value="%s">%s</button>`,
		EventNext, s.wiz.ButtonLabel())
	sb.WriteString(`</div></form></div>`)
	return sb.String()
}

func (s *Stepper) action(sessionID string) string {
	if sessionID == "" {
		return s.eventPath
	}
	return s.eventPath + "?" + url.Values{"session": {sessionID}}.Encode()
}

func csrfInput(token string) string {
	if token == "" {
		return ""
	}
	return fmt.Sprintf(`<input type="hidden" name="%s" value="%s">`, security.FormField, html.EscapeString(token))
}

func renderStepIndicator(state wizard.State) string {
	var sb strings.Builder
	sb.WriteString(`<ol class="stepper-steps">`)
	for i, label := range state.Labels {
		class := "pending"
		current := ""
		switch {
		case i < state.Index:
			class = "completed"
		case i == state.Index:
			class = "active"
			current = ` aria-current="step"`
		}
		fmt.Fprintf(&sb, `<li class="step %s"%s><span class="step-index">%d</span><span class="step-label">%s</span></li>`,
			class, current, i+1, html.EscapeString(label))
	}
	sb.WriteString(`</ol>`)
	return sb.String()
}

func renderField(field forms.Field, values forms.Values, message string) string {
	id := "field-" + field.Name
	name := html.EscapeString(field.Name)
	value := html.EscapeString(values.String(field.Name))
	label := html.EscapeString(field.Label)

	class := "field"
	invalid := ""
	if message != "" {
		class += " has-error"
		invalid = ` aria-invalid="true"`
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<div class="%s">`, class)

	switch field.Type {
	case forms.FieldCheckbox:
		checked := ""
		if values.Bool(field.Name) {
			checked = " checked"
		}
		fmt.Fprintf(&sb, `<label for="%s"><input type="checkbox" id="%s" name="%s" value="true" lv-change="%s"%s%s> %s</label>`,
			id, id, name, EventChange, checked, invalid, label)

	case forms.FieldTextarea:
		fmt.Fprintf(&sb, `<label for="%s">%s</label>`, id, label)
		fmt.Fprintf(&sb, `<textarea id="%s" name="%s" placeholder="%s" lv-change="%s"%s>%s</textarea>`,
			id, name, html.EscapeString(field.Placeholder), EventChange, invalid, value)

	case forms.FieldSelect:
		fmt.Fprintf(&sb, `<label for="%s">%s</label>`, id, label)
		fmt.Fprintf(&sb, `<select id="%s" name="%s" lv-change="%s"%s>`, id, name, EventChange, invalid)
		sb.WriteString(`<option value=""></option>`)
		current := values.String(field.Name)
		for _, opt := range field.Options {
			selected := ""
			if opt.Value == current {
				selected = " selected"
			}
			fmt.Fprintf(&sb, `<option value="%s"%s>%s</option>`,
				html.EscapeString(opt.Value), selected, html.EscapeString(opt.Label))
		}
		sb.WriteString(`</select>`)

	default:
		inputType := string(field.Type)
		if inputType == "" {
			inputType = string(forms.FieldText)
		}
		fmt.Fprintf(&sb, `<label for="%s">%s</label>`, id, label)
		fmt.Fprintf(&sb, `<input type="%s" id="%s" name="%s" value="%s" placeholder="%s" lv-change="%s"%s>`,
			inputType, id, name, value, html.EscapeString(field.Placeholder), EventChange, invalid)
	}

	if field.Help != "" {
		fmt.Fprintf(&sb, `<p class="field-help">%s</p>`, html.EscapeString(field.Help))
	}
	if message != "" {
		fmt.Fprintf(&sb, `<p class="field-error" role="alert">%s</p>`, html.EscapeString(message))
	}
	sb.WriteString(`</div>`)
	return sb.String()
}

func (s *Stepper) renderSuccess(state wizard.State, sessionID, token string) string {
	var sb strings.Builder
	sb.WriteString(`<div class="stepper-success" role="status"><h2>Thank you!</h2><dl class="stepper-summary">`)
	for _, step := range s.wiz.Steps() {
		for _, field := range step.Content {
			fmt.Fprintf(&sb, `<dt>%s</dt><dd>%s</dd>`,
				html.EscapeString(field.Label), html.EscapeString(state.Values.String(field.Name)))
		}
	}
	sb.WriteString(`</dl>`)
	if status := s.wiz.Status(); status != nil {
		fmt.Fprintf(&sb, `<p class="stepper-status">%s</p>`, html.EscapeString(fmt.Sprint(status)))
	}
	fmt.Fprintf(&sb, `<form method="post" action="%s">%s<button type="submit" class="btn btn-primary" name="_event" value="%s" lv-click="%s">Start over</button></form>`,
		html.EscapeString(s.action(sessionID)), csrfInput(token), EventReset, EventReset)
	sb.WriteString(`</div>`)
	return sb.String()
}
