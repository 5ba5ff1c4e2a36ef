package prompt

import (
	"context"
	"io"

	"github.com/charmbracelet/huh"

	"github.com/gabrielmiguelok/golivestepper/pkg/forms"
)

// ErrAborted is returned when the user quits a form.
var ErrAborted = huh.ErrUserAborted

const backChoice = "__back"

// HuhAsker asks each page as a huh form. Validation messages from the last
// attempt are shown under their fields.
type HuhAsker struct {
	Theme      *huh.Theme
	Accessible bool
	Input      io.Reader
	Output     io.Writer
}

// Ask implements Asker.
func (a *HuhAsker) Ask(ctx context.Context, page Page) (Answer, error) {
	b := newBindings(page.Fields, page.Values)

	fields := make([]huh.Field, 0, len(page.Fields)+1)
	for _, f := range page.Fields {
		fields = append(fields, b.field(f, page.Errors.Get(f.Name)))
	}

	choice := page.Button
	if page.CanGoBack() {
		fields = append(fields, huh.NewSelect[string]().
			Title("Continue").
			Options(
				huh.NewOption(page.Button, page.Button),
				huh.NewOption("Back", backChoice),
			).
			Value(&choice))
	}

	theme := a.Theme
	if theme == nil {
		theme = huh.ThemeCharm()
	}
	form := huh.NewForm(huh.NewGroup(fields...).Title(page.Label)).
		WithTheme(theme).
		WithAccessible(a.Accessible)
	if a.Input != nil {
		form = form.WithInput(a.Input)
	}
	if a.Output != nil {
		form = form.WithOutput(a.Output)
	}

	if err := form.RunWithContext(ctx); err != nil {
		return Answer{}, err
	}

	answer := Answer{Action: ActionNext, Values: b.values()}
	if choice == backChoice {
		answer.Action = ActionBack
	}
	return answer, nil
}

// bindings holds the variables huh fields write into.
type bindings struct {
	fields []forms.Field
	text   map[string]*string
	flags  map[string]*bool
}

func newBindings(fields []forms.Field, values forms.Values) *bindings {
	b := &bindings{
		fields: fields,
		text:   make(map[string]*string),
		flags:  make(map[string]*bool),
	}
	for _, f := range fields {
		if f.Type == forms.FieldCheckbox {
			v := values.Bool(f.Name)
			b.flags[f.Name] = &v
			continue
		}
		v := values.String(f.Name)
		b.text[f.Name] = &v
	}
	return b
}

// values returns the answers. Text stays a string; the step rule coerces
// numbers.
func (b *bindings) values() forms.Values {
	out := make(forms.Values, len(b.fields))
	for _, f := range b.fields {
		if p, ok := b.flags[f.Name]; ok {
			out[f.Name] = *p
		} else {
			out[f.Name] = *b.text[f.Name]
		}
	}
	return out
}

func (b *bindings) field(f forms.Field, errMsg string) huh.Field {
	desc := describe(f.Help, errMsg)

	switch f.Type {
	case forms.FieldCheckbox:
		return huh.NewConfirm().
			Title(f.Label).
			Description(desc).
			Value(b.flags[f.Name])
	case forms.FieldTextarea:
		return huh.NewText().
			Title(f.Label).
			Description(desc).
			Placeholder(f.Placeholder).
			Value(b.text[f.Name])
	case forms.FieldSelect:
		opts := make([]huh.Option[string], 0, len(f.Options)+1)
		opts = append(opts, huh.NewOption("(none)", ""))
		for _, o := range f.Options {
			label := o.Label
			if label == "" {
				label = o.Value
			}
			opts = append(opts, huh.NewOption(label, o.Value))
		}
		return huh.NewSelect[string]().
			Title(f.Label).
			Description(desc).
			Options(opts...).
			Value(b.text[f.Name])
	}

	in := huh.NewInput().
		Title(f.Label).
		Description(desc).
		Placeholder(f.Placeholder).
		Value(b.text[f.Name])
	if f.Type == forms.FieldPassword {
		in = in.EchoMode(huh.EchoModePassword)
	}
	return in
}

func describe(help, errMsg string) string {
	switch {
	case errMsg == "":
		return help
	case help == "":
		return errorStyle.Render(errMsg)
	}
	return help + "\n" + errorStyle.Render(errMsg)
}
