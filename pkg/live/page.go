package live

import (
	"html"
	"io"
	"strings"
)

const pageStyles = `
:root { --accent: #8b5cf6; --error: #dc2626; --muted: #6b7280; --border: #e5e7eb; }
* { box-sizing: border-box; }
body { margin: 0; font-family: system-ui, sans-serif; background: #f9fafb; color: #111827; }
main { max-width: 40rem; margin: 3rem auto; padding: 2rem; background: #fff; border: 1px solid var(--border); border-radius: .75rem; }
.stepper-title { margin-top: 0; font-size: 1.5rem; }
.stepper-steps { display: flex; gap: .5rem; list-style: none; padding: 0; margin: 0 0 1.5rem; }
.step { flex: 1; display: flex; align-items: center; gap: .5rem; color: var(--muted); }
.step-index { display: inline-flex; width: 1.75rem; height: 1.75rem; align-items: center; justify-content: center; border-radius: 50%; border: 2px solid var(--border); font-size: .875rem; }
.step.active { color: #111827; font-weight: 600; }
.step.active .step-index { border-color: var(--accent); color: var(--accent); }
.step.completed .step-index { background: var(--accent); border-color: var(--accent); color: #fff; }
.field { margin-bottom: 1rem; }
.field label { display: block; margin-bottom: .25rem; font-weight: 500; }
.field input[type=text], .field input[type=email], .field input[type=password], .field input[type=number], .field textarea, .field select { width: 100%; padding: .5rem .75rem; border: 1px solid var(--border); border-radius: .375rem; font: inherit; }
.field.has-error input, .field.has-error textarea, .field.has-error select { border-color: var(--error); }
.field-help { margin: .25rem 0 0; color: var(--muted); font-size: .875rem; }
.field-error { margin: .25rem 0 0; color: var(--error); font-size: .875rem; }
.stepper-actions { display: flex; justify-content: flex-end; gap: .5rem; margin-top: 1.5rem; }
.btn { padding: .5rem 1rem; border: 1px solid var(--border); border-radius: .375rem; background: #fff; font: inherit; cursor: pointer; }
.btn-primary { background: var(--accent); border-color: var(--accent); color: #fff; }
.btn:disabled { opacity: .6; cursor: progress; }
.stepper-banner.error { padding: .75rem 1rem; margin-bottom: 1rem; border-radius: .375rem; background: #fef2f2; color: var(--error); }
.stepper-summary dt { font-weight: 600; }
.stepper-summary dd { margin: 0 0 .5rem; color: var(--muted); }
`

// writePage writes the full document around a component fragment.
func writePage(w io.Writer, title, sessionID, fragment string) error {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString(`<meta charset="utf-8">` + "\n")
	sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")
	sb.WriteString("<title>" + html.EscapeString(title) + "</title>\n")
	sb.WriteString("<style>" + pageStyles + "</style>\n")
	sb.WriteString("</head>\n<body>\n<main>\n")
	sb.WriteString(`<div id="stepper-root" data-live-session="` + html.EscapeString(sessionID) + `" data-live-path="/live">`)
	sb.WriteString(fragment)
	sb.WriteString("</div>\n</main>\n")
	sb.WriteString(`<script src="/_live/stepper.js" defer></script>` + "\n")
	sb.WriteString("</body>\n</html>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
