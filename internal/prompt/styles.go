package prompt

import "github.com/charmbracelet/lipgloss"

var (
	colorGreen = lipgloss.Color("#22c55e")
	colorRed   = lipgloss.Color("#ef4444")
	colorBlue  = lipgloss.Color("#3b82f6")
	colorDim   = lipgloss.Color("#6b7280")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	activeStepStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	doneStepStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	pendingStepStyle = lipgloss.NewStyle().
				Foreground(colorDim)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGreen)

	keyStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)
