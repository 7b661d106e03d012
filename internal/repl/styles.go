package repl

import "github.com/charmbracelet/lipgloss"

const (
	colorAccent   = "154"
	colorGray     = "245"
	colorDarkGray = "238"
	colorRed      = "196"
	colorYellow   = "220"
)

// Styles holds the terminal styles used for output.
type Styles struct {
	Header    lipgloss.Style
	Label     lipgloss.Style
	Dim       lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Rule      lipgloss.Style
}

// DefaultStyles returns colored styles for terminal output.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent)),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color(colorDarkGray)),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)),
		Highlight: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorYellow)),
		Rule:      lipgloss.NewStyle().Foreground(lipgloss.Color(colorDarkGray)),
	}
}

// NoColorStyles returns unstyled components for plain output.
func NoColorStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle(),
		Label:     lipgloss.NewStyle(),
		Dim:       lipgloss.NewStyle(),
		Error:     lipgloss.NewStyle(),
		Highlight: lipgloss.NewStyle(),
		Rule:      lipgloss.NewStyle(),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
