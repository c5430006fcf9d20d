package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title       lipgloss.Style
	Prompt      lipgloss.Style
	Pattern     lipgloss.Style
	Summary     lipgloss.Style
	Dim         lipgloss.Style
	Subtitle    lipgloss.Style
	Accessory   lipgloss.Style
	Icon        lipgloss.Style
	SelectedRow lipgloss.Style
	Suggestion  lipgloss.Style
	Actionable  lipgloss.Style
	NoticeWarn  lipgloss.Style
	NoticeError lipgloss.Style
	Help        lipgloss.Style
	DetailBox   lipgloss.Style
	DetailTitle lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Prompt:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Pattern: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Summary: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Dim:     lipgloss.NewStyle().Faint(true),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		Accessory: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		Icon:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		SelectedRow: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Bold(true),
		Suggestion: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Actionable: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Underline(true),
		NoticeWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		NoticeError: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Help:        lipgloss.NewStyle().Faint(true),
		DetailBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			BorderForeground(lipgloss.Color("241")),
		DetailTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
	}
}
