package render

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette for command output.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Secondary is the secondary accent colour.
	Secondary lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Success indicates positive outcomes.
	Success lipgloss.Color

	// Warning indicates caution.
	Warning lipgloss.Color

	// Error indicates problems.
	Error lipgloss.Color

	// Border is the table border colour.
	Border lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"), // Purple
		Secondary:  lipgloss.Color("#06B6D4"), // Cyan
		Foreground: lipgloss.Color("#CDD6F4"),
		Muted:      lipgloss.Color("#6C7086"),
		Success:    lipgloss.Color("#A6E3A1"),
		Warning:    lipgloss.Color("#F9E2AF"),
		Error:      lipgloss.Color("#F38BA8"),
		Border:     lipgloss.Color("#45475A"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme
	plain bool

	Title   lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style

	// Header styles the results table header row.
	Header lipgloss.Style

	// Cell styles results table body cells.
	Cell lipgloss.Style

	// Rank styles the rank column.
	Rank lipgloss.Style

	// Border styles the results table border.
	Border lipgloss.Style

	// The remaining styles are used by the interactive search screen.
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Selected   lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style
	Box        lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title:   lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Label:   lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(theme.Muted),
		Error:   lipgloss.NewStyle().Foreground(theme.Error),
		Success: lipgloss.NewStyle().Foreground(theme.Success),
		Warning: lipgloss.NewStyle().Foreground(theme.Warning),

		Header: lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Padding(0, 1),
		Cell:   lipgloss.NewStyle().Padding(0, 1),
		Rank:   lipgloss.NewStyle().Foreground(theme.Muted).Padding(0, 1),
		Border: lipgloss.NewStyle().Foreground(theme.Border),

		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Normal:   lipgloss.NewStyle().Foreground(theme.Foreground),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Foreground).
			Background(theme.Primary),
		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(lipgloss.Color("#181825")).
			Padding(0, 1),
		Help: lipgloss.NewStyle().Foreground(theme.Muted),
		Box: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
	}
}

// PlainStyles returns styles that add no colour or emphasis, for output
// that is piped or redirected. Cell padding is kept so tables still align.
func PlainStyles() *Styles {
	none := lipgloss.NewStyle()
	padded := none.Padding(0, 1)
	return &Styles{
		theme:   DefaultTheme(),
		plain:   true,
		Title:   none,
		Label:   none,
		Muted:   none,
		Error:   none,
		Success: none,
		Warning: none,
		Header:  padded,
		Cell:    padded,
		Rank:    padded,
		Border:  none,

		Subtitle:   none,
		Normal:     none,
		Selected:   none,
		InputField: none,
		StatusBar:  none,
		Help:       none,
		Box:        none,
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// ForTerminal returns DefaultStyles when isTTY is true and PlainStyles
// otherwise.
func ForTerminal(isTTY bool) *Styles {
	if isTTY {
		return DefaultStyles()
	}
	return PlainStyles()
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// IsPlain reports whether the styles add no formatting.
func (s *Styles) IsPlain() bool {
	return s.plain
}
