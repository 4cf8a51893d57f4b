// Package theme holds the dashboard color palettes and styles.
package theme

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/timetracker/tdash/internal/render"
)

// Theme defines the dashboard palette.
type Theme struct {
	Name string

	// Base colors
	Base     lipgloss.Color
	Surface0 lipgloss.Color
	Surface1 lipgloss.Color

	// Text colors
	Text    lipgloss.Color
	Subtext lipgloss.Color
	Overlay lipgloss.Color

	// Semantic colors
	Primary lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Tracker colors
	Working lipgloss.Color // status chart, working badge
	Offline lipgloss.Color
	Target  lipgloss.Color // weekly target line
}

// Classic matches the tracker's web dashboard.
var Classic = Theme{
	Name:     "classic",
	Base:     lipgloss.Color("#212529"),
	Surface0: lipgloss.Color("#343a40"),
	Surface1: lipgloss.Color("#495057"),
	Text:     lipgloss.Color("#f8f9fa"),
	Subtext:  lipgloss.Color("#ced4da"),
	Overlay:  lipgloss.Color("#6c757d"),
	Primary:  lipgloss.Color("#007bff"),
	Success:  lipgloss.Color("#28a745"),
	Warning:  lipgloss.Color("#ffc107"),
	Error:    lipgloss.Color("#dc3545"),
	Info:     lipgloss.Color("#17a2b8"),
	Working:  lipgloss.Color("#28a745"),
	Offline:  lipgloss.Color("#6c757d"),
	Target:   lipgloss.Color("#007bff"),
}

// CatppuccinMocha is the default dark theme.
var CatppuccinMocha = Theme{
	Name:     "mocha",
	Base:     lipgloss.Color("#1e1e2e"),
	Surface0: lipgloss.Color("#313244"),
	Surface1: lipgloss.Color("#45475a"),
	Text:     lipgloss.Color("#cdd6f4"),
	Subtext:  lipgloss.Color("#a6adc8"),
	Overlay:  lipgloss.Color("#6c7086"),
	Primary:  lipgloss.Color("#89b4fa"),
	Success:  lipgloss.Color("#a6e3a1"),
	Warning:  lipgloss.Color("#f9e2af"),
	Error:    lipgloss.Color("#f38ba8"),
	Info:     lipgloss.Color("#89dceb"),
	Working:  lipgloss.Color("#a6e3a1"),
	Offline:  lipgloss.Color("#6c7086"),
	Target:   lipgloss.Color("#89b4fa"),
}

// CatppuccinLatte is the light theme.
var CatppuccinLatte = Theme{
	Name:     "latte",
	Base:     lipgloss.Color("#eff1f5"),
	Surface0: lipgloss.Color("#ccd0da"),
	Surface1: lipgloss.Color("#bcc0cc"),
	Text:     lipgloss.Color("#4c4f69"),
	Subtext:  lipgloss.Color("#6c6f85"),
	Overlay:  lipgloss.Color("#7c7f93"),
	Primary:  lipgloss.Color("#1e66f5"),
	Success:  lipgloss.Color("#40a02b"),
	Warning:  lipgloss.Color("#df8e1d"),
	Error:    lipgloss.Color("#d20f39"),
	Info:     lipgloss.Color("#04a5e5"),
	Working:  lipgloss.Color("#40a02b"),
	Offline:  lipgloss.Color("#7c7f93"),
	Target:   lipgloss.Color("#1e66f5"),
}

// Nord is the arctic theme.
var Nord = Theme{
	Name:     "nord",
	Base:     lipgloss.Color("#2e3440"),
	Surface0: lipgloss.Color("#3b4252"),
	Surface1: lipgloss.Color("#434c5e"),
	Text:     lipgloss.Color("#eceff4"),
	Subtext:  lipgloss.Color("#d8dee9"),
	Overlay:  lipgloss.Color("#7b88a1"),
	Primary:  lipgloss.Color("#88c0d0"),
	Success:  lipgloss.Color("#a3be8c"),
	Warning:  lipgloss.Color("#ebcb8b"),
	Error:    lipgloss.Color("#bf616a"),
	Info:     lipgloss.Color("#81a1c1"),
	Working:  lipgloss.Color("#a3be8c"),
	Offline:  lipgloss.Color("#7b88a1"),
	Target:   lipgloss.Color("#5e81ac"),
}

// Plain uses terminal defaults everywhere. Used when NO_COLOR is set.
var Plain = Theme{Name: "plain"}

// NoColorEnabled reports whether color output is disabled.
// NO_COLOR disables colors when present with any value. TDASH_NO_COLOR=1
// disables them too, and TDASH_NO_COLOR=0 forces them on over NO_COLOR.
func NoColorEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("TDASH_NO_COLOR"))) {
	case "0", "false", "no", "off":
		return false
	case "1", "true", "yes", "on":
		return true
	}
	_, set := os.LookupEnv("NO_COLOR")
	return set
}

// FromName returns a theme by name. Unknown names auto-detect.
func FromName(name string) Theme {
	if NoColorEnabled() {
		return Plain
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "plain", "none", "no-color", "nocolor":
		return Plain
	case "classic", "web":
		return Classic
	case "nord":
		return Nord
	case "latte", "light":
		return CatppuccinLatte
	case "mocha", "dark":
		return CatppuccinMocha
	default:
		return autoTheme()
	}
}

// detectDarkBackground is a variable so tests can replace it.
var detectDarkBackground = func() bool {
	return termenv.NewOutput(os.Stdout).HasDarkBackground()
}

var (
	cachedAutoTheme Theme
	autoThemeOnce   sync.Once
)

func resetAutoTheme() {
	autoThemeOnce = sync.Once{}
	cachedAutoTheme = Theme{}
}

func autoTheme() Theme {
	autoThemeOnce.Do(func() {
		cachedAutoTheme = CatppuccinMocha

		defer func() {
			if recover() != nil {
				cachedAutoTheme = CatppuccinMocha
			}
		}()

		if !detectDarkBackground() {
			cachedAutoTheme = CatppuccinLatte
		}
	})
	return cachedAutoTheme
}

// Styles contains pre-built lipgloss styles for a theme.
type Styles struct {
	Header  lipgloss.Style
	Title   lipgloss.Style
	Divider lipgloss.Style

	Normal lipgloss.Style
	Bold   lipgloss.Style
	Dim    lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	Card      lipgloss.Style
	CardValue lipgloss.Style
	CardLabel lipgloss.Style
	Box       lipgloss.Style
	BoxTitle  lipgloss.Style

	Working lipgloss.Style
	Offline lipgloss.Style
	Target  lipgloss.Style

	Help      lipgloss.Style
	StatusBar lipgloss.Style
}

// NewStyles creates Styles from a theme.
func NewStyles(t Theme) Styles {
	s := Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary).
			Padding(0, 1),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(t.Text),
		Divider: lipgloss.NewStyle().Foreground(t.Surface1),

		Normal: lipgloss.NewStyle().Foreground(t.Text),
		Bold:   lipgloss.NewStyle().Bold(true).Foreground(t.Text),
		Dim:    lipgloss.NewStyle().Foreground(t.Overlay),

		Success: lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Warning: lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Info:    lipgloss.NewStyle().Bold(true).Foreground(t.Info),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Surface1).
			Padding(0, 1),
		CardValue: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		CardLabel: lipgloss.NewStyle().Foreground(t.Subtext),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Surface1).
			Padding(0, 1),
		BoxTitle: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),

		Working: lipgloss.NewStyle().Bold(true).Foreground(t.Working),
		Offline: lipgloss.NewStyle().Foreground(t.Offline),
		Target:  lipgloss.NewStyle().Foreground(t.Target),

		Help: lipgloss.NewStyle().Foreground(t.Overlay),
		StatusBar: lipgloss.NewStyle().
			Foreground(t.Subtext).
			Background(t.Surface0).
			Padding(0, 1),
	}

	// Without color, status must not be encoded by color alone.
	if t.Name == Plain.Name {
		s.Warning = s.Warning.Underline(true)
		s.Error = s.Error.Underline(true)
		s.Working = s.Working.Underline(true)
	}
	return s
}

// ForBand returns the color for a weekly-hours band.
func (t Theme) ForBand(band render.Band) lipgloss.Color {
	switch band {
	case render.BandMet:
		return t.Success
	case render.BandMid:
		return t.Warning
	default:
		return t.Error
	}
}
