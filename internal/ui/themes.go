package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Theme represents a color theme for the chat window
type Theme struct {
	Name string

	// Primary colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Accent    lipgloss.AdaptiveColor

	// Semantic colors
	Success lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Error   lipgloss.AdaptiveColor
	Info    lipgloss.AdaptiveColor

	// UI colors
	Border    lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor

	// Bubble colors
	Sent     lipgloss.AdaptiveColor
	Received lipgloss.AdaptiveColor
}

// buildTheme creates a theme from [light, dark] pairs
func buildTheme(name string, primary, secondary, accent, success, warning, errorColor, info, border, muted, highlight, sent, received [2]string) Theme {
	adaptive := func(c [2]string) lipgloss.AdaptiveColor {
		return lipgloss.AdaptiveColor{Light: c[0], Dark: c[1]}
	}
	return Theme{
		Name:      name,
		Primary:   adaptive(primary),
		Secondary: adaptive(secondary),
		Accent:    adaptive(accent),
		Success:   adaptive(success),
		Warning:   adaptive(warning),
		Error:     adaptive(errorColor),
		Info:      adaptive(info),
		Border:    adaptive(border),
		Muted:     adaptive(muted),
		Highlight: adaptive(highlight),
		Sent:      adaptive(sent),
		Received:  adaptive(received),
	}
}

// Available themes
var (
	DefaultTheme = buildTheme("default",
		[2]string{"#1E40AF", "#3B82F6"}, [2]string{"#6B7280", "#9CA3AF"}, [2]string{"#7C3AED", "#A855F7"},
		[2]string{"#059669", "#10B981"}, [2]string{"#D97706", "#F59E0B"}, [2]string{"#DC2626", "#EF4444"},
		[2]string{"#0891B2", "#06B6D4"}, [2]string{"#D1D5DB", "#374151"}, [2]string{"#6B7280", "#9CA3AF"},
		[2]string{"#FEF3C7", "#1F2937"}, [2]string{"#DBEAFE", "#1E3A8A"}, [2]string{"#F3F4F6", "#1F2937"})

	HighContrastTheme = buildTheme("high-contrast",
		[2]string{"#000000", "#FFFFFF"}, [2]string{"#666666", "#BBBBBB"}, [2]string{"#000080", "#8080FF"},
		[2]string{"#006600", "#00FF00"}, [2]string{"#CC6600", "#FFAA00"}, [2]string{"#CC0000", "#FF4444"},
		[2]string{"#0066CC", "#4499FF"}, [2]string{"#000000", "#FFFFFF"}, [2]string{"#666666", "#BBBBBB"},
		[2]string{"#FFFF00", "#444444"}, [2]string{"#CCCCCC", "#333333"}, [2]string{"#FFFFFF", "#000000"})

	MinimalTheme = buildTheme("minimal",
		[2]string{"#2D3748", "#E2E8F0"}, [2]string{"#718096", "#A0AEC0"}, [2]string{"#4A5568", "#CBD5E0"},
		[2]string{"#2F855A", "#68D391"}, [2]string{"#C05621", "#F6AD55"}, [2]string{"#C53030", "#FC8181"},
		[2]string{"#2B6CB0", "#63B3ED"}, [2]string{"#E2E8F0", "#2D3748"}, [2]string{"#A0AEC0", "#718096"},
		[2]string{"#F7FAFC", "#2D3748"}, [2]string{"#EDF2F7", "#2D3748"}, [2]string{"#FFFFFF", "#1A202C"})
)

// ThemeByName looks up a theme
func ThemeByName(name string) (Theme, bool) {
	switch name {
	case "", "default":
		return DefaultTheme, true
	case "high-contrast":
		return HighContrastTheme, true
	case "minimal":
		return MinimalTheme, true
	default:
		return Theme{}, false
	}
}

// IsColorDisabled checks if colors should be disabled
func IsColorDisabled() bool {
	return os.Getenv("NO_COLOR") != ""
}

// GetAvailableThemes returns list of available theme names
func GetAvailableThemes() []string {
	return []string{"default", "high-contrast", "minimal"}
}

// Styles contains all the styled components of the chat window
type Styles struct {
	Theme Theme

	Title     lipgloss.Style
	Muted     lipgloss.Style
	Timestamp lipgloss.Style

	Sent     lipgloss.Style
	Received lipgloss.Style
	Error    lipgloss.Style
	Loading  lipgloss.Style

	Action      lipgloss.Style
	ActionInert lipgloss.Style

	Picker     lipgloss.Style
	DropTarget lipgloss.Style

	StatusBar lipgloss.Style
	Notice    lipgloss.Style
	Help      lipgloss.Style
}

// NewStyles builds the styles for a theme. With color off every style is plain.
func NewStyles(theme Theme, color bool) *Styles {
	if !color {
		plain := lipgloss.NewStyle()
		bordered := plain.Border(lipgloss.NormalBorder()).Padding(0, 1)
		return &Styles{
			Theme:       theme,
			Title:       plain.Bold(true),
			Muted:       plain,
			Timestamp:   plain,
			Sent:        bordered,
			Received:    bordered,
			Error:       bordered,
			Loading:     plain,
			Action:      plain.Bold(true),
			ActionInert: plain,
			Picker:      bordered,
			DropTarget:  plain.Border(lipgloss.DoubleBorder()).Padding(0, 1),
			StatusBar:   plain,
			Notice:      plain,
			Help:        plain,
		}
	}

	bubble := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	return &Styles{
		Theme: theme,

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			Padding(0, 1),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Timestamp: lipgloss.NewStyle().
			Foreground(theme.Secondary).
			Faint(true),

		Sent: bubble.
			BorderForeground(theme.Primary).
			Background(theme.Sent),

		Received: bubble.
			BorderForeground(theme.Border).
			Background(theme.Received),

		Error: bubble.
			BorderForeground(theme.Error).
			Foreground(theme.Error),

		Loading: lipgloss.NewStyle().
			Foreground(theme.Info),

		Action: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true).
			Underline(true),

		ActionInert: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Strikethrough(true),

		Picker: bubble.
			BorderForeground(theme.Secondary).
			BorderStyle(lipgloss.NormalBorder()),

		DropTarget: bubble.
			BorderForeground(theme.Success).
			BorderStyle(lipgloss.DoubleBorder()).
			Background(theme.Highlight),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Secondary).
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(theme.Border),

		Notice: lipgloss.NewStyle().
			Foreground(theme.Warning).
			Bold(true),

		Help: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),
	}
}
