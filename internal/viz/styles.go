package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// styles are the lipgloss styles derived from one theme.
type styles struct {
	canvas    lipgloss.Style
	stats     lipgloss.Style
	header    lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	active    lipgloss.Style
	graph     lipgloss.Style
	help      lipgloss.Style
	running   lipgloss.Style
	paused    lipgloss.Style
	errStatus lipgloss.Style
	okStatus  lipgloss.Style
	muted     lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		canvas: lipgloss.NewStyle().Padding(canvasPadY, canvasPadX),
		stats: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(statsWidth),
		header:    lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		label:     lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:     lipgloss.NewStyle().Foreground(t.Text),
		active:    lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		graph:     lipgloss.NewStyle().Foreground(t.Primary).Padding(1, 0),
		help:      lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		running:   lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		paused:    lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		errStatus: lipgloss.NewStyle().Foreground(t.Error),
		okStatus:  lipgloss.NewStyle().Foreground(t.Success),
		muted:     lipgloss.NewStyle().Foreground(t.Muted),
	}
}

// GradientText colors each rune of text along a Lab blend from start to end.
func GradientText(text string, start, end colorful.Color) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}

	var result strings.Builder
	for i, c := range runes {
		t := 0.0
		if len(runes) > 1 {
			t = float64(i) / float64(len(runes)-1)
		}
		clr := start.BlendLab(end, t).Clamped()
		result.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(clr.Hex())).Render(string(c)))
	}
	return result.String()
}

// AnimatedSpinner returns frame of animated spinner
func AnimatedSpinner(frame int) string {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return spinners[frame%len(spinners)]
}

// Sparkline renders values as one row of block characters, sampling the
// most recent width values.
func Sparkline(values []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var result strings.Builder
	for _, v := range values {
		idx := int((v - lo) / rng * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))
		result.WriteRune(chars[idx])
	}
	return result.String()
}

// Separator is a muted rule with a center mark.
func Separator(width int, s lipgloss.Style) string {
	if width < 8 {
		return s.Render(strings.Repeat("─", max(width, 0)))
	}
	mid := width / 2
	return s.Render(strings.Repeat("─", mid-2) + " ◆ " + strings.Repeat("─", width-mid-1))
}

// dim blends c toward black by f in [0, 1].
func dim(c colorful.Color, f float64) colorful.Color {
	return c.BlendLab(colorful.Color{}, f).Clamped()
}
