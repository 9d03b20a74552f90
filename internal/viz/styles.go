package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	HeaderStyle   lipgloss.Style
	StatusRunning lipgloss.Style
	StatusPaused  lipgloss.Style
	StatusFailed  lipgloss.Style
	MetricLabel   lipgloss.Style
	MetricValue   lipgloss.Style
	KeyHint       lipgloss.Style
	Subtle        lipgloss.Style
	PathStyle     lipgloss.Style

	statsStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).
			Width(46)
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
)

func init() {
	applyTheme(CurrentTheme)
}

func applyTheme(th Theme) {
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(th.Primary).MarginBottom(1)
	StatusRunning = lipgloss.NewStyle().Bold(true).Foreground(th.Success)
	StatusPaused = lipgloss.NewStyle().Bold(true).Foreground(th.Warning)
	StatusFailed = lipgloss.NewStyle().Bold(true).Foreground(th.Error)
	MetricLabel = lipgloss.NewStyle().Foreground(th.Muted).Width(14)
	MetricValue = lipgloss.NewStyle().Foreground(th.Text)
	KeyHint = lipgloss.NewStyle().Foreground(th.Muted).Italic(true).MarginTop(1)
	Subtle = lipgloss.NewStyle().Foreground(th.Muted)
	PathStyle = lipgloss.NewStyle().Foreground(th.Accent)
}

// ProgressBar renders the fraction done as a bar of the given width.
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// SparklineChart renders a mini sparkline from values
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
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

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var result strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))
		result.WriteRune(chars[idx])
	}

	return result.String()
}

// MetricsTable renders metrics as aligned label/value rows sorted by name.
func MetricsTable(metrics map[string]float64) string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(MetricLabel.Width(20).Render(name) + MetricValue.Render(fmt.Sprintf("%.4f", metrics[name])) + "\n")
	}
	return b.String()
}

func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return Subtle.Render(left + " ◆ " + right)
}
