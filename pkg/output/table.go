// Package output renders fixed-width console tables for the adotools
// commands.
package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)

	approvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // green
	blockedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220")) // yellow
)

const columnGap = 2

// Table accumulates rows and renders them with aligned columns.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow appends a row. Short rows are padded with empty cells.
func (t *Table) AddRow(cells ...string) {
	for len(cells) < len(t.headers) {
		cells = append(cells, "")
	}
	t.rows = append(t.rows, cells)
}

// Render returns the formatted table. Column widths are measured with
// lipgloss.Width so pre-styled cells never skew the alignment.
func (t *Table) Render() string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var b strings.Builder
	b.WriteString(renderRow(t.headers, widths, headerStyle))
	b.WriteString(dimStyle.Render(strings.Repeat("─", totalWidth(widths))))
	b.WriteString("\n")
	for _, row := range t.rows {
		b.WriteString(renderRow(row, widths, lipgloss.NewStyle()))
	}
	return b.String()
}

func renderRow(cells []string, widths []int, style lipgloss.Style) string {
	var b strings.Builder
	for i, cell := range cells {
		padded := cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		b.WriteString(style.Render(padded))
		if i < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", columnGap))
		}
	}
	b.WriteString("\n")
	return b.String()
}

func totalWidth(widths []int) int {
	total := columnGap * (len(widths) - 1)
	for _, w := range widths {
		total += w
	}
	return total
}

// VoteCell colors a vote status code: approvals green, blocks red,
// anything actionable yellow, inactive dim.
func VoteCell(status string) string {
	switch status {
	case "Apprvd", "Sugges":
		return approvedStyle.Render(status)
	case "Reject", "Wait4A":
		return blockedStyle.Render(status)
	case "NoVote":
		return pendingStyle.Render(status)
	case "---":
		return dimStyle.Render(status)
	default:
		return status
	}
}

// RatioCell colors an "approved/total" ratio green when complete, yellow
// when partially approved, and dim when there is nothing to approve.
func RatioCell(ratio string) string {
	switch {
	case ratio == "0/0":
		return dimStyle.Render(ratio)
	case !strings.HasPrefix(ratio, "0/") && ratioComplete(ratio):
		return approvedStyle.Render(ratio)
	default:
		return pendingStyle.Render(ratio)
	}
}

func ratioComplete(ratio string) bool {
	parts := strings.SplitN(ratio, "/", 2)
	return len(parts) == 2 && parts[0] == parts[1]
}

// Truncate shortens s to max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

// Age renders how long ago t was as a compact cell value.
func Age(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
