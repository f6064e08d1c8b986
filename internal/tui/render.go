package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	purple = lipgloss.Color("99")
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	yellow = lipgloss.Color("214")
	dim    = lipgloss.Color("243")
	faint  = lipgloss.Color("238")
)

var (
	TitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(purple)
	ActiveTabStyle = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(purple).Padding(0, 1)
	TabStyle       = lipgloss.NewStyle().Foreground(dim).Padding(0, 1)
	MutedStyle     = lipgloss.NewStyle().Foreground(dim)
	SuccessStyle   = lipgloss.NewStyle().Foreground(green)
	ErrorStyle     = lipgloss.NewStyle().Foreground(red)
	WarnStyle      = lipgloss.NewStyle().Foreground(yellow)
	LabelStyle     = lipgloss.NewStyle().Foreground(dim)
	SelectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(purple)
)

// TabBar renders the tab strip with the active tab highlighted. Each label
// is prefixed with its number key.
func TabBar(active Tab, width int) string {
	parts := make([]string, 0, len(Tabs()))
	for i, t := range Tabs() {
		label := fmt.Sprintf("%d %s", i+1, t.Title())
		if t == active {
			parts = append(parts, ActiveTabStyle.Render(label))
		} else {
			parts = append(parts, TabStyle.Render(label))
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if width > 0 {
		bar = lipgloss.NewStyle().MaxWidth(width).Render(bar)
	}
	return bar
}

// Pair is one row of KeyValues output.
type Pair struct {
	key   string
	value string
}

// KV creates a key-value pair.
func KV(key, value string) Pair {
	return Pair{key: key, value: value}
}

// KeyValues renders aligned "key:  value" lines.
func KeyValues(indent string, pairs ...Pair) []string {
	maxLen := 0
	for _, p := range pairs {
		if len(p.key) > maxLen {
			maxLen = len(p.key)
		}
	}

	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		label := fmt.Sprintf("%-*s", maxLen+1, p.key+":")
		lines = append(lines, indent+LabelStyle.Render(label)+" "+p.value)
	}
	return lines
}

// Table renders rows under a header with rounded borders.
func Table(headers []string, rows [][]string) []string {
	headerStyle := lipgloss.NewStyle().Foreground(purple).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(faint)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)

	return strings.Split(t.String(), "\n")
}

// PadOrTruncate pads or truncates a string to exactly width runes.
func PadOrTruncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	n := utf8.RuneCountInString(s)
	if n <= width {
		return s + strings.Repeat(" ", width-n)
	}
	return Truncate(s, width)
}

// Truncate shortens s to width runes, ending in "..." when cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width >= 3 {
		return string(runes[:width-3]) + "..."
	}
	return string(runes[:width])
}

// WrapText wraps text on word boundaries to fit within width.
func WrapText(text string, width int) []string {
	if width <= 0 {
		return nil
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width {
			current += " " + word
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}
