package ui

import (
	"fmt"
	"strings"

	"TradeTerminal/internal/collector"
	"TradeTerminal/internal/model"
	"TradeTerminal/internal/notifier"

	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor  = lipgloss.Color("#00E5FF")
	gainColor    = lipgloss.Color("#00C853")
	lossColor    = lipgloss.Color("#FF3D00")
	mutedColor   = lipgloss.Color("#8b949e")
	warningColor = lipgloss.Color("#FFAB40")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(mutedColor)

	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)
)

var columnWidths = []int{20, 16, 14, 10}

func cell(text string, width int, right bool) string {
	style := lipgloss.NewStyle().Width(width)
	if right {
		style = style.Align(lipgloss.Right)
	}
	return style.Render(text)
}

func changeStyle(pct float64) lipgloss.Style {
	switch {
	case pct > 0:
		return lipgloss.NewStyle().Foreground(gainColor)
	case pct < 0:
		return lipgloss.NewStyle().Foreground(lossColor)
	default:
		return lipgloss.NewStyle()
	}
}

// RenderScanner draws scanner rows as a table: gains in green, losses in red.
func RenderScanner(rows []model.ScannerRow) string {
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		cell("SECTOR", columnWidths[0], false),
		cell("INSTRUMENT", columnWidths[1], false),
		cell("PRICE", columnWidths[2], true),
		cell("CHANGE", columnWidths[3], true),
	)
	lines := []string{headerStyle.Render(header)}
	for _, r := range rows {
		change := changeStyle(r.ChangePct).Render(cell(notifier.FormatChangePct(r.ChangePct), columnWidths[3], true))
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			cell(r.Sector, columnWidths[0], false),
			cell(r.Instrument, columnWidths[1], false),
			cell(notifier.FormatPrice(r.Price), columnWidths[2], true),
			change,
		))
	}
	if len(rows) == 0 {
		lines = append(lines, mutedStyle.Render("no market data"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// RenderMacro draws the macro vitals on one line each.
func RenderMacro(ticks []model.MacroTick) string {
	var b strings.Builder
	for _, t := range ticks {
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			cell(t.Name, columnWidths[1], false),
			cell(notifier.FormatPrice(t.Latest), columnWidths[2], true),
			changeStyle(t.ChangePct).Render(cell(notifier.FormatChangePct(t.ChangePct), columnWidths[3], true))))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderSnapshot draws a full snapshot for a terminal.
func RenderSnapshot(snap *collector.Snapshot) string {
	parts := []string{
		titleStyle.Render("GLOBAL TRADE TERMINAL") + " " +
			mutedStyle.Render(fmt.Sprintf("%s | range %s", snap.GeneratedAt.Format("2006-01-02 15:04 MST"), snap.Params.Range)),
	}
	if len(snap.Macro) > 0 {
		parts = append(parts, boxStyle.Render(RenderMacro(snap.Macro)))
	}
	parts = append(parts, boxStyle.Render(RenderScanner(snap.Scanner)))
	if len(snap.Skipped) > 0 {
		names := make([]string, len(snap.Skipped))
		for i, s := range snap.Skipped {
			names[i] = s.Instrument
		}
		parts = append(parts, mutedStyle.Render("no data: "+strings.Join(names, ", ")))
	}
	for _, n := range snap.Notices {
		parts = append(parts, lipgloss.NewStyle().Foreground(warningColor).Render("! "+n))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
