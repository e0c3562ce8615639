package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lox/probabilitylab/internal/device"
	"github.com/lox/probabilitylab/internal/history"
	"github.com/lox/probabilitylab/internal/simulator"
	"github.com/lox/probabilitylab/internal/statistics"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	numberStyle = cellStyle.Align(lipgloss.Right)

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// newTable returns a table whose first column is left aligned and the rest
// right aligned
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			default:
				return numberStyle
			}
		})
}

func deviceTitle(label string, def *device.Definition) string {
	title := fmt.Sprintf("Event %s: %s", label, def.Name)
	if def.Icon != "" {
		title = def.Icon + " " + title
	}
	return titleStyle.Render(title)
}

func renderDefinition(w io.Writer, label string, def *device.Definition) {
	fmt.Fprintln(w, deviceTitle(label, def))
	t := newTable("Outcome", "P", "CDF")
	for i, l := range def.Labels {
		t.Row(l, statistics.FormatProbability(def.Probabilities[i], 2), strconv.FormatFloat(def.CDF[i], 'f', 4, 64))
	}
	fmt.Fprintln(w, t.Render())
	if def.Kind == device.Spinner {
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d sectors, skew %.2f", def.Sectors, def.Skew)))
	}
}

func renderFrequencies(w io.Writer, label string, def *device.Definition, ft statistics.Table) {
	fmt.Fprintln(w, deviceTitle(label, def))
	t := newTable("Outcome", "P(theory)", "Count", "Rel. freq", "Δ", "95% CI")
	for _, r := range ft.Rows {
		ci := statistics.Placeholder
		if ft.Trials > 0 {
			ci = fmt.Sprintf("%s to %s",
				statistics.FormatProbability(r.CILow, 1),
				statistics.FormatProbability(r.CIHigh, 1))
		}
		t.Row(r.Label,
			statistics.FormatProbability(r.Theoretical, 1),
			statistics.FormatCount(r.Count),
			statistics.FormatProbability(r.Relative, 1),
			statistics.FormatSignedProbability(r.Delta, 1),
			ci)
	}
	fmt.Fprintln(w, t.Render())
	if ft.Trials > 0 {
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("chi-square %.3f (df %d), total variation %s",
			ft.ChiSquare, ft.DegreesOfFreedom, statistics.FormatProbability(ft.TotalVariation, 2))))
	}
}

func renderTwoWay(w io.Writer, tw statistics.TwoWayTable) {
	fmt.Fprintln(w, titleStyle.Render("Joint counts (A rows, B columns)"))
	headers := append([]string{`A \ B`}, tw.ColLabels...)
	t := newTable(append(headers, "Total")...)
	for a, label := range tw.RowLabels {
		row := []string{label}
		for _, n := range tw.Joint[a] {
			row = append(row, statistics.FormatCount(n))
		}
		t.Row(append(row, statistics.FormatCount(tw.RowTotals[a]))...)
	}
	totals := []string{"Total"}
	for _, n := range tw.ColTotals {
		totals = append(totals, statistics.FormatCount(n))
	}
	t.Row(append(totals, statistics.FormatCount(tw.Trials))...)
	fmt.Fprintln(w, t.Render())

	fmt.Fprintln(w, titleStyle.Render("P(B | A)"))
	ct := newTable(headers...)
	for a, label := range tw.RowLabels {
		row := []string{label}
		for _, p := range tw.Conditional[a] {
			row = append(row, statistics.FormatProbability(p, 1))
		}
		ct.Row(row...)
	}
	fmt.Fprintln(w, ct.Render())
	if tw.Trials > 0 {
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("independence chi-square %.3f (df %d)", tw.ChiSquare, tw.DegreesOfFreedom)))
	}
}

func renderSummary(w io.Writer, snap simulator.Snapshot) {
	s := snap.Summary()
	renderFrequencies(w, "A", snap.A, s.A)
	if s.B != nil {
		renderFrequencies(w, "B", snap.B, *s.B)
	}
	if s.Joint != nil {
		renderTwoWay(w, *s.Joint)
	}
}

func renderSweep(w io.Writer, snaps []simulator.Snapshot, moments []statistics.Moments) {
	if len(snaps) == 0 {
		return
	}
	def := snaps[0].A
	headers := append([]string{"Seed"}, def.Labels...)
	t := newTable(headers...)
	for _, snap := range snaps {
		ft := snap.Summary().A
		row := []string{snap.Seed}
		for _, r := range ft.Rows {
			row = append(row, statistics.FormatProbability(r.Relative, 2))
		}
		t.Row(row...)
	}

	mean := []string{"Mean"}
	spread := []string{"95% CI ±"}
	for _, m := range moments {
		lo, hi := m.ConfidenceInterval95()
		mean = append(mean, statistics.FormatProbability(m.Mean(), 2))
		spread = append(spread, statistics.FormatProbability((hi-lo)/2, 2))
	}
	t.Row(mean...)
	t.Row(spread...)

	fmt.Fprintln(w, deviceTitle("A", def))
	fmt.Fprintln(w, t.Render())
}

func renderHistory(w io.Writer, a, b *device.Definition, from int, window []history.Pair) {
	headers := []string{"Trial", "A"}
	if b != nil {
		headers = append(headers, "B")
	}
	t := newTable(headers...)
	for i, p := range window {
		row := []string{statistics.FormatCount(from + i + 1), a.Label(int(p.A))}
		if b != nil {
			row = append(row, b.Label(int(p.B)))
		}
		t.Row(row...)
	}
	fmt.Fprintln(w, t.Render())
	if len(window) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no trials in range"))
	}
}
