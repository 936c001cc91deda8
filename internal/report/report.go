// Package report renders run summaries for the terminal.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/Iron-Ham/multistair/internal/multistair"
	"github.com/Iron-Ham/multistair/internal/staircase"
)

var (
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	BorderColor    = lipgloss.Color("#6B7280") // Gray

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		MarginBottom(1)

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(MutedColor)

	Done    = lipgloss.NewStyle().Foreground(SecondaryColor)
	Pending = lipgloss.NewStyle().Foreground(WarningColor)

	Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(0, 1)
)

// Row summarises one staircase.
type Row struct {
	Label       string
	DupCardinal int
	Trials      int
	Mean        float64
	Sd          float64
	Low, High   float64
	// Truth is the simulated true threshold, when known.
	Truth    *float64
	Finished bool
}

// Error returns the estimate's distance from the true threshold.
func (r Row) Error() (float64, bool) {
	if r.Truth == nil {
		return 0, false
	}
	return r.Mean - *r.Truth, true
}

// Summary describes one finished or interrupted run.
type Summary struct {
	Name      string
	SessionID string
	Policy    multistair.Policy
	Trials    int
	Finished  bool
	Rows      []Row
}

// FromCoordinator builds a Summary from the coordinator's staircases.
// truth maps labels to simulated thresholds and may be nil.
func FromCoordinator(sessionID string, c *multistair.Coordinator, truth map[string]float64) Summary {
	s := Summary{
		Name:      c.Name(),
		SessionID: sessionID,
		Policy:    c.Config().Policy,
		Trials:    c.Ledger().Populated(),
		Finished:  c.Finished(),
	}
	for _, p := range c.Procedures() {
		row := Row{Label: p.Label(), DupCardinal: p.DupCardinal(), Finished: p.Finished()}
		if h, ok := staircase.QuestHandler(p); ok {
			row.Trials = h.ThisTrialN()
			row.Mean = h.Mean()
			row.Sd = h.Sd()
			row.Low, row.High, _ = h.ConfidenceInterval()
		}
		if v, ok := truth[p.Label()]; ok {
			row.Truth = &v
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

var columns = []struct {
	title string
	width int
}{
	{"STAIRCASE", 12},
	{"TRIALS", 7},
	{"MEAN", 9},
	{"SD", 8},
	{"95% CI", 20},
	{"TRUE", 9},
	{"STATUS", 9},
}

// cell pads s to width columns, truncating long labels so a row never wraps.
func cell(s string, width int) string {
	if lipgloss.Width(s) > width-1 {
		s = ansi.Truncate(s, width-1, "…")
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}

// Render formats a Summary as a bordered table.
func Render(s Summary) string {
	var b strings.Builder

	title := s.Name
	if s.SessionID != "" {
		title += " · " + s.SessionID
	}
	b.WriteString(Title.Render(title))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("policy %s, %d trials\n\n", s.Policy, s.Trials))

	var header []string
	for _, c := range columns {
		header = append(header, cell(c.title, c.width))
	}
	b.WriteString(Header.Render(strings.Join(header, " ")))
	b.WriteString("\n")

	for _, r := range s.Rows {
		label := r.Label
		if r.DupCardinal > 0 {
			label = fmt.Sprintf("%s#%d", r.Label, r.DupCardinal)
		}
		truth := "-"
		if r.Truth != nil {
			truth = fmt.Sprintf("%.3f", *r.Truth)
		}
		status := Pending.Render("running")
		if r.Finished {
			status = Done.Render("done")
		}
		values := []string{
			label,
			fmt.Sprintf("%d", r.Trials),
			fmt.Sprintf("%.3f", r.Mean),
			fmt.Sprintf("%.3f", r.Sd),
			fmt.Sprintf("[%.3f, %.3f]", r.Low, r.High),
			truth,
		}
		var line []string
		for i, v := range values {
			line = append(line, cell(v, columns[i].width))
		}
		line = append(line, status)
		b.WriteString(strings.Join(line, " "))
		b.WriteString("\n")
	}

	return Box.Render(strings.TrimRight(b.String(), "\n"))
}

// LabelStats aggregates one label across batch sessions.
type LabelStats struct {
	Label    string
	Sessions int
	// Bias is the mean signed estimation error.
	Bias float64
	// RMSE is the root mean squared estimation error.
	RMSE float64
}

// Aggregate computes per-label error statistics over summaries. Rows
// without a true threshold are skipped.
func Aggregate(summaries []Summary) []LabelStats {
	type acc struct{ n, sum, sq float64 }
	byLabel := map[string]*acc{}
	for _, s := range summaries {
		for _, r := range s.Rows {
			e, ok := r.Error()
			if !ok {
				continue
			}
			a := byLabel[r.Label]
			if a == nil {
				a = &acc{}
				byLabel[r.Label] = a
			}
			a.n++
			a.sum += e
			a.sq += e * e
		}
	}

	out := make([]LabelStats, 0, len(byLabel))
	for label, a := range byLabel {
		out = append(out, LabelStats{
			Label:    label,
			Sessions: int(a.n),
			Bias:     a.sum / a.n,
			RMSE:     math.Sqrt(a.sq / a.n),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// RenderBatch formats aggregate statistics for a batch of sessions.
func RenderBatch(sessions int, stats []LabelStats) string {
	var b strings.Builder
	b.WriteString(Title.Render(fmt.Sprintf("batch · %d sessions", sessions)))
	b.WriteString("\n")
	b.WriteString(Header.Render(strings.Join([]string{
		cell("STAIRCASE", 12), cell("N", 6), cell("BIAS", 10), cell("RMSE", 10),
	}, " ")))
	b.WriteString("\n")
	for _, s := range stats {
		b.WriteString(strings.Join([]string{
			cell(s.Label, 12),
			cell(fmt.Sprintf("%d", s.Sessions), 6),
			cell(fmt.Sprintf("%+.3f", s.Bias), 10),
			cell(fmt.Sprintf("%.3f", s.RMSE), 10),
		}, " "))
		b.WriteString("\n")
	}
	return Box.Render(strings.TrimRight(b.String(), "\n"))
}
