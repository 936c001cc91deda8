package report

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/multistair/internal/multistair"
	"github.com/Iron-Ham/multistair/internal/staircase"
)

func f(v float64) *float64 { return &v }

func TestFromCoordinatorAndRender(t *testing.T) {
	c, err := multistair.New(multistair.Config{
		Name:    "contrast",
		NTrials: 2,
		Conditions: []staircase.Condition{
			{Label: "A", StartVal: f(0), StartValSd: f(1)},
			{Label: "B", StartVal: f(1), StartValSd: f(1)},
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for !c.Finished() {
		if err := c.AddResponse(1, nil, true); err != nil {
			t.Fatalf("AddResponse() error = %v", err)
		}
	}

	s := FromCoordinator("sess-1", c, map[string]float64{"A": 0.5})
	if s.Trials != 4 || !s.Finished || len(s.Rows) != 2 {
		t.Fatalf("summary = %+v", s)
	}
	if s.Rows[0].Trials != 2 || s.Rows[0].Truth == nil || s.Rows[1].Truth != nil {
		t.Errorf("rows = %+v", s.Rows)
	}
	if s.Rows[0].Low >= s.Rows[0].High {
		t.Errorf("CI = [%v, %v]", s.Rows[0].Low, s.Rows[0].High)
	}

	out := Render(s)
	for _, want := range []string{"contrast", "sess-1", "SEQUENTIAL", "STAIRCASE", "A", "B", "0.500", "done"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}
}

func TestAggregate(t *testing.T) {
	summaries := []Summary{
		{Rows: []Row{{Label: "A", Mean: 1, Truth: f(0)}, {Label: "B", Mean: 5}}},
		{Rows: []Row{{Label: "A", Mean: -1, Truth: f(0)}}},
	}

	stats := Aggregate(summaries)
	if len(stats) != 1 {
		t.Fatalf("Aggregate() = %+v, want one label", stats)
	}
	a := stats[0]
	if a.Label != "A" || a.Sessions != 2 || a.Bias != 0 || math.Abs(a.RMSE-1) > 1e-12 {
		t.Errorf("stats = %+v", a)
	}

	out := RenderBatch(2, stats)
	if !strings.Contains(out, "2 sessions") || !strings.Contains(out, "1.000") {
		t.Errorf("RenderBatch() =\n%s", out)
	}
}

func TestCell_TruncatesLongValues(t *testing.T) {
	got := cell("a-very-long-condition-label", 12)
	if w := lipgloss.Width(got); w != 12 {
		t.Errorf("width = %d, want 12", w)
	}
	if !strings.Contains(got, "…") {
		t.Errorf("cell() = %q, want an ellipsis", got)
	}
	if got := cell("A", 12); strings.TrimSpace(got) != "A" {
		t.Errorf("cell(A) = %q", got)
	}
}
