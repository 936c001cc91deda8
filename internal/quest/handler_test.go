package quest

import (
	"errors"
	"math"
	"testing"

	stairerrors "github.com/Iron-Ham/multistair/internal/errors"
)

func ptr(v float64) *float64 { return &v }

func newTestHandler(t *testing.T, mutate func(*Options)) *Handler {
	t.Helper()
	opts := DefaultOptions()
	opts.Name = "A"
	opts.StartVal = 0
	opts.StartValSd = 1
	opts.NTrials = 4
	if mutate != nil {
		mutate(&opts)
	}
	h, err := NewHandler(opts)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	return h
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"", MethodQuantile, false},
		{"quantile", MethodQuantile, false},
		{"mean", MethodMean, false},
		{"mode", MethodMode, false},
		{"median", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMethod(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMethod(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMethod(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewHandler_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero trials", func(o *Options) { o.NTrials = 0 }},
		{"min above max", func(o *Options) { o.MinVal, o.MaxVal = ptr(2), ptr(1) }},
		{"bad method", func(o *Options) { o.Method = "median" }},
		{"zero sd", func(o *Options) { o.StartValSd = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.StartValSd = 1
			tt.mutate(&opts)
			if _, err := NewHandler(opts); err == nil {
				t.Error("NewHandler() error = nil, want error")
			}
		})
	}
}

func TestHandler_FinishesAfterNTrials(t *testing.T) {
	h := newTestHandler(t, nil)

	for i := 0; i < 4; i++ {
		if h.Finished() {
			t.Fatalf("finished early after %d trials", i)
		}
		if err := h.AddResponse(i%2, nil, true); err != nil {
			t.Fatalf("AddResponse() error = %v", err)
		}
	}
	if !h.Finished() {
		t.Error("Finished() = false after NTrials responses")
	}
	if h.ThisTrialN() != 4 {
		t.Errorf("ThisTrialN() = %d, want 4", h.ThisTrialN())
	}

	// Further responses still update the posterior but never advance.
	if err := h.AddResponse(1, nil, true); err != nil {
		t.Fatalf("AddResponse() after finish error = %v", err)
	}
	if h.ThisTrialN() != 4 {
		t.Errorf("ThisTrialN() = %d after finish, want 4", h.ThisTrialN())
	}
}

func TestHandler_AddResponsesValidation(t *testing.T) {
	h := newTestHandler(t, nil)
	before := h.Mean()

	err := h.AddResponses([]int{1, 0, 2}, nil, true, true)
	if !errors.Is(err, stairerrors.ErrInvalidResponse) {
		t.Fatalf("AddResponses() error = %v, want ErrInvalidResponse", err)
	}
	if h.ThisTrialN() != 0 {
		t.Errorf("ThisTrialN() = %d, want 0", h.ThisTrialN())
	}
	if h.Mean() != before {
		t.Error("posterior changed on rejected responses")
	}
}

func TestHandler_AddToQuestFalse(t *testing.T) {
	h := newTestHandler(t, nil)
	before := h.Mean()

	if err := h.AddResponse(1, nil, false); err != nil {
		t.Fatalf("AddResponse() error = %v", err)
	}
	if h.Mean() != before {
		t.Errorf("Mean() = %v, want unchanged %v", h.Mean(), before)
	}
	if h.ThisTrialN() != 1 {
		t.Errorf("ThisTrialN() = %d, want 1", h.ThisTrialN())
	}
	if in, _ := h.History(); len(in) != 0 {
		t.Errorf("History() has %d entries, want 0", len(in))
	}
}

func TestHandler_NoAdvance(t *testing.T) {
	h := newTestHandler(t, nil)
	if err := h.AddResponses([]int{1, 1}, nil, true, false); err != nil {
		t.Fatalf("AddResponses() error = %v", err)
	}
	if h.ThisTrialN() != 0 {
		t.Errorf("ThisTrialN() = %d, want 0", h.ThisTrialN())
	}
	if in, _ := h.History(); len(in) != 2 {
		t.Errorf("History() has %d entries, want 2", len(in))
	}
}

func TestHandler_ValueOverride(t *testing.T) {
	h := newTestHandler(t, nil)
	if err := h.AddResponse(1, ptr(0.75), true); err != nil {
		t.Fatalf("AddResponse() error = %v", err)
	}
	in, out := h.History()
	if len(in) != 1 || in[0] != 0.75 || out[0] != 1 {
		t.Errorf("History() = %v, %v, want [0.75], [1]", in, out)
	}
}

func TestHandler_Clamping(t *testing.T) {
	t.Run("max", func(t *testing.T) {
		h := newTestHandler(t, func(o *Options) { o.MaxVal = ptr(-0.5) })
		if h.Value() != -0.5 {
			t.Errorf("Value() = %v, want -0.5", h.Value())
		}
	})
	t.Run("min", func(t *testing.T) {
		h := newTestHandler(t, func(o *Options) { o.MinVal = ptr(0.5) })
		if h.Value() != 0.5 {
			t.Errorf("Value() = %v, want 0.5", h.Value())
		}
	})
}

func TestHandler_StopInterval(t *testing.T) {
	h := newTestHandler(t, func(o *Options) {
		o.NTrials = 100
		o.StopInterval = ptr(50)
	})
	if err := h.AddResponse(1, nil, true); err != nil {
		t.Fatalf("AddResponse() error = %v", err)
	}
	if !h.Finished() {
		t.Error("Finished() = false, want true once the interval is narrower than the stop interval")
	}

	lo, hi, err := h.ConfidenceInterval()
	if err != nil {
		t.Fatalf("ConfidenceInterval() error = %v", err)
	}
	if lo >= hi {
		t.Errorf("ConfidenceInterval() = [%v, %v], want lo < hi", lo, hi)
	}
}

func TestHandler_Methods(t *testing.T) {
	for _, m := range ValidMethods() {
		t.Run(string(m), func(t *testing.T) {
			h := newTestHandler(t, func(o *Options) {
				o.Method = m
				o.StartVal = -2
			})
			if math.Abs(h.Value()-(-2)) > 2*DefaultGrain {
				t.Errorf("Value() = %v, want about -2", h.Value())
			}
			if err := h.AddResponse(0, nil, true); err != nil {
				t.Fatalf("AddResponse() error = %v", err)
			}
			if h.Value() <= -2 {
				t.Errorf("Value() = %v after an incorrect response, want > -2", h.Value())
			}
		})
	}
}

func TestHandler_DefaultVarName(t *testing.T) {
	h := newTestHandler(t, func(o *Options) { o.VarName = "" })
	if h.Options().VarName != "intensity" {
		t.Errorf("VarName = %q, want intensity", h.Options().VarName)
	}
}
