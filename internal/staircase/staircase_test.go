package staircase

import (
	"errors"
	"testing"

	stairerrors "github.com/Iron-Ham/multistair/internal/errors"
)

func f(v float64) *float64 { return &v }

func cond(label string, start, sd float64) Condition {
	return Condition{Label: label, StartVal: f(start), StartValSd: f(sd)}
}

type recordingLogger struct {
	msgs []string
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.msgs = append(l.msgs, msg) }

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindQuest, "QUEST"},
		{KindSimple, "simple"},
		{Kind(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindQuest, false},
		{"QUEST", KindQuest, false},
		{"quest", KindQuest, false},
		{"simple", KindSimple, false},
		{"staircase", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCondition_Budget(t *testing.T) {
	c := cond("A", 0, 1)
	if got := c.Budget(20); got != 20 {
		t.Errorf("Budget(20) = %d, want 20", got)
	}
	c.NTrials = 5
	if got := c.Budget(20); got != 5 {
		t.Errorf("Budget(20) = %d, want 5", got)
	}
}

func TestValidate(t *testing.T) {
	missingStart := cond("A", 0, 1)
	missingStart.StartVal = nil
	missingSd := cond("A", 0, 1)
	missingSd.StartValSd = nil
	dupA1 := cond("A", 0, 1)
	dupA1.DupCardinal = 1
	dupA2 := cond("A", 0, 1)
	dupA2.DupCardinal = 2

	tests := []struct {
		name       string
		kind       Kind
		conditions []Condition
		wantErr    error
	}{
		{"valid", KindQuest, []Condition{cond("A", 0, 1), cond("B", 1, 1)}, nil},
		{"valid duplicated", KindQuest, []Condition{dupA1, dupA2}, nil},
		{"empty", KindQuest, nil, stairerrors.ErrNoConditions},
		{"simple kind", KindSimple, []Condition{cond("A", 0, 1)}, stairerrors.ErrUnsupportedKind},
		{"unknown kind", Kind(7), []Condition{cond("A", 0, 1)}, stairerrors.ErrUnsupportedKind},
		{"missing startVal", KindQuest, []Condition{missingStart}, stairerrors.ErrMissingField},
		{"missing label", KindQuest, []Condition{cond("", 0, 1)}, stairerrors.ErrMissingField},
		{"missing startValSd", KindQuest, []Condition{missingSd}, stairerrors.ErrMissingField},
		{"duplicate label", KindQuest, []Condition{cond("A", 0, 1), cond("A", 1, 1)}, stairerrors.ErrDuplicateLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.kind, tt.conditions)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if !stairerrors.IsConfiguration(err) {
				t.Errorf("Validate() error = %T, want ConfigurationError", err)
			}
		})
	}
}

func TestNew_RejectsSimple(t *testing.T) {
	_, err := New(KindSimple, cond("A", 0, 1), DefaultDefaults(10), Settings{})
	if !errors.Is(err, stairerrors.ErrUnsupportedKind) {
		t.Errorf("New(KindSimple) error = %v, want ErrUnsupportedKind", err)
	}
}

func TestNew_QuestDefaultsAndOverrides(t *testing.T) {
	c := cond("A", -1, 0.5)
	c.Beta = f(2)
	c.NTrials = 3
	c.Method = "mean"
	d := DefaultDefaults(10)
	d.MaxVal = f(0)

	p, err := New(KindQuest, c, d, Settings{VarName: "contrast"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	h, ok := QuestHandler(p)
	if !ok {
		t.Fatal("QuestHandler() ok = false")
	}
	o := h.Options()
	if o.Beta != 2 {
		t.Errorf("Beta = %v, want 2", o.Beta)
	}
	if o.Gamma != d.Gamma {
		t.Errorf("Gamma = %v, want default %v", o.Gamma, d.Gamma)
	}
	if o.NTrials != 3 {
		t.Errorf("NTrials = %d, want 3", o.NTrials)
	}
	if o.MaxVal == nil || *o.MaxVal != 0 {
		t.Errorf("MaxVal = %v, want 0", o.MaxVal)
	}
	if o.VarName != "contrast" {
		t.Errorf("VarName = %q, want contrast", o.VarName)
	}
	if string(o.Method) != "mean" {
		t.Errorf("Method = %q, want mean", o.Method)
	}
}

func TestNew_BadQuestParameters(t *testing.T) {
	c := cond("A", 0, 1)
	c.PThreshold = f(0.2)
	_, err := New(KindQuest, c, DefaultDefaults(10), Settings{})
	if !errors.Is(err, stairerrors.ErrQuestDomain) {
		t.Errorf("New() error = %v, want ErrQuestDomain", err)
	}
	if !stairerrors.IsConfiguration(err) {
		t.Errorf("New() error = %T, want ConfigurationError", err)
	}
}

func TestQuestProcedure_Lifecycle(t *testing.T) {
	logger := &recordingLogger{}
	c := cond("B", 3, 1)
	c.DupCardinal = 2

	p, err := New(KindQuest, c, DefaultDefaults(2), Settings{AutoLog: true, Logger: logger})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.Kind() != KindQuest || p.Label() != "B" || p.DupCardinal() != 2 {
		t.Errorf("Kind/Label/DupCardinal = %v/%q/%d", p.Kind(), p.Label(), p.DupCardinal())
	}

	v, err := p.NextValue()
	if err != nil {
		t.Fatalf("NextValue() error = %v", err)
	}
	if v < 2.9 || v > 3.1 {
		t.Errorf("NextValue() = %v, want about 3", v)
	}

	if err := p.AddResponse([]int{1, 0, 1}, nil, true, true); err != nil {
		t.Fatalf("AddResponse() error = %v", err)
	}
	if p.Finished() {
		t.Error("Finished() after 1 of 2 trials")
	}
	if err := p.AddResponse([]int{1}, nil, true, true); err != nil {
		t.Fatalf("AddResponse() error = %v", err)
	}
	if !p.Finished() {
		t.Error("Finished() = false after 2 of 2 trials")
	}
	if len(logger.msgs) != 2 {
		t.Errorf("logged %d messages, want 2", len(logger.msgs))
	}

	err = p.AddResponse([]int{3}, nil, true, true)
	if !stairerrors.IsValidation(err) {
		t.Errorf("AddResponse([3]) error = %v, want ValidationError", err)
	}
	if stairerrors.Origin(err) != "questProcedure.AddResponse" {
		t.Errorf("Origin() = %q", stairerrors.Origin(err))
	}
}

func TestQuestProcedure_Attributes(t *testing.T) {
	c := cond("A", 5, 1)
	c.StopInterval = f(0.1)

	p, err := New(KindQuest, c, DefaultDefaults(4), Settings{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := map[string]any{}
	var order []string
	for _, a := range p.Attributes() {
		got[a.Name] = a.Value
		order = append(order, a.Name)
	}

	if order[0] != "label" || got["label"] != "A" {
		t.Errorf("first attribute = %q (%v), want label A", order[0], got["label"])
	}
	for _, name := range []string{"startVal", "startValSd", "pThreshold", "nTrials", "stopInterval", "method", "beta", "delta", "gamma", "grain"} {
		if _, ok := got[name]; !ok {
			t.Errorf("attribute %q missing", name)
		}
	}
	for _, name := range []string{"minVal", "maxVal", "dupCardinal", "trialList", "extraInfo"} {
		if _, ok := got[name]; ok {
			t.Errorf("attribute %q should not be exported", name)
		}
	}
	if got["nTrials"] != 4 {
		t.Errorf("nTrials = %v, want 4", got["nTrials"])
	}
}
