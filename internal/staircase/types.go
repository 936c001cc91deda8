package staircase

import (
	"strings"

	"github.com/Iron-Ham/multistair/internal/errors"
)

// Kind identifies the adaptive procedure variant.
type Kind int

const (
	// KindQuest is the Bayesian QUEST procedure.
	KindQuest Kind = iota
	// KindSimple is an up/down staircase. It is not implemented.
	KindSimple
)

// String returns the configuration name of a kind.
func (k Kind) String() string {
	switch k {
	case KindQuest:
		return "QUEST"
	case KindSimple:
		return "simple"
	default:
		return "unknown"
	}
}

// ParseKind converts a configuration string to a Kind. The empty string
// selects KindQuest.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "", "quest":
		return KindQuest, nil
	case "simple":
		return KindSimple, nil
	default:
		return 0, errors.NewConfigurationError("unknown staircase type").
			WithField("stairType").WithCause(errors.ErrUnsupportedKind)
	}
}

// Condition is the caller-supplied configuration for one staircase. Optional
// QUEST parameters fall back to the coordinator's Defaults when nil.
type Condition struct {
	Label      string
	StartVal   *float64
	StartValSd *float64

	MinVal       *float64
	MaxVal       *float64
	PThreshold   *float64
	StopInterval *float64
	Method       string
	Beta         *float64
	Delta        *float64
	Gamma        *float64
	Grain        *float64

	// NTrials overrides the coordinator's trial budget when positive.
	NTrials int
	// DupCardinal tags one instance of a duplicated condition (0 = untagged).
	DupCardinal int
}

// Budget returns the condition's trial budget, falling back to def.
func (c Condition) Budget(def int) int {
	if c.NTrials > 0 {
		return c.NTrials
	}
	return def
}

// Attribute is one exported, user-visible procedure field.
type Attribute struct {
	Name  string
	Value any
}

// Logger is the diagnostic sink procedures trace to.
type Logger interface {
	Debug(msg string, args ...any)
}

// Settings carries coordinator-level configuration down to each procedure.
type Settings struct {
	CoordinatorName string
	VarName         string
	AutoLog         bool
	Logger          Logger
}

// Procedure is the adaptive procedure contract. The coordinator depends only
// on this interface, never on the update mechanics behind it.
type Procedure interface {
	Kind() Kind
	Label() string
	DupCardinal() int

	// AddResponse feeds the responses for the current trial. A nil value
	// means the procedure's own recommendation was presented. When
	// isFirstSubmission is false the call amends the current trial without
	// advancing it; when addToQuest is false the responses are not used for
	// estimation.
	AddResponse(responses []int, value *float64, isFirstSubmission, addToQuest bool) error

	Finished() bool
	NextValue() (float64, error)
	Attributes() []Attribute
}
