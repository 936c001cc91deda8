package multistair

import (
	"strings"

	"github.com/Iron-Ham/multistair/internal/errors"
)

// Policy controls the order in which staircases supply trials.
type Policy string

const (
	// PolicySequential visits unfinished staircases in condition order.
	PolicySequential Policy = "SEQUENTIAL"
	// PolicyRandom shuffles the unfinished staircases at the start of each pass.
	PolicyRandom Policy = "RANDOM"
	// PolicyFullRandom draws every trial from the pre-shuffled trial key sequence.
	PolicyFullRandom Policy = "FULL_RANDOM"
)

// ValidPolicies returns the list of valid selection policies.
func ValidPolicies() []Policy {
	return []Policy{PolicySequential, PolicyRandom, PolicyFullRandom}
}

// ParsePolicy converts a configuration string to a Policy. Matching is case
// insensitive and the empty string selects PolicySequential.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToUpper(strings.TrimSpace(s))); p {
	case "":
		return PolicySequential, nil
	case PolicySequential, PolicyRandom, PolicyFullRandom:
		return p, nil
	default:
		return "", errors.NewConfigurationError("unknown trial selection policy").
			WithField("method").WithCause(errors.ErrUnknownPolicy)
	}
}

// State is the position of the trial selection state machine.
type State int

const (
	// StateHasCandidates means the current pass still holds staircases.
	StateHasCandidates State = iota
	// StatePassExhausted means the next selection step rebuilds the pass.
	StatePassExhausted
	// StateAllFinished is terminal: no staircase can supply another trial.
	StateAllFinished
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateHasCandidates:
		return "HAS_CANDIDATES"
	case StatePassExhausted:
		return "PASS_EXHAUSTED"
	case StateAllFinished:
		return "ALL_FINISHED"
	default:
		return "UNKNOWN"
	}
}
