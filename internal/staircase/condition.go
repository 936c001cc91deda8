package staircase

import (
	"github.com/Iron-Ham/multistair/internal/errors"
)

// Validate checks a condition list for the given kind. It returns a
// ConfigurationError naming the first offending condition.
func Validate(kind Kind, conditions []Condition) error {
	if len(conditions) == 0 {
		return errors.NewConfigurationError("conditions must be a non-empty list").
			WithCause(errors.ErrNoConditions)
	}
	if kind == KindSimple {
		return errors.NewConfigurationError("simple staircases are not supported").
			WithField("stairType").WithCause(errors.ErrUnsupportedKind)
	}
	if kind != KindQuest {
		return errors.NewConfigurationError("unknown staircase type").
			WithField("stairType").WithCause(errors.ErrUnsupportedKind)
	}

	type key struct {
		label string
		dup   int
	}
	seen := make(map[key]bool, len(conditions))

	for i, c := range conditions {
		if c.StartVal == nil {
			return errors.NewConfigurationError("each condition should have a startVal").
				WithCondition(i).WithField("startVal").WithCause(errors.ErrMissingField)
		}
		if c.Label == "" {
			return errors.NewConfigurationError("each condition should have a label").
				WithCondition(i).WithField("label").WithCause(errors.ErrMissingField)
		}
		if c.StartValSd == nil {
			return errors.NewConfigurationError("QUEST conditions must include a startValSd").
				WithCondition(i).WithField("startValSd").WithCause(errors.ErrMissingField)
		}
		if c.NTrials < 0 || c.DupCardinal < 0 {
			return errors.NewConfigurationError("nTrials and dupCardinal must not be negative").
				WithCondition(i).WithCause(errors.ErrInvalidInput)
		}
		k := key{c.Label, c.DupCardinal}
		if seen[k] {
			return errors.NewConfigurationError("labels must be unique").
				WithCondition(i).WithField("label").WithCause(errors.ErrDuplicateLabel)
		}
		seen[k] = true
	}
	return nil
}
