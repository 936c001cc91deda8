// Package observer simulates a participant answering staircase trials.
//
// A [Simulated] observer responds correctly with the probability given by a
// Weibull psychometric function centred on a true threshold per condition
// label, the same function the QUEST posterior assumes.
package observer

import (
	"math"

	"github.com/Iron-Ham/multistair/internal/errors"
	"github.com/Iron-Ham/multistair/internal/quest"
	"github.com/Iron-Ham/multistair/internal/random"
)

// Params shapes the simulated psychometric function.
type Params struct {
	Beta  float64
	Delta float64
	Gamma float64
}

// DefaultParams matches the default QUEST parameters.
func DefaultParams() Params {
	return Params{Beta: quest.DefaultBeta, Delta: quest.DefaultDelta, Gamma: quest.DefaultGamma}
}

// Simulated draws 0/1 responses from a Weibull psychometric function.
// It owns its random source and is not safe for concurrent use.
type Simulated struct {
	params     Params
	thresholds map[string]float64
	fallback   float64
	rng        *random.Source
}

// NewSimulated creates an observer. Labels missing from thresholds use
// fallback as their true threshold.
func NewSimulated(params Params, thresholds map[string]float64, fallback float64, seed string) (*Simulated, error) {
	if params.Gamma < 0 || params.Gamma >= 1 || params.Delta < 0 || params.Delta >= 1 {
		return nil, errors.NewValidationError("gamma and delta must lie in [0, 1)").
			WithField("observer").WithCause(errors.ErrQuestDomain)
	}
	th := make(map[string]float64, len(thresholds))
	for k, v := range thresholds {
		th[k] = v
	}
	return &Simulated{
		params:     params,
		thresholds: th,
		fallback:   fallback,
		rng:        random.New(seed),
	}, nil
}

// Threshold returns the true threshold used for label.
func (s *Simulated) Threshold(label string) float64 {
	if t, ok := s.thresholds[label]; ok {
		return t
	}
	return s.fallback
}

// PCorrect returns the probability of a correct response at intensity for
// label.
func (s *Simulated) PCorrect(label string, intensity float64) float64 {
	p := s.params
	x := intensity - s.Threshold(label)
	return p.Delta*p.Gamma + (1-p.Delta)*(1-(1-p.Gamma)*math.Exp(-math.Pow(10, p.Beta*x)))
}

// Respond draws one response for a trial of label at intensity.
func (s *Simulated) Respond(label string, intensity float64) int {
	if s.rng.Float64() < s.PCorrect(label, intensity) {
		return 1
	}
	return 0
}
