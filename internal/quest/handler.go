package quest

import (
	"fmt"

	"github.com/Iron-Ham/multistair/internal/errors"
)

// Method selects how the recommended intensity is read off the posterior.
type Method string

const (
	MethodQuantile Method = "quantile"
	MethodMean     Method = "mean"
	MethodMode     Method = "mode"
)

// ValidMethods returns the list of valid estimation methods.
func ValidMethods() []Method {
	return []Method{MethodQuantile, MethodMean, MethodMode}
}

// ParseMethod converts a string to a Method. The empty string selects
// MethodQuantile.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "", MethodQuantile:
		return MethodQuantile, nil
	case MethodMean:
		return MethodMean, nil
	case MethodMode:
		return MethodMode, nil
	default:
		return "", errors.NewValidationError("unknown quest method").WithField("method").WithValue(s)
	}
}

const (
	DefaultPThreshold = 0.82
	DefaultBeta       = 3.5
	DefaultDelta      = 0.01
	DefaultGamma      = 0.5
	DefaultGrain      = 0.01
	DefaultNTrials    = 10

	ciLow  = 0.025
	ciHigh = 0.975
)

// Options configures a Handler.
type Options struct {
	Name    string // Condition label
	VarName string // Name of the manipulated variable (default "intensity")

	StartVal   float64
	StartValSd float64
	MinVal     *float64 // Recommended values are clamped to [MinVal, MaxVal]
	MaxVal     *float64

	PThreshold   float64
	NTrials      int
	StopInterval *float64 // Finish early when the 95% interval is narrower
	Method       Method

	Beta  float64
	Delta float64
	Gamma float64
	Grain float64
	Range float64

	// DupCardinal tags a duplicated procedure instance (0 = untagged).
	DupCardinal int
}

// DefaultOptions returns Options with the usual QUEST parameters.
func DefaultOptions() Options {
	return Options{
		VarName:    "intensity",
		PThreshold: DefaultPThreshold,
		NTrials:    DefaultNTrials,
		Method:     MethodQuantile,
		Beta:       DefaultBeta,
		Delta:      DefaultDelta,
		Gamma:      DefaultGamma,
		Grain:      DefaultGrain,
	}
}

// Handler runs one QUEST staircase: it owns the posterior, the trial count
// and the current recommended intensity.
type Handler struct {
	opts       Options
	q          *Quest
	value      float64
	thisTrialN int
	finished   bool
}

// NewHandler creates a Handler and computes the first recommended value.
func NewHandler(opts Options) (*Handler, error) {
	if opts.NTrials <= 0 {
		return nil, errors.NewValidationError("nTrials must be positive").WithField("nTrials").WithValue(opts.NTrials)
	}
	if opts.MinVal != nil && opts.MaxVal != nil && *opts.MinVal > *opts.MaxVal {
		return nil, errors.NewValidationError("minVal exceeds maxVal").WithField("minVal").WithValue(*opts.MinVal)
	}
	method, err := ParseMethod(string(opts.Method))
	if err != nil {
		return nil, err
	}
	opts.Method = method
	if opts.VarName == "" {
		opts.VarName = "intensity"
	}

	q, err := Create(opts.StartVal, opts.StartValSd, opts.PThreshold, opts.Beta, opts.Delta, opts.Gamma, opts.Grain, opts.Range)
	if err != nil {
		return nil, fmt.Errorf("create quest for %q: %w", opts.Name, err)
	}

	h := &Handler{opts: opts, q: q}
	if err := h.estimate(); err != nil {
		return nil, err
	}
	return h, nil
}

// AddResponse records a single 0/1 response for the current trial.
func (h *Handler) AddResponse(response int, value *float64, addToQuest bool) error {
	return h.AddResponses([]int{response}, value, addToQuest, true)
}

// AddResponses records one or more 0/1 responses for the current trial.
// Each response updates the posterior at value, or at the current
// recommendation when value is nil, unless addToQuest is false. The trial
// counter advances once per call when advance is true and the handler is
// not yet finished.
func (h *Handler) AddResponses(responses []int, value *float64, addToQuest, advance bool) error {
	for _, r := range responses {
		if r != 0 && r != 1 {
			return errors.NewValidationError("response must be 0 or 1").
				WithField("response").WithValue(r).WithCause(errors.ErrInvalidResponse)
		}
	}

	intensity := h.value
	if value != nil {
		intensity = *value
	}
	if addToQuest {
		for _, r := range responses {
			if err := h.q.Update(intensity, r); err != nil {
				return err
			}
		}
	}

	if h.finished || !advance {
		return nil
	}
	h.thisTrialN++
	if err := h.checkFinished(); err != nil {
		return err
	}
	return h.estimate()
}

func (h *Handler) checkFinished() error {
	if h.thisTrialN >= h.opts.NTrials {
		h.finished = true
		return nil
	}
	if h.opts.StopInterval != nil && h.q.Trials() > 0 {
		lo, hi, err := h.ConfidenceInterval()
		if err != nil {
			return err
		}
		if hi-lo < *h.opts.StopInterval {
			h.finished = true
		}
	}
	return nil
}

// estimate refreshes the recommended value from the posterior.
func (h *Handler) estimate() error {
	var v float64
	switch h.opts.Method {
	case MethodMean:
		v = h.q.Mean()
	case MethodMode:
		v, _ = h.q.Mode()
	default:
		var err error
		v, err = h.q.Quantile(h.q.QuantileOrder)
		if err != nil {
			return err
		}
	}

	if h.opts.MaxVal != nil && v > *h.opts.MaxVal {
		v = *h.opts.MaxVal
	} else if h.opts.MinVal != nil && v < *h.opts.MinVal {
		v = *h.opts.MinVal
	}
	h.value = v
	return nil
}

// ConfidenceInterval returns the 95% credible interval of the threshold.
func (h *Handler) ConfidenceInterval() (float64, float64, error) {
	lo, err := h.q.Quantile(ciLow)
	if err != nil {
		return 0, 0, err
	}
	hi, err := h.q.Quantile(ciHigh)
	if err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

// Value returns the current recommended intensity.
func (h *Handler) Value() float64 { return h.value }

// Finished reports whether the staircase has completed.
func (h *Handler) Finished() bool { return h.finished }

// ThisTrialN returns the number of trials completed so far.
func (h *Handler) ThisTrialN() int { return h.thisTrialN }

// Options returns the configuration the handler was built with.
func (h *Handler) Options() Options { return h.opts }

// Mean returns the posterior mean threshold.
func (h *Handler) Mean() float64 { return h.q.Mean() }

// Sd returns the posterior standard deviation.
func (h *Handler) Sd() float64 { return h.q.Sd() }

// Mode returns the posterior mode threshold.
func (h *Handler) Mode() float64 {
	m, _ := h.q.Mode()
	return m
}

// Quantile returns the threshold at the given posterior quantile.
func (h *Handler) Quantile(order float64) (float64, error) { return h.q.Quantile(order) }

// History returns the intensities and responses fed to the posterior.
func (h *Handler) History() ([]float64, []int) { return h.q.History() }
