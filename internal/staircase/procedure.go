package staircase

import (
	"github.com/Iron-Ham/multistair/internal/errors"
	"github.com/Iron-Ham/multistair/internal/quest"
)

// Defaults are the coordinator-wide QUEST parameters conditions fall back to.
type Defaults struct {
	NTrials      int
	PThreshold   float64
	Beta         float64
	Delta        float64
	Gamma        float64
	Grain        float64
	Range        float64
	Method       string
	MinVal       *float64
	MaxVal       *float64
	StopInterval *float64
}

// DefaultDefaults returns the standard QUEST parameters with the given budget.
func DefaultDefaults(nTrials int) Defaults {
	return Defaults{
		NTrials:    nTrials,
		PThreshold: quest.DefaultPThreshold,
		Beta:       quest.DefaultBeta,
		Delta:      quest.DefaultDelta,
		Gamma:      quest.DefaultGamma,
		Grain:      quest.DefaultGrain,
		Method:     string(quest.MethodQuantile),
	}
}

// New builds the procedure for one condition. Only KindQuest can be built.
func New(kind Kind, cond Condition, defaults Defaults, settings Settings) (Procedure, error) {
	switch kind {
	case KindQuest:
		return newQuestProcedure(cond, defaults, settings)
	case KindSimple:
		return nil, errors.NewConfigurationError("simple staircases are not supported").
			WithField("stairType").WithCause(errors.ErrUnsupportedKind)
	default:
		return nil, errors.NewConfigurationError("unknown staircase type").
			WithField("stairType").WithCause(errors.ErrUnsupportedKind)
	}
}

// questProcedure adapts a quest.Handler to the Procedure contract.
type questProcedure struct {
	h        *quest.Handler
	settings Settings
}

func newQuestProcedure(cond Condition, d Defaults, s Settings) (*questProcedure, error) {
	if cond.StartVal == nil || cond.StartValSd == nil {
		return nil, errors.NewConfigurationError("QUEST conditions need startVal and startValSd").
			WithCause(errors.ErrMissingField)
	}

	opts := quest.DefaultOptions()
	opts.Name = cond.Label
	opts.VarName = s.VarName
	opts.StartVal = *cond.StartVal
	opts.StartValSd = *cond.StartValSd
	opts.NTrials = cond.Budget(d.NTrials)
	opts.DupCardinal = cond.DupCardinal
	opts.Range = d.Range
	opts.PThreshold = pick(cond.PThreshold, d.PThreshold)
	opts.Beta = pick(cond.Beta, d.Beta)
	opts.Delta = pick(cond.Delta, d.Delta)
	opts.Gamma = pick(cond.Gamma, d.Gamma)
	opts.Grain = pick(cond.Grain, d.Grain)
	opts.MinVal = pickPtr(cond.MinVal, d.MinVal)
	opts.MaxVal = pickPtr(cond.MaxVal, d.MaxVal)
	opts.StopInterval = pickPtr(cond.StopInterval, d.StopInterval)
	opts.Method = quest.Method(d.Method)
	if cond.Method != "" {
		opts.Method = quest.Method(cond.Method)
	}

	h, err := quest.NewHandler(opts)
	if err != nil {
		return nil, errors.NewConfigurationError("cannot create QUEST procedure").WithField(cond.Label).WithCause(err)
	}
	return &questProcedure{h: h, settings: s}, nil
}

func pick(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

func pickPtr(v, def *float64) *float64 {
	if v != nil {
		return v
	}
	return def
}

func (p *questProcedure) Kind() Kind       { return KindQuest }
func (p *questProcedure) Label() string    { return p.h.Options().Name }
func (p *questProcedure) DupCardinal() int { return p.h.Options().DupCardinal }
func (p *questProcedure) Finished() bool   { return p.h.Finished() }

func (p *questProcedure) AddResponse(responses []int, value *float64, isFirstSubmission, addToQuest bool) error {
	if err := p.h.AddResponses(responses, value, addToQuest, isFirstSubmission); err != nil {
		return errors.WrapOrigin("questProcedure.AddResponse", "when updating staircase "+p.Label(), err)
	}
	if p.settings.AutoLog && p.settings.Logger != nil {
		p.settings.Logger.Debug("staircase response",
			"staircase", p.Label(),
			"responses", responses,
			"trial", p.h.ThisTrialN(),
			"finished", p.h.Finished(),
			"next_value", p.h.Value(),
		)
	}
	return nil
}

func (p *questProcedure) NextValue() (float64, error) {
	return p.h.Value(), nil
}

// Attributes returns the QUEST field table. Unset optional parameters are
// omitted.
func (p *questProcedure) Attributes() []Attribute {
	o := p.h.Options()
	attrs := []Attribute{
		{Name: "label", Value: o.Name},
		{Name: "startVal", Value: o.StartVal},
		{Name: "startValSd", Value: o.StartValSd},
	}
	if o.MinVal != nil {
		attrs = append(attrs, Attribute{Name: "minVal", Value: *o.MinVal})
	}
	if o.MaxVal != nil {
		attrs = append(attrs, Attribute{Name: "maxVal", Value: *o.MaxVal})
	}
	attrs = append(attrs,
		Attribute{Name: "pThreshold", Value: o.PThreshold},
		Attribute{Name: "nTrials", Value: o.NTrials},
	)
	if o.StopInterval != nil {
		attrs = append(attrs, Attribute{Name: "stopInterval", Value: *o.StopInterval})
	}
	attrs = append(attrs,
		Attribute{Name: "method", Value: string(o.Method)},
		Attribute{Name: "beta", Value: o.Beta},
		Attribute{Name: "delta", Value: o.Delta},
		Attribute{Name: "gamma", Value: o.Gamma},
		Attribute{Name: "grain", Value: o.Grain},
	)
	if o.DupCardinal > 0 {
		attrs = append(attrs, Attribute{Name: "dupCardinal", Value: o.DupCardinal})
	}
	return attrs
}

// QuestHandler returns the QUEST handler behind p, if p is a QUEST procedure.
func QuestHandler(p Procedure) (*quest.Handler, bool) {
	qp, ok := p.(*questProcedure)
	if !ok {
		return nil, false
	}
	return qp.h, true
}
