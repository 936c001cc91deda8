package multistair

import (
	"fmt"

	"github.com/Iron-Ham/multistair/internal/errors"
	"github.com/Iron-Ham/multistair/internal/event"
	"github.com/Iron-Ham/multistair/internal/ledger"
	"github.com/Iron-Ham/multistair/internal/random"
	"github.com/Iron-Ham/multistair/internal/sequencer"
	"github.com/Iron-Ham/multistair/internal/staircase"
)

// DataSink records raw trial data. The coordinator writes every response
// scalar under "<name>.response" before it validates the response.
type DataSink interface {
	AddData(key string, value any)
}

// Config configures a Coordinator.
type Config struct {
	// Name namespaces every ledger field and sink key.
	Name string
	// VarName names the manipulated variable (default "intensity").
	VarName string
	Policy  Policy
	// NTrials is the trial budget of conditions without their own.
	NTrials int
	// Seed makes selection reproducible. Empty means unseeded.
	Seed       string
	Conditions []staircase.Condition
	Kind       staircase.Kind
	// Duplicates is the duplication factor for FULL_RANDOM (0 means 1).
	Duplicates int
	// Defaults supplies QUEST parameters missing from conditions. The zero
	// value selects staircase.DefaultDefaults(NTrials).
	Defaults staircase.Defaults
	AutoLog  bool
}

// Option configures optional Coordinator collaborators.
type Option func(*Coordinator)

// WithLogger sets the diagnostic logger.
func WithLogger(l staircase.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithDataSink sets the trial-data sink responses are recorded to.
func WithDataSink(s DataSink) Option {
	return func(c *Coordinator) { c.sink = s }
}

// WithEventBus publishes selection progress to bus.
func WithEventBus(bus *event.Bus) Option {
	return func(c *Coordinator) { c.bus = bus }
}

// Coordinator interleaves several adaptive staircases, choosing on every
// step which one supplies the next trial and recording its value in a
// trial ledger. It is not safe for concurrent use.
type Coordinator struct {
	cfg        Config
	procedures []staircase.Procedure
	rng        *random.Source
	keys       *sequencer.Queue
	ledger     *ledger.Ledger

	pass        []staircase.Procedure
	current     staircase.Procedure
	dupCardinal int
	finished    bool

	logger staircase.Logger
	sink   DataSink
	bus    *event.Bus
}

// New validates cfg, builds one procedure per condition and selects the
// first trial. All failures are configuration errors.
func New(cfg Config, opts ...Option) (*Coordinator, error) {
	c, err := newCoordinator(cfg, opts)
	if err != nil {
		return nil, errors.WrapOrigin("Coordinator.New", "when constructing the multi-staircase coordinator", err)
	}
	return c, nil
}

func newCoordinator(cfg Config, opts []Option) (*Coordinator, error) {
	policy, err := ParsePolicy(string(cfg.Policy))
	if err != nil {
		return nil, err
	}
	cfg.Policy = policy
	if cfg.VarName == "" {
		cfg.VarName = "intensity"
	}
	if cfg.Duplicates == 0 {
		cfg.Duplicates = 1
	}
	if cfg.Duplicates < 0 {
		return nil, errors.NewConfigurationError("duplicates must be at least 1").
			WithField("duplicates").WithCause(errors.ErrInvalidInput)
	}
	if err := staircase.Validate(cfg.Kind, cfg.Conditions); err != nil {
		return nil, err
	}
	if cfg.Defaults == (staircase.Defaults{}) {
		cfg.Defaults = staircase.DefaultDefaults(cfg.NTrials)
	}
	if cfg.Defaults.NTrials <= 0 {
		cfg.Defaults.NTrials = cfg.NTrials
	}

	c := &Coordinator{cfg: cfg, rng: random.New(cfg.Seed)}
	for _, opt := range opts {
		opt(c)
	}

	settings := staircase.Settings{
		CoordinatorName: cfg.Name,
		VarName:         cfg.VarName,
		AutoLog:         cfg.AutoLog,
		Logger:          c.logger,
	}
	size := 0
	for i, cond := range cfg.Conditions {
		if cond.Budget(cfg.Defaults.NTrials) <= 0 {
			return nil, errors.NewConfigurationError("condition has no trial budget").
				WithCondition(i).WithField("nTrials").WithCause(errors.ErrMissingField)
		}
		p, err := staircase.New(cfg.Kind, cond, cfg.Defaults, settings)
		if err != nil {
			var cfgErr *errors.ConfigurationError
			if errors.As(err, &cfgErr) {
				return nil, cfgErr.WithCondition(i)
			}
			return nil, err
		}
		c.procedures = append(c.procedures, p)
		size += cond.Budget(cfg.Defaults.NTrials)
	}

	c.keys = sequencer.NewQueue(sequencer.Build(cfg.Conditions, cfg.Defaults.NTrials, cfg.Duplicates, c.rng))
	c.ledger = ledger.New(size)

	if err := c.nextTrial(); err != nil {
		return nil, err
	}
	return c, nil
}

// AddResponse records the participant's response to the current trial and
// selects the next one. response must be 0, 1 or a []int of 0s and 1s.
// value overrides the intensity the response is attributed to; when
// giveToQuest is false the trial advances without informing the estimate.
// Once the coordinator has finished the call only records the response.
func (c *Coordinator) AddResponse(response any, value *float64, giveToQuest bool) error {
	responses, err := c.recordResponse(response)
	if err != nil {
		return errors.WrapOrigin("Coordinator.AddResponse", "when adding a response to the coordinator", err)
	}
	if c.finished {
		return nil
	}

	p := c.current
	if err := p.AddResponse(responses, value, true, giveToQuest); err != nil {
		return errors.WrapOrigin("Coordinator.AddResponse", "when adding a response to the coordinator", err)
	}
	if p.Finished() {
		c.publish(event.NewProcedureFinishedEvent(c.cfg.Name, p.Label(), p.DupCardinal()))
	}

	if err := c.nextTrial(); err != nil {
		return errors.WrapOrigin("Coordinator.AddResponse", "when selecting the next trial", err)
	}
	return nil
}

// recordResponse writes every response scalar to the sink, then validates.
func (c *Coordinator) recordResponse(response any) ([]int, error) {
	key := c.cfg.Name + ".response"

	var responses []int
	switch r := response.(type) {
	case int:
		responses = []int{r}
	case []int:
		responses = r
	default:
		c.addData(key, response)
		return nil, errors.NewValidationError("response must be 0, 1 or a list of them").
			WithField("response").WithValue(response).WithCause(errors.ErrInvalidResponse)
	}

	for _, r := range responses {
		c.addData(key, r)
	}
	c.publish(event.NewResponseRecordedEvent(c.cfg.Name, responses))

	if len(responses) == 0 {
		return nil, errors.NewValidationError("response list is empty").
			WithField("response").WithCause(errors.ErrInvalidResponse)
	}
	for _, r := range responses {
		if r != 0 && r != 1 {
			return nil, errors.NewValidationError("response must be 0 or 1").
				WithField("response").WithValue(response).WithCause(errors.ErrInvalidResponse)
		}
	}
	return responses, nil
}

// nextTrial runs one step of the selection state machine.
func (c *Coordinator) nextTrial() error {
	if len(c.pass) == 0 {
		c.rebuildPass()
	}

	if len(c.pass) == 0 {
		c.finish()
		return nil
	}
	c.current, c.pass = c.pass[0], c.pass[1:]

	v, err := c.current.NextValue()
	if err != nil {
		return err
	}

	t := c.ledger.FirstUnpopulated()
	entry := ledger.Entry{Label: c.current.Label(), Value: v}
	c.setField(&entry, c.cfg.Name+"."+c.cfg.VarName, v)
	for _, attr := range c.current.Attributes() {
		c.setField(&entry, c.cfg.Name+"."+attr.Name, attr.Value)
	}
	if err := c.ledger.Fill(t, entry); err != nil {
		return err
	}

	c.debug("selected staircase",
		"coordinator", c.cfg.Name,
		"trial", t,
		"label", c.current.Label(),
		"dup_cardinal", c.dupCardinal,
		"value", v)
	c.publish(event.NewTrialSelectedEvent(c.cfg.Name, t, c.current.Label(), c.dupCardinal, v))
	return nil
}

func (c *Coordinator) setField(e *ledger.Entry, key string, value any) {
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}
	if _, ok := e.Fields[key]; !ok {
		e.Keys = append(e.Keys, key)
	}
	e.Fields[key] = value
}

// rebuildPass fills the pass for the configured policy. It leaves the pass
// empty when no staircase can supply another trial.
func (c *Coordinator) rebuildPass() {
	if c.cfg.Policy == PolicyFullRandom {
		if p := c.drawKeyed(); p != nil {
			c.pass = []staircase.Procedure{p}
		}
		return
	}

	var candidates []staircase.Procedure
	for _, p := range c.procedures {
		if !p.Finished() {
			candidates = append(candidates, p)
		}
	}
	if c.cfg.Policy == PolicyRandom {
		candidates = random.Shuffle(c.rng, candidates)
	}
	c.pass = candidates
}

// drawKeyed pops trial keys until one names an unfinished staircase. The
// duplication cardinal advances once per popped key so it stays aligned
// with the contiguous duplicate groups of the sequence.
func (c *Coordinator) drawKeyed() staircase.Procedure {
	tagged := c.allTagged()
	for {
		label, ok := c.keys.Pop()
		if !ok {
			return nil
		}
		c.dupCardinal = c.dupCardinal%c.cfg.Duplicates + 1

		for _, p := range c.procedures {
			if p.Finished() || p.Label() != label {
				continue
			}
			if tagged && p.DupCardinal() != c.dupCardinal {
				continue
			}
			return p
		}
	}
}

// allTagged reports whether every procedure carries a duplication cardinal.
func (c *Coordinator) allTagged() bool {
	for _, p := range c.procedures {
		if p.DupCardinal() == 0 {
			return false
		}
	}
	return true
}

func (c *Coordinator) finish() {
	c.finished = true
	c.current = nil
	marked := c.ledger.MarkFinished()
	c.debug("all staircases finished",
		"coordinator", c.cfg.Name,
		"trials", c.ledger.Populated(),
		"marked_snapshot", marked)
	c.publish(event.NewCoordinatorFinishedEvent(c.cfg.Name, c.ledger.Populated(), marked))
}

func (c *Coordinator) addData(key string, value any) {
	if c.sink != nil {
		c.sink.AddData(key, value)
	}
}

func (c *Coordinator) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Coordinator) publish(e event.Event) {
	if c.bus != nil {
		c.bus.Publish(e)
	}
}

// Finished reports whether every staircase has completed.
func (c *Coordinator) Finished() bool { return c.finished }

// Current returns the staircase supplying the current trial, or nil once
// finished.
func (c *Coordinator) Current() staircase.Procedure { return c.current }

// DupCardinal returns the duplication cardinal of the current trial. It is
// 0 unless the policy is FULL_RANDOM.
func (c *Coordinator) DupCardinal() int { return c.dupCardinal }

// CurrentValue returns the intensity recommended for the current trial.
func (c *Coordinator) CurrentValue() (float64, error) {
	if c.current == nil {
		return 0, errors.WrapOrigin("Coordinator.CurrentValue", "when querying the current trial",
			fmt.Errorf("coordinator %q has finished", c.cfg.Name))
	}
	return c.current.NextValue()
}

// Ledger returns the trial ledger the coordinator fills.
func (c *Coordinator) Ledger() *ledger.Ledger { return c.ledger }

// Procedures returns the staircases in condition order.
func (c *Coordinator) Procedures() []staircase.Procedure {
	out := make([]staircase.Procedure, len(c.procedures))
	copy(out, c.procedures)
	return out
}

// State returns the selection state machine's position.
func (c *Coordinator) State() State {
	switch {
	case c.finished:
		return StateAllFinished
	case len(c.pass) > 0:
		return StateHasCandidates
	default:
		return StatePassExhausted
	}
}

// TakeSnapshot appends a snapshot record for the next trial to the ledger.
func (c *Coordinator) TakeSnapshot() *ledger.Snapshot { return c.ledger.TakeSnapshot() }

// Name returns the coordinator name.
func (c *Coordinator) Name() string { return c.cfg.Name }

// Config returns the normalized configuration.
func (c *Coordinator) Config() Config { return c.cfg }
