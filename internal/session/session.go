// Package session runs one complete staircase session against a simulated
// observer: it builds the coordinator, answers every trial, records the
// trial data and saves it.
package session

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/google/uuid"

	"github.com/Iron-Ham/multistair/internal/conditions"
	"github.com/Iron-Ham/multistair/internal/config"
	"github.com/Iron-Ham/multistair/internal/event"
	"github.com/Iron-Ham/multistair/internal/experiment"
	"github.com/Iron-Ham/multistair/internal/logging"
	"github.com/Iron-Ham/multistair/internal/multistair"
	"github.com/Iron-Ham/multistair/internal/observer"
	"github.com/Iron-Ham/multistair/internal/report"
	"github.com/Iron-Ham/multistair/internal/staircase"
)

// NewID returns a short random session identifier.
func NewID() string {
	return uuid.NewString()[:8]
}

// Params configures one session.
type Params struct {
	Config     *config.Config
	Conditions conditions.Set
	// SessionID names the session; empty generates one.
	SessionID string
	// Seed overrides Config.Staircase.Seed when non-empty.
	Seed string
	// ObserverSeed overrides Config.Simulation.Seed when non-empty.
	ObserverSeed string
	// SkipSave keeps the trial data in memory only.
	SkipSave bool
	Logger   *logging.Logger
	Bus      *event.Bus
}

// Result is the outcome of a finished session.
type Result struct {
	SessionID string
	Summary   report.Summary
	Rows      []experiment.Row
	// DataPath is the saved data file, empty when SkipSave is set.
	DataPath string
}

// Run executes a session to completion or until ctx is cancelled. Trial
// data gathered before a cancellation is still saved.
func Run(ctx context.Context, p Params) (*Result, error) {
	cfg := p.Config
	if cfg == nil {
		cfg = config.Default()
	}
	sessionID := p.SessionID
	if sessionID == "" {
		sessionID = NewID()
	}
	logger := p.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	logger = logger.WithSession(sessionID).WithCoordinator(cfg.Staircase.Name)

	coordCfg, err := CoordinatorConfig(cfg, p.Conditions, p.Seed)
	if err != nil {
		return nil, err
	}

	thresholds := maps.Clone(cfg.Simulation.Thresholds)
	if thresholds == nil {
		thresholds = map[string]float64{}
	}
	maps.Copy(thresholds, p.Conditions.Thresholds())

	obsSeed := cfg.Simulation.Seed
	if p.ObserverSeed != "" {
		obsSeed = p.ObserverSeed
	}
	obs, err := observer.NewSimulated(observer.Params{
		Beta:  cfg.Quest.Beta,
		Delta: cfg.Quest.Delta,
		Gamma: cfg.Quest.Gamma,
	}, thresholds, cfg.Simulation.FallbackThreshold, obsSeed)
	if err != nil {
		return nil, err
	}

	exp := experiment.NewHandler(cfg.Staircase.Name, sessionID, map[string]any{"session": sessionID})
	opts := []multistair.Option{
		multistair.WithDataSink(exp),
		multistair.WithLogger(logger),
	}
	if p.Bus != nil {
		opts = append(opts, multistair.WithEventBus(p.Bus))
	}

	coord, err := multistair.New(coordCfg, opts...)
	if err != nil {
		return nil, err
	}
	logger.Info("session started",
		"policy", string(coordCfg.Policy),
		"staircases", len(coordCfg.Conditions),
		"slots", coord.Ledger().Len())

	runErr := loop(ctx, coord, exp, obs)

	res := &Result{
		SessionID: sessionID,
		Summary:   report.FromCoordinator(sessionID, coord, thresholds),
	}
	if !p.SkipSave {
		format, err := experiment.ParseFormat(cfg.Output.Format)
		if err != nil {
			return nil, err
		}
		path, err := exp.Save(cfg.Output.Dir, format)
		if err != nil {
			return nil, fmt.Errorf("save trial data: %w", err)
		}
		res.DataPath = path
	}
	res.Rows = exp.Entries()

	if runErr != nil {
		logger.Warn("session interrupted", "trials", coord.Ledger().Populated(), "error", runErr.Error())
		return res, runErr
	}
	logger.Info("session finished", "trials", coord.Ledger().Populated(), "data", res.DataPath)
	return res, nil
}

// loop presents trials until the coordinator finishes. Each row holds the
// trial's ledger fields, copied from its snapshot, and the response.
func loop(ctx context.Context, coord *multistair.Coordinator, exp *experiment.Handler, obs *observer.Simulated) error {
	for trial := 0; !coord.Finished(); trial++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		snap := coord.TakeSnapshot()
		exp.AddData(coord.Name()+".trial", trial)
		for _, k := range snap.TrialAttributes {
			exp.AddData(k, snap.Fields[k])
		}
		if dup := coord.DupCardinal(); dup > 0 {
			exp.AddData(coord.Name()+".dupCardinal", dup)
		}

		v, err := coord.CurrentValue()
		if err != nil {
			return err
		}
		if err := coord.AddResponse(obs.Respond(coord.Current().Label(), v), nil, true); err != nil {
			return err
		}
		exp.NextEntry()
	}
	return nil
}

// CoordinatorConfig builds the coordinator configuration for a session.
// With FULL_RANDOM and more than one duplicate, untagged condition rows are
// expanded into tagged copies.
func CoordinatorConfig(cfg *config.Config, set conditions.Set, seed string) (multistair.Config, error) {
	policy, err := multistair.ParsePolicy(cfg.Staircase.Policy)
	if err != nil {
		return multistair.Config{}, err
	}
	kind, err := staircase.ParseKind(cfg.Staircase.StairType)
	if err != nil {
		return multistair.Config{}, err
	}
	if seed == "" {
		seed = cfg.Staircase.Seed
	}

	rows := set.Rows
	duplicates := cfg.Staircase.Duplicates
	if policy == multistair.PolicyFullRandom && duplicates > 1 && !anyTagged(rows) {
		rows = conditions.Duplicate(rows, duplicates)
	}

	return multistair.Config{
		Name:       cfg.Staircase.Name,
		VarName:    cfg.Staircase.VarName,
		Policy:     policy,
		NTrials:    cfg.Staircase.NTrials,
		Seed:       seed,
		Conditions: conditions.Set{Rows: rows}.Conditions(),
		Kind:       kind,
		Duplicates: duplicates,
		Defaults:   cfg.StaircaseDefaults(),
		AutoLog:    cfg.Staircase.AutoLog,
	}, nil
}

func anyTagged(rows []conditions.Row) bool {
	for _, r := range rows {
		if r.DupCardinal > 0 {
			return true
		}
	}
	return false
}

// DeriveSeed returns the seed for session index i of a batch. Unseeded
// batches stay unseeded.
func DeriveSeed(base string, i int) string {
	if strings.TrimSpace(base) == "" {
		return ""
	}
	return fmt.Sprintf("%s-%d", base, i)
}
