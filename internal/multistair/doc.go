// Package multistair coordinates several adaptive staircases run in one
// block of trials.
//
// A [Coordinator] owns one procedure per condition. After each response it
// picks the staircase that supplies the next trial under a selection
// [Policy], asks it for a recommended intensity and writes that value, with
// the staircase's exported attributes, into the next free slot of a
// [ledger.Ledger].
//
//   - SEQUENTIAL walks the unfinished staircases in condition order, pass
//     after pass.
//   - RANDOM shuffles the unfinished staircases at the start of every pass.
//   - FULL_RANDOM ignores passes and draws each trial from a pre-shuffled
//     sequence of condition labels, cycling a duplication cardinal so that
//     duplicated conditions are visited as contiguous groups.
//
// Selection is driven by a single seeded [random.Source] owned by the
// coordinator, so two coordinators built from the same configuration and fed
// the same responses produce the same trials.
//
// # Basic Usage
//
//	coord, err := multistair.New(multistair.Config{
//	    Name:       "contrast",
//	    Policy:     multistair.PolicyRandom,
//	    NTrials:    20,
//	    Seed:       "participant-7",
//	    Conditions: conds,
//	}, multistair.WithDataSink(exp))
//	if err != nil {
//	    return err
//	}
//	for !coord.Finished() {
//	    v, _ := coord.CurrentValue()
//	    if err := coord.AddResponse(present(coord.Current().Label(), v), nil, true); err != nil {
//	        return err
//	    }
//	}
package multistair
