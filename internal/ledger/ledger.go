// Package ledger holds the per-trial record of values selected by the
// staircase coordinator, and the parallel snapshot records taken by the
// experiment loop.
//
// Slots are filled strictly in order and never overwritten. Snapshots are
// appended independently of slot population, so a snapshot index and the
// number of populated slots may differ at any given time.
package ledger

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Iron-Ham/multistair/internal/errors"
)

// Entry is one populated trial slot.
type Entry struct {
	Label  string
	Value  float64
	Fields map[string]any
	// Keys lists Fields in insertion order.
	Keys []string
}

// Snapshot mirrors the trial state at the time it was taken.
type Snapshot struct {
	Index  int
	Fields map[string]any
	// TrialAttributes lists the field names mirrored from the ledger.
	TrialAttributes []string
	Finished        bool
}

// Ledger is a pre-sized, lazily populated sequence of trial slots.
// It is not safe for concurrent use.
type Ledger struct {
	slots     []*Entry
	snapshots []*Snapshot
}

// New creates a ledger with size unpopulated slots.
func New(size int) *Ledger {
	if size < 0 {
		size = 0
	}
	return &Ledger{slots: make([]*Entry, size)}
}

// Len returns the number of slots, populated or not.
func (l *Ledger) Len() int {
	return len(l.slots)
}

// Populated returns the number of populated slots.
func (l *Ledger) Populated() int {
	n := 0
	for _, e := range l.slots {
		if e != nil {
			n++
		}
	}
	return n
}

// IsPopulated reports whether slot t holds an entry. Out-of-range slots are
// unpopulated.
func (l *Ledger) IsPopulated(t int) bool {
	return t >= 0 && t < len(l.slots) && l.slots[t] != nil
}

// FirstUnpopulated returns the index of the first empty slot, or Len() when
// every slot is populated.
func (l *Ledger) FirstUnpopulated() int {
	for t, e := range l.slots {
		if e == nil {
			return t
		}
	}
	return len(l.slots)
}

// Fill populates slot t. t must be the first unpopulated slot; filling
// Len() grows the ledger by one. The fields are mirrored into snapshot t
// when it exists.
func (l *Ledger) Fill(t int, e Entry) error {
	if first := l.FirstUnpopulated(); t != first {
		return errors.Wrapf(errors.ErrLedgerSlot, "fill slot %d, next free slot is %d", t, first)
	}
	if t == len(l.slots) {
		l.slots = append(l.slots, nil)
	}

	stored := e
	stored.Fields = maps.Clone(e.Fields)
	stored.Keys = slices.Clone(e.Keys)
	if stored.Fields == nil {
		stored.Fields = map[string]any{}
	}
	l.slots[t] = &stored

	if t < len(l.snapshots) {
		s := l.snapshots[t]
		for _, k := range stored.Keys {
			s.Fields[k] = stored.Fields[k]
			if !slices.Contains(s.TrialAttributes, k) {
				s.TrialAttributes = append(s.TrialAttributes, k)
			}
		}
	}
	return nil
}

// Entry returns a copy of slot t.
func (l *Ledger) Entry(t int) (Entry, bool) {
	if !l.IsPopulated(t) {
		return Entry{}, false
	}
	e := *l.slots[t]
	e.Fields = maps.Clone(e.Fields)
	e.Keys = slices.Clone(e.Keys)
	return e, true
}

// Entries returns copies of the populated slots in order.
func (l *Ledger) Entries() []Entry {
	var out []Entry
	for t := range l.slots {
		if e, ok := l.Entry(t); ok {
			out = append(out, e)
		}
	}
	return out
}

// TakeSnapshot appends a snapshot for the next trial index. If that slot is
// already populated its fields are mirrored immediately.
func (l *Ledger) TakeSnapshot() *Snapshot {
	s := &Snapshot{Index: len(l.snapshots), Fields: map[string]any{}}
	l.snapshots = append(l.snapshots, s)
	if l.IsPopulated(s.Index) {
		e := l.slots[s.Index]
		for _, k := range e.Keys {
			s.Fields[k] = e.Fields[k]
			s.TrialAttributes = append(s.TrialAttributes, k)
		}
	}
	return s
}

// Snapshot returns snapshot t.
func (l *Ledger) Snapshot(t int) (*Snapshot, bool) {
	if t < 0 || t >= len(l.snapshots) {
		return nil, false
	}
	return l.snapshots[t], true
}

// Snapshots returns the snapshots taken so far.
func (l *Ledger) Snapshots() []*Snapshot {
	return slices.Clone(l.snapshots)
}

// MarkFinished flags the snapshot of the last filled trial: the first
// snapshot t whose following slot t+1 is unpopulated. It returns the index
// marked, or -1 when no snapshot qualifies.
func (l *Ledger) MarkFinished() int {
	for t := 0; t < len(l.snapshots)-1; t++ {
		if !l.IsPopulated(t + 1) {
			l.snapshots[t].Finished = true
			return t
		}
	}
	return -1
}

// String summarises the ledger for diagnostics.
func (l *Ledger) String() string {
	return fmt.Sprintf("ledger[%d/%d slots, %d snapshots]", l.Populated(), len(l.slots), len(l.snapshots))
}
