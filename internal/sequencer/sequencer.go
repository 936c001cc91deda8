// Package sequencer builds the shuffled trial-key sequence that drives
// fully randomized staircase selection.
//
// Keys are condition labels. Each distinct label is replicated by its trial
// budget, the whole list is shuffled once, and every key is then expanded
// into a contiguous group of duplicate copies so the coordinator's
// duplication cardinal cycles 1..duplicates across each group.
package sequencer

import (
	"github.com/Iron-Ham/multistair/internal/random"
	"github.com/Iron-Ham/multistair/internal/staircase"
)

// Build returns the ordered trial keys for conditions. Labels shared by
// several duplicated conditions contribute once, with the budget of their
// first condition. A duplicates value below 1 is treated as 1.
func Build(conditions []staircase.Condition, defaultBudget, duplicates int, src *random.Source) []string {
	if duplicates < 1 {
		duplicates = 1
	}

	seen := make(map[string]bool, len(conditions))
	var keys []string
	for _, c := range conditions {
		if seen[c.Label] {
			continue
		}
		seen[c.Label] = true
		for n := c.Budget(defaultBudget); n > 0; n-- {
			keys = append(keys, c.Label)
		}
	}

	shuffled := random.Shuffle(src, keys)

	out := make([]string, 0, len(shuffled)*duplicates)
	for _, k := range shuffled {
		for d := 0; d < duplicates; d++ {
			out = append(out, k)
		}
	}
	return out
}

// Queue is a consumable trial-key sequence.
type Queue struct {
	keys []string
	next int
}

// NewQueue wraps keys in a Queue. The slice is not copied.
func NewQueue(keys []string) *Queue {
	return &Queue{keys: keys}
}

// Pop removes and returns the next key. ok is false once exhausted.
func (q *Queue) Pop() (key string, ok bool) {
	if q.next >= len(q.keys) {
		return "", false
	}
	key = q.keys[q.next]
	q.next++
	return key, true
}

// Len returns the number of keys not yet consumed.
func (q *Queue) Len() int {
	return len(q.keys) - q.next
}

// Keys returns a copy of the full sequence, consumed keys included.
func (q *Queue) Keys() []string {
	out := make([]string, len(q.keys))
	copy(out, q.keys)
	return out
}
