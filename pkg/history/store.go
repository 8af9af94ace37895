// Package history persists cumulative shift counts and weekly-shift
// continuation state across generation runs.
package history

import "context"

// State is everything carried from one month's run to the next
type State struct {
	// Cumulative maps user identifier to historical shift count
	Cumulative map[string]int `yaml:"cumulative"`

	// LastWeekly maps weekly shift type name to its last incumbent
	LastWeekly map[string]string `yaml:"lastWeekly"`
}

// Store defines load/save operations for cumulative history.
// Implementations must serialize concurrent runs themselves; the engine
// treats Load followed by Save as a read-modify-write sequence.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
}
