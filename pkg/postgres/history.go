package postgres

import (
	"context"
	"fmt"

	"github.com/mfenwick/oncall-roster/pkg/history"
)

// Load reads the cumulative history state. A generation run is a
// read-modify-write between Load and Save; callers sharing a database must
// serialize runs.
func (db *DB) Load(ctx context.Context) (history.State, error) {
	state := history.State{
		Cumulative: map[string]int{},
		LastWeekly: map[string]string{},
	}

	rows, err := db.pool.Query(ctx, `SELECT user_id, cumulative_count FROM shift_history`)
	if err != nil {
		return history.State{}, fmt.Errorf("failed to query shift history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var user string
		var count int
		if err := rows.Scan(&user, &count); err != nil {
			return history.State{}, fmt.Errorf("failed to scan shift history: %w", err)
		}
		state.Cumulative[user] = count
	}
	if err := rows.Err(); err != nil {
		return history.State{}, fmt.Errorf("error iterating shift history: %w", err)
	}

	incumbents, err := db.pool.Query(ctx, `SELECT shift_type, user_id FROM weekly_incumbents`)
	if err != nil {
		return history.State{}, fmt.Errorf("failed to query weekly incumbents: %w", err)
	}
	defer incumbents.Close()
	for incumbents.Next() {
		var shiftType, user string
		if err := incumbents.Scan(&shiftType, &user); err != nil {
			return history.State{}, fmt.Errorf("failed to scan weekly incumbent: %w", err)
		}
		state.LastWeekly[shiftType] = user
	}
	if err := incumbents.Err(); err != nil {
		return history.State{}, fmt.Errorf("error iterating weekly incumbents: %w", err)
	}

	return state, nil
}

// Save replaces the stored history state in one transaction
func (db *DB) Save(ctx context.Context, state history.State) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for user, count := range state.Cumulative {
		_, err := tx.Exec(ctx, `
			INSERT INTO shift_history (user_id, cumulative_count)
			VALUES ($1, $2)
			ON CONFLICT (user_id) DO UPDATE SET cumulative_count = EXCLUDED.cumulative_count
		`, user, count)
		if err != nil {
			return fmt.Errorf("failed to upsert shift history for %s: %w", user, err)
		}
	}

	for shiftType, user := range state.LastWeekly {
		_, err := tx.Exec(ctx, `
			INSERT INTO weekly_incumbents (shift_type, user_id)
			VALUES ($1, $2)
			ON CONFLICT (shift_type) DO UPDATE SET user_id = EXCLUDED.user_id
		`, shiftType, user)
		if err != nil {
			return fmt.Errorf("failed to upsert weekly incumbent for %s: %w", shiftType, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit history state: %w", err)
	}
	return nil
}
