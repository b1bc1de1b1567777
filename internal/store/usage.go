package store

import (
	"context"
	"database/sql"
	"time"
)

// GetUsage returns the usage counter row for a user and day, or nil if the
// user has not used the AI path that day.
func (db *DB) GetUsage(ctx context.Context, userID, day string) (*UsageRow, error) {
	row := db.queryRow(ctx,
		"SELECT user_id, usage_date, usage_count, last_used_at FROM api_usage WHERE user_id = ? AND usage_date = ?",
		userID, day,
	)

	var u UsageRow
	var lastUsed string
	err := row.Scan(&u.UserID, &u.UsageDate, &u.UsageCount, &lastUsed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("reading usage", err)
	}
	u.LastUsedAt, _ = time.Parse(timeLayout, lastUsed)
	return &u, nil
}

// IncrementUsage atomically adds one to the counter for a user and day,
// creating the row on first use, and returns the new count.
func (db *DB) IncrementUsage(ctx context.Context, userID, day string, at time.Time) (int, error) {
	var count int
	err := db.queryRow(ctx,
		`INSERT INTO api_usage (user_id, usage_date, usage_count, last_used_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (user_id, usage_date) DO UPDATE
		SET usage_count = api_usage.usage_count + 1, last_used_at = excluded.last_used_at
		RETURNING usage_count`,
		userID, day, at.UTC().Format(timeLayout),
	).Scan(&count)
	if err != nil {
		return 0, storageErr("incrementing usage", err)
	}
	return count, nil
}
