package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InsertTranscript saves an AI analysis narrative.
func (db *DB) InsertTranscript(ctx context.Context, t *Transcript) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.CreatedAt = t.CreatedAt.UTC()
	if t.AnalysisDate == "" {
		t.AnalysisDate = t.CreatedAt.Format(DateLayout)
	}

	_, err := db.exec(ctx,
		"INSERT INTO ai_insights (id, user_id, analysis_date, insights, created_at) VALUES (?, ?, ?, ?, ?)",
		t.ID, t.UserID, t.AnalysisDate, t.Insights, t.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return storageErr("inserting transcript", err)
	}
	return nil
}

// ListTranscripts returns a user's most recent transcripts, newest first.
// A limit of zero or less returns all of them.
func (db *DB) ListTranscripts(ctx context.Context, userID string, limit int) ([]Transcript, error) {
	query := "SELECT id, user_id, analysis_date, insights, created_at FROM ai_insights WHERE user_id = ? ORDER BY created_at DESC"
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("querying transcripts", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Transcript
	for rows.Next() {
		var t Transcript
		var createdAt string
		if err := rows.Scan(&t.ID, &t.UserID, &t.AnalysisDate, &t.Insights, &createdAt); err != nil {
			return nil, storageErr("scanning transcript", err)
		}
		t.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating transcripts", err)
	}
	return out, nil
}
