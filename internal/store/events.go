package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type eventRepo struct {
	db *sql.DB
}

func (r *eventRepo) AppendInteraction(ctx context.Context, data InteractionEventData) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO interaction_events
			(user_id, content_id, interaction_type, timestamp, duration_ms, engagement, completion_rate, difficulty, context)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		data.UserID, data.ContentID, data.InteractionType,
		data.Timestamp.UTC().Format(time.RFC3339Nano),
		data.DurationMs, data.Engagement, data.CompletionRate, data.Difficulty, data.Context,
	)
	if err != nil {
		return fmt.Errorf("append interaction event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendAssessment(ctx context.Context, data AssessmentEventData) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO assessment_events
			(user_id, skill_id, timestamp, score, new_mastery, threshold, completed, unlocked, achievements)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		data.UserID, data.SkillID,
		data.Timestamp.UTC().Format(time.RFC3339Nano),
		data.Score, data.NewMastery, data.Threshold, boolToInt(data.Completed),
		strings.Join(data.Unlocked, ","), strings.Join(data.Achievements, ","),
	)
	if err != nil {
		return fmt.Errorf("append assessment event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendRecommendations(ctx context.Context, data []RecommendationEventData) error {
	if len(data) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin recommendation append: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO recommendation_events
			(user_id, batch_id, content_id, algorithm, score, position, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare recommendation append: %w", err)
	}
	defer stmt.Close()

	for _, d := range data {
		_, err := stmt.ExecContext(ctx,
			d.UserID, d.BatchID, d.ContentID, d.Algorithm, d.Score, d.Position,
			d.Timestamp.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("append recommendation event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit recommendation append: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendOracleRequest(ctx context.Context, data OracleEventData) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO oracle_events
			(provider, model, purpose, input_tokens, output_tokens, latency_ms, success, error_message, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens,
		data.LatencyMs, boolToInt(data.Success), data.ErrorMessage,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append oracle event: %w", err)
	}
	return nil
}

func (r *eventRepo) InteractionsInRange(ctx context.Context, userID string, from, to time.Time) ([]InteractionEventData, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, content_id, interaction_type, timestamp, duration_ms, engagement, completion_rate, difficulty, context
		 FROM interaction_events
		 WHERE user_id = ? AND timestamp >= ? AND timestamp < ?
		 ORDER BY timestamp ASC, id ASC`,
		userID, from.UTC().Format(time.RFC3339Nano), to.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("query interaction events: %w", err)
	}
	defer rows.Close()

	var out []InteractionEventData
	for rows.Next() {
		var d InteractionEventData
		var ts string
		if err := rows.Scan(&d.UserID, &d.ContentID, &d.InteractionType, &ts,
			&d.DurationMs, &d.Engagement, &d.CompletionRate, &d.Difficulty, &d.Context); err != nil {
			return nil, fmt.Errorf("scan interaction event: %w", err)
		}
		d.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse interaction timestamp: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *eventRepo) RecommendationsInRange(ctx context.Context, userID string, from, to time.Time) ([]RecommendationEventData, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, batch_id, content_id, algorithm, score, position, timestamp
		 FROM recommendation_events
		 WHERE user_id = ? AND timestamp >= ? AND timestamp < ?
		 ORDER BY timestamp ASC, id ASC`,
		userID, from.UTC().Format(time.RFC3339Nano), to.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("query recommendation events: %w", err)
	}
	defer rows.Close()

	var out []RecommendationEventData
	for rows.Next() {
		var d RecommendationEventData
		var ts string
		if err := rows.Scan(&d.UserID, &d.BatchID, &d.ContentID, &d.Algorithm, &d.Score, &d.Position, &ts); err != nil {
			return nil, fmt.Errorf("scan recommendation event: %w", err)
		}
		d.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse recommendation timestamp: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *eventRepo) RecentAssessmentScores(ctx context.Context, userID, skillID string, lastN int) ([]float64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT score FROM assessment_events
		 WHERE user_id = ? AND skill_id = ?
		 ORDER BY id DESC LIMIT ?`,
		userID, skillID, lastN,
	)
	if err != nil {
		return nil, fmt.Errorf("query assessment scores: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("scan assessment score: %w", err)
		}
		out = append(out, score)
	}
	return out, rows.Err()
}

func (r *eventRepo) PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tables := []string{"interaction_events", "assessment_events", "recommendation_events", "oracle_events"}
	ts := cutoff.UTC().Format(time.RFC3339Nano)

	var total int64
	for _, table := range tables {
		res, err := r.db.ExecContext(ctx,
			"DELETE FROM "+table+" WHERE timestamp < ?", ts)
		if err != nil {
			return total, fmt.Errorf("prune %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("prune %s: %w", table, err)
		}
		total += n
	}
	return total, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
