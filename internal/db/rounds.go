package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"rest-tracker/internal/escalation"
	"rest-tracker/internal/models"
)

func (d *DB) CreateRound(ctx context.Context, r models.Round) error {
	query := `
        INSERT INTO rounds (id, number, budget_ms, started_at, ended_at, outcome, final_stage)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := d.Pool.Exec(ctx, query,
		r.ID, r.Number, r.Budget.Milliseconds(), r.StartedAt, r.EndedAt,
		string(r.Outcome), r.FinalStage.String())
	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

func (d *DB) FinishRound(ctx context.Context, id uuid.UUID, endedAt time.Time, outcome models.Outcome, stage escalation.Stage) error {
	query := `
        UPDATE rounds
        SET ended_at = $1, outcome = $2, final_stage = $3
        WHERE id::text = $4`
	result, err := d.Pool.Exec(ctx, query, endedAt, string(outcome), stage.String(), id.String())
	if err != nil {
		return fmt.Errorf("failed to finish round: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no round updated for id %s", id)
	}
	return nil
}

func (d *DB) CreateEvent(ctx context.Context, e models.Event) error {
	query := `
        INSERT INTO round_events (id, round_id, kind, stage, deadline, at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := d.Pool.Exec(ctx, query, e.ID, e.RoundID, string(e.Kind), e.Stage.String(), e.Deadline, e.At)
	if err != nil {
		return fmt.Errorf("failed to create round event: %w", err)
	}
	return nil
}

// ListRounds returns the most recent rounds first.
func (d *DB) ListRounds(ctx context.Context, limit int) ([]models.Round, error) {
	query := `
        SELECT id, number, budget_ms, started_at, ended_at, outcome, final_stage
        FROM rounds
        ORDER BY started_at DESC
        LIMIT $1`
	rows, err := d.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []models.Round
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rounds: %w", err)
	}
	return rounds, nil
}

func scanRound(row pgx.Row) (models.Round, error) {
	var r models.Round
	var budgetMS int64
	var outcome, stage string
	if err := row.Scan(&r.ID, &r.Number, &budgetMS, &r.StartedAt, &r.EndedAt, &outcome, &stage); err != nil {
		return models.Round{}, fmt.Errorf("failed to scan round: %w", err)
	}
	s, err := escalation.ParseStage(stage)
	if err != nil {
		return models.Round{}, fmt.Errorf("failed to scan round %s: %w", r.ID, err)
	}
	r.Budget = time.Duration(budgetMS) * time.Millisecond
	r.Outcome = models.Outcome(outcome)
	r.FinalStage = s
	return r, nil
}
