package repository

import (
	"context"
	"database/sql"
)

// EvaluationRepo provides data access to the evaluations table, the
// idempotency record for post-rehearsal manner evaluations.
type EvaluationRepo struct {
	db *sql.DB
}

// NewEvaluationRepo returns a new EvaluationRepo bound to the given database.
func NewEvaluationRepo(db *sql.DB) *EvaluationRepo { return &EvaluationRepo{db: db} }

// ExistsForEvaluator reports whether the evaluator already submitted
// scores for the room.
func (r *EvaluationRepo) ExistsForEvaluator(ctx context.Context, roomID uint64, evaluator string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM evaluations WHERE room_id = ? AND evaluator_nickname = ?`,
		roomID, evaluator).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ExistsForEvaluatorTx is ExistsForEvaluator within a transaction, used
// by submission to make the one-submission-per-evaluator check atomic
// with the inserts.
func (r *EvaluationRepo) ExistsForEvaluatorTx(ctx context.Context, tx *sql.Tx, roomID uint64, evaluator string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM evaluations WHERE room_id = ? AND evaluator_nickname = ?`,
		roomID, evaluator).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateTx records one evaluator→evaluated pair within the caller's
// transaction.
func (r *EvaluationRepo) CreateTx(ctx context.Context, tx *sql.Tx, roomID uint64, evaluator, evaluated string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO evaluations (room_id, evaluator_nickname, evaluated_nickname) VALUES (?, ?, ?)`,
		roomID, evaluator, evaluated)
	return err
}
