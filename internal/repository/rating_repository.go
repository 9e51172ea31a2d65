package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/auction-marketplace/internal/model"
)

// RatingRepo provides access to the ratings table.  (transaction_id,
// from_user_id) is unique so each party rates a transaction at most once.
type RatingRepo struct{}

// NewRatingRepo returns a RatingRepo.
func NewRatingRepo() *RatingRepo { return &RatingRepo{} }

// InsertTx stores a rating and fills in its generated ID.  A repeated
// rating in the same direction yields ledger.ErrDuplicate.
func (r *RatingRepo) InsertTx(ctx context.Context, tx *sql.Tx, rt *model.Rating) error {
	const q = `INSERT INTO ratings (transaction_id, from_user_id, to_user_id, role, score, content, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		rt.TransactionID, rt.FromUserID, rt.ToUserID, string(rt.Role), rt.Score, rt.Content, rt.CreatedAt.UTC())
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	return nil
}

// SnapshotTx counts every rating the user received, in either role.
func (r *RatingRepo) SnapshotTx(ctx context.Context, tx *sql.Tx, userID uint64) (model.RatingSnapshot, error) {
	const q = `SELECT COALESCE(SUM(score > 0), 0), COALESCE(SUM(score < 0), 0)
	           FROM ratings WHERE to_user_id = ?`
	var snap model.RatingSnapshot
	err := tx.QueryRowContext(ctx, q, userID).Scan(&snap.Positive, &snap.Negative)
	return snap, err
}

// CountTx aggregates the user's ratings in one role from the rating rows.
func (r *RatingRepo) CountTx(ctx context.Context, tx *sql.Tx, userID uint64, role model.RatingRole) (total, positive int, err error) {
	const q = `SELECT COUNT(*), COALESCE(SUM(score > 0), 0)
	           FROM ratings WHERE to_user_id = ? AND role = ?`
	err = tx.QueryRowContext(ctx, q, userID, string(role)).Scan(&total, &positive)
	return total, positive, err
}
