package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/auction-marketplace/internal/model"
)

// TransactionRepo provides access to the transactions table.  The
// listing_id column is unique, which is what makes settlement idempotent
// even if two sweeps raced past the status check.
type TransactionRepo struct {
	db *sql.DB
}

// NewTransactionRepo returns a new TransactionRepo bound to the provided database.
func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

// InsertTx creates a transaction and fills in its generated ID.  A second
// transaction for the same listing yields ledger.ErrDuplicate.
func (r *TransactionRepo) InsertTx(ctx context.Context, tx *sql.Tx, t *model.Transaction) error {
	const q = `INSERT INTO transactions
	           (listing_id, buyer_id, seller_id, price, status, payment_due_at, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		t.ListingID, t.BuyerID, t.SellerID, t.Price, string(t.Status),
		t.PaymentDueAt.UTC(), t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetForUpdateTx loads a transaction and locks its row until tx ends.
func (r *TransactionRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Transaction, error) {
	const q = `SELECT id, listing_id, buyer_id, seller_id, price, status,
	                  delivery_address, payment_proof_ref, shipping_proof_ref,
	                  buyer_rating, buyer_comment, seller_rating, seller_comment,
	                  payment_due_at, created_at, updated_at
	           FROM transactions WHERE id = ? FOR UPDATE`
	var (
		t                            model.Transaction
		status                       string
		address, payProof, shipProof sql.NullString
		buyerComment, sellerComment  sql.NullString
		buyerRating, sellerRating    sql.NullInt16
	)
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.ListingID, &t.BuyerID, &t.SellerID, &t.Price, &status,
		&address, &payProof, &shipProof,
		&buyerRating, &buyerComment, &sellerRating, &sellerComment,
		&t.PaymentDueAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.Transaction{}, translate(err)
	}
	t.Status = model.TransactionStatus(status)
	t.DeliveryAddress = nullString(address)
	t.PaymentProofRef = nullString(payProof)
	t.ShippingProofRef = nullString(shipProof)
	t.BuyerComment = nullString(buyerComment)
	t.SellerComment = nullString(sellerComment)
	t.BuyerRating = nullScore(buyerRating)
	t.SellerRating = nullScore(sellerRating)
	return t, nil
}

// UpdateTx writes every mutable column of a locked transaction.
func (r *TransactionRepo) UpdateTx(ctx context.Context, tx *sql.Tx, t model.Transaction) error {
	const q = `UPDATE transactions
	           SET status = ?, delivery_address = ?, payment_proof_ref = ?, shipping_proof_ref = ?,
	               buyer_rating = ?, buyer_comment = ?, seller_rating = ?, seller_comment = ?, updated_at = ?
	           WHERE id = ?`
	res, err := tx.ExecContext(ctx, q,
		string(t.Status), t.DeliveryAddress, t.PaymentProofRef, t.ShippingProofRef,
		t.BuyerRating, t.BuyerComment, t.SellerRating, t.SellerComment, t.UpdatedAt.UTC(), t.ID)
	if err != nil {
		return translate(err)
	}
	return expectRow(res)
}

// OverdueIDs returns PENDING transactions whose payment deadline has passed.
func (r *TransactionRepo) OverdueIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	const q = `SELECT id FROM transactions
	           WHERE status = 'PENDING' AND payment_due_at <= ?
	           ORDER BY payment_due_at, id
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullScore(n sql.NullInt16) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int16)
	return &v
}
