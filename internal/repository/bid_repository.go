package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/auction-marketplace/internal/model"
)

// BidRepo provides access to the bids and blocked_bidders tables.  Every
// method runs inside the transaction that holds the listing lock, so bids
// of one listing never change underneath a caller.
type BidRepo struct{}

// NewBidRepo returns a BidRepo.
func NewBidRepo() *BidRepo { return &BidRepo{} }

// InsertTx stores an accepted bid and fills in its generated ID.
func (r *BidRepo) InsertTx(ctx context.Context, tx *sql.Tx, b *model.Bid) error {
	const q = `INSERT INTO bids (listing_id, bidder_id, price, status, created_at) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.ListingID, b.BidderID, b.Price, string(b.Status), b.CreatedAt.UTC())
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// LastBidAtTx returns when the bidder last bid on the listing.
func (r *BidRepo) LastBidAtTx(ctx context.Context, tx *sql.Tx, listingID, bidderID uint64) (time.Time, bool, error) {
	const q = `SELECT MAX(created_at) FROM bids WHERE listing_id = ? AND bidder_id = ?`
	var last sql.NullTime
	if err := tx.QueryRowContext(ctx, q, listingID, bidderID).Scan(&last); err != nil {
		return time.Time{}, false, err
	}
	if !last.Valid {
		return time.Time{}, false, nil
	}
	return last.Time.UTC(), true, nil
}

// RejectByBidderTx flips the bidder's ACTIVE bids on the listing to
// REJECTED and returns how many changed.
func (r *BidRepo) RejectByBidderTx(ctx context.Context, tx *sql.Tx, listingID, bidderID uint64) (int64, error) {
	const q = `UPDATE bids SET status = 'REJECTED' WHERE listing_id = ? AND bidder_id = ? AND status = 'ACTIVE'`
	res, err := tx.ExecContext(ctx, q, listingID, bidderID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// TopActiveTx returns the best ACTIVE bid: highest price, then earliest.
func (r *BidRepo) TopActiveTx(ctx context.Context, tx *sql.Tx, listingID uint64) (model.Bid, bool, error) {
	const q = `SELECT id, listing_id, bidder_id, price, status, created_at
	           FROM bids
	           WHERE listing_id = ? AND status = 'ACTIVE'
	           ORDER BY price DESC, created_at ASC, id ASC
	           LIMIT 1`
	var (
		b      model.Bid
		status string
	)
	err := tx.QueryRowContext(ctx, q, listingID).Scan(&b.ID, &b.ListingID, &b.BidderID, &b.Price, &status, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Bid{}, false, nil
	}
	if err != nil {
		return model.Bid{}, false, err
	}
	b.Status = model.BidStatus(status)
	return b, true, nil
}

// CountActiveTx counts the listing's ACTIVE bids.
func (r *BidRepo) CountActiveTx(ctx context.Context, tx *sql.Tx, listingID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM bids WHERE listing_id = ? AND status = 'ACTIVE'`, listingID).Scan(&n)
	return n, err
}

// IsBlockedTx reports whether the bidder is on the listing's block list.
func (r *BidRepo) IsBlockedTx(ctx context.Context, tx *sql.Tx, listingID, bidderID uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM blocked_bidders WHERE listing_id = ? AND bidder_id = ? LIMIT 1`,
		listingID, bidderID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// BlockTx adds the bidder to the block list.  Blocking twice is a no-op.
func (r *BidRepo) BlockTx(ctx context.Context, tx *sql.Tx, listingID, bidderID uint64, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT IGNORE INTO blocked_bidders (listing_id, bidder_id, created_at) VALUES (?, ?, ?)`,
		listingID, bidderID, at.UTC())
	return err
}
