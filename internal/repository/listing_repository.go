package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/auction-marketplace/internal/model"
)

// ListingRepo provides access to the listings table.  Listing creation and
// catalog queries belong to the surrounding application; this repo only
// carries what the engine needs.
type ListingRepo struct {
	db *sql.DB
}

// NewListingRepo returns a new ListingRepo bound to the provided database.
func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{db: db} }

const listingColumns = `id, seller_id, category_id, starting_price, price_step, current_price,
	buy_now_price, bid_count, winner_id, starts_at, ends_at, status, auto_extend,
	allow_unrated_bidders, payment_time_limit_hours, settlement_attempts, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (model.Listing, error) {
	var (
		l        model.Listing
		buyNow   decimal.NullDecimal
		winnerID sql.NullInt64
		payLimit sql.NullInt32
		status   string
	)
	err := row.Scan(
		&l.ID, &l.SellerID, &l.CategoryID, &l.StartingPrice, &l.PriceStep, &l.CurrentPrice,
		&buyNow, &l.BidCount, &winnerID, &l.StartsAt, &l.EndsAt, &status, &l.AutoExtend,
		&l.AllowUnratedBidders, &payLimit, &l.SettlementAttempts, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return model.Listing{}, translate(err)
	}
	l.Status = model.ListingStatus(status)
	if buyNow.Valid {
		p := buyNow.Decimal
		l.BuyNowPrice = &p
	}
	if winnerID.Valid {
		w := uint64(winnerID.Int64)
		l.WinnerID = &w
	}
	if payLimit.Valid {
		h := int(payLimit.Int32)
		l.PaymentTimeLimitHours = &h
	}
	return l, nil
}

// GetForUpdateTx loads a listing and takes an exclusive row lock on it
// that lasts until tx ends.  Every engine write starts here.
func (r *ListingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Listing, error) {
	q := `SELECT ` + listingColumns + ` FROM listings WHERE id = ? FOR UPDATE`
	return scanListing(tx.QueryRowContext(ctx, q, id))
}

// UpdateTx writes the mutable columns of a locked listing.
func (r *ListingRepo) UpdateTx(ctx context.Context, tx *sql.Tx, l model.Listing) error {
	const q = `UPDATE listings
	           SET current_price = ?, bid_count = ?, winner_id = ?, ends_at = ?, status = ?, updated_at = ?
	           WHERE id = ?`
	var winner any
	if l.WinnerID != nil {
		winner = *l.WinnerID
	}
	res, err := tx.ExecContext(ctx, q,
		l.CurrentPrice, l.BidCount, winner, l.EndsAt.UTC(), string(l.Status), l.UpdatedAt.UTC(), l.ID)
	if err != nil {
		return translate(err)
	}
	return expectRow(res)
}

// ExpiredIDs returns ACTIVE listings past their deadline, oldest first,
// skipping those parked after too many failed settlements.
func (r *ListingRepo) ExpiredIDs(ctx context.Context, now time.Time, maxAttempts, limit int) ([]uint64, error) {
	const q = `SELECT id FROM listings
	           WHERE status = 'ACTIVE' AND ends_at <= ? AND settlement_attempts < ?
	           ORDER BY ends_at, id
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, now.UTC(), maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

// IncrementSettlementAttempts bumps the failure counter in its own
// statement and returns the new value.
func (r *ListingRepo) IncrementSettlementAttempts(ctx context.Context, id uint64) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx, `UPDATE listings SET settlement_attempts = settlement_attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	if err := expectRow(res); err != nil {
		return 0, err
	}
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT settlement_attempts FROM listings WHERE id = ?`, id).Scan(&n); err != nil {
		return 0, translate(err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return n, nil
}

func scanIDs(rows *sql.Rows) ([]uint64, error) {
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
