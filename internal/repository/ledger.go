package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/auction-marketplace/internal/ledger"
	"github.com/iliyamo/auction-marketplace/internal/model"
)

// Ledger is the MySQL implementation of ledger.Store.  Row locks come from
// SELECT ... FOR UPDATE inside an InnoDB transaction.
type Ledger struct {
	db           *sql.DB
	listings     *ListingRepo
	bids         *BidRepo
	transactions *TransactionRepo
	ratings      *RatingRepo
	users        *UserRepo
}

var _ ledger.Store = (*Ledger)(nil)

// NewLedger wires the table repositories around one connection pool.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{
		db:           db,
		listings:     NewListingRepo(db),
		bids:         NewBidRepo(),
		transactions: NewTransactionRepo(db),
		ratings:      NewRatingRepo(),
		users:        NewUserRepo(db),
	}
}

// BeginTx starts a READ COMMITTED transaction.  Locking reads see the
// latest committed row regardless of isolation, and the lower level keeps
// gap locks out of the bid queries.
func (l *Ledger) BeginTx(ctx context.Context) (ledger.Tx, error) {
	tx, err := l.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	return &ledgerTx{Ledger: l, tx: tx}, nil
}

func (l *Ledger) ExpiredListingIDs(ctx context.Context, now time.Time, maxAttempts, limit int) ([]uint64, error) {
	return l.listings.ExpiredIDs(ctx, now, maxAttempts, limit)
}

func (l *Ledger) OverdueTransactionIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	return l.transactions.OverdueIDs(ctx, now, limit)
}

func (l *Ledger) RecordSettlementFailure(ctx context.Context, listingID uint64) (int, error) {
	return l.listings.IncrementSettlementAttempts(ctx, listingID)
}

// Reputation returns a user's stored aggregates.
func (l *Ledger) Reputation(ctx context.Context, userID uint64) (model.Reputation, error) {
	return l.users.Reputation(ctx, userID)
}

type ledgerTx struct {
	*Ledger
	tx   *sql.Tx
	done bool
}

func (t *ledgerTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	return t.tx.Commit()
}

func (t *ledgerTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}

func (t *ledgerTx) LockListing(ctx context.Context, id uint64) (model.Listing, error) {
	return t.listings.GetForUpdateTx(ctx, t.tx, id)
}

func (t *ledgerTx) UpdateListing(ctx context.Context, l model.Listing) error {
	return t.listings.UpdateTx(ctx, t.tx, l)
}

func (t *ledgerTx) IsBlocked(ctx context.Context, listingID, bidderID uint64) (bool, error) {
	return t.bids.IsBlockedTx(ctx, t.tx, listingID, bidderID)
}

func (t *ledgerTx) BlockBidder(ctx context.Context, listingID, bidderID uint64, at time.Time) error {
	return t.bids.BlockTx(ctx, t.tx, listingID, bidderID, at)
}

func (t *ledgerTx) LastBidAt(ctx context.Context, listingID, bidderID uint64) (time.Time, bool, error) {
	return t.bids.LastBidAtTx(ctx, t.tx, listingID, bidderID)
}

func (t *ledgerTx) InsertBid(ctx context.Context, b *model.Bid) error {
	return t.bids.InsertTx(ctx, t.tx, b)
}

func (t *ledgerTx) RejectBids(ctx context.Context, listingID, bidderID uint64) (int64, error) {
	return t.bids.RejectByBidderTx(ctx, t.tx, listingID, bidderID)
}

func (t *ledgerTx) TopActiveBid(ctx context.Context, listingID uint64) (model.Bid, bool, error) {
	return t.bids.TopActiveTx(ctx, t.tx, listingID)
}

func (t *ledgerTx) CountActiveBids(ctx context.Context, listingID uint64) (int, error) {
	return t.bids.CountActiveTx(ctx, t.tx, listingID)
}

func (t *ledgerTx) RatingSnapshot(ctx context.Context, userID uint64) (model.RatingSnapshot, error) {
	return t.ratings.SnapshotTx(ctx, t.tx, userID)
}

func (t *ledgerTx) InsertRating(ctx context.Context, r *model.Rating) error {
	return t.ratings.InsertTx(ctx, t.tx, r)
}

// RecomputeRatings locks the users row, recounts the role's ratings and
// stores the result.
func (t *ledgerTx) RecomputeRatings(ctx context.Context, userID uint64, role model.RatingRole) (model.RatingAggregate, error) {
	if err := t.users.LockTx(ctx, t.tx, userID); err != nil {
		return model.RatingAggregate{}, err
	}
	total, positive, err := t.ratings.CountTx(ctx, t.tx, userID, role)
	if err != nil {
		return model.RatingAggregate{}, err
	}
	agg := model.NewRatingAggregate(userID, role, total, positive)
	if err := t.users.SaveAggregateTx(ctx, t.tx, agg); err != nil {
		return model.RatingAggregate{}, err
	}
	return agg, nil
}

func (t *ledgerTx) InsertTransaction(ctx context.Context, tr *model.Transaction) error {
	return t.transactions.InsertTx(ctx, t.tx, tr)
}

func (t *ledgerTx) LockTransaction(ctx context.Context, id uint64) (model.Transaction, error) {
	return t.transactions.GetForUpdateTx(ctx, t.tx, id)
}

func (t *ledgerTx) UpdateTransaction(ctx context.Context, tr model.Transaction) error {
	return t.transactions.UpdateTx(ctx, t.tx, tr)
}

// expectRow turns an UPDATE that matched nothing into ledger.ErrNotFound.
// The DSN sets clientFoundRows so unchanged rows still count as matched.
func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
