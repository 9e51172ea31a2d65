// Package ledger defines the storage port used by the auction engine.  A
// Store hands out transactions; every mutation of a listing or a
// transaction happens inside a Tx after the corresponding row has been
// locked with LockListing or LockTransaction.  Locks are held until Commit
// or Rollback, which is the only concurrency control the engine relies on.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/auction-marketplace/internal/model"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness rule, such
// as a second transaction for one listing or a second rating in the same
// direction.
var ErrDuplicate = errors.New("duplicate")

// Store is the entry point to the ledger.  Candidate queries run outside
// any transaction and are always re-checked under a row lock by callers.
type Store interface {
	BeginTx(ctx context.Context) (Tx, error)

	// ExpiredListingIDs returns ACTIVE listings whose ends_at <= now and
	// whose settlement attempts are below maxAttempts.
	ExpiredListingIDs(ctx context.Context, now time.Time, maxAttempts, limit int) ([]uint64, error)

	// OverdueTransactionIDs returns PENDING transactions whose payment
	// deadline is before now.
	OverdueTransactionIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error)

	// RecordSettlementFailure bumps the listing's failed-attempt counter
	// outside of the failed transaction and returns the new count.
	RecordSettlementFailure(ctx context.Context, listingID uint64) (int, error)
}

// Tx is a unit of work.  Callers must call exactly one of Commit or
// Rollback; Rollback after Commit is a no-op.
type Tx interface {
	Commit() error
	Rollback() error

	// Listings
	LockListing(ctx context.Context, id uint64) (model.Listing, error)
	UpdateListing(ctx context.Context, l model.Listing) error

	// Bids and the per-listing block list
	IsBlocked(ctx context.Context, listingID, bidderID uint64) (bool, error)
	BlockBidder(ctx context.Context, listingID, bidderID uint64, at time.Time) error
	LastBidAt(ctx context.Context, listingID, bidderID uint64) (time.Time, bool, error)
	InsertBid(ctx context.Context, b *model.Bid) error
	RejectBids(ctx context.Context, listingID, bidderID uint64) (int64, error)
	TopActiveBid(ctx context.Context, listingID uint64) (model.Bid, bool, error)
	CountActiveBids(ctx context.Context, listingID uint64) (int, error)

	// Reputation
	RatingSnapshot(ctx context.Context, userID uint64) (model.RatingSnapshot, error)
	InsertRating(ctx context.Context, r *model.Rating) error
	RecomputeRatings(ctx context.Context, userID uint64, role model.RatingRole) (model.RatingAggregate, error)

	// Transactions
	InsertTransaction(ctx context.Context, t *model.Transaction) error
	LockTransaction(ctx context.Context, id uint64) (model.Transaction, error)
	UpdateTransaction(ctx context.Context, t model.Transaction) error
}
