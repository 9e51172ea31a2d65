// Package memstore is an in-process implementation of the ledger.  Row
// locks are emulated with one single-slot channel per listing and per
// transaction, held from LockListing/LockTransaction until Commit or
// Rollback.  Writes are applied immediately and undone on Rollback; each
// undo reverts only the rows its own write touched.  Ratings stay hidden
// from other units of work until commit, and recomputing an aggregate
// takes a per-user lock, mirroring the users row lock in MySQL.  It backs
// the engine tests and the STORE_DRIVER=memory dev mode.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/auction-marketplace/internal/ledger"
	"github.com/iliyamo/auction-marketplace/internal/model"
)

type blockKey struct{ listingID, bidderID uint64 }

type ratingKey struct{ transactionID, fromUserID uint64 }

type aggKey struct {
	userID uint64
	role   model.RatingRole
}

// Store holds every table in maps guarded by mu.  mu is only held for the
// duration of a single call; row locks are separate.
type Store struct {
	mu sync.Mutex

	listings     map[uint64]model.Listing
	bids         map[uint64][]model.Bid // by listing
	blocks       map[blockKey]time.Time
	transactions map[uint64]model.Transaction
	txByListing  map[uint64]uint64
	ratings      []model.Rating
	ratingKeys   map[ratingKey]struct{}
	ratingOwner  map[uint64]*memTx // uncommitted ratings by ID
	aggregates   map[aggKey]model.RatingAggregate
	history      map[uint64]model.RatingSnapshot

	listingLocks map[uint64]chan struct{}
	txLocks      map[uint64]chan struct{}
	userLocks    map[uint64]chan struct{}

	nextListing, nextBid, nextTx, nextRating uint64

	// OnInsertTransaction, when set, runs before a transaction row is
	// inserted; a non-nil error aborts the insert.
	OnInsertTransaction func(t model.Transaction) error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		listings:     make(map[uint64]model.Listing),
		bids:         make(map[uint64][]model.Bid),
		blocks:       make(map[blockKey]time.Time),
		transactions: make(map[uint64]model.Transaction),
		txByListing:  make(map[uint64]uint64),
		ratingKeys:   make(map[ratingKey]struct{}),
		ratingOwner:  make(map[uint64]*memTx),
		aggregates:   make(map[aggKey]model.RatingAggregate),
		history:      make(map[uint64]model.RatingSnapshot),
		listingLocks: make(map[uint64]chan struct{}),
		txLocks:      make(map[uint64]chan struct{}),
		userLocks:    make(map[uint64]chan struct{}),
	}
}

var _ ledger.Store = (*Store)(nil)

// BeginTx opens a unit of work.
func (s *Store) BeginTx(ctx context.Context) (ledger.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memTx{s: s, held: make(map[chan struct{}]bool)}, nil
}

// ExpiredListingIDs returns the oldest-deadline candidates first.
func (s *Store) ExpiredListingIDs(_ context.Context, now time.Time, maxAttempts, limit int) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found []model.Listing
	for _, l := range s.listings {
		if l.Status != model.ListingActive || l.EndsAt.After(now) {
			continue
		}
		if maxAttempts > 0 && l.SettlementAttempts >= maxAttempts {
			continue
		}
		found = append(found, l)
	}
	sort.Slice(found, func(i, j int) bool {
		if !found[i].EndsAt.Equal(found[j].EndsAt) {
			return found[i].EndsAt.Before(found[j].EndsAt)
		}
		return found[i].ID < found[j].ID
	})
	return listingIDs(found, limit), nil
}

// OverdueTransactionIDs returns PENDING transactions due at or before now.
func (s *Store) OverdueTransactionIDs(_ context.Context, now time.Time, limit int) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint64
	for id, t := range s.transactions {
		if t.Status == model.TxPending && !t.PaymentDueAt.After(now) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// RecordSettlementFailure bumps the attempt counter outside any unit of work.
func (s *Store) RecordSettlementFailure(_ context.Context, listingID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[listingID]
	if !ok {
		return 0, ledger.ErrNotFound
	}
	l.SettlementAttempts++
	s.listings[listingID] = l
	return l.SettlementAttempts, nil
}

func listingIDs(ls []model.Listing, limit int) []uint64 {
	if limit > 0 && len(ls) > limit {
		ls = ls[:limit]
	}
	ids := make([]uint64, 0, len(ls))
	for _, l := range ls {
		ids = append(ids, l.ID)
	}
	return ids
}

// rowLock returns the lock channel for id, creating it on first use.
// Callers hold s.mu.
func rowLock(locks map[uint64]chan struct{}, id uint64) chan struct{} {
	ch, ok := locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		locks[id] = ch
	}
	return ch
}

// Seeding and inspection helpers.

// CreateListing stores l, assigning an ID when it has none.  An empty
// status defaults to ACTIVE and a zero current price to the starting price.
func (s *Store) CreateListing(l model.Listing) model.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == 0 {
		s.nextListing++
		l.ID = s.nextListing
	} else if l.ID > s.nextListing {
		s.nextListing = l.ID
	}
	if l.Status == "" {
		l.Status = model.ListingActive
	}
	if l.CurrentPrice.IsZero() {
		l.CurrentPrice = l.StartingPrice
	}
	s.listings[l.ID] = l
	return l
}

// SeedDemo creates one open listing for local runs of the memory store:
// seller 1, starting at 100 with a step of 10, buy-now at 1000, ending a
// day after now.  It returns the stored listing.
func (s *Store) SeedDemo(now time.Time) model.Listing {
	buyNow := decimal.NewFromInt(1000)
	return s.CreateListing(model.Listing{
		SellerID:            1,
		StartingPrice:       decimal.NewFromInt(100),
		PriceStep:           decimal.NewFromInt(10),
		BuyNowPrice:         &buyNow,
		StartsAt:            now,
		EndsAt:              now.Add(24 * time.Hour),
		AutoExtend:          true,
		AllowUnratedBidders: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
}

// CreateTransaction stores t as if a settlement had produced it.
func (s *Store) CreateTransaction(t model.Transaction) model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTx++
	t.ID = s.nextTx
	if t.Status == "" {
		t.Status = model.TxPending
	}
	s.transactions[t.ID] = t
	s.txByListing[t.ListingID] = t.ID
	return t
}

// SetRatingHistory seeds ratings a user received before this store existed.
// They count towards the eligibility snapshot but not the aggregates.
func (s *Store) SetRatingHistory(userID uint64, positive, negative int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[userID] = model.RatingSnapshot{Positive: positive, Negative: negative}
}

// Listing returns the committed or in-flight state of a listing.
func (s *Store) Listing(id uint64) (model.Listing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	return l, ok
}

// Bids returns a copy of a listing's bids in insertion order.
func (s *Store) Bids(listingID uint64) []model.Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Bid(nil), s.bids[listingID]...)
}

// Transaction returns a transaction by ID.
func (s *Store) Transaction(id uint64) (model.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	return t, ok
}

// TransactionsForListing returns every transaction created for a listing.
func (s *Store) TransactionsForListing(listingID uint64) []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Transaction
	for _, t := range s.transactions {
		if t.ListingID == listingID {
			out = append(out, t)
		}
	}
	return out
}

// Ratings returns every rating about userID.
func (s *Store) Ratings(userID uint64) []model.Rating {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Rating
	for _, r := range s.ratings {
		if r.ToUserID == userID {
			out = append(out, r)
		}
	}
	return out
}

// Aggregate returns the stored aggregate for a user and role.
func (s *Store) Aggregate(userID uint64, role model.RatingRole) model.RatingAggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if agg, ok := s.aggregates[aggKey{userID, role}]; ok {
		return agg
	}
	return model.NewRatingAggregate(userID, role, 0, 0)
}

// Reputation returns both aggregates of a user.  Unknown users have empty
// aggregates.
func (s *Store) Reputation(_ context.Context, userID uint64) (model.Reputation, error) {
	return model.Reputation{
		UserID: userID,
		Seller: s.Aggregate(userID, model.RoleSeller),
		Bidder: s.Aggregate(userID, model.RoleBidder),
	}, nil
}

// Blocked reports whether bidderID is on the listing's block list.
func (s *Store) Blocked(listingID, bidderID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blocks[blockKey{listingID, bidderID}]
	return ok
}

// memTx applies writes directly and keeps closures that revert them.
type memTx struct {
	s    *Store
	held map[chan struct{}]bool
	undo []func()
	done bool
}

func (t *memTx) lock(ctx context.Context, locks map[uint64]chan struct{}, id uint64) error {
	t.s.mu.Lock()
	ch := rowLock(locks, id)
	t.s.mu.Unlock()
	if t.held[ch] {
		return nil
	}
	select {
	case ch <- struct{}{}:
		t.held[ch] = true
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *memTx) release() {
	for ch := range t.held {
		<-ch
	}
	t.held = nil
	t.done = true
}

func (t *memTx) Commit() error {
	if t.done {
		return nil
	}
	t.s.mu.Lock()
	t.publish()
	t.s.mu.Unlock()
	t.undo = nil
	t.release()
	return nil
}

// publish makes the ratings written by t visible to everyone.  Callers
// hold s.mu.
func (t *memTx) publish() {
	for id, owner := range t.s.ratingOwner {
		if owner == t {
			delete(t.s.ratingOwner, id)
		}
	}
}

// visible reports whether t may read r: committed, or written by t.
// Callers hold s.mu.
func (t *memTx) visible(r model.Rating) bool {
	owner, pending := t.s.ratingOwner[r.ID]
	return !pending || owner == t
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.s.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.publish()
	t.s.mu.Unlock()
	t.undo = nil
	t.release()
	return nil
}

// write runs fn under the store mutex.  fn returns the closure that
// reverts its change, or nil when nothing changed.
func (t *memTx) write(fn func(s *Store) (func(), error)) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	undo, err := fn(t.s)
	if err != nil {
		return err
	}
	if undo != nil {
		t.undo = append(t.undo, undo)
	}
	return nil
}

func (t *memTx) read(fn func(s *Store)) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	fn(t.s)
}

func (t *memTx) LockListing(ctx context.Context, id uint64) (model.Listing, error) {
	var (
		l  model.Listing
		ok bool
	)
	t.read(func(s *Store) { _, ok = s.listings[id] })
	if !ok {
		return model.Listing{}, ledger.ErrNotFound
	}
	if err := t.lock(ctx, t.s.listingLocks, id); err != nil {
		return model.Listing{}, err
	}
	t.read(func(s *Store) { l = s.listings[id] })
	return l, nil
}

func (t *memTx) UpdateListing(_ context.Context, l model.Listing) error {
	return t.write(func(s *Store) (func(), error) {
		prev, ok := s.listings[l.ID]
		if !ok {
			return nil, ledger.ErrNotFound
		}
		s.listings[l.ID] = l
		return func() { s.listings[l.ID] = prev }, nil
	})
}

func (t *memTx) IsBlocked(_ context.Context, listingID, bidderID uint64) (bool, error) {
	var ok bool
	t.read(func(s *Store) { _, ok = s.blocks[blockKey{listingID, bidderID}] })
	return ok, nil
}

func (t *memTx) BlockBidder(_ context.Context, listingID, bidderID uint64, at time.Time) error {
	return t.write(func(s *Store) (func(), error) {
		k := blockKey{listingID, bidderID}
		if _, ok := s.blocks[k]; ok {
			return nil, nil
		}
		s.blocks[k] = at
		return func() { delete(s.blocks, k) }, nil
	})
}

func (t *memTx) LastBidAt(_ context.Context, listingID, bidderID uint64) (time.Time, bool, error) {
	var (
		last  time.Time
		found bool
	)
	t.read(func(s *Store) {
		for _, b := range s.bids[listingID] {
			if b.BidderID == bidderID && (!found || b.CreatedAt.After(last)) {
				last, found = b.CreatedAt, true
			}
		}
	})
	return last, found, nil
}

func (t *memTx) InsertBid(_ context.Context, b *model.Bid) error {
	return t.write(func(s *Store) (func(), error) {
		s.nextBid++
		b.ID = s.nextBid
		listingID, id := b.ListingID, b.ID
		s.bids[listingID] = append(append([]model.Bid(nil), s.bids[listingID]...), *b)
		return func() {
			var kept []model.Bid
			for _, x := range s.bids[listingID] {
				if x.ID != id {
					kept = append(kept, x)
				}
			}
			s.bids[listingID] = kept
		}, nil
	})
}

func (t *memTx) RejectBids(_ context.Context, listingID, bidderID uint64) (int64, error) {
	var n int64
	err := t.write(func(s *Store) (func(), error) {
		next := append([]model.Bid(nil), s.bids[listingID]...)
		rejected := make(map[uint64]bool)
		for i := range next {
			if next[i].BidderID == bidderID && next[i].Status == model.BidActive {
				next[i].Status = model.BidRejected
				rejected[next[i].ID] = true
			}
		}
		n = int64(len(rejected))
		if n == 0 {
			return nil, nil
		}
		s.bids[listingID] = next
		return func() {
			restored := append([]model.Bid(nil), s.bids[listingID]...)
			for i := range restored {
				if rejected[restored[i].ID] && restored[i].Status == model.BidRejected {
					restored[i].Status = model.BidActive
				}
			}
			s.bids[listingID] = restored
		}, nil
	})
	return n, err
}

func (t *memTx) TopActiveBid(_ context.Context, listingID uint64) (model.Bid, bool, error) {
	var (
		top   model.Bid
		found bool
	)
	t.read(func(s *Store) {
		for _, b := range s.bids[listingID] {
			if b.Status != model.BidActive {
				continue
			}
			if !found || b.Outranks(top) {
				top, found = b, true
			}
		}
	})
	return top, found, nil
}

func (t *memTx) CountActiveBids(_ context.Context, listingID uint64) (int, error) {
	var n int
	t.read(func(s *Store) {
		for _, b := range s.bids[listingID] {
			if b.Status == model.BidActive {
				n++
			}
		}
	})
	return n, nil
}

func (t *memTx) RatingSnapshot(_ context.Context, userID uint64) (model.RatingSnapshot, error) {
	var snap model.RatingSnapshot
	t.read(func(s *Store) {
		snap = s.history[userID]
		for _, r := range s.ratings {
			if r.ToUserID != userID || !t.visible(r) {
				continue
			}
			if r.Score > 0 {
				snap.Positive++
			} else {
				snap.Negative++
			}
		}
	})
	return snap, nil
}

func (t *memTx) InsertRating(_ context.Context, r *model.Rating) error {
	return t.write(func(s *Store) (func(), error) {
		k := ratingKey{r.TransactionID, r.FromUserID}
		if _, ok := s.ratingKeys[k]; ok {
			return nil, ledger.ErrDuplicate
		}
		s.nextRating++
		r.ID = s.nextRating
		id := r.ID
		s.ratings = append(append([]model.Rating(nil), s.ratings...), *r)
		s.ratingKeys[k] = struct{}{}
		s.ratingOwner[id] = t
		return func() {
			var kept []model.Rating
			for _, x := range s.ratings {
				if x.ID != id {
					kept = append(kept, x)
				}
			}
			s.ratings = kept
			delete(s.ratingKeys, k)
			delete(s.ratingOwner, id)
		}, nil
	})
}

func (t *memTx) RecomputeRatings(ctx context.Context, userID uint64, role model.RatingRole) (model.RatingAggregate, error) {
	if err := t.lock(ctx, t.s.userLocks, userID); err != nil {
		return model.RatingAggregate{}, err
	}
	var agg model.RatingAggregate
	err := t.write(func(s *Store) (func(), error) {
		var total, positive int
		for _, r := range s.ratings {
			if r.ToUserID == userID && r.Role == role && t.visible(r) {
				total++
				if r.Score > 0 {
					positive++
				}
			}
		}
		k := aggKey{userID, role}
		prev, had := s.aggregates[k]
		agg = model.NewRatingAggregate(userID, role, total, positive)
		s.aggregates[k] = agg
		written := agg
		return func() {
			if s.aggregates[k] != written {
				return
			}
			if had {
				s.aggregates[k] = prev
			} else {
				delete(s.aggregates, k)
			}
		}, nil
	})
	return agg, err
}

func (t *memTx) InsertTransaction(_ context.Context, tr *model.Transaction) error {
	if hook := t.s.OnInsertTransaction; hook != nil {
		if err := hook(*tr); err != nil {
			return err
		}
	}
	return t.write(func(s *Store) (func(), error) {
		if _, ok := s.txByListing[tr.ListingID]; ok {
			return nil, ledger.ErrDuplicate
		}
		s.nextTx++
		tr.ID = s.nextTx
		s.transactions[tr.ID] = *tr
		s.txByListing[tr.ListingID] = tr.ID
		return func() {
			delete(s.transactions, tr.ID)
			delete(s.txByListing, tr.ListingID)
		}, nil
	})
}

func (t *memTx) LockTransaction(ctx context.Context, id uint64) (model.Transaction, error) {
	var (
		tr model.Transaction
		ok bool
	)
	t.read(func(s *Store) { _, ok = s.transactions[id] })
	if !ok {
		return model.Transaction{}, ledger.ErrNotFound
	}
	if err := t.lock(ctx, t.s.txLocks, id); err != nil {
		return model.Transaction{}, err
	}
	t.read(func(s *Store) { tr = s.transactions[id] })
	return tr, nil
}

func (t *memTx) UpdateTransaction(_ context.Context, tr model.Transaction) error {
	return t.write(func(s *Store) (func(), error) {
		prev, ok := s.transactions[tr.ID]
		if !ok {
			return nil, ledger.ErrNotFound
		}
		s.transactions[tr.ID] = tr
		return func() { s.transactions[tr.ID] = prev }, nil
	})
}
