package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auction-marketplace/internal/ledger"
	"github.com/iliyamo/auction-marketplace/internal/model"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(s *Store) model.Listing {
	return s.CreateListing(model.Listing{
		SellerID:      1,
		StartingPrice: decimal.NewFromInt(100),
		PriceStep:     decimal.NewFromInt(10),
		EndsAt:        now.Add(time.Hour),
	})
}

func TestLockListing_BlocksUntilCommit(t *testing.T) {
	t.Parallel()
	s := New()
	l := seed(s)
	ctx := context.Background()

	tx1, err := s.BeginTx(ctx)
	require.NoError(t, err)
	locked, err := tx1.LockListing(ctx, l.ID)
	require.NoError(t, err)
	require.Equal(t, model.ListingActive, locked.Status)
	require.True(t, locked.CurrentPrice.Equal(decimal.NewFromInt(100)))

	acquired := make(chan model.Listing, 1)
	go func() {
		tx2, _ := s.BeginTx(ctx)
		defer tx2.Rollback()
		got, err := tx2.LockListing(ctx, l.ID)
		if err == nil {
			acquired <- got
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second transaction acquired a held lock")
	case <-time.After(50 * time.Millisecond):
	}

	locked.CurrentPrice = decimal.NewFromInt(130)
	require.NoError(t, tx1.UpdateListing(ctx, locked))
	require.NoError(t, tx1.Commit())

	select {
	case got := <-acquired:
		require.True(t, got.CurrentPrice.Equal(decimal.NewFromInt(130)))
	case <-time.After(time.Second):
		t.Fatal("lock not released on commit")
	}
}

func TestLockListing_ContextCancelledWhileWaiting(t *testing.T) {
	t.Parallel()
	s := New()
	l := seed(s)

	tx1, _ := s.BeginTx(context.Background())
	_, err := tx1.LockListing(context.Background(), l.ID)
	require.NoError(t, err)
	defer tx1.Rollback()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	tx2, _ := s.BeginTx(context.Background())
	_, err = tx2.LockListing(ctx, l.ID)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NoError(t, tx2.Rollback())
}

func TestRollback_RevertsEveryWrite(t *testing.T) {
	t.Parallel()
	s := New()
	l := seed(s)
	ctx := context.Background()

	tx, _ := s.BeginTx(ctx)
	locked, err := tx.LockListing(ctx, l.ID)
	require.NoError(t, err)
	winner := uint64(7)
	locked.WinnerID = &winner
	locked.BidCount = 1
	require.NoError(t, tx.UpdateListing(ctx, locked))
	require.NoError(t, tx.InsertBid(ctx, &model.Bid{ListingID: l.ID, BidderID: 7, Price: decimal.NewFromInt(100), Status: model.BidActive, CreatedAt: now}))
	require.NoError(t, tx.BlockBidder(ctx, l.ID, 8, now))
	require.NoError(t, tx.InsertTransaction(ctx, &model.Transaction{ListingID: l.ID, BuyerID: 7, SellerID: 1}))
	require.NoError(t, tx.InsertRating(ctx, &model.Rating{TransactionID: 1, FromUserID: 1, ToUserID: 7, Role: model.RoleBidder, Score: 1}))
	_, err = tx.RecomputeRatings(ctx, 7, model.RoleBidder)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	require.NoError(t, tx.Rollback())

	got, _ := s.Listing(l.ID)
	require.Nil(t, got.WinnerID)
	require.Zero(t, got.BidCount)
	require.Empty(t, s.Bids(l.ID))
	require.False(t, s.Blocked(l.ID, 8))
	require.Empty(t, s.TransactionsForListing(l.ID))
	require.Empty(t, s.Ratings(7))
	require.Zero(t, s.Aggregate(7, model.RoleBidder).Total)

	// lock was released
	tx2, _ := s.BeginTx(ctx)
	_, err = tx2.LockListing(ctx, l.ID)
	require.NoError(t, err)
	require.NoError(t, tx2.Commit())
}

func TestUniqueness(t *testing.T) {
	t.Parallel()
	s := New()
	l := seed(s)
	ctx := context.Background()

	tx, _ := s.BeginTx(ctx)
	require.NoError(t, tx.InsertTransaction(ctx, &model.Transaction{ListingID: l.ID}))
	require.ErrorIs(t, tx.InsertTransaction(ctx, &model.Transaction{ListingID: l.ID}), ledger.ErrDuplicate)

	r := model.Rating{TransactionID: 1, FromUserID: 2, ToUserID: 3, Score: 1, Role: model.RoleSeller}
	first, second := r, r
	require.NoError(t, tx.InsertRating(ctx, &first))
	require.ErrorIs(t, tx.InsertRating(ctx, &second), ledger.ErrDuplicate)

	reverse := model.Rating{TransactionID: 1, FromUserID: 3, ToUserID: 2, Score: -1, Role: model.RoleBidder}
	require.NoError(t, tx.InsertRating(ctx, &reverse))
	require.NoError(t, tx.Commit())

	_, err := tx.LockTransaction(ctx, 42)
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestBidQueries(t *testing.T) {
	t.Parallel()
	s := New()
	l := seed(s)
	ctx := context.Background()

	tx, _ := s.BeginTx(ctx)
	_, err := tx.LockListing(ctx, l.ID)
	require.NoError(t, err)
	bids := []model.Bid{
		{ListingID: l.ID, BidderID: 7, Price: decimal.NewFromInt(100), CreatedAt: now},
		{ListingID: l.ID, BidderID: 8, Price: decimal.NewFromInt(120), CreatedAt: now.Add(time.Second)},
		{ListingID: l.ID, BidderID: 9, Price: decimal.NewFromInt(120), CreatedAt: now.Add(2 * time.Second)},
		{ListingID: l.ID, BidderID: 7, Price: decimal.NewFromInt(130), CreatedAt: now.Add(3 * time.Second)},
	}
	for i := range bids {
		bids[i].Status = model.BidActive
		require.NoError(t, tx.InsertBid(ctx, &bids[i]))
	}

	last, ok, err := tx.LastBidAt(ctx, l.ID, 7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, now.Add(3*time.Second), last)

	_, ok, _ = tx.LastBidAt(ctx, l.ID, 99)
	require.False(t, ok)

	n, err := tx.RejectBids(ctx, l.ID, 7)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	top, ok, err := tx.TopActiveBid(ctx, l.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(8), top.BidderID, "equal price goes to the earlier bid")

	count, err := tx.CountActiveBids(ctx, l.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.NoError(t, tx.Commit())
}

func TestCandidateQueries(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	due := s.CreateListing(model.Listing{EndsAt: now.Add(-time.Minute)})
	exact := s.CreateListing(model.Listing{EndsAt: now})
	s.CreateListing(model.Listing{EndsAt: now.Add(time.Minute)})
	s.CreateListing(model.Listing{EndsAt: now.Add(-time.Hour), Status: model.ListingSold})
	parked := s.CreateListing(model.Listing{EndsAt: now.Add(-time.Hour), SettlementAttempts: 3})

	ids, err := s.ExpiredListingIDs(ctx, now, 3, 10)
	require.NoError(t, err)
	require.Equal(t, []uint64{due.ID, exact.ID}, ids)

	n, err := s.RecordSettlementFailure(ctx, due.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	ids, _ = s.ExpiredListingIDs(ctx, now, 0, 1)
	require.Equal(t, []uint64{parked.ID}, ids)

	overdue := s.CreateTransaction(model.Transaction{ListingID: 1, PaymentDueAt: now})
	s.CreateTransaction(model.Transaction{ListingID: 2, PaymentDueAt: now.Add(time.Second)})
	s.CreateTransaction(model.Transaction{ListingID: 3, PaymentDueAt: now.Add(-time.Hour), Status: model.TxPaid})
	txIDs, err := s.OverdueTransactionIDs(ctx, now, 10)
	require.NoError(t, err)
	require.Equal(t, []uint64{overdue.ID}, txIDs)
}

func TestSettings(t *testing.T) {
	t.Parallel()
	s := NewSettings(map[string]string{"auto_extend_minutes": "5"})
	ctx := context.Background()

	v, ok, err := s.Get(ctx, "auto_extend_minutes")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "5", v)

	require.NoError(t, s.Set(ctx, "auto_extend_minutes", "9"))
	v, _, _ = s.Get(ctx, "auto_extend_minutes")
	require.Equal(t, "9", v)

	_, ok, _ = s.Get(ctx, "missing")
	require.False(t, ok)
}

func TestRollback_KeepsOtherCommittedRatings(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()
	first := s.CreateTransaction(model.Transaction{ListingID: 1, BuyerID: 20, SellerID: 1})
	second := s.CreateTransaction(model.Transaction{ListingID: 2, BuyerID: 20, SellerID: 2})

	txA, _ := s.BeginTx(ctx)
	_, err := txA.LockTransaction(ctx, first.ID)
	require.NoError(t, err)
	require.NoError(t, txA.InsertRating(ctx, &model.Rating{TransactionID: first.ID, FromUserID: 1, ToUserID: 20, Role: model.RoleBidder, Score: -1}))

	txB, _ := s.BeginTx(ctx)
	_, err = txB.LockTransaction(ctx, second.ID)
	require.NoError(t, err)
	require.NoError(t, txB.InsertRating(ctx, &model.Rating{TransactionID: second.ID, FromUserID: 2, ToUserID: 20, Role: model.RoleBidder, Score: 1}))

	// A's rating is not committed, so B neither counts nor snapshots it
	snap, err := txB.RatingSnapshot(ctx, 20)
	require.NoError(t, err)
	require.Equal(t, model.RatingSnapshot{Positive: 1}, snap)
	agg, err := txB.RecomputeRatings(ctx, 20, model.RoleBidder)
	require.NoError(t, err)
	require.Equal(t, 1, agg.Total)
	require.NoError(t, txB.Commit())

	require.NoError(t, txA.Rollback())

	got := s.Ratings(20)
	require.Len(t, got, 1)
	require.Equal(t, second.ID, got[0].TransactionID)
	require.Equal(t, model.NewRatingAggregate(20, model.RoleBidder, 1, 1), s.Aggregate(20, model.RoleBidder))

	// the rolled back direction can be rated again
	txC, _ := s.BeginTx(ctx)
	require.NoError(t, txC.InsertRating(ctx, &model.Rating{TransactionID: first.ID, FromUserID: 1, ToUserID: 20, Role: model.RoleBidder, Score: -1}))
	require.NoError(t, txC.Commit())
}

func TestRecomputeRatings_SerializesPerUser(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	txA, _ := s.BeginTx(ctx)
	require.NoError(t, txA.InsertRating(ctx, &model.Rating{TransactionID: 1, FromUserID: 1, ToUserID: 20, Role: model.RoleBidder, Score: 1}))
	_, err := txA.RecomputeRatings(ctx, 20, model.RoleBidder)
	require.NoError(t, err)

	done := make(chan model.RatingAggregate, 1)
	go func() {
		txB, _ := s.BeginTx(ctx)
		_ = txB.InsertRating(ctx, &model.Rating{TransactionID: 2, FromUserID: 2, ToUserID: 20, Role: model.RoleBidder, Score: 1})
		agg, err := txB.RecomputeRatings(ctx, 20, model.RoleBidder)
		if err != nil {
			_ = txB.Rollback()
			return
		}
		_ = txB.Commit()
		done <- agg
	}()

	select {
	case <-done:
		t.Fatal("second recompute ran while the user was locked")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, txA.Rollback())
	select {
	case agg := <-done:
		require.Equal(t, 1, agg.Total)
	case <-time.After(time.Second):
		t.Fatal("user lock not released on rollback")
	}
	require.Equal(t, model.NewRatingAggregate(20, model.RoleBidder, 1, 1), s.Aggregate(20, model.RoleBidder))
	require.Len(t, s.Ratings(20), 1)
}

func TestRollback_KeepsOtherBidWrites(t *testing.T) {
	t.Parallel()
	s := New()
	l := seed(s)
	ctx := context.Background()

	// a committed bid lands between this unit's writes and its rollback
	txA, _ := s.BeginTx(ctx)
	require.NoError(t, txA.InsertBid(ctx, &model.Bid{ListingID: l.ID, BidderID: 7, Price: decimal.NewFromInt(100), Status: model.BidActive, CreatedAt: now}))
	n, err := txA.RejectBids(ctx, l.ID, 7)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	txB, _ := s.BeginTx(ctx)
	require.NoError(t, txB.InsertBid(ctx, &model.Bid{ListingID: l.ID, BidderID: 8, Price: decimal.NewFromInt(110), Status: model.BidActive, CreatedAt: now}))
	require.NoError(t, txB.Commit())

	require.NoError(t, txA.Rollback())
	bids := s.Bids(l.ID)
	require.Len(t, bids, 1)
	require.Equal(t, uint64(8), bids[0].BidderID)
	require.Equal(t, model.BidActive, bids[0].Status)
}

func TestSeedDemo(t *testing.T) {
	t.Parallel()
	s := New()
	l := s.SeedDemo(now)

	got, ok := s.Listing(l.ID)
	require.True(t, ok)
	require.Equal(t, model.ListingActive, got.Status)
	require.True(t, got.CurrentPrice.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, got.BuyNowPrice)
	require.Equal(t, now.Add(24*time.Hour), got.EndsAt)

	ids, err := s.ExpiredListingIDs(context.Background(), now.Add(25*time.Hour), 5, 10)
	require.NoError(t, err)
	require.Equal(t, []uint64{l.ID}, ids)
}
