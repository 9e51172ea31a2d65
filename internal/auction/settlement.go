package auction

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/auction-marketplace/internal/ledger"
	"github.com/iliyamo/auction-marketplace/internal/model"
	"github.com/iliyamo/auction-marketplace/internal/notify"
)

// SweepReport summarises one sweep pass.
type SweepReport struct {
	Candidates int
	Sold       int
	Expired    int
	Cancelled  int
	Skipped    int
	Failed     int
}

// Empty reports whether the pass found nothing to do.
func (r SweepReport) Empty() bool { return r.Candidates == 0 }

type settleOutcome int

const (
	outcomeSkipped settleOutcome = iota
	outcomeSold
	outcomeExpired
)

// SweepExpiredListings closes every ACTIVE listing whose deadline has
// passed.  Each listing is settled in its own transaction so one failure
// does not block the rest.  A failed listing stays ACTIVE and is retried on
// the next pass until it reaches the attempt limit, after which it is
// parked and left for an operator.
func (e *Engine) SweepExpiredListings(ctx context.Context) (SweepReport, error) {
	var rep SweepReport
	ids, err := e.store.ExpiredListingIDs(ctx, e.now(), e.maxAttempts, e.batchLimit)
	if err != nil {
		return rep, internal("list expired listings", err)
	}
	rep.Candidates = len(ids)
	if len(ids) == 0 {
		return rep, nil
	}
	tun := e.loadTunables(ctx)

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		outcome, err := e.settleListing(ctx, id, tun)
		if err != nil {
			rep.Failed++
			e.recordSettlementFailure(ctx, id, err)
			continue
		}
		switch outcome {
		case outcomeSold:
			rep.Sold++
		case outcomeExpired:
			rep.Expired++
		default:
			rep.Skipped++
		}
	}

	e.log.WithFields(logrus.Fields{
		"candidates": rep.Candidates,
		"sold":       rep.Sold,
		"expired":    rep.Expired,
		"skipped":    rep.Skipped,
		"failed":     rep.Failed,
	}).Info("settlement sweep finished")
	return rep, nil
}

// settleListing re-checks the candidate under its row lock.  A concurrent
// sweep or a late auto-extending bid may have changed it since selection,
// in which case it is skipped.
func (e *Engine) settleListing(ctx context.Context, listingID uint64, tun Tunables) (settleOutcome, error) {
	var (
		outcome settleOutcome
		listing model.Listing
		txID    uint64
	)
	err := e.inTx(ctx, "settle listing", func(tx ledger.Tx) error {
		l, err := tx.LockListing(ctx, listingID)
		if err != nil {
			return err
		}
		now := e.now()
		if l.Status != model.ListingActive || now.Before(l.EndsAt) {
			outcome = outcomeSkipped
			return nil
		}

		l.UpdatedAt = now
		if l.WinnerID == nil {
			l.Status = model.ListingExpired
			outcome = outcomeExpired
			listing = l
			return tx.UpdateListing(ctx, l)
		}

		l.Status = model.ListingSold
		if err := tx.UpdateListing(ctx, l); err != nil {
			return err
		}
		t := &model.Transaction{
			ListingID:    l.ID,
			BuyerID:      *l.WinnerID,
			SellerID:     l.SellerID,
			Price:        l.CurrentPrice,
			Status:       model.TxPending,
			PaymentDueAt: now.Add(paymentLimit(l, tun)),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.InsertTransaction(ctx, t); err != nil {
			return err
		}
		outcome = outcomeSold
		listing = l
		txID = t.ID
		return nil
	})
	if err != nil {
		return outcomeSkipped, err
	}

	at := e.now()
	switch outcome {
	case outcomeSold:
		ev := notify.NewEvent(notify.AuctionSoldToWinner, at, listing.SellerID, *listing.WinnerID).WithPrice(listing.CurrentPrice)
		ev.ListingID = listing.ID
		ev.TransactionID = txID
		e.dispatch(ev)
	case outcomeExpired:
		ev := notify.NewEvent(notify.AuctionExpiredNoWinner, at, listing.SellerID)
		ev.ListingID = listing.ID
		e.dispatch(ev)
	}
	return outcome, nil
}

func (e *Engine) recordSettlementFailure(ctx context.Context, listingID uint64, cause error) {
	entry := e.log.WithField("listing_id", listingID).WithError(cause)
	if errors.Is(cause, ledger.ErrNotFound) {
		entry.Warn("settlement candidate vanished")
		return
	}
	attempts, err := e.store.RecordSettlementFailure(ctx, listingID)
	if err != nil {
		entry.WithField("record_error", err.Error()).Error("settlement failed and attempt could not be recorded")
		return
	}
	entry = entry.WithField("attempts", attempts)
	if attempts >= e.maxAttempts {
		entry.Error("settlement failed repeatedly, listing parked")
		return
	}
	entry.Error("settlement failed, will retry next sweep")
}
