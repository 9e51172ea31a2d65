package auction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/auction-marketplace/internal/ledger"
	"github.com/iliyamo/auction-marketplace/internal/model"
	"github.com/iliyamo/auction-marketplace/internal/notify"
)

// BidResult is returned for an accepted bid so the UI can reconcile the
// price it rendered optimistically.
type BidResult struct {
	BidID    uint64
	NewPrice decimal.Decimal
	EndsAt   time.Time
	Extended bool
}

// BuyNowResult identifies the transaction created by a buy-now purchase.
type BuyNowResult struct {
	TransactionID uint64
	Price         decimal.Decimal
}

// PlaceBid accepts a bid of amount on a listing.  The listing row stays
// locked from the first read to the commit, so concurrent bids on one
// listing are accepted one at a time and prices only ever increase.
func (e *Engine) PlaceBid(ctx context.Context, listingID, bidderID uint64, amount decimal.Decimal) (BidResult, error) {
	if listingID == 0 || bidderID == 0 {
		return BidResult{}, ErrMissingField
	}
	if !amount.IsPositive() {
		return BidResult{}, ErrInvalidAmount
	}
	tun := e.loadTunables(ctx)

	var (
		res        BidResult
		listing    model.Listing
		prevWinner *uint64
	)
	err := e.inTx(ctx, "place bid", func(tx ledger.Tx) error {
		l, err := tx.LockListing(ctx, listingID)
		if err != nil {
			return notFound(err, ErrListingNotFound)
		}
		now := e.now()
		if err := e.checkBidder(ctx, tx, l, bidderID, now); err != nil {
			return err
		}

		floor := l.PriceFloor()
		if amount.LessThan(floor) {
			return amountTooLow(floor)
		}

		if tun.BidCooldown > 0 {
			last, ok, err := tx.LastBidAt(ctx, listingID, bidderID)
			if err != nil {
				return err
			}
			if ok && now.Sub(last) < tun.BidCooldown {
				return ErrTooFast
			}
		}

		bid := &model.Bid{
			ListingID: listingID,
			BidderID:  bidderID,
			Price:     amount,
			Status:    model.BidActive,
			CreatedAt: now,
		}
		if err := tx.InsertBid(ctx, bid); err != nil {
			return err
		}

		prevWinner = l.WinnerID
		winner := bidderID
		oldEnds := l.EndsAt
		l.CurrentPrice = amount
		l.BidCount++
		l.WinnerID = &winner
		if l.AutoExtend {
			if extended := now.Add(tun.AutoExtend); extended.After(l.EndsAt) {
				l.EndsAt = extended
			}
		}
		l.UpdatedAt = now
		if err := tx.UpdateListing(ctx, l); err != nil {
			return err
		}

		listing = l
		res = BidResult{
			BidID:    bid.ID,
			NewPrice: amount,
			EndsAt:   l.EndsAt,
			Extended: l.EndsAt.After(oldEnds),
		}
		return nil
	})
	if err != nil {
		return BidResult{}, err
	}

	e.log.WithFields(logrus.Fields{
		"listing_id": listingID,
		"bidder_id":  bidderID,
		"price":      amount.String(),
		"extended":   res.Extended,
	}).Debug("bid accepted")

	at := e.now()
	events := []notify.Event{
		withListing(notify.NewEvent(notify.BidPlaced, at, listing.SellerID, bidderID), listingID, bidderID).WithPrice(amount),
	}
	if prevWinner != nil && *prevWinner != bidderID {
		events = append(events, withListing(notify.NewEvent(notify.Outbid, at, *prevWinner), listingID, bidderID).WithPrice(amount))
	}
	e.dispatch(events...)
	return res, nil
}

// BuyNow buys a listing at its buy-now price, closing it as SOLD and
// creating a PENDING transaction in the same commit.  Once SOLD, further
// bids fail the status check with ErrEnded.  Buy-now closes once bidding
// reaches its price.
func (e *Engine) BuyNow(ctx context.Context, listingID, buyerID uint64) (BuyNowResult, error) {
	if listingID == 0 || buyerID == 0 {
		return BuyNowResult{}, ErrMissingField
	}
	tun := e.loadTunables(ctx)

	var (
		res        BuyNowResult
		listing    model.Listing
		prevWinner *uint64
	)
	err := e.inTx(ctx, "buy now", func(tx ledger.Tx) error {
		l, err := tx.LockListing(ctx, listingID)
		if err != nil {
			return notFound(err, ErrListingNotFound)
		}
		if l.BuyNowPrice == nil {
			return ErrNoBuyNow
		}
		// current_price never decreases
		if l.BidCount > 0 && l.CurrentPrice.GreaterThanOrEqual(*l.BuyNowPrice) {
			return ErrBuyNowOutbid
		}
		now := e.now()
		if err := e.checkBidder(ctx, tx, l, buyerID, now); err != nil {
			return err
		}

		prevWinner = l.WinnerID
		winner := buyerID
		l.Status = model.ListingSold
		l.CurrentPrice = *l.BuyNowPrice
		l.WinnerID = &winner
		l.UpdatedAt = now
		if err := tx.UpdateListing(ctx, l); err != nil {
			return err
		}

		t := &model.Transaction{
			ListingID:    l.ID,
			BuyerID:      buyerID,
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

		listing = l
		res = BuyNowResult{TransactionID: t.ID, Price: l.CurrentPrice}
		return nil
	})
	if err != nil {
		return BuyNowResult{}, err
	}

	at := e.now()
	done := notify.NewEvent(notify.BuyNowCompleted, at, listing.SellerID, buyerID).WithPrice(res.Price)
	done = withListing(done, listingID, buyerID)
	done.TransactionID = res.TransactionID
	events := []notify.Event{done}
	if prevWinner != nil && *prevWinner != buyerID {
		lost := withListing(notify.NewEvent(notify.Outbid, at, *prevWinner), listingID, buyerID).WithPrice(res.Price)
		lost.Note = "bought now by another user"
		events = append(events, lost)
	}
	e.dispatch(events...)
	return res, nil
}

// checkBidder resolves the block list and rating snapshot inside tx and
// runs the eligibility checker against the locked listing.
func (e *Engine) checkBidder(ctx context.Context, tx ledger.Tx, l model.Listing, bidderID uint64, now time.Time) error {
	blocked, err := tx.IsBlocked(ctx, l.ID, bidderID)
	if err != nil {
		return err
	}
	snap, err := tx.RatingSnapshot(ctx, bidderID)
	if err != nil {
		return err
	}
	return CheckEligibility(EligibilityInput{
		Listing:  l,
		BidderID: bidderID,
		Blocked:  blocked,
		Rating:   snap,
		Now:      now,
	}).Err()
}

// paymentLimit is the listing's own limit, or the configured default.
func paymentLimit(l model.Listing, tun Tunables) time.Duration {
	if l.PaymentTimeLimitHours != nil && *l.PaymentTimeLimitHours > 0 {
		return time.Duration(*l.PaymentTimeLimitHours) * time.Hour
	}
	return tun.PaymentLimit
}

func withListing(ev notify.Event, listingID, actorID uint64) notify.Event {
	ev.ListingID = listingID
	ev.ActorID = actorID
	return ev
}
