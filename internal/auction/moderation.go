package auction

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/auction-marketplace/internal/ledger"
	"github.com/iliyamo/auction-marketplace/internal/model"
	"github.com/iliyamo/auction-marketplace/internal/notify"
)

// BlockResult describes how the listing looks after a block.
type BlockResult struct {
	RejectedBids int64
	WinnerID     *uint64
	CurrentPrice string
	BidCount     int
	Promoted     bool
}

// BlockBidder lets the seller bar a bidder from a listing.  The bidder's
// ACTIVE bids become REJECTED and, if they were winning, the best remaining
// bid (higher price first, then earlier) is promoted.  With no bids left
// the listing returns to its pre-bid state.  Everything happens under the
// listing lock so no bid can interleave with the recalculation.
func (e *Engine) BlockBidder(ctx context.Context, listingID, sellerID, bidderID uint64) (BlockResult, error) {
	if listingID == 0 || sellerID == 0 || bidderID == 0 {
		return BlockResult{}, ErrMissingField
	}
	if sellerID == bidderID {
		return BlockResult{}, ErrSelfBlock
	}

	var (
		res       BlockResult
		listing   model.Listing
		wasWinner bool
	)
	err := e.inTx(ctx, "block bidder", func(tx ledger.Tx) error {
		l, err := tx.LockListing(ctx, listingID)
		if err != nil {
			return notFound(err, ErrListingNotFound)
		}
		if l.SellerID != sellerID {
			return ErrNotSeller
		}
		now := e.now()
		if l.Status != model.ListingActive {
			return ErrEnded
		}

		if err := tx.BlockBidder(ctx, listingID, bidderID, now); err != nil {
			return err
		}
		rejected, err := tx.RejectBids(ctx, listingID, bidderID)
		if err != nil {
			return err
		}
		res.RejectedBids = rejected

		wasWinner = l.IsWinner(bidderID)
		if wasWinner {
			top, ok, err := tx.TopActiveBid(ctx, listingID)
			if err != nil {
				return err
			}
			if ok {
				winner := top.BidderID
				l.WinnerID = &winner
				l.CurrentPrice = top.Price
				res.Promoted = true
			} else {
				l.WinnerID = nil
				l.CurrentPrice = l.StartingPrice
			}
		}
		count, err := tx.CountActiveBids(ctx, listingID)
		if err != nil {
			return err
		}
		l.BidCount = count
		if l.WinnerID == nil {
			l.BidCount = 0
		}
		l.UpdatedAt = now
		if err := tx.UpdateListing(ctx, l); err != nil {
			return err
		}

		listing = l
		res.WinnerID = l.WinnerID
		res.CurrentPrice = l.CurrentPrice.StringFixed(2)
		res.BidCount = l.BidCount
		return nil
	})
	if err != nil {
		return BlockResult{}, err
	}

	e.log.WithFields(logrus.Fields{
		"listing_id":    listingID,
		"bidder_id":     bidderID,
		"rejected_bids": res.RejectedBids,
		"was_winner":    wasWinner,
	}).Info("bidder blocked")

	at := e.now()
	events := []notify.Event{withListing(notify.NewEvent(notify.BidRejectedBlocked, at, bidderID), listingID, sellerID)}
	if res.Promoted {
		events = append(events, withListing(notify.NewEvent(notify.WinnerPromoted, at, *listing.WinnerID), listingID, sellerID).WithPrice(listing.CurrentPrice))
	}
	e.dispatch(events...)
	return res, nil
}
