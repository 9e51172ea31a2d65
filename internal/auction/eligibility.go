package auction

import (
	"time"

	"github.com/iliyamo/auction-marketplace/internal/model"
)

// MinPositiveRatio is the share of positive ratings a rated bidder needs.
const MinPositiveRatio = 0.8

// EligibilityInput carries everything the checker looks at.  Blocked is
// the block-list lookup for (listing, bidder), resolved by the caller.
type EligibilityInput struct {
	Listing  model.Listing
	BidderID uint64
	Blocked  bool
	Rating   model.RatingSnapshot
	Now      time.Time
}

// Decision is the checker's verdict.  Reason is nil when Allowed.
type Decision struct {
	Allowed bool
	Reason  *Error
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason *Error) Decision { return Decision{Reason: reason} }

// Err returns the denial reason as an error, or nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return d.Reason
}

// CheckEligibility decides whether a bid or buy-now attempt may proceed.
// Rules run in a fixed order and the first failure wins.  It has no side
// effects; the engine calls it again on the locked row before writing.
func CheckEligibility(in EligibilityInput) Decision {
	l := in.Listing
	switch {
	case in.Blocked:
		return deny(ErrBlocked)
	case l.SellerID == in.BidderID:
		return deny(ErrSelfBid)
	case l.IsWinner(in.BidderID):
		return deny(ErrAlreadyWinning)
	case l.Status != model.ListingActive || !in.Now.Before(l.EndsAt):
		return deny(ErrEnded)
	}

	if total := in.Rating.Total(); total > 0 {
		ratio := float64(in.Rating.Positive) / float64(total)
		if ratio < MinPositiveRatio {
			return deny(ErrLowRating)
		}
		return allow()
	}
	if !l.AllowUnratedBidders {
		return deny(ErrUnratedNotAllowed)
	}
	return allow()
}
