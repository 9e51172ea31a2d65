package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BidStatus is ACTIVE for every accepted bid.  REJECTED is only set
// retroactively when the seller blocks the bidder.
type BidStatus string

const (
	BidActive   BidStatus = "ACTIVE"
	BidRejected BidStatus = "REJECTED"
)

// Bid is one price offer against a listing.  It is created in the same
// commit as the listing update it causes.
type Bid struct {
	ID        uint64          // bids.id
	ListingID uint64          // bids.listing_id
	BidderID  uint64          // bids.bidder_id
	Price     decimal.Decimal // bids.price
	Status    BidStatus       // bids.status
	CreatedAt time.Time       // bids.created_at
}

// Outranks reports whether b beats other when choosing a winner: the
// higher price wins and on equal prices the earlier bid wins.
func (b Bid) Outranks(other Bid) bool {
	if c := b.Price.Cmp(other.Price); c != 0 {
		return c > 0
	}
	if !b.CreatedAt.Equal(other.CreatedAt) {
		return b.CreatedAt.Before(other.CreatedAt)
	}
	return b.ID < other.ID
}
