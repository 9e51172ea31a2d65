package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingStatus is the lifecycle state of a listing.  Transitions are
// one-directional: ACTIVE may move to SOLD, EXPIRED or REMOVED and never
// back.
type ListingStatus string

const (
	ListingActive  ListingStatus = "ACTIVE"
	ListingSold    ListingStatus = "SOLD"
	ListingExpired ListingStatus = "EXPIRED"
	ListingRemoved ListingStatus = "REMOVED"
)

// Listing is an item put up for auction by a seller.
//
// Fields:
//
//	ID                    – primary key identifier.
//	SellerID              – user who owns the listing.
//	CategoryID            – catalog category (not interpreted by the engine).
//	StartingPrice         – price floor for the first bid.
//	PriceStep             – minimum increment over the current price.
//	CurrentPrice          – highest accepted price so far.
//	BuyNowPrice           – immediate purchase price (nullable).
//	BidCount              – number of ACTIVE bids counted on the listing.
//	WinnerID              – current highest bidder (nullable).
//	StartsAt / EndsAt     – auction window; EndsAt only moves forward.
//	Status                – ACTIVE, SOLD, EXPIRED or REMOVED.
//	AutoExtend            – whether late bids push EndsAt out.
//	AllowUnratedBidders   – whether bidders without rating history may bid.
//	PaymentTimeLimitHours – hours the buyer has to pay once settled (nullable).
//	SettlementAttempts    – failed settlement attempts recorded by the scanner.
type Listing struct {
	ID                    uint64          // listings.id
	SellerID              uint64          // listings.seller_id
	CategoryID            uint64          // listings.category_id
	StartingPrice         decimal.Decimal // listings.starting_price
	PriceStep             decimal.Decimal // listings.price_step
	CurrentPrice          decimal.Decimal // listings.current_price
	BuyNowPrice           *decimal.Decimal
	BidCount              int
	WinnerID              *uint64
	StartsAt              time.Time
	EndsAt                time.Time
	Status                ListingStatus
	AutoExtend            bool
	AllowUnratedBidders   bool
	PaymentTimeLimitHours *int
	SettlementAttempts    int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// HasWinner reports whether a winning bidder is set.
func (l Listing) HasWinner() bool { return l.WinnerID != nil }

// IsWinner reports whether userID is the current winner.
func (l Listing) IsWinner(userID uint64) bool {
	return l.WinnerID != nil && *l.WinnerID == userID
}

// PriceFloor returns the minimum amount the next bid must reach: the
// starting price while no bid is counted, otherwise the current price plus
// one step.
func (l Listing) PriceFloor() decimal.Decimal {
	if l.BidCount == 0 {
		return l.StartingPrice
	}
	return l.CurrentPrice.Add(l.PriceStep)
}
