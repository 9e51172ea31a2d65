// Package notify is the notification gateway: it carries auction events to
// the message broker and renders them for outbound delivery.  Publishing is
// best effort; callers log failures and never roll back because of them.
package notify

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind identifies what happened.  Consumers switch on it to pick a template.
type Kind string

const (
	BidPlaced              Kind = "bid.placed"
	Outbid                 Kind = "bid.outbid"
	BidRejectedBlocked     Kind = "bid.rejected_blocked"
	WinnerPromoted         Kind = "bid.winner_promoted"
	AuctionSoldToWinner    Kind = "auction.sold"
	AuctionExpiredNoWinner Kind = "auction.expired"
	BuyNowCompleted        Kind = "auction.buy_now"
	PaymentSubmitted       Kind = "transaction.paid"
	ShippingConfirmed      Kind = "transaction.shipped"
	TransactionCompleted   Kind = "transaction.completed"
	TransactionCancelled   Kind = "transaction.cancelled"
	RatingReceived         Kind = "rating.received"
)

// Event is the payload published for every state change the engine wants
// the outside world to hear about.  Recipients are user IDs; resolving them
// to addresses is the delivery side's job.
type Event struct {
	ID            string           `json:"id"`
	Kind          Kind             `json:"kind"`
	Recipients    []uint64         `json:"recipients"`
	ListingID     uint64           `json:"listing_id,omitempty"`
	TransactionID uint64           `json:"transaction_id,omitempty"`
	ActorID       uint64           `json:"actor_id,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	Note          string           `json:"note,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// NewEvent stamps a fresh event ID and time on an event of the given kind.
func NewEvent(kind Kind, at time.Time, recipients ...uint64) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		Recipients: recipients,
		OccurredAt: at.UTC(),
	}
}

// WithPrice returns a copy of e carrying price.
func (e Event) WithPrice(price decimal.Decimal) Event {
	p := price
	e.Price = &p
	return e
}
