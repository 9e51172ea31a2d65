package notify

import (
	"fmt"
	"strings"
	"time"
)

// Render formats ev as a single human-readable line, the shape outbound
// mail workers and the notification log expect.
func Render(ev Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", ev.OccurredAt.UTC().Format(time.RFC3339), headline(ev))
	if ev.ListingID != 0 {
		fmt.Fprintf(&b, " | listing_id=%d", ev.ListingID)
	}
	if ev.TransactionID != 0 {
		fmt.Fprintf(&b, " | transaction_id=%d", ev.TransactionID)
	}
	if ev.ActorID != 0 {
		fmt.Fprintf(&b, " | actor_id=%d", ev.ActorID)
	}
	if ev.Price != nil {
		fmt.Fprintf(&b, " | price=%s", ev.Price.StringFixed(2))
	}
	ids := make([]string, len(ev.Recipients))
	for i, r := range ev.Recipients {
		ids[i] = fmt.Sprint(r)
	}
	fmt.Fprintf(&b, " | to=[%s]", strings.Join(ids, ","))
	if ev.Note != "" {
		fmt.Fprintf(&b, " | note=%q", ev.Note)
	}
	fmt.Fprintf(&b, " | event_id=%s", ev.ID)
	return b.String()
}

func headline(ev Event) string {
	switch ev.Kind {
	case BidPlaced:
		return "New bid placed"
	case Outbid:
		return "You have been outbid"
	case BidRejectedBlocked:
		return "You were blocked from an auction"
	case WinnerPromoted:
		return "You are now the highest bidder"
	case AuctionSoldToWinner:
		return "Auction won"
	case AuctionExpiredNoWinner:
		return "Auction ended without bids"
	case BuyNowCompleted:
		return "Item bought with buy-now"
	case PaymentSubmitted:
		return "Payment submitted"
	case ShippingConfirmed:
		return "Item shipped"
	case TransactionCompleted:
		return "Transaction completed"
	case TransactionCancelled:
		return "Transaction cancelled"
	case RatingReceived:
		return "You received a rating"
	}
	return string(ev.Kind)
}
