package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus follows PENDING → PAID → SHIPPED → COMPLETED, with
// CANCELLED reachable from PENDING or PAID.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "PENDING"
	TxPaid      TransactionStatus = "PAID"
	TxShipped   TransactionStatus = "SHIPPED"
	TxCompleted TransactionStatus = "COMPLETED"
	TxCancelled TransactionStatus = "CANCELLED"
)

// Terminal reports whether no further state change is allowed.
func (s TransactionStatus) Terminal() bool {
	return s == TxCompleted || s == TxCancelled
}

// Transaction is the settlement contract between buyer and seller for
// exactly one concluded listing.  Rating columns mirror the Rating rows
// written for it so the transaction can be rendered without a join.
//
// Fields:
//
//	ID               – primary key identifier.
//	ListingID        – settled listing (unique).
//	BuyerID/SellerID – the two parties.
//	Price            – final price.
//	Status           – state machine position.
//	DeliveryAddress  – supplied by the buyer with the payment.
//	PaymentProofRef  – reference to an uploaded proof of payment.
//	ShippingProofRef – reference to an uploaded proof of shipment.
//	BuyerRating      – score the buyer gave the seller (nullable).
//	SellerRating     – score the seller gave the buyer (nullable).
//	PaymentDueAt     – deadline after which a PENDING transaction is cancelled.
type Transaction struct {
	ID               uint64
	ListingID        uint64
	BuyerID          uint64
	SellerID         uint64
	Price            decimal.Decimal
	Status           TransactionStatus
	DeliveryAddress  *string
	PaymentProofRef  *string
	ShippingProofRef *string
	BuyerRating      *int
	BuyerComment     *string
	SellerRating     *int
	SellerComment    *string
	PaymentDueAt     time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsParty reports whether userID is the buyer or the seller.
func (t Transaction) IsParty(userID uint64) bool {
	return userID == t.BuyerID || userID == t.SellerID
}
