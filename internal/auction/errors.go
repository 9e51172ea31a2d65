package auction

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/auction-marketplace/internal/model"
)

// Kind classifies an Error so callers can decide how to react without
// inspecting codes.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindEligibility
	KindConflict
	KindInvalidTransition
	KindNotFound
	KindForbidden
	KindInfrastructure
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindEligibility:
		return "eligibility"
	case KindConflict:
		return "conflict"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInfrastructure:
		return "infrastructure"
	}
	return "unknown"
}

// Error is returned by every engine operation.  Code is stable and machine
// readable; Message is safe to show to the user as is.  Err holds the
// underlying cause for infrastructure failures and is never displayed.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error

	// MinAmount is set on amount-too-low errors.
	MinAmount *decimal.Decimal
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so sentinels below work with errors.Is even when the
// returned error carries extra detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Validation errors are raised before any lock is taken.
var (
	ErrInvalidAmount  = newError(KindValidation, "invalid-amount", "Bid amount must be a positive number.")
	ErrInvalidScore   = newError(KindValidation, "invalid-score", "Rating score must be +1 or -1.")
	ErrMissingField   = newError(KindValidation, "missing-field", "A required field is missing.")
	ErrNoBuyNow       = newError(KindValidation, "buy-now-unavailable", "This listing does not offer buy-now.")
	ErrSelfBlock      = newError(KindValidation, "self-block", "A seller cannot block themselves.")
	ErrInvalidSetting = newError(KindValidation, "invalid-setting", "Unknown setting or value out of range.")
)

// Eligibility errors, in the order the checker evaluates them.
var (
	ErrBlocked           = newError(KindEligibility, "blocked", "You have been blocked by the seller from this auction.")
	ErrSelfBid           = newError(KindEligibility, "self-bid", "You cannot bid on your own listing.")
	ErrAlreadyWinning    = newError(KindEligibility, "already-winning", "You are already the highest bidder; wait until someone outbids you.")
	ErrEnded             = newError(KindEligibility, "ended", "This auction has ended.")
	ErrLowRating         = newError(KindEligibility, "low-rating", "Your rating is below 80%, so you cannot bid.")
	ErrUnratedNotAllowed = newError(KindEligibility, "unrated-not-allowed", "The seller does not accept bidders without ratings.")
)

// Conflict errors: the caller should refresh and retry.
var (
	ErrAmountTooLow = newError(KindConflict, "amount-too-low", "Bid amount is too low.")
	ErrTooFast      = newError(KindConflict, "too-fast", "You are bidding too fast, please try again in a few seconds.")
	ErrAlreadyRated = newError(KindConflict, "already-rated", "You have already rated this transaction.")
	ErrNotOverdue   = newError(KindConflict, "payment-not-overdue", "The payment deadline has not passed yet.")
	ErrBuyNowOutbid = newError(KindConflict, "buy-now-outbid", "Bidding has reached the buy-now price; buy-now is no longer available.")
)

var (
	ErrInvalidTransition   = newError(KindInvalidTransition, "invalid-transition", "This action is not allowed in the transaction's current state.")
	ErrListingNotFound     = newError(KindNotFound, "listing-not-found", "Listing not found.")
	ErrTransactionNotFound = newError(KindNotFound, "transaction-not-found", "Transaction not found.")
	ErrNotSeller           = newError(KindForbidden, "not-seller", "Only the seller can do this.")
	ErrNotBuyer            = newError(KindForbidden, "not-buyer", "Only the buyer can do this.")
	ErrNotParty            = newError(KindForbidden, "not-party", "You are not a party to this transaction.")
	ErrInternal            = newError(KindInfrastructure, "internal", "Something went wrong, please try again.")
)

// amountTooLow builds the floor violation carrying the minimum amount.
func amountTooLow(floor decimal.Decimal) *Error {
	f := floor
	return &Error{
		Kind:      KindConflict,
		Code:      ErrAmountTooLow.Code,
		Message:   fmt.Sprintf("Bid amount too low, must be at least %s.", floor.StringFixed(2)),
		MinAmount: &f,
	}
}

// invalidTransition names the offending status in the message.
func invalidTransition(action string, from model.TransactionStatus) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Code:    ErrInvalidTransition.Code,
		Message: fmt.Sprintf("Cannot %s a transaction that is %s.", action, string(from)),
	}
}

// internal wraps an infrastructure failure.  An *Error passes through
// untouched so business errors raised deeper keep their meaning.
func internal(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{
		Kind:    KindInfrastructure,
		Code:    ErrInternal.Code,
		Message: ErrInternal.Message,
		Err:     fmt.Errorf("%s: %w", op, err),
	}
}

// KindOf returns the Kind of err, or KindInfrastructure for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInfrastructure
}
