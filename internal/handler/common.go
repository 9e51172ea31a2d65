package handler // handler holds the HTTP controllers; business rules live in package auction

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/auction-marketplace/internal/auction"
	"github.com/iliyamo/auction-marketplace/internal/ledger"
	"github.com/iliyamo/auction-marketplace/internal/middleware"
	"github.com/iliyamo/auction-marketplace/internal/model"
)

// Engine is the slice of *auction.Engine the controllers call.
type Engine interface {
	PlaceBid(ctx context.Context, listingID, bidderID uint64, amount decimal.Decimal) (auction.BidResult, error)
	BuyNow(ctx context.Context, listingID, buyerID uint64) (auction.BuyNowResult, error)
	BlockBidder(ctx context.Context, listingID, sellerID, bidderID uint64) (auction.BlockResult, error)
	SubmitPayment(ctx context.Context, txID, buyerID uint64, address, proofRef string) (auction.TransactionResult, error)
	ConfirmShipping(ctx context.Context, txID, sellerID uint64, proofRef string) (auction.TransactionResult, error)
	ConfirmReceipt(ctx context.Context, txID, buyerID uint64) (auction.TransactionResult, error)
	CancelTransaction(ctx context.Context, txID, sellerID uint64, reason string) (auction.CancelResult, error)
	SubmitRating(ctx context.Context, txID, raterID uint64, score int, comment string) (auction.RatingResult, error)
}

// SettingsWriter persists admin changes to system_settings.
type SettingsWriter interface {
	Set(ctx context.Context, key, value string) error
}

// ReputationReader loads a user's rating aggregates.
type ReputationReader interface {
	Reputation(ctx context.Context, userID uint64) (model.Reputation, error)
}

var log = logrus.WithField("component", "http")

// getUserID returns the authenticated caller set by JWTAuth.
func getUserID(c echo.Context) (uint64, bool) {
	return middleware.UserID(c)
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": "unauthorized"})
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": "bad-request"})
}

// statusFor maps an engine error to its HTTP status.
func statusFor(err error) int {
	if errors.Is(err, auction.ErrTooFast) {
		return http.StatusTooManyRequests
	}
	switch auction.KindOf(err) {
	case auction.KindValidation:
		return http.StatusBadRequest
	case auction.KindEligibility, auction.KindForbidden:
		return http.StatusForbidden
	case auction.KindNotFound:
		return http.StatusNotFound
	case auction.KindConflict, auction.KindInvalidTransition:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error", "code"}.  Only *auction.Error
// messages reach the client; anything else becomes the generic internal
// message and is logged with its cause.
func writeError(c echo.Context, err error) error {
	status := statusFor(err)
	var ae *auction.Error
	if !errors.As(err, &ae) {
		ae = auction.ErrInternal
	}
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
		}).Error("request failed")
	}
	body := echo.Map{"error": ae.Message, "code": ae.Code}
	if ae.MinAmount != nil {
		body["min_amount"] = ae.MinAmount.StringFixed(2)
	}
	return c.JSON(status, body)
}

// notFoundOr maps ledger.ErrNotFound from read paths outside the engine.
func notFoundOr(c echo.Context, err error, msg string) error {
	if errors.Is(err, ledger.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": msg, "code": "not-found"})
	}
	return writeError(c, err)
}
