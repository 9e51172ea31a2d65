package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// AuctionHandler serves the bidding side: bids, buy-now and seller blocks.
type AuctionHandler struct {
	Engine Engine
}

// NewAuctionHandler panics on a nil engine, like every constructor here.
func NewAuctionHandler(engine Engine) *AuctionHandler {
	if engine == nil {
		panic("nil engine passed to NewAuctionHandler")
	}
	return &AuctionHandler{Engine: engine}
}

type placeBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// PlaceBid handles POST /v1/listings/:id/bids with {"amount": "130.00"}.
// Amounts may be sent as JSON strings or numbers.
func (h *AuctionHandler) PlaceBid(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return unauthorized(c)
	}
	listingID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	var body placeBidRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	res, err := h.Engine.PlaceBid(c.Request().Context(), listingID, userID, body.Amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"bid_id":    res.BidID,
		"new_price": res.NewPrice.StringFixed(2),
		"ends_at":   res.EndsAt.UTC().Format(time.RFC3339),
		"extended":  res.Extended,
	})
}

// BuyNow handles POST /v1/listings/:id/buy-now.
func (h *AuctionHandler) BuyNow(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return unauthorized(c)
	}
	listingID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	res, err := h.Engine.BuyNow(c.Request().Context(), listingID, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"transaction_id": res.TransactionID,
		"price":          res.Price.StringFixed(2),
	})
}

type blockRequest struct {
	BidderID uint64 `json:"bidder_id"`
}

// BlockBidder handles POST /v1/listings/:id/blocks with {"bidder_id": 11}.
// Only the listing's seller succeeds; the engine checks ownership.
func (h *AuctionHandler) BlockBidder(c echo.Context) error {
	sellerID, ok := getUserID(c)
	if !ok {
		return unauthorized(c)
	}
	listingID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	var body blockRequest
	if err := c.Bind(&body); err != nil || body.BidderID == 0 {
		return badRequest(c, "bidder_id is required")
	}
	res, err := h.Engine.BlockBidder(c.Request().Context(), listingID, sellerID, body.BidderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"rejected_bids": res.RejectedBids,
		"winner_id":     res.WinnerID,
		"current_price": res.CurrentPrice,
		"bid_count":     res.BidCount,
		"promoted":      res.Promoted,
	})
}
