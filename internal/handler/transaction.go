package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// TransactionHandler drives the post-sale flow.  Party checks are left to
// the engine, which knows the buyer and seller of each transaction.
type TransactionHandler struct {
	Engine Engine
}

func NewTransactionHandler(engine Engine) *TransactionHandler {
	if engine == nil {
		panic("nil engine passed to NewTransactionHandler")
	}
	return &TransactionHandler{Engine: engine}
}

// txCaller resolves the caller and the :id parameter shared by every route.
func txCaller(c echo.Context) (userID, txID uint64, resp error, ok bool) {
	userID, ok = getUserID(c)
	if !ok {
		return 0, 0, unauthorized(c), false
	}
	txID, ok = pathID(c, "id")
	if !ok {
		return 0, 0, badRequest(c, "invalid transaction id"), false
	}
	return userID, txID, nil, true
}

func txResponse(c echo.Context, id uint64, status string) error {
	return c.JSON(http.StatusOK, echo.Map{"transaction_id": id, "status": status})
}

type paymentRequest struct {
	DeliveryAddress string `json:"delivery_address"`
	PaymentProofRef string `json:"payment_proof_ref"`
}

// SubmitPayment handles POST /v1/transactions/:id/payment (buyer).
func (h *TransactionHandler) SubmitPayment(c echo.Context) error {
	userID, txID, resp, ok := txCaller(c)
	if !ok {
		return resp
	}
	var body paymentRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	res, err := h.Engine.SubmitPayment(c.Request().Context(), txID, userID, body.DeliveryAddress, body.PaymentProofRef)
	if err != nil {
		return writeError(c, err)
	}
	return txResponse(c, res.TransactionID, string(res.Status))
}

type shippingRequest struct {
	ShippingProofRef string `json:"shipping_proof_ref"`
}

// ConfirmShipping handles POST /v1/transactions/:id/shipping (seller).
func (h *TransactionHandler) ConfirmShipping(c echo.Context) error {
	userID, txID, resp, ok := txCaller(c)
	if !ok {
		return resp
	}
	var body shippingRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	res, err := h.Engine.ConfirmShipping(c.Request().Context(), txID, userID, body.ShippingProofRef)
	if err != nil {
		return writeError(c, err)
	}
	return txResponse(c, res.TransactionID, string(res.Status))
}

// ConfirmReceipt handles POST /v1/transactions/:id/receipt (buyer).
func (h *TransactionHandler) ConfirmReceipt(c echo.Context) error {
	userID, txID, resp, ok := txCaller(c)
	if !ok {
		return resp
	}
	res, err := h.Engine.ConfirmReceipt(c.Request().Context(), txID, userID)
	if err != nil {
		return writeError(c, err)
	}
	return txResponse(c, res.TransactionID, string(res.Status))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /v1/transactions/:id/cancel (seller).  The body is
// optional.
func (h *TransactionHandler) Cancel(c echo.Context) error {
	userID, txID, resp, ok := txCaller(c)
	if !ok {
		return resp
	}
	var body cancelRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	res, err := h.Engine.CancelTransaction(c.Request().Context(), txID, userID, body.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"transaction_id":  res.TransactionID,
		"status":          string(res.Status),
		"rating_recorded": res.RatingRecorded,
	})
}

type ratingRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// SubmitRating handles POST /v1/transactions/:id/ratings with
// {"score": 1, "comment": "..."}.
func (h *TransactionHandler) SubmitRating(c echo.Context) error {
	userID, txID, resp, ok := txCaller(c)
	if !ok {
		return resp
	}
	var body ratingRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	res, err := h.Engine.SubmitRating(c.Request().Context(), txID, userID, body.Score, body.Comment)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"rating_id": res.RatingID,
		"aggregate": res.Aggregate,
	})
}
