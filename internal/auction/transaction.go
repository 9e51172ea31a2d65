package auction

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/auction-marketplace/internal/ledger"
	"github.com/iliyamo/auction-marketplace/internal/model"
	"github.com/iliyamo/auction-marketplace/internal/notify"
)

// Reasons recorded on non-payment cancellations.
const (
	nonPaymentRatingComment = "Buyer did not pay within the time limit."
	sellerCancelNote        = "cancelled by seller"
	timeoutCancelNote       = "cancelled for non-payment"
)

// TransactionResult is the state of a transaction after an action.
type TransactionResult struct {
	TransactionID uint64
	Status        model.TransactionStatus
}

// CancelResult reports a cancellation and whether the buyer received the
// non-payment rating.
type CancelResult struct {
	TransactionID  uint64
	Status         model.TransactionStatus
	RatingRecorded bool
}

// RatingResult carries the stored rating and the target's new aggregate.
type RatingResult struct {
	RatingID  uint64
	Aggregate model.RatingAggregate
}

// txAction is one lock, check and write round on a transaction row.
// apply mutates t in place; the caller persists it.
type txAction struct {
	op     string
	from   []model.TransactionStatus
	actor  func(t model.Transaction) error
	apply  func(ctx context.Context, tx ledger.Tx, t *model.Transaction) error
	verb   string
	result func(t model.Transaction) []notify.Event
}

func (e *Engine) advance(ctx context.Context, txID uint64, a txAction) (model.Transaction, error) {
	var out model.Transaction
	err := e.inTx(ctx, a.op, func(tx ledger.Tx) error {
		t, err := tx.LockTransaction(ctx, txID)
		if err != nil {
			return notFound(err, ErrTransactionNotFound)
		}
		if err := a.actor(t); err != nil {
			return err
		}
		if !statusIn(t.Status, a.from) {
			return invalidTransition(a.verb, t.Status)
		}
		if err := a.apply(ctx, tx, &t); err != nil {
			return err
		}
		t.UpdatedAt = e.now()
		if err := tx.UpdateTransaction(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return model.Transaction{}, err
	}
	e.log.WithFields(logrus.Fields{
		"transaction_id": out.ID,
		"status":         out.Status,
	}).Info(a.op)
	if a.result != nil {
		e.dispatch(a.result(out)...)
	}
	return out, nil
}

func statusIn(s model.TransactionStatus, set []model.TransactionStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func isBuyer(t model.Transaction, userID uint64) error {
	if t.BuyerID != userID {
		return ErrNotBuyer
	}
	return nil
}

func isSeller(t model.Transaction, userID uint64) error {
	if t.SellerID != userID {
		return ErrNotSeller
	}
	return nil
}

func txEvent(kind notify.Kind, t model.Transaction, actorID uint64, recipients ...uint64) notify.Event {
	ev := notify.NewEvent(kind, t.UpdatedAt, recipients...)
	ev.ListingID = t.ListingID
	ev.TransactionID = t.ID
	ev.ActorID = actorID
	return ev
}

// SubmitPayment records the buyer's delivery address and proof of payment.
func (e *Engine) SubmitPayment(ctx context.Context, txID, buyerID uint64, address, proofRef string) (TransactionResult, error) {
	address = strings.TrimSpace(address)
	proofRef = strings.TrimSpace(proofRef)
	if txID == 0 || buyerID == 0 || address == "" || proofRef == "" {
		return TransactionResult{}, ErrMissingField
	}
	t, err := e.advance(ctx, txID, txAction{
		op:    "submit payment",
		verb:  "pay for",
		from:  []model.TransactionStatus{model.TxPending},
		actor: func(t model.Transaction) error { return isBuyer(t, buyerID) },
		apply: func(_ context.Context, _ ledger.Tx, t *model.Transaction) error {
			t.DeliveryAddress = &address
			t.PaymentProofRef = &proofRef
			t.Status = model.TxPaid
			return nil
		},
		result: func(t model.Transaction) []notify.Event {
			return []notify.Event{txEvent(notify.PaymentSubmitted, t, buyerID, t.SellerID).WithPrice(t.Price)}
		},
	})
	if err != nil {
		return TransactionResult{}, err
	}
	return TransactionResult{TransactionID: t.ID, Status: t.Status}, nil
}

// ConfirmShipping records the seller's proof of shipment.
func (e *Engine) ConfirmShipping(ctx context.Context, txID, sellerID uint64, proofRef string) (TransactionResult, error) {
	proofRef = strings.TrimSpace(proofRef)
	if txID == 0 || sellerID == 0 || proofRef == "" {
		return TransactionResult{}, ErrMissingField
	}
	t, err := e.advance(ctx, txID, txAction{
		op:    "confirm shipping",
		verb:  "ship",
		from:  []model.TransactionStatus{model.TxPaid},
		actor: func(t model.Transaction) error { return isSeller(t, sellerID) },
		apply: func(_ context.Context, _ ledger.Tx, t *model.Transaction) error {
			t.ShippingProofRef = &proofRef
			t.Status = model.TxShipped
			return nil
		},
		result: func(t model.Transaction) []notify.Event {
			return []notify.Event{txEvent(notify.ShippingConfirmed, t, sellerID, t.BuyerID)}
		},
	})
	if err != nil {
		return TransactionResult{}, err
	}
	return TransactionResult{TransactionID: t.ID, Status: t.Status}, nil
}

// ConfirmReceipt completes the transaction.
func (e *Engine) ConfirmReceipt(ctx context.Context, txID, buyerID uint64) (TransactionResult, error) {
	if txID == 0 || buyerID == 0 {
		return TransactionResult{}, ErrMissingField
	}
	t, err := e.advance(ctx, txID, txAction{
		op:    "confirm receipt",
		verb:  "confirm receipt of",
		from:  []model.TransactionStatus{model.TxShipped},
		actor: func(t model.Transaction) error { return isBuyer(t, buyerID) },
		apply: func(_ context.Context, _ ledger.Tx, t *model.Transaction) error {
			t.Status = model.TxCompleted
			return nil
		},
		result: func(t model.Transaction) []notify.Event {
			return []notify.Event{txEvent(notify.TransactionCompleted, t, buyerID, t.SellerID, t.BuyerID)}
		},
	})
	if err != nil {
		return TransactionResult{}, err
	}
	return TransactionResult{TransactionID: t.ID, Status: t.Status}, nil
}

// CancelTransaction lets the seller call off a PENDING or PAID transaction.
// Cancelling while still PENDING is treated as the buyer defaulting and
// records a negative rating against them, unless the seller has already
// rated this transaction.
func (e *Engine) CancelTransaction(ctx context.Context, txID, sellerID uint64, reason string) (CancelResult, error) {
	if txID == 0 || sellerID == 0 {
		return CancelResult{}, ErrMissingField
	}
	reason = strings.TrimSpace(reason)
	note := sellerCancelNote
	if reason != "" {
		note = sellerCancelNote + ": " + reason
	}
	var res CancelResult
	t, err := e.advance(ctx, txID, txAction{
		op:    "cancel transaction",
		verb:  "cancel",
		from:  []model.TransactionStatus{model.TxPending, model.TxPaid},
		actor: func(t model.Transaction) error { return isSeller(t, sellerID) },
		apply: func(ctx context.Context, tx ledger.Tx, t *model.Transaction) error {
			if t.Status == model.TxPending {
				rated, err := e.rateNonPayment(ctx, tx, t)
				if err != nil {
					return err
				}
				res.RatingRecorded = rated
			}
			t.Status = model.TxCancelled
			return nil
		},
		result: func(t model.Transaction) []notify.Event {
			ev := txEvent(notify.TransactionCancelled, t, sellerID, t.BuyerID, t.SellerID)
			ev.Note = note
			return []notify.Event{ev}
		},
	})
	if err != nil {
		return CancelResult{}, err
	}
	res.TransactionID = t.ID
	res.Status = t.Status
	return res, nil
}

// CancelByNonPayment cancels a PENDING transaction whose payment deadline
// has passed and rates the buyer -1 on the seller's behalf.  It returns
// ErrNotOverdue while the deadline is still ahead.
func (e *Engine) CancelByNonPayment(ctx context.Context, txID uint64) (CancelResult, error) {
	if txID == 0 {
		return CancelResult{}, ErrMissingField
	}
	var res CancelResult
	t, err := e.advance(ctx, txID, txAction{
		op:    "cancel for non-payment",
		verb:  "cancel",
		from:  []model.TransactionStatus{model.TxPending},
		actor: func(model.Transaction) error { return nil },
		apply: func(ctx context.Context, tx ledger.Tx, t *model.Transaction) error {
			if e.now().Before(t.PaymentDueAt) {
				return ErrNotOverdue
			}
			rated, err := e.rateNonPayment(ctx, tx, t)
			if err != nil {
				return err
			}
			res.RatingRecorded = rated
			t.Status = model.TxCancelled
			return nil
		},
		result: func(t model.Transaction) []notify.Event {
			ev := txEvent(notify.TransactionCancelled, t, 0, t.BuyerID, t.SellerID)
			ev.Note = timeoutCancelNote
			return []notify.Event{ev}
		},
	})
	if err != nil {
		return CancelResult{}, err
	}
	res.TransactionID = t.ID
	res.Status = t.Status
	return res, nil
}

// rateNonPayment writes the seller's -1 against the buyer and refreshes the
// buyer's bidder aggregate.  It reports false if the seller already rated.
func (e *Engine) rateNonPayment(ctx context.Context, tx ledger.Tx, t *model.Transaction) (bool, error) {
	if t.SellerRating != nil {
		return false, nil
	}
	r := &model.Rating{
		TransactionID: t.ID,
		FromUserID:    t.SellerID,
		ToUserID:      t.BuyerID,
		Role:          model.RoleBidder,
		Score:         -1,
		Content:       nonPaymentRatingComment,
		CreatedAt:     e.now(),
	}
	if err := tx.InsertRating(ctx, r); err != nil {
		if errors.Is(err, ledger.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	if _, err := tx.RecomputeRatings(ctx, t.BuyerID, model.RoleBidder); err != nil {
		return false, err
	}
	score, comment := r.Score, r.Content
	t.SellerRating = &score
	t.SellerComment = &comment
	return true, nil
}

// SubmitRating records one party's feedback about the other.  Each party
// rates once per transaction, in any status.  The buyer rates the seller in
// the SELLER role; the seller rates the buyer in the BIDDER role.
func (e *Engine) SubmitRating(ctx context.Context, txID, raterID uint64, score int, comment string) (RatingResult, error) {
	if txID == 0 || raterID == 0 {
		return RatingResult{}, ErrMissingField
	}
	if score != 1 && score != -1 {
		return RatingResult{}, ErrInvalidScore
	}
	comment = strings.TrimSpace(comment)

	var (
		res    RatingResult
		rating model.Rating
		trans  model.Transaction
	)
	err := e.inTx(ctx, "submit rating", func(tx ledger.Tx) error {
		t, err := tx.LockTransaction(ctx, txID)
		if err != nil {
			return notFound(err, ErrTransactionNotFound)
		}
		if !t.IsParty(raterID) {
			return ErrNotParty
		}

		r := model.Rating{
			TransactionID: t.ID,
			FromUserID:    raterID,
			Score:         score,
			Content:       comment,
			CreatedAt:     e.now(),
		}
		byBuyer := raterID == t.BuyerID
		if byBuyer {
			if t.BuyerRating != nil {
				return ErrAlreadyRated
			}
			r.ToUserID, r.Role = t.SellerID, model.RoleSeller
		} else {
			if t.SellerRating != nil {
				return ErrAlreadyRated
			}
			r.ToUserID, r.Role = t.BuyerID, model.RoleBidder
		}

		if err := tx.InsertRating(ctx, &r); err != nil {
			if errors.Is(err, ledger.ErrDuplicate) {
				return ErrAlreadyRated
			}
			return err
		}
		agg, err := tx.RecomputeRatings(ctx, r.ToUserID, r.Role)
		if err != nil {
			return err
		}

		if byBuyer {
			t.BuyerRating, t.BuyerComment = &score, &comment
		} else {
			t.SellerRating, t.SellerComment = &score, &comment
		}
		t.UpdatedAt = r.CreatedAt
		if err := tx.UpdateTransaction(ctx, t); err != nil {
			return err
		}

		rating, trans = r, t
		res = RatingResult{RatingID: r.ID, Aggregate: agg}
		return nil
	})
	if err != nil {
		return RatingResult{}, err
	}

	ev := txEvent(notify.RatingReceived, trans, raterID, rating.ToUserID)
	ev.Note = string(rating.Role)
	e.dispatch(ev)
	return res, nil
}

// SweepOverduePayments cancels every PENDING transaction past its payment
// deadline.  Rows that were paid or cancelled since selection are skipped.
func (e *Engine) SweepOverduePayments(ctx context.Context) (SweepReport, error) {
	var rep SweepReport
	ids, err := e.store.OverdueTransactionIDs(ctx, e.now(), e.batchLimit)
	if err != nil {
		return rep, internal("list overdue transactions", err)
	}
	rep.Candidates = len(ids)
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		_, err := e.CancelByNonPayment(ctx, id)
		switch {
		case err == nil:
			rep.Cancelled++
		case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotOverdue), errors.Is(err, ErrTransactionNotFound):
			rep.Skipped++
		default:
			rep.Failed++
			e.log.WithError(err).WithField("transaction_id", id).Error("non-payment cancellation failed")
		}
	}
	if !rep.Empty() {
		e.log.WithFields(logrus.Fields{
			"candidates": rep.Candidates,
			"cancelled":  rep.Cancelled,
			"skipped":    rep.Skipped,
			"failed":     rep.Failed,
		}).Info("payment timeout sweep finished")
	}
	return rep, nil
}
