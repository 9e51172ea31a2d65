// Package auction is the bid-placement and settlement engine.  Every write
// follows the same discipline: open a ledger transaction, lock the primary
// row, re-validate against the locked state, write, commit, and only then
// dispatch notifications in the background.
package auction

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/auction-marketplace/internal/ledger"
	"github.com/iliyamo/auction-marketplace/internal/notify"
)

// Notifier delivers events to the notification gateway.  Returned errors
// are logged by the engine and otherwise ignored.
type Notifier interface {
	Notify(ctx context.Context, ev notify.Event) error
}

const (
	defaultNotifyTimeout   = 10 * time.Second
	defaultMaxAttempts     = 5
	defaultSweepBatchLimit = 500
)

// Engine exposes the core operations.  It holds no per-listing state;
// correctness rests entirely on the ledger's row locks, so several engine
// instances may share one store.
type Engine struct {
	store    ledger.Store
	settings Settings
	notifier Notifier
	clock    Clock
	log      *logrus.Entry

	notifyTimeout time.Duration
	maxAttempts   int
	batchLimit    int

	pending sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option { return func(e *Engine) { e.clock = c } }

// WithLogger sets the base log entry.
func WithLogger(l *logrus.Entry) Option { return func(e *Engine) { e.log = l } }

// WithMaxSettlementAttempts sets how many failed settlements park a listing.
func WithMaxSettlementAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithSweepBatchLimit caps how many rows one sweep pass picks up.
func WithSweepBatchLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchLimit = n
		}
	}
}

// NewEngine wires an engine.  store is required; settings and notifier may
// be nil, in which case defaults apply and events are dropped.
func NewEngine(store ledger.Store, settings Settings, notifier Notifier, opts ...Option) *Engine {
	if store == nil {
		panic("nil ledger store passed to NewEngine")
	}
	e := &Engine{
		store:         store,
		settings:      settings,
		notifier:      notifier,
		clock:         SystemClock{},
		log:           logrus.WithField("component", "auction"),
		notifyTimeout: defaultNotifyTimeout,
		maxAttempts:   defaultMaxAttempts,
		batchLimit:    defaultSweepBatchLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) now() time.Time { return e.clock.Now().UTC() }

// inTx runs fn inside a ledger transaction.  fn's error rolls the
// transaction back; a nil return commits.  Ledger errors are wrapped as
// infrastructure failures, business errors pass through.
func (e *Engine) inTx(ctx context.Context, op string, fn func(tx ledger.Tx) error) error {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return internal(op+": begin", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return internal(op, err)
	}
	if err := tx.Commit(); err != nil {
		return internal(op+": commit", err)
	}
	committed = true
	return nil
}

// notFound maps ledger.ErrNotFound to the given business error.
func notFound(err error, as *Error) error {
	if errors.Is(err, ledger.ErrNotFound) {
		return as
	}
	return err
}

// dispatch sends events in the background after a commit.  It never
// blocks the caller and uses its own context so a finished request does
// not cancel delivery.
func (e *Engine) dispatch(events ...notify.Event) {
	if e.notifier == nil || len(events) == 0 {
		return
	}
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.notifyTimeout)
		defer cancel()
		for _, ev := range events {
			if err := e.notifier.Notify(ctx, ev); err != nil {
				e.log.WithError(err).WithFields(logrus.Fields{
					"event_id": ev.ID,
					"kind":     ev.Kind,
				}).Warn("notification failed")
			}
		}
	}()
}

// Wait blocks until every dispatched notification has been attempted.
// Call it on shutdown.
func (e *Engine) Wait() { e.pending.Wait() }
