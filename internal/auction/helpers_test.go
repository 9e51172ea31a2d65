package auction

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/auction-marketplace/internal/model"
	"github.com/iliyamo/auction-marketplace/internal/notify"
	"github.com/iliyamo/auction-marketplace/internal/repository/memstore"
)

const (
	sellerID uint64 = 1
	bidderA  uint64 = 10
	bidderB  uint64 = 11
	bidderC  uint64 = 12
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(at time.Time) *fakeClock { return &fakeClock{now: at} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at
}

// recorder collects notifications for assertions.
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Notify(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) kinds() []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Kind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (r *recorder) byKind(k notify.Kind) []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Event
	for _, ev := range r.events {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	store    *memstore.Store
	settings *memstore.Settings
	clock    *fakeClock
	notes    *recorder
	engine   *Engine
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store:    memstore.New(),
		settings: memstore.NewSettings(nil),
		clock:    newFakeClock(t0),
		notes:    &recorder{},
	}
	opts = append([]Option{WithClock(f.clock), WithLogger(quietLogger())}, opts...)
	f.engine = NewEngine(f.store, f.settings, f.notes, opts...)
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

// listing seeds an ACTIVE listing owned by sellerID that accepts unrated
// bidders and ends in one hour, then applies mods.
func (f *fixture) listing(mods ...func(*model.Listing)) model.Listing {
	l := model.Listing{
		SellerID:            sellerID,
		CategoryID:          3,
		StartingPrice:       dec("100"),
		PriceStep:           dec("10"),
		StartsAt:            t0.Add(-time.Hour),
		EndsAt:              t0.Add(time.Hour),
		AllowUnratedBidders: true,
	}
	for _, m := range mods {
		m(&l)
	}
	return f.store.CreateListing(l)
}

func (f *fixture) get(t *testing.T, id uint64) model.Listing {
	t.Helper()
	l, ok := f.store.Listing(id)
	if !ok {
		t.Fatalf("listing %d missing", id)
	}
	return l
}
