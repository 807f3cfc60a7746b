package faketrader

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/zamyatin-zkex/cancelwatch/internal/entity"
)

type OrderStore interface {
	Store(ctx context.Context, order entity.Order) error
	StoreEnd(ctx context.Context) error
}

// Trader publishes random orders for a fixed set of companies.
type Trader struct {
	companies  []string
	repo       OrderStore
	limiter    *rate.Limiter
	cancelRate float64
	count      int
	rnd        *rand.Rand
	now        func() time.Time
}

func NewTrader(repo OrderStore, perSecond float64, companies ...string) *Trader {
	return &Trader{
		repo:       repo,
		companies:  companies,
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
		cancelRate: 0.25,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
	}
}

// CancelRate is the probability that a generated order is a cancel.
func (t *Trader) CancelRate(p float64) *Trader {
	t.cancelRate = p
	return t
}

// Stop ends the stream with an end marker after n orders. Zero means never.
func (t *Trader) Stop(n int) *Trader {
	t.count = n
	return t
}

func (t *Trader) Run(ctx context.Context) error {
	if len(t.companies) == 0 {
		return fmt.Errorf("faketrader: no companies")
	}

	for sent := 0; t.count == 0 || sent < t.count; sent++ {
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}

		if err := t.repo.Store(ctx, t.next()); err != nil {
			return err
		}
	}

	if err := t.repo.StoreEnd(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return ctx.Err()
}

func (t *Trader) next() entity.Order {
	kind := entity.KindNew
	if t.rnd.Float64() < t.cancelRate {
		kind = entity.KindCancel
	}

	return entity.Order{
		Time:     t.now(),
		Company:  t.companies[t.rnd.Intn(len(t.companies))],
		Kind:     kind,
		Quantity: int64(t.rnd.Intn(200) + 1),
	}
}
