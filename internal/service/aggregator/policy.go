package aggregator

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultWindow = 60 * time.Second

// Ratio is an exact fraction Num/Den used as the cancellation threshold.
type Ratio struct {
	Num int64
	Den int64
}

// ExceededBy reports cancelled/total > r. Products are taken in decimal
// so they cannot overflow. A zero total is +Inf when anything was
// cancelled and undefined otherwise. Den is expected to be positive.
func (r Ratio) ExceededBy(w Window) bool {
	switch {
	case w.Total == 0:
		return w.Cancelled > 0
	case w.Total > 0:
		return r.cross(w) > 0
	default:
		// dividing by a negative total flips the inequality
		return r.cross(w) < 0
	}
}

// cross compares cancelled*den with total*num.
func (r Ratio) cross(w Window) int {
	cancelled := decimal.NewFromInt(w.Cancelled).Mul(decimal.NewFromInt(r.Den))
	total := decimal.NewFromInt(w.Total).Mul(decimal.NewFromInt(r.Num))
	return cancelled.Cmp(total)
}

func (r Ratio) Decimal() decimal.Decimal {
	if r.Den == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(r.Num).Div(decimal.NewFromInt(r.Den))
}

type Policy struct {
	Window    time.Duration
	Threshold Ratio
}

func DefaultPolicy() Policy {
	return Policy{
		Window:    DefaultWindow,
		Threshold: Ratio{Num: 1, Den: 3},
	}
}
