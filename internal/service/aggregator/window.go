package aggregator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zamyatin-zkex/cancelwatch/internal/entity"
)

type Window struct {
	Start     time.Time
	Total     int64
	Cancelled int64
}

func newWindow(order entity.Order) Window {
	return Window{
		Start:     order.Time,
		Total:     order.Quantity,
		Cancelled: order.Cancelled(),
	}
}

func (w Window) add(order entity.Order) Window {
	w.Total += order.Quantity
	w.Cancelled += order.Cancelled()
	return w
}

// covers is the half-open range [Start, Start+length).
func (w Window) covers(ts time.Time, length time.Duration) bool {
	return ts.Sub(w.Start) < length
}

func (w Window) Ratio() decimal.Decimal {
	if w.Total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(w.Cancelled).Div(decimal.NewFromInt(w.Total))
}

func (w Window) snapshot(open bool) entity.Window {
	return entity.Window{
		Start:     w.Start,
		Total:     w.Total,
		Cancelled: w.Cancelled,
		Ratio:     w.Ratio(),
		Open:      open,
	}
}
