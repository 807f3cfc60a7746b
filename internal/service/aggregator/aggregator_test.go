package aggregator

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zamyatin-zkex/cancelwatch/internal/entity"
)

var t0 = time.Date(2015, 2, 28, 7, 58, 14, 0, time.UTC)

func order(offset time.Duration, company string, kind entity.Kind, qty int64) entity.Order {
	return entity.Order{Time: t0.Add(offset), Company: company, Kind: kind, Quantity: qty}
}

func TestAggregator_Compliant(t *testing.T) {
	agg := New(DefaultPolicy())

	assert.Equal(t, Opened, agg.Process(order(0, "A", entity.KindNew, 100)).Transition)
	step := agg.Process(order(time.Second, "A", entity.KindCancel, 40))
	assert.Equal(t, Accumulated, step.Transition)
	assert.Equal(t, Window{Start: t0, Total: 140, Cancelled: 40}, step.Window)

	res := agg.Finalize()
	assert.Empty(t, res.Excessive)
	assert.Equal(t, []string{"A"}, res.Companies)
	assert.Equal(t, 1, res.WellBehavedCount())
	assert.Equal(t, 1, agg.WellBehavedCount())
}

func TestAggregator_FlaggedOnFinalize(t *testing.T) {
	agg := New(DefaultPolicy())

	agg.Process(order(0, "B", entity.KindNew, 30))
	agg.Process(order(time.Second, "B", entity.KindCancel, 20))
	assert.False(t, agg.IsExcessive("B"))

	flagged := agg.Flush()
	require.Len(t, flagged, 1)
	assert.Equal(t, Step{Company: "B", Transition: Flagged, Window: Window{Start: t0, Total: 50, Cancelled: 20}}, flagged[0])

	assert.Equal(t, []string{"B"}, agg.ExcessiveCompanies())
	assert.Equal(t, 0, agg.WellBehavedCount())
}

func TestAggregator_FlaggedOnWindowClose(t *testing.T) {
	agg := New(DefaultPolicy())

	agg.Process(order(0, "B", entity.KindNew, 30))
	agg.Process(order(time.Second, "B", entity.KindCancel, 20))

	step := agg.Process(order(time.Minute, "B", entity.KindNew, 1000))
	assert.Equal(t, Flagged, step.Transition)
	assert.Equal(t, int64(50), step.Window.Total)
	assert.True(t, agg.IsExcessive("B"))

	// the flush must not evaluate anything twice
	assert.Empty(t, agg.Flush())
	assert.Equal(t, []string{"B"}, agg.ExcessiveCompanies())
}

func TestAggregator_ThresholdIsStrict(t *testing.T) {
	agg := New(DefaultPolicy())

	// exactly one third
	agg.Process(order(0, "third", entity.KindNew, 2))
	agg.Process(order(0, "third", entity.KindCancel, 1))

	// one half
	agg.Process(order(0, "half", entity.KindNew, 2))
	agg.Process(order(0, "half", entity.KindCancel, 2))

	res := agg.Finalize()
	assert.Equal(t, []string{"half"}, res.Excessive)
	assert.Equal(t, 1, res.WellBehavedCount())
}

func TestAggregator_WindowBoundary(t *testing.T) {
	agg := New(DefaultPolicy())

	agg.Process(order(0, "in", entity.KindNew, 10))
	step := agg.Process(order(59999*time.Millisecond, "in", entity.KindCancel, 10))
	assert.Equal(t, Accumulated, step.Transition)
	assert.Equal(t, Window{Start: t0, Total: 20, Cancelled: 10}, step.Window)

	agg.Process(order(0, "out", entity.KindNew, 10))
	step = agg.Process(order(60000*time.Millisecond, "out", entity.KindCancel, 10))
	assert.Equal(t, Rolled, step.Transition)
	assert.Equal(t, Window{Start: t0.Add(time.Minute), Total: 10, Cancelled: 10}, step.Window)

	res := agg.Finalize()
	// "out" second window is all cancels; "in" is exactly one half
	assert.Equal(t, []string{"in", "out"}, res.Excessive)
}

func TestAggregator_RollStartsFromCurrentOrder(t *testing.T) {
	agg := New(DefaultPolicy())

	agg.Process(order(0, "A", entity.KindNew, 90))
	agg.Process(order(10*time.Second, "A", entity.KindCancel, 30))
	// 30/120 closes compliant, the cancel below starts the new window
	step := agg.Process(order(70*time.Second, "A", entity.KindCancel, 5))
	assert.Equal(t, Rolled, step.Transition)
	agg.Process(order(80*time.Second, "A", entity.KindNew, 100))
	agg.Process(order(129*time.Second, "A", entity.KindNew, 1))

	w, ok := agg.Window("A")
	require.True(t, ok)
	assert.True(t, w.Open)
	assert.Equal(t, t0.Add(70*time.Second), w.Start)
	assert.Equal(t, int64(106), w.Total)
	assert.Equal(t, int64(5), w.Cancelled)

	assert.Empty(t, agg.Finalize().Excessive)
}

func TestAggregator_ExcessiveIsTerminal(t *testing.T) {
	agg := New(DefaultPolicy())

	agg.Process(order(0, "C", entity.KindCancel, 10))
	agg.Process(order(time.Minute, "C", entity.KindNew, 10))
	require.True(t, agg.IsExcessive("C"))

	before, _ := agg.Window("C")
	for i := 0; i < 5; i++ {
		step := agg.Process(order(time.Duration(i+2)*time.Minute, "C", entity.KindNew, 1000))
		assert.Equal(t, Ignored, step.Transition)
	}
	after, _ := agg.Window("C")
	assert.Equal(t, before, after)

	res := agg.Finalize()
	assert.Equal(t, []string{"C"}, res.Excessive)
	assert.Equal(t, []string{"C"}, res.Companies)
}

func TestAggregator_EmptyStream(t *testing.T) {
	agg := New(DefaultPolicy())

	res := agg.Finalize()
	assert.Empty(t, res.Excessive)
	assert.Empty(t, res.Companies)
	assert.Equal(t, 0, res.WellBehavedCount())
	assert.Equal(t, 0, agg.WellBehavedCount())
}

func TestAggregator_FinalizeIsIdempotent(t *testing.T) {
	agg := New(DefaultPolicy())

	agg.Process(order(0, "X", entity.KindNew, 10))
	agg.Process(order(0, "Y", entity.KindCancel, 10))

	first := agg.Finalize()
	second := agg.Finalize()
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"Y"}, second.Excessive)

	w, ok := agg.Window("X")
	require.True(t, ok)
	assert.False(t, w.Open)
}

func TestAggregator_OrderAfterFlushOpensFreshWindow(t *testing.T) {
	agg := New(DefaultPolicy())

	agg.Process(order(0, "X", entity.KindNew, 10))
	agg.Flush()

	step := agg.Process(order(time.Second, "X", entity.KindCancel, 1))
	assert.Equal(t, Opened, step.Transition)
	assert.Equal(t, Window{Start: t0.Add(time.Second), Total: 1, Cancelled: 1}, step.Window)
	assert.Equal(t, []string{"X"}, agg.Result().Companies)
}

func TestAggregator_ExcessiveSubsetOfCompanies(t *testing.T) {
	agg := New(DefaultPolicy())

	names := []string{"a", "b", "c", "d"}
	for i, name := range names {
		agg.Process(order(time.Duration(i)*time.Second, name, entity.KindNew, 10))
		agg.Process(order(time.Duration(i)*time.Second, name, entity.KindCancel, int64(i*3)))
	}

	res := agg.Finalize()
	assert.Subset(t, res.Companies, res.Excessive)
	assert.Equal(t, []string{"c", "d"}, res.Excessive)
	assert.Equal(t, 2, res.WellBehavedCount())
}

func TestAggregator_FlaggedOrderIsFirstFlagged(t *testing.T) {
	agg := New(DefaultPolicy())

	agg.Process(order(0, "late", entity.KindCancel, 10))
	agg.Process(order(0, "early", entity.KindCancel, 10))
	agg.Process(order(time.Minute, "early", entity.KindNew, 10))

	assert.Equal(t, []string{"early", "late"}, agg.Finalize().Excessive)
}

func TestAggregator_CustomPolicy(t *testing.T) {
	agg := New(Policy{Window: 10 * time.Second, Threshold: Ratio{Num: 1, Den: 2}})

	agg.Process(order(0, "A", entity.KindNew, 10))
	agg.Process(order(9*time.Second, "A", entity.KindCancel, 5))
	step := agg.Process(order(10*time.Second, "A", entity.KindCancel, 5))
	assert.Equal(t, Rolled, step.Transition)

	assert.Equal(t, []string{"A"}, agg.Finalize().Excessive)
}

func TestAggregator_SignedQuantities(t *testing.T) {
	cases := []struct {
		name      string
		orders    [][2]int64 // cancel flag, quantity
		excessive bool
	}{
		{name: "zero total, nothing cancelled", orders: [][2]int64{{0, 0}}},
		{name: "zero total, cancelled", orders: [][2]int64{{0, -5}, {1, 5}}, excessive: true},
		{name: "negative total, ratio 0", orders: [][2]int64{{0, -10}}},
		{name: "negative total, ratio 2/3", orders: [][2]int64{{0, -1}, {1, -2}}, excessive: true},
		{name: "negative total, ratio exactly 1/3", orders: [][2]int64{{0, -2}, {1, -1}}},
		{name: "negative total, negative ratio", orders: [][2]int64{{0, -10}, {1, 2}}},
		{name: "positive total, negative cancelled", orders: [][2]int64{{0, 10}, {1, -2}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			agg := New(DefaultPolicy())
			for i, o := range tc.orders {
				kind := entity.KindNew
				if o[0] == 1 {
					kind = entity.KindCancel
				}
				agg.Process(order(time.Duration(i)*time.Second, "A", kind, o[1]))
			}

			assert.Equal(t, tc.excessive, len(agg.Finalize().Excessive) == 1)
			assert.Equal(t, tc.excessive, agg.IsExcessive("A"))
		})
	}
}

func TestAggregator_SignedQuantitiesOnWindowClose(t *testing.T) {
	agg := New(DefaultPolicy())

	agg.Process(order(0, "neg", entity.KindNew, -10))
	agg.Process(order(0, "negboth", entity.KindNew, -1))
	agg.Process(order(time.Second, "negboth", entity.KindCancel, -2))

	assert.Equal(t, Rolled, agg.Process(order(time.Minute, "neg", entity.KindNew, 1)).Transition)
	assert.Equal(t, Flagged, agg.Process(order(time.Minute, "negboth", entity.KindNew, 1)).Transition)

	assert.Equal(t, []string{"negboth"}, agg.Finalize().Excessive)
}

func TestRatio_ExceededByLargeWindows(t *testing.T) {
	third := DefaultPolicy().Threshold

	assert.True(t, third.ExceededBy(Window{Total: math.MaxInt64, Cancelled: math.MaxInt64 / 2}))
	assert.False(t, third.ExceededBy(Window{Total: math.MaxInt64, Cancelled: math.MaxInt64 / 4}))
	assert.True(t, third.ExceededBy(Window{Total: math.MinInt64, Cancelled: math.MinInt64 / 2}))
	assert.False(t, third.ExceededBy(Window{Total: math.MinInt64, Cancelled: math.MaxInt64}))
}

func TestWindow_Ratio(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(Window{}.Ratio()))
	assert.True(t, decimal.NewFromFloat(0.5).Equal(Window{Total: 4, Cancelled: 2}.Ratio()))
	assert.Equal(t, "0.3333", DefaultPolicy().Threshold.Decimal().StringFixed(4))
}
