package watcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zamyatin-zkex/cancelwatch/pkg/ebus"
)

type tick struct{ N int }

func TestWatcher_EmitEvery(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan tick, 16)
	bus := ebus.New().Subscribe(tick{}, ebus.Typed(func(ctx context.Context, v tick) error {
		select {
		case got <- v:
		default:
		}
		return nil
	}))

	n := 0
	w := NewWatcher(bus).EmitEvery(time.Millisecond, func(ctx context.Context) (any, error) {
		n++
		return tick{N: n}, nil
	})

	errs := make(chan error, 1)
	go func() { errs <- w.Run(ctx) }()

	assert.Equal(t, tick{N: 1}, <-got)
	assert.Equal(t, tick{N: 2}, <-got)
	cancel()
	assert.ErrorIs(t, <-errs, context.Canceled)
}

func TestWatcher_GetterError(t *testing.T) {
	boom := errors.New("boom")

	err := NewWatcher(ebus.New()).
		EmitEvery(time.Millisecond, func(ctx context.Context) (any, error) { return nil, boom }).
		Run(context.Background())

	assert.ErrorIs(t, err, boom)
}
