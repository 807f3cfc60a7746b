package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zamyatin-zkex/cancelwatch/pkg/ebus"
)

type watch struct {
	frame  time.Duration
	getter func(ctx context.Context) (any, error)
}

// Watcher periodically emits values produced by its getters onto the bus.
type Watcher struct {
	eBus *ebus.EBus
	subs []watch
	mx   sync.Mutex
}

func NewWatcher(eBus *ebus.EBus) *Watcher {
	return &Watcher{
		eBus: eBus,
	}
}

func (w *Watcher) EmitEvery(frame time.Duration, getter func(ctx context.Context) (any, error)) *Watcher {
	w.mx.Lock()
	defer w.mx.Unlock()

	w.subs = append(w.subs, watch{frame: frame, getter: getter})
	return w
}

func (w *Watcher) Run(ctx context.Context) error {
	w.mx.Lock()
	subs := append([]watch(nil), w.subs...)
	w.mx.Unlock()

	group, ctx := errgroup.WithContext(ctx)

	for _, sub := range subs {
		sub := sub
		group.Go(func() error {
			ticker := time.NewTicker(sub.frame)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					ins, err := sub.getter(ctx)
					if err != nil {
						return fmt.Errorf("watcher: %w", err)
					}
					if err := w.eBus.Notify(ctx, ins); err != nil {
						return fmt.Errorf("watcher: %w", err)
					}
				}
			}
		})
	}

	group.Go(func() error {
		<-ctx.Done()
		return ctx.Err()
	})

	return group.Wait()
}

// LogAny returns a listener that logs any event with its type name.
func LogAny(log *slog.Logger) ebus.Listener {
	return func(ctx context.Context, event any) error {
		log.InfoContext(ctx, "event", "type", reflect.TypeOf(event).Name(), "payload", event)
		return nil
	}
}
