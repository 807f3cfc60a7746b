package app

import (
	"context"
	"log/slog"
)

type Service interface {
	Run(ctx context.Context) error
}

func actor(ctx context.Context, name string, service Service, log *slog.Logger) (func() error, func(err error)) {
	ctx, cancel := context.WithCancelCause(ctx)

	return func() error {
			err := service.Run(ctx)
			log.Debug("service stopped", "service", name, "error", err)
			return err
		}, func(err error) {
			cancel(err)
		}
}
