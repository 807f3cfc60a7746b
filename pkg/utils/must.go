package utils

import "log/slog"

func Must[T any](in T, err error) T {
	if err != nil {
		panic(err)
	}
	return in
}

// Close is for deferred cleanup where the error only deserves a log line.
func Close(log *slog.Logger, name string, fn func() error) {
	if err := fn(); err != nil {
		log.Warn("close failed", "resource", name, "error", err)
	}
}
