// Package reader streams order records from a CSV file onto the bus.
package reader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/zamyatin-zkex/cancelwatch/internal/event"
	"github.com/zamyatin-zkex/cancelwatch/internal/parser"
	"github.com/zamyatin-zkex/cancelwatch/pkg/ebus"
	"github.com/zamyatin-zkex/cancelwatch/pkg/utils"
)

type Reader struct {
	path   string
	linger bool
	eBus   *ebus.EBus
	log    *slog.Logger
}

func NewReader(path string, eBus *ebus.EBus, log *slog.Logger) *Reader {
	return &Reader{
		path: path,
		eBus: eBus,
		log:  log,
	}
}

// Linger keeps Run blocked after the file is done, until ctx is cancelled.
func (r *Reader) Linger(linger bool) *Reader {
	r.linger = linger
	return r
}

func (r *Reader) Run(ctx context.Context) error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("open orders: %w", err)
	}
	defer utils.Close(r.log, r.path, f.Close)

	r.log.Info("reading orders", "path", r.path)

	if err := r.Stream(ctx, f); err != nil {
		return fmt.Errorf("stream %s: %w", r.path, err)
	}

	if !r.linger {
		return nil
	}

	<-ctx.Done()
	return ctx.Err()
}

// Stream emits one event per record and StreamFinished at EOF.
// Records that fail validation are emitted as OrderRejected and skipped.
func (r *Reader) Stream(ctx context.Context, src io.Reader) error {
	records := csv.NewReader(src)
	records.FieldsPerRecord = -1
	records.LazyQuotes = true
	records.ReuseRecord = true

	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fields, err := records.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		offset++

		var parseErr *csv.ParseError
		switch {
		case errors.As(err, &parseErr):
			if err := r.reject(ctx, offset, err); err != nil {
				return err
			}
			continue
		case err != nil:
			return fmt.Errorf("read record %d: %w", offset, err)
		}

		order, err := parser.Parse(fields)
		if err != nil {
			if err := r.reject(ctx, offset, err); err != nil {
				return err
			}
			continue
		}

		err = r.eBus.Emit(ctx, event.OrderReceived{Order: order, Offset: offset})
		if err != nil {
			return fmt.Errorf("emit order %d: %w", offset, err)
		}
	}

	return r.eBus.Emit(ctx, event.StreamFinished{Offset: offset})
}

func (r *Reader) reject(ctx context.Context, offset int64, reason error) error {
	err := r.eBus.Notify(ctx, event.OrderRejected{Offset: offset, Reason: reason.Error()})
	if err != nil {
		return fmt.Errorf("emit rejection %d: %w", offset, err)
	}
	return nil
}
