package consumer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/zamyatin-zkex/cancelwatch/internal/entity"
	"github.com/zamyatin-zkex/cancelwatch/internal/event"
	"github.com/zamyatin-zkex/cancelwatch/internal/parser"
	"github.com/zamyatin-zkex/cancelwatch/internal/repository"
	"github.com/zamyatin-zkex/cancelwatch/pkg/ebus"
)

var _ sarama.ConsumerGroupHandler = Handler{}

type Handler struct {
	commits chan int64
	topic   string
	eBus    *ebus.EBus
	log     *slog.Logger
}

func newHandler(topic string, eBus *ebus.EBus, log *slog.Logger) Handler {
	return Handler{
		// a commit is requested from inside handle, so it must not block on ConsumeClaim
		commits: make(chan int64, 1),
		topic:   topic,
		eBus:    eBus,
		log:     log,
	}
}

func (h Handler) Setup(session sarama.ConsumerGroupSession) error {
	return nil
}

func (h Handler) Cleanup(session sarama.ConsumerGroupSession) error {
	return nil
}

func (h Handler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			if err := h.handle(session.Context(), msg); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return fmt.Errorf("claim handle: %w", err)
			}

		case <-session.Context().Done():
			return nil

		case offset := <-h.commits:
			session.MarkOffset(h.topic, 0, offset+1, "")
		}

		// drain a commit requested while handling the message
		select {
		case offset := <-h.commits:
			session.MarkOffset(h.topic, 0, offset+1, "")
		default:
		}
	}
}

func (h Handler) commit(ctx context.Context, offset int64) error {
	select {
	case h.commits <- offset:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h Handler) topics() []string {
	return []string{h.topic}
}

func (h Handler) handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	if repository.IsEndOfStream(message.Headers) {
		h.log.Info("end of order stream", "offset", message.Offset)
		return h.eBus.Emit(ctx, event.StreamFinished{Offset: message.Offset})
	}

	order, err := decode(message.Value)
	if err != nil {
		return h.eBus.Notify(ctx, event.OrderRejected{Offset: message.Offset, Reason: err.Error()})
	}

	return h.eBus.Emit(ctx, event.OrderReceived{
		Order:  order,
		Offset: message.Offset,
	})
}

// decode reads the single CSV record carried by a message.
func decode(value []byte) (entity.Order, error) {
	records := csv.NewReader(bytes.NewReader(value))
	records.FieldsPerRecord = -1
	records.LazyQuotes = true

	fields, err := records.Read()
	if err != nil {
		return entity.Order{}, fmt.Errorf("%w: %v", parser.ErrMalformedRecord, err)
	}

	return parser.Parse(fields)
}
