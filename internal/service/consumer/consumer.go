package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/zamyatin-zkex/cancelwatch/internal/event"
	"github.com/zamyatin-zkex/cancelwatch/pkg/ebus"
)

type Consumer struct {
	consumerGroup sarama.ConsumerGroup
	handler       Handler
	log           *slog.Logger
}

func NewConsumer(client sarama.Client, topic string, group string, eBus *ebus.EBus, log *slog.Logger) (*Consumer, error) {
	cons, err := sarama.NewConsumerGroupFromClient(group, client)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	return &Consumer{
		consumerGroup: cons,
		handler:       newHandler(topic, eBus, log),
		log:           log,
	}, nil
}

func (c *Consumer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() { _ = c.consumerGroup.Close() }()

	errs := make(chan error, 1)

	go func() {
		for {
			if err := c.consumerGroup.Consume(ctx, c.handler.topics(), c.handler); err != nil {
				errs <- err
				return
			}

			if ctx.Err() != nil {
				errs <- ctx.Err()
				return
			}
			c.log.Info("consumer group rebalanced", "topic", c.handler.topic)
		}
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("consumer error: %w", err)
	case err := <-c.consumerGroup.Errors():
		return fmt.Errorf("consumerGroup error: %w", err)
	case <-ctx.Done():
		return fmt.Errorf("consumer: %w", ctx.Err())
	}
}

// Commit marks the stream consumed up to the run's end marker.
func (c *Consumer) Commit(ctx context.Context, published event.ResultPublished) error {
	return c.handler.commit(ctx, published.Result.Offset)
}
