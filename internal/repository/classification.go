package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/zamyatin-zkex/cancelwatch/internal/entity"
)

// Classification publishes finished run results as JSON keyed by run id.
type Classification struct {
	producer sarama.SyncProducer
	topic    string
}

func NewClassification(producer sarama.SyncProducer, topic string) *Classification {
	return &Classification{producer: producer, topic: topic}
}

func (c *Classification) Store(ctx context.Context, result entity.Classification) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	_, _, err = c.producer.SendMessage(&sarama.ProducerMessage{
		Topic: c.topic,
		Key:   sarama.StringEncoder(result.RunID.String()),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("send result to kafka: %w", err)
	}

	return nil
}
