package repository

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/zamyatin-zkex/cancelwatch/internal/entity"
	"github.com/zamyatin-zkex/cancelwatch/internal/parser"
)

// EndOfStreamHeader marks the message that terminates an order stream.
const EndOfStreamHeader = "cancelwatch-eos"

// Order publishes orders as CSV lines, the same format the file source reads.
// Let's assume for simplicity that the topic has one partition.
type Order struct {
	producer sarama.SyncProducer
	topic    string
}

func NewOrder(producer sarama.SyncProducer, topic string) *Order {
	return &Order{producer: producer, topic: topic}
}

func (o Order) Store(ctx context.Context, order entity.Order) error {
	line, err := EncodeLine(parser.Format(order))
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}

	_, _, err = o.producer.SendMessage(&sarama.ProducerMessage{
		Topic: o.topic,
		Key:   sarama.StringEncoder(order.Company),
		Value: sarama.ByteEncoder(line),
	})
	if err != nil {
		return fmt.Errorf("send order to kafka: %w", err)
	}

	return nil
}

func (o Order) StoreEnd(ctx context.Context) error {
	_, _, err := o.producer.SendMessage(&sarama.ProducerMessage{
		Topic: o.topic,
		Headers: []sarama.RecordHeader{
			{Key: []byte(EndOfStreamHeader), Value: []byte("1")},
		},
	})
	if err != nil {
		return fmt.Errorf("send end of stream to kafka: %w", err)
	}

	return nil
}

// EncodeLine renders one CSV record without the trailing newline.
func EncodeLine(fields []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\r\n"), nil
}

// IsEndOfStream reports whether a consumed message carries the end marker.
func IsEndOfStream(headers []*sarama.RecordHeader) bool {
	for _, h := range headers {
		if h != nil && string(h.Key) == EndOfStreamHeader {
			return true
		}
	}
	return false
}
