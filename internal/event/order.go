package event

import "github.com/zamyatin-zkex/cancelwatch/internal/entity"

type OrderReceived struct {
	entity.Order

	// Offset is the position of the record in its source (line number or kafka offset).
	Offset int64
}

type OrderRejected struct {
	Offset int64
	Reason string
}

// StreamFinished is the explicit end-of-stream signal of a line source.
type StreamFinished struct {
	Offset int64
}
