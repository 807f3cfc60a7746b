package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Classification is the outcome of one finished analysis run.
type Classification struct {
	RunID       uuid.UUID
	Excessive   []string
	WellBehaved int
	Companies   int
	Processed   int64
	Rejected    int64
	Offset      int64
	FinishedAt  time.Time
}

// Window is a read-only view of a company's latest accumulation window.
type Window struct {
	Start     time.Time
	Total     int64
	Cancelled int64
	Ratio     decimal.Decimal
	Open      bool
}

// Stats is a point-in-time view of a run in progress (or the last finished one).
type Stats struct {
	RunID       uuid.UUID
	Excessive   []string
	WellBehaved int
	Companies   int
	Processed   int64
	Rejected    int64
	Finished    bool
	Windows     map[string]Window
}
