package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zamyatin-zkex/cancelwatch/internal/entity"
)

type CompanyFlagged struct {
	RunID       uuid.UUID
	Company     string
	WindowStart time.Time
	Total       int64
	Cancelled   int64
	Ratio       decimal.Decimal
}

type StatsUpdated struct {
	Stats entity.Stats
}

type ResultPublished struct {
	Result entity.Classification
}
