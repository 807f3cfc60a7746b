// Package parser turns raw order records into validated orders.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zamyatin-zkex/cancelwatch/internal/entity"
)

// ErrMalformedRecord is wrapped by every validation failure.
var ErrMalformedRecord = errors.New("malformed record")

// MaxQuantity bounds the absolute quantity of a single order so that
// window sums stay far from int64 overflow.
const MaxQuantity int64 = 1_000_000_000_000

const (
	fieldTime = iota
	fieldCompany
	fieldKind
	fieldQuantity

	fieldCount
)

var layouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// Parse validates a record of exactly four fields:
// timestamp, company, order type (D|F) and quantity.
// Only the company and quantity are trimmed. Quantity sign is not checked.
func Parse(fields []string) (entity.Order, error) {
	if len(fields) != fieldCount {
		return entity.Order{}, fmt.Errorf("%w: %d fields, want %d", ErrMalformedRecord, len(fields), fieldCount)
	}

	ts, err := ParseTime(fields[fieldTime])
	if err != nil {
		return entity.Order{}, err
	}

	company := strings.TrimSpace(fields[fieldCompany])
	if company == "" {
		return entity.Order{}, fmt.Errorf("%w: empty company", ErrMalformedRecord)
	}

	kind := entity.Kind(fields[fieldKind])
	if !kind.Valid() {
		return entity.Order{}, fmt.Errorf("%w: order type %q", ErrMalformedRecord, kind)
	}

	qty, err := strconv.ParseInt(strings.TrimSpace(fields[fieldQuantity]), 10, 64)
	if err != nil {
		return entity.Order{}, fmt.Errorf("%w: quantity: %v", ErrMalformedRecord, err)
	}
	if qty > MaxQuantity || qty < -MaxQuantity {
		return entity.Order{}, fmt.Errorf("%w: quantity %d out of range", ErrMalformedRecord, qty)
	}

	return entity.Order{
		Time:     ts,
		Company:  company,
		Kind:     kind,
		Quantity: qty,
	}, nil
}

// ParseTime accepts the layouts above (UTC unless a zone is given) or unix milliseconds.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", ErrMalformedRecord)
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}

	for _, layout := range layouts {
		ts, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return ts.Truncate(time.Millisecond), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrMalformedRecord, s)
}

// Format is the inverse of Parse.
func Format(order entity.Order) []string {
	return []string{
		order.Time.UTC().Format(layouts[0]),
		order.Company,
		string(order.Kind),
		strconv.FormatInt(order.Quantity, 10),
	}
}
