package entity

import (
	"time"
)

// Kind is the order type code as it appears on the wire.
type Kind string

const (
	KindNew    Kind = "D"
	KindCancel Kind = "F"
)

func (k Kind) Valid() bool {
	return k == KindNew || k == KindCancel
}

type Order struct {
	Time     time.Time
	Company  string
	Kind     Kind
	Quantity int64
}

// Cancelled is the quantity this order adds to the cancelled side of a window.
func (o Order) Cancelled() int64 {
	if o.Kind == KindCancel {
		return o.Quantity
	}
	return 0
}
