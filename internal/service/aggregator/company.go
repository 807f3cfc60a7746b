package aggregator

import "github.com/zamyatin-zkex/cancelwatch/internal/entity"

type status uint8

const (
	// statusIdle: seen, no open window. The zero value.
	statusIdle status = iota
	statusTracking
	// statusExcessive is terminal.
	statusExcessive
)

// Transition describes what a single order did to its company.
type Transition uint8

const (
	Ignored Transition = iota
	Opened
	Accumulated
	// Rolled: the previous window closed compliant and the order opened a new one.
	Rolled
	Flagged
)

func (t Transition) String() string {
	switch t {
	case Opened:
		return "opened"
	case Accumulated:
		return "accumulated"
	case Rolled:
		return "rolled"
	case Flagged:
		return "flagged"
	default:
		return "ignored"
	}
}

// company is replaced as a whole on every transition.
// For excessive companies window holds the window that crossed the threshold.
type company struct {
	status status
	window Window
}

func (c company) apply(order entity.Order, p Policy) (company, Transition) {
	switch c.status {
	case statusExcessive:
		return c, Ignored

	case statusTracking:
		if c.window.covers(order.Time, p.Window) {
			return company{status: statusTracking, window: c.window.add(order)}, Accumulated
		}
		if p.Threshold.ExceededBy(c.window) {
			// the closing order belongs to no window
			return company{status: statusExcessive, window: c.window}, Flagged
		}
		return company{status: statusTracking, window: newWindow(order)}, Rolled

	default:
		return company{status: statusTracking, window: newWindow(order)}, Opened
	}
}

// flush closes an open window at end of stream.
func (c company) flush(p Policy) (company, bool) {
	if c.status != statusTracking {
		return c, false
	}
	if p.Threshold.ExceededBy(c.window) {
		return company{status: statusExcessive, window: c.window}, true
	}
	return company{status: statusIdle, window: c.window}, false
}
