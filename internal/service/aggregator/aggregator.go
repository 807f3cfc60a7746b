// Package aggregator classifies companies as excessive cancellers over
// per-company accumulation windows. An Aggregator is owned by a single
// caller and is not safe for concurrent use.
package aggregator

import (
	"slices"

	"github.com/zamyatin-zkex/cancelwatch/internal/entity"
)

type Aggregator struct {
	policy    Policy
	companies map[string]company

	// first-seen and first-flagged order
	seen      []string
	excessive []string
}

// Step is the effect of one order. Window is the company's open window,
// or the offending window when Transition is Flagged.
type Step struct {
	Company    string
	Transition Transition
	Window     Window
}

type Result struct {
	Excessive []string
	Companies []string
}

func (r Result) WellBehavedCount() int {
	return len(r.Companies) - len(r.Excessive)
}

func New(policy Policy) *Aggregator {
	return &Aggregator{
		policy:    policy,
		companies: make(map[string]company),
	}
}

func (a *Aggregator) Policy() Policy {
	return a.policy
}

// Process advances the company's state with one validated order.
func (a *Aggregator) Process(order entity.Order) Step {
	current, ok := a.companies[order.Company]
	if !ok {
		a.seen = append(a.seen, order.Company)
	}

	next, transition := current.apply(order, a.policy)
	a.companies[order.Company] = next

	if transition == Flagged {
		a.excessive = append(a.excessive, order.Company)
	}

	return Step{
		Company:    order.Company,
		Transition: transition,
		Window:     next.window,
	}
}

// Flush evaluates every open window exactly once, in first-seen order,
// and returns the companies it flagged. Flushed companies stay known; a
// later order for a compliant one opens a fresh window.
func (a *Aggregator) Flush() []Step {
	var flagged []Step

	for _, name := range a.seen {
		next, excessive := a.companies[name].flush(a.policy)
		a.companies[name] = next

		if excessive {
			a.excessive = append(a.excessive, name)
			flagged = append(flagged, Step{Company: name, Transition: Flagged, Window: next.window})
		}
	}

	return flagged
}

// Finalize flushes and returns the classification sets.
func (a *Aggregator) Finalize() Result {
	a.Flush()
	return a.Result()
}

func (a *Aggregator) Result() Result {
	return Result{
		Excessive: a.ExcessiveCompanies(),
		Companies: slices.Clone(a.seen),
	}
}

func (a *Aggregator) ExcessiveCompanies() []string {
	return slices.Clone(a.excessive)
}

func (a *Aggregator) WellBehavedCount() int {
	return len(a.seen) - len(a.excessive)
}

func (a *Aggregator) IsExcessive(name string) bool {
	return a.companies[name].status == statusExcessive
}

// Window snapshots the latest window of a known company.
func (a *Aggregator) Window(name string) (entity.Window, bool) {
	c, ok := a.companies[name]
	if !ok {
		return entity.Window{}, false
	}
	return c.window.snapshot(c.status == statusTracking), true
}

// Windows snapshots the latest window of every known company.
func (a *Aggregator) Windows() map[string]entity.Window {
	windows := make(map[string]entity.Window, len(a.companies))
	for name, c := range a.companies {
		windows[name] = c.window.snapshot(c.status == statusTracking)
	}
	return windows
}
