package web

import (
	"slices"
	"sync"

	"github.com/zamyatin-zkex/cancelwatch/internal/entity"
	"github.com/zamyatin-zkex/cancelwatch/internal/event"
	"github.com/zamyatin-zkex/cancelwatch/pkg/ringbuf"
)

const recentFlags = 32

type state struct {
	mx     sync.RWMutex
	stats  entity.Stats
	latest *entity.Classification
	flags  *ringbuf.Ring[event.CompanyFlagged]
}

func newState() *state {
	return &state{
		flags: ringbuf.New[event.CompanyFlagged](recentFlags),
	}
}

func (s *state) update(stats entity.Stats) {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.stats = stats
}

func (s *state) flag(flag event.CompanyFlagged) {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.flags.PushFront(flag)
}

func (s *state) publish(result entity.Classification) {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.latest = &result
}

func (s *state) excessive() []string {
	s.mx.RLock()
	defer s.mx.RUnlock()

	if s.stats.Excessive == nil {
		return []string{}
	}
	return slices.Clone(s.stats.Excessive)
}

func (s *state) wellBehaved() int {
	s.mx.RLock()
	defer s.mx.RUnlock()

	return s.stats.WellBehaved
}

func (s *state) company(name string) (CompanyView, bool) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	view := CompanyView{
		Company:   name,
		Excessive: slices.Contains(s.stats.Excessive, name),
	}

	window, ok := s.stats.Windows[name]
	if ok {
		view.Window = &window
	}

	return view, ok || view.Excessive
}

func (s *state) recent() []event.CompanyFlagged {
	s.mx.RLock()
	defer s.mx.RUnlock()

	return s.flags.Items()
}

func (s *state) result() (entity.Classification, bool) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	if s.latest == nil {
		return entity.Classification{}, false
	}
	return *s.latest, true
}
