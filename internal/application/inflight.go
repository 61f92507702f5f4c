package application

import (
	"fmt"
	"sort"
	"sync"

	"github.com/wms-platform/fulfillment-console/internal/domain"
)

// inFlightSet tracks pending actions, one key per row
type inFlightSet struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

func newInFlightSet() *inFlightSet {
	return &inFlightSet{pending: make(map[string]struct{})}
}

// inFlightKey names one row of an action: the resource, then any sub-row
// ids such as an inbound line or a wave's order
func inFlightKey(action domain.Action, ids ...int64) string {
	key := string(action)
	for _, id := range ids {
		key += fmt.Sprintf(":%d", id)
	}
	return key
}

// acquire marks key pending and reports false when it already was
func (s *inFlightSet) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[key]; ok {
		return false
	}
	s.pending[key] = struct{}{}
	return true
}

func (s *inFlightSet) release(key string) {
	s.mu.Lock()
	delete(s.pending, key)
	s.mu.Unlock()
}

// keys returns the pending keys in sorted order
func (s *inFlightSet) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.pending))
	for k := range s.pending {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
