package cache

import (
	"context"
	"sort"
	"sync"

	"github.com/vendasys/backend/internal/domain/rollup"
)

// InMemoryRankingStore implements rollup.RankingStore with process-local maps.
// Suitable for single-instance deployments and tests; state is not shared
// across processes and is lost on restart, which is acceptable because the
// cache is rebuildable from the ledger.
type InMemoryRankingStore struct {
	mu     sync.RWMutex
	scores map[string]map[string]float64
	totals map[string]float64
	dicts  map[string]map[string]string
}

// NewInMemoryRankingStore creates a new in-memory ranking store
func NewInMemoryRankingStore() *InMemoryRankingStore {
	return &InMemoryRankingStore{
		scores: make(map[string]map[string]float64),
		totals: make(map[string]float64),
		dicts:  make(map[string]map[string]string),
	}
}

// Apply applies every write of the batch under one lock acquisition
func (s *InMemoryRankingStore) Apply(_ context.Context, batch rollup.DeltaBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, inc := range batch.Scores {
		members, ok := s.scores[inc.Key]
		if !ok {
			members = make(map[string]float64)
			s.scores[inc.Key] = members
		}
		members[inc.Member] += inc.Delta
	}
	for _, inc := range batch.Counters {
		s.totals[inc.Key] += inc.Delta
	}
	for _, w := range batch.Dict {
		dict, ok := s.dicts[w.Key]
		if !ok {
			dict = make(map[string]string)
			s.dicts[w.Key] = dict
		}
		dict[w.Field] = w.Value
	}
	return nil
}

// Score returns the member's score and whether the member exists
func (s *InMemoryRankingStore) Score(_ context.Context, key, member string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members, ok := s.scores[key]
	if !ok {
		return 0, false, nil
	}
	score, ok := members[member]
	return score, ok, nil
}

// Total returns the counter value, 0 when the key is absent
func (s *InMemoryRankingStore) Total(_ context.Context, key string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals[key], nil
}

// SetTotal overwrites the counter value
func (s *InMemoryRankingStore) SetTotal(_ context.Context, key string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totals[key] = value
	return nil
}

// RemoveMembers drops members from a ranked aggregate
func (s *InMemoryRankingStore) RemoveMembers(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.scores[key]
	if !ok {
		return nil
	}
	for _, m := range members {
		delete(existing, m)
	}
	return nil
}

// RangeDesc returns all members of a ranked aggregate, highest score first
func (s *InMemoryRankingStore) RangeDesc(_ context.Context, key string) ([]rollup.ScoredMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := s.scores[key]
	out := make([]rollup.ScoredMember, 0, len(members))
	for member, score := range members {
		out = append(out, rollup.ScoredMember{Member: member, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Member < out[j].Member
	})
	return out, nil
}

// DictEntries resolves dictionary fields, omitting absent ones
func (s *InMemoryRankingStore) DictEntries(_ context.Context, key string, fields ...string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dict := s.dicts[key]
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if v, ok := dict[f]; ok {
			out[f] = v
		}
	}
	return out, nil
}

// Delete removes whole keys
func (s *InMemoryRankingStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.scores, k)
		delete(s.totals, k)
		delete(s.dicts, k)
	}
	return nil
}

// Ensure InMemoryRankingStore implements RankingStore
var _ rollup.RankingStore = (*InMemoryRankingStore)(nil)
