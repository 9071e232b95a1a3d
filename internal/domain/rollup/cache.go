package rollup

import "context"

// ScoredMember is one entry of a ranked aggregate, highest score first.
type ScoredMember struct {
	Member string
	Score  float64
}

// ScoreIncrement increments one member of a ranked aggregate.
type ScoreIncrement struct {
	Key    string
	Member string
	Delta  float64
}

// CounterIncrement increments one running total counter.
type CounterIncrement struct {
	Key   string
	Delta float64
}

// DictWrite upserts one display-name entry into a dictionary. Entries are
// last-write-wins and never deleted.
type DictWrite struct {
	Key   string
	Field string
	Value string
}

// DeltaBatch groups the score, counter, and dictionary writes of a single
// delta so the store can apply them as one pipelined command group.
type DeltaBatch struct {
	Scores   []ScoreIncrement
	Counters []CounterIncrement
	Dict     []DictWrite
}

// RankingStore is the aggregation-cache port for ranked classification
// aggregates: sorted member scores, running totals, and name dictionaries.
// Implementations hold derived data only; everything here is rebuildable
// from the ledger.
type RankingStore interface {
	// Apply applies every write of the batch in one pipelined round trip.
	Apply(ctx context.Context, batch DeltaBatch) error

	// Score returns the member's score and whether the member exists.
	Score(ctx context.Context, key, member string) (float64, bool, error)

	// Total returns the counter value, 0 when the key is absent.
	Total(ctx context.Context, key string) (float64, error)

	// SetTotal overwrites the counter value.
	SetTotal(ctx context.Context, key string, value float64) error

	// RemoveMembers drops members from a ranked aggregate.
	RemoveMembers(ctx context.Context, key string, members ...string) error

	// RangeDesc returns all members of a ranked aggregate, highest score first.
	RangeDesc(ctx context.Context, key string) ([]ScoredMember, error)

	// DictEntries resolves dictionary fields; absent fields are omitted
	// from the result map.
	DictEntries(ctx context.Context, key string, fields ...string) (map[string]string, error)

	// Delete removes whole keys, used by rebuild to start from a clean slate.
	Delete(ctx context.Context, keys ...string) error
}

// SummaryStore is the cache-aside port for serialized summary snapshots.
// Entries carry no TTL; they are replaced by delta-triggered recomputes.
type SummaryStore interface {
	// Get returns the stored blob, or (nil, nil) on a cache miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the blob with no expiry.
	Set(ctx context.Context, key string, value []byte) error

	// Delete drops a snapshot.
	Delete(ctx context.Context, key string) error
}
