package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendasys/backend/internal/domain/rollup"
)

func TestInMemoryRankingStore_ApplyAndRange(t *testing.T) {
	store := NewInMemoryRankingStore()
	ctx := context.Background()

	err := store.Apply(ctx, rollup.DeltaBatch{
		Scores: []rollup.ScoreIncrement{
			{Key: "m:202401:cls", Member: "7", Delta: 50},
			{Key: "m:202401:cls", Member: "9", Delta: 120},
		},
		Counters: []rollup.CounterIncrement{
			{Key: "m:202401:cls:total", Delta: 170},
		},
		Dict: []rollup.DictWrite{
			{Key: "dict:cls", Field: "7", Value: `{"name":"Fuel","category_id":"2"}`},
		},
	})
	require.NoError(t, err)

	members, err := store.RangeDesc(ctx, "m:202401:cls")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "9", members[0].Member, "highest score first")
	assert.Equal(t, float64(120), members[0].Score)

	total, err := store.Total(ctx, "m:202401:cls:total")
	require.NoError(t, err)
	assert.Equal(t, float64(170), total)

	dict, err := store.DictEntries(ctx, "dict:cls", "7", "missing")
	require.NoError(t, err)
	assert.Len(t, dict, 1)
	assert.Contains(t, dict["7"], "Fuel")
}

func TestInMemoryRankingStore_ScoreAndRemove(t *testing.T) {
	store := NewInMemoryRankingStore()
	ctx := context.Background()

	require.NoError(t, store.Apply(ctx, rollup.DeltaBatch{
		Scores: []rollup.ScoreIncrement{{Key: "k", Member: "a", Delta: 10}},
	}))

	score, found, err := store.Score(ctx, "k", "a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, float64(10), score)

	_, found, err = store.Score(ctx, "k", "b")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.RemoveMembers(ctx, "k", "a"))
	_, found, err = store.Score(ctx, "k", "a")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInMemoryRankingStore_SetTotalOverwrites(t *testing.T) {
	store := NewInMemoryRankingStore()
	ctx := context.Background()

	require.NoError(t, store.Apply(ctx, rollup.DeltaBatch{
		Counters: []rollup.CounterIncrement{{Key: "t", Delta: -5}},
	}))
	require.NoError(t, store.SetTotal(ctx, "t", 0))

	total, err := store.Total(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, float64(0), total)
}

func TestInMemoryRankingStore_DeleteDropsAllShapes(t *testing.T) {
	store := NewInMemoryRankingStore()
	ctx := context.Background()

	require.NoError(t, store.Apply(ctx, rollup.DeltaBatch{
		Scores:   []rollup.ScoreIncrement{{Key: "k", Member: "a", Delta: 1}},
		Counters: []rollup.CounterIncrement{{Key: "k", Delta: 1}},
		Dict:     []rollup.DictWrite{{Key: "k", Field: "a", Value: "x"}},
	}))
	require.NoError(t, store.Delete(ctx, "k"))

	members, err := store.RangeDesc(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, members)

	total, err := store.Total(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestInMemoryRankingStore_ConcurrentApply(t *testing.T) {
	store := NewInMemoryRankingStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Apply(ctx, rollup.DeltaBatch{
				Scores:   []rollup.ScoreIncrement{{Key: "k", Member: "a", Delta: 1}},
				Counters: []rollup.CounterIncrement{{Key: "k:total", Delta: 1}},
			})
		}()
	}
	wg.Wait()

	score, found, err := store.Score(ctx, "k", "a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, float64(50), score)

	total, err := store.Total(ctx, "k:total")
	require.NoError(t, err)
	assert.Equal(t, float64(50), total)
}

func TestInMemorySummaryStore_RoundTripAndMiss(t *testing.T) {
	store := NewInMemorySummaryStore()
	ctx := context.Background()

	blob, err := store.Get(ctx, "sales:m:202401")
	require.NoError(t, err)
	assert.Nil(t, blob, "miss returns nil without error")

	require.NoError(t, store.Set(ctx, "sales:m:202401", []byte(`{"valor_total":"100"}`)))

	blob, err = store.Get(ctx, "sales:m:202401")
	require.NoError(t, err)
	assert.JSONEq(t, `{"valor_total":"100"}`, string(blob))

	require.NoError(t, store.Delete(ctx, "sales:m:202401"))
	blob, err = store.Get(ctx, "sales:m:202401")
	require.NoError(t, err)
	assert.Nil(t, blob)
}
