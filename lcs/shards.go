package lcs

import (
	"github.com/botirk38/semsim/types"
	"github.com/cespare/xxhash/v2"
)

// shardCount splits the pair memo so concurrent workers rarely contend on
// the same lock.
const shardCount = 32

// MemoFactory creates one shard of the pair memo.
type MemoFactory func() (types.MemoBackend[types.PairKey, types.ScoreAttributePair], error)

type shardedMemo struct {
	shards [shardCount]types.MemoBackend[types.PairKey, types.ScoreAttributePair]
}

func newShardedMemo(factory MemoFactory) (*shardedMemo, error) {
	m := &shardedMemo{}
	for i := range m.shards {
		b, err := factory()
		if err != nil {
			return nil, err
		}
		m.shards[i] = b
	}
	return m, nil
}

func (m *shardedMemo) shard(k types.PairKey) types.MemoBackend[types.PairKey, types.ScoreAttributePair] {
	return m.shards[xxhash.Sum64String(k.String())%shardCount]
}

func (m *shardedMemo) get(k types.PairKey) (types.ScoreAttributePair, bool) {
	return m.shard(k).Get(k)
}

func (m *shardedMemo) set(k types.PairKey, v types.ScoreAttributePair) {
	m.shard(k).Set(k, v)
}

func (m *shardedMemo) len() int {
	n := 0
	for _, s := range m.shards {
		n += s.Len()
	}
	return n
}

// capacity returns the total bound, or 0 when any shard is unbounded.
func (m *shardedMemo) capacity() int {
	total := 0
	for _, s := range m.shards {
		c := s.Capacity()
		if c == 0 {
			return 0
		}
		total += c
	}
	return total
}

// fits reports whether every key can stay resident at once. A bounded memo
// needs headroom in every shard, so it is checked per shard.
func (m *shardedMemo) fits(keys []types.PairKey) bool {
	if m.capacity() == 0 {
		return true
	}
	var counts [shardCount]int
	for _, k := range keys {
		counts[xxhash.Sum64String(k.String())%shardCount]++
	}
	for i, s := range m.shards {
		if counts[i] > s.Capacity() {
			return false
		}
	}
	return true
}

func (m *shardedMemo) purge() {
	for _, s := range m.shards {
		s.Purge()
	}
}

func (m *shardedMemo) each(fn func(types.PairKey, types.ScoreAttributePair)) {
	for _, s := range m.shards {
		for _, k := range s.Keys() {
			if v, ok := s.Get(k); ok {
				fn(k, v)
			}
		}
	}
}
