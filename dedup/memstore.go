package dedup

import (
	"sync"

	"blainsmith.com/go/seahash"
)

const numMemShards = 256

type memShard struct {
	mu   sync.Mutex
	seen map[Key]struct{}
}

// memStore is the exact in-memory membership set. Keys are spread
// over individually locked shards so that a parallelized pipeline
// keeps exactly-once insert semantics; memory grows linearly with the
// number of distinct keys.
type memStore struct {
	shards [numMemShards]memShard
}

// NewMemStore returns an exact in-memory Store.
func NewMemStore() Store {
	m := &memStore{}
	for i := range m.shards {
		m.shards[i].seen = make(map[Key]struct{})
	}
	return m
}

func (m *memStore) TestAndRecord(key Key) (bool, error) {
	h := seahash.Sum64(key[:])
	shard := &m.shards[int(h%numMemShards)]

	shard.mu.Lock()
	_, dup := shard.seen[key]
	if !dup {
		shard.seen[key] = struct{}{}
	}
	shard.mu.Unlock()
	return !dup, nil
}

func (m *memStore) Close() error { return nil }

// size returns the number of distinct keys recorded. It is correct
// only when no other goroutine is inserting.
func (m *memStore) size() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		n += len(s.seen)
		s.mu.Unlock()
	}
	return n
}
