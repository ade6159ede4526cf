// Package keylock provides sharded mutual exclusion keyed by 32-byte ids.
// Locks must be taken before a database transaction starts, never inside one.
package keylock

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultShards is used when New is given zero shards.
const DefaultShards = 256

// Locker serialises work per id across a fixed set of mutex shards.
type Locker struct {
	shards []sync.Mutex
}

// New creates a Locker with n shards.
func New(n int) *Locker {
	if n <= 0 {
		n = DefaultShards
	}
	return &Locker{shards: make([]sync.Mutex, n)}
}

func (l *Locker) shard(key common.Hash) int {
	return int(binary.BigEndian.Uint64(key[common.HashLength-8:]) % uint64(len(l.shards)))
}

// Lock acquires every shard covering keys in ascending shard order and
// returns the function that releases them.
func (l *Locker) Lock(keys ...common.Hash) (unlock func()) {
	seen := make(map[int]struct{}, len(keys))
	idx := make([]int, 0, len(keys))
	for _, k := range keys {
		i := l.shard(k)
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		idx = append(idx, i)
	}
	sort.Ints(idx)

	for _, i := range idx {
		l.shards[i].Lock()
	}
	return func() {
		for j := len(idx) - 1; j >= 0; j-- {
			l.shards[idx[j]].Unlock()
		}
	}
}
