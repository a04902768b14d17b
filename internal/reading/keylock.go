package reading

import (
	"hash/fnv"
	"sync"
	"time"
)

// keyLockShards is the number of mutex stripes. Collisions between
// distinct keys only cost contention, never correctness.
const keyLockShards = 64

// keyLock serialises merges per (device, timestamp) key using a fixed
// set of striped mutexes. Striping keeps memory bounded regardless of
// how many distinct keys pass through.
type keyLock struct {
	shards [keyLockShards]sync.Mutex
}

// Lock acquires the stripe for a key and returns its unlock func.
func (k *keyLock) Lock(deviceID string, ts time.Time) func() {
	m := &k.shards[k.shard(deviceID, ts)]
	m.Lock()
	return m.Unlock
}

func (k *keyLock) shard(deviceID string, ts time.Time) uint32 {
	h := fnv.New32a()
	h.Write([]byte(deviceID))            //nolint:errcheck // fnv never errors
	h.Write([]byte{'|'})                 //nolint:errcheck
	h.Write([]byte(ts.Format(tsFormat))) //nolint:errcheck
	return h.Sum32() % keyLockShards
}
