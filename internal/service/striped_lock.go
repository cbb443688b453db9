package service

import (
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
)

// stripeCount is the number of lock stripes. Collisions between distinct
// (user, card) pairs only cost unnecessary serialization, never
// correctness, so a modest power of two is enough.
const stripeCount = 64

// stripedLock serializes operations on a (user, card) pair without a
// per-pair lock table. Two calls for the same pair always hit the same
// stripe; calls for different pairs almost always proceed in parallel.
type stripedLock struct {
	stripes [stripeCount]sync.Mutex
}

func (l *stripedLock) lock(userID, cardID uuid.UUID) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write(userID[:])
	_, _ = h.Write(cardID[:])
	m := &l.stripes[h.Sum32()%stripeCount]
	m.Lock()
	return m
}
