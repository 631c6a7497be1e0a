package replay

import (
	"container/list"
	"sync"
)

// DefaultCapacity is the number of nonces remembered before eviction starts.
const DefaultCapacity = 10000

// Guard remembers message nonces that have already been accepted.
//
// Entries are kept in insertion order. Once the set grows past its capacity
// the oldest fifth is dropped in one go. A nonce that has been evicted is
// accepted again if it is replayed later; the bound trades that window for
// constant memory.
type Guard struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	index    map[string]*list.Element
}

// New returns a guard with the given capacity. Non-positive values select
// DefaultCapacity.
func New(capacity int) *Guard {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Guard{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element),
	}
}

// Validate records nonce and reports whether it was unseen. A false result
// means the message is a replay.
func (g *Guard) Validate(nonce string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, seen := g.index[nonce]; seen {
		return false
	}
	g.index[nonce] = g.order.PushBack(nonce)
	if g.order.Len() > g.capacity {
		g.evict(max(1, g.capacity/5))
	}
	return true
}

// Contains reports whether nonce is currently remembered.
func (g *Guard) Contains(nonce string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.index[nonce]
	return ok
}

// Len returns the number of remembered nonces.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.order.Len()
}

// Clear forgets every nonce.
func (g *Guard) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.order.Init()
	clear(g.index)
}

func (g *Guard) evict(n int) {
	for i := 0; i < n; i++ {
		front := g.order.Front()
		if front == nil {
			return
		}
		delete(g.index, g.order.Remove(front).(string))
	}
}
