package trading

import "sync"

// agentLocks serializes trade execution per agent id. Trades for different
// agents proceed in parallel; two trades for the same agent never
// interleave. Entries are never evicted, which is fine for a bounded
// competition roster.
type agentLocks struct {
	locks sync.Map // agent id -> *sync.Mutex
}

func (l *agentLocks) get(agentID string) *sync.Mutex {
	mu, _ := l.locks.LoadOrStore(agentID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
