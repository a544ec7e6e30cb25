package metrics

import "sync"

// TurnCounter tracks how many turns each intent produced since startup.
type TurnCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewTurnCounter constructs an empty counter.
func NewTurnCounter() *TurnCounter {
	return &TurnCounter{counts: make(map[string]int64)}
}

// Record bumps the counter for an intent name.
func (c *TurnCounter) Record(intent string) {
	if intent == "" {
		intent = "none"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[intent]++
}

// Snapshot returns a copy of the per-intent counts.
func (c *TurnCounter) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}
