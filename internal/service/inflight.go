package service

import (
	"fmt"
	"sync"

	"smartbarangay/internal/models"
)

// inflight rejects a second call of the same operation on the same target
// while the first is still outstanding.
type inflight struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{pending: make(map[string]struct{})}
}

// begin claims op for target. The returned func releases it.
func (g *inflight) begin(op string, target any) (func(), error) {
	key := fmt.Sprintf("%s:%v", op, target)

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.pending[key]; busy {
		return nil, models.NewInFlightError(op)
	}
	g.pending[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.pending, key)
			g.mu.Unlock()
		})
	}, nil
}
