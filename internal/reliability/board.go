package reliability

import (
	"sort"
	"sync"

	"github.com/JustRahman/cross-chain-bridghe/internal/model"
)

// Board holds the latest score per bridge. It satisfies the discovery
// engine's reliability source.
type Board struct {
	mu     sync.RWMutex
	scores map[string]model.ReliabilityScore
}

// NewBoard creates an empty board
func NewBoard() *Board {
	return &Board{scores: make(map[string]model.ReliabilityScore)}
}

// Publish replaces the bridge's score
func (b *Board) Publish(score model.ReliabilityScore) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scores[normalizeName(score.BridgeName)] = score
}

// Get returns the latest score for a bridge
func (b *Board) Get(bridge string) (model.ReliabilityScore, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.scores[normalizeName(bridge)]
	return s, ok
}

// All returns every published score ordered by bridge name
func (b *Board) All() []model.ReliabilityScore {
	b.mu.RLock()
	out := make([]model.ReliabilityScore, 0, len(b.scores))
	for _, s := range b.scores {
		out = append(out, s)
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].BridgeName < out[j].BridgeName })
	return out
}

// Reliability reports the overall score once a bridge has data
func (b *Board) Reliability(bridge string) (float64, bool) {
	s, ok := b.Get(bridge)
	if !ok || s.NoData {
		return 0, false
	}
	return s.OverallScore, true
}
