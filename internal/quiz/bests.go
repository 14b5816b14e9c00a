package quiz

import "sync"

// SessionBests tracks the highest score per category key for the lifetime
// of the process. It survives restarts of individual sessions.
type SessionBests struct {
	mu    sync.Mutex
	bests map[string]int
}

func NewSessionBests() *SessionBests {
	return &SessionBests{bests: make(map[string]int)}
}

// Record keeps the max of the stored best and score, and returns it.
func (b *SessionBests) Record(categoryKey string, score int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if prev, ok := b.bests[categoryKey]; !ok || score > prev {
		b.bests[categoryKey] = score
	}
	return b.bests[categoryKey]
}

// Best returns the recorded best for a category, if any.
func (b *SessionBests) Best(categoryKey string) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	best, ok := b.bests[categoryKey]
	return best, ok
}
