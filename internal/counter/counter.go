package counter

import "sync"

// ActivePlayers counts connected players across every match. It is the only
// state shared between matches, so all access goes through its lock.
type ActivePlayers struct {
	mu    sync.Mutex
	count int
}

func New() *ActivePlayers {
	return &ActivePlayers{}
}

// Add - changes the counter by delta and returns the new value.
func (that *ActivePlayers) Add(delta int) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.count += delta

	return that.count
}

func (that *ActivePlayers) Value() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.count
}
