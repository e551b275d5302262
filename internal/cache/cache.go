// Package cache holds the in-memory task board state.
//
// The cache is the single owned state object shared by the sync scheduler
// and the reconciliation orchestrator. All mutations go through methods that
// take the cache mutex, so a bulk sync replace can never interleave with an
// optimistic move. Readers get defensive copies; the UI layer never holds a
// pointer into cache-owned memory.
package cache

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Inna0915/jiraflow/internal/board"
)

// Cache is the in-memory collection of tasks plus derived views.
// The zero value is not usable; call New.
type Cache struct {
	mu    sync.RWMutex
	tasks map[string]*board.Task

	// movesInFlight counts reconciliation moves between optimistic apply
	// and settlement. The sync scheduler skips ticks while it is nonzero
	// instead of queueing behind them.
	movesInFlight atomic.Int64
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{tasks: make(map[string]*board.Task)}
}

// Get returns a copy of the task with the given key.
func (c *Cache) Get(key string) (*board.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tasks[key]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// All returns copies of every task, ordered by key for stable iteration.
func (c *Cache) All() []*board.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*board.Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len returns the number of cached tasks.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tasks)
}

// Keys returns the keys of every cached task.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.tasks))
	for k := range c.tasks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Upsert inserts or replaces a single task.
func (c *Cache) Upsert(t *board.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks[t.Key] = t.Clone()
}

// Remove deletes a task. Removing an absent key is a no-op.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tasks, key)
}

// ReplaceAll swaps the entire task set in one step. Tasks previously known
// but absent from the new set are pruned by construction; a failed sync must
// simply not call ReplaceAll to leave the cache untouched.
func (c *Cache) ReplaceAll(tasks []*board.Task) {
	next := make(map[string]*board.Task, len(tasks))
	for _, t := range tasks {
		next[t.Key] = t.Clone()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = next
}

// SetColumn applies a column change to a cached task and returns the
// pre-change snapshot for rollback. Returns ok=false if the key is unknown.
func (c *Cache) SetColumn(key string, col board.ColumnID) (snapshot *board.Task, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tasks[key]
	if !ok {
		return nil, false
	}
	snapshot = t.Clone()
	t.Column = col
	t.UpdatedAt = time.Now()
	return snapshot, true
}

// Restore puts a snapshot back, reverting any mutation made since it was
// taken. Used as the compensating action when a move fails.
func (c *Cache) Restore(snapshot *board.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks[snapshot.Key] = snapshot.Clone()
}

// BeginMove marks a reconciliation move as in flight. Must be paired with
// EndMove once the move settles (confirmed or rolled back).
func (c *Cache) BeginMove() {
	c.movesInFlight.Add(1)
}

// EndMove marks a move as settled.
func (c *Cache) EndMove() {
	c.movesInFlight.Add(-1)
}

// MovesInFlight reports how many moves are between optimistic apply and
// settlement.
func (c *Cache) MovesInFlight() int {
	return int(c.movesInFlight.Load())
}
