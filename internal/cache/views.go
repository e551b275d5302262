package cache

import (
	"sort"
	"time"

	"github.com/Inna0915/jiraflow/internal/board"
)

// ByColumn groups tasks by their current column. Every fixed column appears
// in the result, empty columns included, so renderers get a stable shape.
// Tasks within a column are ordered by priority, then key.
func (c *Cache) ByColumn() map[board.ColumnID][]*board.Task {
	out := make(map[board.ColumnID][]*board.Task, len(board.Columns))
	for _, col := range board.Columns {
		out[col] = nil
	}

	c.mu.RLock()
	for _, t := range c.tasks {
		out[t.Column] = append(out[t.Column], t.Clone())
	}
	c.mu.RUnlock()

	for col := range out {
		sortTasks(out[col])
	}
	return out
}

// BySwimlane classifies every task with the single today anchor supplied by
// the caller and groups the results by lane. Using one anchor for the whole
// batch keeps a task from flipping lanes mid-render on a clock tick.
func (c *Cache) BySwimlane(today time.Time) map[board.Swimlane][]*board.Task {
	out := map[board.Swimlane][]*board.Task{
		board.LaneOverdue:     nil,
		board.LaneOnSchedule:  nil,
		board.LaneUnscheduled: nil,
	}

	c.mu.RLock()
	for _, t := range c.tasks {
		lane := board.ClassifyTask(t, today).Lane()
		out[lane] = append(out[lane], t.Clone())
	}
	c.mu.RUnlock()

	for lane := range out {
		sortTasks(out[lane])
	}
	return out
}

// BySprint groups tasks by their origin sprint label.
func (c *Cache) BySprint() map[string][]*board.Task {
	out := make(map[string][]*board.Task)

	c.mu.RLock()
	for _, t := range c.tasks {
		out[t.Sprint] = append(out[t.Sprint], t.Clone())
	}
	c.mu.RUnlock()

	for sprint := range out {
		sortTasks(out[sprint])
	}
	return out
}

func sortTasks(tasks []*board.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Priority != tasks[j].Priority {
			return tasks[i].Priority < tasks[j].Priority
		}
		return tasks[i].Key < tasks[j].Key
	})
}
