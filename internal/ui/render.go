package ui

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/Inna0915/jiraflow/internal/board"
)

// Renderer produces styled terminal output for board views. It pins the
// color profile to ANSI 256 so output looks the same under tmux and plain
// terminals.
type Renderer struct {
	theme Theme
	lip   *lipgloss.Renderer
}

// NewRenderer creates a renderer writing profile-detected styles for
// stdout.
func NewRenderer(theme Theme) *Renderer {
	lip := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.ANSI256))
	lip.SetColorProfile(termenv.ANSI256)
	return &Renderer{theme: theme, lip: lip}
}

// Pass renders text in the success color.
func (r *Renderer) Pass(text string) string {
	return r.lip.NewStyle().Foreground(r.theme.Pass).Render(text)
}

// Warn renders text in the warning color.
func (r *Renderer) Warn(text string) string {
	return r.lip.NewStyle().Foreground(r.theme.Warn).Render(text)
}

// Fail renders text in the failure color.
func (r *Renderer) Fail(text string) string {
	return r.lip.NewStyle().Foreground(r.theme.Fail).Render(text)
}

// Faint renders secondary text.
func (r *Renderer) Faint(text string) string {
	return r.lip.NewStyle().Foreground(r.theme.FaintText).Render(text)
}

// Board renders the full column view: every column in workflow order with
// its task count and tasks, swimlane-colored. Empty columns render with
// just their header so the workflow shape stays visible.
func (r *Renderer) Board(byColumn map[board.ColumnID][]*board.Task, today time.Time) string {
	var b strings.Builder

	header := r.lip.NewStyle().Bold(true).Foreground(r.theme.HeaderForeground)
	_ = header
	border := r.lip.NewStyle().Foreground(r.theme.BorderColor)

	for _, col := range board.Columns {
		tasks := byColumn[col]

		colStyle := r.lip.NewStyle().Foreground(r.theme.ColumnColor(col)).Bold(true)
		b.WriteString(colStyle.Render(fmt.Sprintf("%s (%d)", board.DisplayName(col), len(tasks))))
		b.WriteString("\n")
		b.WriteString(border.Render(strings.Repeat("─", 40)))
		b.WriteString("\n")

		sorted := make([]*board.Task, len(tasks))
		copy(sorted, tasks)
		sort.Slice(sorted, func(i, j int) bool {
			if sorted[i].Priority != sorted[j].Priority {
				return sorted[i].Priority < sorted[j].Priority
			}
			return sorted[i].Key < sorted[j].Key
		})

		for _, t := range sorted {
			b.WriteString(r.taskRow(t, today))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Swimlanes renders tasks grouped by triage lane, overdue first.
func (r *Renderer) Swimlanes(byLane map[board.Swimlane][]*board.Task, today time.Time) string {
	var b strings.Builder

	for _, lane := range []board.Swimlane{board.LaneOverdue, board.LaneOnSchedule, board.LaneUnscheduled} {
		tasks := byLane[lane]

		laneStyle := r.lip.NewStyle().Foreground(r.theme.LaneColor(lane)).Bold(true)
		b.WriteString(laneStyle.Render(fmt.Sprintf("%s (%d)", laneTitle(lane), len(tasks))))
		b.WriteString("\n")

		for _, t := range tasks {
			b.WriteString(r.taskRow(t, today))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (r *Renderer) taskRow(t *board.Task, today time.Time) string {
	key := r.lip.NewStyle().Foreground(r.theme.HeaderForeground).Render(t.Key)

	lane := board.ClassifyTask(t, today).Lane()
	var due string
	if t.DueDate != nil {
		due = r.lip.NewStyle().Foreground(r.theme.LaneColor(lane)).
			Render(" due " + t.DueDate.Format("2006-01-02"))
	}

	title := t.Title
	if runes := []rune(title); len(runes) > 60 {
		title = string(runes[:59]) + "…"
	}

	return fmt.Sprintf("  %s  %s%s", key, title, due)
}

func laneTitle(lane board.Swimlane) string {
	switch lane {
	case board.LaneOverdue:
		return "Overdue"
	case board.LaneOnSchedule:
		return "On Schedule"
	default:
		return "Unscheduled"
	}
}
