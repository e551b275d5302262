// Package vault mirrors tasks into a markdown note vault.
//
// Each task gets one note with YAML frontmatter and the task description as
// body, written into a user-configured vault directory. The vault is an
// optional side channel: an unconfigured vault is a skip, never an error,
// and the reconciliation layer treats every vault failure as fire-and-forget.
package vault

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Inna0915/jiraflow/internal/board"
)

// Result reports one note sync attempt.
type Result struct {
	// Synced is true when the note was written.
	Synced bool
	// IsNew is true when the note did not exist before this sync.
	IsNew bool
	// Skipped is true when no sync was attempted; Reason says why.
	Skipped bool
	Reason  string
}

// Vault writes task notes into a directory. A Vault with an empty directory
// is valid and skips every sync.
type Vault struct {
	dir    string
	logger *log.Logger
}

// New creates a vault writer. dir may be empty; logger may be nil.
func New(dir string, logger *log.Logger) *Vault {
	if logger == nil {
		logger = log.New(os.Stderr, "[vault] ", log.LstdFlags)
	}
	return &Vault{dir: dir, logger: logger}
}

// noteFrontmatter is the YAML header of a task note.
type noteFrontmatter struct {
	Key      string     `yaml:"key"`
	Title    string     `yaml:"title"`
	Kind     string     `yaml:"kind"`
	Column   string     `yaml:"column"`
	Sprint   string     `yaml:"sprint"`
	Priority int        `yaml:"priority"`
	DueDate  *time.Time `yaml:"due_date,omitempty"`
	Assignee string     `yaml:"assignee,omitempty"`
	Updated  time.Time  `yaml:"updated"`
}

// SyncTaskNote writes or rewrites the note for the given task snapshot.
//
// Absence of vault configuration is reported as a skip, not an error.
func (v *Vault) SyncTaskNote(t *board.Task) (*Result, error) {
	if v.dir == "" {
		return &Result{Skipped: true, Reason: "no vault directory configured"}, nil
	}

	if err := os.MkdirAll(v.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}

	fm := noteFrontmatter{
		Key:      t.Key,
		Title:    t.Title,
		Kind:     string(t.Kind),
		Column:   string(t.Column),
		Sprint:   t.Sprint,
		Priority: t.Priority,
		DueDate:  t.DueDate,
		Assignee: t.Assignee,
		Updated:  t.UpdatedAt,
	}

	header, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal note frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString("# " + t.Title + "\n")
	if t.Description != "" {
		b.WriteString("\n" + t.Description + "\n")
	}
	if len(t.Links) > 0 {
		b.WriteString("\n## Links\n\n")
		for _, l := range t.Links {
			fmt.Fprintf(&b, "- %s [[%s]]\n", l.Type, l.Key)
		}
	}

	path := v.NotePath(t.Key)
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return nil, fmt.Errorf("failed to write note %s: %w", path, err)
	}

	v.logger.Printf("Synced note for %s (new=%v)", t.Key, isNew)
	return &Result{Synced: true, IsNew: isNew}, nil
}

// NotePath returns where the note for a task key lives.
func (v *Vault) NotePath(key string) string {
	return filepath.Join(v.dir, sanitizeFilename(key)+".md")
}

// sanitizeFilename strips path separators and other characters that are
// unsafe in note filenames.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-",
		"?", "-", "\"", "-", "<", "-", ">", "-", "|", "-",
	)
	return replacer.Replace(name)
}
