package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/Inna0915/jiraflow/internal/board"
)

// JiraConfig configures the Jira Agile REST client.
type JiraConfig struct {
	// BaseURL is the Jira site root, e.g. "https://example.atlassian.net".
	BaseURL string
	// Username and APIToken are used for basic auth.
	Username string
	APIToken string
	// Project is the project key whose board is reconciled.
	Project string

	// HTTPClient overrides the default client. Callers set timeouts here
	// or through ctx; a timeout is handled like any other remote failure.
	HTTPClient *http.Client

	// Mapper resolves remote status names to columns when choosing a
	// transition for TransitionIssue.
	Mapper *board.StatusMapper

	// Logger for request diagnostics. Nil gets a stderr default.
	Logger *log.Logger
}

// JiraClient implements Client against the Jira Agile REST API (v1.0 agile
// endpoints plus the v2 search and transition endpoints).
type JiraClient struct {
	cfg    JiraConfig
	http   *http.Client
	mapper *board.StatusMapper
	logger *log.Logger
}

// NewJiraClient builds a client from the given configuration.
func NewJiraClient(cfg JiraConfig) (*JiraClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("jira base URL is required")
	}
	if cfg.Project == "" {
		return nil, fmt.Errorf("jira project key is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	mapper := cfg.Mapper
	if mapper == nil {
		mapper = &board.StatusMapper{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[jira] ", log.LstdFlags)
	}

	return &JiraClient{cfg: cfg, http: httpClient, mapper: mapper, logger: logger}, nil
}

// DiscoverBoard implements Client.DiscoverBoard.
func (c *JiraClient) DiscoverBoard(ctx context.Context) (*Board, error) {
	var resp struct {
		Values []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"values"`
	}

	q := url.Values{"projectKeyOrId": {c.cfg.Project}}
	if err := c.get(ctx, "/rest/agile/1.0/board", q, &resp); err != nil {
		return nil, fmt.Errorf("failed to discover board: %w", err)
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("no board found for project %s", c.cfg.Project)
	}

	b := resp.Values[0]
	return &Board{ID: b.ID, Name: b.Name}, nil
}

// DiscoverSprint implements Client.DiscoverSprint.
func (c *JiraClient) DiscoverSprint(ctx context.Context, boardID int) (*Sprint, error) {
	var resp struct {
		Values []struct {
			ID    int    `json:"id"`
			Name  string `json:"name"`
			State string `json:"state"`
		} `json:"values"`
	}

	path := fmt.Sprintf("/rest/agile/1.0/board/%d/sprint", boardID)
	if err := c.get(ctx, path, url.Values{"state": {"active,future"}}, &resp); err != nil {
		return nil, fmt.Errorf("failed to discover sprint: %w", err)
	}

	// Prefer the active sprint, then the first future one, then backlog.
	var future *Sprint
	for _, s := range resp.Values {
		switch s.State {
		case "active":
			return &Sprint{ID: s.ID, Name: s.Name, State: s.State}, nil
		case "future":
			if future == nil {
				future = &Sprint{ID: s.ID, Name: s.Name, State: s.State}
			}
		}
	}
	if future != nil {
		return future, nil
	}
	backlog := BacklogSprint
	return &backlog, nil
}

// ListIssues implements Client.ListIssues.
func (c *JiraClient) ListIssues(ctx context.Context, sprint *Sprint) ([]*Issue, error) {
	return c.listIssues(ctx, sprint, time.Time{})
}

// ListIssuesChangedSince implements Client.ListIssuesChangedSince.
func (c *JiraClient) ListIssuesChangedSince(ctx context.Context, sprint *Sprint, since time.Time) ([]*Issue, error) {
	return c.listIssues(ctx, sprint, since)
}

func (c *JiraClient) listIssues(ctx context.Context, sprint *Sprint, since time.Time) ([]*Issue, error) {
	jql := fmt.Sprintf("project = %q", c.cfg.Project)
	if sprint != nil && sprint.ID > 0 {
		jql += fmt.Sprintf(" AND sprint = %d", sprint.ID)
	} else {
		jql += " AND sprint is EMPTY"
	}
	if !since.IsZero() {
		jql += fmt.Sprintf(" AND updated >= %q", since.Format("2006-01-02 15:04"))
	}

	var issues []*Issue
	startAt := 0
	for {
		var resp struct {
			StartAt    int         `json:"startAt"`
			MaxResults int         `json:"maxResults"`
			Total      int         `json:"total"`
			Issues     []jiraIssue `json:"issues"`
		}

		q := url.Values{
			"jql":        {jql},
			"startAt":    {fmt.Sprint(startAt)},
			"maxResults": {"50"},
			"fields":     {"summary,description,issuetype,status,priority,duedate,assignee,issuelinks,updated,sprint"},
		}
		if err := c.get(ctx, "/rest/api/2/search", q, &resp); err != nil {
			return nil, fmt.Errorf("failed to search issues: %w", err)
		}

		sprintName := "backlog"
		if sprint != nil && sprint.ID > 0 {
			sprintName = sprint.Name
		}
		for i := range resp.Issues {
			issues = append(issues, resp.Issues[i].toIssue(sprintName))
		}

		startAt += len(resp.Issues)
		if startAt >= resp.Total || len(resp.Issues) == 0 {
			break
		}
	}
	return issues, nil
}

// TransitionIssue implements Client.TransitionIssue.
//
// Jira transitions are named edges, not statuses, so the client first lists
// the transitions available on the issue, maps each transition's destination
// status onto a column, and executes the first one landing in the target.
// A matching transition that requires a screen cannot be driven through the
// API and is surfaced as the distinct guided-screen-required code.
func (c *JiraClient) TransitionIssue(ctx context.Context, key string, target board.ColumnID) (*TransitionResult, error) {
	var resp struct {
		Transitions []struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			HasScreen bool   `json:"hasScreen"`
			To        struct {
				Name string `json:"name"`
			} `json:"to"`
		} `json:"transitions"`
	}

	path := fmt.Sprintf("/rest/api/2/issue/%s/transitions", url.PathEscape(key))
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return &TransitionResult{ErrorCode: CodeRemoteError},
			fmt.Errorf("failed to list transitions for %s: %w", key, err)
	}

	for _, tr := range resp.Transitions {
		if c.mapper.MapStatus(tr.To.Name) != target {
			continue
		}
		if tr.HasScreen {
			return &TransitionResult{ErrorCode: CodeGuidedScreenRequired},
				fmt.Errorf("transition %q on %s: %w", tr.Name, key, ErrGuidedScreenRequired)
		}

		body := map[string]interface{}{
			"transition": map[string]string{"id": tr.ID},
		}
		if err := c.post(ctx, path, body); err != nil {
			return &TransitionResult{ErrorCode: CodeRemoteError},
				fmt.Errorf("failed to execute transition %q on %s: %w", tr.Name, key, err)
		}
		return &TransitionResult{Success: true, NewRemoteStatus: tr.To.Name}, nil
	}

	return &TransitionResult{ErrorCode: CodeNoMatchingTransition},
		fmt.Errorf("issue %s: %w (target %s)", key, ErrNoMatchingTransition, target)
}

// jiraIssue is the wire shape of a search hit.
type jiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary     string `json:"summary"`
		Description string `json:"description"`
		IssueType   struct {
			Name string `json:"name"`
		} `json:"issuetype"`
		Status struct {
			Name string `json:"name"`
		} `json:"status"`
		Priority struct {
			ID string `json:"id"`
		} `json:"priority"`
		DueDate  string `json:"duedate"`
		Assignee struct {
			DisplayName string `json:"displayName"`
		} `json:"assignee"`
		IssueLinks []struct {
			Type struct {
				Name string `json:"name"`
			} `json:"type"`
			OutwardIssue struct {
				Key string `json:"key"`
			} `json:"outwardIssue"`
			InwardIssue struct {
				Key string `json:"key"`
			} `json:"inwardIssue"`
		} `json:"issuelinks"`
		Updated string `json:"updated"`
	} `json:"fields"`
}

func (ji *jiraIssue) toIssue(sprintName string) *Issue {
	issue := &Issue{
		Key:         ji.Key,
		Summary:     ji.Fields.Summary,
		Description: ji.Fields.Description,
		Type:        ji.Fields.IssueType.Name,
		Status:      ji.Fields.Status.Name,
		Sprint:      sprintName,
		Assignee:    ji.Fields.Assignee.DisplayName,
	}

	// Jira priority ids are 1-based with 1 highest; the board uses 0-4.
	if ji.Fields.Priority.ID != "" {
		var p int
		if _, err := fmt.Sscanf(ji.Fields.Priority.ID, "%d", &p); err == nil && p > 0 {
			issue.Priority = p - 1
		}
	}

	if ji.Fields.DueDate != "" {
		if d, err := time.Parse("2006-01-02", ji.Fields.DueDate); err == nil {
			issue.DueDate = &d
		}
	}
	if ji.Fields.Updated != "" {
		if u, err := time.Parse("2006-01-02T15:04:05.000-0700", ji.Fields.Updated); err == nil {
			issue.Updated = u
		}
	}

	for _, l := range ji.Fields.IssueLinks {
		key := l.OutwardIssue.Key
		if key == "" {
			key = l.InwardIssue.Key
		}
		if key == "" {
			continue
		}
		issue.Links = append(issue.Links, IssueLink{Type: l.Type.Name, Key: key})
	}
	return issue
}

// get performs an authenticated GET and decodes the JSON response.
func (c *JiraClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, out)
}

// post performs an authenticated POST with a JSON body.
func (c *JiraClient) post(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *JiraClient) do(req *http.Request, out interface{}) error {
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.APIToken)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("jira returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
