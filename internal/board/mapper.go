package board

import (
	"log"
	"strings"
)

// FallbackColumn is where unmappable remote statuses land. The board must
// still render every task somewhere, so mapping never fails.
const FallbackColumn = ColumnBacklog

// exactStatuses is the tier-1 table: known remote status labels, English and
// Chinese, mapped to their columns. Matched after whitespace trimming only.
var exactStatuses = map[string]ColumnID{
	"Open":          ColumnIntake,
	"New":           ColumnIntake,
	"开放":            ColumnIntake,
	"新建":            ColumnIntake,
	"Definition":    ColumnDefinition,
	"需求定义":          ColumnDefinition,
	"To Do":         ColumnReady,
	"待办":            ColumnReady,
	"Backlog":       ColumnBacklog,
	"需求池":           ColumnBacklog,
	"In Progress":   ColumnExecution,
	"处理中":           ColumnExecution,
	"进行中":           ColumnExecution,
	"Dev Complete":  ColumnExecutionDone,
	"开发完成":          ColumnExecutionDone,
	"In Review":     ColumnReview,
	"Testing":       ColumnReview,
	"测试中":           ColumnReview,
	"Test Complete": ColumnTestDone,
	"测试完成":          ColumnTestDone,
	"Acceptance":    ColumnValidation,
	"验收中":           ColumnValidation,
	"Resolved":      ColumnResolved,
	"已解决":           ColumnResolved,
	"Done":          ColumnDone,
	"完成":            ColumnDone,
	"Closed":        ColumnClosed,
	"已关闭":           ColumnClosed,
}

// keywordFragments is the tier-2 table: ordered keyword fragments matched
// case-insensitively against the input. First fragment found wins, so more
// specific fragments come first.
var keywordFragments = []struct {
	fragment string
	column   ColumnID
}{
	{"closed", ColumnClosed},
	{"close", ColumnClosed},
	{"resolv", ColumnResolved},
	{"已解决", ColumnResolved},
	{"accept", ColumnValidation},
	{"验收", ColumnValidation},
	{"test complete", ColumnTestDone},
	{"测试完成", ColumnTestDone},
	{"testing", ColumnReview},
	{"review", ColumnReview},
	{"测试", ColumnReview},
	{"dev complete", ColumnExecutionDone},
	{"开发完成", ColumnExecutionDone},
	{"progress", ColumnExecution},
	{"doing", ColumnExecution},
	{"develop", ColumnExecution},
	{"ready", ColumnReady},
	{"todo", ColumnReady},
	{"to do", ColumnReady},
	{"backlog", ColumnBacklog},
	{"done", ColumnDone},
	{"完成", ColumnDone},
	{"open", ColumnIntake},
	{"new", ColumnIntake},
}

// StatusMapper resolves remote status text to a board column. Zero value is
// usable; Extra entries let deployments teach the mapper additional remote
// vocabularies as configuration data.
type StatusMapper struct {
	// Extra augments the built-in exact table. Checked before the built-in
	// entries so a deployment can override a default mapping.
	Extra map[string]ColumnID

	// Logger receives fallback warnings. Nil disables them.
	Logger *log.Logger
}

// MapStatus resolves a remote status string to a column id.
//
// Three tiers, first match wins: exact table lookup (user-supplied entries
// first), then ordered case-insensitive keyword scan, then the backlog
// fallback. The fallback is logged as a warning, never raised as an error;
// MapStatus is total and always returns a valid column.
func (m *StatusMapper) MapStatus(remoteStatus string) ColumnID {
	raw := strings.TrimSpace(remoteStatus)

	if col, ok := m.Extra[raw]; ok && ValidColumn(col) {
		return col
	}
	if col, ok := exactStatuses[raw]; ok {
		return col
	}

	lower := strings.ToLower(raw)
	for _, kw := range keywordFragments {
		if strings.Contains(lower, kw.fragment) {
			return kw.column
		}
	}

	if m.Logger != nil {
		m.Logger.Printf("WARNING: unmapped remote status %q, falling back to %s", remoteStatus, FallbackColumn)
	}
	return FallbackColumn
}
