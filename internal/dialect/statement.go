package dialect

import (
	"context"
	"errors"
	"fmt"

	"github.com/inversion-api/inversion-engine-sub011/internal/query"
	"github.com/inversion-api/inversion-engine-sub011/internal/results"
)

// ErrNoExecutor is returned when a non-dry-run Statement has nothing to run on.
var ErrNoExecutor = errors.New("no executor configured")

// Statement is a compiled query, ready to execute.
type Statement struct {
	Dialect    string
	Kind       Kind
	Collection string

	// Text is the query text. Key-value statements render a readable
	// description of Native.
	Text string
	// CountText counts all matching rows; empty when the dialect or the
	// query shape cannot count.
	CountText string

	// Values are the bind values of Text in placeholder order.
	Values []any
	// CountValues are the bind values of CountText.
	CountValues []any

	// Native is the backend request for key-value dialects.
	Native *KeyValueQuery

	Limit  int
	Offset int
	Page   int
	// Sort is the effective ordering, used to build continuation cursors.
	Sort []query.Sort

	DryRun bool
}

// Executor runs Statements against a backend.
type Executor interface {
	Execute(ctx context.Context, stmt *Statement) (*results.Results, error)
}

// Execute runs s on ex. A dry run returns the debug form without touching ex.
func (s *Statement) Execute(ctx context.Context, ex Executor) (*results.Results, error) {
	if s.DryRun {
		return s.DryRunResults(), nil
	}
	if ex == nil {
		return nil, ErrNoExecutor
	}
	res, err := ex.Execute(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", s.Dialect, err)
	}
	return res, nil
}

// Debug describes s for dry runs and logs.
func (s *Statement) Debug() *results.Debug {
	return &results.Debug{
		Dialect:   s.Dialect,
		Text:      s.Text,
		CountText: s.CountText,
		Values:    append([]any{}, s.Values...),
	}
}

// DryRunResults is the empty page returned instead of executing.
func (s *Statement) DryRunResults() *results.Results {
	return &results.Results{
		Rows:   []map[string]any{},
		Found:  -1,
		Page:   s.Page,
		Limit:  s.Limit,
		Offset: s.Offset,
		Debug:  s.Debug(),
	}
}

// NextCursor returns the continuation token after the last of rows, or ""
// when the page is not full or a sort column is missing from the rows.
func (s *Statement) NextCursor(rows []map[string]any) (string, error) {
	if len(rows) == 0 || len(rows) < s.Limit || len(s.Sort) == 0 {
		return "", nil
	}
	last := rows[len(rows)-1]
	keys := make([]any, len(s.Sort))
	for i, sort := range s.Sort {
		v, ok := last[sort.Column.Name]
		if !ok {
			return "", nil
		}
		keys[i] = v
	}
	return query.EncodeCursor(keys)
}
