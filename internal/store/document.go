package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inversion-api/inversion-engine-sub011/internal/dialect"
	"github.com/inversion-api/inversion-engine-sub011/internal/results"
)

// DocumentParam is one named query parameter.
type DocumentParam struct {
	Name  string
	Value any
}

// DocumentClient is the part of a document-store SDK the executor needs.
type DocumentClient interface {
	Query(ctx context.Context, text string, params []DocumentParam) ([]map[string]any, error)
	Count(ctx context.Context, text string, params []DocumentParam) (int, error)
}

// Document executes document-store statements.
type Document struct {
	client DocumentClient
}

// NewDocument returns an executor using client.
func NewDocument(client DocumentClient) *Document {
	return &Document{client: client}
}

// Execute implements dialect.Executor.
func (d *Document) Execute(ctx context.Context, stmt *dialect.Statement) (*results.Results, error) {
	if stmt.Kind != dialect.KindDocument {
		return nil, fmt.Errorf("document executor cannot run %s statements", stmt.Kind)
	}
	dl, err := dialect.Lookup(stmt.Dialect)
	if err != nil {
		return nil, err
	}

	rows, err := d.client.Query(ctx, stmt.Text, params(dl, stmt.Values))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", stmt.Collection, err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}

	found := -1
	if stmt.CountText != "" {
		if found, err = d.client.Count(ctx, stmt.CountText, params(dl, stmt.CountValues)); err != nil {
			return nil, fmt.Errorf("count %s: %w", stmt.Collection, err)
		}
	}

	next, err := stmt.NextCursor(rows)
	if err != nil {
		return nil, err
	}
	slog.Debug("statement executed", "dialect", stmt.Dialect, "collection", stmt.Collection, "rows", len(rows))

	return &results.Results{
		Rows:   rows,
		Found:  found,
		Page:   stmt.Page,
		Limit:  stmt.Limit,
		Offset: stmt.Offset,
		Next:   next,
	}, nil
}

func params(d *dialect.Dialect, values []any) []DocumentParam {
	out := make([]DocumentParam, len(values))
	for i, v := range values {
		out[i] = DocumentParam{Name: d.Placeholder(i + 1), Value: v}
	}
	return out
}
