package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inversion-api/inversion-engine-sub011/internal/dialect"
	"github.com/inversion-api/inversion-engine-sub011/internal/query"
	"github.com/inversion-api/inversion-engine-sub011/internal/results"
)

// KeyValueClient runs one page of a key-value request. lastKey is nil
// when there are no more items.
type KeyValueClient interface {
	Query(ctx context.Context, q *dialect.KeyValueQuery) (items []map[string]any, lastKey map[string]any, err error)
}

// KeyValue executes key-value statements. The store cannot count, so
// Found is always -1.
type KeyValue struct {
	client KeyValueClient
}

// NewKeyValue returns an executor using client.
func NewKeyValue(client KeyValueClient) *KeyValue {
	return &KeyValue{client: client}
}

// Execute implements dialect.Executor.
func (kv *KeyValue) Execute(ctx context.Context, stmt *dialect.Statement) (*results.Results, error) {
	if stmt.Native == nil {
		return nil, fmt.Errorf("key-value executor needs a native request, got %s statement", stmt.Kind)
	}

	items, lastKey, err := kv.client.Query(ctx, stmt.Native)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", operation(stmt.Native), stmt.Native.Table, err)
	}
	if items == nil {
		items = []map[string]any{}
	}

	var next string
	if lastKey != nil {
		if next, err = query.EncodeCursor(lastKey); err != nil {
			return nil, err
		}
	}
	slog.Debug("statement executed",
		"dialect", stmt.Dialect,
		"table", stmt.Native.Table,
		"scan", stmt.Native.Scan,
		"items", len(items))

	return &results.Results{
		Rows:   items,
		Found:  -1,
		Page:   stmt.Page,
		Limit:  stmt.Limit,
		Offset: stmt.Offset,
		Next:   next,
	}, nil
}

func operation(q *dialect.KeyValueQuery) string {
	if q.Scan {
		return "scan"
	}
	return "query"
}
