package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inversion-api/inversion-engine-sub011/internal/dialect"
	"github.com/inversion-api/inversion-engine-sub011/internal/query"
	"github.com/inversion-api/inversion-engine-sub011/internal/store"
	"github.com/inversion-api/inversion-engine-sub011/internal/testutil"
)

type fakeDocuments struct {
	texts  []string
	params [][]store.DocumentParam
	rows   []map[string]any
	count  int
	err    error
}

func (f *fakeDocuments) Query(_ context.Context, text string, params []store.DocumentParam) ([]map[string]any, error) {
	f.texts = append(f.texts, text)
	f.params = append(f.params, params)
	return f.rows, f.err
}

func (f *fakeDocuments) Count(_ context.Context, text string, params []store.DocumentParam) (int, error) {
	f.texts = append(f.texts, text)
	f.params = append(f.params, params)
	return f.count, nil
}

func compileFor(t *testing.T, name, collection, rql string) *dialect.Statement {
	t.Helper()
	d, err := dialect.Lookup(name)
	require.NoError(t, err)
	stmt, err := d.CompileRQL(testutil.Northwind(), collection, rql)
	require.NoError(t, err)
	return stmt
}

func TestDocument_Execute(t *testing.T) {
	client := &fakeDocuments{
		rows:  []map[string]any{{"orderID": int64(10248)}, {"orderID": int64(10251)}},
		count: 3,
	}
	stmt := compileFor(t, "cosmos", "orders", `eq(shipCountry,France),sw(shipName,V),limit(2)`)

	res, err := store.NewDocument(client).Execute(context.Background(), stmt)
	require.NoError(t, err)

	require.Len(t, client.texts, 2)
	assert.Equal(t, stmt.Text, client.texts[0])
	assert.Equal(t, stmt.CountText, client.texts[1])
	assert.Equal(t, []store.DocumentParam{{Name: "@p1", Value: "France"}, {Name: "@p2", Value: "V"}}, client.params[0])

	assert.Equal(t, 3, res.Found)
	assert.Len(t, res.Rows, 2)
	assert.NotEmpty(t, res.Next, "full page")

	var keys []any
	require.NoError(t, query.DecodeCursor(res.Next, &keys))
	assert.Equal(t, []any{int64(10251)}, keys)
}

func TestDocument_Errors(t *testing.T) {
	boom := errors.New("throttled")
	stmt := compileFor(t, "cosmos", "orders", `eq(shipCountry,France)`)
	_, err := store.NewDocument(&fakeDocuments{err: boom}).Execute(context.Background(), stmt)
	assert.ErrorIs(t, err, boom)

	_, err = store.NewDocument(&fakeDocuments{}).Execute(context.Background(), compileFor(t, "sqlite", "orders", ``))
	assert.ErrorContains(t, err, "cannot run sql statements")
}

type fakeKeyValue struct {
	got     *dialect.KeyValueQuery
	items   []map[string]any
	lastKey map[string]any
}

func (f *fakeKeyValue) Query(_ context.Context, q *dialect.KeyValueQuery) ([]map[string]any, map[string]any, error) {
	f.got = q
	return f.items, f.lastKey, nil
}

func TestKeyValue_Execute(t *testing.T) {
	client := &fakeKeyValue{
		items:   []map[string]any{{"orderID": int64(10248), "productID": int64(11)}},
		lastKey: map[string]any{"orderID": int64(10248), "productID": int64(11)},
	}
	stmt := compileFor(t, "dynamodb", "orderDetails", `eq(orderId,10248),limit(1)`)

	res, err := store.NewKeyValue(client).Execute(context.Background(), stmt)
	require.NoError(t, err)
	assert.Same(t, stmt.Native, client.got)
	assert.Equal(t, -1, res.Found)
	assert.Equal(t, 1, res.Limit)
	require.NotEmpty(t, res.Next)

	// The continuation feeds straight back into the next request.
	next := compileFor(t, "dynamodb", "orderDetails", `eq(orderId,10248),limit(1),after(`+res.Next+`)`)
	assert.Equal(t, client.lastKey, next.Native.StartKey)

	client.lastKey = nil
	res, err = store.NewKeyValue(client).Execute(context.Background(), next)
	require.NoError(t, err)
	assert.Empty(t, res.Next)
}

func TestKeyValue_NeedsNative(t *testing.T) {
	_, err := store.NewKeyValue(&fakeKeyValue{}).Execute(context.Background(), compileFor(t, "sqlite", "orders", ``))
	assert.ErrorContains(t, err, "needs a native request")
}
