package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inversion-api/inversion-engine-sub011/internal/dialect"
	"github.com/inversion-api/inversion-engine-sub011/internal/results"
	"github.com/inversion-api/inversion-engine-sub011/internal/store"
	"github.com/inversion-api/inversion-engine-sub011/internal/testutil"
)

// execute compiles rql for sqlite and runs it against ex.
func execute(t *testing.T, ex dialect.Executor, collection, rql string) *results.Results {
	t.Helper()
	d, err := dialect.Lookup("sqlite")
	require.NoError(t, err)
	stmt, err := d.CompileRQL(testutil.Northwind(), collection, rql)
	require.NoError(t, err)
	res, err := stmt.Execute(context.Background(), ex)
	require.NoError(t, err)
	return res
}

func TestSQL_Filters(t *testing.T) {
	ex := store.NewSQL(testutil.NorthwindDB(t))

	testCases := []struct {
		name       string
		collection string
		rql        string
		column     string
		want       []any
	}{
		{"equality", "orders", `eq(shipCountry,France)`, "orderID", []any{int64(10248), int64(10251), int64(10252)}},
		{"starts with", "orders", `eq(shipCity,R*)`, "orderID", []any{int64(10248), int64(10250), int64(10252)}},
		{"contains", "orders", `like(shipName,*Carnes*)`, "orderID", []any{int64(10250)}},
		{"null", "orders", `eq(shippedDate,null)`, "orderID", []any{int64(10252)}},
		{"empty", "orders", `nemp(shipRegion)`, "orderID", []any{int64(10250)}},
		{"in", "orders", `eq(orderId,10249,10250)`, "orderID", []any{int64(10249), int64(10250)}},
		{"date text", "orders", `gt(orderDate,1996-07-08)`, "orderID", []any{int64(10252)}},
		{"boolean tree", "orders", `or(eq(shipCity,Lyon),and(eq(shipCountry,France),lt(freight,40)))`, "orderID", []any{int64(10248), int64(10251)}},
		{"many-to-one hop", "orders", `eq(customer.city,Reims)`, "orderID", []any{int64(10248), int64(10252)}},
		{"one-to-many hop", "customers", `gt(orders.freight,50)`, "customerID", []any{"HANAR", "VINET"}},
		{"many-to-many hop", "employees", `eq(territories.territoryDescription,Wilton)`, "employeeID", []any{int64(4)}},
		{"composite key", "orderDetails", `_key(10250~51)`, "quantity", []any{int64(35)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := execute(t, ex, tc.collection, tc.rql)
			assert.Equal(t, tc.want, res.Values(tc.column))
			assert.Equal(t, len(tc.want), res.Found)
		})
	}
}

func TestSQL_Paging(t *testing.T) {
	ex := store.NewSQL(testutil.NorthwindDB(t))

	res := execute(t, ex, "orders", `sort(-freight),page(2),pageSize(2)`)
	assert.Equal(t, []any{int64(10251), int64(10248)}, res.Values("orderID"))
	assert.Equal(t, 5, res.Found)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 2, res.Offset)
	assert.Equal(t, 2, res.Limit)
	assert.NotEmpty(t, res.Next)
}

func TestSQL_Cursor(t *testing.T) {
	ex := store.NewSQL(testutil.NorthwindDB(t))

	first := execute(t, ex, "orders", `eq(shipCountry,France),limit(2)`)
	assert.Equal(t, []any{int64(10248), int64(10251)}, first.Values("orderID"))
	assert.Equal(t, 3, first.Found)
	require.NotEmpty(t, first.Next)

	second := execute(t, ex, "orders", `eq(shipCountry,France),limit(2),after(`+first.Next+`)`)
	assert.Equal(t, []any{int64(10252)}, second.Values("orderID"))
	assert.Equal(t, 3, second.Found, "count ignores the cursor")
	assert.Empty(t, second.Next)
}

func TestSQL_Projections(t *testing.T) {
	ex := store.NewSQL(testutil.NorthwindDB(t))

	res := execute(t, ex, "orders", `includes(shipCountry,shipCity),eq(orderId,10248)`)
	assert.Equal(t, []string{"shipCountry", "shipCity"}, res.Columns)
	assert.Equal(t, []map[string]any{{"shipCountry": "France", "shipCity": "Reims"}}, res.Rows)

	res = execute(t, ex, "orders", `group(shipCountry),count(*)`)
	assert.Equal(t, []any{"Brazil", "France", "Germany"}, res.Values("shipCountry"))
	assert.Equal(t, []any{int64(1), int64(3), int64(1)}, res.Values("$$$ANON_1"))
	assert.Equal(t, 3, res.Found)

	res = execute(t, ex, "orders", `max(freight,'top')`)
	assert.Equal(t, []any{65.83}, res.Values("top"))
	assert.Equal(t, 1, res.Found)

	res = execute(t, ex, "orders", `distinct(shipCountry)`)
	assert.Equal(t, []any{"Brazil", "France", "Germany"}, res.Values("shipCountry"))
	assert.Equal(t, 3, res.Found)

	res = execute(t, ex, "orders", `excludes(shipAddress),eq(orderId,10249)`)
	require.Len(t, res.Rows, 1)
	assert.NotContains(t, res.Rows[0], "shipAddress")
	assert.Contains(t, res.Rows[0], "shipName")
}

func TestSQL_EmptyPage(t *testing.T) {
	ex := store.NewSQL(testutil.NorthwindDB(t))

	res := execute(t, ex, "orders", `eq(shipCountry,Peru)`)
	assert.NotNil(t, res.Rows)
	assert.Empty(t, res.Rows)
	assert.Zero(t, res.Found)
	assert.Empty(t, res.Next)
}

func TestSQL_WrongKind(t *testing.T) {
	ex := store.NewSQL(testutil.NorthwindDB(t))
	_, err := ex.Execute(context.Background(), &dialect.Statement{Kind: dialect.KindDocument})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot run document statements")
}

func TestSQL_DryRunSkipsDatabase(t *testing.T) {
	db := testutil.NorthwindDB(t)
	require.NoError(t, db.Close())

	d, err := dialect.Lookup("sqlite")
	require.NoError(t, err)
	q, err := d.Query(testutil.Northwind(), "orders")
	require.NoError(t, err)
	require.NoError(t, q.WithRQL(`eq(shipCountry,France)`))
	q.SetDryRun(true)
	stmt, err := d.Compile(q)
	require.NoError(t, err)

	res, err := stmt.Execute(context.Background(), store.NewSQL(db))
	require.NoError(t, err)
	assert.Equal(t, -1, res.Found)
	assert.Equal(t, []any{"France"}, res.Debug.Values)
}

func TestOpen(t *testing.T) {
	s, err := store.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	var one int
	require.NoError(t, s.DB().QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)

	_, err = s.DB().Exec("CREATE TABLE t (x INTEGER)")
	assert.Error(t, err, "connections are read-only")

	_, err = store.Open("mysql", "")
	assert.ErrorContains(t, err, `no database driver for dialect "mysql"`)

	_, err = store.OpenDriver("nope", "")
	assert.ErrorContains(t, err, "failed to open database")
}

func TestDriverFor(t *testing.T) {
	testCases := map[string]string{"sqlite": "sqlite3", "postgres": "pgx", "duckdb": "duckdb"}
	for name, want := range testCases {
		got, err := store.DriverFor(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := store.DriverFor("cosmos")
	assert.Error(t, err)
}
