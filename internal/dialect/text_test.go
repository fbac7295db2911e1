package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inversion-api/inversion-engine-sub011/internal/dialect"
	"github.com/inversion-api/inversion-engine-sub011/internal/query"
	"github.com/inversion-api/inversion-engine-sub011/internal/testutil"
)

func compile(t *testing.T, name, collection, rql string) *dialect.Statement {
	t.Helper()
	d, err := dialect.Lookup(name)
	require.NoError(t, err)
	stmt, err := d.CompileRQL(testutil.Northwind(), collection, rql)
	require.NoError(t, err)
	return stmt
}

func compileErr(t *testing.T, name, collection, rql string) error {
	t.Helper()
	d, err := dialect.Lookup(name)
	require.NoError(t, err)
	_, err = d.CompileRQL(testutil.Northwind(), collection, rql)
	require.Error(t, err)
	return err
}

func TestSQLite_Fixtures(t *testing.T) {
	testCases := []struct {
		name   string
		rql    string
		text   string
		values []any
	}{
		{
			name:   "equality conjunction",
			rql:    `eq(orderID,1234),eq(shipCountry,"France")`,
			text:   `SELECT "orders".* FROM "orders" WHERE "orders"."orderID" = ? AND "orders"."shipCountry" = ? ORDER BY "orders"."orderID" ASC LIMIT 100 OFFSET 0`,
			values: []any{int64(1234), "France"},
		},
		{
			name:   "like passthrough",
			rql:    `like(shipCountry,"F%ance")`,
			text:   `SELECT "orders".* FROM "orders" WHERE "orders"."shipCountry" LIKE ? ORDER BY "orders"."orderID" ASC LIMIT 100 OFFSET 0`,
			values: []any{"F%ance"},
		},
		{
			name:   "wildcard eq becomes starts with",
			rql:    `eq(shipCountry,F*)`,
			text:   `SELECT "orders".* FROM "orders" WHERE "orders"."shipCountry" LIKE ? ESCAPE '\' ORDER BY "orders"."orderID" ASC LIMIT 100 OFFSET 0`,
			values: []any{"F%"},
		},
		{
			name:   "contains",
			rql:    `like(shipName,*text*)`,
			text:   `SELECT "orders".* FROM "orders" WHERE "orders"."shipName" LIKE ? ESCAPE '\' ORDER BY "orders"."orderID" ASC LIMIT 100 OFFSET 0`,
			values: []any{"%text%"},
		},
		{
			name:   "without",
			rql:    `wo(shipName,text)`,
			text:   `SELECT "orders".* FROM "orders" WHERE NOT ("orders"."shipName" LIKE ? ESCAPE '\') ORDER BY "orders"."orderID" ASC LIMIT 100 OFFSET 0`,
			values: []any{"%text%"},
		},
		{
			name:   "includes",
			rql:    `includes(shipName,shipCity)`,
			text:   `SELECT "orders"."shipName", "orders"."shipCity" FROM "orders" ORDER BY "orders"."orderID" ASC LIMIT 100 OFFSET 0`,
			values: nil,
		},
		{
			name:   "multi-value eq",
			rql:    `eq(orderID,1,2,3)`,
			text:   `SELECT "orders".* FROM "orders" WHERE "orders"."orderID" IN (?, ?, ?) ORDER BY "orders"."orderID" ASC LIMIT 100 OFFSET 0`,
			values: []any{int64(1), int64(2), int64(3)},
		},
		{
			name:   "null checks",
			rql:    `eq(shippedDate,null),nn(shipRegion)`,
			text:   `SELECT "orders".* FROM "orders" WHERE "orders"."shippedDate" IS NULL AND "orders"."shipRegion" IS NOT NULL ORDER BY "orders"."orderID" ASC LIMIT 100 OFFSET 0`,
			values: nil,
		},
		{
			name:   "empty",
			rql:    `emp(shipRegion)`,
			text:   `SELECT "orders".* FROM "orders" WHERE ("orders"."shipRegion" IS NULL OR "orders"."shipRegion" = '') ORDER BY "orders"."orderID" ASC LIMIT 100 OFFSET 0`,
			values: nil,
		},
		{
			name:   "nested boolean",
			rql:    `or(eq(shipCity,Paris),and(eq(shipCountry,Germany),gt(freight,10)))`,
			text:   `SELECT "orders".* FROM "orders" WHERE ("orders"."shipCity" = ? OR ("orders"."shipCountry" = ? AND "orders"."freight" > ?)) ORDER BY "orders"."orderID" ASC LIMIT 100 OFFSET 0`,
			values: []any{"Paris", "Germany", float64(10)},
		},
		{
			name:   "negation",
			rql:    `not(and(eq(shipCity,Paris),eq(shipVia,2)))`,
			text:   `SELECT "orders".* FROM "orders" WHERE NOT ("orders"."shipCity" = ? AND "orders"."shipVia" = ?) ORDER BY "orders"."orderID" ASC LIMIT 100 OFFSET 0`,
			values: []any{"Paris", int64(2)},
		},
		{
			name:   "foreign key shortcut",
			rql:    `eq(customer,VINET)`,
			text:   `SELECT "orders".* FROM "orders" WHERE "orders"."customerID" = ? ORDER BY "orders"."orderID" ASC LIMIT 100 OFFSET 0`,
			values: []any{"VINET"},
		},
		{
			name:   "explicit order and page",
			rql:    `sort(-freight,shipCity),page(3),pageSize(10)`,
			text:   `SELECT "orders".* FROM "orders" ORDER BY "orders"."freight" DESC, "orders"."shipCity" ASC LIMIT 10 OFFSET 20`,
			values: nil,
		},
		{
			name:   "distinct",
			rql:    `distinct(shipCountry)`,
			text:   `SELECT DISTINCT "orders"."shipCountry" FROM "orders" ORDER BY "orders"."shipCountry" ASC LIMIT 100 OFFSET 0`,
			values: nil,
		},
		{
			name:   "group with count",
			rql:    `group(shipCountry),count(*)`,
			text:   `SELECT "orders"."shipCountry", COUNT(*) AS "$$$ANON_1" FROM "orders" GROUP BY "orders"."shipCountry" ORDER BY "orders"."shipCountry" ASC LIMIT 100 OFFSET 0`,
			values: nil,
		},
		{
			name:   "aliased aggregate",
			rql:    `max(freight,'top')`,
			text:   `SELECT MAX("orders"."freight") AS "top" FROM "orders" LIMIT 100 OFFSET 0`,
			values: nil,
		},
		{
			name:   "from alias",
			rql:    `from(orders,o),eq(shipCity,Reims)`,
			text:   `SELECT "o".* FROM "orders" AS "o" WHERE "o"."shipCity" = ? ORDER BY "o"."orderID" ASC LIMIT 100 OFFSET 0`,
			values: []any{"Reims"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stmt := compile(t, "sqlite", "orders", tc.rql)
			assert.Equal(t, tc.text, stmt.Text)
			assert.Equal(t, tc.values, stmt.Values)
		})
	}
}

func TestSQLite_Hops(t *testing.T) {
	stmt := compile(t, "sqlite", "orders", `eq(customer.city,Berlin)`)
	assert.Equal(t, `SELECT "orders".* FROM "orders" WHERE EXISTS (SELECT 1 FROM "customers" AS "customer" WHERE "customer"."customerID" = "orders"."customerID" AND "customer"."city" = ?) ORDER BY "orders"."orderID" ASC LIMIT 100 OFFSET 0`, stmt.Text)
	assert.Equal(t, []any{"Berlin"}, stmt.Values)

	stmt = compile(t, "sqlite", "employees", `eq(territories.territoryDescription,Boston)`)
	assert.Equal(t, `SELECT "employees".* FROM "employees" WHERE EXISTS (SELECT 1 FROM "territories", "employeeTerritories" AS "territories_link" WHERE "territories_link"."employeeID" = "employees"."employeeID" AND "territories_link"."territoryID" = "territories"."territoryID" AND "territories"."territoryDescription" = ?) ORDER BY "employees"."employeeID" ASC LIMIT 100 OFFSET 0`, stmt.Text)

	stmt = compile(t, "sqlite", "customers", `gt(orders.freight,100)`)
	assert.Equal(t, `SELECT "customers".* FROM "customers" WHERE EXISTS (SELECT 1 FROM "orders" WHERE "orders"."customerID" = "customers"."customerID" AND "orders"."freight" > ?) ORDER BY "customers"."customerID" ASC LIMIT 100 OFFSET 0`, stmt.Text)
}

func TestSQLite_CountText(t *testing.T) {
	stmt := compile(t, "sqlite", "orders", `eq(shipCountry,France),limit(2)`)
	assert.Equal(t, `SELECT COUNT(*) FROM "orders" WHERE "orders"."shipCountry" = ?`, stmt.CountText)
	assert.Equal(t, []any{"France"}, stmt.CountValues)

	stmt = compile(t, "sqlite", "orders", `group(shipCountry),count(*)`)
	assert.Equal(t, `SELECT COUNT(*) FROM (SELECT "orders"."shipCountry", COUNT(*) AS "$$$ANON_1" FROM "orders" GROUP BY "orders"."shipCountry") AS "_rows"`, stmt.CountText)

	stmt = compile(t, "sqlite", "orders", `count(*)`)
	assert.Empty(t, stmt.CountText)
}

func TestSQLite_Cursor(t *testing.T) {
	token, err := query.EncodeCursor([]any{int64(10250)})
	require.NoError(t, err)

	stmt := compile(t, "sqlite", "orders", `eq(shipCountry,France),offset(5),after(`+token+`)`)
	assert.Equal(t, `SELECT "orders".* FROM "orders" WHERE "orders"."shipCountry" = ? AND "orders"."orderID" > ? ORDER BY "orders"."orderID" ASC LIMIT 100 OFFSET 0`, stmt.Text)
	assert.Equal(t, []any{"France", int64(10250)}, stmt.Values)
	assert.Equal(t, []any{"France"}, stmt.CountValues)
	assert.Equal(t, 0, stmt.Offset)

	token, err = query.EncodeCursor([]any{12.5, int64(10250)})
	require.NoError(t, err)
	stmt = compile(t, "sqlite", "orders", `sort(-freight,orderId),after(`+token+`)`)
	assert.Equal(t, `SELECT "orders".* FROM "orders" WHERE ("orders"."freight" < ? OR ("orders"."freight" = ? AND "orders"."orderID" > ?)) ORDER BY "orders"."freight" DESC, "orders"."orderID" ASC LIMIT 100 OFFSET 0`, stmt.Text)
	assert.Equal(t, []any{12.5, 12.5, int64(10250)}, stmt.Values)

	err = compileErr(t, "sqlite", "orders", `after(bm90LWEtY3Vyc29y)`)
	assert.True(t, query.IsInvalid(err))
}

func TestDialects_Syntax(t *testing.T) {
	const rql = `eq(orderID,1),ne(shipCity,Paris)`
	testCases := []struct {
		dialect string
		text    string
	}{
		{"sqlite", `SELECT "orders".* FROM "orders" WHERE "orders"."orderID" = ? AND NOT ("orders"."shipCity" = ?) ORDER BY "orders"."orderID" ASC LIMIT 100 OFFSET 0`},
		{"duckdb", `SELECT "orders".* FROM "orders" WHERE "orders"."orderID" = ? AND NOT ("orders"."shipCity" = ?) ORDER BY "orders"."orderID" ASC LIMIT 100 OFFSET 0`},
		{"postgres", `SELECT "orders".* FROM "orders" WHERE "orders"."orderID" = $1 AND NOT ("orders"."shipCity" = $2) ORDER BY "orders"."orderID" ASC LIMIT 100 OFFSET 0`},
		{"mysql", "SELECT `orders`.* FROM `orders` WHERE `orders`.`orderID` = ? AND NOT (`orders`.`shipCity` = ?) ORDER BY `orders`.`orderID` ASC LIMIT 100 OFFSET 0"},
		{"sqlserver", `SELECT [orders].* FROM [orders] WHERE [orders].[orderID] = @p1 AND NOT ([orders].[shipCity] = @p2) ORDER BY [orders].[orderID] ASC OFFSET 0 ROWS FETCH NEXT 100 ROWS ONLY`},
		{"cosmos", `SELECT * FROM orders WHERE orders["orderID"] = @p1 AND orders["shipCity"] != @p2 ORDER BY orders["orderID"] ASC OFFSET 0 LIMIT 100`},
	}

	for _, tc := range testCases {
		t.Run(tc.dialect, func(t *testing.T) {
			stmt := compile(t, tc.dialect, "orders", rql)
			assert.Equal(t, tc.text, stmt.Text)
			assert.Equal(t, []any{int64(1), "Paris"}, stmt.Values)
		})
	}
}

func TestPatternOperators_MatchLiterally(t *testing.T) {
	testCases := []struct {
		dialect string
		rql     string
		text    string
		value   string
	}{
		{"sqlite", `sw(shipCountry,'5_%')`, `"orders"."shipCountry" LIKE ? ESCAPE '\'`, `5\_\%%`},
		{"sqlite", `ew(shipCountry,'a\\b')`, `"orders"."shipCountry" LIKE ? ESCAPE '\'`, `%a\\b`},
		{"postgres", `w(shipName,'100%')`, `"orders"."shipName" LIKE $1 ESCAPE '\'`, `%100\%%`},
		{"mysql", `wo(shipName,'a_b')`, "NOT (`orders`.`shipName` LIKE ? ESCAPE '\\\\')", `%a\_b%`},
		{"sqlserver", `sw(shipName,'[x]')`, `[orders].[shipName] LIKE @p1 ESCAPE '\'`, `\[x]%`},
		{"sqlite", `like(shipCountry,'5_%')`, `"orders"."shipCountry" LIKE ? ORDER BY`, `5_%`},
	}

	for _, tc := range testCases {
		t.Run(tc.dialect+" "+tc.rql, func(t *testing.T) {
			stmt := compile(t, tc.dialect, "orders", tc.rql)
			assert.Contains(t, stmt.Text, tc.text)
			assert.Equal(t, []any{tc.value}, stmt.Values)
		})
	}

	stmt := compile(t, "cosmos", "orders", `sw(shipCountry,'5_%')`)
	assert.Equal(t, []any{"5_%"}, stmt.Values)
}

func TestSQLServer_UnorderedPaging(t *testing.T) {
	stmt := compile(t, "sqlserver", "orders", `count(*)`)
	assert.Equal(t, `SELECT COUNT(*) AS [$$$ANON_1] FROM [orders] ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT 100 ROWS ONLY`, stmt.Text)
}

func TestCosmos(t *testing.T) {
	stmt := compile(t, "cosmos", "orders", `like(shipName,text*)`)
	assert.Equal(t, `SELECT * FROM orders WHERE STARTSWITH(orders["shipName"], @p1) ORDER BY orders["orderID"] ASC OFFSET 0 LIMIT 100`, stmt.Text)
	assert.Equal(t, []any{"text"}, stmt.Values)
	assert.Equal(t, `SELECT VALUE COUNT(1) FROM orders WHERE STARTSWITH(orders["shipName"], @p1)`, stmt.CountText)

	stmt = compile(t, "cosmos", "orders", `as(shipCountry,country)`)
	assert.Equal(t, `SELECT orders["shipCountry"] AS country FROM orders ORDER BY orders["orderID"] ASC OFFSET 0 LIMIT 100`, stmt.Text)

	stmt = compile(t, "cosmos", "orders", `includes(shipName),eq(shippedDate,null)`)
	assert.Equal(t, `SELECT orders["shipName"] AS shipName FROM orders WHERE IS_NULL(orders["shippedDate"]) ORDER BY orders["orderID"] ASC OFFSET 0 LIMIT 100`, stmt.Text)

	testCases := []struct {
		rql      string
		function string
	}{
		{`like(shipName,*text*)`, "w"},
		{`like(shipName,'te%t')`, "like"},
		{`eq(customer.city,Berlin)`, "customer"},
		{`count(*)`, "count"},
		{`group(shipCountry)`, "group"},
		{`as(shipCountry,'ship country')`, "as"},
		{`from(orders,'o rders')`, "from"},
	}
	for _, tc := range testCases {
		t.Run(tc.rql, func(t *testing.T) {
			err := compileErr(t, "cosmos", "orders", tc.rql)
			var ue *query.UnsupportedError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, "cosmos", ue.Dialect)
			assert.Equal(t, tc.function, ue.Function)
		})
	}
}

func TestCompile_PostgresCountPlaceholders(t *testing.T) {
	token, err := query.EncodeCursor([]any{int64(7)})
	require.NoError(t, err)
	stmt := compile(t, "postgres", "orders", `eq(shipCity,Reims),after(`+token+`)`)
	assert.Equal(t, `SELECT COUNT(*) FROM "orders" WHERE "orders"."shipCity" = $1`, stmt.CountText)
	assert.Contains(t, stmt.Text, `"orders"."orderID" > $2`)
}

func TestCompile_DryRunFlag(t *testing.T) {
	d, err := dialect.Lookup("sqlite")
	require.NoError(t, err)
	q, err := d.Query(testutil.Northwind(), "orders")
	require.NoError(t, err)
	require.NoError(t, q.WithRQL(`eq(shipCity,Reims)`))
	q.SetDryRun(true)

	stmt, err := d.Compile(q)
	require.NoError(t, err)
	assert.True(t, stmt.DryRun)
	assert.Equal(t, "orders", stmt.Collection)
	assert.Equal(t, 100, stmt.Limit)
	assert.Equal(t, 1, stmt.Page)
}

func TestCompile_PagingBounds(t *testing.T) {
	stmt := compile(t, "sqlite", "orders", `limit(5000)`)
	assert.Equal(t, 1000, stmt.Limit)
	assert.Contains(t, stmt.Text, "LIMIT 1000 OFFSET 0")

	d := dialect.SQLite()
	d.Name = "sqlite-small"
	d.DefaultLimit, d.MaxLimit = 10, 20
	stmt, err := d.CompileRQL(testutil.Northwind(), "orders", `page(2)`)
	require.NoError(t, err)
	assert.Contains(t, stmt.Text, "LIMIT 10 OFFSET 10")
	assert.Equal(t, 2, stmt.Page)
}
