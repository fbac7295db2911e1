package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inversion-api/inversion-engine-sub011/internal/query"
)

func TestDynamoDB_Query(t *testing.T) {
	stmt := compile(t, "dynamodb", "orderDetails", `eq(orderId,10248),gt(productId,11),gt(quantity,5)`)
	kv := stmt.Native
	require.NotNil(t, kv)

	assert.False(t, kv.Scan)
	assert.Equal(t, "orderDetails", kv.Table)
	assert.Equal(t, "orderID", kv.PartitionKey)
	assert.Equal(t, "productID", kv.SortKey)
	assert.Equal(t, "#n0 = :v0 AND #n1 > :v1", kv.KeyCondition)
	assert.Equal(t, "#n2 > :v2", kv.Filter)
	assert.Equal(t, map[string]string{"#n0": "orderID", "#n1": "productID", "#n2": "quantity"}, kv.Names)
	assert.Equal(t, map[string]any{":v0": int64(10248), ":v1": int64(11), ":v2": int64(5)}, kv.Values)
	assert.Equal(t, []any{int64(10248), int64(11), int64(5)}, stmt.Values)
	assert.Equal(t, "QUERY orderDetails KEY #n0 = :v0 AND #n1 > :v1 FILTER #n2 > :v2 LIMIT 100", stmt.Text)
	assert.True(t, kv.Forward)
}

func TestDynamoDB_Shapes(t *testing.T) {
	testCases := []struct {
		name       string
		collection string
		rql        string
		text       string
	}{
		{"scan", "orderDetails", `eq(quantity,5)`, "SCAN orderDetails FILTER #n0 = :v0 LIMIT 100"},
		{"descending", "orderDetails", `eq(orderId,10248),sort(-productId)`, "QUERY orderDetails KEY #n0 = :v0 LIMIT 100 DESC"},
		{"projection", "orderDetails", `eq(orderId,1),includes(unitPrice,quantity)`, "QUERY orderDetails KEY #n0 = :v0 PROJECT #n1, #n2 LIMIT 100"},
		{"begins with", "employeeTerritories", `eq(employeeId,1),sw(territoryId,0)`, "QUERY employeeTerritories KEY #n0 = :v0 AND begins_with(#n1, :v1) LIMIT 100"},
		{"nested filter", "orderDetails", `eq(orderId,1),or(lt(quantity,2),n(discount))`, "QUERY orderDetails KEY #n0 = :v0 FILTER (#n1 < :v1 OR attribute_not_exists(#n2)) LIMIT 100"},
		{"second sort key condition filters", "orderDetails", `eq(orderId,1),gt(productId,1),lt(productId,9)`, "QUERY orderDetails KEY #n0 = :v0 AND #n1 > :v1 FILTER #n1 < :v2 LIMIT 100"},
		{"limit", "orderDetails", `eq(orderId,1),limit(5)`, "QUERY orderDetails KEY #n0 = :v0 LIMIT 5"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stmt := compile(t, "dynamodb", tc.collection, tc.rql)
			assert.Equal(t, tc.text, stmt.Text)
		})
	}
}

func TestDynamoDB_StartKey(t *testing.T) {
	token, err := query.EncodeCursor(map[string]any{"orderID": int64(10248), "productID": int64(11)})
	require.NoError(t, err)

	stmt := compile(t, "dynamodb", "orderDetails", `eq(orderId,10248),after(`+token+`)`)
	assert.Equal(t, map[string]any{"orderID": int64(10248), "productID": int64(11)}, stmt.Native.StartKey)
	assert.Equal(t, "QUERY orderDetails KEY #n0 = :v0 LIMIT 100 AFTER", stmt.Text)
}

func TestDynamoDB_Unsupported(t *testing.T) {
	testCases := []struct {
		rql      string
		function string
	}{
		{`eq(orderId,1),sort(quantity)`, "sort"},
		{`eq(quantity,1),sort(productId)`, "sort"},
		{`page(2)`, "offset"},
		{`count(*)`, "count"},
		{`group(orderId)`, "group"},
		{`distinct(quantity)`, "distinct"},
		{`ew(unitPrice,5)`, "ew"},
		{`emp(discount)`, "emp"},
		{`eq(order.shipCity,Reims)`, "order"},
	}

	for _, tc := range testCases {
		t.Run(tc.rql, func(t *testing.T) {
			err := compileErr(t, "dynamodb", "orderDetails", tc.rql)
			var ue *query.UnsupportedError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, "dynamodb", ue.Dialect)
			assert.Equal(t, tc.function, ue.Function)
		})
	}
}
