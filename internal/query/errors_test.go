package query

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inversion-api/inversion-engine-sub011/internal/rql"
	"github.com/inversion-api/inversion-engine-sub011/internal/schema"
)

func TestCategory(t *testing.T) {
	_, lexErr := rql.Parse(`eq(a,'b`)
	castErr := &schema.CastError{Property: "orderId", Type: schema.TypeInt, Value: "x", Err: errors.New("bad")}

	testCases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{errors.New("disk full"), ""},
		{lexErr, CategoryLexical},
		{&ResolutionError{Collection: "orders", Reference: "nope"}, CategoryResolution},
		{&UnsupportedError{Function: "w"}, CategoryUnsupported},
		{castErr, CategoryCasting},
		{invalid("limit", "0", "must be at least 1"), CategoryInvalid},
		{fmt.Errorf("compile: %w", &UnsupportedError{Function: "w"}), CategoryUnsupported},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, Category(tc.err), "%v", tc.err)
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `cannot resolve "nope" in orders: unknown property`,
		(&ResolutionError{Collection: "orders", Reference: "nope", Message: "unknown property"}).Error())
	assert.Equal(t, "cosmos: w not supported: operator is not supported",
		(&UnsupportedError{Dialect: "cosmos", Function: "w", Message: "operator is not supported"}).Error())
	assert.Equal(t, "frob not supported: unknown function",
		(&UnsupportedError{Function: "frob", Message: "unknown function"}).Error())
	assert.Equal(t, "limit(0): must be at least 1", invalid("limit", "0", "must be at least 1").Error())
	assert.Equal(t, "after: cursor needs a sort order", invalid("after", "", "cursor needs a sort order").Error())
}
