package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inversion-api/inversion-engine-sub011/internal/dialect"
	"github.com/inversion-api/inversion-engine-sub011/internal/query"
	"github.com/inversion-api/inversion-engine-sub011/internal/schema"
)

func TestRegistry_Builtins(t *testing.T) {
	names := dialect.Names()
	for _, want := range []string{"cosmos", "duckdb", "dynamodb", "mysql", "postgres", "sqlite", "sqlserver"} {
		assert.Contains(t, names, want)
	}
	assert.IsIncreasing(t, names)

	d, err := dialect.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, dialect.Default, d.Name)

	d, err = dialect.Lookup("PostgreS")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name)
	assert.Equal(t, dialect.KindSQL, d.Kind)

	_, err = dialect.Lookup("oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "known: ")
}

func TestRegister(t *testing.T) {
	require.Error(t, dialect.Register(nil))
	require.Error(t, dialect.Register(&dialect.Dialect{Name: "incomplete"}))
	require.Error(t, dialect.Register(dialect.SQLite()), "duplicate name")

	d := dialect.Postgres()
	d.Name = "cockroach"
	require.NoError(t, dialect.Register(d))
	got, err := dialect.Lookup("cockroach")
	require.NoError(t, err)
	assert.Same(t, d, got)
}

func TestDialect_Backend(t *testing.T) {
	var backend query.Backend = dialect.SQLite()
	def, max := backend.Limits()
	assert.Equal(t, query.DefaultLimit, def)
	assert.Equal(t, query.MaxLimit, max)

	prop := schema.Property{Name: "orderDate", Type: schema.TypeDateTime}
	v, err := dialect.SQLite().Caster().Cast(prop, "1996-07-04")
	require.NoError(t, err)
	assert.IsType(t, "", v, "sqlite compares dates as text")

	v, err = dialect.Postgres().Caster().Cast(prop, "1996-07-04")
	require.NoError(t, err)
	assert.NotEqual(t, "1996-07-04", v)
}

func TestDialect_Supports(t *testing.T) {
	assert.True(t, dialect.SQLite().Supports("LIKE"))
	assert.False(t, dialect.Cosmos().Supports("like"))
	assert.True(t, dialect.Cosmos().Supports("sw"))
	assert.False(t, dialect.DynamoDB().Supports("ew"))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "sql", dialect.KindSQL.String())
	assert.Equal(t, "document", dialect.KindDocument.String())
	assert.Equal(t, "keyvalue", dialect.KindKeyValue.String())
	assert.Equal(t, "Kind(7)", dialect.Kind(7).String())
}
