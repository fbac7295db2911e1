package dialect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/inversion-api/inversion-engine-sub011/internal/query"
	"github.com/inversion-api/inversion-engine-sub011/internal/schema"
)

func quoteWith(open, close string) func(string) string {
	return func(name string) string {
		return open + strings.ReplaceAll(name, close, close+close) + close
	}
}

func question(int) string { return "?" }

func numbered(prefix string) func(int) string {
	return func(n int) string { return fmt.Sprintf("%s%d", prefix, n) }
}

func limitOffset(limit, offset int) string {
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}

// likeEscape describes how a dialect matches LIKE metacharacters literally.
type likeEscape struct {
	clause   string // appended after the pattern placeholder
	specials string // characters prefixed with a backslash
}

var (
	standardLike  = likeEscape{clause: ` ESCAPE '\'`, specials: `\%_`}
	mysqlLike     = likeEscape{clause: ` ESCAPE '\\'`, specials: `\%_`}
	sqlServerLike = likeEscape{clause: ` ESCAPE '\'`, specials: `\%_[`}
)

func (e likeEscape) quote(v any) string {
	s := fmt.Sprint(v)
	if !strings.ContainsAny(s, e.specials) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(e.specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// pattern matches v literally with % before and/or after it.
func (e likeEscape) pattern(before, after bool) func(any) any {
	return func(v any) any {
		s := e.quote(v)
		if before {
			s = "%" + s
		}
		if after {
			s += "%"
		}
		return s
	}
}

// sqlOperators is the operator table shared by the relational dialects.
// like binds its pattern unchanged; sw, ew, w and wo match their value
// literally.
func sqlOperators(e likeEscape) map[string]Operator {
	like := "{c} LIKE {v}" + e.clause
	return map[string]Operator{
		"eq":   {Template: "{c} = {v}"},
		"ne":   {Template: "NOT ({c} = {v})"},
		"lt":   {Template: "{c} < {v}"},
		"le":   {Template: "{c} <= {v}"},
		"gt":   {Template: "{c} > {v}"},
		"ge":   {Template: "{c} >= {v}"},
		"in":   {Template: "{c} IN ({v})"},
		"out":  {Template: "{c} NOT IN ({v})"},
		"like": {Template: "{c} LIKE {v}"},
		"sw":   {Template: like, Value: e.pattern(false, true)},
		"ew":   {Template: like, Value: e.pattern(true, false)},
		"w":    {Template: like, Value: e.pattern(true, true)},
		"wo":   {Template: "NOT (" + like + ")", Value: e.pattern(true, true)},
		"n":    {Template: "{c} IS NULL"},
		"nn":   {Template: "{c} IS NOT NULL"},
		"emp":  {Template: "({c} IS NULL OR {c} = '')"},
		"nemp": {Template: "({c} IS NOT NULL AND {c} <> '')"},
	}
}

func relational(name string) *Dialect {
	return &Dialect{
		Name:         name,
		Kind:         KindSQL,
		QuoteIdent:   quoteWith(`"`, `"`),
		Star:         func(alias string) string { return quoteWith(`"`, `"`)(alias) + ".*" },
		Placeholder:  question,
		Paginate:     limitOffset,
		CountExpr:    "COUNT(*)",
		Operators:    sqlOperators(standardLike),
		DefaultLimit: query.DefaultLimit,
		MaxLimit:     query.MaxLimit,
		DefaultSort:  true,
		Hops:         true,
		Aggregates:   true,
		Distinct:     true,
	}
}

// SQLite stores dates as ISO-8601 text.
func SQLite() *Dialect {
	d := relational("sqlite")
	d.Cast = schema.TextTimeCaster
	return d
}

// Postgres numbers its placeholders.
func Postgres() *Dialect {
	d := relational("postgres")
	d.Placeholder = numbered("$")
	return d
}

// MySQL quotes identifiers with backticks.
func MySQL() *Dialect {
	d := relational("mysql")
	d.QuoteIdent = quoteWith("`", "`")
	d.Star = func(alias string) string { return d.QuoteIdent(alias) + ".*" }
	d.Operators = sqlOperators(mysqlLike)
	return d
}

// SQLServer uses bracket quoting, named parameters and OFFSET/FETCH.
func SQLServer() *Dialect {
	d := relational("sqlserver")
	d.QuoteIdent = quoteWith("[", "]")
	d.Star = func(alias string) string { return d.QuoteIdent(alias) + ".*" }
	d.Placeholder = numbered("@p")
	d.Paginate = func(limit, offset int) string {
		return fmt.Sprintf(" OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", offset, limit)
	}
	d.Operators = sqlOperators(sqlServerLike)
	d.OrderRequired = true
	return d
}

// DuckDB follows the SQLite syntax with native temporal values.
func DuckDB() *Dialect {
	return relational("duckdb")
}

// Cosmos is the document-store SQL variant: bracket property access,
// named parameters, OFFSET before LIMIT and no correlated sub-selects.
func Cosmos() *Dialect {
	return &Dialect{
		Name:       "cosmos",
		Kind:       KindDocument,
		QuoteIdent: func(name string) string { return name },
		Identifier: regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`),
		ColumnRef: func(table, column string) string {
			return table + `["` + strings.ReplaceAll(column, `"`, `\"`) + `"]`
		},
		Star:        func(string) string { return "*" },
		Placeholder: numbered("@p"),
		Paginate: func(limit, offset int) string {
			return fmt.Sprintf(" OFFSET %d LIMIT %d", offset, limit)
		},
		CountExpr: "VALUE COUNT(1)",
		Operators: map[string]Operator{
			"eq":   {Template: "{c} = {v}"},
			"ne":   {Template: "{c} != {v}"},
			"lt":   {Template: "{c} < {v}"},
			"le":   {Template: "{c} <= {v}"},
			"gt":   {Template: "{c} > {v}"},
			"ge":   {Template: "{c} >= {v}"},
			"in":   {Template: "{c} IN ({v})"},
			"out":  {Template: "NOT ({c} IN ({v}))"},
			"sw":   {Template: "STARTSWITH({c}, {v})"},
			"ew":   {Template: "ENDSWITH({c}, {v})"},
			"n":    {Template: "IS_NULL({c})"},
			"nn":   {Template: "NOT IS_NULL({c})"},
			"emp":  {Template: "(IS_NULL({c}) OR {c} = '')"},
			"nemp": {Template: "(NOT IS_NULL({c}) AND {c} != '')"},
		},
		DefaultLimit: query.DefaultLimit,
		MaxLimit:     query.MaxLimit,
		DefaultSort:  true,
		Distinct:     true,
		Cast:         schema.TextTimeCaster,
	}
}

// DynamoDB compiles to a KeyValueQuery. Pages are capped lower and only
// the sort key can order results.
func DynamoDB() *Dialect {
	return &Dialect{
		Name: "dynamodb",
		Kind: KindKeyValue,
		Operators: map[string]Operator{
			"eq":  {Template: "{c} = {v}"},
			"ne":  {Template: "{c} <> {v}"},
			"lt":  {Template: "{c} < {v}"},
			"le":  {Template: "{c} <= {v}"},
			"gt":  {Template: "{c} > {v}"},
			"ge":  {Template: "{c} >= {v}"},
			"in":  {Template: "{c} IN ({v})"},
			"out": {Template: "NOT ({c} IN ({v}))"},
			"sw":  {Template: "begins_with({c}, {v})"},
			"w":   {Template: "contains({c}, {v})"},
			"wo":  {Template: "NOT contains({c}, {v})"},
			"n":   {Template: "attribute_not_exists({c})"},
			"nn":  {Template: "attribute_exists({c})"},
		},
		DefaultLimit: query.DefaultLimit,
		MaxLimit:     query.MaxLimit,
		Cast:         schema.TextTimeCaster,
	}
}
