package harness

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/inversion-api/inversion-engine-sub011/internal/dialect"
	"github.com/inversion-api/inversion-engine-sub011/internal/query"
	"github.com/inversion-api/inversion-engine-sub011/internal/schema"
	"github.com/inversion-api/inversion-engine-sub011/internal/store"
)

// Run loads the suite's schema, seeds its database and runs every case.
// The error is for setup problems; case failures are in the Result.
func Run(ctx context.Context, suite *Suite) (*Result, error) {
	cat, err := schema.LoadDir(suite.Schema)
	if err != nil {
		return nil, fmt.Errorf("suite %s: %w", suite.Name, err)
	}

	var ex dialect.Executor
	if suite.Data != "" {
		db, err := openData(suite.Data)
		if err != nil {
			return nil, fmt.Errorf("suite %s: %w", suite.Name, err)
		}
		defer db.Close()
		ex = store.NewSQL(db)
	}

	result := NewResult(suite.Name)
	for _, c := range suite.Cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cr := runCase(ctx, cat, ex, suite.dialectFor(c), c)
		slog.Debug("case finished", "suite", suite.Name, "case", c.Name, "pass", cr.Pass)
		result.Add(cr)
	}
	return result, nil
}

// openData creates an in-memory SQLite database from an SQL script.
func openData(path string) (*sql.DB, error) {
	script, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data script: %w", err)
	}
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(string(script)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load data script: %w", err)
	}
	return db, nil
}

func runCase(ctx context.Context, cat *schema.Catalog, ex dialect.Executor, dialectName string, c Case) CaseResult {
	cr := CaseResult{Name: c.Name, Pass: true}

	stmt, err := compileCase(cat, dialectName, c)
	if d, lerr := dialect.Lookup(dialectName); lerr == nil {
		cr.Dialect = d.Name
	}
	if err != nil {
		cr.Category = query.Category(err)
		if c.Expect.Error == "" || c.Expect.Error != cr.Category {
			cr.AddError(&AssertionError{Field: "error", Expected: orNone(c.Expect.Error), Actual: err.Error()})
		}
		return cr
	}
	cr.Statement = stmt

	if c.Expect.Error != "" {
		cr.AddError(&AssertionError{Field: "error", Expected: c.Expect.Error, Actual: "compiled: " + stmt.Text})
		return cr
	}
	for _, err := range []error{
		assertString("text", c.Expect.Text, stmt.Text),
		assertString("count_text", c.Expect.CountText, stmt.CountText),
	} {
		if err != nil {
			cr.AddError(err)
		}
	}
	if c.Expect.Values != nil {
		if err := assertCanonical("values", c.Expect.Values, append([]any{}, stmt.Values...)); err != nil {
			cr.AddError(err)
		}
	}

	if !c.Expect.executes() {
		return cr
	}
	if stmt.Kind != dialect.KindSQL || ex == nil {
		cr.AddError(fmt.Errorf("cannot execute %s statements", cr.Dialect))
		return cr
	}
	res, err := stmt.Execute(ctx, ex)
	if err != nil {
		cr.AddError(err)
		return cr
	}
	cr.Results = res
	if c.Expect.Found != nil && *c.Expect.Found != res.Found {
		cr.AddError(&AssertionError{Field: "found", Expected: fmt.Sprint(*c.Expect.Found), Actual: fmt.Sprint(res.Found)})
	}
	if c.Expect.Rows != nil {
		if err := assertCanonical("rows", c.Expect.Rows, res.Rows); err != nil {
			cr.AddError(err)
		}
	}
	return cr
}

func compileCase(cat *schema.Catalog, dialectName string, c Case) (*dialect.Statement, error) {
	d, err := dialect.Lookup(dialectName)
	if err != nil {
		return nil, err
	}
	q, err := d.Query(cat, c.Collection)
	if err != nil {
		return nil, err
	}
	if c.RQL != "" {
		err = q.WithRQL(c.RQL)
	} else {
		err = q.WithParams(c.Params)
	}
	if err != nil {
		return nil, err
	}
	return d.Compile(q)
}

func orNone(s string) string {
	if s == "" {
		return "no error"
	}
	return s
}
