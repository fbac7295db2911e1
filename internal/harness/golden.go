package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/inversion-api/inversion-engine-sub011/internal/results"
)

// Snapshot renders a suite result as canonical JSON: one entry per case
// holding the compiled statement, or the error category when compilation
// failed. Executed rows are included when present.
func Snapshot(r *Result) ([]byte, error) {
	cases := make([]any, len(r.Cases))
	for i, c := range r.Cases {
		entry := map[string]any{
			"name":    c.Name,
			"dialect": c.Dialect,
		}
		if c.Category != "" {
			entry["error"] = c.Category
		}
		if s := c.Statement; s != nil {
			entry["text"] = s.Text
			entry["values"] = append([]any{}, s.Values...)
			if s.CountText != "" {
				entry["count_text"] = s.CountText
			}
		}
		if c.Results != nil {
			entry["rows"] = c.Results.Rows
			entry["found"] = c.Results.Found
		}
		cases[i] = entry
	}
	return results.MarshalCanonical(map[string]any{
		"suite": r.Suite,
		"cases": cases,
	})
}

// RunWithGolden runs suite and compares its snapshot against
// testdata/golden/{suite.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, suite *Suite) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), suite)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, suite.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)
	return nil
}
