package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/inversion-api/inversion-engine-sub011/internal/query"
)

// Suite is one fixture file.
type Suite struct {
	// Name identifies the suite and its golden file.
	Name string `yaml:"name"`

	// Description explains what the suite covers.
	Description string `yaml:"description"`

	// Schema is the directory of CUE files describing the catalog.
	Schema string `yaml:"schema"`

	// Dialect is the default dialect for cases; empty means sqlite.
	Dialect string `yaml:"dialect,omitempty"`

	// Data is an SQL script loaded into the in-memory database that
	// executing cases run against.
	Data string `yaml:"data,omitempty"`

	Cases []Case `yaml:"cases"`
}

// Case compiles, and optionally executes, one query.
type Case struct {
	Name       string `yaml:"name"`
	Collection string `yaml:"collection"`

	// RQL is the query text. Params is the URL query-string form; set
	// exactly one of them.
	RQL    string `yaml:"rql,omitempty"`
	Params string `yaml:"params,omitempty"`

	// Dialect overrides the suite dialect.
	Dialect string `yaml:"dialect,omitempty"`

	Expect Expect `yaml:"expect"`
}

// Expect lists the checks for a Case. Empty fields are not checked.
type Expect struct {
	Text      string `yaml:"text,omitempty"`
	CountText string `yaml:"count_text,omitempty"`
	Values    []any  `yaml:"values,omitempty"`

	// Error is the expected error category: lexical, resolution,
	// unsupported, casting or invalid.
	Error string `yaml:"error,omitempty"`

	// Rows and Found execute the statement.
	Rows  []map[string]any `yaml:"rows,omitempty"`
	Found *int             `yaml:"found,omitempty"`
}

func (e Expect) executes() bool {
	return e.Rows != nil || e.Found != nil
}

var categories = map[string]bool{
	query.CategoryLexical:     true,
	query.CategoryResolution:  true,
	query.CategoryUnsupported: true,
	query.CategoryCasting:     true,
	query.CategoryInvalid:     true,
}

// LoadSuite reads a suite file. Schema and Data paths are resolved
// against the file's directory. Unknown fields are errors.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	if suite.Schema != "" && !filepath.IsAbs(suite.Schema) {
		suite.Schema = filepath.Join(base, suite.Schema)
	}
	if suite.Data != "" && !filepath.IsAbs(suite.Data) {
		suite.Data = filepath.Join(base, suite.Data)
	}

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return &suite, nil
}

// validateSuite checks required fields and expectation shapes.
func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true
		if c.Collection == "" {
			return fmt.Errorf("cases[%d]: collection is required", i)
		}
		if (c.RQL == "") == (c.Params == "") {
			return fmt.Errorf("cases[%d]: exactly one of rql and params is required", i)
		}
		if c.Expect.Error != "" && !categories[c.Expect.Error] {
			return fmt.Errorf("cases[%d]: unknown error category %q", i, c.Expect.Error)
		}
		if c.Expect.Error != "" && (c.Expect.Text != "" || c.Expect.executes()) {
			return fmt.Errorf("cases[%d]: error cannot be combined with text or rows", i)
		}
		if c.Expect.executes() && s.Data == "" {
			return fmt.Errorf("cases[%d]: rows and found need suite data", i)
		}
	}
	return nil
}

func (s *Suite) dialectFor(c Case) string {
	if c.Dialect != "" {
		return c.Dialect
	}
	return s.Dialect
}
