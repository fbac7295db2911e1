package harness

import (
	"github.com/inversion-api/inversion-engine-sub011/internal/dialect"
	"github.com/inversion-api/inversion-engine-sub011/internal/results"
)

// Result is the outcome of one suite.
type Result struct {
	Suite string `json:"suite"`
	// Pass is true when every case passed.
	Pass  bool         `json:"pass"`
	Cases []CaseResult `json:"cases"`
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name    string `json:"name"`
	Dialect string `json:"dialect"`
	Pass    bool   `json:"pass"`

	// Statement is nil when compilation failed.
	Statement *dialect.Statement `json:"-"`
	// Results is set for executed cases.
	Results *results.Results `json:"-"`
	// Category is the error category when compilation failed.
	Category string `json:"category,omitempty"`
	// Errors lists failed expectations.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result for suite.
func NewResult(suite string) *Result {
	return &Result{Suite: suite, Pass: true, Cases: []CaseResult{}}
}

// Add records a case outcome.
func (r *Result) Add(c CaseResult) {
	if !c.Pass {
		r.Pass = false
	}
	r.Cases = append(r.Cases, c)
}

// Failed returns the failing cases.
func (r *Result) Failed() []CaseResult {
	var out []CaseResult
	for _, c := range r.Cases {
		if !c.Pass {
			out = append(out, c)
		}
	}
	return out
}

// AddError records a failed expectation.
func (c *CaseResult) AddError(err error) {
	c.Errors = append(c.Errors, err.Error())
	c.Pass = false
}
