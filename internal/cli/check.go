package cli

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/inversion-api/inversion-engine-sub011/internal/harness"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // suite filter (glob pattern on the file name)
	Jobs   int    // suites run at once
}

// SuiteReport is the outcome of one fixture file.
type SuiteReport struct {
	File   string
	Name   string
	Pass   bool
	Cases  int
	Failed []harness.CaseResult
	Errors []string
}

// CheckReport holds the overall check result.
type CheckReport struct {
	Suites []SuiteReport
	Passed int
	Failed int
	Total  int
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <fixtures>...",
		Short: "Run fixture suites",
		Long: `Run YAML fixture suites: compile every case, compare statement text,
bind values and error categories, and execute cases that expect rows.

Arguments are suite files or directories searched for *.yaml files.
A suite with a golden file at <dir>/golden/<name>.golden is also compared
against its canonical JSON snapshot.

Exit codes:
  0 - All suites passed
  1 - One or more suites failed
  2 - Command error (invalid paths, etc.)

Examples:
  rqlc check ./testdata/fixtures
  rqlc check ./testdata/fixtures --filter "north*"
  rqlc check ./testdata/fixtures --update`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter suites by glob pattern")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", runtime.GOMAXPROCS(0), "suites to run concurrently")

	return cmd
}

func runCheck(opts *CheckOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var files []string
	for _, p := range paths {
		found, err := findSuiteFiles(p, opts.Filter)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, err)
		}
		files = append(files, found...)
	}

	report := CheckReport{Suites: make([]SuiteReport, len(files)), Total: len(files)}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(opts.Jobs, 1))
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			report.Suites[i] = checkSuite(ctx, file, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	for _, s := range report.Suites {
		if s.Pass {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	if formatter.JSON() {
		data := report.Map()
		if report.Failed > 0 {
			_ = formatter.writeJSON(map[string]any{
				"status": "error",
				"data":   data,
				"error": map[string]any{
					"code":    ErrCodeFixture,
					"message": fmt.Sprintf("%d suite(s) failed", report.Failed),
				},
			})
		} else if err := formatter.Success(data, ""); err != nil {
			return err
		}
	} else {
		fmt.Fprint(formatter.Writer, report.Text())
	}

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d suite(s) failed", report.Failed))
	}
	return nil
}

// findSuiteFiles returns path itself when it is a file, or every YAML
// file below it when it is a directory. filter matches the file name
// without extension.
func findSuiteFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("fixtures not found: %s", path)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, p)
		return nil
	})
	return files, err
}

func checkSuite(ctx context.Context, file string, opts *CheckOptions) SuiteReport {
	report := SuiteReport{File: file, Name: filepath.Base(file)}
	fail := func(format string, args ...any) SuiteReport {
		report.Pass = false
		report.Errors = append(report.Errors, fmt.Sprintf(format, args...))
		return report
	}

	suite, err := harness.LoadSuite(file)
	if err != nil {
		return fail("failed to load suite: %v", err)
	}
	report.Name = suite.Name
	report.Cases = len(suite.Cases)

	result, err := harness.Run(ctx, suite)
	if err != nil {
		return fail("execution failed: %v", err)
	}
	report.Pass = result.Pass
	report.Failed = result.Failed()

	snapshot, err := harness.Snapshot(result)
	if err != nil {
		return fail("failed to build snapshot: %v", err)
	}
	golden := goldenFilePath(file, suite.Name)
	if opts.Update {
		if err := os.MkdirAll(filepath.Dir(golden), 0o755); err != nil {
			return fail("failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(golden, snapshot, 0o644); err != nil {
			return fail("failed to write golden file: %v", err)
		}
		return report
	}

	want, err := os.ReadFile(golden)
	if os.IsNotExist(err) {
		return report
	}
	if err != nil {
		return fail("failed to read golden file: %v", err)
	}
	if !bytes.Equal(want, snapshot) {
		return fail("snapshot does not match golden file (run with --update to regenerate)")
	}
	return report
}

// goldenFilePath returns the golden file for a suite: golden/<name>.golden
// next to the suite file.
func goldenFilePath(suiteFile, name string) string {
	return filepath.Join(filepath.Dir(suiteFile), "golden", name+".golden")
}

// Map converts r for JSON output.
func (r CheckReport) Map() map[string]any {
	suites := make([]any, len(r.Suites))
	for i, s := range r.Suites {
		failed := make([]any, len(s.Failed))
		for j, c := range s.Failed {
			errs := make([]any, len(c.Errors))
			for k, e := range c.Errors {
				errs[k] = e
			}
			failed[j] = map[string]any{"name": c.Name, "errors": errs}
		}
		errs := make([]any, len(s.Errors))
		for k, e := range s.Errors {
			errs[k] = e
		}
		suites[i] = map[string]any{
			"file":   s.File,
			"name":   s.Name,
			"pass":   s.Pass,
			"cases":  s.Cases,
			"failed": failed,
			"errors": errs,
		}
	}
	return map[string]any{
		"suites": suites,
		"passed": r.Passed,
		"failed": r.Failed,
		"total":  r.Total,
	}
}

// Text renders r for people.
func (r CheckReport) Text() string {
	if r.Total == 0 {
		return "No fixture suites found.\n"
	}
	var b strings.Builder
	for _, s := range r.Suites {
		if s.Pass {
			fmt.Fprintf(&b, "✓ %s (%d cases)\n", s.Name, s.Cases)
			continue
		}
		fmt.Fprintf(&b, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(&b, "  %s\n", e)
		}
		for _, c := range s.Failed {
			fmt.Fprintf(&b, "  case %q:\n", c.Name)
			for _, e := range c.Errors {
				fmt.Fprintf(&b, "    %s\n", strings.ReplaceAll(e, "\n", "\n    "))
			}
		}
	}
	fmt.Fprintf(&b, "\nCheck Summary: %d passed, %d failed, %d total\n", r.Passed, r.Failed, r.Total)
	if r.Failed == 0 {
		b.WriteString("✓ All suites passed\n")
	}
	return b.String()
}
