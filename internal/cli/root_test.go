package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaDir = "../../testdata/schema"

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "rqlc", cmd.Use)
	assert.Contains(t, cmd.Long, "RQLC_")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"tokenize", "parse", "compile", "exec", "check", "schema"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	testCases := []struct {
		name      string
		shorthand string
		def       string
	}{
		{"verbose", "v", "false"},
		{"format", "", "text"},
		{"schema", "s", ""},
		{"dialect", "d", "sqlite"},
		{"default-limit", "", "0"},
		{"max-limit", "", "0"},
		{"driver", "", ""},
		{"dsn", "", ""},
		{"log-level", "", "warn"},
		{"log-format", "", "text"},
		{"config", "", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			flag := cmd.PersistentFlags().Lookup(tc.name)
			require.NotNil(t, flag)
			assert.Equal(t, tc.shorthand, flag.Shorthand)
			assert.Equal(t, tc.def, flag.DefValue)
		})
	}
}

func TestRoot_InvalidSettings(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		msg  string
	}{
		{"format", []string{"--format", "xml", "tokenize", "a"}, `invalid format "xml"`},
		{"log level", []string{"--log-level", "loud", "tokenize", "a"}, `invalid log level "loud"`},
		{"log format", []string{"--log-format", "xml", "tokenize", "a"}, `invalid log format "xml"`},
		{"config file", []string{"--config", "no-such-rqlc.yaml", "tokenize", "a"}, "failed to read config"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runCLI(t, tc.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestConfig_Environment(t *testing.T) {
	t.Setenv("RQLC_SCHEMA", schemaDir)
	t.Setenv("RQLC_DEFAULT_LIMIT", "5")
	t.Setenv("RQLC_DIALECT", "postgres")

	out, err := runCLI(t, "compile", "orders", "eq(shipCity,Reims)")
	require.NoError(t, err)
	assert.Contains(t, out, `"orders"."shipCity" = $1`)
	assert.Contains(t, out, "LIMIT 5 OFFSET 0")
}

func TestConfig_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("RQLC_SCHEMA", schemaDir)
	t.Setenv("RQLC_DIALECT", "postgres")

	out, err := runCLI(t, "--dialect", "mysql", "compile", "orders", "eq(shipCity,Reims)")
	require.NoError(t, err)
	assert.Contains(t, out, "`orders`.`shipCity` = ?")
}

func TestConfig_File(t *testing.T) {
	abs, err := filepath.Abs(schemaDir)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "rqlc.yaml")
	body := "schema: " + abs + "\ndialect: sqlserver\nmax-limit: 20\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	out, err := runCLI(t, "--config", path, "compile", "orders", "limit(50)")
	require.NoError(t, err)
	assert.Contains(t, out, "OFFSET 0 ROWS FETCH NEXT 20 ROWS ONLY")
}

func TestRootOptions_Dialect(t *testing.T) {
	opts := &RootOptions{Dialect: "sqlite", DefaultLimit: 7}
	d, err := opts.dialect()
	require.NoError(t, err)
	assert.Equal(t, 7, d.DefaultLimit)
	assert.Equal(t, 1000, d.MaxLimit)

	registered, err := (&RootOptions{Dialect: "sqlite"}).dialect()
	require.NoError(t, err)
	assert.Equal(t, 100, registered.DefaultLimit, "overrides apply to a copy")

	_, err = (&RootOptions{Dialect: "oracle"}).dialect()
	assert.ErrorContains(t, err, `unknown dialect "oracle"`)

	_, err = (&RootOptions{MaxLimit: -1}).dialect()
	assert.Error(t, err)
}
