package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/inversion-api/inversion-engine-sub011/internal/dialect"
	"github.com/inversion-api/inversion-engine-sub011/internal/schema"
)

// EnvPrefix prefixes environment variables that override flags:
// RQLC_SCHEMA, RQLC_DEFAULT_LIMIT and so on.
const EnvPrefix = "RQLC"

// ConfigName is the optional config file looked up in the working
// directory (rqlc.yaml, rqlc.json, ...).
const ConfigName = "rqlc"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	Config       string
	Schema       string
	Dialect      string
	DefaultLimit int
	MaxLimit     int
	Driver       string
	DSN          string
	LogLevel     string
	LogFormat    string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidLogFormats defines the allowed log handler formats.
var ValidLogFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the rqlc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rqlc",
		Short: "rqlc - Resource Query Language compiler",
		Long: `Compile RQL query strings into backend statements.

RQL expressions such as eq(shipCountry,France),sort(-orderDate),limit(10)
are resolved against a CUE schema and rendered for a SQL, document or
key-value dialect.

Flags can also be set with RQLC_* environment variables or an rqlc.yaml
config file in the working directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, opts); err != nil {
				return WrapExitError(ExitCommandError, ErrCodeConfig, err)
			}
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			logger, err := newLogger(cmd.ErrOrStderr(), opts.LogLevel, opts.LogFormat)
			if err != nil {
				return WrapExitError(ExitCommandError, ErrCodeConfig, err)
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.Config, "config", "", "config file (default ./rqlc.yaml if present)")
	flags.StringVarP(&opts.Schema, "schema", "s", "", "directory of CUE schema files")
	flags.StringVarP(&opts.Dialect, "dialect", "d", dialect.Default, "target dialect ("+strings.Join(dialect.Names(), "|")+")")
	flags.IntVar(&opts.DefaultLimit, "default-limit", 0, "page size when the query sets none (0 keeps the dialect default)")
	flags.IntVar(&opts.MaxLimit, "max-limit", 0, "largest page size accepted (0 keeps the dialect default)")
	flags.StringVar(&opts.Driver, "driver", "", "database/sql driver for exec (default from dialect)")
	flags.StringVar(&opts.DSN, "dsn", "", "data source name for exec")
	flags.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	flags.StringVar(&opts.LogFormat, "log-format", "text", "log format (json|text)")

	cmd.AddCommand(NewTokenizeCommand(opts))
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))

	return cmd
}

// loadConfig layers flags over environment over config file over flag
// defaults, and writes the result back into opts.
func loadConfig(cmd *cobra.Command, opts *RootOptions) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.Config != "" {
		v.SetConfigFile(opts.Config)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.Config != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "help" || bindErr != nil {
			return
		}
		if err := v.BindPFlag(f.Name, f); err != nil {
			bindErr = err
			return
		}
		if !f.Changed && v.IsSet(f.Name) {
			bindErr = cmd.Flags().Set(f.Name, v.GetString(f.Name))
		}
	})
	if bindErr != nil {
		return fmt.Errorf("failed to apply config: %w", bindErr)
	}
	return nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q: must be one of %v", format, ValidLogFormats)
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// dialect looks up the configured dialect and applies limit overrides
// to a copy, leaving the registered one untouched.
func (o *RootOptions) dialect() (*dialect.Dialect, error) {
	d, err := dialect.Lookup(o.Dialect)
	if err != nil {
		return nil, err
	}
	if o.DefaultLimit < 0 || o.MaxLimit < 0 {
		return nil, fmt.Errorf("limits must not be negative")
	}
	if o.DefaultLimit == 0 && o.MaxLimit == 0 {
		return d, nil
	}
	custom := *d
	if o.DefaultLimit > 0 {
		custom.DefaultLimit = o.DefaultLimit
	}
	if o.MaxLimit > 0 {
		custom.MaxLimit = o.MaxLimit
	}
	return &custom, nil
}

// catalog loads the schema directory.
func (o *RootOptions) catalog() (*schema.Catalog, error) {
	if o.Schema == "" {
		return nil, fmt.Errorf("no schema: set --schema or %s_SCHEMA", EnvPrefix)
	}
	return schema.LoadDir(o.Schema)
}
