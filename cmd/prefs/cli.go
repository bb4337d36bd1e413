package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/arthur-debert/nanoprefs/formats"
	"github.com/arthur-debert/nanoprefs/prefs"
	"github.com/arthur-debert/nanoprefs/schema"
	"github.com/arthur-debert/nanoprefs/storage"
)

// Configuration keys shared by flags, environment variables and config files
const (
	keyConfig    = "config"
	keySchema    = "schema"
	keyFile      = "file"
	keyFormat    = "format"
	keyLogLevel  = "log-level"
	keyLogFormat = "log-format"
	keyLogFile   = "log-file"
)

// CLI implements the Viper-driven prefs command line
type CLI struct {
	rootCmd   *cobra.Command
	viperInst *viper.Viper
	fs        afero.Fs
	out       io.Writer
	errOut    io.Writer
	logger    *slog.Logger
	closeLog  func() error
}

// NewCLI creates a CLI reading and writing files through fs
func NewCLI(fs afero.Fs, out, errOut io.Writer) *CLI {
	cli := &CLI{
		viperInst: viper.New(),
		fs:        fs,
		out:       out,
		errOut:    errOut,
		logger:    slog.New(slog.DiscardHandler),
		closeLog:  func() error { return nil },
	}

	cli.setupViperConfig()
	cli.createRootCommand()
	cli.addCommands()

	return cli
}

// Execute runs the command line with args
func (cli *CLI) Execute(ctx context.Context, args []string) error {
	cli.rootCmd.SetArgs(args)
	err := cli.rootCmd.ExecuteContext(ctx)
	if closeErr := cli.closeLog(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// setupViperConfig configures Viper with environment variables and defaults.
// Config files are read once flags are parsed, in PersistentPreRunE.
func (cli *CLI) setupViperConfig() {
	v := cli.viperInst
	v.SetFs(cli.fs)

	// PREFS_SCHEMA, PREFS_LOG_LEVEL, ...
	v.SetEnvPrefix("PREFS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyLogLevel, "warn")
	v.SetDefault(keyLogFormat, "text")
}

// readConfig loads the config file named by --config/PREFS_CONFIG, or the
// first of ./.prefs.yaml and ~/.config/prefs/config.yaml that exists.
func (cli *CLI) readConfig() error {
	v := cli.viperInst

	path := v.GetString(keyConfig)
	explicit := path != ""
	if !explicit {
		candidates := []string{".prefs.yaml"}
		if home, err := os.UserHomeDir(); err == nil {
			candidates = append(candidates, filepath.Join(home, ".config", "prefs", "config.yaml"))
		}
		for _, candidate := range candidates {
			if ok, _ := afero.Exists(cli.fs, candidate); ok {
				path = candidate
				break
			}
		}
	}
	if path == "" {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &CLIError{
			Operation:   "read configuration",
			Cause:       fmt.Sprintf("cannot read %s", path),
			Details:     err.Error(),
			Suggestions: []string{CommonSuggestions.CheckConfig},
			Underlying:  err,
		}
	}
	return nil
}

// createRootCommand creates the root Cobra command with Viper integration
func (cli *CLI) createRootCommand() {
	cli.rootCmd = &cobra.Command{
		Use:   "prefs",
		Short: "Inspect and edit typed preference files",
		Long: `prefs manages a settings file whose structure, value kinds and
constraints are declared in a YAML schema.

Configuration Sources (in order of precedence):
1. Command line flags
2. Environment variables (PREFS_*)
3. Configuration file (--config, PREFS_CONFIG, ./.prefs.yaml or
   ~/.config/prefs/config.yaml)

Examples:
  # Create a settings file holding the schema defaults
  prefs --schema app.schema.yaml --file settings.jsonc init

  # Change and read back a value
  prefs set editor.tab_size 8
  prefs get editor.tab_size

  # Convert to another format with defaults filled in
  prefs export --to yaml --effective`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.readConfig(); err != nil {
				return err
			}

			logger, closeLog, err := initLogging(cli.fs, cli.errOut,
				cli.viperInst.GetString(keyLogLevel),
				cli.viperInst.GetString(keyLogFormat),
				cli.viperInst.GetString(keyLogFile))
			if err != nil {
				return err
			}
			cli.logger = logger
			cli.closeLog = closeLog
			cli.logger.Debug("command started", "command", cmd.Name(), "config", cli.viperInst.ConfigFileUsed())
			return nil
		},
	}
	cli.rootCmd.SetOut(cli.out)
	cli.rootCmd.SetErr(cli.errOut)

	cli.addGlobalFlags()
}

// addGlobalFlags adds persistent flags that apply to all commands
func (cli *CLI) addGlobalFlags() {
	flags := cli.rootCmd.PersistentFlags()

	flags.String(keyConfig, "", "Configuration file")
	flags.StringP(keySchema, "s", "", "Schema file describing the preferences")
	flags.StringP(keyFile, "f", "", "Settings file")
	flags.String(keyFormat, "", "Settings file format (default: from the file extension)")
	flags.String(keyLogLevel, "warn", "Log level (debug|info|warn|error)")
	flags.String(keyLogFormat, "text", "Log format (text|json)")
	flags.String(keyLogFile, "", "Also write JSON logs to this file")

	bindFlags(cli.viperInst, flags, keyConfig, keySchema, keyFile, keyFormat, keyLogLevel, keyLogFormat, keyLogFile)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys ...string) {
	for _, key := range keys {
		_ = v.BindPFlag(key, flags.Lookup(key))
	}
}

// session holds a store built from the schema and the storage of the
// settings file.
type session struct {
	store   *prefs.Store
	storage *storage.FileStorage
}

type openOptions struct {
	load       bool
	strictKeys bool
}

// open builds the store from the schema and optionally loads the settings
// file into it.
func (cli *CLI) open(ctx context.Context, operation string, opts openOptions) (*session, error) {
	schemaPath := cli.viperInst.GetString(keySchema)
	if schemaPath == "" {
		return nil, NewConfigError(operation, "no schema file given", CommonSuggestions.CheckSchema)
	}
	filePath := cli.viperInst.GetString(keyFile)
	if filePath == "" {
		return nil, NewConfigError(operation, "no settings file given", CommonSuggestions.CheckFile)
	}

	store, err := schema.Load(cli.fs, schemaPath)
	if err != nil {
		return nil, WrapError(operation, err, CommonSuggestions.CheckSchema, CommonSuggestions.RunKinds)
	}

	storageOpts := []storage.Option{
		storage.WithFs(cli.fs),
		storage.WithLogger(cli.logger),
		storage.WithReadOptions(formats.ReadOptions{DisallowUnknownKeys: opts.strictKeys}),
	}
	if name := cli.viperInst.GetString(keyFormat); name != "" {
		format, err := formats.Get(name)
		if err != nil {
			return nil, NewConfigError(operation, err.Error())
		}
		storageOpts = append(storageOpts, storage.WithFormat(format))
	}

	st, err := storage.New(filePath, storageOpts...)
	if err != nil {
		return nil, NewConfigError(operation, err.Error(), "Use --format to name the format explicitly")
	}

	if opts.load {
		if err := st.Load(ctx, store); err != nil {
			return nil, WrapError(operation, err)
		}
	}
	return &session{store: store, storage: st}, nil
}

// lookup resolves a dotted preference path.
func (s *session) lookup(operation, path string) (prefs.Preference, error) {
	p, err := s.store.LookupPath(path)
	if err != nil {
		return nil, NewNotFoundError(operation, path, err)
	}
	return p, nil
}

func (s *session) save(ctx context.Context, operation string) error {
	if err := s.storage.Save(ctx, s.store); err != nil {
		return WrapError(operation, err)
	}
	return nil
}
