package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/nanoprefs/formats"
	"github.com/arthur-debert/nanoprefs/prefs"
)

func (cli *CLI) addCommands() {
	cli.rootCmd.AddCommand(
		cli.initCommand(),
		cli.showCommand(),
		cli.getCommand(),
		cli.setCommand(),
		cli.resetCommand(),
		cli.validateCommand(),
		cli.exportCommand(),
		cli.watchCommand(),
		cli.kindsCommand(),
	)
}

func (cli *CLI) initCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the settings file from the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cli.open(cmd.Context(), "initialize settings", openOptions{})
			if err != nil {
				return err
			}
			exists, err := s.storage.Exists()
			if err != nil {
				return WrapError("initialize settings", err)
			}
			if exists && !force {
				return &CLIError{
					Operation:   "initialize settings",
					Cause:       fmt.Sprintf("%s already exists", s.storage.Path()),
					Suggestions: []string{"Use --force to overwrite it"},
				}
			}
			if err := s.save(cmd.Context(), "initialize settings"); err != nil {
				return err
			}
			cli.logger.Info("settings file created", "path", s.storage.Path())
			fmt.Fprintf(cli.out, "Created %s\n", s.storage.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing settings file")
	return cmd
}

func (cli *CLI) showCommand() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "List every preference with its value",
		Long: `List every preference path with its value. Preferences without a
value show their default, marked "(default)"; --raw shows null instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cli.open(cmd.Context(), "show settings", openOptions{load: true})
			if err != nil {
				return err
			}
			return s.store.Walk(func(path []string, p prefs.Preference) error {
				fmt.Fprintf(cli.out, "%s = %s\n", strings.Join(path, "."), describeValue(p, raw))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Show unset values as null instead of their default")
	return cmd
}

func describeValue(p prefs.Preference, raw bool) string {
	if p.HasValue() || raw {
		return formats.Literal(p.EncodeValue())
	}
	if tok := p.EncodeDefaultValue(); !tok.IsNull() {
		return formats.Literal(tok) + " (default)"
	}
	return "null"
}

func (cli *CLI) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Print the effective value of a preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cli.open(cmd.Context(), "get preference", openOptions{load: true})
			if err != nil {
				return err
			}
			p, err := s.lookup("get preference", args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cli.out, formats.Literal(p.EncodeEffectiveValue()))
			return nil
		},
	}
}

func (cli *CLI) setCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <path> <value>",
		Short: "Assign a preference value and save the settings file",
		Long: `Assign a preference value. The value is read as a JSON literal when
it is one (8080, true, "text", null) and as plain text otherwise.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cli.open(cmd.Context(), "set preference", openOptions{load: true})
			if err != nil {
				return err
			}
			p, err := s.lookup("set preference", args[0])
			if err != nil {
				return err
			}
			if err := formats.SetFromText(p, args[1]); err != nil {
				return WrapError("set preference", err, allowedSuggestion(p)...)
			}
			if err := s.save(cmd.Context(), "set preference"); err != nil {
				return err
			}
			cli.logger.Info("preference updated", "path", args[0], "value", formats.Literal(p.EncodeValue()))
			fmt.Fprintf(cli.out, "%s = %s\n", args[0], formats.Literal(p.EncodeValue()))
			return nil
		},
	}
}

func allowedSuggestion(p prefs.Preference) []string {
	allowed := p.EncodeAllowedValues()
	if len(allowed) == 0 {
		return nil
	}
	values := make([]string, len(allowed))
	for i, tok := range allowed {
		values[i] = formats.Literal(tok)
	}
	return []string{"Allowed values: " + strings.Join(values, ", ")}
}

func (cli *CLI) resetCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "reset [path...]",
		Short: "Clear preference values so their defaults apply",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return &CLIError{
					Operation:   "reset preferences",
					Cause:       "no preference given",
					Suggestions: []string{"Name one or more paths, or use --all"},
				}
			}
			s, err := cli.open(cmd.Context(), "reset preferences", openOptions{load: true})
			if err != nil {
				return err
			}

			var targets []prefs.Preference
			if all {
				_ = s.store.Walk(func(_ []string, p prefs.Preference) error {
					targets = append(targets, p)
					return nil
				})
			}
			for _, path := range args {
				p, err := s.lookup("reset preferences", path)
				if err != nil {
					return err
				}
				targets = append(targets, p)
			}
			for _, p := range targets {
				p.ClearValue()
			}

			if err := s.save(cmd.Context(), "reset preferences"); err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "Reset %d preference(s)\n", len(targets))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Reset every preference")
	return cmd
}

func (cli *CLI) validateCommand() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the settings file against the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cli.open(cmd.Context(), "validate settings", openOptions{load: true, strictKeys: strict})
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "%s is valid\n", s.storage.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject keys the schema doesn't declare")
	return cmd
}

func (cli *CLI) exportCommand() *cobra.Command {
	var (
		to         string
		output     string
		effective  bool
		noComments bool
		indent     string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the settings in another format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cli.open(cmd.Context(), "export settings", openOptions{load: true})
			if err != nil {
				return err
			}

			format := s.storage.Format()
			if to != "" {
				if format, err = formats.Get(to); err != nil {
					return NewConfigError("export settings", err.Error())
				}
			}

			data, err := format.Marshal(s.store, formats.WriteOptions{
				Effective: effective,
				Comments:  !noComments,
				Indent:    indent,
			})
			if err != nil {
				return WrapError("export settings", err)
			}

			if output == "" {
				_, err = cli.out.Write(data)
				return err
			}
			if err := afero.WriteFile(cli.fs, output, data, 0o644); err != nil {
				return WrapError("export settings", err, CommonSuggestions.CheckPerms)
			}
			cli.logger.Info("settings exported", "path", output, "format", format.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Output format: "+strings.Join(formats.List(), "|")+" (default: the settings file format)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().BoolVar(&effective, "effective", false, "Write defaults in place of unset values")
	cmd.Flags().BoolVar(&noComments, "no-comments", false, "Omit descriptions, defaults and allowed values")
	cmd.Flags().StringVar(&indent, "indent", "", "Indentation (default: two spaces)")
	return cmd
}

func (cli *CLI) watchCommand() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print preference changes as the settings file is edited",
		Long: `Watch the settings file and print every preference whose value
changed after each save. Runs until interrupted. Requires the settings file to
live on the local filesystem.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			s, err := cli.open(ctx, "watch settings", openOptions{load: true})
			if err != nil {
				return err
			}
			previous := snapshot(s.store)
			fmt.Fprintf(cli.out, "Watching %s\n", s.storage.Path())

			return watchFile(ctx, s.storage.Path(), debounce, cli.logger, func() {
				next, err := cli.open(ctx, "reload settings", openOptions{load: true})
				if err != nil {
					fmt.Fprintf(cli.errOut, "%v\n", err)
					return
				}
				current := snapshot(next.store)
				for _, change := range diffSnapshots(previous, current) {
					fmt.Fprintln(cli.out, change)
				}
				previous = current
			})
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 100*time.Millisecond, "Wait this long after the last change before reloading")
	return cmd
}

// valueSnapshot maps preference paths to their displayed values, in walk
// order.
type valueSnapshot struct {
	paths  []string
	values map[string]string
}

func snapshot(store *prefs.Store) valueSnapshot {
	snap := valueSnapshot{values: make(map[string]string)}
	_ = store.Walk(func(path []string, p prefs.Preference) error {
		key := strings.Join(path, ".")
		snap.paths = append(snap.paths, key)
		snap.values[key] = describeValue(p, false)
		return nil
	})
	return snap
}

func diffSnapshots(before, after valueSnapshot) []string {
	var out []string
	for _, path := range after.paths {
		if old, ok := before.values[path]; ok && old != after.values[path] {
			out = append(out, fmt.Sprintf("%s: %s -> %s", path, old, after.values[path]))
		}
	}
	return out
}

func (cli *CLI) kindsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the value kinds a schema can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, k := range prefs.Kinds() {
				fmt.Fprintln(cli.out, k)
			}
			return nil
		},
	}
}
