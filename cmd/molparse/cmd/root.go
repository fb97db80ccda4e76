// Package cmd implements the molparse command tree.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	mp "github.com/chemform/molparse"
	"github.com/chemform/molparse/config"
	"github.com/chemform/molparse/engine"
	"github.com/chemform/molparse/pkg/logger"
)

// errFailures signals that at least one formula failed. The details have
// already been printed, so Execute only turns it into exit code 1.
var errFailures = errors.New("one or more formulas failed")

// newEngine builds the parser; tests replace it.
var newEngine = engine.New

// app holds flag values and the objects built from them for one run.
type app struct {
	cfgFile     string
	verbose     bool
	logLevel    string
	showMetrics bool
	noColor     bool
	output      string
	strict      bool
	stdin       bool

	cfg     *config.Config
	log     *logger.Logger
	parser  *engine.Parser
	logFile io.Closer
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errFailures) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "molparse",
		Short: "Validate molecule formulas and count their atoms",
		Long: `molparse validates molecule formulas such as K4[ON(SO3)2]2 and counts
the atoms they contain, expanding bracket groups and multipliers.

Brackets ( ), [ ] and { } may be nested; a number after an atom or a
closing bracket multiplies it.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: $MOLPARSE_CONFIG or ./molparse.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output (same as --log-level debug)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error, none")
	flags.BoolVar(&a.showMetrics, "metrics", false, "print parser metrics after the run")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	flags.StringVarP(&a.output, "output", "o", "text", "output format: text, json")

	root.AddCommand(
		newDemoCmd(a),
		newParseCmd(a),
		newValidateCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration and builds the logger and parser. On failure
// the log file, if it was opened, is closed again.
func (a *app) setup(cmd *cobra.Command, args []string) (err error) {
	defer func() {
		if err != nil && a.logFile != nil {
			_ = a.logFile.Close()
		}
	}()

	if a.output != outputText && a.output != outputJSON {
		return fmt.Errorf("unknown output format %q (want text or json)", a.output)
	}

	cfg, path, err := config.Resolve(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel()
	if a.logLevel != "" {
		if level, err = logger.ParseLevel(a.logLevel); err != nil {
			return err
		}
	}
	if a.verbose {
		level = logger.LevelDebug
	}

	var logOut io.Writer = cmd.ErrOrStderr()
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		logOut = f
	}
	a.log = logger.New(logOut, level)
	logger.SetDefault(a.log)

	if path != "" {
		a.log.Debug("loaded config", "path", path)
	}

	opts := cfg.Options()
	if cmd.Flags().Changed("strict") {
		opts = append(opts, mp.WithStrictMode(a.strict))
	}
	p, err := newEngine(opts...)
	if err != nil {
		return err
	}
	p.SetLogger(a.log.Named("engine"))
	a.parser = p
	return nil
}

// run wraps a command body so metrics are printed and the log file is
// closed whether or not the body fails.
func (a *app) run(body func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := body(cmd, args)
		if terr := a.teardown(cmd); terr != nil && err == nil {
			err = terr
		}
		return err
	}
}

func (a *app) teardown(cmd *cobra.Command) error {
	var err error
	if a.showMetrics && a.parser != nil {
		err = writeMetrics(cmd.OutOrStdout(), a.parser, a.output, a.cfg.Metrics.Namespace)
	}
	if a.logFile != nil {
		if cerr := a.logFile.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// runContext returns the command context bounded by the configured timeout.
func (a *app) runContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if d := a.cfg.Parser.Timeout.Duration; d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

func (a *app) renderer(cmd *cobra.Command) *renderer {
	return newRenderer(cmd.OutOrStdout(), a.output, !a.noColor)
}
