package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stevehiehn/trinity/internal/config"
	"github.com/stevehiehn/trinity/internal/logging"
	"github.com/stevehiehn/trinity/internal/metrics"
)

var (
	jsonOutput bool
	configPath string
	verbosity  int
	assumeYes  bool
	rawInputs  []string
	appsPath   string
	tweaksPath string
	logLevel   string
)

// session is the per-invocation state built once before any command runs.
type session struct {
	cfg      *config.Config
	logger   zerolog.Logger
	closer   io.Closer
	registry *prometheus.Registry
	metrics  *metrics.Recorder
}

var sess *session

var rootCmd = &cobra.Command{
	Use:           "trinity",
	Short:         "Batch installer and system tweak runner",
	Long:          "Trinity: install applications and apply system tweaks in bulk, with one report per batch.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return teardown()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&jsonOutput, "json", false, "Output raw JSON")
	pf.StringVar(&configPath, "config", "", "Config file (default ./trinity.toml if present)")
	pf.CountVarP(&verbosity, "verbose", "v", "Mirror the audit log to stderr (-vv debug, -vvv trace)")
	pf.BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	pf.StringArrayVar(&rawInputs, "input", nil, "Template inputs (key=value)")
	pf.StringVar(&appsPath, "apps", "", "Apps catalog file (overrides catalog.apps)")
	pf.StringVar(&tweaksPath, "tweaks", "", "Tweaks catalog file (overrides catalog.tweaks)")
	pf.StringVar(&logLevel, "log-level", "", "Audit log level (overrides log.level)")
}

func setup(cmd *cobra.Command) error {
	overrides := map[string]any{}
	flags := cmd.Flags()
	if flags.Changed("apps") {
		overrides["catalog.apps"] = appsPath
	}
	if flags.Changed("tweaks") {
		overrides["catalog.tweaks"] = tweaksPath
	}
	if flags.Changed("log-level") {
		overrides["log.level"] = logLevel
	}

	cfg, err := config.Load(configPath, overrides)
	if err != nil {
		return err
	}

	logger, closer, err := logging.Setup(logging.Options{
		File:      cfg.Log.File,
		Level:     cfg.Log.Level,
		Verbosity: verbosity,
		Console:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	sess = &session{
		cfg:      cfg,
		logger:   logger,
		closer:   closer,
		registry: reg,
		metrics:  metrics.New(reg),
	}
	logger.Debug().Str("command", cmd.CommandPath()).Msg("Session started")
	return nil
}

func teardown() error {
	if sess == nil {
		return nil
	}
	defer func() { sess = nil }()
	if path := sess.cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path, sess.registry); err != nil {
			sess.logger.Warn().Err(err).Str("path", path).Msg("Failed to write metrics textfile")
		}
	}
	return sess.closer.Close()
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		_ = teardown()
		stop()
		os.Exit(1)
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", err)
	if hint := hintOf(err); hint != "" {
		fmt.Fprintln(w, "Hint:", hint)
	}
}
