package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/sigscope/internal/analysis"
	"github.com/dusk-indust/sigscope/internal/chartdef"
	"github.com/dusk-indust/sigscope/internal/config"
	"github.com/dusk-indust/sigscope/internal/orchestrator"
	"github.com/dusk-indust/sigscope/internal/render"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	ConfigDir  string
	ServiceURL string
	Verbose    bool
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "sigscope",
		Short: "Chart compositor for a signal analysis service",
		Long: `sigscope requests analyses of recorded vibration files from an
analysis service and draws the results as time, spectrum, STFT and
orbit charts. Several files can be compared along one axis, and a
band-stop filter can be brushed onto the spectrum of a single file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.ConfigDir, "config-dir", ".", "directory holding sigscope.yml")
	root.PersistentFlags().StringVar(&flags.ServiceURL, "service", "", "analysis service base URL (overrides config)")
	root.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newRenderCmd(&flags),
		newServeCmd(&flags),
		newServeMCPCmd(&flags),
		newVersionCmd(),
	)
	return root
}

// app holds what every subcommand builds from the global flags.
type app struct {
	cfg    config.ProjectConfig
	logger *slog.Logger
	svc    *analysis.HTTPClient
	reg    *chartdef.Registry
}

func newApp(flags *globalFlags) (*app, error) {
	loaded, err := config.Load(flags.ConfigDir)
	if err != nil {
		return nil, err
	}
	cfg := *loaded
	if flags.ServiceURL != "" {
		cfg.ServiceURL = flags.ServiceURL
	}
	if flags.Verbose {
		cfg.Verbose = true
	}
	cfg = cfg.Defaults()

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(newPrettyHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	reg, err := chartdef.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("chart definitions: %w", err)
	}

	svc := analysis.NewHTTPClient(cfg.ServiceURL,
		analysis.WithTimeout(cfg.Timeout),
		analysis.WithLogger(logger),
	)
	return &app{cfg: cfg, logger: logger, svc: svc, reg: reg}, nil
}

// orchestrator builds an orchestrator drawing through disp.
func (a *app) orchestrator(disp *render.Dispatcher) (*orchestrator.Orchestrator, error) {
	return orchestrator.New(a.svc, disp,
		orchestrator.WithConfig(a.cfg),
		orchestrator.WithRegistry(a.reg),
		orchestrator.WithLogger(a.logger),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
