package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/sigscope/internal/mcptools"
	"github.com/dusk-indust/sigscope/internal/render"
	"github.com/dusk-indust/sigscope/internal/render/echarts"
)

type serveMCPFlags struct {
	HTTPAddr string
}

func newServeMCPCmd(global *globalFlags) *cobra.Command {
	var flags serveMCPFlags

	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Run as an MCP server",
		Long: `serve-mcp exposes the chart intents as MCP tools on stdio, or on
streamable HTTP with --http. Charts are written as HTML documents to the
output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeMCP(cmd, global, flags)
		},
	}
	cmd.Flags().StringVar(&flags.HTTPAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	return cmd
}

func runServeMCP(cmd *cobra.Command, global *globalFlags, flags serveMCPFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(global)
	if err != nil {
		return err
	}
	surfaces := echarts.NewSurfaces(
		echarts.WithOutputDir(a.cfg.OutputDir),
		echarts.WithSurfaceLogger(a.logger),
	)
	disp := render.NewDispatcher(surfaces, render.WithLogger(a.logger))

	o, err := a.orchestrator(disp)
	if err != nil {
		return err
	}
	defer o.Close()
	// stdout carries the protocol, so notifications go to stderr.
	go printNotifications(cmd.ErrOrStderr(), o.Notifications())

	if err := o.LoadTools(ctx); err != nil {
		return err
	}

	server := mcptools.NewMCPServer(mcptools.NewService(o, disp))
	if flags.HTTPAddr != "" {
		a.logger.Info("serving MCP tools", "addr", flags.HTTPAddr)
		return mcptools.RunHTTP(ctx, server, flags.HTTPAddr)
	}
	return ignoreCanceled(mcptools.RunStdio(ctx, server))
}
