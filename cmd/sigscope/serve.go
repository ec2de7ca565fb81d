package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/sigscope/internal/mcptools"
	"github.com/dusk-indust/sigscope/internal/render"
	"github.com/dusk-indust/sigscope/internal/render/echarts"
	"github.com/dusk-indust/sigscope/internal/surfaceserver"
)

type serveFlags struct {
	Addr    string
	MCPAddr string
	Files   []string
	Title   string
	Persist bool
}

func newServeCmd(global *globalFlags) *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve interactive charts over HTTP",
		Long: `serve draws the charts as ECharts documents and serves them with a
page combining every surface. Brushing the spectrum in filter mode posts
the selection back and triggers a filtered analysis. The /api endpoints
drive the selection, tool parameters, filter mode and comparison axis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, global, flags)
		},
	}
	cmd.Flags().StringVar(&flags.Addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&flags.MCPAddr, "mcp-http", "", "also serve the MCP tools over streamable HTTP on this address")
	cmd.Flags().StringSliceVarP(&flags.Files, "files", "f", nil, "files selected at startup")
	cmd.Flags().StringVar(&flags.Title, "title", "sigscope", "page title")
	cmd.Flags().BoolVar(&flags.Persist, "persist", false, "also write every surface to the output directory")
	return cmd
}

func runServe(cmd *cobra.Command, global *globalFlags, flags serveFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(global)
	if err != nil {
		return err
	}
	addr := flags.Addr
	if addr == "" {
		addr = a.cfg.SurfaceAddr
	}

	surfaceOpts := []echarts.SurfaceOption{
		echarts.WithSelectionEndpoint(surfaceserver.SelectionBase),
		echarts.WithSurfaceLogger(a.logger),
	}
	if flags.Persist {
		surfaceOpts = append(surfaceOpts, echarts.WithOutputDir(a.cfg.OutputDir))
	}
	surfaces := echarts.NewSurfaces(surfaceOpts...)
	disp := render.NewDispatcher(surfaces, render.WithLogger(a.logger))

	o, err := a.orchestrator(disp)
	if err != nil {
		return err
	}
	defer o.Close()
	go printNotifications(cmd.ErrOrStderr(), o.Notifications())

	if err := o.LoadTools(ctx); err != nil {
		return err
	}
	if len(flags.Files) > 0 {
		if err := o.SelectFiles(flags.Files); err != nil {
			return err
		}
	}

	srv := surfaceserver.New(surfaces, disp,
		surfaceserver.WithIntents(o),
		surfaceserver.WithTitle(flags.Title),
		surfaceserver.WithLogger(a.logger),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, addr)
	})
	if flags.MCPAddr != "" {
		mcpServer := mcptools.NewMCPServer(mcptools.NewService(o, disp))
		g.Go(func() error {
			a.logger.Info("serving MCP tools", "addr", flags.MCPAddr)
			return mcptools.RunHTTP(ctx, mcpServer, flags.MCPAddr)
		})
	}
	return ignoreCanceled(g.Wait())
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
