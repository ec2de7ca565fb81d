// Package mcptools exposes the orchestrator intents as MCP tools.
package mcptools

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewMCPServer creates an MCP server with every sigscope tool registered.
func NewMCPServer(svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "sigscope",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "select_files",
		Description: "Select the files to analyze. One file shows its X/Y/Z channels; several files compare one axis across files. Waits for the analysis and returns the state.",
	}, svc.SelectFiles)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_param",
		Description: "Set one parameter of an analysis tool. The request is debounced unless apply is true.",
	}, svc.SetParam)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_tool_enabled",
		Description: "Enable or disable an analysis tool. The request is debounced unless apply is true.",
	}, svc.SetToolEnabled)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_filter_mode",
		Description: "Turn band-stop filter mode on or off for the single selected file, optionally removing the band low..high Hz.",
	}, svc.SetFilterMode)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_compare_axis",
		Description: "Choose the axis (X, Y or Z) compared across files. Redraws from the held results without a new analysis.",
	}, svc.SetCompareAxis)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_decomposition",
		Description: "Run an empirical wavelet decomposition of the single selected file and draw its spectrum and mode panels.",
	}, svc.RunDecomposition)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_state",
		Description: "Return the selection, tool parameters, filter state and active charts.",
	}, svc.GetState)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "export_charts",
		Description: "Compose the active charts and return a per-chart summary.",
	}, svc.ExportCharts)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the MCP tools over streamable HTTP on addr until ctx is
// cancelled.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
