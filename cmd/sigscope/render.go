package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/sigscope/internal/analysis"
	"github.com/dusk-indust/sigscope/internal/brush"
	"github.com/dusk-indust/sigscope/internal/export"
	"github.com/dusk-indust/sigscope/internal/render"
	"github.com/dusk-indust/sigscope/internal/render/echarts"
	"github.com/dusk-indust/sigscope/internal/render/snapshot"
)

type renderFlags struct {
	Files  []string
	Out    string
	Format string
	Axis   string
	Filter string
	Params []string
	Modes  int
}

func newRenderCmd(global *globalFlags) *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Analyze files once and write their charts",
		Example: `  sigscope render --files run1.bin
  sigscope render --files run1.bin --filter 40:60 --format png
  sigscope render --files run1.bin,run2.bin --axis Y
  sigscope render --files run1.bin --param spectrum.nfft=4096`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, global, flags)
		},
	}
	cmd.Flags().StringSliceVarP(&flags.Files, "files", "f", nil, "files to analyze (several files compare one axis)")
	cmd.Flags().StringVarP(&flags.Out, "out", "o", "", "output directory (default from config)")
	cmd.Flags().StringVar(&flags.Format, "format", "html", "chart format: html or png")
	cmd.Flags().StringVar(&flags.Axis, "axis", "", "axis compared across files: X, Y or Z")
	cmd.Flags().StringVar(&flags.Filter, "filter", "", "band-stop range low:high in Hz (single file only)")
	cmd.Flags().StringArrayVarP(&flags.Params, "param", "p", nil, "tool parameter as tool.name=value (repeatable)")
	cmd.Flags().IntVar(&flags.Modes, "modes", 0, "also run a wavelet decomposition into this many modes (single file only)")
	_ = cmd.MarkFlagRequired("files")
	return cmd
}

func runRender(cmd *cobra.Command, global *globalFlags, flags renderFlags) error {
	ctx := cmd.Context()

	if flags.Filter != "" && len(flags.Files) > 1 {
		return errors.New("--filter needs a single file")
	}
	if flags.Modes > 0 && len(flags.Files) != 1 {
		return errors.New("--modes needs a single file")
	}
	var filter *brush.Range
	if flags.Filter != "" {
		r, err := parseRange(flags.Filter)
		if err != nil {
			return err
		}
		filter = r
	}
	params, err := parseParams(flags.Params)
	if err != nil {
		return err
	}

	a, err := newApp(global)
	if err != nil {
		return err
	}
	out := flags.Out
	if out == "" {
		out = a.cfg.OutputDir
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	var capability render.Capability
	switch flags.Format {
	case "html":
		capability = echarts.NewSurfaces(echarts.WithOutputDir(out), echarts.WithSurfaceLogger(a.logger))
	case "png":
		capability = snapshot.New(snapshot.WithDir(out))
	default:
		return fmt.Errorf("unknown format %q (want html or png)", flags.Format)
	}
	disp := render.NewDispatcher(capability, render.WithLogger(a.logger))

	o, err := a.orchestrator(disp)
	if err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		printNotifications(cmd.ErrOrStderr(), o.Notifications())
		close(done)
	}()
	defer func() {
		o.Close()
		<-done
	}()

	if err := o.LoadTools(ctx); err != nil {
		return err
	}
	for _, p := range params {
		if err := o.SetParam(p.tool, p.name, p.value); err != nil {
			return err
		}
	}
	if flags.Axis != "" {
		if err := o.SetCompareAxis(analysis.Axis(strings.ToUpper(flags.Axis))); err != nil {
			return err
		}
	}
	if filter != nil {
		if err := o.SetFilterMode(true); err != nil {
			return err
		}
		if err := o.SetFilterRange(filter); err != nil {
			return err
		}
	}
	// The selection folds every pending edit into one request.
	if err := o.SelectFiles(flags.Files); err != nil {
		return err
	}
	if flags.Modes > 0 {
		if err := o.RunDecomposition(flags.Modes); err != nil {
			return err
		}
	}
	o.Wait()

	snap := o.Snapshot()
	if snap.LastError != "" && !snap.HasResult {
		return fmt.Errorf("analysis failed: %s", snap.LastError)
	}

	defs, cctx := o.RenderInput()
	doc := export.Build(defs, cctx, time.Now())
	path := filepath.Join(out, "charts.json")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := export.WriteJSON(f, doc); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), export.Summary(doc))
	a.logger.Info("charts written", "dir", out, "charts", len(doc.Charts))
	return nil
}

// parseRange parses "low:high" into a range ordered low to high.
func parseRange(s string) (*brush.Range, error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("invalid range %q (want low:high)", s)
	}
	low, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid range %q: %w", s, err)
	}
	high, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid range %q: %w", s, err)
	}
	if low > high {
		low, high = high, low
	}
	return &brush.Range{Min: low, Max: high}, nil
}

type paramFlag struct {
	tool  string
	name  string
	value any
}

// parseParams parses tool.name=value pairs. Values are decoded as YAML
// scalars so numbers and booleans keep their type.
func parseParams(raw []string) ([]paramFlag, error) {
	out := make([]paramFlag, 0, len(raw))
	for _, s := range raw {
		key, val, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("invalid param %q (want tool.name=value)", s)
		}
		tool, name, ok := strings.Cut(key, ".")
		if !ok || tool == "" || name == "" {
			return nil, fmt.Errorf("invalid param %q (want tool.name=value)", s)
		}
		var value any
		if err := yaml.Unmarshal([]byte(val), &value); err != nil {
			return nil, fmt.Errorf("invalid param %q: %w", s, err)
		}
		out = append(out, paramFlag{tool: tool, name: name, value: value})
	}
	return out, nil
}
