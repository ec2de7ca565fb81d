package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/dusk-indust/sigscope/internal/orchestrator"
)

// prettyHandler writes one colored line per record. Attributes are
// formatted by an inner text handler.
type prettyHandler struct {
	slog.Handler
	out io.Writer
	mu  *sync.Mutex
	buf *strings.Builder
}

func newPrettyHandler(out io.Writer, opts *slog.HandlerOptions) *prettyHandler {
	buf := &strings.Builder{}
	inner := *opts
	inner.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) == 0 {
			switch a.Key {
			case slog.TimeKey, slog.LevelKey, slog.MessageKey:
				return slog.Attr{}
			}
		}
		return a
	}
	return &prettyHandler{
		Handler: slog.NewTextHandler(buf, &inner),
		out:     out,
		mu:      &sync.Mutex{},
		buf:     buf,
	}
}

func (h *prettyHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()
	if err := h.Handler.Handle(ctx, r); err != nil {
		return err
	}
	attrs := strings.TrimSpace(h.buf.String())

	level := levelColor(r.Level).Sprintf("%-5s", r.Level.String())
	line := fmt.Sprintf("%s %s %s", r.Time.Format("15:04:05.000"), level, r.Message)
	if attrs != "" {
		line += " " + color.New(color.Faint).Sprint(attrs)
	}
	_, err := fmt.Fprintln(h.out, line)
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyHandler{Handler: h.Handler.WithAttrs(attrs), out: h.out, mu: h.mu, buf: h.buf}
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	return &prettyHandler{Handler: h.Handler.WithGroup(name), out: h.out, mu: h.mu, buf: h.buf}
}

func levelColor(l slog.Level) *color.Color {
	switch {
	case l >= slog.LevelError:
		return color.New(color.FgRed, color.Bold)
	case l >= slog.LevelWarn:
		return color.New(color.FgYellow)
	case l >= slog.LevelInfo:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgMagenta)
	}
}

// printNotifications writes every notification to out until the channel
// closes.
func printNotifications(out io.Writer, notes <-chan orchestrator.Notification) {
	for note := range notes {
		line := orchestrator.FormatNotification(note)
		switch note.Level {
		case orchestrator.LevelError:
			color.New(color.FgRed).Fprintln(out, line)
		case orchestrator.LevelWarn:
			color.New(color.FgYellow).Fprintln(out, line)
		default:
			fmt.Fprintln(out, line)
		}
	}
}
