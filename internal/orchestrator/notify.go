package orchestrator

import (
	"fmt"
	"sync"
	"time"
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notification is a user-visible message about the analysis cycle.
type Notification struct {
	Level   Level
	Message string
	Time    time.Time
}

// Notifier emits notifications through a buffered channel.
type Notifier struct {
	ch     chan Notification
	mu     sync.Mutex
	closed bool
}

// NewNotifier creates a Notifier with a buffered channel of size 64.
func NewNotifier() *Notifier {
	return &Notifier{
		ch: make(chan Notification, 64),
	}
}

// Emit sends a notification in a non-blocking fashion.
// If the channel is full or closed, the notification is dropped.
func (n *Notifier) Emit(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	select {
	case n.ch <- note:
	default:
	}
}

// Subscribe returns a read-only channel for consuming notifications.
func (n *Notifier) Subscribe() <-chan Notification {
	return n.ch
}

// Close closes the notification channel. It is safe to call more than once.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.closed {
		n.closed = true
		close(n.ch)
	}
}

// FormatNotification formats a notification as a single status line.
func FormatNotification(note Notification) string {
	switch note.Level {
	case LevelInfo:
		return fmt.Sprintf("  ● %s", note.Message)
	case LevelWarn:
		return fmt.Sprintf("  ! %s", note.Message)
	case LevelError:
		return fmt.Sprintf("  ✗ %s", note.Message)
	default:
		return fmt.Sprintf("  ? %s", note.Message)
	}
}
