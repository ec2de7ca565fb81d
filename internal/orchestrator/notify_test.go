package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifier_DropsWhenFull(t *testing.T) {
	n := NewNotifier()
	for i := 0; i < 100; i++ {
		n.Emit(Notification{Level: LevelInfo, Message: "tick"})
	}
	n.Close()

	count := 0
	for range n.Subscribe() {
		count++
	}
	assert.Equal(t, 64, count)
}

func TestNotifier_EmitAfterClose(t *testing.T) {
	n := NewNotifier()
	n.Close()
	n.Close()
	assert.NotPanics(t, func() { n.Emit(Notification{Level: LevelError, Message: "late"}) })
}

func TestFormatNotification(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelInfo, "  ● filter range 10.0-20.0 Hz"},
		{LevelWarn, "  ! filter range 10.0-20.0 Hz"},
		{LevelError, "  ✗ filter range 10.0-20.0 Hz"},
		{Level("debug"), "  ? filter range 10.0-20.0 Hz"},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			got := FormatNotification(Notification{Level: tt.level, Message: "filter range 10.0-20.0 Hz"})
			assert.Equal(t, tt.want, got)
		})
	}
}
