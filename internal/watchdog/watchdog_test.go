package watchdog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHeartbeatAndMarkDown(t *testing.T) {
	w := NewWatchdog(time.Second)
	w.RegisterComponent("gateway", 0)

	assert.False(t, w.IsHealthy("gateway"))

	w.Heartbeat("gateway")
	assert.True(t, w.IsHealthy("gateway"))

	w.MarkDown("gateway")
	assert.False(t, w.IsHealthy("gateway"))
	assert.Equal(t, map[string]bool{"gateway": false}, w.GetStatus())

	// unknown names are ignored
	w.Heartbeat("nope")
	assert.False(t, w.IsHealthy("nope"))
}

func TestStaleHeartbeatTurnsUnhealthy(t *testing.T) {
	w := NewWatchdog(time.Second)
	w.RegisterComponent("gateway", time.Minute)
	w.Heartbeat("gateway")

	w.checkAllComponents()
	assert.True(t, w.IsHealthy("gateway"))

	w.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	w.checkAllComponents()
	assert.False(t, w.IsHealthy("gateway"))
}

func TestStartStopIdempotent(t *testing.T) {
	w := NewWatchdog(10 * time.Millisecond)
	w.Start()
	w.Start()
	w.Stop()
	w.Stop()
}
