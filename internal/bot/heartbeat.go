package bot

import (
	"context"
	"sync/atomic"
	"time"

	"go-modlogger/internal/logging"
)

// GatewayComponent is the watchdog name for the gateway connection.
const GatewayComponent = "gateway"

// HealthSink receives liveness updates; *watchdog.Watchdog satisfies it.
type HealthSink interface {
	Heartbeat(name string)
	MarkDown(name string)
}

// heartbeatSource reports the last heartbeat sent to and acknowledged by Discord.
type heartbeatSource func() (sent, ack time.Time)

// HeartbeatMonitor turns gateway heartbeat ACKs into watchdog heartbeats.
// Three missed ACKs in a row mark the gateway down.
type HeartbeatMonitor struct {
	source      heartbeatSource
	health      HealthSink
	grace       time.Duration
	missedBeats uint32
	isHealthy   uint32
}

func NewHeartbeatMonitor(s *Session, health HealthSink) *HeartbeatMonitor {
	return newHeartbeatMonitor(func() (time.Time, time.Time) {
		s.discord.RLock()
		defer s.discord.RUnlock()
		return s.discord.LastHeartbeatSent, s.discord.LastHeartbeatAck
	}, health, 15*time.Second)
}

func newHeartbeatMonitor(source heartbeatSource, health HealthSink, grace time.Duration) *HeartbeatMonitor {
	return &HeartbeatMonitor{
		source: source,
		health: health,
		grace:  grace,
	}
}

// Run checks every interval until ctx is done.
func (hm *HeartbeatMonitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hm.check(time.Now())
		}
	}
}

func (hm *HeartbeatMonitor) check(now time.Time) {
	sent, ack := hm.source()
	if sent.IsZero() {
		return
	}

	if !ack.Before(sent) || now.Sub(sent) < hm.grace {
		hm.RecordACK()
		return
	}
	hm.RecordMissed()
}

func (hm *HeartbeatMonitor) RecordACK() {
	atomic.StoreUint32(&hm.missedBeats, 0)
	atomic.StoreUint32(&hm.isHealthy, 1)
	hm.health.Heartbeat(GatewayComponent)
}

func (hm *HeartbeatMonitor) RecordMissed() {
	missed := atomic.AddUint32(&hm.missedBeats, 1)
	if missed >= 3 && atomic.CompareAndSwapUint32(&hm.isHealthy, 1, 0) {
		logging.Warn("[GATEWAY] %d heartbeat ACKs missed, marking gateway down", missed)
		hm.health.MarkDown(GatewayComponent)
	}
}

func (hm *HeartbeatMonitor) IsHealthy() bool {
	return atomic.LoadUint32(&hm.isHealthy) == 1
}

func (hm *HeartbeatMonitor) GetMissedCount() uint32 {
	return atomic.LoadUint32(&hm.missedBeats)
}
