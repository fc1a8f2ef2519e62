package metrics

import (
	"sync/atomic"
	"time"
)

// EventRate is a cheap lifetime counter for the /status command.
type EventRate struct {
	events    uint64
	lastEvent int64
	startTime time.Time
}

func NewEventRate() *EventRate {
	return &EventRate{startTime: time.Now()}
}

func (r *EventRate) Increment() {
	atomic.AddUint64(&r.events, 1)
	atomic.StoreInt64(&r.lastEvent, time.Now().UnixNano())
}

func (r *EventRate) Count() uint64 {
	if r == nil {
		return 0
	}
	return atomic.LoadUint64(&r.events)
}

func (r *EventRate) PerSecond() float64 {
	if r == nil {
		return 0
	}
	elapsed := time.Since(r.startTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(r.Count()) / elapsed
}

// LastEvent is zero until the first event arrives.
func (r *EventRate) LastEvent() time.Time {
	if r == nil {
		return time.Time{}
	}
	ns := atomic.LoadInt64(&r.lastEvent)
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

func (r *EventRate) Uptime() time.Duration {
	if r == nil {
		return 0
	}
	return time.Since(r.startTime)
}
