package watchdog

import (
	"sync"
	"sync/atomic"
	"time"

	"go-modlogger/internal/logging"
)

// Watchdog tracks liveness of long-running components. A component is
// unhealthy after MarkDown, or when its threshold elapses without a heartbeat.
type Watchdog struct {
	mu            sync.RWMutex
	components    map[string]*ComponentHealth
	checkInterval time.Duration
	running       uint32
	stop          chan struct{}
	now           func() time.Time
}

type ComponentHealth struct {
	Name          string
	LastHeartbeat int64
	IsHealthy     uint32
	// Threshold of zero disables staleness checks.
	Threshold time.Duration
}

func NewWatchdog(checkInterval time.Duration) *Watchdog {
	return &Watchdog{
		components:    make(map[string]*ComponentHealth),
		checkInterval: checkInterval,
		stop:          make(chan struct{}),
		now:           time.Now,
	}
}

// RegisterComponent starts a component as unhealthy until its first heartbeat.
func (w *Watchdog) RegisterComponent(name string, threshold time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.components[name] = &ComponentHealth{
		Name:      name,
		Threshold: threshold,
	}
}

func (w *Watchdog) Heartbeat(name string) {
	w.mu.RLock()
	comp, exists := w.components[name]
	w.mu.RUnlock()
	if !exists {
		return
	}
	atomic.StoreInt64(&comp.LastHeartbeat, w.now().UnixNano())
	if atomic.SwapUint32(&comp.IsHealthy, 1) == 0 {
		logging.Info("Watchdog: %s healthy", name)
	}
}

func (w *Watchdog) MarkDown(name string) {
	w.mu.RLock()
	comp, exists := w.components[name]
	w.mu.RUnlock()
	if !exists {
		return
	}
	if atomic.SwapUint32(&comp.IsHealthy, 0) == 1 {
		logging.Warn("Watchdog: %s marked down", name)
	}
}

func (w *Watchdog) Start() {
	if !atomic.CompareAndSwapUint32(&w.running, 0, 1) {
		return
	}
	go w.monitorLoop()
}

func (w *Watchdog) monitorLoop() {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.checkAllComponents()
		}
	}
}

func (w *Watchdog) checkAllComponents() {
	now := w.now().UnixNano()

	w.mu.RLock()
	defer w.mu.RUnlock()

	for name, comp := range w.components {
		lastBeat := atomic.LoadInt64(&comp.LastHeartbeat)
		if lastBeat == 0 || comp.Threshold == 0 {
			continue
		}

		elapsed := time.Duration(now - lastBeat)
		if elapsed > comp.Threshold && atomic.SwapUint32(&comp.IsHealthy, 0) == 1 {
			logging.Error("Watchdog: %s unhealthy (no heartbeat for %v)", name, elapsed)
		}
	}
}

func (w *Watchdog) IsHealthy(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if comp, exists := w.components[name]; exists {
		return atomic.LoadUint32(&comp.IsHealthy) == 1
	}
	return false
}

func (w *Watchdog) Stop() {
	if atomic.CompareAndSwapUint32(&w.running, 1, 0) {
		close(w.stop)
	}
}

func (w *Watchdog) GetStatus() map[string]bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	status := make(map[string]bool, len(w.components))
	for name, comp := range w.components {
		status[name] = atomic.LoadUint32(&comp.IsHealthy) == 1
	}
	return status
}
