package commands

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// SystemStats holds host and process statistics for /status.
type SystemStats struct {
	Hostname string
	Platform string
	Uptime   time.Duration

	CPUModel string
	CPUUsage float64

	TotalMemory   uint64
	UsedMemory    uint64
	MemoryPercent float64
	ProcessRSS    uint64

	GoVersion  string
	GoRoutines int
}

// gatherSystemStats collects what gopsutil can read; missing values stay zero.
func gatherSystemStats() *SystemStats {
	stats := &SystemStats{
		GoVersion:  runtime.Version(),
		GoRoutines: runtime.NumGoroutine(),
	}

	if hostInfo, err := host.Info(); err == nil {
		stats.Hostname = hostInfo.Hostname
		stats.Platform = hostInfo.Platform + " " + hostInfo.PlatformVersion
		stats.Uptime = time.Duration(hostInfo.Uptime) * time.Second
	}

	if cpuInfo, err := cpu.Info(); err == nil && len(cpuInfo) > 0 {
		stats.CPUModel = cpuInfo[0].ModelName
	}
	if cpuPercent, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		stats.CPUUsage = cpuPercent[0]
	}

	if memInfo, err := mem.VirtualMemory(); err == nil {
		stats.TotalMemory = memInfo.Total
		stats.UsedMemory = memInfo.Used
		stats.MemoryPercent = memInfo.UsedPercent
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfo(); err == nil {
			stats.ProcessRSS = info.RSS
		}
	}

	return stats
}
