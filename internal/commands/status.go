package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// StatusReport is everything shown by /status.
type StatusReport struct {
	System     *SystemStats
	Guilds     int
	Latency    time.Duration
	Uptime     time.Duration
	Events     uint64
	EventRate  float64
	CacheSize  int
	Components map[string]bool
}

func (h *Handler) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	// gathering CPU usage takes a moment
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		return err
	}

	report := StatusReport{
		System:  gatherSystemStats(),
		Guilds:  len(s.State.Guilds),
		Latency: s.HeartbeatLatency(),
	}
	if rate := h.deps.Metrics.EventRate(); rate != nil {
		report.Uptime = rate.Uptime()
		report.Events = rate.Count()
		report.EventRate = rate.PerSecond()
	}
	if h.deps.Cache != nil {
		report.CacheSize = h.deps.Cache.Len()
	}
	if h.deps.Health != nil {
		report.Components = h.deps.Health.GetStatus()
	}

	embeds := []*discordgo.MessageEmbed{buildStatusEmbed(report)}
	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &embeds,
	})
	return err
}

func buildStatusEmbed(r StatusReport) *discordgo.MessageEmbed {
	sys := r.System
	if sys == nil {
		sys = &SystemStats{}
	}

	color := 0x2ECC71
	var health []string
	names := make([]string, 0, len(r.Components))
	for name := range r.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mark := "🟢"
		if !r.Components[name] {
			mark = "🔴"
			color = 0xE74C3C
		}
		health = append(health, fmt.Sprintf("%s %s", mark, name))
	}
	healthText := "No components registered"
	if len(health) > 0 {
		healthText = strings.Join(health, "\n")
	}

	return &discordgo.MessageEmbed{
		Title: "📊 Logger Status",
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "🤖 Bot",
				Value: fmt.Sprintf("**Guilds:** `%d`\n**Gateway Latency:** `%s`\n**Uptime:** `%s`",
					r.Guilds, r.Latency.Round(time.Millisecond), formatDuration(r.Uptime)),
				Inline: true,
			},
			{
				Name: "📥 Events",
				Value: fmt.Sprintf("**Total:** `%d`\n**Rate:** `%.2f/s`\n**Cached Members:** `%d`",
					r.Events, r.EventRate, r.CacheSize),
				Inline: true,
			},
			{
				Name:   "🩺 Health",
				Value:  healthText,
				Inline: false,
			},
			{
				Name: "🖥️ Host",
				Value: fmt.Sprintf("**Hostname:** `%s`\n**Platform:** `%s`\n**Uptime:** `%s`\n**CPU:** `%s` at `%.1f%%`",
					orUnknown(sys.Hostname), orUnknown(sys.Platform), formatDuration(sys.Uptime), orUnknown(sys.CPUModel), sys.CPUUsage),
				Inline: false,
			},
			{
				Name: "💾 Memory",
				Value: fmt.Sprintf("**Used:** `%s / %s` (%.1f%%)\n**Process RSS:** `%s`\n**Goroutines:** `%d` (%s)",
					formatBytes(sys.UsedMemory), formatBytes(sys.TotalMemory), sys.MemoryPercent,
					formatBytes(sys.ProcessRSS), sys.GoRoutines, sys.GoVersion),
				Inline: false,
			},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
