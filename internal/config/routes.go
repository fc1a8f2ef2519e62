package config

import (
	"strings"

	"go-modlogger/internal/models"
	"go-modlogger/pkg/util"
)

// RoutesConfig is the static category to channel mapping plus the single
// fallback destination used when a primary is missing or unreachable.
type RoutesConfig struct {
	Channels           map[string]string `json:"channels"`
	Fallback           string            `json:"fallback"`
	FallbackWebhookURL string            `json:"fallback_webhook_url"`
}

// Destination returns the configured channel for a category.
func (r RoutesConfig) Destination(category models.LogCategory) (string, bool) {
	id, ok := r.Channels[string(category)]
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// FallbackDestination prefers the backup channel and falls back to the webhook URL.
func (r RoutesConfig) FallbackDestination() string {
	if r.Fallback != "" {
		return r.Fallback
	}
	return r.FallbackWebhookURL
}

func knownCategory(name string) bool {
	return models.LogCategory(name).Valid()
}

// validDestination accepts an empty value, a channel snowflake or a webhook URL.
func validDestination(dest string) error {
	if dest == "" || strings.HasPrefix(dest, "https://") {
		return nil
	}
	if _, err := util.StringToUint64(dest); err != nil {
		return err
	}
	return nil
}
