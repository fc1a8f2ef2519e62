package util

import (
	"fmt"
	"strconv"
	"time"
)

// StringToUint64 parses a snowflake.
func StringToUint64(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse uint64: %w", err)
	}
	return n, nil
}

// DiscordTimestamp renders t as a relative Discord timestamp, or "None" for zero.
func DiscordTimestamp(t time.Time) string {
	if t.IsZero() {
		return "None"
	}
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
