package models

import "time"

// DeliveryFailure is a record that neither the primary nor the fallback
// destination accepted.
type DeliveryFailure struct {
	ID          int64
	RecordID    string
	GuildID     string
	Category    LogCategory
	Destination string
	Error       string
	CreatedAt   time.Time
}
