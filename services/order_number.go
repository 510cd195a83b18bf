package services

import (
	"fmt"
	"time"
)

// orderDateKey returns the YYYYMMDD prefix for order numbers minted at t.
func orderDateKey(t time.Time) string {
	return t.UTC().Format("20060102")
}

// formatOrderNumber builds the human-facing order identifier: the date
// prefix followed by the day's sequence, zero-padded to four digits.
func formatOrderNumber(dateKey string, seq int) string {
	return fmt.Sprintf("%s%04d", dateKey, seq)
}
