package command

import (
	"fmt"
	"time"
)

// parseNow returns the reference time of an invocation. Scheduled runs don't
// pass one, backfills pass an RFC3339 timestamp from the following year.
func parseNow(value string, clock func() time.Time) (time.Time, error) {
	if value == "" {
		return clock().UTC(), nil
	}

	now, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now value %q: %w", value, err)
	}
	return now.UTC(), nil
}
