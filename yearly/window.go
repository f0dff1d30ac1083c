package yearly

import (
	"fmt"
	"time"
)

// TargetYear is the UTC calendar year preceding the year of now
func TargetYear(now time.Time) int {
	return now.UTC().Year() - 1
}

// Window is a half-open time range [Start, End)
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowFor returns the range covering the UTC calendar year
func WindowFor(year int) Window {
	return Window{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func SummaryText(year int, recordCount int) string {
	return fmt.Sprintf("Auto-generated yearly summary for %d: %d records.", year, recordCount)
}
