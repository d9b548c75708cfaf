package entities

import "time"

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// NowAtOffset returns the current time shifted into a fixed UTC offset,
// independent of the host timezone. The agenda pins its notion of "today"
// to the department's zone (UTC-6) rather than the machine clock.
func NowAtOffset(offsetHours int) time.Time {
	zone := time.FixedZone("agenda", offsetHours*3600)
	return time.Now().In(zone)
}

// TodayAtOffset returns the current local day at the fixed offset as a
// YYYY-MM-DD string.
func TodayAtOffset(offsetHours int) string {
	return NowAtOffset(offsetHours).Format(DateLayout)
}

// ValidDate reports whether s is a well-formed YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidClock reports whether s is a well-formed HH:MM time of day.
func ValidClock(s string) bool {
	_, err := time.Parse(ClockLayout, s)
	return err == nil
}
