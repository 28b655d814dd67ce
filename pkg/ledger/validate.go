package ledger

import (
	"fmt"
	"time"

	configv1 "github.com/clockwise-hq/clockwise/pkg/apis/config/v1"
	"github.com/clockwise-hq/clockwise/pkg/db/models"
)

const (
	dateLayout    = "2006-01-02"
	minutesPerDay = 24 * 60
	maxTimeOfDay  = minutesPerDay - 1
)

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, validationf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return date, nil
}

// ParseTimeOfDay parses an HH:MM wall clock time into minutes since
// midnight.
func ParseTimeOfDay(value string) (int, error) {
	clock, err := time.Parse("15:04", value)
	if err != nil {
		return 0, validationf("invalid time %q, expected HH:MM", value)
	}
	return models.Minutes(clock.Hour(), clock.Minute()), nil
}

// FormatTimeOfDay renders minutes since midnight as HH:MM.
func FormatTimeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ClampShiftSequence forces the sequence to its minimum of 1.
func ClampShiftSequence(seq int) int {
	if seq < 1 {
		return 1
	}
	return seq
}

func validateKind(kind models.EventKind) error {
	switch kind {
	case models.ClockIn, models.ClockOut:
		return nil
	}
	return validationf("invalid event kind %q", kind)
}

func validateOrigin(origin models.Origin) error {
	switch origin {
	case models.OriginOfficialDevice, models.OriginImported, models.OriginAdjustment:
		return nil
	}
	return validationf("invalid origin %q", origin)
}

func validateTimeOfDay(minutes int) error {
	if minutes < 0 || minutes > maxTimeOfDay {
		return validationf("time of day %d out of range 0..%d", minutes, maxTimeOfDay)
	}
	return nil
}

func validateDate(date time.Time) error {
	if date.IsZero() {
		return validationf("date is required")
	}
	return nil
}

// ShiftDuration computes the minutes between a clock-in and a clock-out in
// the same shift group. A clock-out earlier than its clock-in denotes one
// continuous shift crossing midnight.
func ShiftDuration(in, out int) int {
	if out < in {
		return out + minutesPerDay - in
	}
	return out - in
}

// checkShiftBounds applies the configured plausibility limits to the shift a
// clock-in/clock-out pair would imply.
func checkShiftBounds(limits configv1.LimitsConfig, inMin, outMin int) error {
	duration := ShiftDuration(inMin, outMin)
	if duration > limits.MaxShiftMinutes {
		return validationf("shift of %d minutes exceeds the %d minute maximum", duration, limits.MaxShiftMinutes)
	}
	if duration < limits.MinShiftMinutes {
		return validationf("shift of %d minutes is below the %d minute minimum", duration, limits.MinShiftMinutes)
	}
	return nil
}
