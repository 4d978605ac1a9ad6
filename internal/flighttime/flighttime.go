// Package flighttime formats clock times and derives ETE and ETA.
//
// Times are minutes since midnight. Nothing here wraps past 24:00: an ETA
// 25 hours after midnight is shown as "25:00".
package flighttime

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Placeholder is shown in place of an ETA that cannot be computed.
const Placeholder = "--:--"

// ErrInvalidClock is returned for departure times not in HH:MM form.
var ErrInvalidClock = errors.New("invalid clock time")

// FormatTime renders totalMinutes as zero-padded "HH:MM". NaN and infinite
// inputs render as Placeholder.
func FormatTime(totalMinutes float64) string {
	if math.IsNaN(totalMinutes) || math.IsInf(totalMinutes, 0) {
		return Placeholder
	}
	hours := math.Floor(totalMinutes / 60)
	mins := math.Floor(math.Mod(totalMinutes, 60))
	return fmt.Sprintf("%02d:%02d", int(hours), int(mins))
}

// ParseClock parses a 24-hour "HH:MM" string into minutes since midnight.
func ParseClock(hhmm string) (float64, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, hhmm)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("%w: hours in %q", ErrInvalidClock, hhmm)
	}
	mins, err := strconv.Atoi(m)
	if err != nil || len(m) != 2 || mins < 0 || mins > 59 {
		return 0, fmt.Errorf("%w: minutes in %q", ErrInvalidClock, hhmm)
	}
	return float64(hours*60 + mins), nil
}

// CalculateETE returns the time enroute in minutes. A nil or zero TAS
// yields 0.
func CalculateETE(totalDistanceNm float64, tasKnots *float64) float64 {
	if tasKnots == nil || *tasKnots == 0 {
		return 0
	}
	return totalDistanceNm / *tasKnots * 60
}

// CalculateETA adds eteMinutes to the departure time. It returns Placeholder
// when the departure time is empty or unparseable, or when eteMinutes <= 0.
func CalculateETA(departureTime string, eteMinutes float64) string {
	if departureTime == "" || !(eteMinutes > 0) {
		return Placeholder
	}
	dep, err := ParseClock(departureTime)
	if err != nil {
		return Placeholder
	}
	return FormatTime(dep + eteMinutes)
}

// Clock returns the current time. Tests swap it for a fixed clock.
type Clock func() time.Time

// Now formats the clock's current local time as "HH:MM", the default
// departure time of a new plan.
func Now(clock Clock) string {
	if clock == nil {
		clock = time.Now
	}
	return clock().Format("15:04")
}
