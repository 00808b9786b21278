package interfaces

import (
	"fmt"
	"strings"
)

// TimeUnit is the unit a timelock is entered in.
type TimeUnit int

const (
	Second TimeUnit = iota
	Minute
	Hour
	Day
	Week
)

const (
	secondsInMinute = 60
	secondsInHour   = 60 * secondsInMinute
	secondsInDay    = 24 * secondsInHour
	secondsInWeek   = 7 * secondsInDay
)

// TimeUnits lists every unit in ascending order.
var TimeUnits = []TimeUnit{Second, Minute, Hour, Day, Week}

// String returns the plural unit name used in forms and flags.
func (u TimeUnit) String() string {
	switch u {
	case Second:
		return "seconds"
	case Minute:
		return "minutes"
	case Hour:
		return "hours"
	case Day:
		return "days"
	case Week:
		return "weeks"
	default:
		return "unknown"
	}
}

// Seconds returns the length of one unit in seconds.
func (u TimeUnit) Seconds() uint64 {
	switch u {
	case Minute:
		return secondsInMinute
	case Hour:
		return secondsInHour
	case Day:
		return secondsInDay
	case Week:
		return secondsInWeek
	default:
		return 1
	}
}

// ParseTimeUnit parses a unit name as returned by String.
func ParseTimeUnit(name string) (TimeUnit, error) {
	for _, u := range TimeUnits {
		if strings.EqualFold(u.String(), name) {
			return u, nil
		}
	}
	return Second, fmt.Errorf("invalid time unit: %s", name)
}

// Time is a duration entered as magnitude and unit.
type Time struct {
	Magnitude uint64
	Unit      TimeUnit
}

// Seconds converts the duration to seconds.
func (t Time) Seconds() uint64 {
	return t.Magnitude * t.Unit.Seconds()
}

func (t Time) String() string {
	return fmt.Sprintf("%d %s", t.Magnitude, t.Unit)
}
