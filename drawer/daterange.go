package drawer

import (
	"fmt"
	"time"
)

// =============================================================================
// DAY KEY - Timezone-safe calendar date bucketing
// =============================================================================

// DayKey identifies a local calendar date. Bucketing by (year, month, day)
// of a timestamp's own wall clock, rather than by epoch-time division,
// means two instants on the same local date but different UTC offsets land
// in the same bucket.
type DayKey struct {
	Year  int
	Month time.Month
	Day   int
}

// DayKeyOf returns the calendar date of t in t's own location.
func DayKeyOf(t time.Time) DayKey {
	y, m, d := t.Date()
	return DayKey{Year: y, Month: m, Day: d}
}

func (k DayKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, k.Month, k.Day)
}

// Time returns midnight of the key's date in the given location.
func (k DayKey) Time(loc *time.Location) time.Time {
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, loc)
}

// Next returns the following calendar date.
func (k DayKey) Next() DayKey {
	return DayKeyOf(k.Time(time.UTC).AddDate(0, 0, 1))
}

// Before reports whether k is an earlier calendar date than other.
func (k DayKey) Before(other DayKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	if k.Month != other.Month {
		return k.Month < other.Month
	}
	return k.Day < other.Day
}

// =============================================================================
// DATE RANGE - Inclusive calendar range for period aggregation
// =============================================================================

// DateRange is an inclusive [Start, End] range of calendar dates.
type DateRange struct {
	Start DayKey
	End   DayKey
}

// Contains reports whether t's local calendar date falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	k := DayKeyOf(t)
	return !k.Before(r.Start) && !r.End.Before(k)
}

// Len returns the number of calendar days in the range.
func (r DateRange) Len() int {
	n := 1
	for k := r.Start; k.Before(r.End); k = k.Next() {
		n++
	}
	return n
}

// Days returns every calendar date in the range, ascending.
func (r DateRange) Days() []DayKey {
	var days []DayKey
	for k := r.Start; ; k = k.Next() {
		days = append(days, k)
		if !k.Before(r.End) {
			break
		}
	}
	return days
}

// =============================================================================
// RANGE PRESETS - Operator date-range selection
// =============================================================================

type RangePreset string

const (
	RangeToday  RangePreset = "today"
	RangeWeek   RangePreset = "week"
	RangeMonth  RangePreset = "month"
	RangeCustom RangePreset = "custom"
)

// ResolvePreset turns a preset into a concrete range relative to now.
// WEEK is the trailing seven days including today; MONTH runs from the
// first of the current month through today. CUSTOM ranges come with
// explicit bounds and bypass this function.
func ResolvePreset(preset RangePreset, now time.Time) (DateRange, error) {
	today := DayKeyOf(now)
	switch preset {
	case RangeToday:
		return DateRange{Start: today, End: today}, nil
	case RangeWeek:
		return DateRange{Start: DayKeyOf(now.AddDate(0, 0, -6)), End: today}, nil
	case RangeMonth:
		first := DayKey{Year: today.Year, Month: today.Month, Day: 1}
		return DateRange{Start: first, End: today}, nil
	default:
		return DateRange{}, fmt.Errorf("unknown range preset %q", preset)
	}
}
