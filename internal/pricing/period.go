// Package pricing holds the pure rental pricing rules: booking period
// breakdown, per-line rent, cart discount distribution and cancellation charges.
package pricing

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DayType classifies a calendar day for rate selection.
type DayType string

const (
	DayTypeWeekday DayType = "weekday" // Monday to Thursday
	DayTypeWeekend DayType = "weekend" // Friday to Sunday
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Period is the breakdown of a rental window into full days and leftover hours.
type Period struct {
	TotalHours               float64
	Duration                 string
	WeekdayCount             int
	WeekendCount             int
	ExtraHours               float64
	LastDayTypeForExtraHours DayType
}

// IsZero reports whether the period has no duration.
func (p Period) IsZero() bool {
	return p.TotalHours <= 0
}

// ClassifyDay returns the day type of t in its own location.
func ClassifyDay(t time.Time) DayType {
	switch t.Weekday() {
	case time.Friday, time.Saturday, time.Sunday:
		return DayTypeWeekend
	default:
		return DayTypeWeekday
	}
}

// CombineDateTime joins a YYYY-MM-DD date and an HH:MM time into an instant in loc.
func CombineDateTime(date, hhmm string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	clock, err := time.Parse(timeLayout, strings.TrimSpace(hhmm))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", hhmm, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), nil
}

// CalculatePeriod splits pickup..dropoff into weekday/weekend full days and
// extra hours. A non-positive window yields the zero Period.
func CalculatePeriod(pickup, dropoff time.Time) Period {
	if !dropoff.After(pickup) {
		return Period{}
	}

	totalHours := dropoff.Sub(pickup).Hours()
	fullDays := int(math.Floor(totalHours / 24))
	extraHours := math.Mod(totalHours, 24)

	p := Period{
		TotalHours: totalHours,
		ExtraHours: extraHours,
		Duration:   formatDuration(fullDays, extraHours),
	}

	day := pickup
	for i := 0; i < fullDays; i++ {
		if ClassifyDay(day) == DayTypeWeekend {
			p.WeekendCount++
		} else {
			p.WeekdayCount++
		}
		day = day.AddDate(0, 0, 1)
	}

	if extraHours > 0 {
		p.LastDayTypeForExtraHours = ClassifyDay(day)
	}

	return p
}

func formatDuration(fullDays int, extraHours float64) string {
	s := fmt.Sprintf("%d days", fullDays)
	if h := int(math.Ceil(extraHours)); h > 0 {
		s += fmt.Sprintf(" %d hours", h)
	}
	return s
}
