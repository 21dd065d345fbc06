package rtc

import (
	"fmt"
	"time"

	"github.com/qset/obc"
)

// century is not stored by the device; only 2000-2099 can be represented.
const century = 2000

// DateTime holds the six time keeping fields of the RTC.
type DateTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// Epoch is the date-time the RTC is reset to.
var Epoch = DateTime{Year: 2000, Month: 1, Day: 1}

// FromTime converts t (in UTC) to a DateTime, truncating sub-second precision.
func FromTime(t time.Time) DateTime {
	t = t.UTC()
	return DateTime{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// Time returns the date-time as a UTC time.Time.
func (dt DateTime) Time() time.Time {
	return time.Date(dt.Year, time.Month(dt.Month), dt.Day, dt.Hour, dt.Minute, dt.Second, 0, time.UTC)
}

// Validate checks every field against the calendar and the device range.
func (dt DateTime) Validate() error {
	switch {
	case dt.Year < century || dt.Year >= century+100:
		return fmt.Errorf("year %d: %w", dt.Year, obc.ErrRange)
	case dt.Month < 1 || dt.Month > 12:
		return fmt.Errorf("month %d: %w", dt.Month, obc.ErrRange)
	case dt.Day < 1 || dt.Day > daysIn(dt.Year, dt.Month):
		return fmt.Errorf("day %d of %d-%02d: %w", dt.Day, dt.Year, dt.Month, obc.ErrRange)
	case dt.Hour < 0 || dt.Hour > 23:
		return fmt.Errorf("hour %d: %w", dt.Hour, obc.ErrRange)
	case dt.Minute < 0 || dt.Minute > 59:
		return fmt.Errorf("minute %d: %w", dt.Minute, obc.ErrRange)
	case dt.Second < 0 || dt.Second > 59:
		return fmt.Errorf("second %d: %w", dt.Second, obc.ErrRange)
	}
	return nil
}

func (dt DateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second)
}

func daysIn(year, month int) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
