package util

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// maxRangeDays caps date-range runs so a typo cannot trigger a months-long
// backfill.
const maxRangeDays = 90

// PreviousBusinessDay returns the closest weekday strictly before t,
// formatted as YYYY-MM-DD. Exchange holidays are not modeled here; the
// calendar table upstream handles those.
func PreviousBusinessDay(t time.Time) string {
	d := t.AddDate(0, 0, -1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d.Format(dateLayout)
}

// BusinessDaysBetween enumerates the weekdays between start and end
// (inclusive, YYYY-MM-DD). Ranges longer than 90 days are truncated with
// a warning rather than rejected.
func BusinessDaysBetween(start, end string) ([]string, error) {
	startDt, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	endDt, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if startDt.After(endDt) {
		return nil, fmt.Errorf("start date %s is after end date %s", start, end)
	}

	if days := int(endDt.Sub(startDt).Hours()/24) + 1; days > maxRangeDays {
		log.Warnf("date range spans %d days; truncating to %d", days, maxRangeDays)
		endDt = startDt.AddDate(0, 0, maxRangeDays-1)
	}

	var days []string
	for d := startDt; !d.After(endDt); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days = append(days, d.Format(dateLayout))
	}
	return days, nil
}
