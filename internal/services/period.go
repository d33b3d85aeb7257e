package services

import "time"

// Chart periods accepted by the analytics and performance endpoints.
const (
	PeriodAll         = "all"
	PeriodYearToDate  = "ytd"
	PeriodOneYear     = "1y"
	PeriodSixMonths   = "6m"
	PeriodThreeMonths = "3m"
	PeriodOneMonth    = "1m"
)

// PeriodStart resolves a named period to its start date. "all" and
// unknown periods resolve to one year back.
func PeriodStart(period string, now time.Time) time.Time {
	return periodStart(period, now, time.Time{})
}

// periodStart resolves a named period to its start date. "all" (and the
// empty string) resolve to fallback, typically the portfolio's earliest
// acquisition date, or one year back when no fallback exists.
func periodStart(period string, now, fallback time.Time) time.Time {
	switch period {
	case PeriodYearToDate:
		return time.Date(now.UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case PeriodOneYear:
		return now.AddDate(0, 0, -365)
	case PeriodSixMonths:
		return now.AddDate(0, 0, -180)
	case PeriodThreeMonths:
		return now.AddDate(0, 0, -90)
	case PeriodOneMonth:
		return now.AddDate(0, 0, -30)
	default:
		if fallback.IsZero() {
			return now.AddDate(0, 0, -365)
		}
		return fallback
	}
}
