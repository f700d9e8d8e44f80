package search

import (
	"fmt"
	"time"
)

// Timeframe is a symbolic document-date window.
type Timeframe string

const (
	TimeframeLastWeek    Timeframe = "last_week"
	TimeframeLastMonth   Timeframe = "last_month"
	TimeframeLastQuarter Timeframe = "last_quarter"
	TimeframeLastYear    Timeframe = "last_year"
	TimeframeAll         Timeframe = "all"
)

// FromDate translates a timeframe into a concrete lower bound relative to
// now. TimeframeAll yields nil (no bound).
func (t Timeframe) FromDate(now time.Time) (*time.Time, error) {
	var from time.Time

	switch t {
	case TimeframeLastWeek:
		from = now.AddDate(0, 0, -7)
	case TimeframeLastMonth:
		from = now.AddDate(0, -1, 0)
	case TimeframeLastQuarter:
		from = now.AddDate(0, -3, 0)
	case TimeframeLastYear:
		from = now.AddDate(-1, 0, 0)
	case TimeframeAll:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown timeframe: %s", t)
	}

	return &from, nil
}
