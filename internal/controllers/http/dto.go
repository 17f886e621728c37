package http

import (
	"fmt"
	"time"
)

// RefreshOrdersRequest optionally narrows an order refresh to an
// explicit date range. Empty body means the configured lookback window.
type RefreshOrdersRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (r RefreshOrdersRequest) Range() (start, end time.Time, err error) {
	start, err = time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return start, end, fmt.Errorf("invalid startDate: %v", err)
	}
	end, err = time.Parse("2006-01-02", r.EndDate)
	if err != nil {
		return start, end, fmt.Errorf("invalid endDate: %v", err)
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("endDate before startDate")
	}
	return start, end, nil
}
