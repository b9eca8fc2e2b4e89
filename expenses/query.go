package expenses

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-expense-tracker/internal/errors"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Query filters and pages a list of expenses
type Query struct {
	UserID     *int64
	CategoryID *int64
	Currency   string
	StartDate  *time.Time // Inclusive
	EndDate    *time.Time // Inclusive
	Page       int
	Limit      int
}

// Offset is the number of rows skipped before the current page
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ParseQuery reads the GET /expenses query string. Missing paging values default to page 1 of 10.
func ParseQuery(values url.Values) (Query, error) {
	q := Query{Page: defaultPage, Limit: defaultLimit}

	var err error
	if q.UserID, err = positiveInt(values, "userId"); err != nil {
		return q, err
	}
	if q.CategoryID, err = positiveInt(values, "categoryId"); err != nil {
		return q, err
	}
	if c := strings.TrimSpace(values.Get("currency")); c != "" {
		q.Currency = strings.ToUpper(c)
	}
	if q.StartDate, err = date(values, "startDate", false); err != nil {
		return q, err
	}
	if q.EndDate, err = date(values, "endDate", true); err != nil {
		return q, err
	}
	if q.StartDate != nil && q.EndDate != nil && q.EndDate.Before(*q.StartDate) {
		return q, errors.BadRequest("endDate must not be before startDate")
	}

	if p, err := positiveInt(values, "page"); err != nil {
		return q, err
	} else if p != nil {
		q.Page = int(*p)
	}
	if l, err := positiveInt(values, "limit"); err != nil {
		return q, err
	} else if l != nil {
		q.Limit = int(min(*l, maxLimit))
	}
	return q, nil
}

func positiveInt(values url.Values, key string) (*int64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 1 {
		return nil, errors.BadRequest(key + " must be a positive integer")
	}
	return &n, nil
}

// date parses key. A bare yyyy-mm-dd end date covers the whole day.
func date(values url.Values, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		return nil, errors.BadRequest(key+" must be an ISO 8601 date", err)
	}
	if endOfDay && len(raw) == len(time.DateOnly) {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
