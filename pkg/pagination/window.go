package pagination

import (
	"context"
	"time"
)

const (
	DefaultPageSize = 50
	DefaultMaxPages = 100
)

// PageFetcher returns one 1-based page of records sorted newest first.
type PageFetcher[T any] func(ctx context.Context, page int) ([]T, error)

// Window bounds a walk over date-descending pages by record count and age.
type Window[T any] struct {
	PageSize int
	// Limit caps the number of collected records; zero or negative means unbounded.
	Limit  int
	Cutoff time.Time
	DateOf func(T) time.Time
	// Keep filters records after the cutoff check. Nil keeps everything.
	Keep     func(T) bool
	MaxPages int
}

// Walk fetches pages sequentially and stops at the first of: limit reached,
// a dated record older than the cutoff, or a short page. Records with a zero
// date are kept and never end the walk.
func Walk[T any](ctx context.Context, w Window[T], fetch PageFetcher[T]) ([]T, error) {
	pageSize := w.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	maxPages := w.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	out := make([]T, 0)
	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := fetch(ctx, page)
		if err != nil {
			return nil, err
		}

		for _, record := range records {
			if w.DateOf != nil && !w.Cutoff.IsZero() {
				if date := w.DateOf(record); !date.IsZero() && date.Before(w.Cutoff) {
					return out, nil
				}
			}
			if w.Keep != nil && !w.Keep(record) {
				continue
			}
			out = append(out, record)
			if w.Limit > 0 && len(out) >= w.Limit {
				return out, nil
			}
		}

		if len(records) < pageSize {
			return out, nil
		}
	}
	return out, nil
}

// MonthsBack returns the start of a rolling window of the given number of calendar months.
func MonthsBack(now time.Time, months int) time.Time {
	return now.AddDate(0, -months, 0)
}
