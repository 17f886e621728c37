package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ordersync/internal/domain"
	"ordersync/internal/upstream"
)

// Span is a contiguous, inclusive date range fetched as one unit. Both
// bounds are dates at UTC midnight.
type Span struct {
	Start time.Time
	End   time.Time
}

// Days is the number of whole days between the bounds; 0 means a
// single-day span.
func (s Span) Days() int {
	return int(s.End.Sub(s.Start).Hours() / 24)
}

func (s Span) String() string {
	return dateStr(s.Start) + ".." + dateStr(s.End)
}

// SpanFailure is an irreducible failure: a single-day span whose listing
// call failed after all bisection. It is recorded, never retried.
type SpanFailure struct {
	Span Span
	Err  error
}

func dateStr(t time.Time) string { return t.Format("2006-01-02") }

// fetchOrdersChunked fetches a date range by degrading scope on failure.
// The work list starts as fixed windows of chunkDays; a failed span is
// bisected and both halves go back onto the front of the list, so a
// problematic sub-range is resolved before its siblings are attempted.
// One calendar day is the failure floor.
func fetchOrdersChunked(
	ctx context.Context,
	client upstream.ClientInterface,
	span Span,
	chunkDays int,
	progress upstream.ProgressFunc,
	log *zap.Logger,
) ([]domain.Order, []SpanFailure) {
	var (
		orders   []domain.Order
		failures []SpanFailure
	)
	if span.End.Before(span.Start) {
		return orders, failures
	}

	var work []Span
	if chunkDays > 0 {
		cursor := span.Start
		for !cursor.After(span.End) {
			chunkEnd := cursor.AddDate(0, 0, chunkDays-1)
			if chunkEnd.After(span.End) {
				chunkEnd = span.End
			}
			work = append(work, Span{Start: cursor, End: chunkEnd})
			cursor = chunkEnd.AddDate(0, 0, 1)
		}
	} else {
		work = append(work, span)
	}

	for len(work) > 0 {
		current := work[0]
		work = work[1:]

		fetched, err := client.FetchOrders(ctx, current.Start, current.End, progress)
		if err == nil {
			orders = append(orders, fetched...)
			continue
		}

		if current.Days() <= 0 {
			log.Warn("order search failed for single day, giving up on it",
				zap.String("span", current.String()), zap.Error(err))
			failures = append(failures, SpanFailure{Span: current, Err: err})
			continue
		}

		mid := current.Start.AddDate(0, 0, current.Days()/2)
		log.Info("order search failed, bisecting span",
			zap.String("span", current.String()), zap.Error(err))
		work = append([]Span{
			{Start: current.Start, End: mid},
			{Start: mid.AddDate(0, 0, 1), End: current.End},
		}, work...)
	}

	return orders, failures
}
