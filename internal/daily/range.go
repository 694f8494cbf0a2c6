package daily

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DateLayout is the layout of the date keys produced by Dates.
const DateLayout = "2006-01-02"

// Dates lists every date key from from to to inclusive.
func Dates(from, to string) ([]string, error) {
	start, err := time.Parse(DateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("parse start date: %w", err)
	}
	end, err := time.Parse(DateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("parse end date: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s", to, from)
	}
	var out []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(DateLayout))
	}
	return out, nil
}

// CheckRange runs CheckConsistency for every date against deckID using at
// most workers goroutines and returns the dates that failed, sorted.
func (g *Generator) CheckRange(ctx context.Context, dates []string, deckID string, iterations, workers int) ([]string, error) {
	if workers <= 0 {
		workers = 1
	}

	var (
		mu     sync.Mutex
		failed []string
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for _, date := range dates {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if !g.CheckConsistency(date, deckID, iterations) {
				mu.Lock()
				failed = append(failed, date)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.Sort(failed)
	return failed, nil
}
