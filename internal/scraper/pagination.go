package scraper

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigilo/internal/browser"
	"github.com/ternarybob/vigilo/internal/models"
)

// ExtractFunc reads the currently rendered member set.
type ExtractFunc func(ctx context.Context) ([]models.MemberRecord, error)

// RevealFunc triggers one incremental content reveal.
type RevealFunc func(ctx context.Context) error

// Paginator drives scroll-reveal pagination: a bounded number of reveal
// steps, each followed by a settle delay and an extraction of the rendered
// set. Both MaxSteps and ResultCap are hard bounds on worst-case crawl
// duration - a deliberate under-approximation, not a completeness guarantee.
type Paginator struct {
	settleDelay time.Duration
	maxSteps    int
	resultCap   int
	logger      arbor.ILogger
}

// NewPaginator creates a paginator with the configured bounds.
func NewPaginator(settleDelay time.Duration, maxSteps, resultCap int, logger arbor.ILogger) *Paginator {
	return &Paginator{
		settleDelay: settleDelay,
		maxSteps:    maxSteps,
		resultCap:   resultCap,
		logger:      logger,
	}
}

// RevealMore scrolls to the bottom of the page and pauses the settle delay
// so asynchronously rendered cards have time to appear.
func (p *Paginator) RevealMore(ctx context.Context) error {
	if err := browser.ScrollToBottom(ctx); err != nil {
		return err
	}
	return sleepCtx(ctx, p.settleDelay)
}

// RevealMoreOn binds RevealMore to a browser context so the pagination loop
// can separate cancellation (caller ctx) from browser actions.
func (p *Paginator) RevealMoreOn(browserCtx context.Context) RevealFunc {
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return p.RevealMore(browserCtx)
	}
}

// CollectUntil repeatedly reveals and extracts until maxSteps reveal steps
// have executed or the accumulated record count reaches resultCap, whichever
// comes first. Records already captured in an earlier step are deduplicated
// by ProfileID. Cancellation is checked between reveal steps; on error or
// cancel the records collected so far are returned alongside the error.
func (p *Paginator) CollectUntil(ctx context.Context, reveal RevealFunc, extract ExtractFunc) ([]models.MemberRecord, error) {
	seen := make(map[string]struct{})
	var collected []models.MemberRecord

	for step := 0; step < p.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return collected, err
		}

		if err := reveal(ctx); err != nil {
			return collected, err
		}

		records, err := extract(ctx)
		if err != nil {
			return collected, err
		}

		newThisStep := 0
		for _, record := range records {
			if _, dup := seen[record.ProfileID]; dup {
				continue
			}
			seen[record.ProfileID] = struct{}{}
			collected = append(collected, record)
			newThisStep++

			if len(collected) >= p.resultCap {
				p.logger.Debug().
					Int("step", step+1).
					Int("collected", len(collected)).
					Msg("Result cap reached, stopping pagination")
				return collected[:p.resultCap], nil
			}
		}

		p.logger.Debug().
			Int("step", step+1).
			Int("new_records", newThisStep).
			Int("total", len(collected)).
			Msg("Reveal step complete")
	}

	return collected, nil
}

// sleepCtx pauses for the given duration, returning early on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
