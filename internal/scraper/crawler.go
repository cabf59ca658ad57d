package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigilo/internal/browser"
	"github.com/ternarybob/vigilo/internal/common"
	"github.com/ternarybob/vigilo/internal/models"
)

// personnelTabWait bounds the wait for the personnel navigation control to
// become clickable after the organization page loads.
const personnelTabWait = 10 * time.Second

// Crawler enumerates the visible members of one organization's personnel
// listing through a browser session.
type Crawler struct {
	config    *common.Config
	extractor *Extractor
	paginator *Paginator
	limiter   *RateLimiter
	logger    arbor.ILogger
}

// NewCrawler wires the extractor, paginator, and rate limiter from config.
func NewCrawler(config *common.Config, logger arbor.ILogger) *Crawler {
	return &Crawler{
		config:    config,
		extractor: NewExtractor(config.Selectors, logger),
		paginator: NewPaginator(config.SettleDelay(), config.Scraper.MaxRevealSteps, config.Scraper.MaxResultsPerOrg, logger),
		limiter:   NewRateLimiter(config.SettleDelay()),
		logger:    logger,
	}
}

// Crawl returns the member records visible on the organization's personnel
// page, capped by configuration. It never returns an error: any internal
// failure is logged and degrades to an empty result so one organization's
// failure cannot abort the batch.
func (c *Crawler) Crawl(ctx context.Context, session *browser.Session, org *models.TrackedOrganization) []models.MemberRecord {
	records, err := c.crawl(ctx, session, org)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("organization", org.Name).
			Int("partial_records", len(records)).
			Msg("Organization crawl failed")
		return nil
	}

	c.logger.Info().
		Str("organization", org.Name).
		Int("members", len(records)).
		Msg("Organization crawl complete")
	return records
}

func (c *Crawler) crawl(ctx context.Context, session *browser.Session, org *models.TrackedOrganization) ([]models.MemberRecord, error) {
	browserCtx := session.Context()

	// Courtesy delay between hits on the same domain.
	if err := c.limiter.Wait(ctx, org.SourceURL); err != nil {
		return nil, err
	}

	if err := browser.Navigate(browserCtx, org.SourceURL, c.config.NavigationTimeout()); err != nil {
		return nil, err
	}
	if err := sleepCtx(ctx, c.config.SettleDelay()); err != nil {
		return nil, err
	}

	// Switch to the personnel view.
	tabSelector := c.config.Selectors.PersonnelTab
	if err := browser.WaitFor(browserCtx, tabSelector, browser.WaitClickable, personnelTabWait); err != nil {
		return nil, fmt.Errorf("personnel tab unavailable for %s: %w", org.Name, err)
	}
	if err := browser.Click(browserCtx, tabSelector); err != nil {
		return nil, err
	}
	if err := sleepCtx(ctx, c.config.SettleDelay()); err != nil {
		return nil, err
	}

	extract := func(ctx context.Context) ([]models.MemberRecord, error) {
		html, err := browser.OuterHTML(browserCtx)
		if err != nil {
			return nil, err
		}
		return c.extractor.ExtractCards(html, org.Name)
	}

	return c.paginator.CollectUntil(ctx, c.paginator.RevealMoreOn(browserCtx), extract)
}
