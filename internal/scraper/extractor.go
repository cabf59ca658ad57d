package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigilo/internal/common"
	"github.com/ternarybob/vigilo/internal/models"
)

// Extractor reads structured member records out of a rendered document
// snapshot using the configured content selectors.
type Extractor struct {
	selectors common.SelectorConfig
	logger    arbor.ILogger
}

// NewExtractor creates an extractor bound to the configured selectors.
func NewExtractor(selectors common.SelectorConfig, logger arbor.ILogger) *Extractor {
	return &Extractor{
		selectors: selectors,
		logger:    logger,
	}
}

// ExtractCards parses all member cards currently present in the rendered
// HTML. Zero cards is a valid empty result. A card missing a required field
// is skipped and logged - one malformed card never aborts an organization's
// crawl.
func (e *Extractor) ExtractCards(html, organization string) ([]models.MemberRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered document: %w", err)
	}

	var records []models.MemberRecord
	skipped := 0

	doc.Find(e.selectors.MemberCard).Each(func(i int, card *goquery.Selection) {
		record, err := e.extractCard(card, organization)
		if err != nil {
			skipped++
			e.logger.Debug().
				Int("card_index", i).
				Str("organization", organization).
				Err(err).
				Msg("Skipping unparsable member card")
			return
		}
		records = append(records, record)
	})

	if skipped > 0 {
		e.logger.Warn().
			Int("skipped", skipped).
			Int("extracted", len(records)).
			Str("organization", organization).
			Msg("Some member cards could not be parsed")
	}

	return records, nil
}

// extractCard reads one member card. Name and profile link are required;
// the role subtitle is optional and extracts as empty when absent.
func (e *Extractor) extractCard(card *goquery.Selection, organization string) (models.MemberRecord, error) {
	name, err := textOf(card, e.selectors.MemberName)
	if err != nil {
		return models.MemberRecord{}, err
	}

	href, err := attrOf(card, e.selectors.ProfileLink, "href")
	if err != nil {
		return models.MemberRecord{}, err
	}

	// Role may legitimately be missing from a card; it diffs as empty.
	role, _ := textOf(card, e.selectors.MemberRole)

	return models.MemberRecord{
		Name:         name,
		Organization: organization,
		Role:         role,
		ProfileID:    profileIDFromHref(href),
		ProfileURL:   href,
		ObservedAt:   time.Now().UTC(),
	}, nil
}

// textOf returns the trimmed text of the first sub-element, or
// ErrElementMissing when no element matches.
func textOf(card *goquery.Selection, selector string) (string, error) {
	node := card.Find(selector)
	if node.Length() == 0 {
		return "", fmt.Errorf("%w: %s", models.ErrElementMissing, selector)
	}
	text := strings.TrimSpace(node.First().Text())
	if text == "" {
		return "", fmt.Errorf("%w: %s is empty", models.ErrElementMissing, selector)
	}
	return text, nil
}

// attrOf returns an attribute of the first sub-element, or ErrElementMissing
// when the element or attribute is absent.
func attrOf(card *goquery.Selection, selector, attr string) (string, error) {
	node := card.Find(selector)
	if node.Length() == 0 {
		return "", fmt.Errorf("%w: %s", models.ErrElementMissing, selector)
	}
	value, exists := node.First().Attr(attr)
	if !exists || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: %s[%s]", models.ErrElementMissing, selector, attr)
	}
	return value, nil
}

// profileIDFromHref derives the stable profile identifier from a card's
// profile link: the link with tracking query parameters and fragments
// stripped and the trailing slash trimmed. Unparsable hrefs fall back to the
// raw value so identity never silently collapses.
func profileIDFromHref(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/")
}
