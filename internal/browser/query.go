package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/ternarybob/vigilo/internal/models"
)

// WaitKind selects the readiness condition for a bounded wait.
type WaitKind int

const (
	// WaitPresent waits for the element to exist in the DOM.
	WaitPresent WaitKind = iota
	// WaitClickable waits for the element to be visible and enabled.
	WaitClickable
)

// WaitFor blocks until the selector satisfies the wait kind or the timeout
// elapses. The remote page renders asynchronously, so every direct lookup of
// rendered content must go through here rather than an instantaneous query.
// A timeout maps to ErrNotFound; the caller decides whether that aborts the
// organization or the batch.
func WaitFor(ctx context.Context, selector string, kind WaitKind, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var action chromedp.Action
	switch kind {
	case WaitClickable:
		action = chromedp.Tasks{
			chromedp.WaitVisible(selector, chromedp.ByQuery),
			chromedp.WaitEnabled(selector, chromedp.ByQuery),
		}
	default:
		action = chromedp.WaitReady(selector, chromedp.ByQuery)
	}

	if err := chromedp.Run(waitCtx, action); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: selector %q not ready within %s", models.ErrNotFound, selector, timeout)
		}
		return err
	}
	return nil
}

// Navigate loads a URL under a bounded deadline.
func Navigate(ctx context.Context, url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Click clicks the first element matching the selector.
func Click(ctx context.Context, selector string) error {
	if err := chromedp.Run(ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click on %q failed: %w", selector, err)
	}
	return nil
}

// OuterHTML snapshots the full rendered document for goquery extraction.
func OuterHTML(ctx context.Context) (string, error) {
	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to snapshot rendered document: %w", err)
	}
	return html, nil
}

// Location reads the current page URL.
func Location(ctx context.Context) (string, error) {
	var location string
	if err := chromedp.Run(ctx, chromedp.Location(&location)); err != nil {
		return "", err
	}
	return location, nil
}

// ScrollToBottom triggers one incremental content reveal.
func ScrollToBottom(ctx context.Context) error {
	return chromedp.Run(ctx,
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight);`, nil))
}
