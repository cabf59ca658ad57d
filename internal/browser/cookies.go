package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// SavedCookie is one session cookie captured from an authenticated browser,
// loadable from a JSON cookies file.
type SavedCookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Secure   bool   `json:"secure"`
	HTTPOnly bool   `json:"httpOnly"`
	SameSite string `json:"sameSite"`
	Expires  int64  `json:"expires"` // unix seconds, 0 = session cookie
}

// LoadCookiesFile reads saved session cookies from a JSON file.
func LoadCookiesFile(path string) ([]SavedCookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies file %s: %w", path, err)
	}

	var cookies []SavedCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("failed to parse cookies file %s: %w", path, err)
	}
	return cookies, nil
}

// InjectCookies sets saved cookies into the browser so a crawl can reuse an
// authenticated session. Individual cookie failures are logged and skipped;
// the caller falls back to form login when the pattern check later fails.
func InjectCookies(browserCtx context.Context, cookies []SavedCookie, logger arbor.ILogger) error {
	if err := chromedp.Run(browserCtx, network.Enable()); err != nil {
		return fmt.Errorf("failed to enable network domain: %w", err)
	}

	return chromedp.Run(browserCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			successCount := 0
			for _, c := range cookies {
				var expires *cdp.TimeSinceEpoch
				if c.Expires > 0 {
					expiresTime := time.Unix(c.Expires, 0)
					if expiresTime.After(time.Now()) {
						timestamp := cdp.TimeSinceEpoch(expiresTime)
						expires = &timestamp
					}
				}

				// Chrome rejects leading-dot domains on SetCookie
				domain := strings.TrimPrefix(c.Domain, ".")

				param := network.SetCookie(c.Name, c.Value).
					WithDomain(domain).
					WithPath(c.Path).
					WithSecure(c.Secure).
					WithHTTPOnly(c.HTTPOnly).
					WithExpires(expires)

				switch strings.ToLower(c.SameSite) {
				case "strict":
					param = param.WithSameSite(network.CookieSameSiteStrict)
				case "lax":
					param = param.WithSameSite(network.CookieSameSiteLax)
				case "none":
					param = param.WithSameSite(network.CookieSameSiteNone)
				}

				if err := param.Do(ctx); err != nil {
					logger.Warn().
						Err(err).
						Str("cookie", c.Name).
						Str("domain", domain).
						Msg("Failed to inject saved cookie")
					continue
				}
				successCount++
			}

			logger.Debug().
				Int("injected", successCount).
				Int("total", len(cookies)).
				Msg("Saved-session cookies injected")
			return nil
		}),
	)
}
