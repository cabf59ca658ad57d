package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigilo/internal/common"
	"github.com/ternarybob/vigilo/internal/models"
)

// postLoginSettle is the fixed pause after submitting the login form before
// the resulting location is inspected.
const postLoginSettle = 5 * time.Second

// Credentials carries authentication inputs for the source site. Cookies are
// optional saved-session cookies injected before login.
type Credentials struct {
	Username string
	Password string
	Cookies  []SavedCookie
}

// Session owns one browser-automation session. It is the only shared
// mutable resource in a batch run and is never used concurrently.
type Session struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc

	mu       sync.Mutex
	released bool
}

// Context returns the chromedp browser context for running actions.
func (s *Session) Context() context.Context {
	return s.browserCtx
}

// Manager launches, authenticates, and tears down browser sessions.
type Manager struct {
	config *common.Config
	logger arbor.ILogger
}

// NewManager creates a session manager.
func NewManager(config *common.Config, logger arbor.ILogger) *Manager {
	return &Manager{
		config: config,
		logger: logger,
	}
}

// Acquire launches a browser with the configured flags and probes it with a
// blank navigation before handing it out. On probe failure both the browser
// and allocator contexts are cancelled.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	startTime := time.Now()

	allocatorCtx, allocCancel := chromedp.NewExecAllocator(ctx, m.buildAllocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	probeCtx, probeCancel := context.WithTimeout(browserCtx, m.config.NavigationTimeout())
	defer probeCancel()

	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("browser failed startup probe: %w", err)
	}

	m.logger.Debug().
		Dur("startup_time", time.Since(startTime)).
		Bool("headless", m.config.Browser.Headless).
		Msg("Browser session acquired")

	return &Session{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}, nil
}

// buildAllocatorOptions converts browser config into Chrome launch flags.
// Each flag is added only when enabled; absence keeps default browser
// behavior.
func (m *Manager) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.UserAgent(m.config.Browser.UserAgent),
	}

	if m.config.Browser.Headless {
		opts = append(opts, chromedp.Flag("headless", true))
	}
	if m.config.Browser.DisableGPU {
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	}
	if m.config.Browser.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if m.config.Browser.DisableSharedMemory {
		opts = append(opts, chromedp.Flag("disable-dev-shm-usage", true))
	}

	return opts
}

// Authenticate logs the session in to the source site. Failure kinds:
// MissingCredentials before any navigation, Timeout when the login form
// never renders within the bounded wait, Rejected when the post-login
// location does not match the expected logged-in pattern.
func (m *Manager) Authenticate(ctx context.Context, session *Session, creds Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return models.NewAuthError(models.AuthMissingCredentials, fmt.Errorf("username and password are required"))
	}

	browserCtx := session.Context()
	sel := m.config.Selectors

	if len(creds.Cookies) > 0 {
		if err := InjectCookies(browserCtx, creds.Cookies, m.logger); err != nil {
			// Cookie injection is an optimization; fall through to form login.
			m.logger.Warn().Err(err).Msg("Saved-cookie injection failed, continuing with form login")
		}
	}

	m.logger.Info().Str("url", m.config.Auth.LoginURL).Msg("Authenticating session")

	if err := Navigate(browserCtx, m.config.Auth.LoginURL, m.config.NavigationTimeout()); err != nil {
		return models.NewAuthError(models.AuthTimeout, fmt.Errorf("login page navigation: %w", err))
	}

	if err := WaitFor(browserCtx, sel.LoginUsername, WaitPresent, m.config.LoginWait()); err != nil {
		return models.NewAuthError(models.AuthTimeout, fmt.Errorf("login form did not render: %w", err))
	}

	if err := chromedp.Run(browserCtx,
		chromedp.SendKeys(sel.LoginUsername, creds.Username, chromedp.ByQuery),
		chromedp.SendKeys(sel.LoginPassword, creds.Password, chromedp.ByQuery),
		chromedp.Click(sel.LoginSubmit, chromedp.ByQuery),
	); err != nil {
		return models.NewAuthError(models.AuthTimeout, fmt.Errorf("login form submission: %w", err))
	}

	if err := sleepCtx(browserCtx, postLoginSettle); err != nil {
		return models.NewAuthError(models.AuthTimeout, err)
	}

	location, err := Location(browserCtx)
	if err != nil {
		return models.NewAuthError(models.AuthRejected, fmt.Errorf("could not read post-login location: %w", err))
	}

	if !strings.Contains(location, m.config.Auth.LoggedInPattern) {
		return models.NewAuthError(models.AuthRejected,
			fmt.Errorf("post-login location %q does not match pattern %q", location, m.config.Auth.LoggedInPattern))
	}

	m.logger.Info().Msg("Session authenticated")
	return nil
}

// Release tears down the session. It runs exactly once per acquired session
// regardless of prior failures, never panics, and never propagates teardown
// errors - they are logged only.
func (m *Manager) Release(session *Session) {
	if session == nil {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.released {
		return
	}
	session.released = true

	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn().Str("panic", fmt.Sprintf("%v", r)).Msg("Browser teardown panicked")
		}
	}()

	if session.browserCancel != nil {
		session.browserCancel()
	}
	if session.allocCancel != nil {
		session.allocCancel()
	}

	m.logger.Debug().Msg("Browser session released")
}

// sleepCtx pauses for the given duration, returning early if the context is
// cancelled.
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
