package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigilo/internal/browser"
	"github.com/ternarybob/vigilo/internal/common"
	"github.com/ternarybob/vigilo/internal/detector"
	"github.com/ternarybob/vigilo/internal/interfaces"
	"github.com/ternarybob/vigilo/internal/models"
)

// State tracks batch progress: Idle -> Authenticating -> per-organization
// (Navigating/Crawling/Diffing/Persisting) -> Completed | Failed.
type State string

const (
	StateIdle           State = "idle"
	StateAuthenticating State = "authenticating"
	StateNavigating     State = "navigating"
	StateCrawling       State = "crawling"
	StateDiffing        State = "diffing"
	StatePersisting     State = "persisting"
	StateCompleted      State = "completed"
	StateFailed         State = "failed"
)

// SessionManager is the session lifecycle surface the orchestrator drives.
type SessionManager interface {
	Acquire(ctx context.Context) (*browser.Session, error)
	Authenticate(ctx context.Context, session *browser.Session, creds browser.Credentials) error
	Release(session *browser.Session)
}

// Crawler enumerates one organization's members. Implementations never
// return an error; failures degrade to an empty slice.
type Crawler interface {
	Crawl(ctx context.Context, session *browser.Session, org *models.TrackedOrganization) []models.MemberRecord
}

// OrganizationResult is the per-organization breakdown in a batch summary.
type OrganizationResult struct {
	Organization    string `json:"organization"`
	MembersSeen     int    `json:"members_seen"`
	EventsPersisted int    `json:"events_persisted"`
	Failed          bool   `json:"failed"`
}

// Summary is the outbound contract handed to the presentation layer after a
// batch run.
type Summary struct {
	OrganizationsAttempted int                  `json:"organizations_attempted"`
	TotalEvents            int                  `json:"total_events"`
	Results                []OrganizationResult `json:"results"`
	StartedAt              time.Time            `json:"started_at"`
	CompletedAt            time.Time            `json:"completed_at"`
}

// Orchestrator runs one batch: authenticate once, then crawl, diff, and
// persist per tracked organization, strictly sequentially. It owns the
// browser session for the lifetime of the run.
type Orchestrator struct {
	config   *common.Config
	sessions SessionManager
	crawler  Crawler
	detector *detector.Detector
	changes  interfaces.ChangeStorage
	orgs     interfaces.OrganizationStorage
	logger   arbor.ILogger
	state    State
}

// NewOrchestrator creates a batch orchestrator.
func NewOrchestrator(
	config *common.Config,
	sessions SessionManager,
	crawler Crawler,
	det *detector.Detector,
	changes interfaces.ChangeStorage,
	orgs interfaces.OrganizationStorage,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		config:   config,
		sessions: sessions,
		crawler:  crawler,
		detector: det,
		changes:  changes,
		orgs:     orgs,
		logger:   logger,
		state:    StateIdle,
	}
}

// State returns the orchestrator's current state.
func (o *Orchestrator) State() State {
	return o.state
}

// Run executes one batch. Authentication failure is fatal for the whole
// batch; each per-organization failure is isolated, contributing zero events
// while the remaining organizations are still attempted. The session is
// released exactly once on every exit path. Partial failure is still overall
// success - only auth, config, and cancellation errors fail the run.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{StartedAt: time.Now().UTC()}

	organizations, err := o.orgs.ListActive(ctx)
	if err != nil {
		o.setState(StateFailed)
		return summary, fmt.Errorf("failed to list tracked organizations: %w", err)
	}

	if len(organizations) == 0 {
		o.logger.Warn().Msg("No active organizations tracked, nothing to do")
		summary.CompletedAt = time.Now().UTC()
		o.setState(StateCompleted)
		return summary, nil
	}

	o.setState(StateAuthenticating)

	session, err := o.sessions.Acquire(ctx)
	if err != nil {
		o.setState(StateFailed)
		return summary, fmt.Errorf("failed to acquire browser session: %w", err)
	}
	defer o.sessions.Release(session)

	creds, err := o.buildCredentials()
	if err != nil {
		o.setState(StateFailed)
		return summary, err
	}

	if err := o.sessions.Authenticate(ctx, session, creds); err != nil {
		o.setState(StateFailed)
		return summary, err
	}

	interOrgDelay := o.config.SettleDelay() * 2

	for i, org := range organizations {
		if err := ctx.Err(); err != nil {
			o.setState(StateFailed)
			summary.CompletedAt = time.Now().UTC()
			return summary, err
		}

		result := o.processOrganization(ctx, session, org)
		summary.Results = append(summary.Results, result)
		summary.OrganizationsAttempted++
		summary.TotalEvents += result.EventsPersisted

		// Courtesy pause between organizations to respect rate limits.
		if i < len(organizations)-1 {
			if err := sleepCtx(ctx, interOrgDelay); err != nil {
				o.setState(StateFailed)
				summary.CompletedAt = time.Now().UTC()
				return summary, err
			}
		}
	}

	summary.CompletedAt = time.Now().UTC()
	o.setState(StateCompleted)

	o.logger.Info().
		Int("organizations", summary.OrganizationsAttempted).
		Int("change_events", summary.TotalEvents).
		Dur("duration", summary.CompletedAt.Sub(summary.StartedAt)).
		Msg("Batch run complete")

	return summary, nil
}

// processOrganization crawls, diffs, and persists one organization. All
// failures stay inside this method; store errors drop the affected events
// and mark the result failed, but the remaining records and organizations
// are still attempted.
func (o *Orchestrator) processOrganization(ctx context.Context, session *browser.Session, org *models.TrackedOrganization) OrganizationResult {
	result := OrganizationResult{Organization: org.Name}

	o.setState(StateNavigating)
	o.logger.Info().Str("organization", org.Name).Str("url", org.SourceURL).Msg("Processing organization")

	o.setState(StateCrawling)
	records := o.crawler.Crawl(ctx, session, org)
	result.MembersSeen = len(records)

	o.setState(StateDiffing)
	for _, record := range records {
		event, err := o.detector.Classify(ctx, record)
		if err != nil {
			result.Failed = true
			o.logger.Error().
				Err(err).
				Str("organization", org.Name).
				Str("member", record.Name).
				Msg("Change classification failed, event lost for this pass")
			continue
		}
		if event == nil {
			continue
		}

		o.setState(StatePersisting)
		if err := o.changes.InsertChange(ctx, event); err != nil {
			result.Failed = true
			o.logger.Error().
				Err(err).
				Str("organization", org.Name).
				Str("member", event.Name).
				Msg("Failed to persist change event, lost for this pass")
			continue
		}
		result.EventsPersisted++
	}

	o.logger.Info().
		Str("organization", org.Name).
		Int("members_seen", result.MembersSeen).
		Int("events_persisted", result.EventsPersisted).
		Bool("failed", result.Failed).
		Msg("Organization processed")

	return result
}

// buildCredentials assembles authentication inputs from config, loading
// saved cookies when configured. Missing credentials surface as the fatal
// AuthError the session manager would raise, but before any navigation.
func (o *Orchestrator) buildCredentials() (browser.Credentials, error) {
	creds := browser.Credentials{
		Username: o.config.Auth.Username,
		Password: o.config.Auth.Password,
	}

	if creds.Username == "" || creds.Password == "" {
		return creds, models.NewAuthError(models.AuthMissingCredentials,
			fmt.Errorf("set NETWORK_USERNAME and NETWORK_PASSWORD or auth.username/auth.password"))
	}

	if o.config.Auth.CookiesFile != "" {
		cookies, err := browser.LoadCookiesFile(o.config.Auth.CookiesFile)
		if err != nil {
			o.logger.Warn().Err(err).Str("path", o.config.Auth.CookiesFile).Msg("Could not load saved cookies, using form login only")
		} else {
			creds.Cookies = cookies
		}
	}

	return creds, nil
}

func (o *Orchestrator) setState(state State) {
	o.state = state
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
