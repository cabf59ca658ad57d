package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vigilo/internal/models"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vigilo.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromFiles_Defaults(t *testing.T) {
	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "development", config.Environment)
	assert.True(t, config.Browser.Headless)
	assert.Equal(t, 5, config.Scraper.MaxRevealSteps)
	assert.Equal(t, 100, config.Scraper.MaxResultsPerOrg)
	assert.Equal(t, 2*time.Second, config.SettleDelay())
	assert.Equal(t, 10*time.Second, config.LoginWait())
	assert.Equal(t, "#username", config.Selectors.LoginUsername)
	assert.False(t, config.Schedule.Enabled)
}

func TestLoadFromFiles_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
environment = "production"

[scraper]
settle_delay = "500ms"
max_reveal_steps = 8

[[organizations]]
name = "Acme"
url = "https://network.example.com/company/acme"
`)

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "production", config.Environment)
	assert.Equal(t, 500*time.Millisecond, config.SettleDelay())
	assert.Equal(t, 8, config.Scraper.MaxRevealSteps)
	// Untouched sections keep defaults.
	assert.Equal(t, 100, config.Scraper.MaxResultsPerOrg)

	require.Len(t, config.Organizations, 1)
	assert.Equal(t, "Acme", config.Organizations[0].Name)
}

func TestLoadFromFiles_LaterFileWins(t *testing.T) {
	first := writeConfigFile(t, `environment = "staging"`)
	second := writeConfigFile(t, `environment = "production"`)

	config, err := LoadFromFiles(first, second)
	require.NoError(t, err)
	assert.Equal(t, "production", config.Environment)
}

func TestLoadFromFiles_MissingFileFails(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestApplyEnvOverrides_ScrapingSurface(t *testing.T) {
	t.Setenv("NETWORK_USERNAME", "user@example.com")
	t.Setenv("NETWORK_PASSWORD", "secret")
	t.Setenv("MAX_RESULTS_PER_ORGANIZATION", "25")
	t.Setenv("SCRAPING_DELAY", "3")
	t.Setenv("HEADLESS", "false")
	t.Setenv("TRACKED_ORGANIZATIONS", `[{"name":"Acme","url":"https://network.example.com/company/acme"}]`)

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", config.Auth.Username)
	assert.Equal(t, "secret", config.Auth.Password)
	assert.Equal(t, 25, config.Scraper.MaxResultsPerOrg)
	assert.Equal(t, 3*time.Second, config.SettleDelay(), "bare seconds are accepted")
	assert.False(t, config.Browser.Headless)

	require.Len(t, config.Organizations, 1)
	assert.Equal(t, "Acme", config.Organizations[0].Name)
}

func TestApplyEnvOverrides_ScheduleEnablesWatch(t *testing.T) {
	t.Setenv("VIGILO_SCHEDULE", "0 7 * * *")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.True(t, config.Schedule.Enabled)
	assert.Equal(t, "0 7 * * *", config.Schedule.Cron)
}

func TestNormalizeDelay(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "duration string passes through", raw: "2s", expected: "2s"},
		{name: "milliseconds pass through", raw: "1500ms", expected: "1500ms"},
		{name: "bare seconds converted", raw: "2", expected: "2s"},
		{name: "fractional seconds converted", raw: "2.5", expected: "2.5s"},
		{name: "garbage rejected", raw: "soon", expected: ""},
		{name: "negative rejected", raw: "-1", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeDelay(tt.raw))
		})
	}
}

func TestValidate_RejectsBadDurations(t *testing.T) {
	config := NewDefaultConfig()
	config.Scraper.SettleDelay = "soon"

	err := config.Validate()
	require.Error(t, err)

	var configErr *models.ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "scraper.settle_delay", configErr.Field)
}

func TestValidate_RejectsNonPositiveBounds(t *testing.T) {
	config := NewDefaultConfig()
	config.Scraper.MaxRevealSteps = 0
	require.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.Scraper.MaxResultsPerOrg = -1
	require.Error(t, config.Validate())
}

func TestValidate_RejectsIncompleteOrganization(t *testing.T) {
	config := NewDefaultConfig()
	config.Organizations = []OrganizationSeed{{Name: "Acme"}}

	err := config.Validate()
	require.Error(t, err)

	var configErr *models.ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestValidate_CredentialsNotRequired(t *testing.T) {
	// History and maintenance commands run without credentials; the batch
	// orchestrator enforces them at authentication time instead.
	config := NewDefaultConfig()
	require.NoError(t, config.Validate())
}
