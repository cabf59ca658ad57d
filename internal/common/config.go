package common

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/vigilo/internal/models"
)

// Config represents the application configuration
type Config struct {
	Environment   string             `toml:"environment"` // "development" or "production"
	Storage       StorageConfig      `toml:"storage"`
	Logging       LoggingConfig      `toml:"logging"`
	Browser       BrowserConfig      `toml:"browser"`
	Auth          AuthConfig         `toml:"auth"`
	Scraper       ScraperConfig      `toml:"scraper"`
	Selectors     SelectorConfig     `toml:"selectors"`
	Schedule      ScheduleConfig     `toml:"schedule"`
	Organizations []OrganizationSeed `toml:"organizations" validate:"dive"`
}

// OrganizationSeed is a tracked-organization entry from configuration.
// Entries are upserted into storage at startup; removing an entry from the
// file does not delete stored organizations (soft delete is explicit).
type OrganizationSeed struct {
	Name string `toml:"name" validate:"required"`
	URL  string `toml:"url" validate:"required,url"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// BrowserConfig holds Chrome launch options. Each flag is toggled
// independently; a false value means default browser behavior.
type BrowserConfig struct {
	Headless            bool   `toml:"headless"`
	DisableGPU          bool   `toml:"disable_gpu"`
	NoSandbox           bool   `toml:"no_sandbox"`
	DisableSharedMemory bool   `toml:"disable_shared_memory"` // maps to --disable-dev-shm-usage
	UserAgent           string `toml:"user_agent"`
}

// AuthConfig holds credentials and login behavior for the source site.
// Username/password are normally supplied via environment variables
// (NETWORK_USERNAME / NETWORK_PASSWORD), not committed to the config file.
type AuthConfig struct {
	Username        string `toml:"username"`
	Password        string `toml:"password"`
	LoginURL        string `toml:"login_url"`
	LoggedInPattern string `toml:"logged_in_pattern"` // substring expected in the post-login location
	CookiesFile     string `toml:"cookies_file"`      // optional saved-session cookies (JSON)
	LoginWait       string `toml:"login_wait"`        // bounded wait for the login form, e.g. "10s"
}

// ScraperConfig bounds crawl behavior per organization.
type ScraperConfig struct {
	SettleDelay       string `toml:"settle_delay"`       // pause after navigation/clicks, e.g. "2s"
	MaxRevealSteps    int    `toml:"max_reveal_steps"`   // scroll-reveal iterations per organization
	MaxResultsPerOrg  int    `toml:"max_results_per_org"`
	NavigationTimeout string `toml:"navigation_timeout"` // per-navigation deadline, e.g. "30s"
}

// SelectorConfig is the stable set of content selectors the document query
// layer uses against the rendered page.
type SelectorConfig struct {
	LoginUsername string `toml:"login_username"`
	LoginPassword string `toml:"login_password"`
	LoginSubmit   string `toml:"login_submit"`
	PersonnelTab  string `toml:"personnel_tab"`
	MemberCard    string `toml:"member_card"`
	MemberName    string `toml:"member_name"`
	MemberRole    string `toml:"member_role"`
	ProfileLink   string `toml:"profile_link"`
}

// ScheduleConfig controls recurring batch runs.
type ScheduleConfig struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"` // cron expression, e.g. "0 6 * * *"
}

// NewDefaultConfig creates a configuration with default values.
// Selector defaults track the source site's current markup; override them in
// vigilo.toml when the site changes rather than recompiling.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Browser: BrowserConfig{
			Headless:            true,
			DisableGPU:          true,
			NoSandbox:           true,
			DisableSharedMemory: true,
			UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Auth: AuthConfig{
			LoginURL:        "https://www.linkedin.com/login",
			LoggedInPattern: "feed",
			LoginWait:       "10s",
		},
		Scraper: ScraperConfig{
			SettleDelay:       "2s",
			MaxRevealSteps:    5,
			MaxResultsPerOrg:  100,
			NavigationTimeout: "30s",
		},
		Selectors: SelectorConfig{
			LoginUsername: "#username",
			LoginPassword: "#password",
			LoginSubmit:   "button[type='submit']",
			PersonnelTab:  "a[data-control-name='page_member_main_nav_people_tab']",
			MemberCard:    ".reusable-search__result-container",
			MemberName:    ".entity-result__title-text",
			MemberRole:    ".entity-result__primary-subtitle",
			ProfileLink:   "a.app-aware-link",
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Cron:    "0 6 * * *", // daily at 06:00
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 ->
// file2 -> ... -> env. Later files override earlier files; environment
// variables override everything from files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
// The scraping surface uses the documented unprefixed keys; operational
// settings use the VIGILO_ prefix.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VIGILO_ENV"); env != "" {
		config.Environment = env
	}

	// Credentials
	if username := os.Getenv("NETWORK_USERNAME"); username != "" {
		config.Auth.Username = username
	}
	if password := os.Getenv("NETWORK_PASSWORD"); password != "" {
		config.Auth.Password = password
	}

	// Scraping surface
	if maxResults := os.Getenv("MAX_RESULTS_PER_ORGANIZATION"); maxResults != "" {
		if mr, err := strconv.Atoi(maxResults); err == nil && mr > 0 {
			config.Scraper.MaxResultsPerOrg = mr
		}
	}
	if delay := os.Getenv("SCRAPING_DELAY"); delay != "" {
		if normalized := normalizeDelay(delay); normalized != "" {
			config.Scraper.SettleDelay = normalized
		}
	}
	if orgs := os.Getenv("TRACKED_ORGANIZATIONS"); orgs != "" {
		var seeds []OrganizationSeed
		if err := json.Unmarshal([]byte(orgs), &seeds); err == nil && len(seeds) > 0 {
			config.Organizations = seeds
		}
	}

	// Browser launch flags
	if headless := os.Getenv("HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = h
		}
	}
	if disableGPU := os.Getenv("DISABLE_GPU"); disableGPU != "" {
		if dg, err := strconv.ParseBool(disableGPU); err == nil {
			config.Browser.DisableGPU = dg
		}
	}
	if noSandbox := os.Getenv("NO_SANDBOX"); noSandbox != "" {
		if ns, err := strconv.ParseBool(noSandbox); err == nil {
			config.Browser.NoSandbox = ns
		}
	}
	if disableShm := os.Getenv("DISABLE_SHARED_MEMORY"); disableShm != "" {
		if ds, err := strconv.ParseBool(disableShm); err == nil {
			config.Browser.DisableSharedMemory = ds
		}
	}

	// Operational settings
	if level := os.Getenv("VIGILO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("VIGILO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
	if badgerPath := os.Getenv("VIGILO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if schedule := os.Getenv("VIGILO_SCHEDULE"); schedule != "" {
		config.Schedule.Cron = schedule
		config.Schedule.Enabled = true
	}
}

// normalizeDelay accepts either a Go duration string ("2s", "1500ms") or a
// bare number of seconds ("2", "2.5") and returns a duration string.
func normalizeDelay(raw string) string {
	if _, err := time.ParseDuration(raw); err == nil {
		return raw
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second)).String()
	}
	return ""
}

// Validate checks structural validity and duration fields. Credentials are
// deliberately not required here - history/listing commands work without
// them; the batch orchestrator enforces credentials at authentication time.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return &models.ConfigError{Field: "organizations", Err: err}
	}

	for field, value := range map[string]string{
		"scraper.settle_delay":       c.Scraper.SettleDelay,
		"scraper.navigation_timeout": c.Scraper.NavigationTimeout,
		"auth.login_wait":            c.Auth.LoginWait,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return &models.ConfigError{Field: field, Err: err}
		}
	}

	if c.Scraper.MaxRevealSteps <= 0 {
		return &models.ConfigError{Field: "scraper.max_reveal_steps", Err: fmt.Errorf("must be positive, got %d", c.Scraper.MaxRevealSteps)}
	}
	if c.Scraper.MaxResultsPerOrg <= 0 {
		return &models.ConfigError{Field: "scraper.max_results_per_org", Err: fmt.Errorf("must be positive, got %d", c.Scraper.MaxResultsPerOrg)}
	}

	return nil
}

// SettleDelay returns the parsed settle delay. Validate guarantees parse
// success for loaded configs.
func (c *Config) SettleDelay() time.Duration {
	d, _ := time.ParseDuration(c.Scraper.SettleDelay)
	return d
}

// NavigationTimeout returns the parsed per-navigation deadline.
func (c *Config) NavigationTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Scraper.NavigationTimeout)
	return d
}

// LoginWait returns the parsed bounded wait for the login form.
func (c *Config) LoginWait() time.Duration {
	d, _ := time.ParseDuration(c.Auth.LoginWait)
	return d
}
