package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/guilherme-santos/lessonsync/internal"
)

const (
	ProviderGoogle = "google"
	ProviderICS    = "ics"

	defaultRedirectURI = "https://developers.google.com/oauthplayground"
	calendarScope      = "https://www.googleapis.com/auth/calendar"
)

type Calendar struct {
	Provider        string   `yaml:"provider"`
	ID              string   `yaml:"id"`
	Scopes          []string `yaml:"scopes"`
	TimeZone        string   `yaml:"timezone"`
	ColorID         string   `yaml:"color_id"`
	FallbackSummary string   `yaml:"fallback_summary"`
	Concurrency     int      `yaml:"concurrency"`
	// ICSPath is the calendar file used by the ics provider.
	ICSPath string `yaml:"ics_path"`
}

type Google struct {
	ClientID           string `yaml:"client_id"`
	ClientSecret       string `yaml:"client_secret"`
	RedirectURI        string `yaml:"redirect_uri"`
	RefreshToken       string `yaml:"refresh_token"`
	ServiceAccountFile string `yaml:"service_account_file"`
	// Endpoint overrides the Calendar API base URL.
	Endpoint string `yaml:"endpoint"`
}

type Schedule struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type History struct {
	// DSN of the sqlite database runs are recorded in. Empty disables it.
	DSN string `yaml:"dsn"`
}

type Serve struct {
	Cron   string `yaml:"cron"`
	Listen string `yaml:"listen"`
}

type Config struct {
	Calendar Calendar `yaml:"calendar"`
	Google   Google   `yaml:"google"`
	Schedule Schedule `yaml:"schedule"`
	History  History  `yaml:"history"`
	Serve    Serve    `yaml:"serve"`
}

func Default() *Config {
	return &Config{
		Calendar: Calendar{
			Provider:        ProviderGoogle,
			ID:              "primary",
			Scopes:          []string{calendarScope},
			TimeZone:        internal.DefaultTimeZone,
			ColorID:         internal.DefaultColorID,
			FallbackSummary: internal.DefaultSummary,
			Concurrency:     4,
		},
		Google: Google{
			RedirectURI: defaultRedirectURI,
		},
		Schedule: Schedule{
			Timeout: 15 * time.Second,
		},
		Serve: Serve{
			// Sundays at 06:00, ahead of the week being synced.
			Cron: "0 6 * * 0",
		},
	}
}

// Load reads the YAML file at path, if any, on top of the defaults, then
// applies environment overrides and validates the result. A missing file is
// not an error: the environment alone may be enough.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, &internal.ConfigError{Invalid: []string{path + ": " + err.Error()}}
			}
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	verr := &internal.ConfigError{}

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("CALENDAR_PROVIDER", &c.Calendar.Provider)
	str("CALENDAR_ID", &c.Calendar.ID)
	str("CALENDAR_TIMEZONE", &c.Calendar.TimeZone)
	str("CALENDAR_COLOR_ID", &c.Calendar.ColorID)
	str("CALENDAR_ICS_PATH", &c.Calendar.ICSPath)
	str("GOOGLE_CLIENT_ID", &c.Google.ClientID)
	str("GOOGLE_CLIENT_SECRET", &c.Google.ClientSecret)
	str("GOOGLE_REDIRECT_URI", &c.Google.RedirectURI)
	str("GOOGLE_REFRESH_TOKEN", &c.Google.RefreshToken)
	str("GOOGLE_SERVICE_ACCOUNT_FILE", &c.Google.ServiceAccountFile)
	str("GOOGLE_API_ENDPOINT", &c.Google.Endpoint)
	str("SCHEDULE_API_URL", &c.Schedule.URL)
	str("HISTORY_DSN", &c.History.DSN)
	str("SERVE_CRON", &c.Serve.Cron)
	str("SERVE_LISTEN", &c.Serve.Listen)

	if v := strings.TrimSpace(getenv("CALENDAR_SCOPES")); v != "" {
		c.Calendar.Scopes = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.Calendar.Scopes = append(c.Calendar.Scopes, s)
			}
		}
	}
	if v := strings.TrimSpace(getenv("CALENDAR_CONCURRENCY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			verr.Invalid = append(verr.Invalid, "CALENDAR_CONCURRENCY")
		} else {
			c.Calendar.Concurrency = n
		}
	}
	if v := strings.TrimSpace(getenv("SCHEDULE_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			verr.Invalid = append(verr.Invalid, "SCHEDULE_TIMEOUT")
		} else {
			c.Schedule.Timeout = d
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// Validate reports every missing or invalid setting at once.
func (c *Config) Validate() error {
	verr := &internal.ConfigError{}
	missing := func(key string) { verr.Missing = append(verr.Missing, key) }
	invalid := func(key string) { verr.Invalid = append(verr.Invalid, key) }

	switch c.Calendar.Provider {
	case ProviderGoogle:
		if c.Calendar.ID == "" {
			missing("calendar.id")
		}
		if c.Google.ServiceAccountFile == "" {
			if c.Google.ClientID == "" {
				missing("google.client_id")
			}
			if c.Google.ClientSecret == "" {
				missing("google.client_secret")
			}
			if c.Google.RefreshToken == "" {
				missing("google.refresh_token")
			}
		}
		for _, s := range c.Calendar.Scopes {
			if !isHTTPURL(s) {
				invalid("calendar.scopes")
				break
			}
		}
	case ProviderICS:
		if c.Calendar.ICSPath == "" {
			missing("calendar.ics_path")
		}
	default:
		invalid("calendar.provider")
	}

	if _, err := c.Location(); err != nil {
		invalid("calendar.timezone")
	}
	if c.Calendar.Concurrency <= 0 {
		invalid("calendar.concurrency")
	}

	if c.Schedule.URL == "" {
		missing("schedule.url")
	} else if !isHTTPURL(c.Schedule.URL) {
		invalid("schedule.url")
	}
	if c.Schedule.Timeout <= 0 {
		invalid("schedule.timeout")
	}

	if c.Serve.Cron != "" {
		if _, err := cron.ParseStandard(c.Serve.Cron); err != nil {
			invalid("serve.cron")
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// Location returns the time zone lessons are expressed in.
func (c *Config) Location() (*time.Location, error) {
	if c.Calendar.TimeZone == "" {
		return nil, errors.New("empty time zone")
	}
	return time.LoadLocation(c.Calendar.TimeZone)
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
