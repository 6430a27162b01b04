// Package config loads the tap configuration.
//
// Settings come from the Singer JSON config file and can be overridden by
// environment variables prefixed with TAP_WOOCOMMERCE_ (for example
// TAP_WOOCOMMERCE_CONSUMER_SECRET), so credentials need not live on disk.
//
// Example usage:
//
//	cfg, err := config.Load("config.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Sternrassler/tap-woocommerce/pkg/state"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "TAP_WOOCOMMERCE"

// Setting names, as they appear in the config file.
const (
	KeySiteURL         = "site_url"
	KeyConsumerKey     = "consumer_key"
	KeyConsumerSecret  = "consumer_secret"
	KeyStartDate       = "start_date"
	KeyUserAgent       = "user_agent"
	KeyTimeout         = "timeout"
	KeyQueryStringAuth = "query_string_auth"
	KeyRateLimit       = "rate_limit"
	KeyMaxAttempts     = "max_attempts"
	KeyStateBackend    = "state_backend"
	KeyRedisURL        = "redis_url"
	KeyLogLevel        = "log_level"
	KeyLogPretty       = "log_pretty"
	KeyMetricsAddr     = "metrics_addr"
)

// State backends.
const (
	StateBackendFile  = "file"
	StateBackendRedis = "redis"
)

// Defaults.
const (
	DefaultStartDate = "2000-01-01T00:00:00.000Z"
	DefaultUserAgent = "tap-woocommerce/1.0"
	DefaultTimeout   = 900 * time.Second
	DefaultLogLevel  = "info"
)

// ErrMissingSetting is returned by Validate for each absent required setting.
var ErrMissingSetting = errors.New("missing required setting")

var requiredKeys = []string{KeySiteURL, KeyConsumerKey, KeyConsumerSecret}

// Config is the resolved tap configuration.
type Config struct {
	SiteURL         string
	ConsumerKey     string
	ConsumerSecret  string
	StartDate       string
	UserAgent       string
	Timeout         time.Duration
	QueryStringAuth bool
	// RateLimit caps requests per second; 0 disables pacing.
	RateLimit float64
	// MaxAttempts per request; 1 leaves transient failures to the next run.
	MaxAttempts  int
	StateBackend string
	RedisURL     string
	LogLevel     string
	LogPretty    bool
	MetricsAddr  string

	v *viper.Viper
}

// Load reads path (may be empty) and applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeySiteURL, "")
	v.SetDefault(KeyConsumerKey, "")
	v.SetDefault(KeyConsumerSecret, "")
	v.SetDefault(KeyStartDate, DefaultStartDate)
	v.SetDefault(KeyUserAgent, DefaultUserAgent)
	v.SetDefault(KeyTimeout, int(DefaultTimeout/time.Second))
	v.SetDefault(KeyQueryStringAuth, false)
	v.SetDefault(KeyRateLimit, 0)
	v.SetDefault(KeyMaxAttempts, 1)
	v.SetDefault(KeyStateBackend, StateBackendFile)
	v.SetDefault(KeyRedisURL, "")
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogPretty, false)
	v.SetDefault(KeyMetricsAddr, "")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	timeout, err := parseTimeout(v.Get(KeyTimeout))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyTimeout, err)
	}

	cfg := &Config{
		SiteURL:         strings.TrimRight(v.GetString(KeySiteURL), "/"),
		ConsumerKey:     v.GetString(KeyConsumerKey),
		ConsumerSecret:  v.GetString(KeyConsumerSecret),
		StartDate:       v.GetString(KeyStartDate),
		UserAgent:       v.GetString(KeyUserAgent),
		Timeout:         timeout,
		QueryStringAuth: v.GetBool(KeyQueryStringAuth),
		RateLimit:       v.GetFloat64(KeyRateLimit),
		MaxAttempts:     v.GetInt(KeyMaxAttempts),
		StateBackend:    strings.ToLower(v.GetString(KeyStateBackend)),
		RedisURL:        v.GetString(KeyRedisURL),
		LogLevel:        v.GetString(KeyLogLevel),
		LogPretty:       v.GetBool(KeyLogPretty),
		MetricsAddr:     v.GetString(KeyMetricsAddr),
		v:               v,
	}
	return cfg, nil
}

// parseTimeout accepts seconds as a number or a Go duration string.
func parseTimeout(raw any) (time.Duration, error) {
	switch t := raw.(type) {
	case nil:
		return DefaultTimeout, nil
	case int:
		return time.Duration(t) * time.Second, nil
	case int64:
		return time.Duration(t) * time.Second, nil
	case float64:
		return time.Duration(t * float64(time.Second)), nil
	case string:
		if secs, err := strconv.ParseFloat(t, 64); err == nil {
			return time.Duration(secs * float64(time.Second)), nil
		}
		d, err := time.ParseDuration(t)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", t)
		}
		return d, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}
}

// Validate reports every missing or malformed setting.
func (c *Config) Validate() error {
	var errs []error
	for _, key := range requiredKeys {
		if s, _ := c.Get(key).(string); strings.TrimSpace(s) == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingSetting, key))
		}
	}

	if c.SiteURL != "" {
		u, err := url.Parse(c.SiteURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute http(s) url", KeySiteURL))
		}
	}
	if _, err := c.StartTime(); err != nil {
		errs = append(errs, err)
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyTimeout))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("%s must be >= 0", KeyRateLimit))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("%s must be >= 1", KeyMaxAttempts))
	}

	switch c.StateBackend {
	case StateBackendFile:
	case StateBackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, fmt.Errorf("%w: %s (state_backend is redis)", ErrMissingSetting, KeyRedisURL))
		}
	default:
		errs = append(errs, fmt.Errorf("%s must be %q or %q (got %q)",
			KeyStateBackend, StateBackendFile, StateBackendRedis, c.StateBackend))
	}

	return errors.Join(errs...)
}

// StartTime parses start_date.
func (c *Config) StartTime() (time.Time, error) {
	t, err := state.ParseTimestamp(c.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", KeyStartDate, err)
	}
	return t, nil
}

// Get resolves any setting by name, including ones the tap does not model.
func (c *Config) Get(name string) any {
	switch name {
	case KeySiteURL:
		return c.SiteURL
	case KeyConsumerKey:
		return c.ConsumerKey
	case KeyConsumerSecret:
		return c.ConsumerSecret
	case KeyTimeout:
		return c.Timeout
	}
	if c.v == nil {
		return nil
	}
	return c.v.Get(name)
}

// Redacted returns the settings with credentials masked, for logging.
func (c *Config) Redacted() map[string]any {
	out := map[string]any{}
	if c.v != nil {
		for k, v := range c.v.AllSettings() {
			out[k] = v
		}
	}
	for _, k := range []string{KeyConsumerKey, KeyConsumerSecret} {
		if s, _ := out[k].(string); s != "" {
			out[k] = "****"
		}
	}
	if u, err := url.Parse(c.RedisURL); err == nil && u.User != nil {
		out[KeyRedisURL] = u.Redacted()
	}
	return out
}
