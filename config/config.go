// Package config loads the backend configuration from an optional YAML file
// with environment variable overrides for every setting.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/package-url/packageurl-go"
	"gopkg.in/yaml.v2"

	"github.com/releaseops/relman-backend/util"
)

// Config holds all runtime settings for the backend.
type Config struct {
	// Product identity used in advisory documents and artifact names.
	ProductName   string `yaml:"product_name"`   // e.g. "Django"
	PackagePURL   string `yaml:"package_purl"`   // e.g. "pkg:pypi/django"
	CollectionURL string `yaml:"collection_url"` // e.g. "https://github.com/django/django/"

	// Public site URLs referenced from advisories and checklists.
	WeblogBaseURL   string `yaml:"weblog_base_url"`   // e.g. "https://www.djangoproject.com/weblog"
	SeverityDocsURL string `yaml:"severity_docs_url"` // namespace for the severity rating metric

	// Current-version cache.
	CacheKeyPrefix string `yaml:"cache_key_prefix"`
	CacheTTLSecs   int    `yaml:"cache_ttl_seconds"`

	// HTTP server.
	Port string `yaml:"port"`

	// Kafka event production; empty brokers disable the producer.
	KafkaBrokers string `yaml:"kafka_brokers"`
	KafkaTopic   string `yaml:"kafka_topic"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ProductName:     "Django",
		PackagePURL:     "pkg:pypi/django",
		CollectionURL:   "https://github.com/django/django/",
		WeblogBaseURL:   "https://www.djangoproject.com/weblog",
		SeverityDocsURL: "https://docs.djangoproject.com/en/dev/internals/security/#security-issue-severity-levels",
		CacheKeyPrefix:  "relman",
		CacheTTLSecs:    600,
		Port:            "3000",
		KafkaTopic:      "release-events",
	}
}

// Load reads the YAML config file when present and applies env overrides.
// A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		content, err := os.ReadFile(path) // #nosec G304
		if err == nil {
			if err := yaml.Unmarshal(content, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, err
		}
	}

	cfg.ProductName = util.GetEnvDefault("RELMAN_PRODUCT_NAME", cfg.ProductName)
	cfg.PackagePURL = util.GetEnvDefault("RELMAN_PACKAGE_PURL", cfg.PackagePURL)
	cfg.CollectionURL = util.GetEnvDefault("RELMAN_COLLECTION_URL", cfg.CollectionURL)
	cfg.WeblogBaseURL = util.GetEnvDefault("RELMAN_WEBLOG_BASE_URL", cfg.WeblogBaseURL)
	cfg.SeverityDocsURL = util.GetEnvDefault("RELMAN_SEVERITY_DOCS_URL", cfg.SeverityDocsURL)
	cfg.CacheKeyPrefix = util.GetEnvDefault("RELMAN_CACHE_KEY_PREFIX", cfg.CacheKeyPrefix)
	cfg.Port = util.GetEnvDefault("MS_PORT", cfg.Port)
	cfg.KafkaBrokers = util.GetEnvDefault("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = util.GetEnvDefault("KAFKA_TOPIC", cfg.KafkaTopic)

	if ttl := os.Getenv("RELMAN_CACHE_TTL_SECONDS"); ttl != "" {
		secs, err := strconv.Atoi(ttl)
		if err != nil {
			return cfg, fmt.Errorf("invalid RELMAN_CACHE_TTL_SECONDS: %w", err)
		}
		cfg.CacheTTLSecs = secs
	}

	if _, err := packageurl.FromString(cfg.PackagePURL); err != nil {
		return cfg, fmt.Errorf("invalid package_purl %q: %w", cfg.PackagePURL, err)
	}

	return cfg, nil
}

// PackageName extracts the bare package name from the configured PURL,
// e.g. "django" from "pkg:pypi/django". Used as the advisory packageName.
func (c Config) PackageName() string {
	purl, err := packageurl.FromString(c.PackagePURL)
	if err != nil {
		return c.ProductName
	}
	return purl.Name
}

// CacheKey is the process-wide cache key for the current version string.
func (c Config) CacheKey() string {
	return c.CacheKeyPrefix + "_" + c.PackageName() + "_version"
}

// CacheTTL returns the configured cache entry lifetime.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSecs) * time.Second
}
