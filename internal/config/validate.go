package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Engine.ResultsPerSite < 1 {
		return fmt.Errorf("engine.results_per_site must be >= 1, got %d", cfg.Engine.ResultsPerSite)
	}
	if cfg.Engine.ResultsPerSite > 50 {
		return fmt.Errorf("engine.results_per_site must be <= 50, got %d", cfg.Engine.ResultsPerSite)
	}
	if cfg.Engine.SiteTimeout < 0 {
		return fmt.Errorf("engine.site_timeout must be >= 0")
	}
	if len(cfg.Engine.UserAgents) == 0 {
		return fmt.Errorf("engine.user_agents must not be empty")
	}

	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}

	enabled := 0
	for id, site := range cfg.Sites {
		if !site.Enabled {
			continue
		}
		enabled++
		if err := ValidateURL(site.BaseURL); err != nil {
			return fmt.Errorf("sites.%s.base_url: %w", id, err)
		}
		if site.Delay < 0 {
			return fmt.Errorf("sites.%s.delay must be >= 0", id)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one site must be enabled")
	}

	validStorageTypes := map[string]bool{
		"none": true, "json": true, "jsonl": true, "csv": true, "mongodb": true,
	}
	for _, kind := range StorageTypes(cfg.Storage.Type) {
		if !validStorageTypes[kind] {
			return fmt.Errorf("storage.type %q is not supported (valid: none, json, jsonl, csv, mongodb)", kind)
		}
		if kind == "mongodb" && cfg.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri is required when storage.type includes 'mongodb'")
		}
	}

	switch cfg.Cache.Type {
	case "none", "memory":
	case "redis":
		if cfg.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required when cache.type is 'redis'")
		}
	default:
		return fmt.Errorf("cache.type must be 'none', 'memory' or 'redis', got %q", cfg.Cache.Type)
	}
	if cfg.Cache.Type != "none" && cfg.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is usable as a site base URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// StorageTypes splits a comma-separated storage.type value.
func StorageTypes(value string) []string {
	var kinds []string
	for _, kind := range strings.Split(value, ",") {
		if kind = strings.TrimSpace(kind); kind != "" {
			kinds = append(kinds, kind)
		}
	}
	if len(kinds) == 0 {
		return []string{"none"}
	}
	return kinds
}
