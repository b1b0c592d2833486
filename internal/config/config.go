package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Site identifiers for the built-in scrapers.
const (
	SiteMercadoLibre = "mercadolibre"
	SiteFalabella    = "falabella"
)

// Config is the root configuration for PriceGoat.
type Config struct {
	Engine   EngineConfig          `mapstructure:"engine"   yaml:"engine"`
	Fetcher  FetcherConfig         `mapstructure:"fetcher"  yaml:"fetcher"`
	Sites    map[string]SiteConfig `mapstructure:"sites"    yaml:"sites"`
	Storage  StorageConfig         `mapstructure:"storage"  yaml:"storage"`
	Cache    CacheConfig           `mapstructure:"cache"    yaml:"cache"`
	Logging  LoggingConfig         `mapstructure:"logging"  yaml:"logging"`
	Metrics  MetricsConfig         `mapstructure:"metrics"  yaml:"metrics"`
}

// EngineConfig controls the comparison run.
type EngineConfig struct {
	ResultsPerSite  int           `mapstructure:"results_per_site"  yaml:"results_per_site"`
	SiteTimeout     time.Duration `mapstructure:"site_timeout"      yaml:"site_timeout"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
	AcceptLanguages []string      `mapstructure:"accept_languages"  yaml:"accept_languages"`
}

// FetcherConfig controls the request fetcher.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
}

// SiteConfig controls a single retail site.
type SiteConfig struct {
	Enabled bool          `mapstructure:"enabled"  yaml:"enabled"`
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Delay   time.Duration `mapstructure:"delay"    yaml:"delay"`
}

// StorageConfig controls where comparison results are written.
type StorageConfig struct {
	Type            string `mapstructure:"type"             yaml:"type"`
	OutputPath      string `mapstructure:"output_path"      yaml:"output_path"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// CacheConfig controls the comparison result cache.
type CacheConfig struct {
	Type     string        `mapstructure:"type"      yaml:"type"`
	RedisURL string        `mapstructure:"redis_url" yaml:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"       yaml:"ttl"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			ResultsPerSite: 3,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_2) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
			},
			AcceptLanguages: []string{
				"es-PE,es;q=0.9,en;q=0.8",
				"es-419,es;q=0.9",
				"es-ES,es;q=0.9,en-US;q=0.7",
			},
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			RequestTimeout:  10 * time.Second,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 30 * time.Second,
		},
		Sites: map[string]SiteConfig{
			SiteMercadoLibre: {
				Enabled: true,
				BaseURL: "https://listado.mercadolibre.com.pe",
				Delay:   2 * time.Second,
			},
			SiteFalabella: {
				Enabled: true,
				BaseURL: "https://www.falabella.com.pe",
				Delay:   1500 * time.Millisecond,
			},
		},
		Storage: StorageConfig{
			Type:            "none",
			OutputPath:      "./output",
			MongoDatabase:   "pricegoat",
			MongoCollection: "comparisons",
		},
		Cache: CacheConfig{
			Type: "none",
			TTL:  15 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// Site returns the configuration for a site, falling back to defaults.
func (c *Config) Site(id string) SiteConfig {
	if sc, ok := c.Sites[id]; ok {
		return sc
	}
	return DefaultConfig().Sites[id]
}
