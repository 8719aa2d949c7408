package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config holds all application configuration. Values are read from the
// environment (.env) first; an optional YAML file can override the
// harvest tuning block for per-run adjustments without touching the env.
type Config struct {
	EntryURL string
	Engine   string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency int
	PageLimit      int
	RetryAttempts  int
	RetryDelayMs   int
	PacingMinMs    int
	PacingMaxMs    int
	WaitTimeoutMs  int
	MaxFloorPlans  int

	SnapshotPath string
	ChromeBin    string

	OTLPMetricsGRPC string
	OTLPMetricsHTTP string
}

// harvestOverlay is the YAML shape of configs/harvest.yaml. Only the
// tuning knobs can be overridden there.
type harvestOverlay struct {
	EntryURL       string `yaml:"entry_url"`
	Engine         string `yaml:"engine"`
	MaxConcurrency int    `yaml:"concurrency"`
	PageLimit      int    `yaml:"page_limit"`
	RetryAttempts  int    `yaml:"retry_attempts"`
	RetryDelayMs   int    `yaml:"retry_delay_ms"`
	PacingMinMs    int    `yaml:"pacing_min_ms"`
	PacingMaxMs    int    `yaml:"pacing_max_ms"`
	WaitTimeoutMs  int    `yaml:"wait_timeout_ms"`
	MaxFloorPlans  int    `yaml:"max_floor_plans"`
}

// Load reads the .env file, applies the optional YAML overlay, and
// returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		EntryURL: getEnv("ENTRY_URL", "https://www.apartments.com/chicago-il/"),
		Engine:   getEnv("ENGINE", "chromedp"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "harvester"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "harvester123"),
		PostgresDB:       getEnv("POSTGRES_DB", "apartments_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		PageLimit:      getEnvInt("PAGE_LIMIT", 100),
		RetryAttempts:  getEnvInt("RETRY_ATTEMPTS", 3),
		RetryDelayMs:   getEnvInt("RETRY_DELAY_MS", 2000),
		PacingMinMs:    getEnvInt("PACING_MIN_MS", 1000),
		PacingMaxMs:    getEnvInt("PACING_MAX_MS", 3000),
		WaitTimeoutMs:  getEnvInt("WAIT_TIMEOUT_MS", 30000),
		MaxFloorPlans:  getEnvInt("MAX_FLOOR_PLANS", 20),

		SnapshotPath: getEnv("SNAPSHOT_PATH", "./output/apartments_data.json"),
		ChromeBin:    getEnv("CHROME_BIN", ""),

		OTLPMetricsGRPC: getEnv("OTLP_METRICS_GRPC_ENDPOINT", ""),
		OTLPMetricsHTTP: getEnv("OTLP_METRICS_HTTP_ENDPOINT", ""),
	}

	cfg.applyOverlay(getEnv("HARVEST_CONFIG", "configs/harvest.yaml"))
	return cfg
}

func (c *Config) applyOverlay(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var o harvestOverlay
	if err := yaml.Unmarshal(raw, &o); err != nil {
		log.Printf("[config] Ignoring malformed overlay %s: %v", path, err)
		return
	}

	if o.EntryURL != "" {
		c.EntryURL = o.EntryURL
	}
	if o.Engine != "" {
		c.Engine = o.Engine
	}
	if o.MaxConcurrency > 0 {
		c.MaxConcurrency = o.MaxConcurrency
	}
	if o.PageLimit > 0 {
		c.PageLimit = o.PageLimit
	}
	if o.RetryAttempts > 0 {
		c.RetryAttempts = o.RetryAttempts
	}
	if o.RetryDelayMs > 0 {
		c.RetryDelayMs = o.RetryDelayMs
	}
	if o.PacingMinMs > 0 {
		c.PacingMinMs = o.PacingMinMs
	}
	if o.PacingMaxMs > 0 {
		c.PacingMaxMs = o.PacingMaxMs
	}
	if o.WaitTimeoutMs > 0 {
		c.WaitTimeoutMs = o.WaitTimeoutMs
	}
	if o.MaxFloorPlans > 0 {
		c.MaxFloorPlans = o.MaxFloorPlans
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// RetryDelay is the fixed wait between scrape attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// PacingBounds are the randomized delay bounds between detail scrapes.
func (c *Config) PacingBounds() (time.Duration, time.Duration) {
	return time.Duration(c.PacingMinMs) * time.Millisecond,
		time.Duration(c.PacingMaxMs) * time.Millisecond
}

// WaitTimeout is how long to wait for a selector before treating it as absent.
func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutMs) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
