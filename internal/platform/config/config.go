package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration. Defaults come from Default,
// an optional YAML file overlays them, and ACCESSGATE_* environment
// variables win over both.
type Config struct {
	Server    Server          `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Access    AccessConfig    `yaml:"access"`
	Credits   CreditsConfig   `yaml:"credits"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	AdminJWTSecret  string        `yaml:"admin_jwt_secret"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PostgresConfig selects the persistent store. An empty DSN runs every
// store in memory.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig configures the distributed per-user lock. Empty URL disables it.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaConfig configures the audit outbox relay. No brokers disables it.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	ClientID     string        `yaml:"client_id"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// AccessConfig holds the environment-specific parts of the module catalog.
type AccessConfig struct {
	CatalogPath               string         `yaml:"catalog_path"`
	ComplianceTrainingEnabled bool           `yaml:"compliance_training_enabled"`
	EraCommonsEnabled         bool           `yaml:"era_commons_enabled"`
	RasLoginGovEnabled        bool           `yaml:"ras_login_gov_enabled"`
	RasIDMeEnabled            bool           `yaml:"ras_id_me_enabled"`
	RenewalDays               map[string]int `yaml:"renewal_days"`
	CurrentDUCCVersions       []int          `yaml:"current_ducc_versions"`
}

type CreditsConfig struct {
	ValidityPeriodDays  int `yaml:"validity_period_days"`
	ExtensionPeriodDays int `yaml:"extension_period_days"`
	WarningPeriodDays   int `yaml:"warning_period_days"`
	// ExtensionRequiresExpiringSoon rejects extensions requested before the
	// warning window opens.
	ExtensionRequiresExpiringSoon bool `yaml:"extension_requires_expiring_soon"`
	// ExtensionRejectsBypassed rejects extensions for bypassed grants.
	ExtensionRejectsBypassed bool          `yaml:"extension_rejects_bypassed"`
	CheckInterval            time.Duration `yaml:"check_interval"`
}

type ReconcileConfig struct {
	Interval       time.Duration `yaml:"interval"`
	Concurrency    int           `yaml:"concurrency"`
	TaskTimeout    time.Duration `yaml:"task_timeout"`
	RetryMaxWait   time.Duration `yaml:"retry_max_elapsed"`
	RetryAttempts  int           `yaml:"retry_attempts"`
	SourceRPS      float64       `yaml:"source_rps"`
	SourceBurst    int           `yaml:"source_burst"`
	LockBackend    string        `yaml:"lock_backend"`
	LockTTL        time.Duration `yaml:"lock_ttl"`
	SourceEndpoint string        `yaml:"source_endpoint"`
	SourceToken    string        `yaml:"source_token"`

	// BreakerThreshold consecutive retryable failures open a source's
	// breaker for BreakerCooldown. Zero disables the breaker.
	BreakerThreshold int           `yaml:"breaker_threshold"`
	BreakerCooldown  time.Duration `yaml:"breaker_cooldown"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			AdminJWTSecret:  "dev-secret-key-change-in-production",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Postgres: PostgresConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic:        "accessgate.audit",
			ClientID:     "accessgate",
			PollInterval: 2 * time.Second,
		},
		Access: AccessConfig{
			ComplianceTrainingEnabled: true,
			EraCommonsEnabled:         false,
			RasLoginGovEnabled:        true,
			RasIDMeEnabled:            true,
			RenewalDays: map[string]int{
				"COMPLIANCE_TRAINING":       365,
				"CT_COMPLIANCE_TRAINING":    365,
				"DATA_USER_CODE_OF_CONDUCT": 365,
				"PROFILE_CONFIRMATION":      365,
				"PUBLICATION_CONFIRMATION":  365,
			},
			CurrentDUCCVersions: []int{4},
		},
		Credits: CreditsConfig{
			ValidityPeriodDays:  120,
			ExtensionPeriodDays: 240,
			WarningPeriodDays:   5,
			CheckInterval:       time.Hour,
		},
		Reconcile: ReconcileConfig{
			Interval:         6 * time.Hour,
			Concurrency:      8,
			TaskTimeout:      30 * time.Second,
			RetryMaxWait:     10 * time.Second,
			RetryAttempts:    4,
			SourceRPS:        20,
			SourceBurst:      5,
			LockBackend:      "memory",
			LockTTL:          30 * time.Second,
			BreakerThreshold: 5,
			BreakerCooldown:  time.Minute,
		},
	}
}

// FromEnv builds a Config from defaults and environment variables.
func FromEnv() Config {
	cfg := Default()
	applyEnv(&cfg)
	return cfg
}

// Load overlays the YAML file at path (if any) on the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.Credits.ValidityPeriodDays <= 0 {
		return fmt.Errorf("credits.validity_period_days must be positive")
	}
	if c.Credits.ExtensionPeriodDays <= 0 {
		return fmt.Errorf("credits.extension_period_days must be positive")
	}
	if c.Credits.WarningPeriodDays < 0 {
		return fmt.Errorf("credits.warning_period_days must not be negative")
	}
	if c.Reconcile.Concurrency <= 0 {
		return fmt.Errorf("reconcile.concurrency must be positive")
	}
	switch c.Reconcile.LockBackend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("reconcile.lock_backend redis requires redis.url")
		}
	default:
		return fmt.Errorf("unknown reconcile.lock_backend %q", c.Reconcile.LockBackend)
	}
	return nil
}

func applyEnv(cfg *Config) {
	envString("ACCESSGATE_ADDR", &cfg.Server.Addr)
	envString("ACCESSGATE_ADMIN_JWT_SECRET", &cfg.Server.AdminJWTSecret)
	envString("ACCESSGATE_LOG_LEVEL", &cfg.Log.Level)
	envString("ACCESSGATE_LOG_FORMAT", &cfg.Log.Format)

	envString("ACCESSGATE_DATABASE_URL", &cfg.Postgres.DSN)
	envInt("ACCESSGATE_DB_MAX_OPEN_CONNS", &cfg.Postgres.MaxOpenConns)

	envString("ACCESSGATE_REDIS_URL", &cfg.Redis.URL)

	envList("ACCESSGATE_KAFKA_BROKERS", &cfg.Kafka.Brokers)
	envString("ACCESSGATE_KAFKA_TOPIC", &cfg.Kafka.Topic)

	envString("ACCESSGATE_CATALOG_PATH", &cfg.Access.CatalogPath)
	envBool("ACCESSGATE_COMPLIANCE_TRAINING_ENABLED", &cfg.Access.ComplianceTrainingEnabled)
	envBool("ACCESSGATE_ERA_COMMONS_ENABLED", &cfg.Access.EraCommonsEnabled)
	envBool("ACCESSGATE_RAS_LOGIN_GOV_ENABLED", &cfg.Access.RasLoginGovEnabled)
	envBool("ACCESSGATE_RAS_ID_ME_ENABLED", &cfg.Access.RasIDMeEnabled)

	envInt("ACCESSGATE_CREDITS_VALIDITY_DAYS", &cfg.Credits.ValidityPeriodDays)
	envInt("ACCESSGATE_CREDITS_EXTENSION_DAYS", &cfg.Credits.ExtensionPeriodDays)
	envInt("ACCESSGATE_CREDITS_WARNING_DAYS", &cfg.Credits.WarningPeriodDays)

	envDuration("ACCESSGATE_RECONCILE_INTERVAL", &cfg.Reconcile.Interval)
	envInt("ACCESSGATE_RECONCILE_CONCURRENCY", &cfg.Reconcile.Concurrency)
	envDuration("ACCESSGATE_RECONCILE_TASK_TIMEOUT", &cfg.Reconcile.TaskTimeout)
	envString("ACCESSGATE_LOCK_BACKEND", &cfg.Reconcile.LockBackend)
	envString("ACCESSGATE_SOURCE_ENDPOINT", &cfg.Reconcile.SourceEndpoint)
	envString("ACCESSGATE_SOURCE_TOKEN", &cfg.Reconcile.SourceToken)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func envList(key string, dst *[]string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}
