package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Sync         SyncConfig
	Scheduler    SchedulerConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := time.LoadLocation(cfg.Scheduler.TimeZone); err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvSchedulerTimeZone, cfg.Scheduler.TimeZone, err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env                string   `envconfig:"PRICESYNC_APP_ENV" required:"true"`
	Port               string   `envconfig:"PRICESYNC_APP_PORT" default:"8080"`
	LogLevel           string   `envconfig:"PRICESYNC_LOG_LEVEL" default:"info"`
	LogWarnStack       bool     `envconfig:"PRICESYNC_LOG_WARN_STACK" default:"false"`
	CORSAllowedOrigins []string `envconfig:"PRICESYNC_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PRICESYNC_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PRICESYNC_DB_DSN"`
	Driver string `envconfig:"PRICESYNC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PRICESYNC_DB_HOST"`
	LegacyPort     int    `envconfig:"PRICESYNC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PRICESYNC_DB_USER"`
	LegacyPassword string `envconfig:"PRICESYNC_DB_PASSWORD"`
	LegacyName     string `envconfig:"PRICESYNC_DB_NAME"`
	LegacySSLMode  string `envconfig:"PRICESYNC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRICESYNC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRICESYNC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRICESYNC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRICESYNC_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"PRICESYNC_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

// IsSQLite reports whether the sqlite driver was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"PRICESYNC_REDIS_URL"`
	Address      string        `envconfig:"PRICESYNC_REDIS_ADDR"`
	Password     string        `envconfig:"PRICESYNC_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRICESYNC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRICESYNC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRICESYNC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRICESYNC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRICESYNC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRICESYNC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type SyncConfig struct {
	LockKey string        `envconfig:"PRICESYNC_SYNC_LOCK_KEY" default:"sync:in-progress"`
	LockTTL time.Duration `envconfig:"PRICESYNC_SYNC_LOCK_TTL" default:"30m"`
}

type SchedulerConfig struct {
	TimeZone     string        `envconfig:"PRICESYNC_SCHEDULER_TZ" default:"UTC"`
	PollInterval time.Duration `envconfig:"PRICESYNC_SCHEDULER_POLL_INTERVAL" default:"1m"`
	LockTTL      time.Duration `envconfig:"PRICESYNC_SCHEDULER_LOCK_TTL" default:"1h"`
}

// Location returns the configured scheduler time zone, UTC when unset.
func (s SchedulerConfig) Location() *time.Location {
	if strings.TrimSpace(s.TimeZone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PRICESYNC_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"PRICESYNC_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	CatalogEventsSubscription string `envconfig:"PRICESYNC_PUBSUB_CATALOG_EVENTS_SUBSCRIPTION"`
	MaxOutstandingMessages    int    `envconfig:"PRICESYNC_PUBSUB_MAX_OUTSTANDING" default:"10"`
	NumGoroutines             int    `envconfig:"PRICESYNC_PUBSUB_NUM_GOROUTINES" default:"1"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
