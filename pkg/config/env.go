package config

const EnvPrefix = "PRICESYNC"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv            = "PRICESYNC_APP_ENV"
	EnvPort              = "PRICESYNC_APP_PORT"
	EnvLogLevel          = "PRICESYNC_LOG_LEVEL"
	EnvDBDSN             = "PRICESYNC_DB_DSN"
	EnvDBDriver          = "PRICESYNC_DB_DRIVER"
	EnvDBHost            = "PRICESYNC_DB_HOST"
	EnvDBUser            = "PRICESYNC_DB_USER"
	EnvDBName            = "PRICESYNC_DB_NAME"
	EnvDBPassword        = "PRICESYNC_DB_PASSWORD"
	EnvRedisURL          = "PRICESYNC_REDIS_URL"
	EnvSyncLockTTL       = "PRICESYNC_SYNC_LOCK_TTL"
	EnvSchedulerTimeZone = "PRICESYNC_SCHEDULER_TZ"
	EnvSchedulerPoll     = "PRICESYNC_SCHEDULER_POLL_INTERVAL"
	EnvGCPProjectID      = "PRICESYNC_GCP_PROJECT_ID"
	EnvCatalogEventsSub  = "PRICESYNC_PUBSUB_CATALOG_EVENTS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
