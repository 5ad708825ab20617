package config

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "STYLEBAZAAR"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "STYLEBAZAAR_APP_ENV"
	EnvPort     = "STYLEBAZAAR_APP_PORT"
	EnvLogLevel = "STYLEBAZAAR_LOG_LEVEL"

	EnvDBDSN  = "STYLEBAZAAR_DB_DSN"
	EnvDBHost = "STYLEBAZAAR_DB_HOST"
	EnvDBUser = "STYLEBAZAAR_DB_USER"
	EnvDBName = "STYLEBAZAAR_DB_NAME"

	EnvRedisURL = "STYLEBAZAAR_REDIS_URL"

	EnvPricingTimezone = "STYLEBAZAAR_PRICING_TIMEZONE"
	EnvCartSessionTTL  = "STYLEBAZAAR_CART_SESSION_TTL"

	EnvGCPProjectID        = "STYLEBAZAAR_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic   = "STYLEBAZAAR_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub     = "STYLEBAZAAR_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvCronUnpaidOrderTTL  = "STYLEBAZAAR_CRON_UNPAID_ORDER_TTL"
	EnvCouponRateLimitIP   = "STYLEBAZAAR_COUPON_RATE_LIMIT_IP_LIMIT"
	EnvFeatureUseSQLite    = "STYLEBAZAAR_USE_SQLITE"
	EnvFeatureAutoMigrate  = "STYLEBAZAAR_AUTO_MIGRATE"
	EnvOutboxMaxAttempts   = "STYLEBAZAAR_OUTBOX_MAX_ATTEMPTS"
	EnvOutboxRetentionDays = "STYLEBAZAAR_OUTBOX_RETENTION_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
