package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App             AppConfig
	Service         ServiceConfig
	DB              DBConfig
	Redis           RedisConfig
	Pricing         PricingConfig
	Cart            CartConfig
	CouponRateLimit CouponRateLimitConfig
	FeatureFlags    FeatureFlagsConfig
	GCP             GCPConfig
	PubSub          PubSubConfig
	Outbox          OutboxConfig
	Cron            CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Pricing.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STYLEBAZAAR_APP_ENV" required:"true"`
	Port         string `envconfig:"STYLEBAZAAR_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STYLEBAZAAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STYLEBAZAAR_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"STYLEBAZAAR_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	out := []string{}
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type ServiceConfig struct {
	Kind       string `envconfig:"STYLEBAZAAR_SERVICE_KIND" default:"api"`
	InstanceID string `envconfig:"STYLEBAZAAR_INSTANCE_ID"`
}

type DBConfig struct {
	DSN    string `envconfig:"STYLEBAZAAR_DB_DSN"`
	Driver string `envconfig:"STYLEBAZAAR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STYLEBAZAAR_DB_HOST"`
	LegacyPort     int    `envconfig:"STYLEBAZAAR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STYLEBAZAAR_DB_USER"`
	LegacyPassword string `envconfig:"STYLEBAZAAR_DB_PASSWORD"`
	LegacyName     string `envconfig:"STYLEBAZAAR_DB_NAME"`
	LegacySSLMode  string `envconfig:"STYLEBAZAAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STYLEBAZAAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STYLEBAZAAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STYLEBAZAAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STYLEBAZAAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is sqlite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, "sqlite") || strings.EqualFold(db.Driver, "sqlite3")
}

type RedisConfig struct {
	URL          string        `envconfig:"STYLEBAZAAR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STYLEBAZAAR_REDIS_ADDR"`
	Password     string        `envconfig:"STYLEBAZAAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"STYLEBAZAAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STYLEBAZAAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STYLEBAZAAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STYLEBAZAAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STYLEBAZAAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STYLEBAZAAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PricingConfig controls how calendar dates are derived for promotions.
type PricingConfig struct {
	Timezone string `envconfig:"STYLEBAZAAR_PRICING_TIMEZONE" default:"Africa/Lusaka"`
	Currency string `envconfig:"STYLEBAZAAR_PRICING_CURRENCY" default:"ZMW"`
}

// Location resolves the configured timezone.
func (p PricingConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(p.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading pricing timezone %q: %w", name, err)
	}
	return loc, nil
}

type CartConfig struct {
	SessionTTL time.Duration `envconfig:"STYLEBAZAAR_CART_SESSION_TTL" default:"336h"`
}

type CouponRateLimitConfig struct {
	Window       time.Duration `envconfig:"STYLEBAZAAR_COUPON_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit      int           `envconfig:"STYLEBAZAAR_COUPON_RATE_LIMIT_IP_LIMIT" default:"30"`
	SessionLimit int           `envconfig:"STYLEBAZAAR_COUPON_RATE_LIMIT_SESSION_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STYLEBAZAAR_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STYLEBAZAAR_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"STYLEBAZAAR_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"STYLEBAZAAR_PUBSUB_ORDERS_TOPIC" default:"sb-order-events"`
	OrdersSubscription string `envconfig:"STYLEBAZAAR_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"STYLEBAZAAR_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"STYLEBAZAAR_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"STYLEBAZAAR_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"STYLEBAZAAR_OUTBOX_RETENTION_DAYS" default:"30"`
}

type CronConfig struct {
	Interval       time.Duration `envconfig:"STYLEBAZAAR_CRON_INTERVAL" default:"15m"`
	UnpaidOrderTTL time.Duration `envconfig:"STYLEBAZAAR_CRON_UNPAID_ORDER_TTL" default:"72h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
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
