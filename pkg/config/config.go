package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Service  ServiceConfig
	DB       DBConfig
	Redis    RedisConfig
	Internal InternalConfig
	Payouts  PayoutsConfig
	Cron     CronConfig
	Flags    FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FRESHLANE_APP_ENV" required:"true"`
	Port         string `envconfig:"FRESHLANE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FRESHLANE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FRESHLANE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FRESHLANE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FRESHLANE_DB_DSN"`
	Driver string `envconfig:"FRESHLANE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FRESHLANE_DB_HOST"`
	LegacyPort     int    `envconfig:"FRESHLANE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FRESHLANE_DB_USER"`
	LegacyPassword string `envconfig:"FRESHLANE_DB_PASSWORD"`
	LegacyName     string `envconfig:"FRESHLANE_DB_NAME"`
	LegacySSLMode  string `envconfig:"FRESHLANE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FRESHLANE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FRESHLANE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FRESHLANE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FRESHLANE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FRESHLANE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FRESHLANE_REDIS_ADDR"`
	Password     string        `envconfig:"FRESHLANE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FRESHLANE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FRESHLANE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FRESHLANE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FRESHLANE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FRESHLANE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FRESHLANE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// InternalConfig guards machine-to-machine endpoints. The payout trigger
// refuses to run when the secret is unset.
type InternalConfig struct {
	PayoutTriggerSecret string `envconfig:"FRESHLANE_PAYOUT_TRIGGER_SECRET"`
}

type PayoutsConfig struct {
	PeriodDays int `envconfig:"FRESHLANE_PAYOUT_PERIOD_DAYS" default:"7"`
}

type CronConfig struct {
	Interval       time.Duration `envconfig:"FRESHLANE_CRON_INTERVAL" default:"5m"`
	LockKey        string        `envconfig:"FRESHLANE_CRON_LOCK_KEY" default:"fl:cron:lock"`
	LockTTL        time.Duration `envconfig:"FRESHLANE_CRON_LOCK_TTL" default:"10m"`
	ReservationTTL time.Duration `envconfig:"FRESHLANE_RESERVATION_TTL" default:"15m"`
	PayoutWeekday  int           `envconfig:"FRESHLANE_PAYOUT_WEEKDAY" default:"1"`
	MetricsPort    string        `envconfig:"FRESHLANE_CRON_METRICS_PORT" default:"9102"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FRESHLANE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FRESHLANE_AUTO_MIGRATE" default:"false"`
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
