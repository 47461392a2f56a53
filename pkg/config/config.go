package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "dukaan"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "DUKAAN_DB_DSN"
	EnvDBHost = "DUKAAN_DB_HOST"
	EnvDBUser = "DUKAAN_DB_USER"
	EnvDBName = "DUKAAN_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Shop         ShopConfig
	Billing      BillingConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"DUKAAN_APP_ENV" required:"true"`
	Port         string `envconfig:"DUKAAN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DUKAAN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DUKAAN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DUKAAN_DB_DSN"`
	Driver string `envconfig:"DUKAAN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DUKAAN_DB_HOST"`
	LegacyPort     int    `envconfig:"DUKAAN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DUKAAN_DB_USER"`
	LegacyPassword string `envconfig:"DUKAAN_DB_PASSWORD"`
	LegacyName     string `envconfig:"DUKAAN_DB_NAME"`
	LegacySSLMode  string `envconfig:"DUKAAN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DUKAAN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DUKAAN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DUKAAN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DUKAAN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DUKAAN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DUKAAN_REDIS_ADDR"`
	Password     string        `envconfig:"DUKAAN_REDIS_PASSWORD"`
	DB           int           `envconfig:"DUKAAN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DUKAAN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DUKAAN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DUKAAN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DUKAAN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DUKAAN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ShopConfig seeds the shop profile row on first boot. The profile is editable
// afterwards through the settings endpoint; these values are not re-applied.
type ShopConfig struct {
	Name      string `envconfig:"DUKAAN_SHOP_NAME" default:"My Shop"`
	State     string `envconfig:"DUKAAN_SHOP_STATE"`
	GSTNumber string `envconfig:"DUKAAN_SHOP_GST_NUMBER"`
	Address   string `envconfig:"DUKAAN_SHOP_ADDRESS"`

	LowStockThreshold int `envconfig:"DUKAAN_SHOP_LOW_STOCK_THRESHOLD" default:"5"`
}

type BillingConfig struct {
	SessionTTL           time.Duration `envconfig:"DUKAAN_BILLING_SESSION_TTL" default:"8h"`
	DefaultPaymentMethod string        `envconfig:"DUKAAN_BILLING_DEFAULT_PAYMENT_METHOD" default:"CASH"`
}

type RateLimitConfig struct {
	PaymentWindow time.Duration `envconfig:"DUKAAN_RATE_LIMIT_PAYMENT_WINDOW" default:"1m"`
	PaymentLimit  int           `envconfig:"DUKAAN_RATE_LIMIT_PAYMENT_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"DUKAAN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"DUKAAN_AUTO_MIGRATE" default:"false"`
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
