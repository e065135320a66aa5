package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "bakery"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "BAKERY_DB_DSN"
	EnvDBHost = "BAKERY_DB_HOST"
	EnvDBUser = "BAKERY_DB_USER"
	EnvDBName = "BAKERY_DB_NAME"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Checkout     CheckoutConfig
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
	Env          string `envconfig:"BAKERY_APP_ENV" required:"true"`
	Port         string `envconfig:"BAKERY_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"BAKERY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BAKERY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BAKERY_DB_DSN"`
	Driver string `envconfig:"BAKERY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BAKERY_DB_HOST"`
	LegacyPort     int    `envconfig:"BAKERY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BAKERY_DB_USER"`
	LegacyPassword string `envconfig:"BAKERY_DB_PASSWORD"`
	LegacyName     string `envconfig:"BAKERY_DB_NAME"`
	LegacySSLMode  string `envconfig:"BAKERY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BAKERY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BAKERY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BAKERY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAKERY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BAKERY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BAKERY_REDIS_ADDR"`
	Password     string        `envconfig:"BAKERY_REDIS_PASSWORD"`
	DB           int           `envconfig:"BAKERY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BAKERY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAKERY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAKERY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAKERY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAKERY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BAKERY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BAKERY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BAKERY_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BAKERY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BAKERY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BAKERY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BAKERY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BAKERY_ARGON_KEY_LEN" default:"32"`
}

// CheckoutConfig carries the storefront defaults seeded into store settings.
type CheckoutConfig struct {
	TaxRate         string `envconfig:"BAKERY_CHECKOUT_TAX_RATE" default:"0.12"`
	ShippingFee     string `envconfig:"BAKERY_CHECKOUT_SHIPPING_FEE" default:"50"`
	GuestCartTTL    time.Duration `envconfig:"BAKERY_GUEST_CART_TTL" default:"168h"`
	RelatedProducts int    `envconfig:"BAKERY_RELATED_PRODUCTS_LIMIT" default:"4"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BAKERY_AUTO_MIGRATE" default:"false"`
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
	for _, env := range []string{EnvDBHost, EnvDBUser, EnvDBName} {
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
