package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "ovenline"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "OVENLINE_DB_DSN"
	EnvDBHost = "OVENLINE_DB_HOST"
	EnvDBUser = "OVENLINE_DB_USER"
	EnvDBName = "OVENLINE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Accounts     AccountsConfig
	FeatureFlags FeatureFlagsConfig
	Idempotency  IdempotencyConfig
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
	Env          string `envconfig:"OVENLINE_APP_ENV" required:"true"`
	Port         string `envconfig:"OVENLINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OVENLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OVENLINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"OVENLINE_DB_DSN"`
	Driver string `envconfig:"OVENLINE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"OVENLINE_DB_HOST"`
	LegacyPort     int    `envconfig:"OVENLINE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OVENLINE_DB_USER"`
	LegacyPassword string `envconfig:"OVENLINE_DB_PASSWORD"`
	LegacyName     string `envconfig:"OVENLINE_DB_NAME"`
	LegacySSLMode  string `envconfig:"OVENLINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OVENLINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OVENLINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OVENLINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OVENLINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OVENLINE_REDIS_URL" required:"true"`
	Password     string        `envconfig:"OVENLINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"OVENLINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OVENLINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OVENLINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OVENLINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OVENLINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OVENLINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"OVENLINE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"OVENLINE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"OVENLINE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"OVENLINE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"OVENLINE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"OVENLINE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"OVENLINE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"OVENLINE_ARGON_KEY_LEN" default:"32"`
}

type AccountsConfig struct {
	UsernameMaxAttempts int `envconfig:"OVENLINE_USERNAME_MAX_ATTEMPTS" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"OVENLINE_AUTO_MIGRATE" default:"false"`
}

type IdempotencyConfig struct {
	CheckoutTTL time.Duration `envconfig:"OVENLINE_IDEMPOTENCY_CHECKOUT_TTL" default:"168h"`
	DefaultTTL  time.Duration `envconfig:"OVENLINE_IDEMPOTENCY_DEFAULT_TTL" default:"24h"`
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
