package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Square        SquareConfig
	Sendgrid      SendgridConfig
	Quotations    QuotationsConfig
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
	Env          string `envconfig:"RENTABLY_APP_ENV" required:"true"`
	Port         string `envconfig:"RENTABLY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RENTABLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RENTABLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RENTABLY_DB_DSN"`
	Driver string `envconfig:"RENTABLY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RENTABLY_DB_HOST"`
	LegacyPort     int    `envconfig:"RENTABLY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RENTABLY_DB_USER"`
	LegacyPassword string `envconfig:"RENTABLY_DB_PASSWORD"`
	LegacyName     string `envconfig:"RENTABLY_DB_NAME"`
	LegacySSLMode  string `envconfig:"RENTABLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RENTABLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RENTABLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RENTABLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RENTABLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RENTABLY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RENTABLY_REDIS_ADDR"`
	Password     string        `envconfig:"RENTABLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"RENTABLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RENTABLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RENTABLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RENTABLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RENTABLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RENTABLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"RENTABLY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"RENTABLY_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"RENTABLY_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"RENTABLY_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RENTABLY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RENTABLY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RENTABLY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RENTABLY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RENTABLY_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"RENTABLY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"RENTABLY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"RENTABLY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`

	RegisterWindow     time.Duration `envconfig:"RENTABLY_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"10m"`
	RegisterEmailLimit int           `envconfig:"RENTABLY_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"RENTABLY_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"RENTABLY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"RENTABLY_AUTO_MIGRATE" default:"false"`
}

type SquareConfig struct {
	AccessToken   string        `envconfig:"RENTABLY_SQUARE_ACCESS_TOKEN"`
	Env           string        `envconfig:"RENTABLY_SQUARE_ENV" default:"sandbox"`
	WebhookSecret string        `envconfig:"RENTABLY_SQUARE_WEBHOOK_SECRET"`
	LocationID    string        `envconfig:"RENTABLY_SQUARE_LOCATION_ID"`
	RedirectURL   string        `envconfig:"RENTABLY_SQUARE_REDIRECT_URL"`
	Timeout       time.Duration `envconfig:"RENTABLY_SQUARE_TIMEOUT" default:"10s"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type SendgridConfig struct {
	APIKey      string `envconfig:"RENTABLY_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"RENTABLY_SENDGRID_FROM_EMAIL"`
	FromName    string `envconfig:"RENTABLY_SENDGRID_FROM_NAME" default:"Rentably"`
}

type QuotationsConfig struct {
	// SentTTL bounds how long a SENT quotation waits for payment before the
	// cron worker cancels it.
	SentTTL time.Duration `envconfig:"RENTABLY_QUOTATION_SENT_TTL" default:"336h"`
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
