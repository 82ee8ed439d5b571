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
	EnvPrefix = "EVENTOCLIQUE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "EVENTOCLIQUE_DB_DSN"
	EnvDBHost = "EVENTOCLIQUE_DB_HOST"
	EnvDBUser = "EVENTOCLIQUE_DB_USER"
	EnvDBName = "EVENTOCLIQUE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Gallery      GalleryConfig
	Checkout     CheckoutConfig
	Stripe       StripeConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Mail         MailConfig
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
	Env          string `envconfig:"EVENTOCLIQUE_APP_ENV" required:"true"`
	Port         string `envconfig:"EVENTOCLIQUE_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"EVENTOCLIQUE_APP_BASE_URL" required:"true"`
	LogLevel     string `envconfig:"EVENTOCLIQUE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"EVENTOCLIQUE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"EVENTOCLIQUE_DB_DSN"`
	Driver string `envconfig:"EVENTOCLIQUE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EVENTOCLIQUE_DB_HOST"`
	LegacyPort     int    `envconfig:"EVENTOCLIQUE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EVENTOCLIQUE_DB_USER"`
	LegacyPassword string `envconfig:"EVENTOCLIQUE_DB_PASSWORD"`
	LegacyName     string `envconfig:"EVENTOCLIQUE_DB_NAME"`
	LegacySSLMode  string `envconfig:"EVENTOCLIQUE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EVENTOCLIQUE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EVENTOCLIQUE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EVENTOCLIQUE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EVENTOCLIQUE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"EVENTOCLIQUE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"EVENTOCLIQUE_REDIS_ADDR"`
	Password     string        `envconfig:"EVENTOCLIQUE_REDIS_PASSWORD"`
	DB           int           `envconfig:"EVENTOCLIQUE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EVENTOCLIQUE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EVENTOCLIQUE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EVENTOCLIQUE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EVENTOCLIQUE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EVENTOCLIQUE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"EVENTOCLIQUE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"EVENTOCLIQUE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"EVENTOCLIQUE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"EVENTOCLIQUE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"EVENTOCLIQUE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"EVENTOCLIQUE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"EVENTOCLIQUE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"EVENTOCLIQUE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"EVENTOCLIQUE_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"EVENTOCLIQUE_AUTO_MIGRATE" default:"false"`
}

type GalleryConfig struct {
	// InviteTTL bounds how long a freshly issued gallery link stays valid.
	// Zero disables expiry, matching links issued before expiry existed.
	InviteTTL time.Duration `envconfig:"EVENTOCLIQUE_GALLERY_INVITE_TTL" default:"0"`
}

type CheckoutConfig struct {
	DefaultPhotoPriceCents int    `envconfig:"EVENTOCLIQUE_PHOTO_PRICE_CENTS" default:"5000"`
	Currency               string `envconfig:"EVENTOCLIQUE_CURRENCY" default:"brl"`
	WebhookReplayTTL       time.Duration `envconfig:"EVENTOCLIQUE_WEBHOOK_REPLAY_TTL" default:"720h"`
}

type StripeConfig struct {
	APIKey string `envconfig:"EVENTOCLIQUE_STRIPE_API_KEY"`
	Secret string `envconfig:"EVENTOCLIQUE_STRIPE_SECRET"`
	Env    string `envconfig:"EVENTOCLIQUE_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type GCPConfig struct {
	ProjectID              string `envconfig:"EVENTOCLIQUE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"EVENTOCLIQUE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"EVENTOCLIQUE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"EVENTOCLIQUE_GCS_BUCKET_NAME" required:"true"`
	UploadURLExpiry   time.Duration `envconfig:"EVENTOCLIQUE_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"EVENTOCLIQUE_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
}

type MailConfig struct {
	SMTPHost    string `envconfig:"EVENTOCLIQUE_SMTP_HOST"`
	SMTPPort    int    `envconfig:"EVENTOCLIQUE_SMTP_PORT" default:"587"`
	SMTPUser    string `envconfig:"EVENTOCLIQUE_SMTP_USER"`
	SMTPPass    string `envconfig:"EVENTOCLIQUE_SMTP_PASS"`
	DefaultFrom string `envconfig:"EVENTOCLIQUE_MAIL_FROM"`
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
