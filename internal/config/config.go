package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/straye-as/vendor-portal-api/internal/secrets"
	"go.uber.org/zap"
)

const developmentJWTSecret = "development-only-jwt-secret"

// Config holds all application configuration
type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Auth          AuthConfig
	Notifications NotificationConfig
	Storage       StorageConfig
	Secrets       SecretsConfig
	Logging       LoggingConfig
	Server        ServerConfig
	CORS          CORSConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
	Jobs          JobsConfig
	Sentry        SentryConfig
	Metrics       MetricsConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
	// BaseURL is the public URL of the vendor portal frontend, used in email links
	BaseURL string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// RedisConfig configures the optional Redis connection backing the notification queue
type RedisConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
	// UserTokenTTL is the session lifetime for admin/staff tokens (hours)
	UserTokenTTL int
	// VendorTokenTTL is the session lifetime for vendor tokens (hours)
	VendorTokenTTL int
	// PasswordResetTTL is the lifetime of a password reset token (minutes)
	PasswordResetTTL int
	// MinPasswordLength applies to password resets and registrations
	MinPasswordLength int
}

type NotificationConfig struct {
	Enabled bool
	// Queue selects the dispatch queue backend: "memory" or "redis"
	Queue       string
	QueueKey    string
	QueueSize   int
	Workers     int
	SendTimeout int // seconds
	FromEmail   string
	FromName    string
	AdminEmail  string
	// SendGridAPIKey enables SendGrid delivery; empty means log-only delivery
	SendGridAPIKey string
}

type StorageConfig struct {
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
	MaxUploadSizeMB       int64
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout     int
	WriteTimeout    int
	RequestTimeout  int
	ShutdownTimeout int
	EnableSwagger   bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	// AllowedOrigins is a list of allowed origins for CORS requests
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	// MaxAge is the max age (in seconds) for preflight cache
	MaxAge int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	XSSProtection         string
	ReferrerPolicy        string
	PermissionsPolicy     string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled bool
	// RequestsPerMinute is the default rate limit for unauthenticated requests (per IP)
	RequestsPerMinute int
	// RequestsPerMinuteAuth is the rate limit for authenticated requests (per principal)
	RequestsPerMinuteAuth int
	// CredentialRequestsPerMinute limits login and password reset endpoints (per IP)
	CredentialRequestsPerMinute int
	WhitelistIPs                []string
	WhitelistPaths              []string
}

// JobsConfig holds cron expressions for background jobs. An empty schedule disables the job.
type JobsConfig struct {
	Enabled                bool
	PasswordResetPurgeCron string
	AssignmentReminderCron string
	// AssignmentReminderAfter is how long an assignment may stay unacknowledged before a reminder (hours)
	AssignmentReminderAfter int
}

type SentryConfig struct {
	DSN              string
	TracesSampleRate float64
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// ShutdownTimeoutDuration returns the graceful shutdown deadline
func (s *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// UserTokenTTLDuration returns the admin/staff session lifetime
func (a *AuthConfig) UserTokenTTLDuration() time.Duration {
	return time.Duration(a.UserTokenTTL) * time.Hour
}

// VendorTokenTTLDuration returns the vendor session lifetime
func (a *AuthConfig) VendorTokenTTLDuration() time.Duration {
	return time.Duration(a.VendorTokenTTL) * time.Hour
}

// PasswordResetTTLDuration returns the password reset token lifetime
func (a *AuthConfig) PasswordResetTTLDuration() time.Duration {
	return time.Duration(a.PasswordResetTTL) * time.Minute
}

// SendTimeoutDuration returns the per-message delivery timeout
func (n *NotificationConfig) SendTimeoutDuration() time.Duration {
	return time.Duration(n.SendTimeout) * time.Second
}

// AssignmentReminderAfterDuration returns the reminder threshold
func (j *JobsConfig) AssignmentReminderAfterDuration() time.Duration {
	return time.Duration(j.AssignmentReminderAfter) * time.Hour
}

// Load loads configuration from file and environment variables.
// Secrets are not resolved from vault and the result is not validated;
// use LoadWithSecrets for the API server.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Flat env names used by the deployment manifests
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	}
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = v.GetString("REDIS_URL")
	}
	if cfg.Notifications.SendGridAPIKey == "" {
		cfg.Notifications.SendGridAPIKey = v.GetString("SENDGRID_API_KEY")
	}
	if cfg.Sentry.DSN == "" {
		cfg.Sentry.DSN = v.GetString("SENTRY_DSN")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	return &cfg, nil
}

// Validate checks settings that would otherwise fail late at runtime
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		if c.App.Environment != "development" && c.App.Environment != "local" {
			return fmt.Errorf("auth.jwtSecret (JWT_SECRET) is required in %s", c.App.Environment)
		}
		c.Auth.JWTSecret = developmentJWTSecret
	}
	switch c.Notifications.Queue {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported notification queue: %q", c.Notifications.Queue)
	}
	if c.Notifications.Queue == "redis" && c.Redis.URL == "" {
		return fmt.Errorf("redis.url (REDIS_URL) is required when notifications.queue is redis")
	}
	return nil
}

// LoadWithSecrets loads configuration and resolves secrets from the configured source.
//
// Key Vault is used when BOTH conditions are met:
// 1. USE_AZURE_KEY_VAULT environment variable is set to "true"
// 2. Environment is "staging" or "production"
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, cfg.Validate()
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, cfg.Validate()
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	if err := applySecrets(ctx, cfg, provider); err != nil {
		return nil, err
	}

	logger.Info("Secrets loaded from vault successfully",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)
	return cfg, cfg.Validate()
}

// SecretSource is the subset of secrets.Provider used to populate the config
type SecretSource interface {
	GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error)
}

func applySecrets(ctx context.Context, cfg *Config, src SecretSource) error {
	targets := []struct {
		secret string
		env    string
		dst    *string
	}{
		{"POSTGRES-VENDOR-HOST", "DATABASE_HOST", &cfg.Database.Host},
		{"POSTGRES-VENDOR-USER", "DATABASE_USER", &cfg.Database.User},
		{"POSTGRES-VENDOR-PASSWORD", "DATABASE_PASSWORD", &cfg.Database.Password},
		{"vendor-portal-jwt-secret", "JWT_SECRET", &cfg.Auth.JWTSecret},
		{"sendgrid-api-key", "SENDGRID_API_KEY", &cfg.Notifications.SendGridAPIKey},
		{"redis-url", "REDIS_URL", &cfg.Redis.URL},
		{"storage-connection-string", "STORAGE_CLOUDCONNECTIONSTRING", &cfg.Storage.CloudConnectionString},
	}

	for _, t := range targets {
		value, err := src.GetSecretOrEnv(ctx, t.secret, t.env)
		if err != nil || value == "" {
			continue
		}
		*t.dst = value
	}

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret not found in vault or environment")
	}
	if sslMode := os.Getenv("DATABASE_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Straye Vendor Portal API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.baseURL", "http://localhost:3000")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "vendor_portal")
	v.SetDefault("database.user", "vendor_portal")
	v.SetDefault("database.password", "vendor_portal")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)

	v.SetDefault("redis.url", "")

	// Auth defaults
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.issuer", "vendor-portal")
	v.SetDefault("auth.userTokenTTL", 24*7)    // 7 days
	v.SetDefault("auth.vendorTokenTTL", 24*30) // 30 days
	v.SetDefault("auth.passwordResetTTL", 30)
	v.SetDefault("auth.minPasswordLength", 6)

	// Notification defaults
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.queue", "memory")
	v.SetDefault("notifications.queueKey", "vendor-portal:notifications")
	v.SetDefault("notifications.queueSize", 256)
	v.SetDefault("notifications.workers", 2)
	v.SetDefault("notifications.sendTimeout", 15)
	v.SetDefault("notifications.fromEmail", "no-reply@straye.io")
	v.SetDefault("notifications.fromName", "Straye Vendor Portal")
	v.SetDefault("notifications.adminEmail", "")

	// Secrets defaults
	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	// Storage defaults
	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.cloudContainer", "vendor-documents")
	v.SetDefault("storage.maxUploadSizeMB", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Server defaults
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)
	v.SetDefault("server.shutdownTimeout", 30)
	v.SetDefault("server.enableSwagger", true)

	// CORS defaults
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	// Security header defaults
	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.xssProtection", "1; mode=block")
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(), microphone=(), camera=()")

	// Rate limiting defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 60)
	v.SetDefault("rateLimit.requestsPerMinuteAuth", 120)
	v.SetDefault("rateLimit.credentialRequestsPerMinute", 10)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready", "/metrics"})

	// Jobs defaults
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.passwordResetPurgeCron", "15 3 * * *")
	v.SetDefault("jobs.assignmentReminderCron", "0 9 * * *")
	v.SetDefault("jobs.assignmentReminderAfter", 24)

	// Sentry defaults
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.tracesSampleRate", 0.0)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
