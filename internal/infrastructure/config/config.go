package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment string         `mapstructure:"environment"`
	App         AppConfig      `mapstructure:"app"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Logger      LoggerConfig   `mapstructure:"logging"`
	Auth        AuthConfig     `mapstructure:"auth"`
	Dispatch    DispatchConfig `mapstructure:"dispatch"`
	Callback    CallbackConfig `mapstructure:"callback"`
	Payment     PaymentConfig  `mapstructure:"payment"`
	CRM         CRMConfig      `mapstructure:"crm"`
	Metrics     MetricsConfig  `mapstructure:"metrics"`
	Sentry      SentryConfig   `mapstructure:"sentry"`
}

// AppConfig contains product level settings
type AppConfig struct {
	Name          string `mapstructure:"name"`
	PublicBaseURL string `mapstructure:"publicBaseUrl"`
	// DevMode relaxes the embed handshake for local development
	DevMode bool `mapstructure:"devMode"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`
	CORSOrigins       []string      `mapstructure:"corsOrigins"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"`
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"`
	SlowThreshold   time.Duration `mapstructure:"slowThreshold"`
	AutoMigrate     bool          `mapstructure:"autoMigrate"`
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	CallerInfo bool   `mapstructure:"callerInfo"`
}

// AuthConfig contains credential settings for both identity schemes
type AuthConfig struct {
	JWTSecret             string        `mapstructure:"jwtSecret"`
	TokenTTL              time.Duration `mapstructure:"tokenTtl"`
	BcryptCost            int           `mapstructure:"bcryptCost"`
	SessionTTL            time.Duration `mapstructure:"sessionTtl"`
	HandshakeTTL          time.Duration `mapstructure:"handshakeTtl"`
	AllowedRefererDomains []string      `mapstructure:"allowedRefererDomains"`
}

// DispatchConfig contains the automation worker routes
type DispatchConfig struct {
	DefaultURL       string            `mapstructure:"defaultUrl"`
	Endpoints        map[string]string `mapstructure:"endpoints"`
	PromptEnhanceURL string            `mapstructure:"promptEnhanceUrl"`
	Timeout          time.Duration     `mapstructure:"timeout"`
	MaxRetries       int               `mapstructure:"maxRetries"`
	Workers          int               `mapstructure:"workers"`
	QueueSize        int               `mapstructure:"queueSize"`
}

// CallbackConfig contains settings of the worker callback endpoint
type CallbackConfig struct {
	Secret string `mapstructure:"secret"`
}

// PaymentConfig contains Stripe settings
type PaymentConfig struct {
	SecretKey     string `mapstructure:"secretKey"`
	WebhookSecret string `mapstructure:"webhookSecret"`
	Currency      string `mapstructure:"currency"`
}

// CRMConfig contains settings of the CRM API client
type CRMConfig struct {
	BaseURL      string        `mapstructure:"baseUrl"`
	APIVersion   string        `mapstructure:"apiVersion"`
	AgencyAPIKey string        `mapstructure:"agencyApiKey"`
	CompanyID    string        `mapstructure:"companyId"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"maxRetries"`
}

// MetricsConfig contains Prometheus settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SentryConfig contains error tracking settings
type SentryConfig struct {
	DSN              string  `mapstructure:"dsn"`
	TracesSampleRate float64 `mapstructure:"tracesSampleRate"`
}

// IsProduction reports whether the production profile is active
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}
