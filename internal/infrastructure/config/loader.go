package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// EnvPrefix prefixes every environment override, e.g. CF_SERVER_PORT
const EnvPrefix = "CF"

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"./configs/.env",
}

// wellKnownEnv maps unprefixed variables used by hosting platforms onto keys
var wellKnownEnv = map[string]string{
	"DATABASE_URL":          "database.url",
	"JWT_SECRET":            "auth.jwtSecret",
	"STRIPE_SECRET_KEY":     "payment.secretKey",
	"STRIPE_WEBHOOK_SECRET": "payment.webhookSecret",
	"GHL_AGENCY_API_KEY":    "crm.agencyApiKey",
	"GHL_COMPANY_ID":        "crm.companyId",
	"SENTRY_DSN":            "sentry.dsn",
	"PUBLIC_BASE_URL":       "app.publicBaseUrl",
	"PORT":                  "server.port",
}

// LoadConfig loads configuration from file based on the environment
func LoadConfig() (*Config, error) {
	if err := loadDotEnvFile(); err != nil {
		fmt.Println("Warning: Could not load .env file:", err)
	}
	return Load(getEnvironment(), ConfigPaths...)
}

// Load reads the named profile from paths and applies environment overrides
func Load(env string, paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	processEnvOverrides(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.Environment = env

	// Dispatch endpoints are a free-form map and are not reached by AutomaticEnv.
	for key := range config.Dispatch.Endpoints {
		if val := os.Getenv(EnvPrefix + "_DISPATCH_ENDPOINTS_" + strings.ToUpper(key)); val != "" {
			config.Dispatch.Endpoints[key] = val
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate fails fast on settings the service cannot run without
func (c *Config) Validate() error {
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return errors.New("config: auth.jwtSecret is required in production")
	}
	if c.App.PublicBaseURL == "" {
		return errors.New("config: app.publicBaseUrl is required")
	}
	if u, err := url.Parse(c.App.PublicBaseURL); err != nil || u.Host == "" {
		return fmt.Errorf("config: app.publicBaseUrl %q is not an absolute URL", c.App.PublicBaseURL)
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("config: auth.bcryptCost %d out of range", c.Auth.BcryptCost)
	}
	if c.Dispatch.Workers <= 0 || c.Dispatch.QueueSize <= 0 {
		return errors.New("config: dispatch.workers and dispatch.queueSize must be positive")
	}
	return nil
}

// loadDotEnvFile attempts to load environment variables from .env files
func loadDotEnvFile() error {
	var lastError error
	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return nil
			} else {
				lastError = err
			}
		}
	}
	if lastError != nil {
		return fmt.Errorf("could not load any .env file: %w", lastError)
	}
	return fmt.Errorf("no .env file found in search paths")
}

// setDefaults sets default values for non-critical configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "clipforge")
	v.SetDefault("app.devMode", false)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", "15s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("server.idleTimeout", "60s")
	v.SetDefault("server.readHeaderTimeout", "10s")
	v.SetDefault("server.shutdownTimeout", "15s")

	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 10)
	v.SetDefault("database.connMaxLifetime", "30m")
	v.SetDefault("database.connMaxIdleTime", "15m")
	v.SetDefault("database.queryTimeout", "5s")
	v.SetDefault("database.retryAttempts", 3)
	v.SetDefault("database.retryDelay", "1s")
	v.SetDefault("database.slowThreshold", "200ms")
	v.SetDefault("database.autoMigrate", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.callerInfo", true)

	v.SetDefault("auth.tokenTtl", "720h")
	v.SetDefault("auth.bcryptCost", 12)
	v.SetDefault("auth.sessionTtl", "24h")
	v.SetDefault("auth.handshakeTtl", "120s")
	v.SetDefault("auth.allowedRefererDomains", []string{
		"app.gohighlevel.com",
		"gohighlevel.com",
		"app.leadconnectorhq.com",
		"leadconnectorhq.com",
	})

	v.SetDefault("dispatch.timeout", "30s")
	v.SetDefault("dispatch.maxRetries", 2)
	v.SetDefault("dispatch.workers", 4)
	v.SetDefault("dispatch.queueSize", 256)

	v.SetDefault("payment.currency", "usd")

	v.SetDefault("crm.baseUrl", "https://services.leadconnectorhq.com")
	v.SetDefault("crm.apiVersion", "2021-07-28")
	v.SetDefault("crm.timeout", "30s")
	v.SetDefault("crm.maxRetries", 2)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// getEnvironment determines the profile from CF_ENV, then APP_ENV
func getEnvironment() string {
	env := os.Getenv(EnvPrefix + "_ENV")
	if env == "" {
		env = os.Getenv("APP_ENV")
	}
	if env == "" {
		env = Development
	}
	return strings.ToLower(env)
}

// processEnvOverrides applies the unprefixed variables hosting platforms set
func processEnvOverrides(v *viper.Viper) {
	for name, key := range wellKnownEnv {
		if val := os.Getenv(name); val != "" {
			v.Set(key, val)
		}
	}
}
