package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server    ServerConfig
	App       AppConfig
	Cache     CacheConfig
	AccountDB AccountDBConfig
	Database  DatabaseConfig
	AI        AIConfig
	Credits   CreditsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"300s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"vton-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	LoginKey    string `envconfig:"LOGIN_KEY" default:""` // Admin endpoint login key
}

// CacheConfig holds Redis settings for session tokens.
type CacheConfig struct {
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// AccountDBConfig holds account/ledger database settings.
type AccountDBConfig struct {
	Type string `envconfig:"ACCOUNT_DB_TYPE" default:"sqlite"` // sqlite or mysql
	Path string `envconfig:"ACCOUNT_DB_PATH" default:"./data/vton.db"`
}

// DatabaseConfig holds MySQL connection settings (alternate account backend).
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	Name     string `envconfig:"DB_NAME" default:"vton"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASS" default:""`
}

// AIConfig holds upstream inference provider settings. The generation
// and classification services receive these at construction time and
// never read the environment themselves.
type AIConfig struct {
	APIURL          string        `envconfig:"AI_API_URL" default:"https://kg-api.cloud/v1/chat/completions"`
	APIKey          string        `envconfig:"AI_API_KEY" default:""`
	Model           string        `envconfig:"AI_MODEL" default:"gemini-2.5-flash-image-preview"`
	Timeout         time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
	ClassifyTimeout time.Duration `envconfig:"AI_CLASSIFY_TIMEOUT" default:"30s"`
	MaxRetries      int           `envconfig:"AI_MAX_RETRIES" default:"2"`
	MaxTokens       int           `envconfig:"AI_MAX_TOKENS" default:"500"`
	Temperature     float64       `envconfig:"AI_TEMPERATURE" default:"0.1"`
}

// CreditsConfig holds credit award amounts.
type CreditsConfig struct {
	CheckinAmount int `envconfig:"CREDITS_CHECKIN_AMOUNT" default:"6"`
	WelcomeAmount int `envconfig:"CREDITS_WELCOME_AMOUNT" default:"6"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// DSN returns the MySQL data source name.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
