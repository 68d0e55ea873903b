package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	LogLevel  string
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StoreConfig selects the storage backend: memory, bolt, mongo or redis.
type StoreConfig struct {
	Backend  string
	BoltPath string
}

type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Prefix   string
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

// ClientConfig is read by programs that talk to a store.
type ClientConfig struct {
	URL     string
	Timeout time.Duration
}

// LoadClientConfig reads only the client settings, for programs that talk to
// a store without running one.
func LoadClientConfig() ClientConfig {
	_ = godotenv.Load()
	viper.AutomaticEnv()

	viper.SetDefault("DOCSTORE_URL", "http://localhost:5984")
	viper.SetDefault("DOCSTORE_CLIENT_TIMEOUT", 30)
	return ClientConfig{
		URL:     viper.GetString("DOCSTORE_URL"),
		Timeout: time.Duration(viper.GetInt("DOCSTORE_CLIENT_TIMEOUT")) * time.Second,
	}
}

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("DOCSTORE_PORT", "5984")
	viper.SetDefault("DOCSTORE_HOST", "0.0.0.0")
	viper.SetDefault("DOCSTORE_ENVIRONMENT", "development")
	viper.SetDefault("DOCSTORE_BACKEND", "memory")
	viper.SetDefault("BOLT_PATH", "docstore.bolt")
	viper.SetDefault("MONGODB_DATABASE", "docstore")
	viper.SetDefault("MONGODB_COLLECTION", "documents")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_PREFIX", "doc:")
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_RPS", 50)
	viper.SetDefault("RATE_LIMIT_BURST", 100)
	viper.SetDefault("RATE_LIMIT_USE_REDIS", false)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("DOCSTORE_PORT"),
			Host:         viper.GetString("DOCSTORE_HOST"),
			Environment:  viper.GetString("DOCSTORE_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Backend:  strings.ToLower(strings.TrimSpace(viper.GetString("DOCSTORE_BACKEND"))),
			BoltPath: viper.GetString("BOLT_PATH"),
		},
		MongoDB: MongoDBConfig{
			URI:        viper.GetString("MONGODB_URI"),
			Database:   viper.GetString("MONGODB_DATABASE"),
			Collection: viper.GetString("MONGODB_COLLECTION"),
			Timeout:    time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			Prefix:   viper.GetString("REDIS_PREFIX"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
