package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported storage and cache backends
const (
	DatabaseTypeMySQL    = "mysql"
	DatabaseTypePostgres = "postgres"
	DatabaseTypeMemory   = "memory"

	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"
)

// Config holds all configuration for the application
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabasesConfig      `mapstructure:"database"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Generator      GeneratorConfig      `mapstructure:"generator"`
	Guardrails     GuardrailsConfig     `mapstructure:"guardrails"`
	CORS           CORSConfig           `mapstructure:"cors"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Hostname     string        `mapstructure:"hostname"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabasesConfig holds all database configurations
type DatabasesConfig struct {
	Recommendation DatabaseConfig `mapstructure:"recommendation"`
}

// DatabaseConfig holds individual database configuration
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"`
	Hostname        string        `mapstructure:"hostname"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// SeedUsers lists user ids known to the in-memory user directory.
	SeedUsers []int64 `mapstructure:"seed_users"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CacheConfig holds the per-user cache configuration
type CacheConfig struct {
	Type       string        `mapstructure:"type"`
	ProfileTTL time.Duration `mapstructure:"profile_ttl"`
	Redis      RedisConfig   `mapstructure:"redis"`
}

// RedisConfig holds redis connection settings for the distributed cache generation counter
type RedisConfig struct {
	Address     string        `mapstructure:"address"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// RecommendationConfig holds orchestrator settings
type RecommendationConfig struct {
	GenerationTimeout time.Duration `mapstructure:"generation_timeout"`
	RetryAfter        time.Duration `mapstructure:"retry_after"`
}

// GeneratorConfig holds the external signals / candidate service configuration
type GeneratorConfig struct {
	BaseURL       string             `mapstructure:"base_url"`
	Timeout       time.Duration      `mapstructure:"timeout"`
	RetryAttempts int                `mapstructure:"retry_attempts"`
	Endpoints     GeneratorEndpoints `mapstructure:"endpoints"`
}

// GeneratorEndpoints holds the generator endpoint paths
type GeneratorEndpoints struct {
	PersonaProfile string `mapstructure:"persona_profile"`
	Candidates     string `mapstructure:"candidates"`
}

// GuardrailsConfig holds content policy configuration
type GuardrailsConfig struct {
	Tone ToneConfig `mapstructure:"tone"`
}

// ToneConfig holds the tone validator rules
type ToneConfig struct {
	ProhibitedPhrases []string `mapstructure:"prohibited_phrases"`
	MaxExclamations   int      `mapstructure:"max_exclamations"`
	MaxUppercaseWords int      `mapstructure:"max_uppercase_words"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

var globalConfig *Config

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default configuration lookup order:
		// 1. ./repository/conf/deployment.yaml (production - relative to binary)
		// 2. ./cmd/server/repository/conf/deployment.yaml (development)
		v.SetConfigName("deployment")
		v.SetConfigType("yaml")
		v.AddConfigPath("./repository/conf")
		v.AddConfigPath("./cmd/server/repository/conf")
		v.AddConfigPath("../repository/conf")
		v.AddConfigPath(".")
	}

	// RECS_DATABASE_RECOMMENDATION_PASSWORD overrides database.recommendation.password
	v.SetEnvPrefix("RECS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	globalConfig = &config
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.hostname", "0.0.0.0")
	v.SetDefault("server.port", 9446)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.recommendation.type", DatabaseTypeMySQL)
	v.SetDefault("database.recommendation.max_open_conns", 25)
	v.SetDefault("database.recommendation.max_idle_conns", 5)
	v.SetDefault("database.recommendation.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.recommendation.sslmode", "disable")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.profile_ttl", 15*time.Minute)
	v.SetDefault("cache.redis.key_prefix", "recs:cache-gen:")
	v.SetDefault("cache.redis.dial_timeout", 5*time.Second)

	v.SetDefault("recommendation.generation_timeout", 10*time.Second)
	v.SetDefault("recommendation.retry_after", 5*time.Second)

	v.SetDefault("generator.timeout", 8*time.Second)
	v.SetDefault("generator.retry_attempts", 1)
	v.SetDefault("generator.endpoints.persona_profile", "/persona-profile")
	v.SetDefault("generator.endpoints.candidates", "/candidates")

	v.SetDefault("guardrails.tone.max_exclamations", 1)
	v.SetDefault("guardrails.tone.max_uppercase_words", 2)
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	db := config.Database.Recommendation
	switch db.Type {
	case DatabaseTypeMySQL, DatabaseTypePostgres:
		if db.Hostname == "" {
			return fmt.Errorf("database hostname is required")
		}
		if db.Database == "" {
			return fmt.Errorf("database name is required")
		}
	case DatabaseTypeMemory:
	default:
		return fmt.Errorf("unsupported database type: %q", db.Type)
	}

	switch config.Cache.Type {
	case CacheTypeMemory:
	case CacheTypeRedis:
		if config.Cache.Redis.Address == "" {
			return fmt.Errorf("redis address is required when cache type is redis")
		}
	default:
		return fmt.Errorf("unsupported cache type: %q", config.Cache.Type)
	}

	if config.Recommendation.GenerationTimeout <= 0 {
		return fmt.Errorf("recommendation generation timeout must be positive")
	}

	if config.Generator.BaseURL == "" {
		return fmt.Errorf("generator base URL is required")
	}

	if config.Guardrails.Tone.MaxExclamations < 0 || config.Guardrails.Tone.MaxUppercaseWords < 0 {
		return fmt.Errorf("tone limits must not be negative")
	}

	return nil
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// SetGlobal sets the global configuration (for testing purposes)
func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

// GetDSN returns the database connection string for the configured driver
func (d *DatabaseConfig) GetDSN() string {
	if d.Type == DatabaseTypePostgres {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Hostname,
			d.Port,
			d.User,
			d.Password,
			d.Database,
			d.SSLMode,
		)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		d.User,
		d.Password,
		d.Hostname,
		d.Port,
		d.Database,
	)
}

// GetServerAddress returns the server address in host:port format
func (s *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}

// GetEndpointURL returns the full URL for a generator endpoint
func (g *GeneratorConfig) GetEndpointURL(endpoint string) string {
	return strings.TrimRight(g.BaseURL, "/") + endpoint
}
