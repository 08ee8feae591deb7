package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	CORS       CORSConfig       `mapstructure:"cors"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Intent     IntentConfig     `mapstructure:"intent"`
	URLScan    URLScanConfig    `mapstructure:"urlscan"`
	AutoVerify AutoVerifyConfig `mapstructure:"autoverify"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// RiskConfig tunes the score combination and the overall assessment deadline
type RiskConfig struct {
	DBWeight          float64       `mapstructure:"db_weight"`
	IntentWeight      float64       `mapstructure:"intent_weight"`
	HighThreshold     float64       `mapstructure:"high_threshold"`
	MediumThreshold   float64       `mapstructure:"medium_threshold"`
	ScamThreshold     float64       `mapstructure:"scam_threshold"`
	AssessmentTimeout time.Duration `mapstructure:"assessment_timeout"`
	LookupConcurrency int           `mapstructure:"lookup_concurrency"`
}

// IntentConfig configures the remote intent classifier and its rule-based fallback
type IntentConfig struct {
	Provider      string        `mapstructure:"provider"` // claude or openai
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MinConfidence float64       `mapstructure:"min_confidence"`

	FinancialKeywords    []string `mapstructure:"financial_keywords"`
	GiftKeywords         []string `mapstructure:"gift_keywords"`
	UrgencyKeywords      []string `mapstructure:"urgency_keywords"`
	PersonalInfoKeywords []string `mapstructure:"personal_info_keywords"`

	FinancialWeight    float64 `mapstructure:"financial_weight"`
	GiftWeight         float64 `mapstructure:"gift_weight"`
	UrgencyWeight      float64 `mapstructure:"urgency_weight"`
	PersonalInfoWeight float64 `mapstructure:"personal_info_weight"`
}

// URLScanConfig configures the external URL reputation client
type URLScanConfig struct {
	APIURL   string        `mapstructure:"api_url"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// AutoVerifyConfig configures the reconciliation engine
type AutoVerifyConfig struct {
	Enabled                 bool          `mapstructure:"enabled"`
	SweepInterval           time.Duration `mapstructure:"sweep_interval"`
	SweepBatchSize          int           `mapstructure:"sweep_batch_size"`
	PhoneThreshold          int           `mapstructure:"phone_threshold"`
	EmailThreshold          int           `mapstructure:"email_threshold"`
	WebsiteThreshold        int           `mapstructure:"website_threshold"`
	SocialMediaThreshold    int           `mapstructure:"social_media_threshold"`
	OtherThreshold          int           `mapstructure:"other_threshold"`
	UniqueReportersRequired int           `mapstructure:"unique_reporters_required"`
	TimePeriodHours         int           `mapstructure:"time_period_hours"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/scamshield")
	}

	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("SCAMSHIELD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("database.host", "SCAMSHIELD_DATABASE_HOST")
	v.BindEnv("database.port", "SCAMSHIELD_DATABASE_PORT")
	v.BindEnv("database.user", "SCAMSHIELD_DATABASE_USER")
	v.BindEnv("database.password", "SCAMSHIELD_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "SCAMSHIELD_DATABASE_DBNAME")
	v.BindEnv("database.sslmode", "SCAMSHIELD_DATABASE_SSLMODE")
	v.BindEnv("redis.host", "SCAMSHIELD_REDIS_HOST")
	v.BindEnv("redis.port", "SCAMSHIELD_REDIS_PORT")
	v.BindEnv("redis.password", "SCAMSHIELD_REDIS_PASSWORD")
	v.BindEnv("jwt.secret", "SCAMSHIELD_JWT_SECRET")
	v.BindEnv("intent.api_key", "SCAMSHIELD_INTENT_API_KEY")
	v.BindEnv("urlscan.api_key", "SCAMSHIELD_URLSCAN_API_KEY")
	v.BindEnv("app.environment", "SCAMSHIELD_APP_ENVIRONMENT")

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional when defaults plus env cover everything
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "scamshield")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.key_prefix", "scamshield:")

	// Development only; deployments must override via SCAMSHIELD_JWT_SECRET
	v.SetDefault("jwt.secret", "dev-api-key")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_minute", 120)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	v.SetDefault("risk.db_weight", 0.6)
	v.SetDefault("risk.intent_weight", 0.4)
	v.SetDefault("risk.high_threshold", 0.8)
	v.SetDefault("risk.medium_threshold", 0.5)
	v.SetDefault("risk.scam_threshold", 0.6)
	v.SetDefault("risk.assessment_timeout", 30*time.Second)
	v.SetDefault("risk.lookup_concurrency", 5)

	v.SetDefault("intent.provider", "claude")
	v.SetDefault("intent.timeout", 10*time.Second)
	v.SetDefault("intent.min_confidence", 0.4)
	v.SetDefault("intent.financial_keywords", []string{
		"bank transfer", "wire transfer", "western union", "moneygram",
		"bitcoin", "crypto", "investment", "guaranteed returns", "processing fee",
	})
	v.SetDefault("intent.gift_keywords", []string{
		"congratulations", "won", "winner", "prize", "lottery", "gift card",
		"free money", "claim your", "inheritance",
	})
	v.SetDefault("intent.urgency_keywords", []string{
		"urgent", "immediately", "act now", "expires", "last chance",
		"final warning", "within 24 hours", "right now",
	})
	v.SetDefault("intent.personal_info_keywords", []string{
		"password", "pin", "ssn", "social security", "cvv", "credit card",
		"bank account", "verify your identity", "date of birth",
	})
	v.SetDefault("intent.financial_weight", 0.25)
	v.SetDefault("intent.gift_weight", 0.3)
	v.SetDefault("intent.urgency_weight", 0.2)
	v.SetDefault("intent.personal_info_weight", 0.3)

	v.SetDefault("urlscan.timeout", 15*time.Second)
	v.SetDefault("urlscan.cache_ttl", 5*time.Minute)

	v.SetDefault("autoverify.enabled", true)
	v.SetDefault("autoverify.sweep_interval", 30*time.Minute)
	v.SetDefault("autoverify.sweep_batch_size", 500)
	v.SetDefault("autoverify.phone_threshold", 5)
	v.SetDefault("autoverify.email_threshold", 3)
	v.SetDefault("autoverify.website_threshold", 3)
	v.SetDefault("autoverify.social_media_threshold", 5)
	v.SetDefault("autoverify.other_threshold", 10)
}
