package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GatewayConfig holds credentials and transport settings for the card gateway.
type GatewayConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	APILoginID     string        `mapstructure:"api_login_id"`
	TransactionKey string        `mapstructure:"transaction_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// Validate checks that gateway credentials are present.
func (g GatewayConfig) Validate() error {
	if g.APILoginID == "" || g.TransactionKey == "" {
		return fmt.Errorf("gateway credentials are not configured")
	}
	if g.Endpoint == "" {
		return fmt.Errorf("gateway endpoint is not configured")
	}
	return nil
}

// PolicyConfig holds the orchestration policy knobs.
type PolicyConfig struct {
	// SettlementCutoff is how long after capture a transaction is treated as
	// settled when the gateway does not report settlement explicitly.
	SettlementCutoff time.Duration `mapstructure:"settlement_cutoff"`
	// IdempotencyRetention bounds how long replay results are kept.
	IdempotencyRetention time.Duration `mapstructure:"idempotency_retention"`
	// ClaimTTL bounds how long an in-flight idempotency claim may be held.
	// Must exceed the gateway timeout or an in-flight request could lose its claim.
	ClaimTTL time.Duration `mapstructure:"claim_ttl"`
}

type AuthConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	APISecretHash string        `mapstructure:"api_secret_hash"` // argon2id hash
	JWTSecret     string        `mapstructure:"jwt_secret"`
	JWTExpiry     time.Duration `mapstructure:"jwt_expiry"`
	JWTIssuer     string        `mapstructure:"jwt_issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: PPS_ (Payment Processing System).
// Nested keys use underscore: PPS_DATABASE_HOST, PPS_GATEWAY_TRANSACTION_KEY, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "payment_processing")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("gateway.endpoint", "https://apitest.authorize.net/xml/v1/request.api")
	v.SetDefault("gateway.api_login_id", "")
	v.SetDefault("gateway.transaction_key", "")
	v.SetDefault("gateway.timeout", "30s")
	v.SetDefault("policy.settlement_cutoff", "24h")
	v.SetDefault("policy.idempotency_retention", "24h")
	v.SetDefault("policy.claim_ttl", "45s")
	v.SetDefault("auth.api_key", "")
	v.SetDefault("auth.api_secret_hash", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_expiry", "24h")
	v.SetDefault("auth.jwt_issuer", "payment-processing-system")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: PPS_DATABASE_HOST -> database.host
	v.SetEnvPrefix("PPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Policy.ClaimTTL <= cfg.Gateway.Timeout {
		return nil, fmt.Errorf("policy.claim_ttl (%s) must exceed gateway.timeout (%s)",
			cfg.Policy.ClaimTTL, cfg.Gateway.Timeout)
	}

	return &cfg, nil
}
