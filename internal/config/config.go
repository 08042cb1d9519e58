// Package config loads the service configuration: embedded defaults, then an
// optional YAML file, then HUB_SECTION__KEY environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"go.uber.org/multierr"

	"paymenthub/internal/domain"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates sections, e.g. HUB_RELAY__BATCH_SIZE.
const EnvPrefix = "HUB_"

var DefaultConfig = []byte(`
application: "paymenthub"

logger:
  level: "info"

is_prod_mode: false

server:
  port: "8080"
  read_timeout: "10s"
  write_timeout: "10s"
  shutdown_timeout: "5s"

store:
  driver: "postgres"
  bolt_path: "paymenthub.db"

database:
  host: "localhost"
  port: "5432"
  user: "postgres"
  password: "postgres"
  dbname: "paymenthub"
  sslmode: "disable"
  migrate: true

redis:
  enabled: true
  addr: "localhost:6379"
  password: ""
  db: 0

newrelic:
  enabled: false
  app_name: "paymenthub"
  license_key: ""

kafka:
  enabled: false
  brokers:
    - "localhost:9092"
  topic: "ledger-events"
  client_id: "paymenthub"

mongo:
  enabled: false
  uri: "mongodb://localhost:27017"
  database: "paymenthub"
  collection: "ledger_events"

relay:
  interval: "1s"
  batch_size: 100
  max_attempts: 5
  dead_letter_list: "ledger:events:dead-letter"

auth:
  secret: ""
  issuer: "paymenthub"
  token_ttl: "1h"

rate_limit:
  rps: 20
  burst: 40
  sweep_interval: "1m"
  max_idle: "10m"

cors:
  allowed_origins: []

lock:
  ttl: "30s"

cache:
  ttl: "30s"

platform:
  deployer: ""
  fee_bps: 200
  max_fee_bps: 1000
  fee_recipient: ""
  custody: ""

token:
  symbol: "USDC"
  decimals: 6

faucet:
  enabled: false
  max_amount: 0
`)

type Config struct {
	Application string    `koanf:"application"`
	Logger      Logger    `koanf:"logger"`
	IsProdMode  bool      `koanf:"is_prod_mode"`
	Server      Server    `koanf:"server"`
	Store       Store     `koanf:"store"`
	Database    Database  `koanf:"database"`
	Redis       Redis     `koanf:"redis"`
	NewRelic    NewRelic  `koanf:"newrelic"`
	Kafka       Kafka     `koanf:"kafka"`
	Mongo       Mongo     `koanf:"mongo"`
	Relay       Relay     `koanf:"relay"`
	Auth        Auth      `koanf:"auth"`
	RateLimit   RateLimit `koanf:"rate_limit"`
	CORS        CORS      `koanf:"cors"`
	Lock        Lock      `koanf:"lock"`
	Cache       Cache     `koanf:"cache"`
	Platform    Platform  `koanf:"platform"`
	Token       Token     `koanf:"token"`
	Faucet      Faucet    `koanf:"faucet"`
}

type Logger struct {
	Level string `koanf:"level"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port            string        `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Store selects the ledger backend: "postgres" or "bolt".
type Store struct {
	Driver   string `koanf:"driver"`
	BoltPath string `koanf:"bolt_path"`
}

// Database holds PostgreSQL configuration.
type Database struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
	Migrate  bool   `koanf:"migrate"`
}

// Redis holds Redis configuration. When disabled, locks are process-local and
// the cache, idempotency keys and dead-letter list are off.
type Redis struct {
	Enabled  bool   `koanf:"enabled"`
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// NewRelic holds New Relic configuration.
type NewRelic struct {
	Enabled    bool   `koanf:"enabled"`
	AppName    string `koanf:"app_name"`
	LicenseKey string `koanf:"license_key"`
}

type Kafka struct {
	Enabled  bool     `koanf:"enabled"`
	Brokers  []string `koanf:"brokers"`
	Topic    string   `koanf:"topic"`
	ClientID string   `koanf:"client_id"`
}

type Mongo struct {
	Enabled    bool   `koanf:"enabled"`
	URI        string `koanf:"uri"`
	Database   string `koanf:"database"`
	Collection string `koanf:"collection"`
}

// Relay tunes the outbox relay.
type Relay struct {
	Interval       time.Duration `koanf:"interval"`
	BatchSize      int           `koanf:"batch_size"`
	MaxAttempts    int           `koanf:"max_attempts"`
	DeadLetterList string        `koanf:"dead_letter_list"`
}

// Auth holds the HS256 secret used to verify bearer tokens.
type Auth struct {
	Secret   string        `koanf:"secret"`
	Issuer   string        `koanf:"issuer"`
	TokenTTL time.Duration `koanf:"token_ttl"`
}

type RateLimit struct {
	RPS           float64       `koanf:"rps"`
	Burst         int           `koanf:"burst"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	MaxIdle       time.Duration `koanf:"max_idle"`
}

type CORS struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type Lock struct {
	TTL time.Duration `koanf:"ttl"`
}

type Cache struct {
	TTL time.Duration `koanf:"ttl"`
}

// Platform is applied once at startup to an empty store.
type Platform struct {
	Deployer     string `koanf:"deployer"`
	FeeBps       uint32 `koanf:"fee_bps"`
	MaxFeeBps    uint32 `koanf:"max_fee_bps"`
	FeeRecipient string `koanf:"fee_recipient"`
	Custody      string `koanf:"custody"`
}

type Token struct {
	Symbol   string `koanf:"symbol"`
	Decimals int32  `koanf:"decimals"`
}

type Faucet struct {
	Enabled   bool   `koanf:"enabled"`
	MaxAmount uint64 `koanf:"max_amount"`
}

// Load layers the defaults, the file at path (skipped when path is empty or
// the file does not exist) and the environment.
func Load(path string) (*Config, *koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(DefaultConfig), yaml.Parser()); err != nil {
		return nil, nil, fmt.Errorf("failed to load default config: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, k, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs error
	required := func(field, value string) {
		if value == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s: cannot be empty", field))
		}
	}

	required("application", c.Application)
	required("logger.level", c.Logger.Level)
	required("server.port", c.Server.Port)
	required("auth.secret", c.Auth.Secret)
	required("auth.issuer", c.Auth.Issuer)

	switch c.Store.Driver {
	case "postgres":
		required("database.host", c.Database.Host)
		required("database.dbname", c.Database.DBName)
	case "bolt":
		required("store.bolt_path", c.Store.BoltPath)
	default:
		errs = multierr.Append(errs, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver))
	}

	if c.Redis.Enabled {
		required("redis.addr", c.Redis.Addr)
	}
	if c.NewRelic.Enabled {
		required("newrelic.license_key", c.NewRelic.LicenseKey)
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			errs = multierr.Append(errs, errors.New("kafka.brokers: cannot be empty"))
		}
		required("kafka.topic", c.Kafka.Topic)
	}
	if c.Mongo.Enabled {
		required("mongo.uri", c.Mongo.URI)
		required("mongo.database", c.Mongo.Database)
	}

	if c.Relay.Interval <= 0 {
		errs = multierr.Append(errs, errors.New("relay.interval: must be positive"))
	}
	if c.Relay.BatchSize <= 0 {
		errs = multierr.Append(errs, errors.New("relay.batch_size: must be positive"))
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		errs = multierr.Append(errs, errors.New("rate_limit: rps and burst must be positive"))
	}
	if c.RateLimit.SweepInterval <= 0 {
		errs = multierr.Append(errs, errors.New("rate_limit.sweep_interval: must be positive"))
	}
	if c.Token.Decimals < 0 || c.Token.Decimals > 18 {
		errs = multierr.Append(errs, errors.New("token.decimals: must be between 0 and 18"))
	}

	if c.Platform.Deployer != "" {
		required("platform.fee_recipient", c.Platform.FeeRecipient)
		required("platform.custody", c.Platform.Custody)
	}
	for field, value := range map[string]string{
		"platform.deployer":      c.Platform.Deployer,
		"platform.fee_recipient": c.Platform.FeeRecipient,
		"platform.custody":       c.Platform.Custody,
	} {
		if value == "" {
			continue
		}
		if _, err := domain.ParseAddress(value); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}

	return errs
}

// PlatformConfig returns the bootstrap settings, or false when no deployer is configured.
func (c *Config) PlatformConfig() (domain.Address, domain.PlatformConfig, bool) {
	if c.Platform.Deployer == "" {
		return "", domain.PlatformConfig{}, false
	}
	deployer, _ := domain.ParseAddress(c.Platform.Deployer)
	recipient, _ := domain.ParseAddress(c.Platform.FeeRecipient)
	custody, _ := domain.ParseAddress(c.Platform.Custody)
	return deployer, domain.PlatformConfig{
		FeeBps:       c.Platform.FeeBps,
		MaxFeeBps:    c.Platform.MaxFeeBps,
		FeeRecipient: recipient,
		Custody:      custody,
	}, true
}

// DSN renders the lib/pq connection string.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}
