// README: Config loader (file + ZT_ env overrides) for HTTP, storage, auth, dispatch and notification settings.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"zonetaxi/internal/modules/pricing"
)

const envPrefix = "ZT_"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	HTTP     HTTPConfig     `json:"http"`
	DB       DBConfig       `json:"db"`
	Redis    RedisConfig    `json:"redis"`
	Auth     AuthConfig     `json:"auth"`
	Pricing  PricingConfig  `json:"pricing"`
	Dispatch DispatchConfig `json:"dispatch"`
	Lookup   LookupConfig   `json:"lookup"`
	Notify   NotifyConfig   `json:"notify"`
	Events   EventsConfig   `json:"events"`
	Ledger   LedgerConfig   `json:"ledger"`
	Logging  LoggingConfig  `json:"logging"`
	// Catalog is the zones/vehicles file; relative paths resolve against the config file.
	Catalog string `json:"catalog"`
}

type HTTPConfig struct {
	Addr            string `json:"addr"`
	ShutdownSeconds int    `json:"shutdown_seconds"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ShutdownSeconds <= 0 {
		c.ShutdownSeconds = 10
	}
}

// DBConfig with an empty DSN runs every store in memory.
type DBConfig struct {
	DSN string `json:"dsn"`
}

// RedisConfig with an empty Addr keeps dispatch bookkeeping in memory.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

const (
	AuthFirebase = "firebase"
	AuthJWT      = "jwt"
	AuthDev      = "dev"
)

type AuthConfig struct {
	Mode                string `json:"mode"`
	FirebaseProjectID   string `json:"firebase_project_id"`
	FirebaseCredentials string `json:"firebase_credentials"`
	JWTSecret           string `json:"jwt_secret"`
	JWTIssuer           string `json:"jwt_issuer"`
}

func (c *AuthConfig) SetDefaults() {
	if c.Mode == "" {
		c.Mode = AuthDev
	}
	c.Mode = strings.ToLower(c.Mode)
}

func (c AuthConfig) Validate() error {
	switch c.Mode {
	case AuthDev:
	case AuthFirebase:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("%w: auth.firebase_project_id is required in firebase mode", ErrInvalidConfig)
		}
	case AuthJWT:
		if len(c.JWTSecret) < 16 {
			return fmt.Errorf("%w: auth.jwt_secret must be at least 16 bytes", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown auth mode %q", ErrInvalidConfig, c.Mode)
	}
	return nil
}

// PricingConfig holds the default rates; communities may override them in the database.
type PricingConfig struct {
	Disabled         bool     `json:"disabled"`
	BaseRate         *float64 `json:"base_rate"`
	PerKmRate        *float64 `json:"per_km_rate"`
	WaitRate         *float64 `json:"wait_rate"`
	DriverCommission *float64 `json:"driver_commission"`
	Currency         string   `json:"currency"`
}

// Rates overlays the configured values on pricing.DefaultRates.
func (c PricingConfig) Rates() pricing.Rates {
	r := pricing.DefaultRates()
	r.Enabled = !c.Disabled
	if c.BaseRate != nil {
		r.BaseRate = *c.BaseRate
	}
	if c.PerKmRate != nil {
		r.PerKmRate = *c.PerKmRate
	}
	if c.WaitRate != nil {
		r.WaitRate = *c.WaitRate
	}
	if c.DriverCommission != nil {
		r.DriverCommission = *c.DriverCommission
	}
	if c.Currency != "" {
		r.Currency = strings.ToUpper(c.Currency)
	}
	return r
}

type DispatchConfig struct {
	MaxRecipients           int `json:"max_recipients"`
	Concurrency             int `json:"concurrency"`
	NotifyTimeoutSeconds    int `json:"notify_timeout_seconds"`
	RebroadcastAfterSeconds int `json:"rebroadcast_after_seconds"`
	TickSeconds             int `json:"tick_seconds"`
	BatchSize               int `json:"batch_size"`
	// PendingTTLSeconds expires unanswered requests; zero keeps them pending.
	PendingTTLSeconds int `json:"pending_ttl_seconds"`
	SweepSeconds      int `json:"sweep_seconds"`
}

func (c *DispatchConfig) SetDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
	if c.NotifyTimeoutSeconds <= 0 {
		c.NotifyTimeoutSeconds = 10
	}
	if c.TickSeconds <= 0 {
		c.TickSeconds = 15
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.SweepSeconds <= 0 {
		c.SweepSeconds = 30
	}
}

func (c DispatchConfig) Validate() error {
	if c.MaxRecipients < 0 || c.RebroadcastAfterSeconds < 0 || c.PendingTTLSeconds < 0 {
		return fmt.Errorf("%w: dispatch values must be non-negative", ErrInvalidConfig)
	}
	if c.PendingTTLSeconds > 0 && c.RebroadcastAfterSeconds >= c.PendingTTLSeconds {
		return fmt.Errorf("%w: dispatch.rebroadcast_after_seconds must be below pending_ttl_seconds", ErrInvalidConfig)
	}
	return nil
}

func (c DispatchConfig) NotifyTimeout() time.Duration {
	return time.Duration(c.NotifyTimeoutSeconds) * time.Second
}

func (c DispatchConfig) RebroadcastAfter() time.Duration {
	return time.Duration(c.RebroadcastAfterSeconds) * time.Second
}

func (c DispatchConfig) Tick() time.Duration {
	return time.Duration(c.TickSeconds) * time.Second
}

func (c DispatchConfig) PendingTTL() time.Duration {
	return time.Duration(c.PendingTTLSeconds) * time.Second
}

func (c DispatchConfig) Sweep() time.Duration {
	return time.Duration(c.SweepSeconds) * time.Second
}

// LookupConfig sets how far a world position may be from a stop or zone to resolve to it.
type LookupConfig struct {
	StopToleranceM float64 `json:"stop_tolerance_m"`
	ZoneToleranceM float64 `json:"zone_tolerance_m"`
}

type NotifyConfig struct {
	Websocket    bool   `json:"websocket"`
	FCM          bool   `json:"fcm"`
	AMQPURL      string `json:"amqp_url"`
	AMQPExchange string `json:"amqp_exchange"`
	AMQPAttempts int    `json:"amqp_attempts"`
}

func (c *NotifyConfig) SetDefaults() {
	if c.AMQPURL != "" && c.AMQPExchange == "" {
		c.AMQPExchange = "zonetaxi.offers"
	}
	if c.AMQPAttempts <= 0 {
		c.AMQPAttempts = 5
	}
}

// EventsConfig with no brokers disables the ride event stream.
type EventsConfig struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}

func (c *EventsConfig) SetDefaults() {
	// ZT_EVENTS__BROKERS arrives as one comma separated value.
	var brokers []string
	for _, b := range c.Brokers {
		for _, part := range strings.Split(b, ",") {
			if p := strings.TrimSpace(part); p != "" {
				brokers = append(brokers, p)
			}
		}
	}
	c.Brokers = brokers
	if len(c.Brokers) > 0 && c.Topic == "" {
		c.Topic = "ride-events"
	}
}

type LedgerConfig struct {
	// PlatformAccount receives the platform fee; empty keeps it with nobody.
	PlatformAccount string `json:"platform_account"`
	// StrictSettlement marks a trip failed instead of skipped on insufficient funds.
	StrictSettlement bool `json:"strict_settlement"`
}

type LoggingConfig struct {
	Level string `json:"level"`
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Load reads the optional file at path, applies ZT_ environment overrides
// (ZT_DISPATCH__TICK_SECONDS=5 sets dispatch.tick_seconds), then fills
// defaults and validates.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, "__", envKey), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if cfg.Catalog != "" && path != "" && !filepath.IsAbs(cfg.Catalog) {
		cfg.Catalog = filepath.Join(filepath.Dir(path), cfg.Catalog)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) SetDefaults() {
	c.HTTP.SetDefaults()
	c.Auth.SetDefaults()
	c.Dispatch.SetDefaults()
	c.Notify.SetDefaults()
	c.Events.SetDefaults()
	c.Logging.SetDefaults()
}

func (c Config) Validate() error {
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Pricing.Rates().Validate(); err != nil {
		return fmt.Errorf("%w: pricing: %v", ErrInvalidConfig, err)
	}
	if err := c.Dispatch.Validate(); err != nil {
		return err
	}
	if c.Lookup.StopToleranceM < 0 || c.Lookup.ZoneToleranceM < 0 {
		return fmt.Errorf("%w: lookup tolerances must be non-negative", ErrInvalidConfig)
	}
	return c.Logging.Validate()
}

func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
}
