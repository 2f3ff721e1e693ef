package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Wallet   WalletConfig
	Pricing  PricingConfig
	Couriers CouriersConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
}

// WalletConfig holds wallet defaults applied at provisioning time
type WalletConfig struct {
	// DefaultCreditLimit is the overdraft floor granted to new wallets
	DefaultCreditLimit float64
}

// PricingConfig holds pricing engine settings
type PricingConfig struct {
	// CourierTimeout bounds each upstream rate lookup during booking
	CourierTimeout time.Duration
}

// CourierConfig holds one courier's API credentials and endpoint
type CourierConfig struct {
	Enabled bool
	BaseURL string
	// APIKey is the static token for token-header couriers
	APIKey string
	// Email and Password are login credentials for couriers issuing
	// short-lived bearer tokens
	Email    string
	Password string
	// ClientName identifies the account with couriers that require it
	ClientName string
	// PickupLocation is the courier-registered pickup location name
	PickupLocation string
	Timeout        time.Duration
}

// CouriersConfig holds per-courier adapter configuration
type CouriersConfig struct {
	Delhivery   CourierConfig
	Blitz       CourierConfig
	Ekart       CourierConfig
	Xpressbees  CourierConfig
	Innofulfill CourierConfig
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SHIPSTACK_ prefix (e.g., SHIPSTACK_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("SHIPSTACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Wallet: WalletConfig{
			DefaultCreditLimit: v.GetFloat64("wallet.default_credit_limit"),
		},
		Pricing: PricingConfig{
			CourierTimeout: v.GetDuration("pricing.courier_timeout"),
		},
		Couriers: CouriersConfig{
			Delhivery:   courierSection(v, "couriers.delhivery"),
			Blitz:       courierSection(v, "couriers.blitz"),
			Ekart:       courierSection(v, "couriers.ekart"),
			Xpressbees:  courierSection(v, "couriers.xpressbees"),
			Innofulfill: courierSection(v, "couriers.innofulfill"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func courierSection(v *viper.Viper, prefix string) CourierConfig {
	return CourierConfig{
		Enabled:        v.GetBool(prefix + ".enabled"),
		BaseURL:        v.GetString(prefix + ".base_url"),
		APIKey:         v.GetString(prefix + ".api_key"),
		Email:          v.GetString(prefix + ".email"),
		Password:       v.GetString(prefix + ".password"),
		ClientName:     v.GetString(prefix + ".client_name"),
		PickupLocation: v.GetString(prefix + ".pickup_location"),
		Timeout:        v.GetDuration(prefix + ".timeout"),
	}
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "shipstack-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "shipstack"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Pricing.CourierTimeout == 0 {
		cfg.Pricing.CourierTimeout = 10 * time.Second
	}
	for _, c := range []*CourierConfig{
		&cfg.Couriers.Delhivery,
		&cfg.Couriers.Blitz,
		&cfg.Couriers.Ekart,
		&cfg.Couriers.Xpressbees,
		&cfg.Couriers.Innofulfill,
	} {
		if c.Timeout == 0 {
			c.Timeout = 30 * time.Second
		}
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Wallet.DefaultCreditLimit < 0 {
		return fmt.Errorf("wallet.default_credit_limit cannot be negative")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	named := map[string]CourierConfig{
		"delhivery":   c.Couriers.Delhivery,
		"blitz":       c.Couriers.Blitz,
		"ekart":       c.Couriers.Ekart,
		"xpressbees":  c.Couriers.Xpressbees,
		"innofulfill": c.Couriers.Innofulfill,
	}
	for name, cc := range named {
		if !cc.Enabled {
			continue
		}
		if cc.BaseURL == "" {
			return fmt.Errorf("couriers.%s.base_url is required when enabled", name)
		}
		if _, err := url.Parse(cc.BaseURL); err != nil {
			return fmt.Errorf("couriers.%s.base_url is invalid: %w", name, err)
		}
		switch name {
		case "blitz", "xpressbees":
			if cc.Email == "" || cc.Password == "" {
				return fmt.Errorf("couriers.%s requires email and password when enabled", name)
			}
		default:
			if cc.APIKey == "" {
				return fmt.Errorf("couriers.%s.api_key is required when enabled", name)
			}
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
