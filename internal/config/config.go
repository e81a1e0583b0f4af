package config

import (
	"net"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// Config carries the runtime-tunable knobs: addresses, paths and keys.
// Probe timeout, tick interval and downsampling thresholds are fixed
// constants in their packages, not configuration.
type Config struct {
	Addr           string `mapstructure:"addr"`
	LogDir         string `mapstructure:"log_dir"`
	DatabasePath   string `mapstructure:"database_path"`
	PublicAPIKeys  string `mapstructure:"public_api_keys"`
	AdminAPIKeys   string `mapstructure:"admin_api_keys"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
	PublicRPM      int    `mapstructure:"public_rpm"`
	PublicBurst    int    `mapstructure:"public_burst"`
	AdminRPM       int    `mapstructure:"admin_rpm"`
	AdminBurst     int    `mapstructure:"admin_burst"`
	Debug          bool   `mapstructure:"debug"`
}

// Load reads config.yaml if present, then the environment (ADDR, LOG_DIR,
// DATABASE_PATH, PUBLIC_API_KEYS, ADMIN_API_KEYS, ALLOWED_ORIGINS, ...).
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("addr", "127.0.0.1:8080")
	v.SetDefault("log_dir", "logs")
	v.SetDefault("database_path", "craftwatch.db")
	v.SetDefault("public_api_keys", "")
	v.SetDefault("admin_api_keys", "")
	v.SetDefault("allowed_origins", "")
	v.SetDefault("public_rpm", 240)
	v.SetDefault("public_burst", 60)
	v.SetDefault("admin_rpm", 60)
	v.SetDefault("admin_burst", 20)
	v.SetDefault("debug", false)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// DATABASE_PATH= (set but empty) selects the in-memory store, so empty
	// env values must override defaults rather than be ignored.
	v.AllowEmptyEnv(true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// no config file: defaults plus environment
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required, validation.By(validateHostPort)),
		validation.Field(&c.LogDir, validation.Required),
		validation.Field(&c.PublicRPM, validation.Min(0)),
		validation.Field(&c.AdminRPM, validation.Min(0)),
	)
}

func validateHostPort(value interface{}) error {
	s, _ := value.(string)
	if _, _, err := net.SplitHostPort(s); err != nil {
		return validation.NewError("validation_host_port", "must be host:port or :port")
	}
	return nil
}

// splitList turns a comma-separated env value into trimmed entries.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) PublicKeys() []string { return splitList(c.PublicAPIKeys) }
func (c *Config) AdminKeys() []string  { return splitList(c.AdminAPIKeys) }
func (c *Config) Origins() []string    { return splitList(c.AllowedOrigins) }
