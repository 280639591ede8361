package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// FirebaseConfig points the dashboard at a realtime database.
type FirebaseConfig struct {
	// DatabaseURL is the root URL of the database,
	// e.g. https://my-shop-default-rtdb.firebaseio.com.
	DatabaseURL string `mapstructure:"database_url" yaml:"database_url"`

	// AuthCredential is the keyring key holding the database secret or
	// ID token. Empty secrets are allowed for public databases.
	AuthCredential string `mapstructure:"auth_credential" yaml:"auth_credential"`
}

// BusinessConfig is the shop identity printed at the top of receipts.
type BusinessConfig struct {
	Name         string   `mapstructure:"name" yaml:"name"`
	AddressLines []string `mapstructure:"address_lines" yaml:"address_lines"`
	Phone        string   `mapstructure:"phone" yaml:"phone"`
}

// S3Config configures the optional receipt archive bucket.
type S3Config struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	Bucket      string `mapstructure:"bucket" yaml:"bucket"`
	Prefix      string `mapstructure:"prefix" yaml:"prefix"`
	Region      string `mapstructure:"region" yaml:"region"`
	Endpoint    string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKeyID string `mapstructure:"access_key_id" yaml:"access_key_id"`
	PathStyle   bool   `mapstructure:"path_style" yaml:"path_style"`
}

// DraftsConfig configures the optional IMAP mailbox that receives a draft
// email with the receipt attached.
type DraftsConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Mailbox  string `mapstructure:"mailbox" yaml:"mailbox"`
	From     string `mapstructure:"from" yaml:"from"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
}

// ReceiptConfig holds receipt rendering and delivery settings.
type ReceiptConfig struct {
	// Dir is where exported receipts are written.
	Dir      string         `mapstructure:"dir" yaml:"dir"`
	Business BusinessConfig `mapstructure:"business" yaml:"business"`
	S3       S3Config       `mapstructure:"s3" yaml:"s3"`
	Drafts   DraftsConfig   `mapstructure:"drafts" yaml:"drafts"`
}

// DisplayConfig holds UI preferences.
type DisplayConfig struct {
	ToastTimeoutSec   int `mapstructure:"toast_timeout_sec" yaml:"toast_timeout_sec"`
	NotificationLimit int `mapstructure:"notification_limit" yaml:"notification_limit"`
}

// ToastTimeout returns the toast lifetime as a duration.
func (d DisplayConfig) ToastTimeout() time.Duration {
	if d.ToastTimeoutSec <= 0 {
		return 8 * time.Second
	}
	return time.Duration(d.ToastTimeoutSec) * time.Second
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address, e.g. "127.0.0.1:9464". Empty disables it.
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Firebase  FirebaseConfig `mapstructure:"firebase" yaml:"firebase"`
	Receipt   ReceiptConfig  `mapstructure:"receipt" yaml:"receipt"`
	Display   DisplayConfig  `mapstructure:"display" yaml:"display"`
	Metrics   MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	StorePath string         `mapstructure:"store_path" yaml:"store_path"`
}

// ConfigDir returns ~/.config/orderdash, or "." when the home directory
// cannot be determined.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "orderdash")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

func defaultReceiptDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

func defaultBusiness() BusinessConfig {
	return BusinessConfig{
		Name: "MAHITHRAA SRI CRACKERS",
		AddressLines: []string{
			"Vanamoorthilingapuram,",
			"Madathupatti, Sivakasi - 626123",
		},
		Phone: "+919080533427 & +918110087349",
	}
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Firebase: FirebaseConfig{
			AuthCredential: "firebase-auth",
		},
		Receipt: ReceiptConfig{
			Dir:      defaultReceiptDir(),
			Business: defaultBusiness(),
			S3: S3Config{
				Prefix: "receipts/",
			},
			Drafts: DraftsConfig{
				Port:    "993",
				Mailbox: "Drafts",
				TLS:     true,
			},
		},
		Display: DisplayConfig{
			ToastTimeoutSec:   8,
			NotificationLimit: 10,
		},
		StorePath: filepath.Join(ConfigDir(), "orderdash.db"),
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns the default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	def := DefaultAppConfig()
	v.SetDefault("firebase.auth_credential", def.Firebase.AuthCredential)
	v.SetDefault("receipt.dir", def.Receipt.Dir)
	v.SetDefault("receipt.business.name", def.Receipt.Business.Name)
	v.SetDefault("receipt.business.address_lines", def.Receipt.Business.AddressLines)
	v.SetDefault("receipt.business.phone", def.Receipt.Business.Phone)
	v.SetDefault("receipt.s3.prefix", def.Receipt.S3.Prefix)
	v.SetDefault("receipt.drafts.port", def.Receipt.Drafts.Port)
	v.SetDefault("receipt.drafts.mailbox", def.Receipt.Drafts.Mailbox)
	v.SetDefault("receipt.drafts.tls", def.Receipt.Drafts.TLS)
	v.SetDefault("display.toast_timeout_sec", def.Display.ToastTimeoutSec)
	v.SetDefault("display.notification_limit", def.Display.NotificationLimit)
	v.SetDefault("store_path", def.StorePath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return def, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("firebase", cfg.Firebase)
	v.Set("receipt", cfg.Receipt)
	v.Set("display", cfg.Display)
	v.Set("metrics", cfg.Metrics)
	v.Set("store_path", cfg.StorePath)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
