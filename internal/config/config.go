package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yuzeguitarist/qrgen/internal/app"
	"github.com/yuzeguitarist/qrgen/internal/barcode"
	"github.com/yuzeguitarist/qrgen/internal/qr"
)

type Config struct {
	Listen        string `yaml:"listen" validate:"required,hostname_port"`
	LogLevel      string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	CSRFKey       string `yaml:"csrf_key,omitempty" validate:"omitempty,hexadecimal,len=64"`
	SessionKey    string `yaml:"session_key,omitempty" validate:"omitempty,hexadecimal,len=64"`
	SecureCookies bool   `yaml:"secure_cookies"`

	QR        QRConfig        `yaml:"qr"`
	Barcode   BarcodeConfig   `yaml:"barcode"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Auth      AuthConfig      `yaml:"auth"`
}

type QRConfig struct {
	Size   int    `yaml:"size" validate:"min=21,max=4096"`
	Margin int    `yaml:"margin" validate:"min=0,max=512"`
	Level  string `yaml:"level" validate:"omitempty,oneof=l low m medium q quartile h high highest"`
}

type BarcodeConfig struct {
	ModuleWidth int `yaml:"module_width" validate:"min=1,max=64"`
	Height      int `yaml:"height" validate:"min=1,max=4096"`
}

// RateLimitConfig is per client IP. RPS 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" validate:"min=0"`
	Burst int     `yaml:"burst" validate:"min=0"`
}

// AuthConfig enables HTTP basic auth when both fields are set.
type AuthConfig struct {
	Username       string `yaml:"username,omitempty"`
	PasswordBcrypt string `yaml:"password_bcrypt,omitempty"`
}

func (a AuthConfig) Enabled() bool { return a.Username != "" && a.PasswordBcrypt != "" }

func Default() *Config {
	return &Config{
		Listen:   "127.0.0.1:8080",
		LogLevel: "info",
		QR: QRConfig{
			Size:   300,
			Margin: 10,
			Level:  "high",
		},
		Barcode: BarcodeConfig{
			ModuleWidth: 2,
			Height:      100,
		},
		RateLimit: RateLimitConfig{Burst: 20},
	}
}

// Load reads path on top of the defaults, then applies .env and environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = app.ConfigPath
	}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("QRGEN_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("QRGEN_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("QRGEN_CSRF_KEY"); v != "" {
		c.CSRFKey = v
	}
	if v := os.Getenv("QRGEN_SESSION_KEY"); v != "" {
		c.SessionKey = v
	}
	if v := os.Getenv("QRGEN_SECURE_COOKIES"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("QRGEN_SECURE_COOKIES: %w", err)
		}
		c.SecureCookies = secure
	}
	return nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if (c.Auth.Username == "") != (c.Auth.PasswordBcrypt == "") {
		return fmt.Errorf("invalid config: auth.username and auth.password_bcrypt must be set together")
	}
	if !strings.HasPrefix(c.Auth.PasswordBcrypt, "$2") && c.Auth.PasswordBcrypt != "" {
		return fmt.Errorf("invalid config: auth.password_bcrypt is not a bcrypt hash")
	}
	return nil
}

// QROptions converts the qr section. Level was checked by Validate.
func (c *Config) QROptions() qr.Options {
	lvl, err := qr.ParseLevel(c.QR.Level)
	if err != nil {
		lvl = qr.DefaultOptions().Level
	}
	return qr.Options{Size: c.QR.Size, Margin: c.QR.Margin, Level: lvl}
}

func (c *Config) BarcodeOptions() barcode.Options {
	return barcode.Options{ModuleWidth: c.Barcode.ModuleWidth, Height: c.Barcode.Height}
}

// EnsureKeys fills empty cookie keys with random ones. Sessions and CSRF
// tokens then do not survive a restart.
func (c *Config) EnsureKeys() error {
	for _, k := range []*string{&c.CSRFKey, &c.SessionKey} {
		if *k != "" {
			continue
		}
		tok, err := app.RandToken(32)
		if err != nil {
			return err
		}
		*k = tok
	}
	return nil
}

// Marshal renders the config as YAML, for `qrgen config`.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
