package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/99designs/keyring"
	"github.com/BurntSushi/toml"
	"github.com/danmuck/fishbowl/internal/logging"
	"github.com/danmuck/fishbowl/internal/protocol/codec"
)

var ErrNoPassword = errors.New("config: no password configured")

type Config struct {
	Connect ConnectConfig `toml:"connect"`
	Log     LogConfig     `toml:"log"`
}

type ConnectConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	// PasswordEnv names an environment variable holding the password.
	PasswordEnv string `toml:"password_env"`
	// KeyringService names an OS keychain service; the item key is the
	// username.
	KeyringService string   `toml:"keyring_service"`
	Timeout        Duration `toml:"timeout"`
	LoginTimeout   Duration `toml:"login_timeout"`
	TaskName       string   `toml:"task_name"`
	Format         string   `toml:"format"`
	Retries        int      `toml:"retries"`
	RetryDelay     Duration `toml:"retry_delay"`
	// RetryMultiplier scales the delay after each failed attempt; 1 keeps
	// it fixed.
	RetryMultiplier float64  `toml:"retry_multiplier"`
	RetryMaxDelay   Duration `toml:"retry_max_delay"`
	RetryJitter     bool     `toml:"retry_jitter"`
	ChunkSize       int      `toml:"chunk_size"`
	// MaxPayloadBytes caps one response frame. The length prefix is 32 bits
	// so the cap can be raised to 4 GiB.
	MaxPayloadBytes int64  `toml:"max_payload_bytes"`
	Encoding        string `toml:"encoding"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Duration reads TOML strings such as "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// openKeyring is swapped out in tests.
var openKeyring = func(service string) (keyring.Keyring, error) {
	return keyring.Open(keyring.Config{ServiceName: service})
}

func Default() Config {
	return Config{
		Connect: ConnectConfig{
			Host:            "localhost",
			Port:            28192,
			Timeout:         Duration{5 * time.Second},
			LoginTimeout:    Duration{3 * time.Second},
			Format:          codec.FormatTree,
			Retries:         3,
			RetryDelay:      Duration{5 * time.Second},
			RetryMultiplier: 1,
			ChunkSize:       1024,
			MaxPayloadBytes: 16 * 1024 * 1024,
			Encoding:        "latin-1",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults, resolves the password and validates.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := loadToml(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.ResolvePassword(); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if _, err := toml.Decode(string(data), out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

// ResolvePassword fills an empty password from password_env, then from the
// keyring. A configured source that yields nothing is an error.
func (c *Config) ResolvePassword() error {
	conn := &c.Connect
	if conn.Password != "" {
		return nil
	}
	if env := strings.TrimSpace(conn.PasswordEnv); env != "" {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			conn.Password = v
			return nil
		}
		if conn.KeyringService == "" {
			return fmt.Errorf("%w: %s is unset", ErrNoPassword, env)
		}
	}
	if service := strings.TrimSpace(conn.KeyringService); service != "" {
		ring, err := openKeyring(service)
		if err != nil {
			return fmt.Errorf("config keyring open failed (%s): %w", service, err)
		}
		item, err := ring.Get(conn.Username)
		if err != nil {
			return fmt.Errorf("config keyring lookup failed (%s/%s): %w", service, conn.Username, err)
		}
		conn.Password = string(item.Data)
	}
	return nil
}

func Validate(cfg Config) error {
	conn := cfg.Connect
	if strings.TrimSpace(conn.Host) == "" {
		return fmt.Errorf("connect config missing host")
	}
	if conn.Port <= 0 || conn.Port > 65535 {
		return fmt.Errorf("connect config port out of range: %d", conn.Port)
	}
	if strings.TrimSpace(conn.Username) == "" {
		return fmt.Errorf("connect config missing username")
	}
	if _, err := codec.ForFormat(conn.Format); err != nil {
		return fmt.Errorf("connect config format: %w", err)
	}
	if _, err := charset(conn.Encoding); err != nil {
		return err
	}
	if conn.Retries < 0 {
		return fmt.Errorf("connect config retries must not be negative: %d", conn.Retries)
	}
	if conn.ChunkSize <= 0 {
		return fmt.Errorf("connect config chunk_size must be positive: %d", conn.ChunkSize)
	}
	if conn.RetryMultiplier < 1 {
		return fmt.Errorf("connect config retry_multiplier must be at least 1: %v", conn.RetryMultiplier)
	}
	if conn.MaxPayloadBytes <= 0 || conn.MaxPayloadBytes > math.MaxUint32 {
		return fmt.Errorf("connect config max_payload_bytes out of range: %d", conn.MaxPayloadBytes)
	}
	if conn.Timeout.Duration < 0 || conn.LoginTimeout.Duration < 0 || conn.RetryDelay.Duration < 0 || conn.RetryMaxDelay.Duration < 0 {
		return fmt.Errorf("connect config durations must not be negative")
	}
	if cfg.Log.Level != "" {
		if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
			return fmt.Errorf("log config unknown level: %s", cfg.Log.Level)
		}
	}
	return nil
}
