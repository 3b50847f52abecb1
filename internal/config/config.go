package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// Config struct is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Capture  CaptureConfig  `mapstructure:"capture"`
	Tasks    TasksConfig    `mapstructure:"tasks"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	SessionSecret string `mapstructure:"session_secret"`
	SecureCookies bool   `mapstructure:"secure_cookies"`
	CSRF          bool   `mapstructure:"csrf"`
	// SessionRateLimit is the number of session issuances allowed per client IP per minute.
	SessionRateLimit uint `mapstructure:"session_rate_limit"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres or sqlite
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Path     string `mapstructure:"path"` // sqlite file
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		d.Host, d.User, d.Password, d.DBName, d.Port)
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// CaptureConfig tunes the event recorder.
type CaptureConfig struct {
	// MaxOutstandingWrites bounds concurrent store appends. 0 leaves them unbounded.
	MaxOutstandingWrites int `mapstructure:"max_outstanding_writes"`
	// IdleTimeout detaches screens that received no events for this long. 0 disables the sweep.
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// TasksConfig points at the task catalog. An empty path uses the built-in flow.
type TasksConfig struct {
	Catalog string `mapstructure:"catalog"`
}

var mu sync.RWMutex

// Current returns the active configuration. It is safe to call while a reload is in flight.
func Current() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return Conf
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "change-me-in-production")
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("server.csrf", true)
	v.SetDefault("server.session_rate_limit", 30)

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "keytrace")
	v.SetDefault("database.path", "data/keytrace.db")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	v.SetDefault("capture.max_outstanding_writes", 0)
	v.SetDefault("capture.idle_timeout", "30m")
	v.SetDefault("capture.sweep_interval", "1m")
	v.SetDefault("tasks.catalog", "")
}

func newViper(projectRoot string) *viper.Viper {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("KEYTRACE") // e.g., KEYTRACE_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func read(v *viper.Viper) (*Config, error) {
	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return &cfg, nil
}

// Load reads the configuration once without watching for changes.
func Load(projectRoot string) (*Config, error) {
	return read(newViper(projectRoot))
}

// Init loads the configuration into Conf and reloads it whenever the file changes.
func Init(projectRoot string, log *zap.Logger) error {
	v := newViper(projectRoot)

	cfg, err := read(v)
	if err != nil {
		return err
	}
	mu.Lock()
	Conf = cfg
	mu.Unlock()

	// Consumers that read Current() at use time, such as the idle sweep timeout, pick up a reload;
	// listeners and pools keep their startup values.
	if v.ConfigFileUsed() != "" {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
			var next Config
			if err := v.Unmarshal(&next); err != nil {
				log.Error("Error reloading configuration", zap.Error(err))
				return
			}
			mu.Lock()
			Conf = &next
			mu.Unlock()
		})
	}

	log.Info("Configuration loaded successfully", zap.String("file", v.ConfigFileUsed()))
	return nil
}
