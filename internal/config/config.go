package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Log struct {
		Level string
	}
	Database struct {
		Driver string
		Path   string
		MySQL  struct {
			Host         string
			Port         int
			User         string
			Password     string
			Name         string
			MaxOpenConns int
			MaxIdleConns int
		}
	}
	Auth struct {
		JWTSecret       string
		TokenTTLMinutes int
		RequireToken    bool
		BcryptCost      int
	}
	Storage struct {
		Bucket           string
		KeyPrefix        string
		Region           string
		Endpoint         string
		URLExpiryMinutes int
	}
	AWS struct {
		Profile string
	}
}

// Load reads configuration from environment variables and optional config files.
// Values from .env never override variables already present in the environment.
func Load() (Config, error) {
	_ = gotenv.Load() // optional file

	v := viper.New()
	v.SetEnvPrefix("TASKMGR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:3000")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/tasks.db")
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.user", "user")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.name", "db")
	v.SetDefault("database.mysql.maxopenconns", 10)
	v.SetDefault("database.mysql.maxidleconns", 5)
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttlminutes", 24*60)
	v.SetDefault("auth.requiretoken", false)
	v.SetDefault("auth.bcryptcost", 10)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "task-exports")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.urlexpiryminutes", 15)
	v.SetDefault("aws.profile", "")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if strings.TrimSpace(c.Database.Path) == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case "mysql":
		if strings.TrimSpace(c.Database.MySQL.Host) == "" || strings.TrimSpace(c.Database.MySQL.Name) == "" {
			return fmt.Errorf("mysql host and database name are required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Auth.RequireToken && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth jwt secret is required when tokens are enforced")
	}
	return nil
}
