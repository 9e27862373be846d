package config

import (
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration, shared by the server and the
// radar CLI. A missing file yields defaults; environment variables override
// file values.
type Config struct {
	Addr        string `yaml:"addr"`
	DatabaseURL string `yaml:"database_url"`
	RemoteURL   string `yaml:"remote_url"` // backend base URL used by the CLI; empty means local-only
	CacheDir    string `yaml:"cache_dir"`
	AdminSecret string `yaml:"admin_secret"`
	LogLevel    string `yaml:"log_level"`

	CORSOrigins []string `yaml:"cors_origins"`
}

func defaults() Config {
	return Config{
		Addr:     ":8081",
		LogLevel: "info",
	}
}

// Load reads the yaml config at path, falling back to defaults when path is
// empty or the file does not exist, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv("RADAR_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)

	if cfg.CacheDir == "" {
		home, err := homedir.Dir()
		if err == nil {
			cfg.CacheDir = filepath.Join(home, ".opportunity-radar")
		} else {
			cfg.CacheDir = ".opportunity-radar"
		}
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RADAR_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("RADAR_REMOTE_URL"); v != "" {
		cfg.RemoteURL = v
	}
	if v := os.Getenv("RADAR_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("ADMIN_SECRET"); v != "" {
		cfg.AdminSecret = strings.TrimSpace(v)
	}
	if v := os.Getenv("RADAR_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}
}
