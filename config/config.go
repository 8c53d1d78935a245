package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Role selects which parts of the process run.
type Role string

const (
	RoleServer    Role = "server"
	RoleScheduler Role = "scheduler"
	RoleBoth      Role = "both"
)

const (
	defaultHTTPAddr             = ":3000"
	defaultSnapshotDir          = "./wal/snapshots"
	defaultUsersFile            = "./users.yml"
	defaultPriceRefreshInterval = 25 * time.Second
	defaultSnapshotInterval     = 60 * time.Second
)

// Config is the full process configuration.
type Config struct {
	Role                 Role
	HTTPAddr             string
	SnapshotDir          string
	UsersFile            string
	PriceRefreshInterval time.Duration
	SnapshotInterval     time.Duration
	APIKey               string
	APISecret            string
}

type configYaml struct {
	Role                 string        `yaml:"role"`
	HTTPAddr             string        `yaml:"http_addr"`
	SnapshotDir          string        `yaml:"snapshot_dir"`
	UsersFile            string        `yaml:"users_file"`
	PriceRefreshInterval time.Duration `yaml:"price_refresh_interval"`
	SnapshotInterval     time.Duration `yaml:"snapshot_interval"`
	APIKey               string        `yaml:"binance_api_key"`
	APISecret            string        `yaml:"binance_api_secret"`
}

// Get reads the yaml config selected by the -config flag, fills defaults
// and applies environment overrides for the global API credentials
// (GLOBAL_BINANCE_API_KEY / GLOBAL_BINANCE_API_SECRET).
func Get() (Config, error) {
	path := flag.String("config", "", "path to yaml config")
	flag.Parse()

	var raw configYaml
	if *path != "" {
		data, err := os.ReadFile(*path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", *path, err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", *path, err)
		}
	}

	cfg := Config{
		Role:                 RoleBoth,
		HTTPAddr:             defaultHTTPAddr,
		SnapshotDir:          defaultSnapshotDir,
		UsersFile:            defaultUsersFile,
		PriceRefreshInterval: defaultPriceRefreshInterval,
		SnapshotInterval:     defaultSnapshotInterval,
		APIKey:               raw.APIKey,
		APISecret:            raw.APISecret,
	}

	if raw.Role != "" {
		switch Role(raw.Role) {
		case RoleServer, RoleScheduler, RoleBoth:
			cfg.Role = Role(raw.Role)
		default:
			return Config{}, fmt.Errorf("invalid 'role' in config: %s (want server, scheduler or both)", raw.Role)
		}
	}
	if raw.HTTPAddr != "" {
		cfg.HTTPAddr = raw.HTTPAddr
	}
	if raw.SnapshotDir != "" {
		cfg.SnapshotDir = raw.SnapshotDir
	}
	if raw.UsersFile != "" {
		cfg.UsersFile = raw.UsersFile
	}
	if raw.PriceRefreshInterval > 0 {
		cfg.PriceRefreshInterval = raw.PriceRefreshInterval
	}
	if raw.SnapshotInterval > 0 {
		cfg.SnapshotInterval = raw.SnapshotInterval
	}

	if key := os.Getenv("GLOBAL_BINANCE_API_KEY"); key != "" {
		cfg.APIKey = key
	}
	if secret := os.Getenv("GLOBAL_BINANCE_API_SECRET"); secret != "" {
		cfg.APISecret = secret
	}

	if cfg.Role != RoleServer && cfg.APIKey == "" {
		return Config{}, fmt.Errorf("global binance api key is not set")
	}

	return cfg, nil
}
