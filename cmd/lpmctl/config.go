package main

import (
	"fmt"
	"net/netip"
	"os"

	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/lpm"
	"github.com/yanet-platform/lpm/discovery"
	"github.com/yanet-platform/lpm/logging"
	"go.uber.org/zap"
)

// Config is the lpmctl configuration file.
type Config struct {
	// Logging configures the process logger.
	Logging logging.Config `yaml:"logging"`
	// MemLimit caps the memory each table may spend on trie structures.
	// Zero means unlimited.
	MemLimit datasize.ByteSize `yaml:"mem_limit"`
	// Tables describes the tables to build and their static routes.
	Tables []TableConfig `yaml:"tables"`
}

type TableConfig struct {
	Name   string        `yaml:"name"`
	Routes []StaticRoute `yaml:"routes"`
	// DefaultRoute, when set, promotes the payload stored at this prefix
	// into the table's default slot.
	DefaultRoute netip.Prefix `yaml:"default_route"`
}

type StaticRoute struct {
	Prefix  netip.Prefix `yaml:"prefix"`
	Nexthop netip.Addr   `yaml:"nexthop"`
	Link    int          `yaml:"link"`
	Metric  int          `yaml:"metric"`
}

func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig parses the YAML configuration at the given path.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// buildTables constructs and registers a table per config entry, filled
// with its static routes.
func buildTables(cfg *Config, log *zap.SugaredLogger) (*lpm.Registry[discovery.Nexthop], error) {
	registry := lpm.NewRegistry[discovery.Nexthop]()

	for _, tc := range cfg.Tables {
		opts := []lpm.Option{lpm.WithLog(log)}
		if cfg.MemLimit > 0 {
			opts = append(opts, lpm.WithMemLimit(cfg.MemLimit))
		}

		table, err := lpm.New[discovery.Nexthop](tc.Name, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create table %q: %w", tc.Name, err)
		}

		for _, route := range tc.Routes {
			nh := discovery.Nexthop{
				Gateway:   route.Nexthop,
				LinkIndex: route.Link,
				Priority:  route.Metric,
			}
			if err := table.AddPrefix(route.Prefix, nh); err != nil {
				return nil, fmt.Errorf("failed to add %s to table %q: %w", route.Prefix, tc.Name, err)
			}
		}

		if tc.DefaultRoute.IsValid() {
			if err := table.UpdateDefaultPrefix(tc.DefaultRoute); err != nil {
				return nil, fmt.Errorf("failed to promote default %s in table %q: %w",
					tc.DefaultRoute, tc.Name, err)
			}
		}

		if err := registry.Register(table); err != nil {
			return nil, fmt.Errorf("failed to register table %q: %w", tc.Name, err)
		}

		log.Infof("built table %q with %d static routes", tc.Name, len(tc.Routes))
	}

	return registry, nil
}
