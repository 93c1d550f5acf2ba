package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/seijikohara/db-tester-sub006/pkg/compare"
	"github.com/seijikohara/db-tester-sub006/pkg/dbaccess"
	"github.com/seijikohara/db-tester-sub006/pkg/delimited"
	"github.com/seijikohara/db-tester-sub006/pkg/operation"
	"github.com/seijikohara/db-tester-sub006/pkg/ordering"
)

// DefaultConnection is the configuration spelling of the connection that
// serves lookups with an empty name.
const DefaultConnection = "default"

// ConnectionConfig describes one database connection.
type ConnectionConfig struct {
	// Driver selects the dialect, "sqlite" or "postgres".
	Driver string `yaml:"driver"`

	// DSN is the driver-specific connection string.
	DSN string `yaml:"dsn"`
}

// Config is the engine configuration, typically loaded from dbtester.yaml.
type Config struct {
	// Connections maps logical names to databases. The name "default"
	// also serves lookups with an empty connection name.
	Connections map[string]ConnectionConfig `yaml:"connections"`

	// Fixtures is the fixture root directory.
	Fixtures string `yaml:"fixtures"`

	// Format selects the fixture file format, "csv" or "tsv".
	Format string `yaml:"format"`

	// Operation is the default preparation operation.
	Operation string `yaml:"operation"`

	// Ordering is the table ordering strategy.
	Ordering string `yaml:"ordering"`

	// SkipTables lists fixture base names that are never read.
	SkipTables []string `yaml:"skip_tables"`

	// Exclusions maps table names to columns skipped during comparison.
	Exclusions map[string][]string `yaml:"exclusions"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads and validates a configuration file. Unknown fields are
// rejected so typos fail loudly.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Fixtures == "" {
		c.Fixtures = "testdata/fixtures"
	}
	if c.Format == "" {
		c.Format = "csv"
	}
	if c.Operation == "" {
		c.Operation = "CLEAN_INSERT"
	}
	if c.Ordering == "" {
		c.Ordering = "AUTO"
	}
}

func (c *Config) validate() error {
	if _, err := delimited.FormatNamed(c.Format); err != nil {
		return err
	}
	if _, err := operation.Parse(c.Operation); err != nil {
		return err
	}
	if _, err := ordering.ParseStrategy(c.Ordering); err != nil {
		return err
	}
	for name, conn := range c.Connections {
		if conn.Driver == "" {
			return fmt.Errorf("connection %q: driver is required", name)
		}
		if conn.DSN == "" {
			return fmt.Errorf("connection %q: dsn is required", name)
		}
		if _, err := dbaccess.DialectNamed(conn.Driver); err != nil {
			return fmt.Errorf("connection %q: %w", name, err)
		}
	}
	return nil
}

// OpenConnections opens every configured connection into a fresh registry.
// The connection named "default" is registered under the empty name.
func (c *Config) OpenConnections(ctx context.Context) (*dbaccess.Registry, error) {
	reg := dbaccess.NewRegistry()
	names := make([]string, 0, len(c.Connections))
	for name := range c.Connections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		conn := c.Connections[name]
		h, err := dbaccess.Open(ctx, conn.Driver, conn.DSN)
		if err != nil {
			reg.Close()
			return nil, fmt.Errorf("open connection %q: %w", name, err)
		}
		key := name
		if name == DefaultConnection {
			key = ""
		}
		if err := reg.Register(key, h); err != nil {
			h.Close()
			reg.Close()
			return nil, err
		}
	}
	return reg, nil
}

// Comparator builds a comparator honoring the configured column
// exclusions.
func (c *Config) Comparator() *compare.Comparator {
	opts := make([]compare.Option, 0, len(c.Exclusions))
	for table, columns := range c.Exclusions {
		opts = append(opts, compare.WithExcludedColumns(table, columns...))
	}
	return compare.New(opts...)
}
