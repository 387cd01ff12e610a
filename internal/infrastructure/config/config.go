package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the microgrid agent.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Agent    AgentConfig    `yaml:"agent"`
	Devices  DevicesConfig  `yaml:"devices"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Database DatabaseConfig `yaml:"database"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AgentConfig contains the identity and control-loop settings of this node.
type AgentConfig struct {
	// UUID is the stable identity of this node in the group.
	// If empty, a random UUID is generated at startup.
	UUID string `yaml:"uuid"`

	// TickPeriod is the number of seconds between load-manage iterations.
	TickPeriod int `yaml:"tick_period"`

	// GatewayDeviceID names the grid-link device whose signed power level
	// indicates whether the node is donating (positive) or receiving (negative).
	GatewayDeviceID string `yaml:"gateway_device_id"`

	// UnitScale is the multiplier applied to raw device readings to yield kW.
	UnitScale float64 `yaml:"unit_scale"`

	// StateCollection enables the peer load-status poller.
	StateCollection StateCollectionConfig `yaml:"state_collection"`
}

// StateCollectionConfig contains settings for the peer load-status poller.
type StateCollectionConfig struct {
	Enabled bool `yaml:"enabled"`

	// Interval is the number of seconds between load-status sweeps.
	Interval int `yaml:"interval"`
}

// DevicesConfig describes the simulated physical devices attached to this node.
type DevicesConfig struct {
	Simulated []SimDeviceConfig `yaml:"simulated"`
}

// SimDeviceConfig declares a single simulator-backed device.
type SimDeviceConfig struct {
	ID string `yaml:"id"`

	// Type is one of: drer, desd, load, dg, grid.
	Type string `yaml:"type"`

	// Power is the initial raw power reading (pre unit_scale).
	Power float64 `yaml:"power"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: MICROGRID_SECTION_KEY
// For example: MICROGRID_DATABASE_PATH, MICROGRID_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default timing constants.
const (
	// defaultTickPeriod is the canonical LOAD_TIMEOUT between control-loop ticks.
	defaultTickPeriod = 5

	// defaultStateCollectionInterval is the period between peer load-status sweeps.
	defaultStateCollectionInterval = 30

	// defaultUnitScale converts raw simulator readings to kW.
	defaultUnitScale = 1000
)

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			TickPeriod:      defaultTickPeriod,
			GatewayDeviceID: "grid3",
			UnitScale:       defaultUnitScale,
			StateCollection: StateCollectionConfig{
				Enabled:  false,
				Interval: defaultStateCollectionInterval,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/microgrid.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "microgrid-agent",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: MICROGRID_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Agent
	if v := os.Getenv("MICROGRID_AGENT_UUID"); v != "" {
		cfg.Agent.UUID = v
	}
	if v := os.Getenv("MICROGRID_AGENT_TICK_PERIOD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Agent.TickPeriod = n
		}
	}
	if v := os.Getenv("MICROGRID_AGENT_GATEWAY_DEVICE"); v != "" {
		cfg.Agent.GatewayDeviceID = v
	}

	// Database
	if v := os.Getenv("MICROGRID_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("MICROGRID_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MICROGRID_MQTT_CLIENT_ID"); v != "" {
		cfg.MQTT.Broker.ClientID = v
	}
	if v := os.Getenv("MICROGRID_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MICROGRID_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("MICROGRID_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// validDeviceTypes lists the accepted device type strings in config.
var validDeviceTypes = map[string]bool{
	"drer": true,
	"desd": true,
	"load": true,
	"dg":   true,
	"grid": true,
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Agent validation
	if c.Agent.TickPeriod < 1 {
		errs = append(errs, "agent.tick_period must be at least 1 second")
	}
	if c.Agent.GatewayDeviceID == "" {
		errs = append(errs, "agent.gateway_device_id is required")
	}
	if c.Agent.UnitScale <= 0 {
		errs = append(errs, "agent.unit_scale must be positive")
	}
	if c.Agent.StateCollection.Enabled && c.Agent.StateCollection.Interval < 1 {
		errs = append(errs, "agent.state_collection.interval must be at least 1 second")
	}

	// Device roster validation
	seen := make(map[string]bool, len(c.Devices.Simulated))
	for _, d := range c.Devices.Simulated {
		if d.ID == "" {
			errs = append(errs, "devices.simulated entries require an id")
			continue
		}
		if seen[d.ID] {
			errs = append(errs, fmt.Sprintf("devices.simulated id %q is duplicated", d.ID))
		}
		seen[d.ID] = true
		if !validDeviceTypes[strings.ToLower(d.Type)] {
			errs = append(errs, fmt.Sprintf("devices.simulated id %q has unknown type %q", d.ID, d.Type))
		}
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetTickPeriod returns the control-loop tick period as a Duration.
func (c *Config) GetTickPeriod() time.Duration {
	return time.Duration(c.Agent.TickPeriod) * time.Second
}

// GetStateCollectionInterval returns the load-status sweep interval as a Duration.
func (c *Config) GetStateCollectionInterval() time.Duration {
	return time.Duration(c.Agent.StateCollection.Interval) * time.Second
}
