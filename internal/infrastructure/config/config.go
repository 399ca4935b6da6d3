package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// minJWTSecretLength is the shortest accepted API signing secret.
const minJWTSecretLength = 32

// Config is the root configuration structure for the inventory node server.
// All configuration is loaded from YAML and can be overridden by environment variables.
//
// ISY credentials are not part of this file: they arrive from the Polyglot
// host as custom parameters (see package params).
type Config struct {
	Polyglot  PolyglotConfig  `yaml:"polyglot"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	ISY       ISYConfig       `yaml:"isy"`
	Polling   PollingConfig   `yaml:"polling"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Database  DatabaseConfig  `yaml:"database"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// PolyglotConfig identifies this node server to the Polyglot host.
type PolyglotConfig struct {
	// ProfileNum is the node server slot assigned by Polyglot.
	ProfileNum int `yaml:"profile_num"`

	// ControllerAddress is the node address of the controller node.
	ControllerAddress string `yaml:"controller_address"`

	// ControllerName is the display name used when the node is created.
	ControllerName string `yaml:"controller_name"`

	// NodeDefID is the profile node definition of the controller node.
	NodeDefID string `yaml:"node_def_id"`
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
}

// ISYConfig contains settings for requests to the ISY REST interface.
type ISYConfig struct {
	// Timeout bounds each REST request. A hung ISY is reported as unreachable.
	Timeout time.Duration `yaml:"timeout"`
}

// PollingConfig controls the local poll scheduler.
//
// Polyglot normally drives polling by sending shortPoll/longPoll events.
// The local scheduler is for hosts that do not.
type PollingConfig struct {
	Enabled       bool          `yaml:"enabled"`
	ShortInterval time.Duration `yaml:"short_interval"`
	LongInterval  time.Duration `yaml:"long_interval"`
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

// DatabaseConfig contains SQLite cycle history settings.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// Retention is how long cycle records are kept. Zero keeps everything.
	Retention time.Duration `yaml:"retention"`
}

// APIConfig contains the local status API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	Auth     APIAuthConfig    `yaml:"auth"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// APIAuthConfig controls bearer token checks on the status API.
type APIAuthConfig struct {
	// JWTSecret signs and verifies HS256 tokens. Empty disables auth.
	JWTSecret string `yaml:"jwt_secret"`
}

// WebSocketConfig contains settings for the cycle event stream.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
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
// Environment variables follow the pattern: ISYINV_SECTION_KEY
// For example: ISYINV_MQTT_HOST, ISYINV_PROFILE_NUM
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Polyglot: PolyglotConfig{
			ProfileNum:        1,
			ControllerAddress: "controller",
			ControllerName:    "ISY Inventory",
			NodeDefID:         "controller",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "isy-inventory",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		ISY: ISYConfig{
			Timeout: 10 * time.Second,
		},
		Polling: PollingConfig{
			Enabled:       false,
			ShortInterval: 60 * time.Second,
			LongInterval:  120 * time.Second,
		},
		Database: DatabaseConfig{
			Path:        "./data/inventory.db",
			WALMode:     true,
			BusyTimeout: 5,
			Retention:   30 * 24 * time.Hour,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8089,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ISYINV_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Polyglot passes the profile number to node servers it launches.
	if v := os.Getenv("ISYINV_PROFILE_NUM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Polyglot.ProfileNum = n
		}
	}

	// MQTT
	if v := os.Getenv("ISYINV_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ISYINV_MQTT_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = n
		}
	}
	if v := os.Getenv("ISYINV_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ISYINV_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("ISYINV_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Database
	if v := os.Getenv("ISYINV_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// API
	if v := os.Getenv("ISYINV_API_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = n
		}
	}
	if v := os.Getenv("ISYINV_API_JWT_SECRET"); v != "" {
		cfg.API.Auth.JWTSecret = v
	}

	if v := os.Getenv("ISYINV_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Polyglot.ProfileNum < 1 {
		errs = append(errs, "polyglot.profile_num must be positive")
	}
	if c.Polyglot.ControllerAddress == "" {
		errs = append(errs, "polyglot.controller_address is required")
	}

	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.ISY.Timeout <= 0 {
		errs = append(errs, "isy.timeout must be positive")
	}

	if c.Polling.Enabled {
		if c.Polling.ShortInterval <= 0 {
			errs = append(errs, "polling.short_interval must be positive")
		}
		// The heartbeat runs on a strictly slower timer than discovery.
		if c.Polling.LongInterval <= c.Polling.ShortInterval {
			errs = append(errs, "polling.long_interval must be greater than polling.short_interval")
		}
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when database is enabled")
	}
	if c.Database.Retention < 0 {
		errs = append(errs, "database.retention must not be negative")
	}

	if c.API.Enabled {
		if c.API.Port < 1 || c.API.Port > 65535 {
			errs = append(errs, "api.port must be between 1 and 65535")
		}
		if s := c.API.Auth.JWTSecret; s != "" && len(s) < minJWTSecretLength {
			errs = append(errs, fmt.Sprintf("api.auth.jwt_secret must be at least %d characters", minJWTSecretLength))
		}
		if c.WebSocket.PingInterval <= 0 || c.WebSocket.PongTimeout <= 0 {
			errs = append(errs, "websocket.ping_interval and websocket.pong_timeout must be positive")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
