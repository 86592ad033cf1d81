package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the catpoint binaries.
type Config struct {
	// ServerAddress is the gRPC address the server listens on and clients dial.
	ServerAddress string `yaml:"server_addr"`
	// Timeout bounds network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum level written to the log.
	LogLevel string `yaml:"log_level"`
	// Store selects and configures the state backend.
	Store StoreConfig `yaml:"store"`
	// Classifier selects and configures the image classifier.
	Classifier ClassifierConfig `yaml:"classifier"`
	// MQTT configures the optional MQTT bridge.
	MQTT MQTTConfig `yaml:"mqtt"`
}

// StoreConfig selects the state backend.
type StoreConfig struct {
	// Driver is one of memory, file, redis, postgres.
	Driver string `yaml:"driver"`
	// File is the JSON state file used by the file driver.
	File string `yaml:"file"`
	// Redis configures the redis driver.
	Redis RedisConfig `yaml:"redis"`
	// Postgres configures the postgres driver.
	Postgres PostgresConfig `yaml:"postgres"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	// Addr is the host:port of the Redis server.
	Addr string `yaml:"addr"`
	// Password authenticates the connection, if set.
	Password string `yaml:"password"`
	// DB is the database index.
	DB int `yaml:"db"`
	// KeyPrefix namespaces every key.
	KeyPrefix string `yaml:"key_prefix"`
}

// PostgresConfig holds the PostgreSQL connection settings.
type PostgresConfig struct {
	// DSN is the lib/pq connection string.
	DSN string `yaml:"dsn"`
	// Migrate creates the tables on startup.
	Migrate bool `yaml:"migrate"`
}

// ClassifierConfig selects the image classifier.
type ClassifierConfig struct {
	// Driver is fake or remote.
	Driver string `yaml:"driver"`
	// Seed makes the fake classifier reproducible.
	Seed uint64 `yaml:"seed"`
	// Endpoint is the detection URL of the remote classifier.
	Endpoint string `yaml:"endpoint"`
	// Timeout bounds one remote detection request.
	Timeout time.Duration `yaml:"timeout"`
	// RetryCount is the number of retries of a failed remote request.
	RetryCount int `yaml:"retry_count"`
}

// MQTTConfig configures the MQTT bridge.
type MQTTConfig struct {
	// Enabled turns the bridge on.
	Enabled bool `yaml:"enabled"`
	// Broker is the broker URL, e.g. tcp://127.0.0.1:1883.
	Broker string `yaml:"broker"`
	// ClientID identifies the connection.
	ClientID string `yaml:"client_id"`
	// Username authenticates the connection, if set.
	Username string `yaml:"username"`
	// Password authenticates the connection, if set.
	Password string `yaml:"password"`
	// Prefix is the root of every topic.
	Prefix string `yaml:"prefix"`
	// QOS is the quality of service used for subscriptions and publications.
	QOS byte `yaml:"qos"`
	// Retain marks status publications as retained.
	Retain bool `yaml:"retain"`
}

// Store drivers.
const (
	StoreDriverMemory   = "memory"
	StoreDriverFile     = "file"
	StoreDriverRedis    = "redis"
	StoreDriverPostgres = "postgres"
)

// Classifier drivers.
const (
	ClassifierDriverFake   = "fake"
	ClassifierDriverRemote = "remote"
)

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "catpoint-settings.yaml"

	// DefaultStateFilename is the default filename for the JSON state.
	DefaultStateFilename = "catpoint-state.json"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultMQTTPrefix is the default root of MQTT topics.
	DefaultMQTTPrefix = "catpoint"

	// DefaultMQTTClientID is the default MQTT client identifier.
	DefaultMQTTClientID = "catpoint-server"

	// DefaultFilePermissions is the permission of files written by the binaries.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when the server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// ErrInvalidSetting is returned for values that cannot be used.
	ErrInvalidSetting = errors.New("invalid setting")
)

// Load reads configuration from the provided path, applies defaults and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields, fills defaults in place and rejects unusable values.
//
//nolint:cyclop // One flat list of checks reads better than several helpers.
func Validate(cfg *Config) error {
	if cfg.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if err := validateStore(&cfg.Store); err != nil {
		return err
	}

	if err := validateClassifier(&cfg.Classifier, cfg.Timeout); err != nil {
		return err
	}

	return validateMQTT(&cfg.MQTT)
}

func validateStore(store *StoreConfig) error {
	store.Driver = strings.ToLower(strings.TrimSpace(store.Driver))
	if store.Driver == "" {
		store.Driver = StoreDriverFile
	}

	switch store.Driver {
	case StoreDriverMemory:
	case StoreDriverFile:
		if store.File == "" {
			store.File = DefaultStateFilename
		}
	case StoreDriverRedis:
		if store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required: %w", ErrInvalidSetting)
		}
	case StoreDriverPostgres:
		if store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn is required: %w", ErrInvalidSetting)
		}
	default:
		return fmt.Errorf("store.driver %q: %w", store.Driver, ErrInvalidSetting)
	}

	return nil
}

func validateClassifier(classifier *ClassifierConfig, timeout time.Duration) error {
	classifier.Driver = strings.ToLower(strings.TrimSpace(classifier.Driver))
	if classifier.Driver == "" {
		classifier.Driver = ClassifierDriverFake
	}

	switch classifier.Driver {
	case ClassifierDriverFake:
		return nil
	case ClassifierDriverRemote:
		if _, err := url.ParseRequestURI(classifier.Endpoint); err != nil {
			return fmt.Errorf("invalid classifier endpoint: %w", err)
		}

		if classifier.Timeout <= 0 {
			classifier.Timeout = timeout
		}

		if classifier.RetryCount < 0 {
			return fmt.Errorf("classifier.retry_count %d: %w", classifier.RetryCount, ErrInvalidSetting)
		}

		return nil
	default:
		return fmt.Errorf("classifier.driver %q: %w", classifier.Driver, ErrInvalidSetting)
	}
}

func validateMQTT(mqtt *MQTTConfig) error {
	if !mqtt.Enabled {
		return nil
	}

	if _, err := url.ParseRequestURI(mqtt.Broker); err != nil {
		return fmt.Errorf("invalid mqtt broker: %w", err)
	}

	if mqtt.QOS > 2 {
		return fmt.Errorf("mqtt.qos %d: %w", mqtt.QOS, ErrInvalidSetting)
	}

	if mqtt.Prefix == "" {
		mqtt.Prefix = DefaultMQTTPrefix
	}

	mqtt.Prefix = strings.TrimSuffix(mqtt.Prefix, "/")

	if mqtt.ClientID == "" {
		mqtt.ClientID = DefaultMQTTClientID
	}

	return nil
}
