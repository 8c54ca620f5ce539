package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	AppName   string          `toml:"app_name"`
	Server    ServerConfig    `toml:"server"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	SSH       SSHConfig       `toml:"ssh"`
	Storage   StorageConfig   `toml:"storage"`
	Monitor   MonitorConfig   `toml:"monitor"`
	RabbitMQ  RabbitMQConfig  `toml:"rabbitmq"`
	Tasks     TasksConfig     `toml:"tasks"`
	Logging   LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// SchedulerConfig selects how the proxy talks to the SLURM scheduler.
type SchedulerConfig struct {
	Backend string     `toml:"backend"` // "ssh" or "rest"
	REST    RESTConfig `toml:"rest"`
}

// RESTConfig holds slurmrestd connection parameters for the REST backend.
type RESTConfig struct {
	BaseURL  string        `toml:"base_url"`
	Username string        `toml:"username"` // generic accounting username for unowned queries
	Token    string        `toml:"token"`    // X-SLURM-USER-TOKEN value
	Timeout  time.Duration `toml:"timeout"`
}

// SSHConfig holds connection parameters for the SSH scheduler backend.
type SSHConfig struct {
	Hostname string `toml:"hostname"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	KeyPath  string `toml:"key_path"`
}

type StorageConfig struct {
	Type   string       `toml:"type"` // "badger" or "mongo"
	Badger BadgerConfig `toml:"badger"`
	Mongo  MongoConfig  `toml:"mongo"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

// MongoConfig represents MongoDB-specific configuration
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// MonitorConfig controls the reconciliation loop.
type MonitorConfig struct {
	PollingIntervalMinutes int `toml:"polling_interval_minutes"`
}

// RabbitMQConfig holds notification transport parameters.
type RabbitMQConfig struct {
	Enabled  bool   `toml:"enabled"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	VHost    string `toml:"vhost"`
}

// TasksConfig points at the optional task registry definitions file.
type TasksConfig struct {
	DefinitionsFile string `toml:"definitions_file"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings should be exposed in slurm-proxy.toml.
func NewDefaultConfig() *Config {
	return &Config{
		AppName: "slurm-proxy",
		Server: ServerConfig{
			Port: 5001,
			Host: "localhost",
		},
		Scheduler: SchedulerConfig{
			Backend: "ssh",
			REST: RESTConfig{
				Timeout: 30 * time.Second,
			},
		},
		SSH: SSHConfig{
			Port: 22,
		},
		Storage: StorageConfig{
			Type: "badger",
			Badger: BadgerConfig{
				Path: "./data",
			},
			Mongo: MongoConfig{
				URI:      "mongodb://localhost:27017",
				Database: "monitordb",
			},
		},
		Monitor: MonitorConfig{
			PollingIntervalMinutes: 1,
		},
		RabbitMQ: RabbitMQConfig{
			Enabled:  false,
			Host:     "localhost",
			Port:     5672,
			Username: "guest",
			Password: "guest",
			VHost:    "/",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files; later files override
// earlier files, environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if name := os.Getenv("APP_NAME"); name != "" {
		config.AppName = name
	}
	if port := os.Getenv("APP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Scheduler configuration
	if backend := os.Getenv("SCHEDULER_BACKEND"); backend != "" {
		config.Scheduler.Backend = backend
	}
	if baseURL := os.Getenv("SLURM_REST_BASE_URL"); baseURL != "" {
		config.Scheduler.REST.BaseURL = baseURL
	}
	if token := os.Getenv("SLURM_REST_TOKEN"); token != "" {
		config.Scheduler.REST.Token = token
	}

	// SSH configuration
	if hostname := os.Getenv("SSH_HOSTNAME"); hostname != "" {
		config.SSH.Hostname = hostname
	}
	if username := os.Getenv("SSH_USERNAME"); username != "" {
		config.SSH.Username = username
	}
	if keyPath := os.Getenv("SSH_KEY_PATH"); keyPath != "" {
		config.SSH.KeyPath = keyPath
	}

	// Storage configuration
	if storageType := os.Getenv("STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = storageType
	}
	if badgerPath := os.Getenv("BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		config.Storage.Mongo.URI = uri
	}

	// Monitor configuration
	if interval := os.Getenv("MONITOR_POLLING_INTERVAL"); interval != "" {
		if m, err := strconv.Atoi(interval); err == nil && m > 0 {
			config.Monitor.PollingIntervalMinutes = m
		}
	}

	// RabbitMQ configuration
	if host := os.Getenv("RABBITMQ_HOST"); host != "" {
		config.RabbitMQ.Enabled = true
		config.RabbitMQ.Host = host
	}
	if port := os.Getenv("RABBITMQ_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.RabbitMQ.Port = p
		}
	}
	if username := os.Getenv("RABBITMQ_USERNAME"); username != "" {
		config.RabbitMQ.Username = username
	}
	if password := os.Getenv("RABBITMQ_PASSWORD"); password != "" {
		config.RabbitMQ.Password = password
	}
	if vhost := os.Getenv("RABBITMQ_PATH"); vhost != "" {
		config.RabbitMQ.VHost = vhost
	}

	// Tasks configuration
	if defs := os.Getenv("TASK_DEFINITIONS_FILE"); defs != "" {
		config.Tasks.DefinitionsFile = defs
	}

	// Logging configuration
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
// Command-line flags have highest priority.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// PollingInterval returns the reconciler interval as a duration.
func (c *Config) PollingInterval() time.Duration {
	minutes := c.Monitor.PollingIntervalMinutes
	if minutes <= 0 {
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}

// AMQPURL assembles the RabbitMQ connection URL from its parts.
func (c *Config) AMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		c.RabbitMQ.Username, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port, c.RabbitMQ.VHost)
}
