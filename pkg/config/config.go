package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Transmitter TransmitterConfig `mapstructure:"transmitter"`
	Encoder     EncoderConfig     `mapstructure:"encoder"`
	Session     SessionConfig     `mapstructure:"session"`
	Web         WebConfig         `mapstructure:"web"`
	MQTT        MQTTConfig        `mapstructure:"mqtt"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// ServerConfig holds server identification
type ServerConfig struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

// TransmitterConfig selects and tunes the carrier output
type TransmitterConfig struct {
	Driver     string `mapstructure:"driver"`       // stub or pwm
	Pin        int    `mapstructure:"pin"`          // GPIO of the IR LED (pwm only)
	CarrierHz  uint32 `mapstructure:"carrier_hz"`   // initial carrier, frames switch per protocol
	DutyCycle  uint8  `mapstructure:"duty_cycle"`   // 0 keeps each protocol's own duty cycle
	MaxFrameMS int    `mapstructure:"max_frame_ms"` // longest interrupt-free frame
}

// EncoderConfig holds symbol encoder options
type EncoderConfig struct {
	Validation string `mapstructure:"validation"` // strict or mask
}

// SessionConfig holds defaults applied to send requests
type SessionConfig struct {
	DefaultProtocol string `mapstructure:"default_protocol"`
	AutoToggle      bool   `mapstructure:"auto_toggle"`
	MaxHoldRepeats  int    `mapstructure:"max_hold_repeats"`
}

// WebConfig holds web dashboard configuration
type WebConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	AuthRequired bool   `mapstructure:"auth_required"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
}

// MQTTConfig holds MQTT client configuration
type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	QoS         byte   `mapstructure:"qos"`
	Retained    bool   `mapstructure:"retained"`
	AcceptSend  bool   `mapstructure:"accept_send"` // subscribe to <prefix>/send
}

// DatabaseConfig holds the transmission history store
type DatabaseConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled    bool             `mapstructure:"enabled"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig holds Prometheus metrics configuration
type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/ir-nexus")
	}

	// IRNEXUS_WEB_PORT overrides web.port
	viper.SetEnvPrefix("IRNEXUS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is OK, use defaults
		} else if os.IsNotExist(err) {
			// File explicitly specified but doesn't exist - that's also OK
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.name", "IR-Nexus")
	viper.SetDefault("server.description", "Go IR transmitter")

	viper.SetDefault("transmitter.driver", "stub")
	viper.SetDefault("transmitter.pin", 15)
	viper.SetDefault("transmitter.carrier_hz", 38000)
	viper.SetDefault("transmitter.duty_cycle", 0)
	viper.SetDefault("transmitter.max_frame_ms", 250)

	viper.SetDefault("encoder.validation", "strict")

	viper.SetDefault("session.default_protocol", "NEC")
	viper.SetDefault("session.auto_toggle", true)
	viper.SetDefault("session.max_hold_repeats", 50)

	viper.SetDefault("web.enabled", true)
	viper.SetDefault("web.host", "0.0.0.0")
	viper.SetDefault("web.port", 8080)
	viper.SetDefault("web.auth_required", false)

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.topic_prefix", "ir/nexus")
	viper.SetDefault("mqtt.client_id", "ir-nexus")
	viper.SetDefault("mqtt.qos", 1)
	viper.SetDefault("mqtt.retained", false)
	viper.SetDefault("mqtt.accept_send", true)

	viper.SetDefault("database.enabled", true)
	viper.SetDefault("database.path", "data/ir-nexus.db")
	viper.SetDefault("database.retention_days", 30)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.prometheus.enabled", true)
	viper.SetDefault("metrics.prometheus.port", 9090)
	viper.SetDefault("metrics.prometheus.path", "/metrics")
}
