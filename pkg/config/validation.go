package config

import (
	"fmt"
	"strings"

	"github.com/dbehnke/ir-nexus/pkg/encoder"
	"github.com/dbehnke/ir-nexus/pkg/protocol"
)

// validate validates the configuration
func validate(cfg *Config) error {
	if err := validateTransmitter(cfg.Transmitter); err != nil {
		return err
	}

	if _, err := encoder.ParsePolicy(strings.ToLower(cfg.Encoder.Validation)); err != nil {
		return fmt.Errorf("encoder.validation must be strict or mask, got %q", cfg.Encoder.Validation)
	}

	if cfg.Session.DefaultProtocol != "" {
		if _, ok := protocol.ParseName(cfg.Session.DefaultProtocol); !ok {
			return fmt.Errorf("session.default_protocol: unknown protocol %q", cfg.Session.DefaultProtocol)
		}
	}
	if cfg.Session.MaxHoldRepeats < 0 {
		return fmt.Errorf("session.max_hold_repeats must not be negative")
	}

	if cfg.Web.Enabled {
		if cfg.Web.Port <= 0 || cfg.Web.Port > 65535 {
			return fmt.Errorf("web.port must be between 1 and 65535")
		}
		if cfg.Web.AuthRequired && (cfg.Web.Username == "" || cfg.Web.Password == "") {
			return fmt.Errorf("web.username and web.password are required when web.auth_required is set")
		}
	}

	if cfg.MQTT.Enabled {
		if cfg.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
		}
		if cfg.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
		}
		if strings.ContainsAny(cfg.MQTT.TopicPrefix, "#+") {
			return fmt.Errorf("mqtt.topic_prefix must not contain wildcards")
		}
	}

	if cfg.Database.Enabled {
		if cfg.Database.Path == "" {
			return fmt.Errorf("database.path is required when database is enabled")
		}
		if cfg.Database.RetentionDays < 0 {
			return fmt.Errorf("database.retention_days must not be negative")
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Prometheus.Enabled {
		if cfg.Metrics.Prometheus.Port <= 0 || cfg.Metrics.Prometheus.Port > 65535 {
			return fmt.Errorf("metrics.prometheus.port must be between 1 and 65535")
		}
		if !strings.HasPrefix(cfg.Metrics.Prometheus.Path, "/") {
			return fmt.Errorf("metrics.prometheus.path must start with /")
		}
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", cfg.Logging.Format)
	}

	return nil
}

func validateTransmitter(tx TransmitterConfig) error {
	switch strings.ToLower(tx.Driver) {
	case "stub", "pwm":
	default:
		return fmt.Errorf("transmitter.driver must be stub or pwm, got %q", tx.Driver)
	}
	if tx.CarrierHz < 10000 || tx.CarrierHz > 100000 {
		return fmt.Errorf("transmitter.carrier_hz must be between 10000 and 100000")
	}
	if tx.DutyCycle > 100 {
		return fmt.Errorf("transmitter.duty_cycle must be between 0 and 100")
	}
	if tx.MaxFrameMS <= 0 || tx.MaxFrameMS > 1000 {
		return fmt.Errorf("transmitter.max_frame_ms must be between 1 and 1000")
	}
	if tx.Pin < 0 {
		return fmt.Errorf("transmitter.pin must not be negative")
	}
	return nil
}

// EncoderPolicy returns the parsed validation policy
func (c *Config) EncoderPolicy() encoder.Policy {
	p, _ := encoder.ParsePolicy(strings.ToLower(c.Encoder.Validation))
	return p
}

// DefaultProtocol returns the protocol used when a request names none
func (c *Config) DefaultProtocol() protocol.Protocol {
	return protocol.FromName(c.Session.DefaultProtocol)
}
