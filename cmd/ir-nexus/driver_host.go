//go:build !tinygo && !baremetal

package main

import (
	"fmt"
	"strings"

	"github.com/dbehnke/ir-nexus/pkg/carrier"
	"github.com/dbehnke/ir-nexus/pkg/config"
	"github.com/dbehnke/ir-nexus/pkg/driver/stub"
	"github.com/dbehnke/ir-nexus/pkg/logger"
)

// openDriver returns the carrier backend for a host build. Only the stub
// exists here; the PWM driver needs a TinyGo build (cmd/ir-firmware).
func openDriver(cfg config.TransmitterConfig, log *logger.Logger) (carrier.Driver, carrier.Interrupts, error) {
	switch strings.ToLower(cfg.Driver) {
	case "stub":
		log.Warn("Using the stub driver: frames are timed and recorded but nothing is emitted")
		return stub.New(), stub.NewInterrupts(), nil
	case "pwm":
		return nil, nil, fmt.Errorf("transmitter.driver %q needs a TinyGo build, see cmd/ir-firmware", cfg.Driver)
	}
	return nil, nil, fmt.Errorf("unknown transmitter.driver %q", cfg.Driver)
}
