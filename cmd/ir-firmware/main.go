//go:build tinygo && rp2040

// Command ir-firmware runs the transmitter on an RP2040 board with the IR
// LED (through a transistor) on GP15. Flash with:
//
//	tinygo flash -target=pico ./cmd/ir-firmware
//
// It sends the configured command once at boot and then every interval,
// which is enough to check an LED with a phone camera or a receiver.
package main

import (
	"context"
	"machine"
	"time"

	"github.com/dbehnke/ir-nexus/pkg/carrier"
	"github.com/dbehnke/ir-nexus/pkg/driver/pwm"
	"github.com/dbehnke/ir-nexus/pkg/encoder"
	"github.com/dbehnke/ir-nexus/pkg/logger"
	"github.com/dbehnke/ir-nexus/pkg/protocol"
	"github.com/dbehnke/ir-nexus/pkg/session"
)

const (
	ledPin   = machine.GP15
	address  = 0x04
	command  = 0x08
	interval = 2 * time.Second
)

func main() {
	log := logger.New(logger.Config{Level: "info", Format: "text"})

	tx := carrier.New(pwm.New(ledPin, machine.PWM7), pwm.Interrupts{}, carrier.WithLogger(log))
	if err := tx.Init(38000); err != nil {
		log.Error("Carrier init failed", logger.Error(err))
		halt()
	}

	s, err := session.New(protocol.NEC, encoder.New(), tx, session.WithLogger(log))
	if err != nil {
		log.Error("Session setup failed", logger.Error(err))
		halt()
	}

	ctx := context.Background()
	for {
		if err := s.Send(ctx, address, command); err != nil {
			log.Warn("Send failed", logger.Error(err))
		}
		time.Sleep(interval)
	}
}

func halt() {
	for {
		time.Sleep(time.Hour)
	}
}
