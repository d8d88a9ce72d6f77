//go:build tinygo && rp2040

// Package pwm drives the IR LED from a TinyGo PWM peripheral. It is built
// for the RP2040 only: DelayMicroseconds reads the monotonic clock with
// interrupts masked, and the RP2040 clock is a free-running hardware timer.
// Targets whose clock advances from a tick interrupt would never return.
package pwm

import (
	"machine"
	"runtime/interrupt"
	"time"
)

// PWM is the subset of a TinyGo PWM group the driver needs
type PWM interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (channel uint8, err error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// Driver implements carrier.Driver on one PWM channel
type Driver struct {
	pin machine.Pin
	pwm PWM
	ch  uint8
}

// New binds the driver to the LED pin and the PWM group that serves it
func New(pin machine.Pin, pwm PWM) *Driver {
	return &Driver{pin: pin, pwm: pwm}
}

// Configure sets the PWM period to the carrier and parks the output low
func (d *Driver) Configure(carrierHz uint32) error {
	if err := d.pwm.Configure(machine.PWMConfig{Period: 1e9 / uint64(carrierHz)}); err != nil {
		return err
	}
	ch, err := d.pwm.Channel(d.pin)
	if err != nil {
		return err
	}
	d.ch = ch
	d.pwm.Set(d.ch, 0)
	return nil
}

// EnableCarrier starts the carrier at dutyPercent of the period
func (d *Driver) EnableCarrier(dutyPercent uint8) {
	d.pwm.Set(d.ch, d.pwm.Top()*uint32(dutyPercent)/100)
}

// DisableCarrier holds the output low
func (d *Driver) DisableCarrier() {
	d.pwm.Set(d.ch, 0)
}

// DelayMicroseconds spins on the RP2040 hardware timer. It must not sleep:
// it runs with interrupts masked, so the scheduler cannot wake it.
func (d *Driver) DelayMicroseconds(us uint32) {
	wait := time.Duration(us) * time.Microsecond
	start := time.Now()
	for time.Since(start) < wait {
	}
}

// Interrupts masks the CPU's global interrupts
type Interrupts struct{}

// Disable masks interrupts and returns the previous state
func (Interrupts) Disable() uintptr {
	return uintptr(interrupt.Disable())
}

// Restore puts back a state returned by Disable
func (Interrupts) Restore(state uintptr) {
	interrupt.Restore(interrupt.State(state))
}
