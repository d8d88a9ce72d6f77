//go:build !tinygo && !baremetal

// Package stub provides host-side carrier capabilities that record what a
// real peripheral would have emitted instead of driving a pin.
package stub

import (
	"sync"
	"time"

	"github.com/dbehnke/ir-nexus/pkg/encoder"
)

// EventKind names a recorded driver call
type EventKind uint8

const (
	EventConfigure EventKind = iota
	EventEnable
	EventDisable
	EventDelay
)

// String returns the call name
func (k EventKind) String() string {
	switch k {
	case EventConfigure:
		return "configure"
	case EventEnable:
		return "enable"
	case EventDisable:
		return "disable"
	case EventDelay:
		return "delay"
	}
	return "unknown"
}

// Event is one recorded driver call. Value is the carrier frequency,
// duty cycle or delay depending on Kind.
type Event struct {
	Kind  EventKind
	Value uint32
}

const logCapacity = 4096

// Driver implements carrier.Driver against a virtual clock
type Driver struct {
	mu sync.Mutex

	// ConfigureErr, when set, is returned by Configure
	ConfigureErr error

	carrierHz uint32
	on        bool
	duty      uint8
	elapsed   time.Duration
	onTime    time.Duration
	events    []Event
}

// New creates a recording driver
func New() *Driver { return &Driver{} }

// Configure records the carrier frequency, or returns ConfigureErr when set
func (d *Driver) Configure(carrierHz uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ConfigureErr != nil {
		return d.ConfigureErr
	}
	d.carrierHz = carrierHz
	d.record(Event{Kind: EventConfigure, Value: carrierHz})
	return nil
}

// EnableCarrier records the carrier switching on
func (d *Driver) EnableCarrier(dutyPercent uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.on = true
	d.duty = dutyPercent
	d.record(Event{Kind: EventEnable, Value: uint32(dutyPercent)})
}

// DisableCarrier records the carrier switching off
func (d *Driver) DisableCarrier() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.on = false
	d.record(Event{Kind: EventDisable})
}

// DelayMicroseconds advances the virtual clock without sleeping
func (d *Driver) DelayMicroseconds(us uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	step := time.Duration(us) * time.Microsecond
	d.elapsed += step
	if d.on {
		d.onTime += step
	}
	d.record(Event{Kind: EventDelay, Value: us})
}

// record keeps the log bounded; older events are discarded first
func (d *Driver) record(ev Event) {
	if len(d.events) == logCapacity {
		copy(d.events, d.events[1:])
		d.events = d.events[:logCapacity-1]
	}
	d.events = append(d.events, ev)
}

// CarrierHz returns the last configured frequency
func (d *Driver) CarrierHz() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.carrierHz
}

// CarrierOn reports whether the output is currently modulated
func (d *Driver) CarrierOn() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.on
}

// Elapsed returns the virtual time spent in DelayMicroseconds
func (d *Driver) Elapsed() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.elapsed
}

// OnTime returns the virtual time the carrier was enabled
func (d *Driver) OnTime() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.onTime
}

// Events returns a copy of the recorded calls
func (d *Driver) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Event, len(d.events))
	copy(out, d.events)
	return out
}

// Symbols rebuilds the mark/space sequence seen on the output pin
func (d *Driver) Symbols() []encoder.Symbol {
	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		out     []encoder.Symbol
		cur     encoder.Symbol
		on      bool
		pending bool
	)
	for _, ev := range d.events {
		switch ev.Kind {
		case EventEnable:
			if !on && pending {
				out = append(out, cur)
				cur = encoder.Symbol{}
			}
			on, pending = true, true
		case EventDisable:
			on = false
		case EventDelay:
			if on {
				cur.Mark += ev.Value
			} else if pending {
				cur.Space += ev.Value
			}
		}
	}
	if pending {
		out = append(out, cur)
	}
	return out
}

// Reset clears the log and the clocks but keeps the configuration
func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = nil
	d.elapsed, d.onTime = 0, 0
}
