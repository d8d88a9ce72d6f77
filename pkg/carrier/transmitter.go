// Package carrier realizes symbol sequences as a modulated IR carrier.
//
// The hardware is reached only through the Driver and Interrupts
// capabilities so the same Transmitter runs against a TinyGo PWM
// peripheral on a board and against a recording stub in tests.
package carrier

import (
	"fmt"
	"time"

	"github.com/dbehnke/ir-nexus/pkg/encoder"
	"github.com/dbehnke/ir-nexus/pkg/logger"
	"github.com/dbehnke/ir-nexus/pkg/protocol"
)

// DefaultMaxFrame bounds the interrupt-disabled section of one Transmit
const DefaultMaxFrame = 250 * time.Millisecond

// Driver is the minimal carrier capability. EnableCarrier and
// DisableCarrier switch the modulated output, DelayMicroseconds must
// busy-wait or use a hardware timer with microsecond resolution.
type Driver interface {
	Configure(carrierHz uint32) error
	EnableCarrier(dutyPercent uint8)
	DisableCarrier()
	DelayMicroseconds(us uint32)
}

// Interrupts masks and restores the global interrupt state
type Interrupts interface {
	Disable() (state uintptr)
	Restore(state uintptr)
}

// Transmitter owns one carrier output. It is not safe for concurrent use;
// callers that share it must serialize access.
type Transmitter struct {
	driver   Driver
	irq      Interrupts
	maxFrame time.Duration
	log      *logger.Logger

	carrierHz uint32
	ready     bool
}

// Option configures a Transmitter
type Option func(*Transmitter)

// WithMaxFrame overrides DefaultMaxFrame
func WithMaxFrame(d time.Duration) Option {
	return func(t *Transmitter) {
		if d > 0 {
			t.maxFrame = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(t *Transmitter) { t.log = l.WithComponent("carrier") }
}

// New creates a transmitter. It must be initialized with Init before use.
func New(driver Driver, irq Interrupts, opts ...Option) *Transmitter {
	t := &Transmitter{
		driver:   driver,
		irq:      irq,
		maxFrame: DefaultMaxFrame,
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Init configures the carrier peripheral. A failure leaves the transmitter
// unusable until a later Init succeeds.
func (t *Transmitter) Init(carrierHz uint32) error {
	if carrierHz == 0 {
		return fmt.Errorf("%w: carrier frequency 0", protocol.ErrInvalidArgument)
	}
	if err := t.configure(carrierHz); err != nil {
		return err
	}
	t.log.Info("Carrier initialized", logger.Uint32("carrier_hz", carrierHz))
	return nil
}

func (t *Transmitter) configure(carrierHz uint32) error {
	if err := t.driver.Configure(carrierHz); err != nil {
		t.ready = false
		t.log.Error("Carrier configuration failed",
			logger.Uint32("carrier_hz", carrierHz), logger.Error(err))
		return fmt.Errorf("configure carrier at %d Hz: %w", carrierHz, err)
	}
	t.carrierHz = carrierHz
	t.ready = true
	return nil
}

// Ready reports whether Transmit may be called
func (t *Transmitter) Ready() bool {
	return t.ready
}

// CarrierHz returns the frequency the peripheral is configured for
func (t *Transmitter) CarrierHz() uint32 {
	return t.carrierHz
}

// MaxFrame returns the longest frame Transmit accepts
func (t *Transmitter) MaxFrame() time.Duration {
	return t.maxFrame
}

// Transmit emits symbols as one uninterrupted frame and returns its
// airtime. A zero carrierHz keeps the configured frequency. Every check
// happens before the first pulse: an error means nothing was sent.
// Interrupts are masked for the whole frame and restored to their previous
// state on every exit, including a driver panic, after which the
// transmitter needs a fresh Init.
func (t *Transmitter) Transmit(symbols []encoder.Symbol, carrierHz uint32, dutyPercent uint8) (time.Duration, error) {
	if !t.ready {
		return 0, protocol.ErrNotInitialized
	}
	if dutyPercent == 0 || dutyPercent > 100 {
		return 0, fmt.Errorf("%w: duty cycle %d%%", protocol.ErrInvalidArgument, dutyPercent)
	}
	if len(symbols) == 0 {
		return 0, fmt.Errorf("%w: empty frame", protocol.ErrInvalidArgument)
	}
	airtime := encoder.Duration(symbols)
	if airtime > t.maxFrame {
		return 0, fmt.Errorf("%w: frame of %s exceeds %s", protocol.ErrInvalidArgument, airtime, t.maxFrame)
	}
	if carrierHz != 0 && carrierHz != t.carrierHz {
		if err := t.configure(carrierHz); err != nil {
			return 0, err
		}
	}

	completed := false
	defer func() {
		if !completed {
			t.ready = false
		}
	}()
	t.emit(symbols, dutyPercent)
	completed = true

	t.log.Debug("Frame transmitted",
		logger.Int("symbols", len(symbols)),
		logger.Duration("airtime", airtime),
		logger.Uint32("carrier_hz", t.carrierHz))
	return airtime, nil
}

// emit is the critical section
func (t *Transmitter) emit(symbols []encoder.Symbol, duty uint8) {
	state := t.irq.Disable()
	defer t.irq.Restore(state)
	defer t.driver.DisableCarrier()

	for _, s := range symbols {
		if s.Mark > 0 {
			t.driver.EnableCarrier(duty)
			t.driver.DelayMicroseconds(s.Mark)
			t.driver.DisableCarrier()
		}
		if s.Space > 0 {
			t.driver.DelayMicroseconds(s.Space)
		}
	}
}
