// Package session holds the per-protocol transmit state: the toggle bit
// and the repeat cadence of a held or multi-frame key press.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/dbehnke/ir-nexus/pkg/encoder"
	"github.com/dbehnke/ir-nexus/pkg/logger"
	"github.com/dbehnke/ir-nexus/pkg/protocol"
)

// Transmitter emits one frame. *carrier.Transmitter satisfies it.
type Transmitter interface {
	Transmit(symbols []encoder.Symbol, carrierHz uint32, dutyPercent uint8) (time.Duration, error)
}

// Sleeper waits d or until ctx is done, returning ctx.Err() in the latter case
type Sleeper func(ctx context.Context, d time.Duration) error

// Session is the toggle and cadence state of one protocol. It is owned by a
// single goroutine; the caller serializes access if it shares one.
type Session struct {
	proto  protocol.Protocol
	timing protocol.Timing
	enc    *encoder.Encoder
	tx     Transmitter

	toggle    bool
	frame     []encoder.Symbol
	repeat    []encoder.Symbol
	carrierHz uint32
	duty      uint8

	log       *logger.Logger
	observers []Observer
	sleep     Sleeper
	now       func() time.Time
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Session) { s.log = l.WithComponent("session") }
}

// WithObserver attaches an observer notified after every frame
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, o) }
}

// WithSleeper replaces the inter-frame wait, mostly for tests
func WithSleeper(fn Sleeper) Option {
	return func(s *Session) { s.sleep = fn }
}

// WithDutyCycle overrides the protocol's carrier duty cycle
func WithDutyCycle(percent uint8) Option {
	return func(s *Session) {
		if percent > 0 && percent <= 100 {
			s.duty = percent
		}
	}
}

// WithCarrier overrides the protocol's carrier frequency
func WithCarrier(hz uint32) Option {
	return func(s *Session) {
		if hz > 0 {
			s.carrierHz = hz
		}
	}
}

// New creates a session for p with the toggle cleared
func New(p protocol.Protocol, enc *encoder.Encoder, tx Transmitter, opts ...Option) (*Session, error) {
	tm, ok := protocol.TimingFor(p)
	if !ok {
		return nil, fmt.Errorf("%w: %s", protocol.ErrUnsupportedProtocol, p)
	}
	n, ok := encoder.MinSymbols(p)
	if !ok {
		return nil, fmt.Errorf("%w: %s", protocol.ErrUnsupportedProtocol, p)
	}

	s := &Session{
		proto:     p,
		timing:    tm,
		enc:       enc,
		tx:        tx,
		frame:     make([]encoder.Symbol, n),
		repeat:    make([]encoder.Symbol, n),
		carrierHz: tm.CarrierHz,
		duty:      tm.DutyCycle,
		log:       logger.Discard(),
		sleep:     sleepContext,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Protocol returns the session's protocol
func (s *Session) Protocol() protocol.Protocol {
	return s.proto
}

// Toggle returns the toggle value the next frame will carry
func (s *Session) Toggle() bool {
	return s.toggle
}

// ResetToggle clears the toggle, for the start of a new logical key press
func (s *Session) ResetToggle() {
	s.toggle = false
}

// Send transmits one key press with the current toggle, leaving it as is
func (s *Session) Send(ctx context.Context, address, command uint32) error {
	return s.press(ctx, address, command, 0)
}

// SendWithAutoToggle transmits one key press with the current toggle and
// flips it once the press went out
func (s *Session) SendWithAutoToggle(ctx context.Context, address, command uint32) error {
	if err := s.press(ctx, address, command, 0); err != nil {
		return err
	}
	s.toggle = !s.toggle
	return nil
}

// Hold simulates a held key: the key press followed by repeats repeat
// frames at the protocol's frame period. The toggle never changes while a
// key is held. Cancelling ctx stops between frames.
func (s *Session) Hold(ctx context.Context, address, command uint32, repeats int) error {
	if repeats < 0 {
		return fmt.Errorf("%w: %d repeats", protocol.ErrInvalidArgument, repeats)
	}
	return s.press(ctx, address, command, repeats)
}

// press sends MinFrames full frames and then repeats repeat frames. Both
// frames are encoded before anything is transmitted.
func (s *Session) press(ctx context.Context, address, command uint32, repeats int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cmd := encoder.Command{
		Protocol: s.proto,
		Address:  address,
		Command:  command,
		Toggle:   s.toggle,
	}
	full, err := s.encode(s.frame, cmd)
	if err != nil {
		return err
	}
	var rep []encoder.Symbol
	if repeats > 0 {
		cmd.Repeat = true
		if rep, err = s.encode(s.repeat, cmd); err != nil {
			return err
		}
	}

	frames := s.timing.MinFrames
	if frames < 1 {
		frames = 1
	}

	var last time.Duration
	for i := 0; i < frames+repeats; i++ {
		symbols, isRepeat := full, false
		if i >= frames {
			symbols, isRepeat = rep, true
		}
		if i > 0 {
			if err := s.sleep(ctx, s.gapAfter(last)); err != nil {
				s.log.Debug("Key press cancelled between frames",
					logger.String("protocol", s.proto.String()),
					logger.Int("frames_sent", i))
				return err
			}
		}

		airtime, err := s.tx.Transmit(symbols, s.carrierHz, s.duty)
		s.notify(Report{
			Protocol: s.proto,
			Address:  address,
			Command:  command,
			Toggle:   s.toggle,
			Repeat:   isRepeat,
			Frame:    i,
			Symbols:  len(symbols),
			Airtime:  airtime,
			Err:      err,
			Time:     s.now(),
		})
		if err != nil {
			s.log.Error("Transmit failed",
				logger.String("protocol", s.proto.String()),
				logger.Int("frame", i),
				logger.Error(err))
			return fmt.Errorf("transmit %s frame %d: %w", s.proto, i, err)
		}
		last = airtime
	}

	s.log.Debug("Key press sent",
		logger.String("protocol", s.proto.String()),
		logger.Hex("address", address),
		logger.Hex("command", command),
		logger.Bool("toggle", s.toggle),
		logger.Int("repeats", repeats))
	return nil
}

func (s *Session) encode(buf []encoder.Symbol, cmd encoder.Command) ([]encoder.Symbol, error) {
	n, err := s.enc.EncodeInto(buf, cmd)
	if err != nil {
		s.log.Warn("Encode failed",
			logger.String("protocol", s.proto.String()),
			logger.Hex("address", cmd.Address),
			logger.Hex("command", cmd.Command),
			logger.Error(err))
		s.notify(Report{
			Protocol: s.proto,
			Address:  cmd.Address,
			Command:  cmd.Command,
			Toggle:   cmd.Toggle,
			Repeat:   cmd.Repeat,
			Err:      err,
			Time:     s.now(),
		})
		return nil, err
	}
	return buf[:n], nil
}

// gapAfter is the silence between a frame of the given airtime and the next
// one: the rest of the frame period, but never less than the minimum gap
func (s *Session) gapAfter(airtime time.Duration) time.Duration {
	gap := time.Duration(s.timing.FrameGap) * time.Microsecond
	if period := time.Duration(s.timing.FramePeriod) * time.Microsecond; period-airtime > gap {
		gap = period - airtime
	}
	return gap
}

func (s *Session) notify(r Report) {
	for _, o := range s.observers {
		o.FrameSent(r)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
