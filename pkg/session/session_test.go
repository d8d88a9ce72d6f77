package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dbehnke/ir-nexus/pkg/carrier"
	"github.com/dbehnke/ir-nexus/pkg/driver/stub"
	"github.com/dbehnke/ir-nexus/pkg/encoder"
	"github.com/dbehnke/ir-nexus/pkg/protocol"
)

// fakeTx records every frame it is asked to send
type fakeTx struct {
	frames [][]encoder.Symbol
	hz     []uint32
	duty   []uint8
	err    error
}

func (f *fakeTx) Transmit(symbols []encoder.Symbol, carrierHz uint32, duty uint8) (time.Duration, error) {
	if f.err != nil {
		return 0, f.err
	}
	frame := make([]encoder.Symbol, len(symbols))
	copy(frame, symbols)
	f.frames = append(f.frames, frame)
	f.hz = append(f.hz, carrierHz)
	f.duty = append(f.duty, duty)
	return encoder.Duration(symbols), nil
}

// sleepRecorder captures inter-frame waits without sleeping
type sleepRecorder struct {
	waits []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

func newSession(t *testing.T, p protocol.Protocol, opts ...Option) (*Session, *fakeTx, *sleepRecorder) {
	t.Helper()
	tx := &fakeTx{}
	sr := &sleepRecorder{}
	s, err := New(p, encoder.New(), tx, append([]Option{WithSleeper(sr.sleep)}, opts...)...)
	if err != nil {
		t.Fatalf("New(%s): %v", p, err)
	}
	return s, tx, sr
}

func mustEncode(t *testing.T, cmd encoder.Command) []encoder.Symbol {
	t.Helper()
	syms, err := encoder.New().Encode(cmd)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return syms
}

func equalFrames(a, b []encoder.Symbol) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewRejectsGeneric(t *testing.T) {
	for _, p := range []protocol.Protocol{protocol.Generic, protocol.Protocol(99)} {
		if _, err := New(p, encoder.New(), &fakeTx{}); !errors.Is(err, protocol.ErrUnsupportedProtocol) {
			t.Fatalf("New(%s): expected ErrUnsupportedProtocol, got %v", p, err)
		}
	}
}

func TestAutoToggleFramesDifferOnlyInToggle(t *testing.T) {
	s, tx, _ := newSession(t, protocol.RC5)
	ctx := context.Background()

	if err := s.SendWithAutoToggle(ctx, 5, 10); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if !s.Toggle() {
		t.Fatal("toggle not flipped after first send")
	}
	if err := s.SendWithAutoToggle(ctx, 5, 10); err != nil {
		t.Fatalf("second send: %v", err)
	}
	if s.Toggle() {
		t.Fatal("toggle not flipped back after second send")
	}

	if len(tx.frames) != 2 {
		t.Fatalf("sent %d frames, want 2", len(tx.frames))
	}
	first := mustEncode(t, encoder.Command{Protocol: protocol.RC5, Address: 5, Command: 10})
	second := mustEncode(t, encoder.Command{Protocol: protocol.RC5, Address: 5, Command: 10, Toggle: true})
	if !equalFrames(tx.frames[0], first) || !equalFrames(tx.frames[1], second) {
		t.Fatalf("frames do not match toggle 0 then 1:\n%v\n%v", tx.frames[0], tx.frames[1])
	}
	if diff := encoder.RC5Word(5, 10, false) ^ encoder.RC5Word(5, 10, true); diff != 1<<11 {
		t.Fatalf("frames differ in bits %014b, want only the toggle", diff)
	}
	if tx.hz[0] != 36000 || tx.duty[0] != 25 {
		t.Fatalf("RC5 carrier %d Hz %d%%", tx.hz[0], tx.duty[0])
	}
}

func TestSendKeepsToggle(t *testing.T) {
	s, tx, _ := newSession(t, protocol.RC6)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := s.Send(ctx, 0x10, 0x0C); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	if s.Toggle() {
		t.Fatal("Send flipped the toggle")
	}
	if !equalFrames(tx.frames[0], tx.frames[1]) {
		t.Fatal("Send produced different frames")
	}

	_ = s.SendWithAutoToggle(ctx, 0x10, 0x0C)
	if !s.Toggle() {
		t.Fatal("expected toggle set")
	}
	s.ResetToggle()
	if s.Toggle() {
		t.Fatal("ResetToggle did not clear the toggle")
	}
}

func TestEncodeFailureSendsNothing(t *testing.T) {
	var reports []Report
	s, tx, _ := newSession(t, protocol.RC5, WithObserver(ObserverFunc(func(r Report) {
		reports = append(reports, r)
	})))

	err := s.SendWithAutoToggle(context.Background(), 32, 10)
	if !errors.Is(err, protocol.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if len(tx.frames) != 0 {
		t.Fatal("frame transmitted after encode failure")
	}
	if s.Toggle() {
		t.Fatal("toggle changed after encode failure")
	}
	if len(reports) != 1 || reports[0].Err == nil || reports[0].Symbols != 0 {
		t.Fatalf("unexpected reports %+v", reports)
	}
	if reports[0].ErrorText() == "" {
		t.Fatal("report error text empty")
	}
}

func TestTransmitFailureKeepsToggle(t *testing.T) {
	s, tx, _ := newSession(t, protocol.RC5)
	tx.err = protocol.ErrNotInitialized

	err := s.SendWithAutoToggle(context.Background(), 1, 1)
	if !errors.Is(err, protocol.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if s.Toggle() {
		t.Fatal("toggle flipped although nothing was sent")
	}
}

func TestSonySendsThreeFrames(t *testing.T) {
	s, tx, sr := newSession(t, protocol.Sony)

	if err := s.Send(context.Background(), 0x01, 0x15); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(tx.frames) != 3 {
		t.Fatalf("sent %d frames, want 3", len(tx.frames))
	}
	for _, f := range tx.frames[1:] {
		if !equalFrames(f, tx.frames[0]) {
			t.Fatal("Sony frames of one press differ")
		}
	}

	airtime := encoder.Duration(tx.frames[0])
	want := 45*time.Millisecond - airtime
	if len(sr.waits) != 2 || sr.waits[0] != want || sr.waits[1] != want {
		t.Fatalf("waits = %v, want two of %s", sr.waits, want)
	}
}

func TestNECHoldUsesRepeatCodes(t *testing.T) {
	var reports []Report
	s, tx, sr := newSession(t, protocol.NEC, WithObserver(ObserverFunc(func(r Report) {
		reports = append(reports, r)
	})))

	if err := s.Hold(context.Background(), 0x04, 0x08, 3); err != nil {
		t.Fatalf("Hold: %v", err)
	}
	if len(tx.frames) != 4 {
		t.Fatalf("sent %d frames, want 4", len(tx.frames))
	}
	full := mustEncode(t, encoder.Command{Protocol: protocol.NEC, Address: 0x04, Command: 0x08})
	rep := mustEncode(t, encoder.Command{Protocol: protocol.NEC, Repeat: true})
	if !equalFrames(tx.frames[0], full) {
		t.Fatal("first frame is not the data frame")
	}
	for _, f := range tx.frames[1:] {
		if !equalFrames(f, rep) {
			t.Fatalf("expected repeat code, got %v", f)
		}
	}

	period := 108 * time.Millisecond
	want := []time.Duration{
		period - encoder.Duration(full),
		period - encoder.Duration(rep),
		period - encoder.Duration(rep),
	}
	if len(sr.waits) != len(want) {
		t.Fatalf("waits = %v", sr.waits)
	}
	for i := range want {
		if sr.waits[i] != want[i] {
			t.Fatalf("wait %d = %s, want %s", i, sr.waits[i], want[i])
		}
	}

	if len(reports) != 4 || reports[0].Repeat || !reports[3].Repeat || reports[3].Frame != 3 {
		t.Fatalf("unexpected reports %+v", reports)
	}
}

func TestJVCHoldRepeatsWithoutHeader(t *testing.T) {
	s, tx, _ := newSession(t, protocol.JVC)

	if err := s.Hold(context.Background(), 0xC5, 0x3A, 2); err != nil {
		t.Fatalf("Hold: %v", err)
	}
	if len(tx.frames) != 3 {
		t.Fatalf("sent %d frames", len(tx.frames))
	}
	if !equalFrames(tx.frames[1], tx.frames[0][1:]) || !equalFrames(tx.frames[2], tx.frames[0][1:]) {
		t.Fatal("JVC repeats should be the frame minus its header")
	}
}

func TestHoldKeepsToggleAndValidates(t *testing.T) {
	s, tx, _ := newSession(t, protocol.RC6)
	ctx := context.Background()

	if err := s.Hold(ctx, 1, 2, -1); !errors.Is(err, protocol.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	_ = s.SendWithAutoToggle(ctx, 1, 2)
	if err := s.Hold(ctx, 1, 2, 2); err != nil {
		t.Fatalf("Hold: %v", err)
	}
	if !s.Toggle() {
		t.Fatal("Hold changed the toggle")
	}
	// RC6 has no repeat code: all held frames match the press with toggle 1
	for _, f := range tx.frames[1:] {
		if !equalFrames(f, tx.frames[1]) {
			t.Fatal("held RC6 frames differ")
		}
	}
}

func TestHoldStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tx := &fakeTx{}
	calls := 0
	s, err := New(protocol.NEC, encoder.New(), tx, WithSleeper(func(ctx context.Context, d time.Duration) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return ctx.Err()
	}))
	if err != nil {
		t.Fatal(err)
	}

	err = s.Hold(ctx, 0x04, 0x08, 10)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(tx.frames) != 2 {
		t.Fatalf("sent %d frames before cancel, want 2", len(tx.frames))
	}

	if err := s.Send(ctx, 0x04, 0x08); !errors.Is(err, context.Canceled) {
		t.Fatalf("Send on cancelled context: %v", err)
	}
	if len(tx.frames) != 2 {
		t.Fatal("frame sent on a cancelled context")
	}
}

func TestSessionOverrides(t *testing.T) {
	s, tx, _ := newSession(t, protocol.NEC, WithCarrier(40000), WithDutyCycle(50))
	if err := s.Send(context.Background(), 1, 2); err != nil {
		t.Fatal(err)
	}
	if tx.hz[0] != 40000 || tx.duty[0] != 50 {
		t.Fatalf("overrides ignored: %d Hz %d%%", tx.hz[0], tx.duty[0])
	}
}

func TestSessionDrivesCarrier(t *testing.T) {
	drv := stub.New()
	irq := stub.NewInterrupts()
	tx := carrier.New(drv, irq)
	if err := tx.Init(38000); err != nil {
		t.Fatal(err)
	}
	drv.Reset()

	s, err := New(protocol.Samsung, encoder.New(), tx)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Send(context.Background(), 0x07, 0x02); err != nil {
		t.Fatalf("Send: %v", err)
	}

	want := mustEncode(t, encoder.Command{Protocol: protocol.Samsung, Address: 0x07, Command: 0x02})
	if got := drv.Symbols(); !equalFrames(got, want) {
		t.Fatalf("pin saw %v, want %v", got, want)
	}
	if irq.State() != stub.StateEnabled {
		t.Fatal("interrupts left disabled")
	}
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	if err := sleepContext(ctx, time.Millisecond); err != nil {
		t.Fatalf("sleep: %v", err)
	}
	cancel()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancel, got %v", err)
	}
}
