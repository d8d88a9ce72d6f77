package remote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dbehnke/ir-nexus/pkg/encoder"
	"github.com/dbehnke/ir-nexus/pkg/protocol"
	"github.com/dbehnke/ir-nexus/pkg/session"
)

type countingTx struct {
	mu     sync.Mutex
	frames int
	active int
	maxAct int
}

func (c *countingTx) Transmit(symbols []encoder.Symbol, _ uint32, _ uint8) (time.Duration, error) {
	c.mu.Lock()
	c.active++
	if c.active > c.maxAct {
		c.maxAct = c.active
	}
	c.frames++
	c.mu.Unlock()

	time.Sleep(100 * time.Microsecond)

	c.mu.Lock()
	c.active--
	c.mu.Unlock()
	return encoder.Duration(symbols), nil
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newManager(tx session.Transmitter, opts ...Option) *Manager {
	opts = append(opts, WithSessionOptions(session.WithSleeper(noSleep)))
	return NewManager(encoder.New(), tx, opts...)
}

func TestManagerSendAndToggle(t *testing.T) {
	var reports []session.Report
	m := newManager(&countingTx{}, WithObserver(session.ObserverFunc(func(r session.Report) {
		reports = append(reports, r)
	})))
	ctx := context.Background()

	req := Request{Protocol: protocol.RC5, Address: 5, Command: 10, AutoToggle: true}
	if err := m.Send(ctx, req); err != nil {
		t.Fatalf("Send: %v", err)
	}
	on, err := m.Toggle(protocol.RC5)
	if err != nil || !on {
		t.Fatalf("toggle after auto send = %v, %v", on, err)
	}

	if err := m.Send(ctx, req); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if on, _ := m.Toggle(protocol.RC5); on {
		t.Fatal("toggle state lost between sends")
	}

	_ = m.Send(ctx, req)
	if err := m.ResetToggle(protocol.RC5); err != nil {
		t.Fatal(err)
	}
	if on, _ := m.Toggle(protocol.RC5); on {
		t.Fatal("ResetToggle did not clear")
	}

	if len(reports) != 3 {
		t.Fatalf("unexpected reports %+v", reports)
	}
	if reports[0].Toggle || !reports[1].Toggle || reports[2].Toggle {
		t.Fatalf("reports carry wrong toggles: %+v", reports)
	}
}

func TestManagerHold(t *testing.T) {
	tx := &countingTx{}
	m := newManager(tx)

	if err := m.Send(context.Background(), Request{Protocol: protocol.NEC, Address: 4, Command: 8, Repeats: 5}); err != nil {
		t.Fatal(err)
	}
	if tx.frames != 6 {
		t.Fatalf("frames = %d, want 6", tx.frames)
	}

	err := m.Send(context.Background(), Request{Protocol: protocol.NEC, Repeats: -1})
	if !errors.Is(err, protocol.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestManagerRejectsGeneric(t *testing.T) {
	m := newManager(&countingTx{})

	if err := m.Send(context.Background(), Request{Protocol: protocol.Generic}); !errors.Is(err, protocol.ErrUnsupportedProtocol) {
		t.Fatalf("expected ErrUnsupportedProtocol, got %v", err)
	}
	if err := m.ResetToggle(protocol.Generic); !errors.Is(err, protocol.ErrUnsupportedProtocol) {
		t.Fatalf("expected ErrUnsupportedProtocol, got %v", err)
	}
}

func TestManagerSerializesSenders(t *testing.T) {
	tx := &countingTx{}
	m := newManager(tx)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := protocol.NEC
			if i%2 == 0 {
				p = protocol.Sony
			}
			if err := m.Send(context.Background(), Request{Protocol: p, Address: 1, Command: 2, AutoToggle: true}); err != nil {
				t.Errorf("Send: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if tx.maxAct != 1 {
		t.Fatalf("%d frames were in flight at once", tx.maxAct)
	}
	// four NEC presses of one frame, four Sony presses of three
	if tx.frames != 4+12 {
		t.Fatalf("frames = %d, want 16", tx.frames)
	}
}

func TestManagerAddObserverKeepsToggle(t *testing.T) {
	m := newManager(&countingTx{})
	ctx := context.Background()

	_ = m.Send(ctx, Request{Protocol: protocol.RC6, Address: 1, Command: 1, AutoToggle: true})

	var got []session.Report
	m.AddObserver(session.ObserverFunc(func(r session.Report) { got = append(got, r) }))
	_ = m.Send(ctx, Request{Protocol: protocol.RC6, Address: 1, Command: 1, AutoToggle: true})

	if len(got) != 1 || !got[0].Toggle {
		t.Fatalf("late observer saw %+v", got)
	}
}

func TestManagerEncode(t *testing.T) {
	m := newManager(&countingTx{})
	syms, err := m.Encode(encoder.Command{Protocol: protocol.NEC, Address: 4, Command: 8})
	if err != nil || len(syms) != 34 {
		t.Fatalf("Encode = %d symbols, %v", len(syms), err)
	}
	if len(m.Protocols()) != len(protocol.All()) {
		t.Fatal("Protocols does not list every protocol")
	}
}

func TestManagerResolveDefaults(t *testing.T) {
	m := newManager(&countingTx{}, WithDefaults(protocol.RC5, true))

	req := m.Resolve(Message{Address: 5, Command: 10})
	if req.Protocol != protocol.RC5 || !req.AutoToggle {
		t.Fatalf("defaults not applied: %+v", req)
	}

	sony := protocol.Sony
	off := false
	req = m.Resolve(Message{Protocol: &sony, AutoToggle: &off, Address: 1, Command: 2, Repeats: 3})
	if req.Protocol != protocol.Sony || req.AutoToggle || req.Repeats != 3 {
		t.Fatalf("explicit fields overridden: %+v", req)
	}
}

func TestManagerSendMessage(t *testing.T) {
	tx := &countingTx{}
	m := newManager(tx, WithDefaults(protocol.RC5, true))

	req, err := m.SendMessage(context.Background(), Message{Address: 5, Command: 10})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if req.Protocol != protocol.RC5 {
		t.Fatalf("resolved protocol = %v", req.Protocol)
	}
	if on, _ := m.Toggle(protocol.RC5); !on {
		t.Fatal("default auto toggle was not used")
	}
	if tx.frames != 1 {
		t.Fatalf("frames = %d, want 1", tx.frames)
	}
}

func TestManagerMaxRepeats(t *testing.T) {
	tx := &countingTx{}
	m := newManager(tx, WithMaxRepeats(5))
	ctx := context.Background()

	err := m.Send(ctx, Request{Protocol: protocol.NEC, Address: 1, Command: 1, Repeats: 6})
	if !errors.Is(err, protocol.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if tx.frames != 0 {
		t.Fatal("a rejected hold must not transmit")
	}
	if err := m.Send(ctx, Request{Protocol: protocol.NEC, Address: 1, Command: 1, Repeats: 5}); err != nil {
		t.Fatalf("Send at the limit: %v", err)
	}
}
