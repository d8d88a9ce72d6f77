// Package remote is the shared entry point for everything that wants to
// send IR: it owns one session per protocol and serializes callers.
package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/dbehnke/ir-nexus/pkg/encoder"
	"github.com/dbehnke/ir-nexus/pkg/logger"
	"github.com/dbehnke/ir-nexus/pkg/protocol"
	"github.com/dbehnke/ir-nexus/pkg/session"
)

// Request is one send as it arrives from HTTP, MQTT or the CLI
type Request struct {
	Protocol   protocol.Protocol `json:"protocol"`
	Address    uint32            `json:"address"`
	Command    uint32            `json:"command"`
	AutoToggle bool              `json:"auto_toggle,omitempty"`
	Repeats    int               `json:"repeats,omitempty"`
}

// Message is the wire form of a Request. Protocol and AutoToggle may be
// left out and then take the manager's defaults. ID is echoed back by
// transports that report results.
type Message struct {
	ID         string             `json:"id,omitempty"`
	Protocol   *protocol.Protocol `json:"protocol,omitempty"`
	Address    uint32             `json:"address"`
	Command    uint32             `json:"command"`
	AutoToggle *bool              `json:"auto_toggle,omitempty"`
	Repeats    int                `json:"repeats,omitempty"`
}

// Manager owns the sessions and the transmitter they share
type Manager struct {
	enc *encoder.Encoder
	tx  session.Transmitter

	defaultProtocol protocol.Protocol
	defaultToggle   bool
	maxRepeats      int

	sessions map[protocol.Protocol]*session.Session
	opts     []session.Option
	log      *logger.Logger
	mu       sync.Mutex

	observers []session.Observer
	obsMu     sync.RWMutex
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger for the manager and its sessions
func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) {
		m.log = l.WithComponent("remote")
		m.opts = append(m.opts, session.WithLogger(l))
	}
}

// WithObserver attaches an observer to every session
func WithObserver(o session.Observer) Option {
	return func(m *Manager) { m.observers = append(m.observers, o) }
}

// WithDefaults sets what a Message gets when it leaves out protocol or
// auto_toggle
func WithDefaults(p protocol.Protocol, autoToggle bool) Option {
	return func(m *Manager) {
		m.defaultProtocol = p
		m.defaultToggle = autoToggle
	}
}

// WithMaxRepeats rejects holds longer than n repeat frames. Zero means no cap.
func WithMaxRepeats(n int) Option {
	return func(m *Manager) { m.maxRepeats = n }
}

// WithSessionOptions passes extra options to every session created
func WithSessionOptions(opts ...session.Option) Option {
	return func(m *Manager) { m.opts = append(m.opts, opts...) }
}

// NewManager creates a manager; sessions are created on first use
func NewManager(enc *encoder.Encoder, tx session.Transmitter, opts ...Option) *Manager {
	m := &Manager{
		enc:      enc,
		tx:       tx,
		sessions: make(map[protocol.Protocol]*session.Session),
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddObserver attaches o to existing and future sessions
func (m *Manager) AddObserver(o session.Observer) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	m.observers = append(m.observers, o)
}

// FrameSent fans a session report out to the attached observers
func (m *Manager) FrameSent(r session.Report) {
	m.obsMu.RLock()
	defer m.obsMu.RUnlock()
	for _, o := range m.observers {
		o.FrameSent(r)
	}
}

// Resolve fills in the defaults msg leaves out
func (m *Manager) Resolve(msg Message) Request {
	req := Request{
		Protocol:   m.defaultProtocol,
		Address:    msg.Address,
		Command:    msg.Command,
		AutoToggle: m.defaultToggle,
		Repeats:    msg.Repeats,
	}
	if msg.Protocol != nil {
		req.Protocol = *msg.Protocol
	}
	if msg.AutoToggle != nil {
		req.AutoToggle = *msg.AutoToggle
	}
	return req
}

// SendMessage resolves msg and sends it, returning the request it ran
func (m *Manager) SendMessage(ctx context.Context, msg Message) (Request, error) {
	req := m.Resolve(msg)
	return req, m.Send(ctx, req)
}

// Send transmits req. Only one send runs at a time across all protocols.
func (m *Manager) Send(ctx context.Context, req Request) error {
	if req.Repeats < 0 {
		return fmt.Errorf("%w: %d repeats", protocol.ErrInvalidArgument, req.Repeats)
	}
	if m.maxRepeats > 0 && req.Repeats > m.maxRepeats {
		return fmt.Errorf("%w: %d repeats exceeds the limit of %d",
			protocol.ErrInvalidArgument, req.Repeats, m.maxRepeats)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sessionLocked(req.Protocol)
	if err != nil {
		return err
	}

	switch {
	case req.Repeats > 0:
		err = s.Hold(ctx, req.Address, req.Command, req.Repeats)
	case req.AutoToggle:
		err = s.SendWithAutoToggle(ctx, req.Address, req.Command)
	default:
		err = s.Send(ctx, req.Address, req.Command)
	}
	if err != nil {
		m.log.Warn("Send failed",
			logger.String("protocol", req.Protocol.String()),
			logger.Hex("address", req.Address),
			logger.Hex("command", req.Command),
			logger.Error(err))
		return err
	}
	return nil
}

// ResetToggle clears the toggle of p's session
func (m *Manager) ResetToggle(p protocol.Protocol) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sessionLocked(p)
	if err != nil {
		return err
	}
	s.ResetToggle()
	return nil
}

// Toggle reports the toggle p's next frame will carry
func (m *Manager) Toggle(p protocol.Protocol) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sessionLocked(p)
	if err != nil {
		return false, err
	}
	return s.Toggle(), nil
}

// Encode returns the symbols for cmd without transmitting
func (m *Manager) Encode(cmd encoder.Command) ([]encoder.Symbol, error) {
	return m.enc.Encode(cmd)
}

// Protocols lists every protocol a request may name
func (m *Manager) Protocols() []protocol.Protocol {
	return protocol.All()
}

func (m *Manager) sessionLocked(p protocol.Protocol) (*session.Session, error) {
	if s, ok := m.sessions[p]; ok {
		return s, nil
	}

	opts := make([]session.Option, 0, len(m.opts)+1)
	opts = append(opts, m.opts...)
	opts = append(opts, session.WithObserver(m))
	s, err := session.New(p, m.enc, m.tx, opts...)
	if err != nil {
		return nil, err
	}
	m.sessions[p] = s
	m.log.Debug("Session created", logger.String("protocol", p.String()))
	return s, nil
}
