package encoder

import (
	"fmt"

	"github.com/dbehnke/ir-nexus/pkg/protocol"
)

// Policy decides what happens to an address or command wider than the
// protocol allows
type Policy int

const (
	// Strict rejects out-of-range values with protocol.ErrInvalidArgument
	Strict Policy = iota
	// Mask silently drops the excess high bits
	Mask
)

func (p Policy) String() string {
	if p == Mask {
		return "mask"
	}
	return "strict"
}

// ParsePolicy maps a config string onto a Policy
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "strict":
		return Strict, nil
	case "mask":
		return Mask, nil
	}
	return Strict, fmt.Errorf("%w: validation policy %q", protocol.ErrInvalidArgument, s)
}

// Encoder turns commands into symbol sequences. It holds no per-call state
// and is safe for concurrent use.
type Encoder struct {
	policy Policy
}

// Option configures an Encoder
type Option func(*Encoder)

// WithPolicy sets the validation policy
func WithPolicy(p Policy) Option {
	return func(e *Encoder) { e.policy = p }
}

// New creates an Encoder, strict by default
func New(opts ...Option) *Encoder {
	e := &Encoder{policy: Strict}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the validation policy in use
func (e *Encoder) Policy() Policy {
	return e.policy
}

// minSymbols is the worst-case symbol count per protocol. Callers of
// EncodeInto must supply at least this many.
var minSymbols = map[protocol.Protocol]int{
	protocol.NEC:        34, // header + 32 bits + stop
	protocol.NECExt:     34,
	protocol.Sony:       21, // header + 20 bits (SIRC-20)
	protocol.RC5:        14, // at most one mark per Manchester bit
	protocol.RC6:        22, // header + 21 Manchester bits
	protocol.Samsung:    34,
	protocol.Panasonic:  49, // header + 48 bits
	protocol.JVC:        18,
	protocol.LG:         30,
	protocol.Mitsubishi: 17,
	protocol.Sharp:      16,
	protocol.Dish:       18,
	protocol.Aiwa:       44,
	protocol.Denon:      32, // two frames
	protocol.Kaseikyo:   49,
	protocol.Whynter:    35,
	protocol.Coolix:     52, // frame sent twice
}

// MinSymbols returns the buffer size EncodeInto needs for p
func MinSymbols(p protocol.Protocol) (int, bool) {
	n, ok := minSymbols[p]
	return n, ok
}

// Encode returns a freshly allocated symbol sequence for cmd
func (e *Encoder) Encode(cmd Command) ([]Symbol, error) {
	n, ok := MinSymbols(cmd.Protocol)
	if !ok {
		return nil, unsupported(cmd.Protocol)
	}
	buf := make([]Symbol, n)
	written, err := e.EncodeInto(buf, cmd)
	if err != nil {
		return nil, err
	}
	return buf[:written], nil
}

// EncodeInto writes the symbols for cmd into dst and returns how many were
// written. It fails without touching dst when len(dst) is below
// MinSymbols, when the protocol has no encoder, or (under Strict) when the
// address or command does not fit the protocol's bit widths.
func (e *Encoder) EncodeInto(dst []Symbol, cmd Command) (int, error) {
	n, ok := MinSymbols(cmd.Protocol)
	if !ok {
		return 0, unsupported(cmd.Protocol)
	}
	if len(dst) < n {
		return 0, fmt.Errorf("%w: %s needs %d symbols, got %d",
			protocol.ErrBufferTooSmall, cmd.Protocol, n, len(dst))
	}

	tm, _ := protocol.TimingFor(cmd.Protocol)
	f := &frame{buf: dst[:0:n], t: tm}

	var err error
	switch cmd.Protocol {
	case protocol.NEC:
		err = e.encodeNEC(f, cmd)
	case protocol.NECExt:
		err = e.encodeNECExt(f, cmd)
	case protocol.Sony:
		err = e.encodeSony(f, cmd)
	case protocol.RC5:
		err = e.encodeRC5(f, cmd)
	case protocol.RC6:
		err = e.encodeRC6(f, cmd)
	case protocol.Samsung:
		err = e.encodeSamsung(f, cmd)
	case protocol.Panasonic, protocol.Kaseikyo:
		err = e.encodeKaseikyo(f, cmd)
	case protocol.JVC:
		err = e.encodeJVC(f, cmd)
	case protocol.LG:
		err = e.encodeLG(f, cmd)
	case protocol.Mitsubishi:
		err = e.encodeMitsubishi(f, cmd)
	case protocol.Sharp:
		err = e.encodeSharp(f, cmd)
	case protocol.Dish:
		err = e.encodeDish(f, cmd)
	case protocol.Aiwa:
		err = e.encodeAiwa(f, cmd)
	case protocol.Denon:
		err = e.encodeDenon(f, cmd)
	case protocol.Whynter:
		err = e.encodeWhynter(f, cmd)
	case protocol.Coolix:
		err = e.encodeCoolix(f, cmd)
	default:
		return 0, unsupported(cmd.Protocol)
	}
	if err != nil {
		return 0, err
	}
	return len(f.buf), nil
}

func unsupported(p protocol.Protocol) error {
	return fmt.Errorf("%w: %s", protocol.ErrUnsupportedProtocol, p)
}

// fields validates address and command against the registry widths and
// returns them masked
func (e *Encoder) fields(cmd Command) (addr, command uint32, err error) {
	info, _ := protocol.Lookup(cmd.Protocol)
	return e.fieldsWidth(cmd, info.AddressBits, info.CommandBits)
}

func (e *Encoder) fieldsWidth(cmd Command, addrBits, cmdBits int) (addr, command uint32, err error) {
	addr, err = e.check(cmd.Protocol, "address", cmd.Address, addrBits)
	if err != nil {
		return 0, 0, err
	}
	command, err = e.check(cmd.Protocol, "command", cmd.Command, cmdBits)
	if err != nil {
		return 0, 0, err
	}
	return addr, command, nil
}

func (e *Encoder) check(p protocol.Protocol, field string, v uint32, bits int) (uint32, error) {
	m := mask(bits)
	if v&^m != 0 && e.policy == Strict {
		return 0, fmt.Errorf("%w: %s %s 0x%X exceeds %d bits",
			protocol.ErrInvalidArgument, p, field, v, bits)
	}
	return v & m, nil
}

func mask(bits int) uint32 {
	if bits >= 32 {
		return 0xFFFFFFFF
	}
	return uint32(1)<<bits - 1
}
