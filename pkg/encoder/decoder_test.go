package encoder

import (
	"github.com/dbehnke/ir-nexus/pkg/protocol"
)

// Reference software decoder used by the round-trip tests. It only
// understands exact timings, which is all the encoder ever produces.

// distanceBits decodes pulse-distance or pulse-width symbols against tm.
// ok is false on the first symbol that is neither a one nor a zero.
func distanceBits(tm protocol.Timing, syms []Symbol) (bits []bool, ok bool) {
	for _, s := range syms {
		switch {
		case s.Mark == tm.OneMark && s.Space == tm.OneSpace:
			bits = append(bits, true)
		case s.Mark == tm.ZeroMark && s.Space == tm.ZeroSpace:
			bits = append(bits, false)
		default:
			return bits, false
		}
	}
	return bits, true
}

func lsbValue(bits []bool) uint32 {
	var v uint32
	for i, b := range bits {
		if b {
			v |= 1 << i
		}
	}
	return v
}

func msbValue(bits []bool) uint32 {
	var v uint32
	for _, b := range bits {
		v <<= 1
		if b {
			v |= 1
		}
	}
	return v
}

// halfLevels expands symbols into carrier levels of width unit each. A
// duration that is not a multiple of unit is rounded down.
func halfLevels(unit uint32, syms []Symbol) []bool {
	var out []bool
	for _, s := range syms {
		for i := uint32(0); i < s.Mark/unit; i++ {
			out = append(out, true)
		}
		for i := uint32(0); i < s.Space/unit; i++ {
			out = append(out, false)
		}
	}
	return out
}

// manchesterBits decodes n bits of width 2 halves starting at levels[from].
// markFirst gives the level of the first half of a one.
func manchesterBits(levels []bool, from, n int, markFirst bool) (bits []bool, ok bool) {
	for i := 0; i < n; i++ {
		a, b := levelAt(levels, from+2*i), levelAt(levels, from+2*i+1)
		if a == b {
			return bits, false
		}
		bits = append(bits, a == markFirst)
	}
	return bits, true
}

// levelAt treats anything past the end as idle
func levelAt(levels []bool, i int) bool {
	if i < 0 || i >= len(levels) {
		return false
	}
	return levels[i]
}

// decodeRC5 recovers the 14-bit word. The leading idle half of S1 is not
// transmitted so one idle half is put back in front.
func decodeRC5(syms []Symbol) (uint16, bool) {
	levels := append([]bool{false}, halfLevels(rc5Unit(), syms)...)
	bits, ok := manchesterBits(levels, 0, rc5FrameBits, false)
	if !ok {
		return 0, false
	}
	return uint16(msbValue(bits)), true
}

func rc5Unit() uint32 {
	tm, _ := protocol.TimingFor(protocol.RC5)
	return tm.Unit
}

type rc6Frame struct {
	start   bool
	mode    uint32
	toggle  bool
	address uint32
	command uint32
}

func decodeRC6(syms []Symbol) (rc6Frame, bool) {
	tm, _ := protocol.TimingFor(protocol.RC6)
	levels := halfLevels(tm.Unit, syms)

	// 6t leader mark and 2t space
	for i := 0; i < 8; i++ {
		if levelAt(levels, i) != (i < 6) {
			return rc6Frame{}, false
		}
	}
	head, ok := manchesterBits(levels, 8, 4, true)
	if !ok {
		return rc6Frame{}, false
	}
	// toggle is one bit of four halves
	t0, t1, t2, t3 := levelAt(levels, 16), levelAt(levels, 17), levelAt(levels, 18), levelAt(levels, 19)
	if t0 != t1 || t2 != t3 || t0 == t2 {
		return rc6Frame{}, false
	}
	body, ok := manchesterBits(levels, 20, 16, true)
	if !ok {
		return rc6Frame{}, false
	}
	return rc6Frame{
		start:   head[0],
		mode:    msbValue(head[1:]),
		toggle:  t0,
		address: msbValue(body[:8]),
		command: msbValue(body[8:]),
	}, true
}
