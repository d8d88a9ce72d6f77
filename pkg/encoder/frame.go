package encoder

import "github.com/dbehnke/ir-nexus/pkg/protocol"

// frame appends symbols for one protocol using its timing table
type frame struct {
	buf []Symbol
	t   protocol.Timing
}

func (f *frame) emit(mark, space uint32) {
	f.buf = append(f.buf, Symbol{Mark: mark, Space: space})
}

// header emits the optional preamble and header symbols
func (f *frame) header() {
	if f.t.PreambleMark != 0 {
		f.emit(f.t.PreambleMark, f.t.PreambleSpace)
	}
	if f.t.HasHeader() {
		f.emit(f.t.HeaderMark, f.t.HeaderSpace)
	}
}

// bit emits one pulse-distance or pulse-width coded bit. Which of the two
// it is depends only on the timing table: distance protocols vary the
// space, width protocols (Sony) vary the mark.
func (f *frame) bit(one bool) {
	if one {
		f.emit(f.t.OneMark, f.t.OneSpace)
	} else {
		f.emit(f.t.ZeroMark, f.t.ZeroSpace)
	}
}

func (f *frame) lsbFirst(v uint32, n int) {
	for i := 0; i < n; i++ {
		f.bit(v&(1<<i) != 0)
	}
}

func (f *frame) msbFirst(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		f.bit(v&(1<<i) != 0)
	}
}

// stop emits the trailing stop mark followed by space
func (f *frame) stop(space uint32) {
	f.emit(f.t.StopMark, space)
}

// repeatCode emits the NEC-style repeat frame: long mark, short space, stop
func (f *frame) repeatCode() {
	f.emit(f.t.RepeatMark, f.t.RepeatSpace)
	f.stop(0)
}

// manchester collects carrier levels and folds runs of equal level into
// mark/space symbols. Leading idle time is not emitted.
type manchester struct {
	f       *frame
	mark    uint32
	space   uint32
	started bool
	inSpace bool
}

func (m *manchester) level(on bool, d uint32) {
	if on {
		switch {
		case !m.started:
			m.started = true
			m.mark = d
		case m.inSpace:
			m.f.emit(m.mark, m.space)
			m.mark, m.space, m.inSpace = d, 0, false
		default:
			m.mark += d
		}
		return
	}
	if !m.started {
		return
	}
	m.space += d
	m.inSpace = true
}

// bit encodes one Manchester bit of width 2*half. markFirst selects the
// half that carries the carrier when the bit is one.
func (m *manchester) bit(one, markFirst bool, half uint32) {
	first := one == markFirst
	m.level(first, half)
	m.level(!first, half)
}

func (m *manchester) flush() {
	if m.started {
		m.f.emit(m.mark, m.space)
	}
	m.started, m.inSpace = false, false
	m.mark, m.space = 0, 0
}
