package encoder

// Philips RC5 and RC6 use Manchester coding. RC5 sends a one as space then
// mark, RC6 as mark then space.
// https://www.sbprojects.net/knowledge/ir/rc5.php
// https://www.sbprojects.net/knowledge/ir/rc6.php

const rc5FrameBits = 14

// RC5Word builds the 14-bit on-air RC5 frame, MSB first:
//
//	bit 13     start bit S1, always 1
//	bit 12     field bit, the inverse of command bit 6 (1 for commands < 64)
//	bit 11     toggle
//	bits 10..6 address
//	bits 5..0  low six command bits
//
// Commands 64..127 are the RC5X extension and clear the field bit.
func RC5Word(address, command uint32, toggle bool) uint16 {
	w := uint16(1) << 13
	if command&0x40 == 0 {
		w |= 1 << 12
	}
	if toggle {
		w |= 1 << 11
	}
	w |= uint16(address&0x1F) << 6
	w |= uint16(command & 0x3F)
	return w
}

func (e *Encoder) encodeRC5(f *frame, cmd Command) error {
	addr, command, err := e.fields(cmd)
	if err != nil {
		return err
	}
	word := RC5Word(addr, command, cmd.Toggle)

	m := manchester{f: f}
	for i := rc5FrameBits - 1; i >= 0; i-- {
		m.bit(word&(1<<i) != 0, false, f.t.Unit)
	}
	m.flush()
	return nil
}

// RC6 mode 0: leader, start bit, three mode bits, a toggle bit of double
// width, then 8-bit address and 8-bit command MSB first.
func (e *Encoder) encodeRC6(f *frame, cmd Command) error {
	addr, command, err := e.fields(cmd)
	if err != nil {
		return err
	}
	t := f.t.Unit

	m := manchester{f: f}
	m.level(true, f.t.HeaderMark)
	m.level(false, f.t.HeaderSpace)
	m.bit(true, true, t)
	for i := 0; i < 3; i++ {
		m.bit(false, true, t)
	}
	m.bit(cmd.Toggle, true, 2*t)
	for i := 7; i >= 0; i-- {
		m.bit(addr&(1<<i) != 0, true, t)
	}
	for i := 7; i >= 0; i-- {
		m.bit(command&(1<<i) != 0, true, t)
	}
	m.flush()
	return nil
}
