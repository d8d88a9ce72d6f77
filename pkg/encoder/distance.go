package encoder

// Pulse-distance protocols that need no more than a header, a fixed bit
// layout and a stop mark.

func (e *Encoder) encodeJVC(f *frame, cmd Command) error {
	addr, command, err := e.fields(cmd)
	if err != nil {
		return err
	}
	// JVC repeats are the same frame without its header
	if !cmd.Repeat {
		f.header()
	}
	f.lsbFirst(addr, 8)
	f.lsbFirst(command, 8)
	f.stop(0)
	return nil
}

// LGChecksum is the low nibble of the sum of the four command nibbles
func LGChecksum(command uint16) uint8 {
	var sum uint16
	for c := command; c != 0; c >>= 4 {
		sum += c & 0xF
	}
	return uint8(sum & 0xF)
}

func (e *Encoder) encodeLG(f *frame, cmd Command) error {
	addr, command, err := e.fields(cmd)
	if err != nil {
		return err
	}
	if cmd.Repeat {
		f.repeatCode()
		return nil
	}
	f.header()
	f.msbFirst(addr, 8)
	f.msbFirst(command, 16)
	f.msbFirst(uint32(LGChecksum(uint16(command))), 4)
	f.stop(0)
	return nil
}

func (e *Encoder) encodeMitsubishi(f *frame, cmd Command) error {
	addr, command, err := e.fields(cmd)
	if err != nil {
		return err
	}
	f.msbFirst(addr, 8)
	f.msbFirst(command, 8)
	f.stop(0)
	return nil
}

// Dish Network sends the 6-bit command ahead of the 10-bit address
func (e *Encoder) encodeDish(f *frame, cmd Command) error {
	addr, command, err := e.fields(cmd)
	if err != nil {
		return err
	}
	f.header()
	f.msbFirst(command, 6)
	f.msbFirst(addr, 10)
	f.stop(0)
	return nil
}

func (e *Encoder) encodeWhynter(f *frame, cmd Command) error {
	_, command, err := e.fields(cmd)
	if err != nil {
		return err
	}
	f.header()
	f.msbFirst(command, 32)
	f.stop(0)
	return nil
}

// Coolix sends its 24-bit frame twice, separated by the footer gap
func (e *Encoder) encodeCoolix(f *frame, cmd Command) error {
	_, command, err := e.fields(cmd)
	if err != nil {
		return err
	}
	f.header()
	f.lsbFirst(command, 24)
	f.stop(f.t.FrameGap)
	f.header()
	f.lsbFirst(command, 24)
	f.stop(0)
	return nil
}
