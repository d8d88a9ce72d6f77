package encoder

// Sharp and Denon share one headerless 15-bit layout: 5-bit address and
// 8-bit command MSB first, then two trailing bits.

// SharpParity returns the even-parity check bit over address and command
func SharpParity(address, command uint32) bool {
	v := address&0x1F | (command&0xFF)<<5
	v ^= v >> 8
	v ^= v >> 4
	v ^= v >> 2
	v ^= v >> 1
	return v&1 != 0
}

func (e *Encoder) encodeSharp(f *frame, cmd Command) error {
	addr, command, err := e.fields(cmd)
	if err != nil {
		return err
	}
	f.msbFirst(addr, 5)
	f.msbFirst(command, 8)
	f.bit(false) // expansion
	f.bit(SharpParity(addr, command))
	f.stop(0)
	return nil
}

// Denon sends the frame with frame bits 00, waits the inter-frame gap, then
// sends it again with the command inverted and frame bits 11.
func (e *Encoder) encodeDenon(f *frame, cmd Command) error {
	addr, command, err := e.fields(cmd)
	if err != nil {
		return err
	}
	f.msbFirst(addr, 5)
	f.msbFirst(command, 8)
	f.msbFirst(0, 2)
	f.stop(f.t.FrameGap)

	f.msbFirst(addr, 5)
	f.msbFirst(^command, 8)
	f.msbFirst(3, 2)
	f.stop(0)
	return nil
}
