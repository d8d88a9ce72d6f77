package encoder

import "github.com/dbehnke/ir-nexus/pkg/protocol"

// NEC protocol references
// https://www.sbprojects.net/knowledge/ir/nec.php
// https://techdocs.altium.com/display/FPGA/NEC+Infrared+Transmission+Protocol

func (e *Encoder) encodeNEC(f *frame, cmd Command) error {
	addr, command, err := e.fields(cmd)
	if err != nil {
		return err
	}
	if cmd.Repeat {
		f.repeatCode()
		return nil
	}
	f.header()
	f.lsbFirst(addr, 8)
	f.lsbFirst(^addr, 8)
	f.lsbFirst(command, 8)
	f.lsbFirst(^command, 8)
	f.stop(0)
	return nil
}

func (e *Encoder) encodeNECExt(f *frame, cmd Command) error {
	addr, command, err := e.fields(cmd)
	if err != nil {
		return err
	}
	if cmd.Repeat {
		f.repeatCode()
		return nil
	}
	f.header()
	f.lsbFirst(addr, 16)
	f.lsbFirst(command, 8)
	f.lsbFirst(^command, 8)
	f.stop(0)
	return nil
}

// Samsung32 uses NEC bit timings with a 4.5ms header. The 16-bit address
// goes out as given: remotes with an 8-bit device code repeat it in the high
// byte, so callers pass 0x0707 for device 0x07.
func (e *Encoder) encodeSamsung(f *frame, cmd Command) error {
	addr, command, err := e.fields(cmd)
	if err != nil {
		return err
	}
	f.header()
	f.lsbFirst(addr, 16)
	f.lsbFirst(command, 8)
	f.lsbFirst(^command, 8)
	f.stop(0)
	return nil
}

// Aiwa is a 42-bit NEC variant: 13-bit custom code, its inverse, then the
// command and its inverse
func (e *Encoder) encodeAiwa(f *frame, cmd Command) error {
	addr, command, err := e.fields(cmd)
	if err != nil {
		return err
	}
	if cmd.Repeat {
		f.repeatCode()
		return nil
	}
	f.header()
	f.lsbFirst(addr, 13)
	f.lsbFirst(^addr, 13)
	f.lsbFirst(command, 8)
	f.lsbFirst(^command, 8)
	f.stop(0)
	return nil
}

// SplitRawNECData breaks a raw 32-bit NEC code (LSB first on air:
// address low, address high, command, inverted command) into its parts.
// valid is false when the command inverse does not check.
func SplitRawNECData(data uint32) (valid bool, address uint16, command byte) {
	addrLow := byte(data & 0xff)
	addrHigh := byte((data & 0xff00) >> 8)
	command = byte((data & 0xff0000) >> 16)
	invCmd := byte((data & 0xff000000) >> 24)
	address = MakeNECAddress(addrLow, addrHigh)
	return command == ^invCmd, address, command
}

// MakeRawNECData assembles a raw NEC code from an address and command
func MakeRawNECData(address uint16, command byte) uint32 {
	addrLow, addrHigh := SplitNECAddress(address)
	return (uint32(^command) << 24) | (uint32(command) << 16) | (uint32(addrHigh) << 8) | uint32(addrLow)
}

// SplitNECAddress splits an address into the two bytes sent on air. An
// 8-bit address gets its inverse as the high byte.
func SplitNECAddress(address uint16) (addrLow, addrHigh byte) {
	addrLow = byte(address & 0xff)
	addrHigh = byte((address & 0xff00) >> 8)
	if addrHigh == 0 {
		addrHigh = ^addrLow
	}
	return addrLow, addrHigh
}

// MakeNECAddress reassembles an address from its two on-air bytes. A high
// byte equal to the inverse of the low byte cannot be told apart from an
// 8-bit address with inverse validation, so it is reported as 8-bit.
func MakeNECAddress(addrLow, addrHigh byte) uint16 {
	if addrHigh == ^addrLow {
		return uint16(addrLow)
	}
	return (uint16(addrHigh) << 8) | uint16(addrLow)
}

// CommandFromRawNEC turns a captured raw NEC code into a Command, picking
// NEC or NEC_EXT from the address form. ok is false when the command
// inverse does not check.
func CommandFromRawNEC(data uint32) (Command, bool) {
	valid, address, command := SplitRawNECData(data)
	if !valid {
		return Command{}, false
	}
	p := protocol.NEC
	if address > 0xFF {
		p = protocol.NECExt
	}
	return Command{Protocol: p, Address: uint32(address), Command: uint32(command)}, true
}
