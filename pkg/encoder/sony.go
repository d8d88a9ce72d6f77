package encoder

import (
	"fmt"

	"github.com/dbehnke/ir-nexus/pkg/protocol"
)

// Sony SIRC: https://www.sbprojects.net/knowledge/ir/sirc.php
//
// The frame is a start mark followed by the 7-bit command and then the
// device address, both LSB first. The address is 5, 8 or 13 bits for the
// 12, 15 and 20 bit variants. There is no stop bit.

const sonyCommandBits = 7

func sonyAddressBits(bits int) (int, bool) {
	switch bits {
	case 0, 12:
		return 5, true
	case 15:
		return 8, true
	case 20:
		return 13, true
	}
	return 0, false
}

func (e *Encoder) encodeSony(f *frame, cmd Command) error {
	addrBits, ok := sonyAddressBits(cmd.Bits)
	if !ok {
		return fmt.Errorf("%w: SONY variant %d bits, want 12, 15 or 20",
			protocol.ErrInvalidArgument, cmd.Bits)
	}
	addr, command, err := e.fieldsWidth(cmd, addrBits, sonyCommandBits)
	if err != nil {
		return err
	}
	f.header()
	f.lsbFirst(command, sonyCommandBits)
	f.lsbFirst(addr, addrBits)
	return nil
}

// SonyAddress20 packs a SIRC-20 device code and its 8-bit extension into
// the 13-bit address field
func SonyAddress20(device, extended uint8) uint32 {
	return uint32(device&0x1F) | uint32(extended)<<5
}
