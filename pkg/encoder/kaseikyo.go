package encoder

// PanasonicVendor is the Kaseikyo vendor word Panasonic equipment uses
const PanasonicVendor uint16 = 0x2002

// encodeKaseikyo sends the 16-bit vendor word (the address) then the
// 32-bit data word, LSB first. Nothing is inverted or appended: the caller
// supplies the data word, typically from KaseikyoData.
func (e *Encoder) encodeKaseikyo(f *frame, cmd Command) error {
	vendor, data, err := e.fields(cmd)
	if err != nil {
		return err
	}
	f.header()
	f.lsbFirst(vendor, 16)
	f.lsbFirst(data, 32)
	return nil
}

func kaseikyoParity(vendor uint16) uint32 {
	p := uint32(vendor ^ vendor>>8)
	return (p ^ p>>4) & 0xF
}

// KaseikyoData builds the 32-bit data word that follows the vendor word:
// vendor parity nibble, 12-bit address, 8-bit command and an XOR checksum
// over the first three bytes.
func KaseikyoData(vendor, address uint16, command uint8) uint32 {
	b0 := uint32(address&0xF)<<4 | kaseikyoParity(vendor)
	b1 := uint32(address>>4) & 0xFF
	b2 := uint32(command)
	b3 := b0 ^ b1 ^ b2
	return b0 | b1<<8 | b2<<16 | b3<<24
}

// CheckKaseikyoData is the inverse of KaseikyoData. ok is false when the
// parity nibble or the checksum byte does not match.
func CheckKaseikyoData(vendor uint16, data uint32) (address uint16, command uint8, ok bool) {
	b0 := data & 0xFF
	b1 := data >> 8 & 0xFF
	b2 := data >> 16 & 0xFF
	b3 := data >> 24
	if b0&0xF != kaseikyoParity(vendor) || b3 != b0^b1^b2 {
		return 0, 0, false
	}
	return uint16(b1<<4 | b0>>4), uint8(b2), true
}
