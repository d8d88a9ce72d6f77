package protocol

import "strings"

// Protocol identifies a consumer infrared protocol
type Protocol uint8

// Supported protocols. Generic is the fallback returned by FromName for
// names that match nothing; it has no encoder.
const (
	NEC Protocol = iota
	NECExt
	Sony
	RC5
	RC6
	Samsung
	Panasonic
	JVC
	LG
	Mitsubishi
	Sharp
	Dish
	Aiwa
	Denon
	Kaseikyo
	Whynter
	Coolix
	Generic

	protocolCount
)

// Info describes a protocol's framing as seen by callers
type Info struct {
	Name             string `json:"name"`
	DefaultCarrierHz uint32 `json:"default_carrier_hz"`
	AddressBits      int    `json:"address_bits"`
	CommandBits      int    `json:"command_bits"`
	HasRepeat        bool   `json:"has_repeat"`
	Description      string `json:"description"`
}

var registry = [protocolCount]Info{
	NEC: {
		Name: "NEC", DefaultCarrierHz: 38000, AddressBits: 8, CommandBits: 8, HasRepeat: true,
		Description: "NEC 32-bit, address and command each followed by their inverse",
	},
	NECExt: {
		Name: "NEC_EXT", DefaultCarrierHz: 38000, AddressBits: 16, CommandBits: 8, HasRepeat: true,
		Description: "NEC extended, 16-bit address without inversion",
	},
	Sony: {
		Name: "SONY", DefaultCarrierHz: 40000, AddressBits: 13, CommandBits: 7, HasRepeat: true,
		Description: "Sony SIRC 12/15/20-bit pulse-width coding, sent three times",
	},
	RC5: {
		Name: "RC5", DefaultCarrierHz: 36000, AddressBits: 5, CommandBits: 7, HasRepeat: false,
		Description: "Philips RC5/RC5X Manchester coding with toggle bit",
	},
	RC6: {
		Name: "RC6", DefaultCarrierHz: 36000, AddressBits: 8, CommandBits: 8, HasRepeat: false,
		Description: "Philips RC6 mode 0 with double-width toggle bit",
	},
	Samsung: {
		Name: "SAMSUNG", DefaultCarrierHz: 38000, AddressBits: 16, CommandBits: 8, HasRepeat: false,
		Description: "Samsung 32-bit, NEC-like bits with a 4.5ms header",
	},
	Panasonic: {
		Name: "PANASONIC", DefaultCarrierHz: 37000, AddressBits: 16, CommandBits: 32, HasRepeat: false,
		Description: "Panasonic 48-bit Kaseikyo frame, vendor 0x2002",
	},
	JVC: {
		Name: "JVC", DefaultCarrierHz: 38000, AddressBits: 8, CommandBits: 8, HasRepeat: true,
		Description: "JVC 16-bit, repeats omit the header",
	},
	LG: {
		Name: "LG", DefaultCarrierHz: 38000, AddressBits: 8, CommandBits: 16, HasRepeat: true,
		Description: "LG 28-bit with 4-bit command checksum",
	},
	Mitsubishi: {
		Name: "MITSUBISHI", DefaultCarrierHz: 33000, AddressBits: 8, CommandBits: 8, HasRepeat: false,
		Description: "Mitsubishi TV 16-bit headerless, sent twice",
	},
	Sharp: {
		Name: "SHARP", DefaultCarrierHz: 38000, AddressBits: 5, CommandBits: 8, HasRepeat: false,
		Description: "Sharp 15-bit headerless with expansion and parity bits",
	},
	Dish: {
		Name: "DISH", DefaultCarrierHz: 57600, AddressBits: 10, CommandBits: 6, HasRepeat: false,
		Description: "Dish Network 16-bit at 57.6kHz",
	},
	Aiwa: {
		Name: "AIWA", DefaultCarrierHz: 38000, AddressBits: 13, CommandBits: 8, HasRepeat: true,
		Description: "Aiwa 42-bit, 13-bit custom code and command with inverses",
	},
	Denon: {
		Name: "DENON", DefaultCarrierHz: 38000, AddressBits: 5, CommandBits: 8, HasRepeat: false,
		Description: "Denon 15-bit, second frame carries the inverted command",
	},
	Kaseikyo: {
		Name: "KASEIKYO", DefaultCarrierHz: 37000, AddressBits: 16, CommandBits: 32, HasRepeat: false,
		Description: "Kaseikyo 48-bit, 16-bit vendor word plus 32-bit data",
	},
	Whynter: {
		Name: "WHYNTER", DefaultCarrierHz: 38000, AddressBits: 0, CommandBits: 32, HasRepeat: false,
		Description: "Whynter 32-bit air conditioner protocol",
	},
	Coolix: {
		Name: "COOLIX", DefaultCarrierHz: 38000, AddressBits: 0, CommandBits: 24, HasRepeat: false,
		Description: "Coolix 24-bit air conditioner protocol, frame sent twice",
	},
	Generic: {
		Name: "GENERIC", DefaultCarrierHz: 38000, AddressBits: 0, CommandBits: 0, HasRepeat: false,
		Description: "Fallback for unrecognised names; not encodable",
	},
}

// Lookup returns the static description of p. The second result is false
// when p is outside the enumerated range.
func Lookup(p Protocol) (Info, bool) {
	if p >= protocolCount {
		return Info{}, false
	}
	return registry[p], true
}

// String returns the registry name
func (p Protocol) String() string {
	if p >= protocolCount {
		return "UNKNOWN"
	}
	return registry[p].Name
}

// Valid reports whether p is inside the enumerated range
func (p Protocol) Valid() bool {
	return p < protocolCount
}

// FromName matches name against the registry ignoring case, '-', '_' and
// spaces. It is best-effort: anything unrecognised comes back as Generic,
// never as an error. Use ParseName when a typo must be reported.
func FromName(name string) Protocol {
	if p, ok := ParseName(name); ok {
		return p
	}
	return Generic
}

// ParseName is the strict counterpart of FromName
func ParseName(name string) (Protocol, bool) {
	key := normalizeName(name)
	if key == "" {
		return Generic, false
	}
	for p := Protocol(0); p < protocolCount; p++ {
		if normalizeName(registry[p].Name) == key {
			return p, true
		}
	}
	if p, ok := aliases[key]; ok {
		return p, true
	}
	return Generic, false
}

var aliases = map[string]Protocol{
	"NECEXTENDED": NECExt,
	"SIRC":        Sony,
	"RC5X":        RC5,
	"SAMSUNG32":   Samsung,
	"PANASONIC48": Panasonic,
}

func normalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToUpper(strings.TrimSpace(name)) {
		switch r {
		case '-', '_', ' ':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// All returns every encodable protocol in enum order
func All() []Protocol {
	out := make([]Protocol, 0, protocolCount-1)
	for p := Protocol(0); p < protocolCount; p++ {
		if p == Generic {
			continue
		}
		out = append(out, p)
	}
	return out
}

// MarshalText implements encoding.TextMarshaler so protocols serialize by name
func (p Protocol) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using the strict parser
func (p *Protocol) UnmarshalText(text []byte) error {
	parsed, ok := ParseName(string(text))
	if !ok {
		return &UnknownNameError{Name: string(text)}
	}
	*p = parsed
	return nil
}

// UnknownNameError reports a protocol name that matched nothing
type UnknownNameError struct {
	Name string
}

func (e *UnknownNameError) Error() string {
	return "unknown protocol " + `"` + e.Name + `"`
}

// Unwrap lets errors.Is match ErrNotFound
func (e *UnknownNameError) Unwrap() error {
	return ErrNotFound
}
