package encoder

import (
	"fmt"
	"time"

	"github.com/dbehnke/ir-nexus/pkg/protocol"
)

// Symbol is one mark/space pair in microseconds, the unit handed to a
// pulse generator. A zero Space is legal and ends a frame on a mark.
type Symbol struct {
	Mark  uint32 `json:"mark"`
	Space uint32 `json:"space"`
}

func (s Symbol) String() string {
	return fmt.Sprintf("(%d, %d)", s.Mark, s.Space)
}

// Command is one transmission request
type Command struct {
	Protocol protocol.Protocol `json:"protocol"`
	Address  uint32            `json:"address"`
	Command  uint32            `json:"command"`

	// Repeat selects the protocol's repeat frame (NEC repeat code, JVC
	// headerless frame). Protocols without one encode the full frame.
	Repeat bool `json:"repeat,omitempty"`

	// Toggle is only used by RC5 and RC6
	Toggle bool `json:"toggle,omitempty"`

	// Bits picks the Sony variant: 12, 15 or 20. Zero means 12.
	Bits int `json:"bits,omitempty"`
}

// Duration returns the total airtime of symbols
func Duration(symbols []Symbol) time.Duration {
	var us uint64
	for _, s := range symbols {
		us += uint64(s.Mark) + uint64(s.Space)
	}
	return time.Duration(us) * time.Microsecond
}
