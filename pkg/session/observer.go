package session

import (
	"time"

	"github.com/dbehnke/ir-nexus/pkg/protocol"
)

// Report describes one frame handed to the transmitter, or an encode
// failure that stopped a press before any frame went out (Symbols == 0).
type Report struct {
	Protocol protocol.Protocol `json:"protocol"`
	Address  uint32            `json:"address"`
	Command  uint32            `json:"command"`
	Toggle   bool              `json:"toggle"`
	Repeat   bool              `json:"repeat"`
	Frame    int               `json:"frame"`
	Symbols  int               `json:"symbols"`
	Airtime  time.Duration     `json:"airtime_ns"`
	Err      error             `json:"-"`
	Time     time.Time         `json:"time"`
}

// ErrorText returns the failure text, empty on success
func (r Report) ErrorText() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Observer is notified synchronously after every frame. Implementations
// must not block: they run between frames of a key press.
type Observer interface {
	FrameSent(Report)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Report)

// FrameSent calls f(r)
func (f ObserverFunc) FrameSent(r Report) { f(r) }
