//go:build !tinygo && !baremetal

package stub

import "sync"

// Interrupt states handed out by Interrupts
const (
	StateDisabled uintptr = 0
	StateEnabled  uintptr = 1
)

// Interrupts is a fake global interrupt mask. It starts enabled.
type Interrupts struct {
	mu       sync.Mutex
	state    uintptr
	disables int
	restores int
}

// NewInterrupts returns a controller with interrupts enabled
func NewInterrupts() *Interrupts {
	return &Interrupts{state: StateEnabled}
}

// Disable masks interrupts and returns the previous state
func (i *Interrupts) Disable() uintptr {
	i.mu.Lock()
	defer i.mu.Unlock()
	prev := i.state
	i.state = StateDisabled
	i.disables++
	return prev
}

// Restore puts back a state returned by Disable
func (i *Interrupts) Restore(state uintptr) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state = state
	i.restores++
}

// Set forces the current state, as if changed outside the transmitter
func (i *Interrupts) Set(state uintptr) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state = state
}

// State returns the current mask state
func (i *Interrupts) State() uintptr {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Counts returns how many times Disable and Restore were called
func (i *Interrupts) Counts() (disables, restores int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.disables, i.restores
}
