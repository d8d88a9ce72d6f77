package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/dbehnke/ir-nexus/pkg/protocol"
	"github.com/dbehnke/ir-nexus/pkg/session"
)

// Collector collects IR-Nexus metrics. It is a session.Observer.
type Collector struct {
	mu sync.RWMutex

	// Frame metrics
	framesSent   map[protocol.Protocol]uint64
	repeatFrames uint64
	symbolsSent  uint64
	airtime      time.Duration
	lastFrame    time.Time

	// Failure metrics
	encodeErrors   uint64
	transmitErrors uint64

	// Request metrics, keyed by source (http, mqtt)
	requests map[string]uint64
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		framesSent: make(map[protocol.Protocol]uint64),
		requests:   make(map[string]uint64),
	}
}

// FrameSent records a session report. Reports without symbols are encode
// failures; reports with an error are transmit failures.
func (c *Collector) FrameSent(r session.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case r.Err != nil && r.Symbols == 0:
		c.encodeErrors++
	case r.Err != nil:
		c.transmitErrors++
	default:
		c.framesSent[r.Protocol]++
		c.symbolsSent += uint64(r.Symbols)
		c.airtime += r.Airtime
		c.lastFrame = r.Time
		if r.Repeat {
			c.repeatFrames++
		}
	}
}

// RequestReceived records a send request from source
func (c *Collector) RequestReceived(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests[source]++
}

// Reset clears every metric (useful for testing)
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.framesSent = make(map[protocol.Protocol]uint64)
	c.requests = make(map[string]uint64)
	c.repeatFrames, c.symbolsSent = 0, 0
	c.encodeErrors, c.transmitErrors = 0, 0
	c.airtime = 0
	c.lastFrame = time.Time{}
}

// Getters for metrics

// GetFramesSent returns frames sent for p
func (c *Collector) GetFramesSent(p protocol.Protocol) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.framesSent[p]
}

// GetTotalFrames returns frames sent across all protocols
func (c *Collector) GetTotalFrames() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var n uint64
	for _, v := range c.framesSent {
		n += v
	}
	return n
}

// GetRepeatFrames returns how many of the frames were repeat frames
func (c *Collector) GetRepeatFrames() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.repeatFrames
}

// GetSymbolsSent returns total mark/space symbols emitted
func (c *Collector) GetSymbolsSent() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.symbolsSent
}

// GetAirtime returns the summed airtime of all frames
func (c *Collector) GetAirtime() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.airtime
}

// GetLastFrame returns when the last frame went out
func (c *Collector) GetLastFrame() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastFrame
}

// GetEncodeErrors returns the number of rejected encodes
func (c *Collector) GetEncodeErrors() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.encodeErrors
}

// GetTransmitErrors returns the number of failed transmits
func (c *Collector) GetTransmitErrors() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transmitErrors
}

// GetRequests returns requests received from source
func (c *Collector) GetRequests(source string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.requests[source]
}

type protocolCount struct {
	protocol protocol.Protocol
	count    uint64
}

// framesByProtocol returns per-protocol frame counts in enum order
func (c *Collector) framesByProtocol() []protocolCount {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]protocolCount, 0, len(c.framesSent))
	for p, n := range c.framesSent {
		out = append(out, protocolCount{p, n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].protocol < out[j].protocol })
	return out
}

// requestsBySource returns request counts sorted by source
func (c *Collector) requestsBySource() ([]string, map[string]uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.requests))
	counts := make(map[string]uint64, len(c.requests))
	for k, v := range c.requests {
		keys = append(keys, k)
		counts[k] = v
	}
	sort.Strings(keys)
	return keys, counts
}
