package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dbehnke/ir-nexus/pkg/protocol"
	"github.com/dbehnke/ir-nexus/pkg/session"
)

// TestNewCollector tests creating a new metrics collector
func TestNewCollector(t *testing.T) {
	collector := NewCollector()
	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.GetTotalFrames() != 0 {
		t.Error("Expected no frames on a new collector")
	}
}

// TestCollector_FrameMetrics tests frame counters
func TestCollector_FrameMetrics(t *testing.T) {
	collector := NewCollector()
	at := time.Unix(1700000000, 0)

	collector.FrameSent(session.Report{Protocol: protocol.NEC, Symbols: 34, Airtime: 67500 * time.Microsecond, Time: at})
	collector.FrameSent(session.Report{Protocol: protocol.NEC, Repeat: true, Symbols: 2, Airtime: 11810 * time.Microsecond, Time: at.Add(time.Second)})
	collector.FrameSent(session.Report{Protocol: protocol.RC5, Symbols: 11, Airtime: 20 * time.Millisecond, Time: at})

	if got := collector.GetFramesSent(protocol.NEC); got != 2 {
		t.Errorf("Expected 2 NEC frames, got %d", got)
	}
	if got := collector.GetFramesSent(protocol.RC5); got != 1 {
		t.Errorf("Expected 1 RC5 frame, got %d", got)
	}
	if got := collector.GetTotalFrames(); got != 3 {
		t.Errorf("Expected 3 frames, got %d", got)
	}
	if got := collector.GetRepeatFrames(); got != 1 {
		t.Errorf("Expected 1 repeat frame, got %d", got)
	}
	if got := collector.GetSymbolsSent(); got != 47 {
		t.Errorf("Expected 47 symbols, got %d", got)
	}
	if got := collector.GetAirtime(); got != 99310*time.Microsecond {
		t.Errorf("Expected 99.31ms airtime, got %v", got)
	}
	if got := collector.GetLastFrame(); !got.Equal(at) {
		t.Errorf("Expected last frame %v, got %v", at, got)
	}
}

// TestCollector_ErrorMetrics tests that failures are split by stage
func TestCollector_ErrorMetrics(t *testing.T) {
	collector := NewCollector()

	collector.FrameSent(session.Report{Protocol: protocol.NEC, Err: errors.New("too wide")})
	collector.FrameSent(session.Report{Protocol: protocol.NEC, Symbols: 34, Err: errors.New("not ready")})
	collector.FrameSent(session.Report{Protocol: protocol.NEC, Symbols: 34, Err: errors.New("not ready")})

	if got := collector.GetEncodeErrors(); got != 1 {
		t.Errorf("Expected 1 encode error, got %d", got)
	}
	if got := collector.GetTransmitErrors(); got != 2 {
		t.Errorf("Expected 2 transmit errors, got %d", got)
	}
	if got := collector.GetTotalFrames(); got != 0 {
		t.Errorf("Failed frames must not count as sent, got %d", got)
	}
}

// TestCollector_Requests tests request counters
func TestCollector_Requests(t *testing.T) {
	collector := NewCollector()

	collector.RequestReceived("http")
	collector.RequestReceived("http")
	collector.RequestReceived("mqtt")

	if got := collector.GetRequests("http"); got != 2 {
		t.Errorf("Expected 2 http requests, got %d", got)
	}
	if got := collector.GetRequests("mqtt"); got != 1 {
		t.Errorf("Expected 1 mqtt request, got %d", got)
	}
	if got := collector.GetRequests("cli"); got != 0 {
		t.Errorf("Expected 0 cli requests, got %d", got)
	}
}

// TestCollector_Reset tests resetting all metrics
func TestCollector_Reset(t *testing.T) {
	collector := NewCollector()

	collector.FrameSent(session.Report{Protocol: protocol.Sony, Symbols: 13, Time: time.Now()})
	collector.FrameSent(session.Report{Protocol: protocol.Sony, Err: errors.New("x")})
	collector.RequestReceived("http")

	collector.Reset()

	if collector.GetTotalFrames() != 0 || collector.GetEncodeErrors() != 0 ||
		collector.GetRequests("http") != 0 || !collector.GetLastFrame().IsZero() {
		t.Error("Expected all metrics cleared after reset")
	}
}

// TestCollector_Concurrent tests concurrent updates
func TestCollector_Concurrent(t *testing.T) {
	collector := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				collector.FrameSent(session.Report{Protocol: protocol.NEC, Symbols: 34})
				collector.RequestReceived("http")
				_ = collector.GetTotalFrames()
			}
		}()
	}
	wg.Wait()

	if got := collector.GetFramesSent(protocol.NEC); got != 1000 {
		t.Errorf("Expected 1000 frames, got %d", got)
	}
	if got := collector.GetRequests("http"); got != 1000 {
		t.Errorf("Expected 1000 requests, got %d", got)
	}
}

// Compile-time check that the collector can observe sessions
var _ session.Observer = (*Collector)(nil)
