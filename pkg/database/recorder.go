package database

import (
	"context"
	"sync"
	"time"

	"github.com/dbehnke/ir-nexus/pkg/logger"
	"github.com/dbehnke/ir-nexus/pkg/protocol"
	"github.com/dbehnke/ir-nexus/pkg/session"
)

const (
	// DefaultIdle is how long a press may go without a frame before it is
	// considered released
	DefaultIdle = time.Second

	recorderQueue = 256
	sweepInterval = 500 * time.Millisecond
	pruneInterval = time.Hour
)

// Recorder is a session.Observer that folds frames into key presses and
// writes each finished press to the database. FrameSent only touches
// memory; Run does the writes.
type Recorder struct {
	repo      *TransmissionRepository
	logger    *logger.Logger
	idle      time.Duration
	retention time.Duration
	now       func() time.Time

	mu     sync.Mutex
	active map[protocol.Protocol]*activePress
	queue  chan *Transmission
}

// activePress tracks a press whose key has not been released yet
type activePress struct {
	tx       *Transmission
	lastSeen time.Time
}

// RecorderOption configures a Recorder
type RecorderOption func(*Recorder)

// WithIdle sets how long a press stays open without frames
func WithIdle(d time.Duration) RecorderOption {
	return func(r *Recorder) { r.idle = d }
}

// WithRetention deletes rows older than d once an hour. Zero keeps everything.
func WithRetention(d time.Duration) RecorderOption {
	return func(r *Recorder) { r.retention = d }
}

// NewRecorder creates a recorder writing through repo
func NewRecorder(repo *TransmissionRepository, log *logger.Logger, opts ...RecorderOption) *Recorder {
	if log == nil {
		log = logger.Discard()
	}
	r := &Recorder{
		repo:   repo,
		logger: log.WithComponent("recorder"),
		idle:   DefaultIdle,
		now:    time.Now,
		active: make(map[protocol.Protocol]*activePress),
		queue:  make(chan *Transmission, recorderQueue),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FrameSent implements session.Observer
func (r *Recorder) FrameSent(rep session.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cur := r.active[rep.Protocol]

	// A first frame (or an encode failure, which never gets past the first
	// frame) means the previous press on this protocol is over.
	if rep.Frame == 0 && cur != nil {
		r.finishLocked(rep.Protocol)
		cur = nil
	}

	if rep.Symbols == 0 && rep.Err != nil {
		r.enqueue(&Transmission{
			Protocol:  rep.Protocol.String(),
			Address:   rep.Address,
			Command:   rep.Command,
			Toggle:    rep.Toggle,
			Error:     truncate(rep.ErrorText(), 255),
			StartTime: rep.Time,
			EndTime:   rep.Time,
		})
		return
	}

	if cur == nil {
		cur = &activePress{tx: &Transmission{
			Protocol:  rep.Protocol.String(),
			Address:   rep.Address,
			Command:   rep.Command,
			Toggle:    rep.Toggle,
			StartTime: rep.Time,
		}}
		r.active[rep.Protocol] = cur
		r.logger.Debug("Press started",
			logger.String("protocol", cur.tx.Protocol),
			logger.Hex("address", rep.Address),
			logger.Hex("command", rep.Command))
	}

	cur.lastSeen = now
	cur.tx.Frames++
	if rep.Repeat {
		cur.tx.Repeats++
	}
	cur.tx.Symbols += rep.Symbols
	cur.tx.AirtimeUS += rep.Airtime.Microseconds()
	cur.tx.EndTime = rep.Time

	if rep.Err != nil {
		cur.tx.Error = truncate(rep.ErrorText(), 255)
		r.finishLocked(rep.Protocol)
	}
}

// CleanupStale finishes presses that have not seen a frame within maxAge
func (r *Recorder) CleanupStale(maxAge time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for p, press := range r.active {
		if now.Sub(press.lastSeen) > maxAge {
			r.finishLocked(p)
		}
	}
}

// Flush finishes every open press
func (r *Recorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for p := range r.active {
		r.finishLocked(p)
	}
}

// ActivePresses returns how many presses are still open
func (r *Recorder) ActivePresses() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

func (r *Recorder) finishLocked(p protocol.Protocol) {
	press, ok := r.active[p]
	if !ok {
		return
	}
	delete(r.active, p)
	r.enqueue(press.tx)
}

func (r *Recorder) enqueue(tx *Transmission) {
	select {
	case r.queue <- tx:
	default:
		r.logger.Warn("History queue full, dropping press",
			logger.String("protocol", tx.Protocol),
			logger.Hex("command", tx.Command))
	}
}

// Run writes finished presses until ctx is done, then flushes what is left
func (r *Recorder) Run(ctx context.Context) error {
	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()
	prune := time.NewTicker(pruneInterval)
	defer prune.Stop()

	r.prune()

	for {
		select {
		case <-ctx.Done():
			r.Flush()
			r.writeQueued()
			return ctx.Err()
		case tx := <-r.queue:
			r.write(tx)
		case <-sweep.C:
			r.CleanupStale(r.idle)
		case <-prune.C:
			r.prune()
		}
	}
}

// writeQueued drains the queue without blocking
func (r *Recorder) writeQueued() {
	for {
		select {
		case tx := <-r.queue:
			r.write(tx)
		default:
			return
		}
	}
}

func (r *Recorder) write(tx *Transmission) {
	if err := r.repo.Create(tx); err != nil {
		r.logger.Error("Failed to save transmission",
			logger.Error(err),
			logger.String("protocol", tx.Protocol))
		return
	}
	r.logger.Debug("Saved transmission",
		logger.String("protocol", tx.Protocol),
		logger.Int("frames", tx.Frames),
		logger.Int("repeats", tx.Repeats))
}

func (r *Recorder) prune() {
	if r.retention <= 0 {
		return
	}
	n, err := r.repo.DeleteOlderThan(r.now().Add(-r.retention))
	if err != nil {
		r.logger.Error("Failed to prune history", logger.Error(err))
		return
	}
	if n > 0 {
		r.logger.Info("Pruned history", logger.Int64("rows", n))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
