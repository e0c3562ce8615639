// Package scheduler drives trial batches cooperatively. Work is split into
// bounded chunks; each chunk runs to completion inside a clock callback and
// the next one is scheduled on the clock, so callers are never blocked and a
// stop request takes effect between chunks.
package scheduler

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

const (
	// DefaultChunkSize is the largest number of trials executed per frame
	DefaultChunkSize = 50_000
	// DefaultFrameInterval approximates one display frame
	DefaultFrameInterval = 16 * time.Millisecond

	MinSpeed     = 1
	MaxSpeed     = 60
	DefaultSpeed = MaxSpeed
)

// Task executes n trials synchronously
type Task func(n int)

// Progress describes a run when a callback fires. Total is zero for auto runs.
// The Progress passed to OnStop excludes a chunk still executing when Stop was
// called; Last reports the run's final totals once Wait returns.
type Progress struct {
	Auto      bool
	Total     int
	Completed int
	Chunks    int
}

// Callbacks are invoked outside the scheduler lock. Every accepted run fires
// OnStart once and then exactly one of OnDone or OnStop.
type Callbacks struct {
	OnStart func(Progress)
	OnTick  func(Progress)
	OnDone  func(Progress)
	OnStop  func(Progress)
}

// Options configures a Scheduler. Zero values select defaults.
type Options struct {
	Clock         quartz.Clock
	Logger        *log.Logger
	ChunkSize     int
	FrameInterval time.Duration
	// AutoBatch is the number of trials per auto step
	AutoBatch int
	Callbacks Callbacks
}

// Scheduler runs at most one task at a time
type Scheduler struct {
	clock     quartz.Clock
	logger    *log.Logger
	chunkSize int
	interval  time.Duration
	autoBatch int
	callbacks Callbacks

	mu     sync.Mutex
	active *run
	last   Progress
}

type run struct {
	task     Task
	auto     bool
	total    int
	done     int
	chunks   int
	batch    int
	interval time.Duration

	// claimed runs belong to a caller working synchronously
	claimed   bool
	cancelled bool
	inFlight  bool
	timer     *quartz.Timer
	finished  chan struct{}
}

func (r *run) progress() Progress {
	return Progress{Auto: r.auto, Total: r.total, Completed: r.done, Chunks: r.chunks}
}

// New returns an idle scheduler
func New(opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.AutoBatch <= 0 {
		opts.AutoBatch = 1
	}
	return &Scheduler{
		clock:     opts.Clock,
		logger:    opts.Logger.WithPrefix("scheduler"),
		chunkSize: opts.ChunkSize,
		interval:  opts.FrameInterval,
		autoBatch: opts.AutoBatch,
		callbacks: opts.Callbacks,
	}
}

// ChunkSize returns the per-frame trial limit for bounded runs
func (s *Scheduler) ChunkSize() int { return s.chunkSize }

// Run executes total trials in chunks, one chunk per frame. It returns false
// without doing anything if a run is already active, total is not positive
// or task is nil.
func (s *Scheduler) Run(total int, task Task) bool {
	if total <= 0 || task == nil {
		return false
	}
	return s.start(&run{
		task:     task,
		total:    total,
		batch:    s.chunkSize,
		interval: s.interval,
		finished: make(chan struct{}),
	})
}

// ClampSpeed limits speed to [MinSpeed, MaxSpeed]; non-positive selects
// DefaultSpeed
func ClampSpeed(speed int) int {
	if speed <= 0 {
		return DefaultSpeed
	}
	return min(max(speed, MinSpeed), MaxSpeed)
}

// StartAuto runs AutoBatch trials speed times per second until stopped.
func (s *Scheduler) StartAuto(speed int, task Task) bool {
	if task == nil {
		return false
	}
	speed = ClampSpeed(speed)
	return s.start(&run{
		task:     task,
		auto:     true,
		batch:    s.autoBatch,
		interval: time.Second / time.Duration(speed),
		finished: make(chan struct{}),
	})
}

func (s *Scheduler) start(r *run) bool {
	s.mu.Lock()
	if s.active != nil {
		s.mu.Unlock()
		s.logger.Debug("Run rejected, scheduler busy", "auto", r.auto, "total", r.total)
		return false
	}
	s.active = r
	s.mu.Unlock()

	s.logger.Debug("Run started", "auto", r.auto, "total", r.total, "batch", r.batch, "interval", r.interval)
	if s.callbacks.OnStart != nil {
		s.callbacks.OnStart(r.progress())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == r && !r.cancelled {
		s.scheduleLocked(r)
	}
	return true
}

func (s *Scheduler) scheduleLocked(r *run) {
	r.timer = s.clock.AfterFunc(r.interval, func() { s.step(r) }, "scheduler", "frame")
}

func (s *Scheduler) step(r *run) {
	s.mu.Lock()
	if s.active != r || r.cancelled {
		s.mu.Unlock()
		return
	}
	n := r.batch
	if !r.auto {
		n = min(n, r.total-r.done)
	}
	r.inFlight = true
	s.mu.Unlock()

	r.task(n)

	s.mu.Lock()
	r.inFlight = false
	if r.cancelled {
		// Stop already fired OnStop and is waiting for this chunk to land
		r.done += n
		r.chunks++
		s.finishLocked(r)
		s.mu.Unlock()
		return
	}
	r.done += n
	r.chunks++
	progress := r.progress()
	complete := !r.auto && r.done >= r.total
	if complete {
		s.finishLocked(r)
	} else {
		s.scheduleLocked(r)
	}
	s.mu.Unlock()

	if s.callbacks.OnTick != nil {
		s.callbacks.OnTick(progress)
	}
	if complete {
		s.logger.Debug("Run complete", "trials", progress.Completed, "chunks", progress.Chunks)
		if s.callbacks.OnDone != nil {
			s.callbacks.OnDone(progress)
		}
	}
}

func (s *Scheduler) finishLocked(r *run) {
	if s.active == r {
		s.active = nil
	}
	if !r.claimed {
		s.last = r.progress()
	}
	close(r.finished)
}

// Claim marks the scheduler busy while the caller executes trials itself.
// Run and StartAuto are refused and Stop has no effect until release is
// called. ok is false when a run is already active.
func (s *Scheduler) Claim() (release func(), ok bool) {
	r := &run{claimed: true, inFlight: true, finished: make(chan struct{})}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.logger.Debug("Claim rejected, scheduler busy")
		return nil, false
	}
	s.active = r

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.finishLocked(r)
		})
	}, true
}

// Stop cancels the active run. No further chunks start, the pending frame is
// cancelled and OnStop fires once. Stop is a no-op when idle or claimed.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	r := s.active
	if r == nil || r.claimed || r.cancelled {
		s.mu.Unlock()
		return
	}
	r.cancelled = true
	if r.timer != nil {
		r.timer.Stop()
	}
	if !r.inFlight {
		s.finishLocked(r)
	}
	progress := r.progress()
	s.mu.Unlock()

	s.logger.Debug("Run stopped", "auto", progress.Auto, "completed", progress.Completed)
	if s.callbacks.OnStop != nil {
		s.callbacks.OnStop(progress)
	}
}

// Running reports whether a run is active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// Last returns the final progress of the most recently finished run,
// including a chunk that was executing when the run was stopped.
func (s *Scheduler) Last() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Wait blocks until the active run ends or ctx is done. It returns
// immediately when idle.
func (s *Scheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	r := s.active
	s.mu.Unlock()
	if r == nil {
		return nil
	}
	select {
	case <-r.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
