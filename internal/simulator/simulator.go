// Package simulator owns a running experiment: device definitions, trial
// state, history, the seeded generator and the scheduler that advances them.
// All mutable state lives on a Simulator value; nothing is package global.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/lox/probabilitylab/internal/device"
	"github.com/lox/probabilitylab/internal/engine"
	"github.com/lox/probabilitylab/internal/history"
	"github.com/lox/probabilitylab/internal/randutil"
	"github.com/lox/probabilitylab/internal/scheduler"
)

// ErrRunning is returned by synchronous operations while a scheduled run is
// active
var ErrRunning = errors.New("simulation already running")

var ErrUnknownMode = errors.New("unknown mode")

// Mode selects single-event or two-event experiments
type Mode int

const (
	Single Mode = iota
	Two
)

func (m Mode) String() string {
	switch m {
	case Single:
		return "single"
	case Two:
		return "two"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "single" or "two"; blank selects Single
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "single":
		return Single, nil
	case "two":
		return Two, nil
	default:
		return Single, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// Config describes an experiment. B and Relationship are ignored in Single
// mode.
type Config struct {
	Mode         Mode
	A            device.Config
	B            device.Config
	Relationship engine.Relationship

	// Seed text for the generator. Blank selects the shared default sequence
	// unless Randomize is set, which seeds from process entropy instead.
	Seed      string
	Randomize bool

	// History records every trial for scroll-back
	History bool
	// Convergence records relative frequencies after each batch (single mode)
	Convergence bool
}

// DefaultConfig is a fair coin in single mode with history enabled
func DefaultConfig() Config {
	return Config{
		Mode:         Single,
		A:            device.Config{Kind: device.Coin},
		B:            device.Config{Kind: device.Coin},
		Relationship: engine.Independent{},
		History:      true,
		Convergence:  true,
	}
}

// Options configures the scheduler and logging. Callbacks are forwarded
// from the scheduler after the simulator has logged the event.
type Options struct {
	Clock         quartz.Clock
	Logger        *log.Logger
	ChunkSize     int
	FrameInterval time.Duration
	AutoBatch     int
	Callbacks     scheduler.Callbacks
}

// Simulator is safe for concurrent use. Trial batches run on the scheduler's
// clock callbacks; readers take snapshots.
type Simulator struct {
	logger    *log.Logger
	sched     *scheduler.Scheduler
	callbacks scheduler.Callbacks

	mu        sync.Mutex
	config    Config
	seedValue uint32
	rng       *randutil.Mulberry32
	single    *engine.SingleState
	two       *engine.TwoState
	runID     string
}

// New builds a simulator for cfg
func New(cfg Config, opts Options) *Simulator {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	s := &Simulator{
		logger:    opts.Logger.WithPrefix("simulator"),
		callbacks: opts.Callbacks,
	}
	s.sched = scheduler.New(scheduler.Options{
		Clock:         opts.Clock,
		Logger:        opts.Logger,
		ChunkSize:     opts.ChunkSize,
		FrameInterval: opts.FrameInterval,
		AutoBatch:     opts.AutoBatch,
		Callbacks: scheduler.Callbacks{
			OnStart: s.onStart,
			OnTick:  s.onTick,
			OnDone:  s.onDone,
			OnStop:  s.onStop,
		},
	})
	s.Configure(cfg)
	return s
}

// Configure stops any active run and replaces the experiment. Definitions
// are rebuilt, counters and history cleared and the generator reseeded, so
// the same Config always starts the same sequence.
func (s *Simulator) Configure(cfg Config) {
	s.sched.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.Relationship == nil {
		cfg.Relationship = engine.Independent{}
	}
	s.config = cfg
	s.resetLocked()
	s.logger.Info("Configured experiment",
		"mode", cfg.Mode,
		"a", s.definitionA().Kind,
		"seed", s.seedLabel(),
		"history", cfg.History)
}

// Reseed stops any active run and restarts the experiment from the given
// seed text
func (s *Simulator) Reseed(seed string) {
	s.sched.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Seed = seed
	s.config.Randomize = false
	s.resetLocked()
	s.logger.Info("Reseeded", "seed", s.seedLabel())
}

// Reset stops any active run and clears counters and history. A seeded
// experiment restarts its sequence; a randomized one draws fresh entropy.
func (s *Simulator) Reset() {
	s.sched.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Simulator) resetLocked() {
	cfg := s.config
	if cfg.Randomize {
		s.rng = randutil.FromEntropy()
	} else {
		s.rng = randutil.FromSeed(cfg.Seed)
	}
	s.seedValue = s.rng.State()

	a := device.Build(cfg.A)
	switch cfg.Mode {
	case Two:
		s.single = nil
		s.two = &engine.TwoState{}
		if cfg.History {
			s.two.History = history.NewPackedPairHistory()
		}
		s.two.Reset(a, device.Build(cfg.B), cfg.Relationship)
	default:
		s.two = nil
		s.single = &engine.SingleState{}
		if cfg.History {
			s.single.History = history.NewIndexHistory()
		}
		if cfg.Convergence {
			s.single.Convergence = engine.NewConvergenceLog()
		}
		s.single.Reset(a)
	}
}

func (s *Simulator) definitionA() *device.Definition {
	if s.two != nil {
		return s.two.A
	}
	return s.single.Definition
}

func (s *Simulator) seedLabel() string {
	if s.config.Randomize {
		return fmt.Sprintf("entropy:%08x", s.seedValue)
	}
	if strings.TrimSpace(s.config.Seed) == "" {
		return "default"
	}
	return strings.TrimSpace(s.config.Seed)
}

// step runs n trials under the state lock. It is the scheduler task.
func (s *Simulator) step(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stepLocked(n)
}

func (s *Simulator) stepLocked(n int) {
	if s.two != nil {
		engine.SimulateTwo(s.two, s.rng, n)
		return
	}
	engine.SimulateSingle(s.single, s.rng, n)
}

// Run schedules total trials in chunks. It returns false if a run is
// already active or total is not positive.
func (s *Simulator) Run(total int) bool {
	return s.sched.Run(total, s.step)
}

// StartAuto runs trials continuously at speed steps per second until
// stopped
func (s *Simulator) StartAuto(speed int) bool {
	return s.sched.StartAuto(speed, s.step)
}

// Stop cancels the active run, if any
func (s *Simulator) Stop() { s.sched.Stop() }

// Running reports whether a scheduled run is active
func (s *Simulator) Running() bool { return s.sched.Running() }

// Wait blocks until the active run ends or ctx is done
func (s *Simulator) Wait(ctx context.Context) error { return s.sched.Wait(ctx) }

// Advance runs total trials synchronously in scheduler-sized chunks,
// checking ctx between chunks. It fails with ErrRunning if a scheduled run
// is active, and holds the scheduler until it returns so Run and StartAuto
// are refused meanwhile.
func (s *Simulator) Advance(ctx context.Context, total int) error {
	release, ok := s.sched.Claim()
	if !ok {
		return ErrRunning
	}
	defer release()

	chunk := s.sched.ChunkSize()
	for done := 0; done < total; {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(chunk, total-done)
		s.step(n)
		done += n
	}
	return nil
}

// Outcome returns the outcome index of trial i in single mode
func (s *Simulator) Outcome(i int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.single == nil || s.single.History == nil {
		return engine.NoOutcome, false
	}
	v, ok := s.single.History.Get(i)
	if !ok {
		return engine.NoOutcome, false
	}
	return int(v), true
}

// Pair returns the outcomes of trial i in two-event mode
func (s *Simulator) Pair(i int) (history.Pair, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.two == nil || s.two.History == nil {
		return history.Pair{}, false
	}
	return s.two.History.GetPair(i)
}

// HistoryLen returns the number of recorded trials, zero when history is
// disabled
func (s *Simulator) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.single != nil && s.single.History != nil:
		return s.single.History.Len()
	case s.two != nil && s.two.History != nil:
		return s.two.History.Len()
	}
	return 0
}

// HistoryWindow copies up to n recorded trials starting at start. Single
// mode entries have B set to zero.
func (s *Simulator) HistoryWindow(start, n int) []history.Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.single != nil && s.single.History != nil:
		indices := s.single.History.Window(start, n)
		out := make([]history.Pair, len(indices))
		for i, v := range indices {
			out[i] = history.Pair{A: v}
		}
		return out
	case s.two != nil && s.two.History != nil:
		return s.two.History.Window(start, n)
	}
	return nil
}

func (s *Simulator) currentRun() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

func (s *Simulator) onStart(p scheduler.Progress) {
	id := uuid.NewString()
	s.mu.Lock()
	s.runID = id
	s.mu.Unlock()

	s.logger.Info("Run started", "run", id, "auto", p.Auto, "total", p.Total)
	if s.callbacks.OnStart != nil {
		s.callbacks.OnStart(p)
	}
}

func (s *Simulator) onTick(p scheduler.Progress) {
	s.logger.Debug("Chunk complete", "run", s.currentRun(), "completed", p.Completed, "chunks", p.Chunks)
	if s.callbacks.OnTick != nil {
		s.callbacks.OnTick(p)
	}
}

func (s *Simulator) onDone(p scheduler.Progress) {
	s.logger.Info("Run complete", "run", s.currentRun(), "trials", p.Completed, "chunks", p.Chunks)
	if s.callbacks.OnDone != nil {
		s.callbacks.OnDone(p)
	}
}

func (s *Simulator) onStop(p scheduler.Progress) {
	s.logger.Info("Run stopped", "run", s.currentRun(), "trials", p.Completed)
	if s.callbacks.OnStop != nil {
		s.callbacks.OnStop(p)
	}
}
