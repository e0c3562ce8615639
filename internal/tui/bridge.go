package tui

import (
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/probabilitylab/internal/scheduler"
)

// EventKind identifies a scheduler lifecycle event
type EventKind int

const (
	RunStarted EventKind = iota
	RunTick
	RunDone
	RunStopped
)

func (k EventKind) String() string {
	switch k {
	case RunStarted:
		return "started"
	case RunTick:
		return "tick"
	case RunDone:
		return "done"
	case RunStopped:
		return "stopped"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// ProgressMsg carries a scheduler event into the Bubble Tea loop
type ProgressMsg struct {
	Kind     EventKind
	Progress scheduler.Progress
}

// eventBuffer bounds how far the UI may lag behind the scheduler before
// events are dropped
const eventBuffer = 64

// Bridge forwards scheduler callbacks to the UI without ever blocking the
// scheduler
type Bridge struct {
	events  chan ProgressMsg
	dropped atomic.Int64
}

func NewBridge() *Bridge {
	return &Bridge{events: make(chan ProgressMsg, eventBuffer)}
}

// Callbacks returns scheduler callbacks that feed the bridge
func (b *Bridge) Callbacks() scheduler.Callbacks {
	return scheduler.Callbacks{
		OnStart: func(p scheduler.Progress) { b.send(RunStarted, p) },
		OnTick:  func(p scheduler.Progress) { b.send(RunTick, p) },
		OnDone:  func(p scheduler.Progress) { b.send(RunDone, p) },
		OnStop:  func(p scheduler.Progress) { b.send(RunStopped, p) },
	}
}

// Dropped returns the number of events discarded because the UI was behind
func (b *Bridge) Dropped() int64 { return b.dropped.Load() }

func (b *Bridge) send(kind EventKind, p scheduler.Progress) {
	select {
	case b.events <- ProgressMsg{Kind: kind, Progress: p}:
	default:
		b.dropped.Add(1)
	}
}

// listen waits for the next scheduler event
func (b *Bridge) listen() tea.Cmd {
	return func() tea.Msg {
		return <-b.events
	}
}
