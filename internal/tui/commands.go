package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/probabilitylab/internal/scheduler"
	"github.com/lox/probabilitylab/internal/statistics"
)

var errRejected = errors.New("a run is already active; stop it first")

const helpText = "step [n] | run <n> | auto [speed] | stop | reset | seed <text> | quit"

// execute runs one command line and reports whether the user asked to quit.
// An empty line steps one trial.
func (m *Model) execute(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		fields = []string{"step"}
	}
	args := fields[1:]

	switch strings.ToLower(fields[0]) {
	case "step", "s":
		n, err := countArg(args, 1)
		if err != nil {
			m.setError(err)
			return false
		}
		if err := m.sim.Advance(context.Background(), n); err != nil {
			m.setError(fmt.Errorf("step: %w", err))
			return false
		}
		m.setStatus(fmt.Sprintf("Stepped %s", statistics.FormatCount(n)))

	case "run", "r":
		if len(args) == 0 {
			m.setError(errors.New("usage: run <trials>"))
			return false
		}
		n, err := countArg(args, 0)
		if err != nil {
			m.setError(err)
			return false
		}
		if !m.sim.Run(n) {
			m.setError(errRejected)
			return false
		}

	case "auto", "a":
		speed, err := countArg(args, m.speed)
		if err != nil {
			m.setError(err)
			return false
		}
		m.speed = scheduler.ClampSpeed(speed)
		if !m.sim.StartAuto(m.speed) {
			m.setError(errRejected)
			return false
		}

	case "stop":
		m.sim.Stop()

	case "reset":
		m.sim.Reset()
		m.setStatus("Reset")

	case "seed":
		seed := strings.Join(args, " ")
		m.sim.Reseed(seed)
		m.setStatus(fmt.Sprintf("Reseeded (%s)", m.sim.Snapshot().Seed))

	case "help", "?":
		m.setStatus(helpText)

	case "quit", "exit", "q":
		return true

	default:
		m.setError(fmt.Errorf("unknown command %q; %s", fields[0], helpText))
	}
	return false
}

// countArg parses the first argument as a positive count, or returns def
// when there is none
func countArg(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%q is not a positive number", args[0])
	}
	return n, nil
}
