package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lox/probabilitylab/internal/feed"
	"github.com/lox/probabilitylab/internal/simulator"
)

// ServeCmd runs the experiment continuously and streams progress over
// websockets
type ServeCmd struct {
	Addr  string `default:"localhost:8080" help:"Listen address"`
	Speed int    `help:"Steps per second, 1 to 60 (default from the experiment file)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	logger, err := g.logger()
	if err != nil {
		return err
	}
	file, simCfg, err := g.load()
	if err != nil {
		return err
	}
	speed := c.Speed
	if speed <= 0 {
		speed = file.Experiment.Speed
	}

	var sim *simulator.Simulator
	hub := feed.NewHub(func() simulator.Snapshot { return sim.Snapshot() }, logger)
	sim = simulator.New(simCfg, g.options(file, logger, hub.Callbacks()))

	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           hub.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving experiment feed", "addr", c.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if !sim.StartAuto(speed) {
		return fmt.Errorf("auto run rejected")
	}
	fmt.Fprintf(stdout, "Streaming on ws://%s/ws\n", c.Addr)

	ctx := setupSignalHandler(logger)
	select {
	case <-ctx.Done():
	case err := <-errCh:
		sim.Stop()
		return err
	}

	sim.Stop()
	_ = sim.Wait(context.Background())
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
