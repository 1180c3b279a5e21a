package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/romshark/coop"
	"github.com/romshark/coop/config"
	"github.com/romshark/coop/internal/keepalive"

	"github.com/spf13/afero"
	"github.com/urfave/cli"
)

func newLogger(w io.Writer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	).Logger()
}

func run(c *cli.Context) error {
	afs := afero.NewOsFs()
	cfg, err := config.Load(afs, c.String("config"))
	if err != nil {
		return err
	}
	log := newLogger(os.Stderr, cfg.LogLevel)

	s, err := coop.New(
		coop.WithTick(cfg.Tick),
		coop.WithMaxEvents(cfg.MaxEvents),
		coop.WithClampTimeouts(cfg.ClampTimeouts),
		coop.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Err().Err(err).Log("closing scheduler")
		}
	}()

	for _, k := range cfg.Keepalives {
		if _, err := s.Start(k.Name, keepalive.Task(afs, k, log)); err != nil {
			return fmt.Errorf("starting keepalive %q: %w", k.Name, err)
		}
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	log.Info().
		Int("keepalives", len(cfg.Keepalives)).
		Dur("tick", cfg.Tick).
		Log("scheduler started")

	err = s.Loop(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, coop.ErrTerminated) {
		log.Info().Log("shutting down")
		return nil
	}
	return err
}
