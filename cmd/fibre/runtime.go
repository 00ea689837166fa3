package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/fibre/internal/config"
	"github.com/vango-dev/fibre/internal/demo"
	"github.com/vango-dev/fibre/internal/errors"
	"github.com/vango-dev/fibre/pkg/dom"
	"github.com/vango-dev/fibre/pkg/fiber"
	"github.com/vango-dev/fibre/pkg/transition"
)

// app is a scheduler with one mounted demo.
type app struct {
	sched  *fiber.Scheduler
	frames *transition.TickerFrames
}

type appOptions struct {
	logger   *slog.Logger
	registry prometheus.Registerer
	frames   bool
}

// startApp creates a scheduler configured by cfg and mounts the named demo.
// It returns once the first commit is done.
func startApp(ctx context.Context, cfg *config.Config, name string, opts appOptions) (*app, error) {
	d, ok := demo.Lookup(name)
	if !ok {
		return nil, errors.New("F006").
			WithField(name).
			WithDetail("Available demos: " + strings.Join(demo.Names(), ", ") + ".")
	}

	a := &app{}
	fopts := []fiber.Option{
		fiber.WithLogger(opts.logger),
		fiber.WithDurations(cfg.Transitions.Durations),
	}
	if opts.frames && cfg.FrameInterval() > 0 {
		a.frames = transition.NewTickerFrames(cfg.FrameInterval())
		fopts = append(fopts, fiber.WithFrames(a.frames))
	}
	if opts.registry != nil && cfg.Metrics.Enabled {
		fopts = append(fopts, fiber.WithMetrics(fiber.NewMetrics(
			fiber.WithNamespace(cfg.Metrics.Namespace),
			fiber.WithSubsystem(cfg.Metrics.Subsystem),
			fiber.WithRegistry(opts.registry),
		)))
	}
	a.sched = fiber.NewScheduler(dom.NewDocument(), fopts...)

	_, note := a.sched.Mount(d.New(), nil, a.sched.Document().Body())
	if err := note.Wait(ctx); err != nil {
		a.Close()
		return nil, errors.New("F001").Wrap(err)
	}
	return a, nil
}

// click dispatches a click on the first node matching the XPath expression
// and waits for the renders it caused.
func (a *app) click(ctx context.Context, expr string) error {
	var err error
	doErr := a.sched.Do(func() {
		doc := a.sched.Document()
		var n *dom.Node
		n, err = dom.Query(doc.Body(), expr)
		switch {
		case err != nil:
			err = errors.New("F090").WithField("--click").Wrap(err)
		case n == nil:
			err = errors.New("F090").WithField("--click").
				WithDetail("No node matches " + expr + ".")
		default:
			doc.DispatchEvent(n, "click")
		}
	})
	if doErr != nil {
		return doErr
	}
	if err != nil {
		return err
	}
	return a.sched.Settle(ctx)
}

// html returns the serialized body.
func (a *app) html() (string, error) {
	var out string
	err := a.sched.Do(func() { out = dom.InnerHTML(a.sched.Document().Body()) })
	return out, err
}

// Close stops the scheduler and its frame driver.
func (a *app) Close() {
	a.sched.Close()
	if a.frames != nil {
		a.frames.Close()
	}
}
