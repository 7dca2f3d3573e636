package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/signalsfoundry/globe-tracker/internal/constellation"
	"github.com/signalsfoundry/globe-tracker/internal/location"
	"github.com/signalsfoundry/globe-tracker/internal/logging"
	"github.com/signalsfoundry/globe-tracker/internal/observability"
	"github.com/signalsfoundry/globe-tracker/kb"
)

// controls are the headless stand-ins for the globe's buttons: locate,
// rotation lock and satellite refresh.
type controls struct {
	store     *kb.KnowledgeBase
	gen       *constellation.Generator
	collector *observability.GlobeCollector
	locator   location.Provider
	log       logging.Logger
}

// handle applies one control command.
func (c *controls) handle(ctx context.Context, line string) error {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return nil
	case "locate":
		return c.locate(ctx)
	case "lock":
		c.store.SetRotationLocked(true)
	case "unlock":
		c.store.SetRotationLocked(false)
	case "toggle":
		c.store.ToggleRotationLock()
	case "refresh":
		refreshSink(c.store, c.collector)(c.gen.Generate())
	default:
		return fmt.Errorf("unknown command %q (want locate, lock, unlock, toggle or refresh)", strings.TrimSpace(line))
	}
	return nil
}

// locate re-runs the location chain. A failed lookup keeps the last
// accepted position and reports the failure; the default coordinate is
// only used when the device has never been placed.
func (c *controls) locate(ctx context.Context) error {
	current, placed := c.store.Device()
	fallback := location.DefaultCoordinate
	if placed {
		fallback = current
	}

	res := location.Resolve(ctx, c.locator, fallback)
	if res.Defaulted {
		if !placed {
			if err := c.store.SetDevicePosition(res.Coordinate); err != nil {
				return fmt.Errorf("locate: %w", err)
			}
		}
		c.log.Warn(ctx, "locate failed; keeping last position",
			logging.String("position", res.Coordinate.String()),
			logging.Err(res.Err),
		)
		return fmt.Errorf("locate: %w", res.Err)
	}

	if err := c.store.SetDevicePosition(res.Coordinate); err != nil {
		return fmt.Errorf("locate: %w", err)
	}
	c.log.Info(ctx, "device relocated",
		logging.String("provider", res.Provider),
		logging.String("position", res.Coordinate.String()),
	)
	return nil
}

func (c *controls) readCommands(ctx context.Context, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		if err := c.handle(ctx, scanner.Text()); err != nil {
			c.log.Warn(ctx, "command failed", logging.Err(err))
		}
	}
}

func newControls(store *kb.KnowledgeBase, gen *constellation.Generator, collector *observability.GlobeCollector, locator location.Provider, log logging.Logger) *controls {
	if log == nil {
		log = logging.Noop()
	}
	return &controls{store: store, gen: gen, collector: collector, locator: locator, log: log}
}

