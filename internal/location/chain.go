package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/globe-tracker/internal/logging"
	"github.com/signalsfoundry/globe-tracker/internal/observability"
	"github.com/signalsfoundry/globe-tracker/model"
)

// LookupRecorder receives one observation per provider attempt.
type LookupRecorder interface {
	ObserveLookup(provider, outcome string, d time.Duration)
}

// ChainOption customises Chain construction.
type ChainOption func(*Chain)

// WithLogger sets the logger used for attempt logs.
func WithLogger(log logging.Logger) ChainOption {
	return func(c *Chain) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRecorder attaches an optional metrics recorder.
func WithRecorder(r LookupRecorder) ChainOption {
	return func(c *Chain) {
		c.metrics = r
	}
}

// WithTracer overrides the tracer used for per-attempt spans.
func WithTracer(t trace.Tracer) ChainOption {
	return func(c *Chain) {
		if t != nil {
			c.tracer = t
		}
	}
}

// Chain tries a primary provider and then each fallback once, in order.
// The first valid fix wins; there are no retries.
type Chain struct {
	providers []Provider
	log       logging.Logger
	metrics   LookupRecorder
	tracer    trace.Tracer

	mu   sync.Mutex
	last string
}

// NewChain builds a chain; nil providers are skipped.
func NewChain(primary Provider, fallbacks []Provider, opts ...ChainOption) *Chain {
	c := &Chain{
		log:    logging.Noop(),
		tracer: observability.Tracer(),
	}
	for _, p := range append([]Provider{primary}, fallbacks...) {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Chain) Name() string { return "chain" }

// Providers returns the names of the configured providers in order.
func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// LastProvider names the provider behind the most recent successful fix.
func (c *Chain) LastProvider() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Locate walks the chain. When every provider fails the error wraps
// model.ErrPositionUnavailable and joins each provider's failure.
func (c *Chain) Locate(ctx context.Context) (model.GeoCoordinate, error) {
	ctx, log := logging.WithLookupLogger(ctx, c.log)

	if len(c.providers) == 0 {
		return model.GeoCoordinate{}, fmt.Errorf("%w: no providers configured", model.ErrPositionUnavailable)
	}

	var errs []error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		coord, err := c.attempt(ctx, log, p)
		if err == nil {
			c.mu.Lock()
			c.last = p.Name()
			c.mu.Unlock()
			return coord, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}

	log.Warn(ctx, "all location providers failed", logging.Int("attempts", len(errs)))
	return model.GeoCoordinate{}, fmt.Errorf("%w: %w", model.ErrPositionUnavailable, errors.Join(errs...))
}

func (c *Chain) attempt(ctx context.Context, log logging.Logger, p Provider) (model.GeoCoordinate, error) {
	ctx, span := c.tracer.Start(ctx, "location.Locate",
		trace.WithAttributes(attribute.String("location.provider", p.Name())),
	)
	defer span.End()

	start := time.Now()
	coord, err := p.Locate(ctx)
	if err == nil {
		err = coord.Validate()
	}
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.record(p.Name(), observability.OutcomeFailure, elapsed)
		log.Warn(ctx, "location provider failed",
			logging.String("provider", p.Name()),
			logging.Duration("elapsed", elapsed),
			logging.Err(err),
		)
		return model.GeoCoordinate{}, err
	}

	span.SetAttributes(
		attribute.Float64("location.latitude", coord.Latitude),
		attribute.Float64("location.longitude", coord.Longitude),
	)
	c.record(p.Name(), observability.OutcomeSuccess, elapsed)
	log.Info(ctx, "location acquired",
		logging.String("provider", p.Name()),
		logging.Float64("latitude", coord.Latitude),
		logging.Float64("longitude", coord.Longitude),
		logging.Duration("elapsed", elapsed),
	)
	return coord, nil
}

func (c *Chain) record(provider, outcome string, d time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveLookup(provider, outcome, d)
	}
}
