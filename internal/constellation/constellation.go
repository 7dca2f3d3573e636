package constellation

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/signalsfoundry/globe-tracker/model"
)

const (
	// DefaultCount is the number of satellites in the mock constellation.
	DefaultCount = 4
	// DefaultSpread is the edge length of the cube satellites are placed in.
	DefaultSpread = 20.0
	// DefaultRefresh is how often Run regenerates the constellation.
	DefaultRefresh = 5 * time.Second
)

// Generator produces mock satellite positions. Positions are random and
// carry no orbital meaning.
type Generator struct {
	mu     sync.Mutex
	r      *rand.Rand
	count  int
	spread float64
}

// NewGenerator returns a generator for count satellites spread uniformly in
// a cube of edge spread centred on the origin.
func NewGenerator(count int, spread float64, seed int64) (*Generator, error) {
	if count < 0 {
		return nil, fmt.Errorf("satellite count must be non-negative, got %d", count)
	}
	if spread <= 0 {
		return nil, fmt.Errorf("satellite spread must be positive, got %v", spread)
	}
	return &Generator{
		r:      rand.New(rand.NewSource(seed)),
		count:  count,
		spread: spread,
	}, nil
}

// Generate returns a fresh constellation with IDs 1..count.
func (g *Generator) Generate() []model.Satellite {
	g.mu.Lock()
	defer g.mu.Unlock()

	sats := make([]model.Satellite, g.count)
	for i := range sats {
		sats[i] = model.Satellite{
			ID:   i + 1,
			Name: fmt.Sprintf("SAT-%d", i+1),
			Position: model.Position{
				X: (g.r.Float64() - 0.5) * g.spread,
				Y: (g.r.Float64() - 0.5) * g.spread,
				Z: (g.r.Float64() - 0.5) * g.spread,
			},
		}
	}
	return sats
}

// Run delivers a constellation to sink immediately and then on every
// interval until ctx is done.
func (g *Generator) Run(ctx context.Context, interval time.Duration, sink func([]model.Satellite)) {
	if interval <= 0 {
		interval = DefaultRefresh
	}
	sink(g.Generate())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sink(g.Generate())
		}
	}
}
