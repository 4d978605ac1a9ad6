package route

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/skyroute/flightplanner/pkg/core"
	"github.com/vmihailenco/msgpack/v5"
)

const DefaultProjectorSize = 128

// Projector memoizes Compose by a fingerprint of the plan inputs. Plans carry
// their own positions, so a reference data reload never leaves an entry stale.
// It is safe for concurrent use.
type Projector struct {
	cache *lru.Cache[uint64, core.Summary]
}

// NewProjector creates a projector holding up to size summaries.
func NewProjector(size int) (*Projector, error) {
	if size <= 0 {
		size = DefaultProjectorSize
	}
	cache, err := lru.New[uint64, core.Summary](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create projection cache: %w", err)
	}
	return &Projector{cache: cache}, nil
}

// Fingerprint hashes the msgpack encoding of the plan inputs.
func Fingerprint(plan core.FlightPlan) (uint64, error) {
	data, err := msgpack.Marshal(plan)
	if err != nil {
		return 0, fmt.Errorf("failed to encode plan: %w", err)
	}
	return xxhash.Sum64(data), nil
}

// Project returns the summary of plan, composing it only on a cache miss.
// The second result reports whether the summary came from the cache.
func (p *Projector) Project(plan core.FlightPlan) (core.Summary, bool) {
	key, err := Fingerprint(plan)
	if err != nil {
		return Compose(plan), false
	}
	if s, ok := p.cache.Get(key); ok {
		return s.Clone(), true
	}
	s := Compose(plan)
	p.cache.Add(key, s)
	return s.Clone(), false
}

// Len returns the number of cached summaries.
func (p *Projector) Len() int {
	return p.cache.Len()
}
