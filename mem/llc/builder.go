package llc

import (
	"github.com/sarchlab/llcsim/datarecording"
	"github.com/sarchlab/llcsim/mem/repl"
	"github.com/sarchlab/llcsim/mem/tagging"
)

// Builder can build functional last-level caches.
type Builder struct {
	numSets       int
	assoc         int
	log2BlockSize int
	policy        repl.Policy
	seed          uint64
	hitPolicy     bool
	recorder      datarecording.DataRecorder
	interval      uint64
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		numSets:       2048,
		assoc:         16,
		log2BlockSize: 6,
		policy:        repl.PolicyLRU,
		seed:          1,
		interval:      100000,
	}
}

// WithNumSets sets the number of sets of the cache.
func (b Builder) WithNumSets(numSets int) Builder {
	b.numSets = numSets
	return b
}

// WithWayAssociativity sets the number of ways per set.
func (b Builder) WithWayAssociativity(assoc int) Builder {
	b.assoc = assoc
	return b
}

// WithLog2BlockSize sets the log2 of the cache line size in bytes.
func (b Builder) WithLog2BlockSize(log2BlockSize int) Builder {
	b.log2BlockSize = log2BlockSize
	return b
}

// WithPolicy sets the replacement policy of the cache.
func (b Builder) WithPolicy(policy repl.Policy) Builder {
	b.policy = policy
	return b
}

// WithSeed sets the seed of the replacement engine.
func (b Builder) WithSeed(seed uint64) Builder {
	b.seed = seed
	return b
}

// WithHitPolicy switches the replacement engine to frequency-priority hit
// promotion.
func (b Builder) WithHitPolicy(hitPolicy bool) Builder {
	b.hitPolicy = hitPolicy
	return b
}

// WithRecorder attaches a data recorder that receives interval and summary
// entries.
func (b Builder) WithRecorder(recorder datarecording.DataRecorder) Builder {
	b.recorder = recorder
	return b
}

// WithIntervalSize sets the number of accesses per recorded interval.
func (b Builder) WithIntervalSize(interval uint64) Builder {
	b.interval = interval
	return b
}

// Build builds a cache. It fails if the replacement engine rejects the
// geometry.
func (b Builder) Build() (*Comp, error) {
	engine, err := repl.MakeBuilder().
		WithNumSets(b.numSets).
		WithWayAssociativity(b.assoc).
		WithPolicy(b.policy).
		WithSeed(b.seed).
		WithHitPolicy(b.hitPolicy).
		Build()
	if err != nil {
		return nil, err
	}

	c := &Comp{
		numSets:       b.numSets,
		assoc:         b.assoc,
		log2BlockSize: b.log2BlockSize,
		policy:        b.policy,
		tags: tagging.NewTagArray(
			b.numSets, b.assoc, 1<<b.log2BlockSize),
		engine:    engine,
		recorder:  b.recorder,
		interval:  b.interval,
		perThread: make(map[int]*threadCounters),
	}

	if c.recorder != nil {
		c.recorder.CreateTable("llc_intervals", intervalEntry{})
		c.recorder.CreateTable("llc_summary", summaryEntry{})
	}

	return c, nil
}
