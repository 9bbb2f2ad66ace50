package repl

import (
	"fmt"

	"github.com/lazybeaver/xorshift"
)

// Builder can build replacement engines.
type Builder struct {
	numSets   int
	assoc     int
	policy    Policy
	seed      uint64
	hitPolicy bool
}

// MakeBuilder creates a new builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		numSets: 1024,
		assoc:   16,
		policy:  PolicyLRU,
		seed:    1,
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

// WithPolicy sets the replacement policy of the engine.
func (b Builder) WithPolicy(policy Policy) Builder {
	b.policy = policy
	return b
}

// WithSeed sets the seed of the engine-owned random sequence. Engines
// built with the same seed make the same random and BRRIP decisions.
func (b Builder) WithSeed(seed uint64) Builder {
	b.seed = seed
	return b
}

// WithHitPolicy switches hit promotion from reset-to-zero to saturating
// decrement. It only affects the contestant policy.
func (b Builder) WithHitPolicy(hitPolicy bool) Builder {
	b.hitPolicy = hitPolicy
	return b
}

// Build builds a replacement engine. It fails if the geometry cannot
// describe a set-associative cache.
func (b Builder) Build() (Engine, error) {
	b.mustBeKnownPolicy()

	if b.numSets <= 0 {
		return nil, fmt.Errorf("number of sets must be positive, got %d",
			b.numSets)
	}

	if b.assoc < 2 {
		return nil, fmt.Errorf("associativity must be at least 2, got %d",
			b.assoc)
	}

	seed := b.seed
	if seed == 0 {
		seed = 1
	}

	e := &engineImpl{
		numSets:   b.numSets,
		assoc:     b.assoc,
		policy:    b.policy,
		lines:     make([]lineState, b.numSets*b.assoc),
		rng:       xorshift.NewXorShift64Star(seed),
		hitPolicy: b.hitPolicy,
	}

	e.Reset()

	return e, nil
}

func (b Builder) mustBeKnownPolicy() {
	switch b.policy {
	case PolicyLRU, PolicyRandom, PolicyContestant:
	default:
		panic("unknown replacement policy: " + b.policy.String())
	}
}
