// Package repl implements last-level-cache replacement policies.
//
// A replacement engine owns the per-line metadata of one cache and makes
// two kinds of decisions: which way to evict when a set misses, and how to
// update the metadata on every access. Three policy families are provided:
// true LRU, uniform random, and a DRRIP engine that combines SRRIP and
// BRRIP through set dueling.
package repl

import (
	"fmt"
	"io"

	"github.com/lazybeaver/xorshift"
)

// A Policy selects the replacement policy family of an engine.
type Policy int

// The policies that an engine can run.
const (
	PolicyLRU Policy = iota
	PolicyRandom
	PolicyContestant
)

// Bypass is returned by SelectVictim when the line should not be inserted
// into the cache.
const Bypass = -1

func (p Policy) String() string {
	switch p {
	case PolicyLRU:
		return "lru"
	case PolicyRandom:
		return "random"
	case PolicyContestant:
		return "contestant"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// An AccessContext carries the request information that the cache passes to
// the engine. The built-in policies only need the set and way indices, but
// richer policies can consume the thread ID, the PC, the full address, and
// the access type.
type AccessContext struct {
	ThreadID   int
	PC         uint64
	Address    uint64
	AccessType int
}

// An Engine makes replacement decisions for one cache.
type Engine interface {
	// SelectVictim returns the way to evict from the given set, or Bypass
	// if the line should not be inserted. It must be called before the
	// miss is filled.
	SelectVictim(setID int, ctx AccessContext) int

	// UpdateOnAccess updates the per-line metadata. It must be called on
	// every access, with hit=false and the filled way after a miss. The
	// line argument is an opaque, read-only view of the line that was hit
	// or filled; the built-in policies do not consult it, but it is kept
	// in the contract for policies that do.
	UpdateOnAccess(setID, wayID int, line any, hit bool, ctx AccessContext)

	// PrintStats writes the policy counters to w.
	PrintStats(w io.Writer)

	// Reset restores the metadata to its post-construction state.
	Reset()
}

const (
	rripMax    = 4
	leaderSets = 32
	epsilon    = 16
	pselMax    = 1024
)

// lineState is the metadata of one cache line. The LRU and RRIP fields
// live side by side; the active policy decides which one is consulted.
type lineState struct {
	lruStackPosition int
	rrpv             int
}

type drripStats struct {
	srripLeaderMisses   uint64
	brripLeaderMisses   uint64
	srripFollowerMisses uint64
	brripFollowerMisses uint64
}

type engineImpl struct {
	numSets int
	assoc   int
	policy  Policy

	lines []lineState
	rng   xorshift.XorShift

	hitPolicy bool
	psel      int
	stats     drripStats
}

// set returns the metadata of one set as a slice of length assoc.
func (e *engineImpl) set(setID int) []lineState {
	e.mustBeValidSet(setID)
	return e.lines[setID*e.assoc : (setID+1)*e.assoc]
}

func (e *engineImpl) SelectVictim(setID int, ctx AccessContext) int {
	switch e.policy {
	case PolicyLRU:
		return e.lruVictim(setID)
	case PolicyRandom:
		return e.randomVictim(setID)
	case PolicyContestant:
		return e.rripVictim(setID)
	default:
		panic("unknown replacement policy: " + e.policy.String())
	}
}

func (e *engineImpl) UpdateOnAccess(
	setID, wayID int,
	line any,
	hit bool,
	ctx AccessContext,
) {
	e.mustBeValidSet(setID)
	e.mustBeValidWay(wayID)

	switch e.policy {
	case PolicyLRU:
		e.updateLRU(setID, wayID)
	case PolicyRandom:
		// Random replacement keeps no state.
	case PolicyContestant:
		e.updateDRRIP(setID, wayID, hit)
	default:
		panic("unknown replacement policy: " + e.policy.String())
	}
}

func (e *engineImpl) Reset() {
	for setID := 0; setID < e.numSets; setID++ {
		set := e.lines[setID*e.assoc : (setID+1)*e.assoc]
		for wayID := range set {
			set[wayID].lruStackPosition = wayID
			set[wayID].rrpv = rripMax - 1
		}
	}

	e.psel = pselMax / 2
	e.stats = drripStats{}
}

func (e *engineImpl) PrintStats(w io.Writer) {
	fmt.Fprintln(w, "==========================================================")
	fmt.Fprintln(w, "=========== Replacement Policy Statistics ================")
	fmt.Fprintln(w, "==========================================================")

	fmt.Fprintf(w, "Policy: %s\n", e.policy)

	if e.policy == PolicyContestant {
		fmt.Fprintf(w, "PSEL: %d\n", e.psel)
		fmt.Fprintf(w, "SRRIP leader misses: %d\n", e.stats.srripLeaderMisses)
		fmt.Fprintf(w, "BRRIP leader misses: %d\n", e.stats.brripLeaderMisses)
		fmt.Fprintf(w, "SRRIP follower misses: %d\n",
			e.stats.srripFollowerMisses)
		fmt.Fprintf(w, "BRRIP follower misses: %d\n",
			e.stats.brripFollowerMisses)
	}
}

func (e *engineImpl) mustBeValidSet(setID int) {
	if setID < 0 || setID >= e.numSets {
		panic(fmt.Sprintf("set %d out of range [0, %d)", setID, e.numSets))
	}
}

func (e *engineImpl) mustBeValidWay(wayID int) {
	if wayID < 0 || wayID >= e.assoc {
		panic(fmt.Sprintf("way %d out of range [0, %d)", wayID, e.assoc))
	}
}
