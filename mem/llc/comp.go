// Package llc provides a functional model of a last-level cache. It keeps
// tags and replacement metadata and counts hits and misses, without
// modeling timing.
package llc

import (
	"fmt"
	"io"
	"sort"

	"github.com/sarchlab/llcsim/datarecording"
	"github.com/sarchlab/llcsim/mem/repl"
	"github.com/sarchlab/llcsim/mem/tagging"
)

// An AccessResult tells what happened to one access.
type AccessResult int

// The possible outcomes of an access.
const (
	AccessHit AccessResult = iota
	AccessMiss
	AccessBypass
)

func (r AccessResult) String() string {
	switch r {
	case AccessHit:
		return "hit"
	case AccessMiss:
		return "miss"
	case AccessBypass:
		return "bypass"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

type threadCounters struct {
	accesses uint64
	misses   uint64
}

// intervalEntry is one recorded slice of the simulation.
type intervalEntry struct {
	EndAccess uint64
	Accesses  uint64
	Misses    uint64
	MissRate  float64
}

// summaryEntry is the recorded end-of-run result.
type summaryEntry struct {
	Policy   string
	NumSets  int
	Assoc    int
	Accesses uint64
	Misses   uint64
	Bypasses uint64
	MissRate float64
}

// A Comp is a functional last-level cache.
type Comp struct {
	numSets       int
	assoc         int
	log2BlockSize int
	policy        repl.Policy

	tags   tagging.TagArray
	engine repl.Engine

	recorder datarecording.DataRecorder
	interval uint64

	accesses         uint64
	hits             uint64
	misses           uint64
	bypasses         uint64
	intervalAccesses uint64
	intervalMisses   uint64
	perThread        map[int]*threadCounters
}

// Access runs one memory access through the cache and returns what
// happened to it. Misses fill an invalid way when the set has one; the
// replacement engine only picks a victim from a full set.
func (c *Comp) Access(ctx repl.AccessContext) AccessResult {
	lineAddr := c.lineAddr(ctx.Address)
	set, setID := c.tags.GetSet(lineAddr)

	c.accesses++
	c.intervalAccesses++
	c.countersForThread(ctx.ThreadID).accesses++

	block, found := c.tags.Lookup(ctx.ThreadID, lineAddr)
	if found {
		c.hits++
		c.engine.UpdateOnAccess(setID, block.WayID, block, true, ctx)
		c.recordInterval()

		return AccessHit
	}

	c.misses++
	c.intervalMisses++
	c.countersForThread(ctx.ThreadID).misses++

	wayID, hasInvalid := invalidWay(set)
	if !hasInvalid {
		wayID = c.engine.SelectVictim(setID, ctx)
		if wayID == repl.Bypass {
			c.bypasses++
			c.recordInterval()

			return AccessBypass
		}
	}

	filled := tagging.Block{
		Tag:      lineAddr,
		ThreadID: ctx.ThreadID,
		SetID:    setID,
		WayID:    wayID,
		IsValid:  true,
	}
	c.tags.Update(filled)
	c.engine.UpdateOnAccess(setID, wayID, filled, false, ctx)
	c.recordInterval()

	return AccessMiss
}

func invalidWay(set *tagging.Set) (int, bool) {
	for wayID, block := range set.Blocks {
		if !block.IsValid {
			return wayID, true
		}
	}

	return 0, false
}

// MissRate returns the fraction of accesses that missed.
func (c *Comp) MissRate() float64 {
	if c.accesses == 0 {
		return 0
	}

	return float64(c.misses) / float64(c.accesses)
}

// PrintStats writes the cache counters followed by the replacement engine
// counters.
func (c *Comp) PrintStats(w io.Writer) {
	fmt.Fprintln(w, "==========================================================")
	fmt.Fprintln(w, "================= LLC Statistics =========================")
	fmt.Fprintln(w, "==========================================================")

	fmt.Fprintf(w, "Accesses: %d\n", c.accesses)
	fmt.Fprintf(w, "Hits: %d\n", c.hits)
	fmt.Fprintf(w, "Misses: %d\n", c.misses)
	fmt.Fprintf(w, "Bypasses: %d\n", c.bypasses)
	fmt.Fprintf(w, "Miss rate: %.6f\n", c.MissRate())

	threadIDs := make([]int, 0, len(c.perThread))
	for threadID := range c.perThread {
		threadIDs = append(threadIDs, threadID)
	}
	sort.Ints(threadIDs)

	for _, threadID := range threadIDs {
		counters := c.perThread[threadID]
		fmt.Fprintf(w, "Thread %d: %d accesses, %d misses\n",
			threadID, counters.accesses, counters.misses)
	}

	c.engine.PrintStats(w)
}

// RecordSummary inserts the end-of-run result into the attached recorder.
// It does nothing when no recorder is attached.
func (c *Comp) RecordSummary() {
	if c.recorder == nil {
		return
	}

	c.recorder.InsertData("llc_summary", summaryEntry{
		Policy:   c.policy.String(),
		NumSets:  c.numSets,
		Assoc:    c.assoc,
		Accesses: c.accesses,
		Misses:   c.misses,
		Bypasses: c.bypasses,
		MissRate: c.MissRate(),
	})
}

// Reset empties the cache and clears all counters.
func (c *Comp) Reset() {
	c.tags.Reset()
	c.engine.Reset()

	c.accesses = 0
	c.hits = 0
	c.misses = 0
	c.bypasses = 0
	c.intervalAccesses = 0
	c.intervalMisses = 0
	c.perThread = make(map[int]*threadCounters)
}

func (c *Comp) lineAddr(addr uint64) uint64 {
	return addr >> c.log2BlockSize << c.log2BlockSize
}

func (c *Comp) countersForThread(threadID int) *threadCounters {
	counters, ok := c.perThread[threadID]
	if !ok {
		counters = &threadCounters{}
		c.perThread[threadID] = counters
	}

	return counters
}

func (c *Comp) recordInterval() {
	if c.recorder == nil || c.interval == 0 {
		return
	}

	if c.intervalAccesses < c.interval {
		return
	}

	missRate := float64(c.intervalMisses) / float64(c.intervalAccesses)
	c.recorder.InsertData("llc_intervals", intervalEntry{
		EndAccess: c.accesses,
		Accesses:  c.intervalAccesses,
		Misses:    c.intervalMisses,
		MissRate:  missRate,
	})

	c.intervalAccesses = 0
	c.intervalMisses = 0
}
