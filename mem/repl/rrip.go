package repl

// rripVictim returns the lowest-indexed way whose RRPV predicts a distant
// re-reference. If no way qualifies, every way in the set ages by one and
// the scan repeats. At most rripMax-1 aging rounds are needed because
// aging only runs when all RRPVs are below rripMax-1.
func (e *engineImpl) rripVictim(setID int) int {
	set := e.set(setID)

	for {
		for wayID := range set {
			if set[wayID].rrpv == rripMax-1 {
				return wayID
			}
		}

		for wayID := range set {
			set[wayID].rrpv++
		}
	}
}

// hitPromote applies the engine-level hit policy: reset to 0 by default,
// or a saturating decrement when the frequency-priority knob is on.
func (e *engineImpl) hitPromote(line *lineState) {
	if e.hitPolicy {
		if line.rrpv > 0 {
			line.rrpv--
		}
	} else {
		line.rrpv = 0
	}
}

// updateSRRIP inserts with a long re-reference prediction.
func (e *engineImpl) updateSRRIP(setID, wayID int, hit bool) {
	set := e.set(setID)

	if hit {
		e.hitPromote(&set[wayID])
	} else {
		set[wayID].rrpv = rripMax - 2
	}
}

// updateBRRIP inserts with a distant prediction most of the time, and with
// a long prediction once every epsilon misses on average.
func (e *engineImpl) updateBRRIP(setID, wayID int, hit bool) {
	set := e.set(setID)

	if hit {
		e.hitPromote(&set[wayID])
		return
	}

	if e.rng.Next()%epsilon == epsilon-1 {
		set[wayID].rrpv = rripMax - 2
	} else {
		set[wayID].rrpv = rripMax - 1
	}
}
