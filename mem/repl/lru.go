package repl

// lruVictim returns the block at the bottom of the LRU stack. The top of
// the stack is position 0; the bottom is position assoc-1.
func (e *engineImpl) lruVictim(setID int) int {
	set := e.set(setID)
	lruWay := 0

	for wayID := range set {
		if set[wayID].lruStackPosition == e.assoc-1 {
			lruWay = wayID
			break
		}
	}

	return lruWay
}

// updateLRU moves the touched way to the top of the stack. Every way that
// was above it slides down by one, which keeps the stack positions a
// permutation of 0..assoc-1.
func (e *engineImpl) updateLRU(setID, wayID int) {
	set := e.set(setID)
	pos := set[wayID].lruStackPosition

	for i := range set {
		if set[i].lruStackPosition < pos {
			set[i].lruStackPosition++
		}
	}

	set[wayID].lruStackPosition = 0
}
