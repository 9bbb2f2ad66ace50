package repl

// randomVictim returns a uniformly random way. The draw comes from the
// engine-owned sequence so that runs with the same seed pick the same
// victims.
func (e *engineImpl) randomVictim(setID int) int {
	e.mustBeValidSet(setID)
	return int(e.rng.Next() % uint64(e.assoc))
}
