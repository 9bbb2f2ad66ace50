package repl

// DRRIP dedicates a small number of leader sets to SRRIP and BRRIP and
// steers every other set with the PSEL counter. The leader strides 33 and
// 31 are coprime with power-of-two set counts, so the two leader
// populations spread across the cache without colliding.

func isSRRIPLeader(setID int) bool {
	return setID%33 == 0 && setID < 33*leaderSets
}

func isBRRIPLeader(setID int) bool {
	return setID%31 == 0 && setID > 0 && setID <= 31*leaderSets
}

// updateDRRIP routes the update to SRRIP or BRRIP. Leader misses train
// PSEL toward the sub-policy that misses less: an SRRIP leader miss pulls
// followers toward BRRIP and vice versa. Hits leave PSEL alone. A set
// that qualifies as both kinds of leader counts as an SRRIP leader.
func (e *engineImpl) updateDRRIP(setID, wayID int, hit bool) {
	switch {
	case isSRRIPLeader(setID):
		e.updateSRRIP(setID, wayID, hit)

		if !hit {
			if e.psel > 0 {
				e.psel--
			}
			e.stats.srripLeaderMisses++
		}
	case isBRRIPLeader(setID):
		e.updateBRRIP(setID, wayID, hit)

		if !hit {
			if e.psel < pselMax {
				e.psel++
			}
			e.stats.brripLeaderMisses++
		}
	case e.psel >= pselMax/2:
		e.updateSRRIP(setID, wayID, hit)

		if !hit {
			e.stats.srripFollowerMisses++
		}
	default:
		e.updateBRRIP(setID, wayID, hit)

		if !hit {
			e.stats.brripFollowerMisses++
		}
	}
}
