// Package tagging provides the tag array of a set-associative cache.
package tagging

// A Block is the tag information associated with one cache line.
type Block struct {
	Tag      uint64
	ThreadID int
	SetID    int
	WayID    int
	IsValid  bool
}

// A Set is the group of blocks that a certain piece of memory can be
// stored at.
type Set struct {
	Blocks []Block
}

// A TagArray keeps track of which lines are stored in a cache.
type TagArray interface {
	Lookup(threadID int, lineAddr uint64) (Block, bool)
	Update(block Block)
	GetSet(lineAddr uint64) (set *Set, setID int)
	Reset()
}

// NewTagArray creates a TagArray with densely allocated sets.
func NewTagArray(numSets, numWays, blockSize int) TagArray {
	t := &tagArrayImpl{
		NumSets:   numSets,
		NumWays:   numWays,
		BlockSize: blockSize,
	}

	t.Reset()

	return t
}

type tagArrayImpl struct {
	NumSets   int
	NumWays   int
	BlockSize int
	Sets      []Set
}

// TotalSize returns the maximum number of bytes the cache can store.
func (t *tagArrayImpl) TotalSize() uint64 {
	return uint64(t.NumSets) * uint64(t.NumWays) * uint64(t.BlockSize)
}

// GetSet returns the set that a certain address should be stored at.
func (t *tagArrayImpl) GetSet(lineAddr uint64) (set *Set, setID int) {
	setID = int(lineAddr / uint64(t.BlockSize) % uint64(t.NumSets))
	set = &t.Sets[setID]

	return
}

// Lookup finds the block that stores the line at lineAddr. The bool return
// is false if the line is not in the cache.
func (t *tagArrayImpl) Lookup(threadID int, lineAddr uint64) (Block, bool) {
	set, _ := t.GetSet(lineAddr)
	for _, block := range set.Blocks {
		if block.IsValid &&
			block.Tag == lineAddr &&
			block.ThreadID == threadID {
			return block, true
		}
	}

	return Block{}, false
}

// Update overwrites the block at the position the block names.
func (t *tagArrayImpl) Update(block Block) {
	t.Sets[block.SetID].Blocks[block.WayID] = block
}

// Reset marks all the blocks in the tag array invalid.
func (t *tagArrayImpl) Reset() {
	t.Sets = make([]Set, t.NumSets)
	for i := 0; i < t.NumSets; i++ {
		for j := 0; j < t.NumWays; j++ {
			block := Block{
				IsValid: false,
				SetID:   i,
				WayID:   j,
			}

			t.Sets[i].Blocks = append(t.Sets[i].Blocks, block)
		}
	}
}
