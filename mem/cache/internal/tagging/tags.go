package tagging

// A Line is the bookkeeping of one way of a set. When the line is not valid,
// the rest of the fields carry no meaning.
type Line struct {
	Tag            uint64
	Valid          bool
	Dirty          bool
	CoreID         int
	LastAccessTime uint64
}

// A Set is a fixed list of lines that a group of line addresses can be
// stored at. The index of a line in the list is its way ID.
type Set struct {
	Lines []Line
}

// TagArray is the set-indexed storage of a cache. Line addresses are
// interleaved across sets: the set is the address modulo the number of sets
// and the tag is the quotient.
type TagArray struct {
	NumSets int
	NumWays int
	Sets    []Set
}

// NewTagArray creates a tag array with all lines invalid.
func NewTagArray(numSets, numWays int) *TagArray {
	t := &TagArray{
		NumSets: numSets,
		NumWays: numWays,
	}

	t.Reset()

	return t
}

// Split breaks a line address into its set ID and tag.
func (t *TagArray) Split(lineAddr uint64) (setID int, tag uint64) {
	n := uint64(t.NumSets)
	return int(lineAddr % n), lineAddr / n
}

// Join is the inverse of Split.
func (t *TagArray) Join(tag uint64, setID int) uint64 {
	return tag*uint64(t.NumSets) + uint64(setID)
}

// GetSet returns the set with the given ID.
func (t *TagArray) GetSet(setID int) *Set {
	return &t.Sets[setID]
}

// Lookup finds the valid line that holds lineAddr for the given core. It
// returns the way ID of the line, or -1 if there is no such line.
func (t *TagArray) Lookup(lineAddr uint64, coreID int) (set *Set, wayID int) {
	setID, tag := t.Split(lineAddr)
	set = &t.Sets[setID]

	for i := range set.Lines {
		l := &set.Lines[i]
		if l.Valid && l.Tag == tag && l.CoreID == coreID {
			return set, i
		}
	}

	return set, -1
}

// FirstInvalid returns the first way of the set that does not hold a valid
// line, or -1 if the set is full.
func (s *Set) FirstInvalid() int {
	for i := range s.Lines {
		if !s.Lines[i].Valid {
			return i
		}
	}

	return -1
}

// Reset invalidates all the lines.
func (t *TagArray) Reset() {
	t.Sets = make([]Set, t.NumSets)
	for i := range t.Sets {
		t.Sets[i].Lines = make([]Line, t.NumWays)
	}
}
