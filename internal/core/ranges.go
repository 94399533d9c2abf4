package core

// Range selects a set of particle IDs.
type Range interface {
	Contains(id int) bool
}

// RangeAll matches every particle.
type RangeAll struct{}

func (RangeAll) Contains(int) bool { return true }

// RangeSpan matches the half-open ID interval [Begin, End).
type RangeSpan struct {
	Begin, End int
}

func (r RangeSpan) Contains(id int) bool { return id >= r.Begin && id < r.End }

// RangeList matches an explicit ID set.
type RangeList struct {
	IDs map[int]struct{}
}

func NewRangeList(ids ...int) RangeList {
	m := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return RangeList{IDs: m}
}

func (r RangeList) Contains(id int) bool {
	_, ok := r.IDs[id]
	return ok
}

// PairRange selects unordered particle pairs; interactions use these to
// claim the pairs they govern.
type PairRange interface {
	Matches(p1, p2 int) bool
}

// PairAll matches every pair.
type PairAll struct{}

func (PairAll) Matches(int, int) bool { return true }

// PairWithin matches pairs with both members inside R.
type PairWithin struct {
	R Range
}

func (r PairWithin) Matches(p1, p2 int) bool {
	return r.R.Contains(p1) && r.R.Contains(p2)
}

// PairBetween matches pairs with one member in each range.
type PairBetween struct {
	R1, R2 Range
}

func (r PairBetween) Matches(p1, p2 int) bool {
	return (r.R1.Contains(p1) && r.R2.Contains(p2)) ||
		(r.R1.Contains(p2) && r.R2.Contains(p1))
}

// PairNone matches nothing; a placeholder for disabled interactions.
type PairNone struct{}

func (PairNone) Matches(int, int) bool { return false }
