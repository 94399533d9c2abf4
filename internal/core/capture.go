package core

import "sort"

// CaptureMap tracks the unordered pairs currently inside an attractive
// well. Membership changes only at WellIn/WellOut events.
type CaptureMap struct {
	pairs map[[2]int]struct{}
}

func NewCaptureMap() *CaptureMap {
	return &CaptureMap{pairs: make(map[[2]int]struct{})}
}

func pairKey(p1, p2 int) [2]int {
	if p1 > p2 {
		p1, p2 = p2, p1
	}
	return [2]int{p1, p2}
}

func (c *CaptureMap) Add(p1, p2 int)      { c.pairs[pairKey(p1, p2)] = struct{}{} }
func (c *CaptureMap) Remove(p1, p2 int)   { delete(c.pairs, pairKey(p1, p2)) }
func (c *CaptureMap) Has(p1, p2 int) bool { _, ok := c.pairs[pairKey(p1, p2)]; return ok }
func (c *CaptureMap) Len() int            { return len(c.pairs) }

// Pairs returns the captured pairs in deterministic order for
// serialisation.
func (c *CaptureMap) Pairs() [][2]int {
	out := make([][2]int, 0, len(c.pairs))
	for k := range c.pairs {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}
