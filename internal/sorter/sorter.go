// Package sorter implements the two-level event priority queue: a bounded
// min-heap of pending events per particle, and a heap over the per-particle
// queue heads for global earliest-event extraction. Events are never
// removed on invalidation; they carry collision-counter snapshots and are
// discarded lazily at the head.
package sorter

import (
	"math"

	"github.com/san-kum/dynamo/internal/event"
)

// initialQueueCap is the per-particle queue capacity before growth; most
// particles never see more than a handful of pending events.
const initialQueueCap = 12

type pqueue struct {
	events []event.Event
}

func (q *pqueue) empty() bool { return len(q.events) == 0 }

func (q *pqueue) head() event.Event { return q.events[0] }

func (q *pqueue) push(ev event.Event) {
	q.events = append(q.events, ev)
	i := len(q.events) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if !q.events[i].Less(q.events[parent]) {
			break
		}
		q.events[i], q.events[parent] = q.events[parent], q.events[i]
		i = parent
	}
}

func (q *pqueue) pop() event.Event {
	top := q.events[0]
	last := len(q.events) - 1
	q.events[0] = q.events[last]
	q.events = q.events[:last]
	q.siftDown(0)
	return top
}

func (q *pqueue) siftDown(i int) {
	n := len(q.events)
	for {
		l, r := 2*i+1, 2*i+2
		smallest := i
		if l < n && q.events[l].Less(q.events[smallest]) {
			smallest = l
		}
		if r < n && q.events[r].Less(q.events[smallest]) {
			smallest = r
		}
		if smallest == i {
			return
		}
		q.events[i], q.events[smallest] = q.events[smallest], q.events[i]
		i = smallest
	}
}

// Sorter owns the per-particle queues, the heads heap and the collision
// counters that drive lazy invalidation. System events live in a small
// side list rebuilt wholesale by RebuildSystemEvents.
type Sorter struct {
	queues   []pqueue
	counters []uint32

	heads []int // particle IDs, heap-ordered by queue head
	pos   []int // particle ID -> index in heads, -1 when absent

	system []event.Event
}

func New(n int) *Sorter {
	s := &Sorter{
		queues:   make([]pqueue, n),
		counters: make([]uint32, n),
		pos:      make([]int, n),
	}
	for i := range s.queues {
		s.queues[i].events = make([]event.Event, 0, initialQueueCap)
		s.pos[i] = -1
	}
	return s
}

// Counter returns particle id's current collision counter, used to
// snapshot events at creation.
func (s *Sorter) Counter(id int) uint32 { return s.counters[id] }

// Push inserts an event under its first participant, stamping the
// participants' current counters into the snapshot fields.
func (s *Sorter) Push(ev event.Event) {
	if !ev.Valid() {
		return
	}
	ev.Counter1 = s.counters[ev.P1]
	if ev.P2 >= 0 {
		ev.Counter2 = s.counters[ev.P2]
	}
	q := &s.queues[ev.P1]
	wasEmpty := q.empty()
	oldHead := event.Event{}
	if !wasEmpty {
		oldHead = q.head()
	}
	q.push(ev)
	if wasEmpty {
		s.headsPush(ev.P1)
	} else if q.head() != oldHead {
		s.headsFix(ev.P1)
	}
}

// ClearParticle invalidates every pending event that references id by
// bumping its counter, and drops id's own queue.
func (s *Sorter) ClearParticle(id int) {
	s.counters[id]++
	if !s.queues[id].empty() {
		s.queues[id].events = s.queues[id].events[:0]
		s.headsRemove(id)
	}
}

func (s *Sorter) valid(ev event.Event) bool {
	if ev.Counter1 != s.counters[ev.P1] {
		return false
	}
	if ev.P2 >= 0 && ev.Counter2 != s.counters[ev.P2] {
		return false
	}
	return true
}

// prune drops stale events from queue heads until every surfaced head is
// valid.
func (s *Sorter) prune() {
	for len(s.heads) > 0 {
		id := s.heads[0]
		q := &s.queues[id]
		for !q.empty() && !s.valid(q.head()) {
			q.pop()
		}
		if q.empty() {
			s.headsRemove(id)
			continue
		}
		s.headsFix(id)
		if s.valid(s.queues[s.heads[0]].head()) {
			return
		}
	}
}

// PeekNext returns the earliest valid event without removing it.
func (s *Sorter) PeekNext() (event.Event, bool) {
	s.prune()
	best := event.NewNone()
	ok := false
	if len(s.heads) > 0 {
		best = s.queues[s.heads[0]].head()
		ok = true
	}
	for _, ev := range s.system {
		if ev.Time < best.Time {
			best = ev
			ok = true
		}
	}
	return best, ok
}

// PopNext extracts the earliest valid event. System events are left in
// place; they are replaced wholesale when the owning system reschedules.
func (s *Sorter) PopNext() (event.Event, bool) {
	ev, ok := s.PeekNext()
	if !ok {
		return ev, false
	}
	if ev.Kind == event.KindSystem {
		return ev, true
	}
	id := s.heads[0]
	q := &s.queues[id]
	q.pop()
	if q.empty() {
		s.headsRemove(id)
	} else {
		s.headsFix(id)
	}
	return ev, true
}

// RescaleTimes multiplies every stored (absolute) event time by factor.
// Replica exchange retimes its queues through TransformTimes instead.
func (s *Sorter) RescaleTimes(factor float64) {
	s.TransformTimes(func(t float64) float64 { return t * factor })
}

// TransformTimes rewrites every stored event time through f. f must be
// monotonic so heap order within each queue is preserved.
func (s *Sorter) TransformTimes(f func(float64) float64) {
	for i := range s.queues {
		for j := range s.queues[i].events {
			s.queues[i].events[j].Time = f(s.queues[i].events[j].Time)
		}
	}
	for i := range s.system {
		s.system[i].Time = f(s.system[i].Time)
	}
}

// RebuildSystemEvents replaces the fixed-schedule system event set.
func (s *Sorter) RebuildSystemEvents(evs []event.Event) {
	s.system = s.system[:0]
	for _, ev := range evs {
		if !math.IsInf(ev.Time, 1) {
			s.system = append(s.system, ev)
		}
	}
}

// QueueLen reports the pending-event count for a particle.
func (s *Sorter) QueueLen(id int) int { return len(s.queues[id].events) }

// heads heap helpers: ordered by each queue's head event.

func (s *Sorter) headLess(a, b int) bool {
	return s.queues[a].head().Less(s.queues[b].head())
}

func (s *Sorter) headsPush(id int) {
	s.heads = append(s.heads, id)
	s.pos[id] = len(s.heads) - 1
	s.headsUp(len(s.heads) - 1)
}

func (s *Sorter) headsRemove(id int) {
	i := s.pos[id]
	if i < 0 {
		return
	}
	last := len(s.heads) - 1
	s.headsSwap(i, last)
	s.heads = s.heads[:last]
	s.pos[id] = -1
	if i < last {
		s.headsDown(i)
		s.headsUp(i)
	}
}

func (s *Sorter) headsFix(id int) {
	i := s.pos[id]
	if i < 0 {
		return
	}
	s.headsDown(i)
	s.headsUp(i)
}

func (s *Sorter) headsSwap(i, j int) {
	s.heads[i], s.heads[j] = s.heads[j], s.heads[i]
	s.pos[s.heads[i]] = i
	s.pos[s.heads[j]] = j
}

func (s *Sorter) headsUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !s.headLess(s.heads[i], s.heads[parent]) {
			return
		}
		s.headsSwap(i, parent)
		i = parent
	}
}

func (s *Sorter) headsDown(i int) {
	n := len(s.heads)
	for {
		l, r := 2*i+1, 2*i+2
		smallest := i
		if l < n && s.headLess(s.heads[l], s.heads[smallest]) {
			smallest = l
		}
		if r < n && s.headLess(s.heads[r], s.heads[smallest]) {
			smallest = r
		}
		if smallest == i {
			return
		}
		s.headsSwap(i, smallest)
		i = smallest
	}
}
