// Package simqueue implements the per-traversable ordered multiset of (dist_along, car)
// described in SPEC_FULL.md §4.2. There is no teacher analogue for this component (the
// teacher tracks at most one service per edge); it is built directly from the spec's
// operation list, kept in the teacher's small-package, doc-comment-per-export style.
package simqueue

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/traffline/drivingcore/internal/mapmodel"
)

// ErrQueueInvariant is the sentinel for capacity or no-squish violations (the spec's
// QueueInvariant).
var ErrQueueInvariant = errors.New("simqueue: invariant violated")

// Entry is one (dist_along, car) pair, carrying the following distance its own vehicle
// requires of whoever follows it (used to check the no-squish invariant against the
// entry directly behind it).
type Entry struct {
	DistAlong     float64
	Car           uuid.UUID
	FollowingDist float64
}

// Queue is the ordered multiset for one Traversable: entries sorted descending by
// DistAlong (front of queue = greatest DistAlong = closest to the end of the
// traversable).
type Queue struct {
	On      mapmodel.Traversable
	entries []Entry
}

// New builds a Queue from an unordered slice of entries, sorting them descending by
// DistAlong and enforcing the capacity and no-squish invariants. length and
// bestCaseFollowingDist bound the queue's capacity: ceil(length/bestCaseFollowingDist),
// at least 1.
func New(on mapmodel.Traversable, length, bestCaseFollowingDist float64, entries []Entry) (*Queue, error) {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DistAlong > sorted[j].DistAlong })

	capacity := 1
	if bestCaseFollowingDist > 0 {
		if c := int(math.Ceil(length / bestCaseFollowingDist)); c > capacity {
			capacity = c
		}
	}
	if len(sorted) > capacity {
		return nil, fmt.Errorf("%w: traversable %s holds %d cars, capacity is %d",
			ErrQueueInvariant, on, len(sorted), capacity)
	}

	for i := 1; i < len(sorted); i++ {
		front, back := sorted[i-1], sorted[i]
		gap := front.DistAlong - back.DistAlong
		if gap <= 0 {
			return nil, fmt.Errorf("%w: traversable %s: cars %s and %s share dist_along %.6f",
				ErrQueueInvariant, on, front.Car, back.Car, front.DistAlong)
		}
		if gap < front.FollowingDist {
			return nil, fmt.Errorf("%w: traversable %s: gap %.6f between %s and %s is less than following_dist %.6f",
				ErrQueueInvariant, on, gap, front.Car, back.Car, front.FollowingDist)
		}
	}

	return &Queue{On: on, entries: sorted}, nil
}

// Len returns the number of cars in the queue.
func (q *Queue) Len() int { return len(q.entries) }

// Entries returns the queue's entries, front-to-back (descending DistAlong). The
// returned slice must not be mutated.
func (q *Queue) Entries() []Entry { return q.entries }

// NextCarInFrontOf returns the entry with the smallest DistAlong strictly greater than
// d — the car immediately ahead of position d — found by walking the descending order
// from the back (the smallest values) forward until the first value exceeding d.
func (q *Queue) NextCarInFrontOf(d float64) (Entry, bool) {
	for i := len(q.entries) - 1; i >= 0; i-- {
		if q.entries[i].DistAlong > d {
			return q.entries[i], true
		}
	}
	return Entry{}, false
}

// FirstCarBehind returns the entry with the largest DistAlong less than or equal to d,
// found scanning front-to-back (the already-descending order) for the first match.
func (q *Queue) FirstCarBehind(d float64) (Entry, bool) {
	for _, e := range q.entries {
		if e.DistAlong <= d {
			return e, true
		}
	}
	return Entry{}, false
}

// InsertAt inserts car at dist-along d, maintaining descending order by placing it
// before the first element whose DistAlong is less than d. Queues are bounded by
// length/best_case_following_dist, so linear search is acceptable; a binary search is
// trivially substitutable if that bound is ever relaxed.
func (q *Queue) InsertAt(car uuid.UUID, d, followingDist float64) {
	e := Entry{DistAlong: d, Car: car, FollowingDist: followingDist}
	for i, existing := range q.entries {
		if existing.DistAlong < d {
			q.entries = append(q.entries, Entry{})
			copy(q.entries[i+1:], q.entries[i:])
			q.entries[i] = e
			return
		}
	}
	q.entries = append(q.entries, e)
}
