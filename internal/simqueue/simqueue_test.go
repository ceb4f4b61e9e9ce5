package simqueue_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traffline/drivingcore/internal/mapmodel"
	"github.com/traffline/drivingcore/internal/simqueue"
)

var lane = mapmodel.LaneTraversable("l1")

func TestNew_SortsDescendingByDistAlong(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	q, err := simqueue.New(lane, 100, 5, []simqueue.Entry{
		{DistAlong: 10, Car: a, FollowingDist: 5},
		{DistAlong: 30, Car: b, FollowingDist: 5},
		{DistAlong: 20, Car: c, FollowingDist: 5},
	})
	require.NoError(t, err)
	entries := q.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, b, entries[0].Car)
	assert.Equal(t, c, entries[1].Car)
	assert.Equal(t, a, entries[2].Car)
}

func TestNew_RejectsOverCapacity(t *testing.T) {
	var entries []simqueue.Entry
	for i := 0; i < 5; i++ {
		entries = append(entries, simqueue.Entry{DistAlong: float64(i) * 10, Car: uuid.New(), FollowingDist: 5})
	}
	// length 20, best_case_following_dist 5 -> capacity ceil(20/5) = 4, but 5 cars given.
	_, err := simqueue.New(lane, 20, 5, entries)
	require.Error(t, err)
	assert.ErrorIs(t, err, simqueue.ErrQueueInvariant)
}

func TestNew_RejectsSquish(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	_, err := simqueue.New(lane, 100, 5, []simqueue.Entry{
		{DistAlong: 10, Car: a, FollowingDist: 5},
		{DistAlong: 8, Car: b, FollowingDist: 5}, // gap 2 < following dist 5
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, simqueue.ErrQueueInvariant)
}

func TestNew_RejectsSharedDistAlong(t *testing.T) {
	_, err := simqueue.New(lane, 100, 5, []simqueue.Entry{
		{DistAlong: 10, Car: uuid.New(), FollowingDist: 5},
		{DistAlong: 10, Car: uuid.New(), FollowingDist: 5},
	})
	require.Error(t, err)
}

func TestNextCarInFrontOf(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	q, err := simqueue.New(lane, 100, 5, []simqueue.Entry{
		{DistAlong: 10, Car: a, FollowingDist: 5},
		{DistAlong: 30, Car: b, FollowingDist: 5},
	})
	require.NoError(t, err)

	front, ok := q.NextCarInFrontOf(20)
	require.True(t, ok)
	assert.Equal(t, b, front.Car)

	_, ok = q.NextCarInFrontOf(30)
	assert.False(t, ok, "strictly ahead: equal dist_along does not count")

	_, ok = q.NextCarInFrontOf(31)
	assert.False(t, ok)
}

func TestFirstCarBehind(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	q, err := simqueue.New(lane, 100, 5, []simqueue.Entry{
		{DistAlong: 10, Car: a, FollowingDist: 5},
		{DistAlong: 30, Car: b, FollowingDist: 5},
	})
	require.NoError(t, err)

	behind, ok := q.FirstCarBehind(30)
	require.True(t, ok)
	assert.Equal(t, b, behind.Car, "<=d includes an exact match")

	behind, ok = q.FirstCarBehind(20)
	require.True(t, ok)
	assert.Equal(t, a, behind.Car)

	_, ok = q.FirstCarBehind(5)
	assert.False(t, ok)
}

func TestInsertAt_KeepsDescendingOrder(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	q, err := simqueue.New(lane, 100, 5, []simqueue.Entry{
		{DistAlong: 10, Car: a, FollowingDist: 5},
		{DistAlong: 30, Car: b, FollowingDist: 5},
	})
	require.NoError(t, err)

	q.InsertAt(c, 20, 5)
	entries := q.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, []uuid.UUID{b, c, a}, []uuid.UUID{entries[0].Car, entries[1].Car, entries[2].Car})
}

func TestNew_EmptyQueueAllowed(t *testing.T) {
	q, err := simqueue.New(lane, 100, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, q.Len())
}
