package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mfallon/taskdesk/internal/domain"
	"github.com/mfallon/taskdesk/internal/testutil"
)

func TestCompletionRateRounding(t *testing.T) {
	tasks := []*domain.Task{
		testutil.NewTestTask("a", testutil.WithStatus(domain.TaskDone)),
		testutil.NewTestTask("b"),
		testutil.NewTestTask("c"),
	}

	completed, rate := completionRate(tasks)
	assert.Equal(t, 1, completed)
	assert.InDelta(t, 33.3, rate, 0.001, "1/3 rounds to one decimal place")
}

func TestCompletionRateEmptyIsZero(t *testing.T) {
	completed, rate := completionRate(nil)
	assert.Equal(t, 0, completed)
	assert.Zero(t, rate)
}

func TestAvgDaysInStatusExcludesTerminal(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tasks := []*domain.Task{
		testutil.NewTestTask("wip",
			testutil.WithStatus(domain.TaskWorkInProgress),
			testutil.WithCreatedAt(base),
			testutil.WithUpdatedAt(base.AddDate(0, 0, 4)),
		),
		testutil.NewTestTask("wip2",
			testutil.WithStatus(domain.TaskWorkInProgress),
			testutil.WithCreatedAt(base),
			testutil.WithUpdatedAt(base.AddDate(0, 0, 2)),
		),
		testutil.NewTestTask("closed",
			testutil.WithStatus(domain.TaskClosed),
			testutil.WithCreatedAt(base),
			testutil.WithUpdatedAt(base.AddDate(0, 0, 30)),
		),
	}

	avg := avgDaysInStatus(tasks)
	assert.InDelta(t, 3.0, avg[string(domain.TaskWorkInProgress)], 0.001)
	_, hasClosed := avg[string(domain.TaskClosed)]
	assert.False(t, hasClosed, "terminal residency is open-ended and excluded")
}

func TestRankedCountTieBreaksByEncounterOrder(t *testing.T) {
	r := newRankedCount()
	r.add("second")
	r.add("first")
	r.add("first")
	r.add("second")
	r.add("third")

	top := r.top(10)
	assert.Equal(t, []string{"second", "first", "third"}, top)
}

func TestRankedCountTruncates(t *testing.T) {
	r := newRankedCount()
	for _, id := range []string{"a", "b", "c", "d"} {
		r.add(id)
	}
	assert.Len(t, r.top(2), 2)
}

func TestMergeFirstSeenPrefersEarlierSource(t *testing.T) {
	shared := testutil.NewTestTask("shared", testutil.WithStatus(domain.TaskDone))
	sharedStale := *shared
	sharedStale.Status = domain.TaskToDo

	joined := []*domain.Task{shared, testutil.NewTestTask("join only")}
	legacy := []*domain.Task{&sharedStale, testutil.NewTestTask("legacy only")}

	merged := mergeFirstSeen(joined, legacy)
	assert.Len(t, merged, 3)
	assert.Equal(t, domain.TaskDone, merged[0].Status, "first-seen record wins whole")
}

func TestReconcileAssignees(t *testing.T) {
	legacy := "u1"
	assert.Equal(t, []string{"u1", "u2"}, reconcileAssignees([]string{"u1", "u2"}, &legacy))
	assert.Equal(t, []string{"u2", "u1"}, reconcileAssignees([]string{"u2"}, &legacy))
	assert.Equal(t, []string{"u1"}, reconcileAssignees(nil, &legacy))
	assert.Nil(t, reconcileAssignees(nil, nil))
}
