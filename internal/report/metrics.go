package report

import (
	"math"
	"sort"
	"time"

	"github.com/mfallon/taskdesk/internal/domain"
)

// bottleneckThresholdDays is how long a task may sit in the awaiting-review
// state before it counts as a bottleneck.
const bottleneckThresholdDays = 7

// rankingSize bounds the company-wide most-active rankings.
const rankingSize = 10

// statusHistogram counts tasks per canonical lifecycle state.
func statusHistogram(tasks []*domain.Task) map[string]int {
	hist := make(map[string]int, len(domain.CanonicalTaskStatuses))
	for _, s := range domain.CanonicalTaskStatuses {
		hist[string(s)] = 0
	}
	for _, t := range tasks {
		hist[string(t.Status)]++
	}
	return hist
}

// completionRate returns completed/total*100 rounded to one decimal,
// or 0 when total is zero. Completed means Done or Closed.
func completionRate(tasks []*domain.Task) (completed int, rate float64) {
	for _, t := range tasks {
		if t.Status == domain.TaskDone || t.Status == domain.TaskClosed {
			completed++
		}
	}
	if len(tasks) == 0 {
		return 0, 0
	}
	rate = math.Round(float64(completed)/float64(len(tasks))*1000) / 10
	return completed, rate
}

// overdueCount counts tasks past due and not terminal.
func overdueCount(tasks []*domain.Task, now time.Time) int {
	var n int
	for _, t := range tasks {
		if t.IsOverdue(now) {
			n++
		}
	}
	return n
}

// avgDaysInStatus computes mean residency per status as
// (updated_at − created_at) in days. The terminal status is excluded:
// residency there is open-ended.
func avgDaysInStatus(tasks []*domain.Task) map[string]float64 {
	sums := make(map[domain.TaskStatus]float64)
	counts := make(map[domain.TaskStatus]int)
	for _, t := range tasks {
		if t.Status.IsTerminal() {
			continue
		}
		sums[t.Status] += t.AgeDays()
		counts[t.Status]++
	}

	out := make(map[string]float64, len(sums))
	for status, sum := range sums {
		avg := sum / float64(counts[status])
		out[string(status)] = math.Round(avg*10) / 10
	}
	return out
}

// bottleneckCount counts tasks lingering in the awaiting-review state
// beyond the threshold, measured from the last update.
func bottleneckCount(tasks []*domain.Task, now time.Time) int {
	cutoff := now.AddDate(0, 0, -bottleneckThresholdDays)
	var n int
	for _, t := range tasks {
		if t.Status == domain.TaskDone && t.UpdatedAt.Before(cutoff) {
			n++
		}
	}
	return n
}

// pendingReviewCount counts tasks in the pre-terminal awaiting-review state.
func pendingReviewCount(tasks []*domain.Task) int {
	var n int
	for _, t := range tasks {
		if t.Status == domain.TaskDone {
			n++
		}
	}
	return n
}

// rankedCount accumulates counts keyed by ID while preserving first-seen
// order so ranking ties break by encounter order.
type rankedCount struct {
	counts map[string]int
	order  []string
}

func newRankedCount() *rankedCount {
	return &rankedCount{counts: make(map[string]int)}
}

func (r *rankedCount) add(id string) {
	if _, ok := r.counts[id]; !ok {
		r.order = append(r.order, id)
	}
	r.counts[id]++
}

// top returns up to n IDs sorted by count descending; ties keep encounter
// order (stable sort over the first-seen sequence).
func (r *rankedCount) top(n int) []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	sort.SliceStable(ids, func(i, j int) bool {
		return r.counts[ids[i]] > r.counts[ids[j]]
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}
