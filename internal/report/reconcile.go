package report

import (
	"context"
	"fmt"

	"github.com/mfallon/taskdesk/internal/domain"
	"github.com/mfallon/taskdesk/internal/repository"
)

// fetchAssignedTasks reconciles the two assignment representations for one
// user: the task_assignments join table and the legacy assigned_to column.
// No single query satisfies both, so each source is fetched independently
// with the same filter and the results are merged by task identifier.
func fetchAssignedTasks(ctx context.Context, tasks repository.TaskRepo, userID string, f repository.TaskFilter) ([]*domain.Task, error) {
	joined, err := tasks.ListAssignedViaJoin(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("fetching join-table assignments: %w", err)
	}
	legacy, err := tasks.ListAssignedLegacy(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("fetching legacy assignments: %w", err)
	}
	return mergeFirstSeen(joined, legacy), nil
}

// mergeFirstSeen unions task slices, deduplicating by task ID. The first
// record seen for an ID wins whole; there is no field-level merge.
func mergeFirstSeen(sources ...[]*domain.Task) []*domain.Task {
	seen := make(map[string]bool)
	var merged []*domain.Task
	for _, source := range sources {
		for _, t := range source {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			merged = append(merged, t)
		}
	}
	return merged
}
