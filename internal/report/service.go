package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mfallon/taskdesk/internal/domain"
	"github.com/mfallon/taskdesk/internal/repository"
)

// Service produces aggregated report payloads for super-admin callers.
type Service interface {
	Generate(ctx context.Context, req Request) (*Report, error)
}

type service struct {
	tasks       repository.TaskRepo
	assignments repository.AssignmentRepo
	projects    repository.ProjectRepo
	users       repository.UserRepo
	roles       repository.RoleRepo
	audit       repository.ReportLogRepo
	observer    Observer
}

// NewService creates the report aggregator.
func NewService(
	tasks repository.TaskRepo,
	assignments repository.AssignmentRepo,
	projects repository.ProjectRepo,
	users repository.UserRepo,
	roles repository.RoleRepo,
	audit repository.ReportLogRepo,
	observers ...Observer,
) Service {
	var obs Observer = NoopObserver{}
	for _, o := range observers {
		if o != nil {
			obs = o
			break
		}
	}
	return &service{
		tasks:       tasks,
		assignments: assignments,
		projects:    projects,
		users:       users,
		roles:       roles,
		audit:       audit,
		observer:    obs,
	}
}

func (s *service) Generate(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()
	now := time.Now().UTC()
	if req.Now != nil {
		now = *req.Now
	}

	// Validation and authorization fail fast, before any report data access
	// and before the audit record.
	if err := validate(req); err != nil {
		return nil, err
	}
	generatedBy, err := s.authorize(ctx, req.RequestedBy)
	if err != nil {
		return nil, err
	}

	content, buildErr := s.build(ctx, req, now)
	duration := time.Since(start)

	s.writeAudit(ctx, req, duration, buildErr)
	s.observer.ObserveReport(ctx, Event{
		ReportType: string(req.Type),
		Duration:   duration,
		Success:    buildErr == nil,
		Err:        buildErr,
	})

	if buildErr != nil {
		return nil, buildErr
	}
	return &Report{
		Title:       reportTitle(req.Type),
		GeneratedBy: generatedBy,
		GeneratedAt: now,
		Content:     content,
	}, nil
}

// validate enforces per-type parameter requirements.
func validate(req Request) error {
	if !domain.ValidReportTypes[req.Type] {
		return fmt.Errorf("%w: unrecognized report type %q", domain.ErrInvalidParameters, req.Type)
	}
	if req.Type == domain.ReportUserPerformance && req.UserID == nil {
		return fmt.Errorf("%w: user_performance report requires a user id", domain.ErrInvalidParameters)
	}
	if req.Type == domain.ReportProject && req.ProjectID == nil {
		return fmt.Errorf("%w: project report requires a project id", domain.ErrInvalidParameters)
	}
	return nil
}

// authorize resolves the caller's role through two sequential lookups
// (user → role id, role id → role name) and requires the highest privilege
// tier. A miss in either lookup is a NotFound, never a silent default.
func (s *service) authorize(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: missing caller identity", domain.ErrUnauthorized)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolving caller: %w", err)
	}
	role, err := s.roles.GetByID(ctx, user.RoleID)
	if err != nil {
		return "", fmt.Errorf("resolving caller role: %w", err)
	}
	if !domain.HasCapability(role.Name, domain.CapGenerateReports) {
		return "", fmt.Errorf("%w: role %s cannot generate reports", domain.ErrForbidden, role.Name)
	}
	return user.FullName, nil
}

func (s *service) build(ctx context.Context, req Request, now time.Time) (interface{}, error) {
	switch req.Type {
	case domain.ReportUserPerformance:
		return s.buildUserPerformance(ctx, req, now)
	case domain.ReportTaskLifecycle:
		return s.buildTaskLifecycle(ctx, req, now)
	case domain.ReportProject:
		return s.buildProject(ctx, req, now)
	case domain.ReportCompanyWide:
		return s.buildCompanyWide(ctx, req, now)
	default:
		return nil, fmt.Errorf("%w: unrecognized report type %q", domain.ErrInvalidParameters, req.Type)
	}
}

func (s *service) buildUserPerformance(ctx context.Context, req Request, now time.Time) (interface{}, error) {
	subject, err := s.users.GetByID(ctx, *req.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDataFetch, err)
	}

	filter := repository.TaskFilter{ProjectID: req.ProjectID, DateFrom: req.DateFrom, DateTo: req.DateTo}
	tasks, err := fetchAssignedTasks(ctx, s.tasks, subject.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDataFetch, err)
	}

	completed, rate := completionRate(tasks)
	content := &UserPerformanceContent{
		UserID:         subject.ID,
		UserName:       subject.FullName,
		TotalTasks:     len(tasks),
		CompletedTasks: completed,
		CompletionRate: rate,
		OverdueTasks:   overdueCount(tasks, now),
		ByPriority:     make(map[string]int),
		ByProject:      make(map[string]int),
	}
	for _, t := range tasks {
		switch t.Status {
		case domain.TaskWorkInProgress:
			content.InProgressTasks++
		case domain.TaskToDo:
			content.TodoTasks++
		}
		content.ByPriority[string(t.Priority)]++
		projectKey := t.ProjectID
		if projectKey == "" {
			projectKey = "(none)"
		}
		content.ByProject[projectKey]++
	}
	return content, nil
}

func (s *service) buildTaskLifecycle(ctx context.Context, req Request, now time.Time) (interface{}, error) {
	filter := repository.TaskFilter{ProjectID: req.ProjectID, DateFrom: req.DateFrom, DateTo: req.DateTo}
	tasks, err := s.tasks.ListActive(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDataFetch, err)
	}
	reopened, err := s.tasks.CountReopened(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDataFetch, err)
	}

	return &TaskLifecycleContent{
		TotalTasks:      len(tasks),
		StatusHistogram: statusHistogram(tasks),
		AvgDaysInStatus: avgDaysInStatus(tasks),
		ReopenedCount:   reopened,
		Bottlenecks:     bottleneckCount(tasks, now),
	}, nil
}

func (s *service) buildProject(ctx context.Context, req Request, now time.Time) (interface{}, error) {
	project, err := s.projects.GetByID(ctx, *req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDataFetch, err)
	}

	filter := repository.TaskFilter{ProjectID: &project.ID, DateFrom: req.DateFrom, DateTo: req.DateTo}
	tasks, err := s.tasks.ListActive(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDataFetch, err)
	}

	_, rate := completionRate(tasks)
	content := &ProjectContent{
		ProjectID:          project.ID,
		ProjectName:        project.Name,
		ProjectStatus:      string(project.Status),
		TotalTasks:         len(tasks),
		StatusHistogram:    statusHistogram(tasks),
		CompletionRate:     rate,
		OverdueTasks:       overdueCount(tasks, now),
		WorkloadByAssignee: make(map[string]int),
	}

	for _, t := range tasks {
		assignees, err := s.taskAssignees(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrDataFetch, err)
		}
		for _, userID := range assignees {
			content.WorkloadByAssignee[userID]++
		}
	}
	return content, nil
}

func (s *service) buildCompanyWide(ctx context.Context, req Request, now time.Time) (interface{}, error) {
	activeUsers, err := s.users.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDataFetch, err)
	}
	projects, err := s.projects.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDataFetch, err)
	}
	filter := repository.TaskFilter{DateFrom: req.DateFrom, DateTo: req.DateTo}
	tasks, err := s.tasks.ListActive(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDataFetch, err)
	}
	assignments, err := s.assignments.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDataFetch, err)
	}

	// Join-table assignees per task, in assignment order.
	joinAssignees := make(map[string][]string)
	for _, a := range assignments {
		joinAssignees[a.TaskID] = append(joinAssignees[a.TaskID], a.UserID)
	}

	userRank := newRankedCount()
	projectRank := newRankedCount()
	for _, t := range tasks {
		assignees := reconcileAssignees(joinAssignees[t.ID], t.AssignedTo)
		for _, userID := range assignees {
			userRank.add(userID)
		}
		if t.ProjectID != "" {
			projectRank.add(t.ProjectID)
		}
	}

	content := &CompanyWideContent{
		ActiveUsers:     activeUsers,
		TotalProjects:   len(projects),
		StatusHistogram: statusHistogram(tasks),
		OverdueTasks:    overdueCount(tasks, now),
		PendingReview:   pendingReviewCount(tasks),
	}
	for _, id := range userRank.top(rankingSize) {
		content.TopUsers = append(content.TopUsers, UserActivity{UserID: id, TaskCount: userRank.counts[id]})
	}
	for _, id := range projectRank.top(rankingSize) {
		content.TopProjects = append(content.TopProjects, ProjectActivity{ProjectID: id, TaskCount: projectRank.counts[id]})
	}
	return content, nil
}

// taskAssignees returns the deduplicated assignee set for one task across
// both assignment mechanisms.
func (s *service) taskAssignees(ctx context.Context, t *domain.Task) ([]string, error) {
	joined, err := s.assignments.ListByTask(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(joined)+1)
	for _, a := range joined {
		ids = append(ids, a.UserID)
	}
	return reconcileAssignees(ids, t.AssignedTo), nil
}

// reconcileAssignees unions join-table assignees with the legacy owner,
// first-seen wins.
func reconcileAssignees(joined []string, legacy *string) []string {
	seen := make(map[string]bool, len(joined)+1)
	var out []string
	for _, id := range joined {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if legacy != nil && !seen[*legacy] {
		out = append(out, *legacy)
	}
	return out
}

// writeAudit records the invocation best-effort. A failed audit write must
// never fail the parent request; the observer is the only witness.
func (s *service) writeAudit(ctx context.Context, req Request, duration time.Duration, buildErr error) {
	params, err := json.Marshal(req)
	if err != nil {
		params = []byte("{}")
	}

	entry := &repository.ReportLogEntry{
		ID:          uuid.New().String(),
		ReportType:  string(req.Type),
		Parameters:  string(params),
		GeneratedBy: req.RequestedBy,
		DurationMs:  duration.Milliseconds(),
		Status:      "success",
		CreatedAt:   time.Now().UTC(),
	}
	if buildErr != nil {
		entry.Status = "error"
		msg := buildErr.Error()
		entry.Error = &msg
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.observer.ObserveReport(ctx, Event{
			ReportType: string(req.Type),
			Success:    false,
			Err:        fmt.Errorf("audit write failed: %w", err),
		})
	}
}

func reportTitle(t domain.ReportType) string {
	switch t {
	case domain.ReportUserPerformance:
		return "User Performance Report"
	case domain.ReportTaskLifecycle:
		return "Task Lifecycle Report"
	case domain.ReportProject:
		return "Project Report"
	case domain.ReportCompanyWide:
		return "Company-Wide Report"
	default:
		return "Report"
	}
}
