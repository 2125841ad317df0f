package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ad-tech1009/Teams-ToDo/internal/domain"
	"github.com/Ad-tech1009/Teams-ToDo/internal/event"
	"github.com/Ad-tech1009/Teams-ToDo/internal/repository"
	apperrors "github.com/Ad-tech1009/Teams-ToDo/pkg/errors"
)

// TaskService implements the business logic for task operations, including
// the per-field mutation rules for creators and assignees.
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		producer: producer,
		logger:   logger,
	}
}

// CreateTaskInput holds the parameters for creating a task.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    string
	Status      string
	AssignedTo  string
}

// UpdateTaskInput holds a partial task update. Nil fields are not proposed.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *string
	Status      *string
	AssignedTo  *string
}

// Create creates a new task owned by the caller.
func (s *TaskService) Create(ctx context.Context, creatorID string, input CreateTaskInput) (*domain.Task, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}

	priority := domain.TaskPriority(input.Priority)
	if input.Priority == "" {
		priority = domain.PriorityMedium
	} else if !domain.IsValidPriority(priority) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid priority %q", input.Priority))
	}

	status := domain.TaskStatus(input.Status)
	if input.Status == "" {
		status = domain.StatusTodo
	} else if !domain.IsValidStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", input.Status))
	}

	if input.AssignedTo != "" {
		if err := s.checkAssignee(ctx, input.AssignedTo); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	task := &domain.Task{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Priority:    priority,
		Status:      status,
		AssignedTo:  input.AssignedTo,
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	if err := s.producer.PublishTaskCreated(ctx, task); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish task.created event",
			slog.String("task_id", task.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "task created",
		slog.String("task_id", task.ID),
		slog.String("created_by", creatorID),
	)

	// Re-read to resolve creator/assignee refs for the response.
	created, err := s.taskRepo.GetByID(ctx, task.ID)
	if err != nil {
		return task, nil
	}
	return created, nil
}

// List returns every task the caller created or is assigned to.
func (s *TaskService) List(ctx context.Context, userID string) ([]domain.Task, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Get returns a single task. Only the creator and the assignee may see it.
func (s *TaskService) Get(ctx context.Context, callerID, taskID string) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.RoleOf(callerID) == domain.TaskRoleNone {
		return nil, apperrors.Forbidden("you do not have access to this task")
	}

	return task, nil
}

// Update applies a partial update to a task, enforcing per-field mutation
// rules. The creator may change any mutable field; the assignee may only
// change the status. Any proposed field outside the caller's allowed set
// fails the whole request with nothing written.
func (s *TaskService) Update(ctx context.Context, callerID, taskID string, input UpdateTaskInput) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	role := task.RoleOf(callerID)
	if role == domain.TaskRoleNone {
		return nil, apperrors.Forbidden("you do not have access to this task")
	}

	proposed := input.proposedFields()
	if len(proposed) == 0 {
		return nil, apperrors.InvalidInput("no fields to update")
	}

	// Authorization is checked before the values themselves, so a caller
	// proposing a field outside their role sees Forbidden even when the
	// value would also have been rejected.
	if disallowed := domain.DisallowedFields(role, proposed); len(disallowed) > 0 {
		names := make([]string, len(disallowed))
		for i, f := range disallowed {
			names[i] = string(f)
		}
		return nil, apperrors.Forbidden(fmt.Sprintf("not allowed to update: %s", strings.Join(names, ", ")))
	}

	fields, err := s.buildFieldMap(ctx, input)
	if err != nil {
		return nil, err
	}

	updated, err := s.taskRepo.UpdateFields(ctx, taskID, fields)
	if err != nil {
		return nil, err
	}

	if err := s.producer.PublishTaskUpdated(ctx, updated); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish task.updated event",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "task updated",
		slog.String("task_id", taskID),
		slog.String("updated_by", callerID),
		slog.Int("fields", len(fields)),
	)

	return updated, nil
}

// Delete removes a task. Only the creator may delete it.
func (s *TaskService) Delete(ctx context.Context, callerID, taskID string) error {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return err
	}

	if task.RoleOf(callerID) != domain.TaskRoleCreator {
		return apperrors.Forbidden("only the creator can delete a task")
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return err
	}

	if err := s.producer.PublishTaskDeleted(ctx, taskID, callerID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish task.deleted event",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "task deleted",
		slog.String("task_id", taskID),
		slog.String("deleted_by", callerID),
	)

	return nil
}

// proposedFields returns the set of fields the update names, regardless of
// whether the values are valid.
func (in UpdateTaskInput) proposedFields() []domain.TaskField {
	var proposed []domain.TaskField
	if in.Title != nil {
		proposed = append(proposed, domain.FieldTitle)
	}
	if in.Description != nil {
		proposed = append(proposed, domain.FieldDescription)
	}
	if in.DueDate != nil {
		proposed = append(proposed, domain.FieldDueDate)
	}
	if in.Priority != nil {
		proposed = append(proposed, domain.FieldPriority)
	}
	if in.Status != nil {
		proposed = append(proposed, domain.FieldStatus)
	}
	if in.AssignedTo != nil {
		proposed = append(proposed, domain.FieldAssignedTo)
	}
	return proposed
}

// buildFieldMap converts non-nil input fields into a column-value map,
// validating enum values and assignee existence along the way.
func (s *TaskService) buildFieldMap(ctx context.Context, input UpdateTaskInput) (map[domain.TaskField]any, error) {
	fields := make(map[domain.TaskField]any)

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("title cannot be empty")
		}
		fields[domain.FieldTitle] = *input.Title
	}
	if input.Description != nil {
		fields[domain.FieldDescription] = *input.Description
	}
	if input.DueDate != nil {
		fields[domain.FieldDueDate] = *input.DueDate
	}
	if input.Priority != nil {
		p := domain.TaskPriority(*input.Priority)
		if !domain.IsValidPriority(p) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid priority %q", *input.Priority))
		}
		fields[domain.FieldPriority] = p
	}
	if input.Status != nil {
		st := domain.TaskStatus(*input.Status)
		if !domain.IsValidStatus(st) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", *input.Status))
		}
		fields[domain.FieldStatus] = st
	}
	if input.AssignedTo != nil {
		// Empty string unassigns the task.
		if *input.AssignedTo != "" {
			if err := s.checkAssignee(ctx, *input.AssignedTo); err != nil {
				return nil, err
			}
		}
		fields[domain.FieldAssignedTo] = *input.AssignedTo
	}

	return fields, nil
}

func (s *TaskService) checkAssignee(ctx context.Context, userID string) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.InvalidInput(fmt.Sprintf("assigned user %s does not exist", userID))
		}
		return fmt.Errorf("check assignee: %w", err)
	}
	return nil
}
