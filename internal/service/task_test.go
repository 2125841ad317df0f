package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Ad-tech1009/Teams-ToDo/internal/domain"
	apperrors "github.com/Ad-tech1009/Teams-ToDo/pkg/errors"
)

// --- Mock Task Repository ---

type mockTaskRepository struct {
	mock.Mock
}

func (m *mockTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *mockTaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *mockTaskRepository) ListByUser(ctx context.Context, userID string) ([]domain.Task, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Task), args.Error(1)
}

func (m *mockTaskRepository) UpdateFields(ctx context.Context, id string, fields map[domain.TaskField]any) (*domain.Task, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *mockTaskRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestTaskService(taskRepo *mockTaskRepository, userRepo *mockUserRepository) *TaskService {
	return NewTaskService(taskRepo, userRepo, newTestEventProducer(), newTestLogger())
}

func sampleTask() *domain.Task {
	return &domain.Task{
		ID:         "task-1",
		Title:      "write report",
		Priority:   domain.PriorityMedium,
		Status:     domain.StatusTodo,
		AssignedTo: "assignee-1",
		CreatedBy:  "creator-1",
		CreatedAt:  time.Now().UTC().Add(-time.Hour),
		UpdatedAt:  time.Now().UTC().Add(-time.Hour),
	}
}

// --- Create Tests ---

func TestCreateTask_DefaultsApplied(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	var created *domain.Task
	taskRepo.On("Create", ctx, mock.AnythingOfType("*domain.Task")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Task) }).
		Return(nil)
	taskRepo.On("GetByID", ctx, mock.AnythingOfType("string")).Return(nil, apperrors.ErrNotFound)

	task, err := svc.Create(ctx, "creator-1", CreateTaskInput{Title: "write report"})

	require.NoError(t, err)
	assert.Equal(t, domain.PriorityMedium, created.Priority)
	assert.Equal(t, domain.StatusTodo, created.Status)
	assert.Equal(t, "creator-1", created.CreatedBy)
	assert.Equal(t, "", created.AssignedTo)
	assert.NotEmpty(t, task.ID)
	userRepo.AssertNotCalled(t, "GetByID")
}

func TestCreateTask_TitleRequired(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)

	_, err := svc.Create(context.Background(), "creator-1", CreateTaskInput{})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	taskRepo.AssertNotCalled(t, "Create")
}

func TestCreateTask_InvalidPriority(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)

	_, err := svc.Create(context.Background(), "creator-1", CreateTaskInput{
		Title:    "write report",
		Priority: "urgent",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateTask_UnknownAssigneeRejected(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	userRepo.On("GetByID", ctx, "ghost").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Create(ctx, "creator-1", CreateTaskInput{
		Title:      "write report",
		AssignedTo: "ghost",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	taskRepo.AssertNotCalled(t, "Create")
}

// --- Get / List Tests ---

func TestGetTask_CreatorAndAssigneeAllowed(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	taskRepo.On("GetByID", ctx, "task-1").Return(sampleTask(), nil)

	for _, caller := range []string{"creator-1", "assignee-1"} {
		task, err := svc.Get(ctx, caller, "task-1")
		require.NoError(t, err, "caller %s", caller)
		assert.Equal(t, "task-1", task.ID)
	}
}

func TestGetTask_StrangerForbidden(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	taskRepo.On("GetByID", ctx, "task-1").Return(sampleTask(), nil)

	_, err := svc.Get(ctx, "stranger", "task-1")

	require.Error(t, err)
	assert.Equal(t, 403, apperrors.HTTPStatus(err))
}

func TestGetTask_NotFound(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	taskRepo.On("GetByID", ctx, "ghost").Return(nil, apperrors.NotFound("task", "ghost"))

	_, err := svc.Get(ctx, "creator-1", "ghost")

	require.Error(t, err)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestListTasks(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	taskRepo.On("ListByUser", ctx, "user-1").Return([]domain.Task{*sampleTask()}, nil)

	tasks, err := svc.List(ctx, "user-1")

	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

// --- Update Tests ---

func TestUpdateTask_CreatorUpdatesAllFields(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	due := time.Now().UTC().Add(48 * time.Hour)
	task := sampleTask()
	taskRepo.On("GetByID", ctx, "task-1").Return(task, nil)
	userRepo.On("GetByID", ctx, "assignee-2").Return(&domain.User{ID: "assignee-2"}, nil)

	var gotFields map[domain.TaskField]any
	taskRepo.On("UpdateFields", ctx, "task-1", mock.Anything).
		Run(func(args mock.Arguments) { gotFields = args.Get(2).(map[domain.TaskField]any) }).
		Return(task, nil)

	_, err := svc.Update(ctx, "creator-1", "task-1", UpdateTaskInput{
		Title:       strPtr("updated title"),
		Description: strPtr("more detail"),
		DueDate:     &due,
		Priority:    strPtr("high"),
		Status:      strPtr("in_progress"),
		AssignedTo:  strPtr("assignee-2"),
	})

	require.NoError(t, err)
	assert.Len(t, gotFields, 6)
	assert.Equal(t, "updated title", gotFields[domain.FieldTitle])
	assert.Equal(t, domain.PriorityHigh, gotFields[domain.FieldPriority])
	assert.Equal(t, domain.StatusInProgress, gotFields[domain.FieldStatus])
	assert.Equal(t, "assignee-2", gotFields[domain.FieldAssignedTo])
}

func TestUpdateTask_AssigneeUpdatesStatusOnly(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	task := sampleTask()
	taskRepo.On("GetByID", ctx, "task-1").Return(task, nil)

	var gotFields map[domain.TaskField]any
	taskRepo.On("UpdateFields", ctx, "task-1", mock.Anything).
		Run(func(args mock.Arguments) { gotFields = args.Get(2).(map[domain.TaskField]any) }).
		Return(task, nil)

	_, err := svc.Update(ctx, "assignee-1", "task-1", UpdateTaskInput{
		Status: strPtr("done"),
	})

	require.NoError(t, err)
	assert.Len(t, gotFields, 1)
	assert.Equal(t, domain.StatusDone, gotFields[domain.FieldStatus])
}

func TestUpdateTask_AssigneeMixedUpdateFullyRejected(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	taskRepo.On("GetByID", ctx, "task-1").Return(sampleTask(), nil)

	// The status change alone would be allowed, but the priority change
	// poisons the whole request. Nothing may be written.
	_, err := svc.Update(ctx, "assignee-1", "task-1", UpdateTaskInput{
		Status:   strPtr("done"),
		Priority: strPtr("high"),
	})

	require.Error(t, err)
	assert.Equal(t, 403, apperrors.HTTPStatus(err))
	assert.Contains(t, err.Error(), "priority")
	taskRepo.AssertNotCalled(t, "UpdateFields")
}

func TestUpdateTask_AssigneeCannotReassign(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	taskRepo.On("GetByID", ctx, "task-1").Return(sampleTask(), nil)

	_, err := svc.Update(ctx, "assignee-1", "task-1", UpdateTaskInput{
		AssignedTo: strPtr("someone-else"),
	})

	require.Error(t, err)
	assert.Equal(t, 403, apperrors.HTTPStatus(err))
	taskRepo.AssertNotCalled(t, "UpdateFields")
}

func TestUpdateTask_StrangerForbiddenBeforeFieldInspection(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	taskRepo.On("GetByID", ctx, "task-1").Return(sampleTask(), nil)

	// Even an empty update from a stranger is Forbidden, not BadRequest.
	_, err := svc.Update(ctx, "stranger", "task-1", UpdateTaskInput{})

	require.Error(t, err)
	assert.Equal(t, 403, apperrors.HTTPStatus(err))
}

func TestUpdateTask_EmptyUpdateRejected(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	taskRepo.On("GetByID", ctx, "task-1").Return(sampleTask(), nil)

	_, err := svc.Update(ctx, "creator-1", "task-1", UpdateTaskInput{})

	require.Error(t, err)
	assert.Equal(t, 400, apperrors.HTTPStatus(err))
	taskRepo.AssertNotCalled(t, "UpdateFields")
}

func TestUpdateTask_AssigneeInvalidValueStillForbidden(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	taskRepo.On("GetByID", ctx, "task-1").Return(sampleTask(), nil)

	// Authorization is checked before value validation.
	_, err := svc.Update(ctx, "assignee-1", "task-1", UpdateTaskInput{
		Priority: strPtr("not-a-priority"),
	})

	require.Error(t, err)
	assert.Equal(t, 403, apperrors.HTTPStatus(err))
}

func TestUpdateTask_CreatorInvalidStatusRejected(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	taskRepo.On("GetByID", ctx, "task-1").Return(sampleTask(), nil)

	_, err := svc.Update(ctx, "creator-1", "task-1", UpdateTaskInput{
		Status: strPtr("finished"),
	})

	require.Error(t, err)
	assert.Equal(t, 400, apperrors.HTTPStatus(err))
	taskRepo.AssertNotCalled(t, "UpdateFields")
}

func TestUpdateTask_CreatorUnassigns(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	task := sampleTask()
	taskRepo.On("GetByID", ctx, "task-1").Return(task, nil)

	var gotFields map[domain.TaskField]any
	taskRepo.On("UpdateFields", ctx, "task-1", mock.Anything).
		Run(func(args mock.Arguments) { gotFields = args.Get(2).(map[domain.TaskField]any) }).
		Return(task, nil)

	_, err := svc.Update(ctx, "creator-1", "task-1", UpdateTaskInput{
		AssignedTo: strPtr(""),
	})

	require.NoError(t, err)
	assert.Equal(t, "", gotFields[domain.FieldAssignedTo])
	// No existence check for the empty assignee.
	userRepo.AssertNotCalled(t, "GetByID")
}

func TestUpdateTask_SelfAssignedCreatorKeepsFullRights(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	task := sampleTask()
	task.AssignedTo = task.CreatedBy
	taskRepo.On("GetByID", ctx, "task-1").Return(task, nil)
	taskRepo.On("UpdateFields", ctx, "task-1", mock.Anything).Return(task, nil)

	_, err := svc.Update(ctx, "creator-1", "task-1", UpdateTaskInput{
		Title: strPtr("still mine"),
	})

	require.NoError(t, err)
}

// --- Delete Tests ---

func TestDeleteTask_CreatorOnly(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	taskRepo.On("GetByID", ctx, "task-1").Return(sampleTask(), nil)
	taskRepo.On("Delete", ctx, "task-1").Return(nil)

	err := svc.Delete(ctx, "creator-1", "task-1")

	require.NoError(t, err)
	taskRepo.AssertExpectations(t)
}

func TestDeleteTask_AssigneeForbidden(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	taskRepo.On("GetByID", ctx, "task-1").Return(sampleTask(), nil)

	err := svc.Delete(ctx, "assignee-1", "task-1")

	require.Error(t, err)
	assert.Equal(t, 403, apperrors.HTTPStatus(err))
	taskRepo.AssertNotCalled(t, "Delete")
}

func TestDeleteTask_NotFound(t *testing.T) {
	taskRepo := new(mockTaskRepository)
	userRepo := new(mockUserRepository)
	svc := newTestTaskService(taskRepo, userRepo)
	ctx := context.Background()

	taskRepo.On("GetByID", ctx, "ghost").Return(nil, apperrors.NotFound("task", "ghost"))

	err := svc.Delete(ctx, "creator-1", "ghost")

	require.Error(t, err)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}
