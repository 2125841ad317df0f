package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Ad-tech1009/Teams-ToDo/internal/domain"
	"github.com/Ad-tech1009/Teams-ToDo/pkg/database"
	apperrors "github.com/Ad-tech1009/Teams-ToDo/pkg/errors"
)

// taskColumns maps mutable task fields to their column names. Update
// statements are built only from this allow-list, never from request input.
var taskColumns = map[domain.TaskField]string{
	domain.FieldTitle:       "title",
	domain.FieldDescription: "description",
	domain.FieldDueDate:     "due_date",
	domain.FieldPriority:    "priority",
	domain.FieldAssignedTo:  "assigned_to",
	domain.FieldStatus:      "status",
}

// updateOrder fixes the order in which fields appear in generated SET
// clauses so queries are deterministic and testable.
var updateOrder = []domain.TaskField{
	domain.FieldTitle,
	domain.FieldDescription,
	domain.FieldDueDate,
	domain.FieldPriority,
	domain.FieldAssignedTo,
	domain.FieldStatus,
}

// TaskRepository implements repository.TaskRepository using PostgreSQL.
type TaskRepository struct {
	pool database.DBTX
}

// NewTaskRepository creates a new PostgreSQL-backed task repository.
func NewTaskRepository(pool database.DBTX) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// Create inserts a new task into the database.
func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	query := `
		INSERT INTO tasks (id, title, description, due_date, priority, status, assigned_to, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		t.ID,
		t.Title,
		t.Description,
		t.DueDate,
		t.Priority,
		t.Status,
		t.AssignedTo,
		t.CreatedBy,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	return nil
}

// GetByID retrieves a task by its ID with creator and assignee resolved to
// public user refs.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := taskSelect + ` WHERE t.id = $1`

	t, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("task", id)
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	return t, nil
}

// ListByUser returns tasks where the given user is creator or assignee,
// newest first.
func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]domain.Task, error) {
	query := taskSelect + `
		WHERE t.created_by = $1 OR t.assigned_to = $1
		ORDER BY t.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		tasks = append(tasks, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task rows: %w", err)
	}

	if tasks == nil {
		tasks = []domain.Task{}
	}

	return tasks, nil
}

// UpdateFields persists exactly the given field set and bumps updated_at.
// The SET clause is generated from the fixed column allow-list; unknown
// fields are a programming error, not a request error, and are rejected.
func (r *TaskRepository) UpdateFields(ctx context.Context, id string, fields map[domain.TaskField]any) (*domain.Task, error) {
	if len(fields) == 0 {
		return nil, apperrors.InvalidInput("no fields to update")
	}

	var (
		assignments []string
		args        []any
	)
	for _, f := range updateOrder {
		value, ok := fields[f]
		if !ok {
			continue
		}
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", taskColumns[f], len(args)))
	}
	if len(assignments) != len(fields) {
		return nil, fmt.Errorf("update contains unknown task field")
	}

	args = append(args, time.Now().UTC())
	assignments = append(assignments, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE tasks
		SET %s
		WHERE id = $%d
		RETURNING id, title, description, due_date, priority, status, assigned_to, created_by, created_at, updated_at`,
		strings.Join(assignments, ", "), len(args))

	var t domain.Task
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&t.Priority,
		&t.Status,
		&t.AssignedTo,
		&t.CreatedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("task", id)
		}
		return nil, fmt.Errorf("update task: %w", err)
	}

	return &t, nil
}

// Delete removes a task from the database by its ID.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM tasks WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("task", id)
	}

	return nil
}

// taskSelect joins tasks to users twice to resolve creator and assignee
// refs in one query. Only name and email leave the users table.
const taskSelect = `
	SELECT t.id, t.title, t.description, t.due_date, t.priority, t.status,
	       t.assigned_to, t.created_by, t.created_at, t.updated_at,
	       c.name, c.email, a.name, a.email
	FROM tasks t
	JOIN users c ON c.id = t.created_by
	LEFT JOIN users a ON a.id = t.assigned_to`

// scanTask scans one row produced by taskSelect.
func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		t                           domain.Task
		creatorName, creatorEmail   string
		assigneeName, assigneeEmail *string
	)

	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&t.Priority,
		&t.Status,
		&t.AssignedTo,
		&t.CreatedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
		&creatorName,
		&creatorEmail,
		&assigneeName,
		&assigneeEmail,
	)
	if err != nil {
		return nil, err
	}

	t.Creator = &domain.UserRef{ID: t.CreatedBy, Name: creatorName, Email: creatorEmail}
	if t.AssignedTo != "" && assigneeName != nil && assigneeEmail != nil {
		t.Assignee = &domain.UserRef{ID: t.AssignedTo, Name: *assigneeName, Email: *assigneeEmail}
	}

	return &t, nil
}
