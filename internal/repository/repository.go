package repository

import (
	"context"

	"github.com/Ad-tech1009/Teams-ToDo/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns the public projection of every user, for assignee pickers.
	List(ctx context.Context) ([]domain.UserRef, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error
}

// TaskRepository defines the interface for task persistence operations.
type TaskRepository interface {
	// Create inserts a new task into the store.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its identifier with resolved user refs.
	GetByID(ctx context.Context, id string) (*domain.Task, error)

	// ListByUser returns tasks where the given user is creator or assignee,
	// with creator and assignee resolved to public user refs.
	ListByUser(ctx context.Context, userID string) ([]domain.Task, error)

	// UpdateFields persists exactly the given permitted field set and bumps
	// updated_at, returning the updated task. Concurrent updates are not
	// ordered here; last write wins.
	UpdateFields(ctx context.Context, id string, fields map[domain.TaskField]any) (*domain.Task, error)

	// Delete removes a task from the store.
	Delete(ctx context.Context, id string) error
}
