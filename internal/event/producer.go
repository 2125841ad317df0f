package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ad-tech1009/Teams-ToDo/internal/domain"
	pkgkafka "github.com/Ad-tech1009/Teams-ToDo/pkg/kafka"
)

// Aggregate type constants.
const (
	AggregateTypeUser = "user"
	AggregateTypeTask = "task"
)

// Kafka topics for domain events, e.g. "todo.task.created".
var (
	TopicUserRegistered = pkgkafka.Topic(AggregateTypeUser, "registered")
	TopicUserUpdated    = pkgkafka.Topic(AggregateTypeUser, "updated")
	TopicTaskCreated    = pkgkafka.Topic(AggregateTypeTask, "created")
	TopicTaskUpdated    = pkgkafka.Topic(AggregateTypeTask, "updated")
	TopicTaskDeleted    = pkgkafka.Topic(AggregateTypeTask, "deleted")
)

// Source identifier for events originating from this service.
const Source = "teams-todo-api"

// UserData is the payload for user.registered and user.updated events.
type UserData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// TaskData is the payload for task lifecycle events.
type TaskData struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Priority   string     `json:"priority"`
	Status     string     `json:"status"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	AssignedTo string     `json:"assigned_to,omitempty"`
	CreatedBy  string     `json:"created_by"`
}

// TaskDeletedData is the payload for a task.deleted event.
type TaskDeletedData struct {
	ID        string `json:"id"`
	DeletedBy string `json:"deleted_by"`
}

// Producer publishes user and task domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return p.publishUser(ctx, TopicUserRegistered, user)
}

// PublishUserUpdated publishes a user.updated event.
func (p *Producer) PublishUserUpdated(ctx context.Context, user *domain.User) error {
	return p.publishUser(ctx, TopicUserUpdated, user)
}

func (p *Producer) publishUser(ctx context.Context, topic string, user *domain.User) error {
	data := UserData{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}

	event, err := pkgkafka.NewEvent(topic, user.ID, AggregateTypeUser, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published user event",
		slog.String("topic", topic),
		slog.String("user_id", user.ID),
	)

	return nil
}

// PublishTaskCreated publishes a task.created event.
func (p *Producer) PublishTaskCreated(ctx context.Context, task *domain.Task) error {
	return p.publishTask(ctx, TopicTaskCreated, task)
}

// PublishTaskUpdated publishes a task.updated event.
func (p *Producer) PublishTaskUpdated(ctx context.Context, task *domain.Task) error {
	return p.publishTask(ctx, TopicTaskUpdated, task)
}

func (p *Producer) publishTask(ctx context.Context, topic string, task *domain.Task) error {
	data := TaskData{
		ID:         task.ID,
		Title:      task.Title,
		Priority:   string(task.Priority),
		Status:     string(task.Status),
		DueDate:    task.DueDate,
		AssignedTo: task.AssignedTo,
		CreatedBy:  task.CreatedBy,
	}

	event, err := pkgkafka.NewEvent(topic, task.ID, AggregateTypeTask, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published task event",
		slog.String("topic", topic),
		slog.String("task_id", task.ID),
	)

	return nil
}

// PublishTaskDeleted publishes a task.deleted event.
func (p *Producer) PublishTaskDeleted(ctx context.Context, taskID, deletedBy string) error {
	data := TaskDeletedData{ID: taskID, DeletedBy: deletedBy}

	event, err := pkgkafka.NewEvent(TopicTaskDeleted, taskID, AggregateTypeTask, Source, data)
	if err != nil {
		return fmt.Errorf("create task.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicTaskDeleted, event); err != nil {
		return fmt.Errorf("publish task.deleted event: %w", err)
	}

	return nil
}
