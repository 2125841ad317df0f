package domain

import (
	"time"
)

// TaskPriority is the urgency level of a task.
type TaskPriority string

// Task priorities.
const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// IsValidPriority checks whether the given value is a valid task priority.
func IsValidPriority(p TaskPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// TaskStatus is the workflow state of a task.
type TaskStatus string

// Task statuses.
const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

// IsValidStatus checks whether the given value is a valid task status.
func IsValidStatus(s TaskStatus) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Task represents a unit of work created by one user and optionally
// delegated to another. CreatedBy is immutable after creation; AssignedTo
// may be empty, which means the task is unassigned.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	AssignedTo  string       `json:"assigned_to,omitempty"`
	CreatedBy   string       `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Resolved user references, populated by the task store on reads.
	Creator  *UserRef `json:"creator,omitempty"`
	Assignee *UserRef `json:"assignee,omitempty"`
}

// TaskField names a mutable task field in an update request.
type TaskField string

// Mutable task fields. CreatedBy is deliberately absent: ownership is never
// mutable through the update path.
const (
	FieldTitle       TaskField = "title"
	FieldDescription TaskField = "description"
	FieldDueDate     TaskField = "due_date"
	FieldPriority    TaskField = "priority"
	FieldAssignedTo  TaskField = "assigned_to"
	FieldStatus      TaskField = "status"
)

// TaskRole is the caller's relationship to a task, from which the allowed
// mutation set is derived.
type TaskRole int

// Task roles, ordered from least to most privileged.
const (
	TaskRoleNone TaskRole = iota
	TaskRoleAssignee
	TaskRoleCreator
)

// String returns the role name for logging.
func (r TaskRole) String() string {
	switch r {
	case TaskRoleCreator:
		return "creator"
	case TaskRoleAssignee:
		return "assignee"
	}
	return "none"
}

// RoleOf computes the caller's role for this task. A caller who is both
// creator and assignee is treated as creator.
func (t *Task) RoleOf(userID string) TaskRole {
	switch {
	case userID == t.CreatedBy:
		return TaskRoleCreator
	case t.AssignedTo != "" && userID == t.AssignedTo:
		return TaskRoleAssignee
	}
	return TaskRoleNone
}

// mutableFields maps each role to the fields it may set. Keeping this as a
// fixed table rather than branching logic makes the rule auditable in one
// place.
var mutableFields = map[TaskRole][]TaskField{
	TaskRoleCreator:  {FieldTitle, FieldDescription, FieldDueDate, FieldPriority, FieldAssignedTo, FieldStatus},
	TaskRoleAssignee: {FieldStatus},
	TaskRoleNone:     {},
}

// AllowedFields returns the set of fields the given role may mutate.
func AllowedFields(role TaskRole) map[TaskField]bool {
	fields := mutableFields[role]
	set := make(map[TaskField]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

// DisallowedFields returns the proposed fields the given role may NOT set.
// An update is permitted only when the result is empty: disallowed fields
// fail the whole request, they are never silently dropped.
func DisallowedFields(role TaskRole, proposed []TaskField) []TaskField {
	allowed := AllowedFields(role)
	var rejected []TaskField
	for _, f := range proposed {
		if !allowed[f] {
			rejected = append(rejected, f)
		}
	}
	return rejected
}
