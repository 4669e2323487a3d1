package domain

import "time"

// Todo represents a single task owned by exactly one user. UserID is set
// at creation and never changes afterwards.
type Todo struct {
	ID          int64
	UserID      int64
	Text        string
	Completed   bool
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TodoPatch carries the client-mutable fields of a todo. Nil means the
// field was not supplied. CompletedAt is derived from Completed and is
// never patchable directly.
type TodoPatch struct {
	Text      *string
	Completed *bool
}
