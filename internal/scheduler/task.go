package scheduler

import (
	"time"

	"github.com/harunnryd/moltbot/internal/moltbook"
)

type Kind string

const (
	KindPost    Kind = "post"
	KindComment Kind = "comment"
)

// Status moves Pending -> Completed | Failed | Cancelled and never leaves a
// terminal state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

type Task struct {
	ID           string                `json:"id" yaml:"id"`
	Kind         Kind                  `json:"kind" yaml:"kind"`
	Post         *moltbook.PostData    `json:"post,omitempty" yaml:"post,omitempty"`
	Comment      *moltbook.CommentData `json:"comment,omitempty" yaml:"comment,omitempty"`
	ScheduledFor time.Time             `json:"scheduled_for" yaml:"scheduled_for"`
	Status       Status                `json:"status" yaml:"status"`
	CreatedAt    time.Time             `json:"created_at" yaml:"created_at"`
	ExecutedAt   *time.Time            `json:"executed_at,omitempty" yaml:"executed_at,omitempty"`
	Error        string                `json:"error,omitempty" yaml:"error,omitempty"`
	ResultID     string                `json:"result_id,omitempty" yaml:"result_id,omitempty"`
}

func (t Task) IsTerminal() bool {
	return t.Status != StatusPending
}

// clone copies the task so callers never alias scheduler-owned state.
func (t *Task) clone() Task {
	c := *t
	if t.Post != nil {
		post := *t.Post
		c.Post = &post
	}
	if t.Comment != nil {
		comment := *t.Comment
		c.Comment = &comment
	}
	if t.ExecutedAt != nil {
		at := *t.ExecutedAt
		c.ExecutedAt = &at
	}
	return c
}
