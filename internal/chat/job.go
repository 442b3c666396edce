package chat

import "time"

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is one queued agent chat turn, processed by cmd/worker.
type Job struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	UserID         uint64 `gorm:"index;not null;uniqueIndex:uniq_chat_job_user_idempo,priority:1"`
	ConversationID string `gorm:"size:36;index;not null"`

	Prompt        string `gorm:"type:text;not null"`
	UseFileSearch bool   `gorm:"not null;default:false"`

	IdempotencyKey *string `gorm:"type:varchar(128);uniqueIndex:uniq_chat_job_user_idempo,priority:2"`

	Status JobStatus `gorm:"type:varchar(16);index;not null"`

	// Filled when succeeded
	ResultMessageID *uint64 `gorm:"index"`

	// Filled when failed
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Job) TableName() string { return "chat_jobs" }
