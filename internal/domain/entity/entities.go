package entity

import (
	"time"

	"github.com/google/uuid"
)

// StoredExpression is an expression authored in an event sheet and persisted
// with the outcome of its last validation
type StoredExpression struct {
	ID          uuid.UUID  `json:"id"`
	SceneName   string     `json:"scene_name"`
	Owner       string     `json:"owner,omitempty"` // e.g. "action:SetX#3"
	PlainString string     `json:"plain_string"`
	Kind        string     `json:"kind"`
	Valid       bool       `json:"valid"`
	LastError   string     `json:"last_error,omitempty"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ValidationResult is the outcome of preprocessing one stored expression
type ValidationResult struct {
	ExpressionID uuid.UUID `json:"expression_id"`
	Kind         string    `json:"kind"`
	Valid        bool      `json:"valid"`
	Error        string    `json:"error,omitempty"`
	ValidatedAt  time.Time `json:"validated_at"`
}

// ObjectIdentifier is a persisted object name to identifier mapping
type ObjectIdentifier struct {
	Name      string    `json:"name"`
	ID        uint32    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// JobStatus represents the status of a batch job
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
	JobStatusCancelled JobStatus = "CANCELLED"
)

// JobType represents the type of batch job
type JobType string

const (
	JobTypeValidateAll JobType = "VALIDATE_ALL"
)

// BatchJob represents a background job over stored expressions
type BatchJob struct {
	ID               uuid.UUID              `json:"id"`
	JobType          JobType                `json:"job_type"`
	Status           JobStatus              `json:"status"`
	TotalRecords     int64                  `json:"total_records"`
	ProcessedRecords int64                  `json:"processed_records"`
	FailedRecords    int64                  `json:"failed_records"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	ErrorMessage     string                 `json:"error_message,omitempty"`
	StartedAt        *time.Time             `json:"started_at,omitempty"`
	FinishedAt       *time.Time             `json:"finished_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

// Progress returns the progress percentage
func (b *BatchJob) Progress() float64 {
	if b.TotalRecords == 0 {
		return 0
	}
	return float64(b.ProcessedRecords) / float64(b.TotalRecords) * 100
}
