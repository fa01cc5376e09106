package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

type Job struct {
	ID            uuid.UUID
	UserID        string
	VideoKey      string
	ZipKey        string
	Status        JobStatus
	Strategy      Strategy
	Count         int
	Threshold     float64
	FrameCount    int
	SelectedCount int
	SkippedCount  int
	VideoDuration float64
	Attempt       int
	MaxAttempts   int
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

func NewJob(userID, videoKey string, params SelectionParams, maxAttempts int) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:          uuid.New(),
		UserID:      userID,
		VideoKey:    videoKey,
		Status:      JobStatusPending,
		Strategy:    params.Strategy,
		Count:       params.Count,
		Threshold:   params.Threshold,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *Job) Params() SelectionParams {
	return SelectionParams{Strategy: j.Strategy, Count: j.Count, Threshold: j.Threshold}
}

func (j *Job) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) MarkCompleted(zipKey string, frameCount, selectedCount, skippedCount int, duration float64) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.ZipKey = zipKey
	j.FrameCount = frameCount
	j.SelectedCount = selectedCount
	j.SkippedCount = skippedCount
	j.VideoDuration = duration
	j.ErrorMessage = ""
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *Job) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

// ExhaustRetries makes CanRetry report false. Used for failures that a
// retry cannot fix, such as invalid selection parameters.
func (j *Job) ExhaustRetries() {
	if j.Attempt < j.MaxAttempts {
		j.Attempt = j.MaxAttempts
	}
}

func (j *Job) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
