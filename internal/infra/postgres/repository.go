package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
	"github.com/fiapx/fiapx-keyframe-service/internal/domain/port"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	query := `
		INSERT INTO selection_jobs (
			id, user_id, video_key, zip_key, status, strategy, sample_count,
			threshold, frame_count, selected_count, skipped_count, video_duration,
			attempt, max_attempts, error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.VideoKey, job.ZipKey, string(job.Status),
		string(job.Strategy), job.Count, job.Threshold,
		job.FrameCount, job.SelectedCount, job.SkippedCount, job.VideoDuration,
		job.Attempt, job.MaxAttempts, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.Job) error {
	query := `
		UPDATE selection_jobs SET
			status=$2, zip_key=$3, frame_count=$4, selected_count=$5,
			skipped_count=$6, video_duration=$7, attempt=$8, error_message=$9,
			updated_at=$10, completed_at=$11
		WHERE id=$1`

	tag, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.ZipKey, job.FrameCount,
		job.SelectedCount, job.SkippedCount, job.VideoDuration,
		job.Attempt, job.ErrorMessage, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update job %s: %w", job.ID, port.ErrJobNotFound)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	query := `
		SELECT id, user_id, video_key, zip_key, status, strategy, sample_count,
			threshold, frame_count, selected_count, skipped_count, video_duration,
			attempt, max_attempts, error_message, created_at, updated_at, completed_at
		FROM selection_jobs WHERE id=$1`

	job := &entity.Job{}
	var status, strategy string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.VideoKey, &job.ZipKey, &status,
		&strategy, &job.Count, &job.Threshold,
		&job.FrameCount, &job.SelectedCount, &job.SkippedCount, &job.VideoDuration,
		&job.Attempt, &job.MaxAttempts, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	job.Strategy = entity.Strategy(strategy)
	return job, nil
}
