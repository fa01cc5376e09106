package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
	"github.com/fiapx/fiapx-keyframe-service/internal/domain/port"
	"github.com/fiapx/fiapx-keyframe-service/internal/infra/metrics"
	"github.com/fiapx/fiapx-keyframe-service/internal/selection"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// FrameSelector is satisfied by *selection.Service.
type FrameSelector interface {
	Select(ctx context.Context, params entity.SelectionParams, frames []entity.FrameRef) ([]entity.FrameRef, selection.Report, error)
}

type SelectFramesUseCase struct {
	repo      port.JobRepository
	storage   port.VideoStorage
	extractor port.FrameExtractor
	selector  FrameSelector
	zipper    port.Zipper
	status    port.StatusPublisher
	detection port.DetectionPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	cfg       SelectFramesConfig
}

type SelectFramesConfig struct {
	TempDir    string
	MaxRetries int
	FrameRate  int
	Defaults   entity.SelectionDefaults
}

// Deps groups the adapters the use case drives.
type Deps struct {
	Repo      port.JobRepository
	Storage   port.VideoStorage
	Extractor port.FrameExtractor
	Selector  FrameSelector
	Zipper    port.Zipper
	Status    port.StatusPublisher
	Detection port.DetectionPublisher
	DLQ       port.DLQPublisher
	Notifier  port.FailureNotifier
}

func NewSelectFramesUseCase(deps Deps, logger *zap.Logger, cfg SelectFramesConfig) *SelectFramesUseCase {
	return &SelectFramesUseCase{
		repo:      deps.Repo,
		storage:   deps.Storage,
		extractor: deps.Extractor,
		selector:  deps.Selector,
		zipper:    deps.Zipper,
		status:    deps.Status,
		detection: deps.Detection,
		dlq:       deps.DLQ,
		notifier:  deps.Notifier,
		logger:    logger,
		cfg:       cfg,
	}
}

// request is one decoded delivery plus the parameters resolved for it.
type request struct {
	msg    entity.FrameSelectionMessage
	raw    []byte
	params entity.SelectionParams
	fps    int
}

// Execute handles one delivery. A nil return acks the message, including
// when it was routed to the DLQ; a non-nil return asks for a redelivery.
func (uc *SelectFramesUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	ctx, span := otel.Tracer("usecase").Start(ctx, "SelectFramesUseCase.Execute")
	defer span.End()

	totalStart := time.Now()

	var msg entity.FrameSelectionMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()
		return nil
	}
	if msg.JobID == uuid.Nil {
		uc.logger.Error("message has no job id", zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "missing job_id")
		metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()
		return nil
	}

	req := request{msg: msg, raw: rawMsg, params: msg.Params(uc.cfg.Defaults), fps: msg.FrameRate}
	if req.fps == 0 {
		req.fps = uc.cfg.FrameRate
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
		attribute.String("job.strategy", string(req.params.Strategy)),
	)

	log := uc.logger.With(
		zap.String("job_id", msg.JobID.String()),
		zap.String("video_key", msg.VideoKey),
		zap.String("strategy", string(req.params.Strategy)),
	)

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	switch {
	case errors.Is(err, port.ErrJobNotFound):
		job = entity.NewJob(msg.UserID, msg.VideoKey, req.params, uc.cfg.MaxRetries)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	case err != nil:
		log.Error("failed to load job record", zap.Error(err))
		return fmt.Errorf("find job: %w", err)
	}

	if reason := validateRequest(req); reason != "" {
		log.Warn("rejecting invalid selection request", zap.String("reason", reason))
		job.ExhaustRetries()
		return uc.handlePermanentFailure(ctx, job, req, reason, log)
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		return uc.handlePermanentFailure(ctx, job, req, "max retries exceeded", log)
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.run(ctx, job, req, log); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.JobProcessingDuration.WithLabelValues("total").Observe(time.Since(totalStart).Seconds())
	return nil
}

// validateRequest catches requests no retry can fix before any download.
// Numeric selection parameters are checked by the selectors themselves.
func validateRequest(req request) string {
	if !req.params.Strategy.Valid() {
		return fmt.Sprintf("unknown strategy %q", req.params.Strategy)
	}
	if req.fps < 0 {
		return fmt.Sprintf("frame rate must be positive, got %d", req.fps)
	}
	if req.msg.VideoKey == "" {
		return "missing video key"
	}
	return ""
}

// stage runs fn inside a span and records its duration under name.
func stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := otel.Tracer("usecase").Start(ctx, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	metrics.JobProcessingDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return nil
}

func (uc *SelectFramesUseCase) run(ctx context.Context, job *entity.Job, req request, log *zap.Logger) error {
	workDir := filepath.Join(uc.cfg.TempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	videoPath := filepath.Join(workDir, "input"+filepath.Ext(req.msg.VideoKey))
	err := stage(ctx, "download", func(ctx context.Context) error {
		return uc.storage.DownloadVideo(ctx, req.msg.VideoKey, videoPath)
	})
	if err != nil {
		log.Error("failed to download video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, req, "download_video: "+err.Error(), log)
	}

	var extracted *port.FrameExtractionResult
	err = stage(ctx, "extract", func(ctx context.Context) error {
		var err error
		extracted, err = uc.extractor.ExtractFrames(ctx, videoPath, filepath.Join(workDir, "frames"), req.fps)
		return err
	})
	if err != nil {
		log.Error("frame extraction failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, req, "extract_frames: "+err.Error(), log)
	}
	metrics.FramesExtractedTotal.Add(float64(extracted.FrameCount))

	var (
		selected []entity.FrameRef
		report   selection.Report
	)
	err = stage(ctx, "select", func(ctx context.Context) error {
		var err error
		selected, report, err = uc.selector.Select(ctx, req.params, extracted.Frames)
		return err
	})
	if errors.Is(err, selection.ErrInvalidInput) {
		log.Warn("selection rejected its input", zap.Error(err))
		job.ExhaustRetries()
		return uc.handlePermanentFailure(ctx, job, req, err.Error(), log)
	}
	if err != nil {
		log.Error("frame selection failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, req, "select_frames: "+err.Error(), log)
	}

	zipPath := filepath.Join(workDir, "keyframes.zip")
	err = stage(ctx, "zip", func(ctx context.Context) error {
		return uc.zipper.CreateZip(ctx, selected, zipPath)
	})
	if err != nil {
		log.Error("zip creation failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, req, "create_zip: "+err.Error(), log)
	}

	zipKey := fmt.Sprintf("%s/keyframes_%s.zip", req.msg.UserID, job.ID.String())
	err = stage(ctx, "upload", func(ctx context.Context) error {
		f, err := os.Open(zipPath)
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}
		return uc.storage.UploadFrames(ctx, zipKey, f, info.Size())
	})
	if err != nil {
		log.Error("zip upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, req, "upload_zip: "+err.Error(), log)
	}

	job.MarkCompleted(zipKey, extracted.FrameCount, len(selected), report.SkippedTotal(), extracted.VideoDuration)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)
	uc.publishSelected(ctx, job, selected, log)

	log.Info("job completed successfully",
		zap.Int("frame_count", extracted.FrameCount),
		zap.Int("selected_count", len(selected)),
		zap.Int("skipped_count", report.SkippedTotal()),
		zap.Float64("duration_secs", extracted.VideoDuration),
		zap.String("zip_key", zipKey),
	)
	return nil
}

func (uc *SelectFramesUseCase) handleRetryableFailure(ctx context.Context, job *entity.Job, req request, errMsg string, log *zap.Logger) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, req, errMsg, log)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *SelectFramesUseCase) handlePermanentFailure(ctx context.Context, job *entity.Job, req request, errMsg string, log *zap.Logger) error {
	job.MarkFailed(errMsg)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to FAILED", zap.Error(err))
	}

	if err := uc.dlq.PublishToDLQ(ctx, req.raw, errMsg); err != nil {
		log.Error("failed to publish to DLQ", zap.Error(err))
	}

	uc.publishStatus(ctx, job, log)
	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	_ = uc.notifier.NotifyFailure(ctx, port.FailureNotice{
		UserEmail: req.msg.UserEmail,
		JobID:     job.ID.String(),
		VideoKey:  req.msg.VideoKey,
		Strategy:  string(req.params.Strategy),
		Reason:    errMsg,
	})
	return nil
}

func (uc *SelectFramesUseCase) publishStatus(ctx context.Context, job *entity.Job, log *zap.Logger) {
	data, _ := json.Marshal(entity.VideoStatusMessage{
		JobID:         job.ID,
		UserID:        job.UserID,
		Status:        job.Status,
		VideoKey:      job.VideoKey,
		Strategy:      job.Strategy,
		ZipKey:        job.ZipKey,
		FrameCount:    job.FrameCount,
		SelectedCount: job.SelectedCount,
		Duration:      job.VideoDuration,
		ErrorMessage:  job.ErrorMessage,
		Attempt:       job.Attempt,
		MaxAttempts:   job.MaxAttempts,
	})
	if err := uc.status.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}

func (uc *SelectFramesUseCase) publishSelected(ctx context.Context, job *entity.Job, selected []entity.FrameRef, log *zap.Logger) {
	names := make([]string, len(selected))
	for i, ref := range selected {
		names[i] = filepath.Base(ref.String())
	}
	data, _ := json.Marshal(entity.FramesSelectedMessage{
		JobID:    job.ID,
		UserID:   job.UserID,
		VideoKey: job.VideoKey,
		ZipKey:   job.ZipKey,
		Strategy: job.Strategy,
		Frames:   names,
	})
	if err := uc.detection.PublishSelected(ctx, data); err != nil {
		log.Error("failed to publish selected frames", zap.Error(err))
	}
}
