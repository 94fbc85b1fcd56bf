package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitegrader/sitegrader/internal/artifacts"
	"github.com/sitegrader/sitegrader/internal/decompose"
	"github.com/sitegrader/sitegrader/internal/pipeline"
	"github.com/sitegrader/sitegrader/internal/service/mappers"
	"github.com/sitegrader/sitegrader/internal/stages"
	"github.com/sitegrader/sitegrader/internal/store"
	"github.com/sitegrader/sitegrader/internal/store/model"
)

// AssessmentService runs assessments through the pipeline, decomposes the
// results into the fixed metrics document and persists the whole graph. It
// also tracks in-flight runs so callers can poll progress.
type AssessmentService struct {
	store    store.Store
	orch     *pipeline.Orchestrator
	uploader artifacts.Uploader

	mu   sync.RWMutex
	runs map[uuid.UUID]*pipeline.Run
}

// NewAssessmentService wires the pipeline into persistence. The uploader is
// optional; without it screenshot rows are stored without a storage location.
func NewAssessmentService(store store.Store, orch *pipeline.Orchestrator, uploader artifacts.Uploader) *AssessmentService {
	return &AssessmentService{
		store:    store,
		orch:     orch,
		uploader: uploader,
		runs:     make(map[uuid.UUID]*pipeline.Run),
	}
}

// RunAssessment executes one assessment synchronously and returns the
// persisted record. Partial failures do not surface as errors; the overall
// status carries them.
func (as *AssessmentService) RunAssessment(ctx context.Context, sub pipeline.Submission) (*model.Assessment, error) {
	run := as.register(as.orch.NewRun(sub))
	defer as.unregister(run.ID())

	exec := as.orch.Execute(ctx, run)
	return as.persist(ctx, exec)
}

// StartAssessment executes one assessment in the background and returns the
// assessment id immediately. The run stays pollable until it is persisted.
func (as *AssessmentService) StartAssessment(ctx context.Context, sub pipeline.Submission) uuid.UUID {
	run := as.register(as.orch.NewRun(sub))

	// The run must outlive the request that started it.
	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer as.unregister(run.ID())

		exec := as.orch.Execute(runCtx, run)
		if _, err := as.persist(runCtx, exec); err != nil {
			zap.S().Named("assessment_service").Errorw("failed to persist assessment", "assessment_id", run.ID(), "error", err)
		}
	}()

	return run.ID()
}

// Progress returns the live snapshot of an in-flight run, falling back to the
// stored record once the run has been persisted.
func (as *AssessmentService) Progress(ctx context.Context, id uuid.UUID) (pipeline.Progress, error) {
	as.mu.RLock()
	run, ok := as.runs[id]
	as.mu.RUnlock()
	if ok {
		return run.Progress(), nil
	}

	assessment, err := as.store.Assessment().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return pipeline.Progress{}, NewErrRunNotFound(id)
		}
		return pipeline.Progress{}, fmt.Errorf("failed to get assessment: %w", err)
	}
	return as.storedProgress(assessment), nil
}

func (as *AssessmentService) GetAssessment(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	assessment, err := as.store.Assessment().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrAssessmentNotFound(id)
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return assessment, nil
}

// AssessmentFilter narrows assessment listings.
type AssessmentFilter struct {
	Status  string
	URLLike string
	Limit   int
	Offset  int
}

func (as *AssessmentService) ListAssessments(ctx context.Context, filter *AssessmentFilter) (model.AssessmentList, error) {
	storeFilter := store.NewAssessmentQueryFilter()
	if filter != nil {
		if filter.Status != "" {
			storeFilter = storeFilter.WithStatus(filter.Status)
		}
		if filter.URLLike != "" {
			storeFilter = storeFilter.WithURLLike(filter.URLLike)
		}
		if filter.Limit > 0 {
			storeFilter = storeFilter.WithLimit(filter.Limit)
		}
		if filter.Offset > 0 {
			storeFilter = storeFilter.WithOffset(filter.Offset)
		}
	}

	assessments, err := as.store.Assessment().List(ctx, storeFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	return assessments, nil
}

func (as *AssessmentService) DeleteAssessment(ctx context.Context, id uuid.UUID) error {
	assessment, err := as.store.Assessment().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrAssessmentNotFound(id)
		}
		return fmt.Errorf("failed to get assessment: %w", err)
	}

	if as.uploader != nil {
		for _, s := range assessment.Screenshots {
			if s.StorageKey == "" {
				continue
			}
			if err := as.uploader.Remove(ctx, s.StorageKey); err != nil {
				zap.S().Named("assessment_service").Warnw("failed to remove artifact", "key", s.StorageKey, "error", err)
			}
		}
	}

	return as.store.Assessment().Delete(ctx, id)
}

// GetMetrics returns the decomposed metrics document of a finished run.
func (as *AssessmentService) GetMetrics(ctx context.Context, id uuid.UUID) (map[string]any, error) {
	assessment, err := as.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	if assessment.Metrics == nil || assessment.Metrics.Values == nil {
		return nil, NewErrMetricsNotFound(id)
	}
	return assessment.Metrics.Values.Data, nil
}

// persist stores the execution, its metrics document and the screenshot
// artifacts in one transaction. Blob uploads happen before the transaction so
// a storage failure degrades the rows instead of aborting the run.
func (as *AssessmentService) persist(ctx context.Context, exec *pipeline.AssessmentExecution) (*model.Assessment, error) {
	metrics := decompose.Decompose(exec)
	assessment := mappers.AssessmentToModel(exec, metrics)
	assessment.Screenshots = as.uploadScreenshots(ctx, exec)
	scrubScreenshotPayloads(&assessment)

	ctx, err := as.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	created, err := as.store.Assessment().Create(ctx, assessment)
	if err != nil {
		_, _ = store.Rollback(ctx)
		return nil, fmt.Errorf("failed to persist assessment: %w", err)
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit assessment: %w", err)
	}
	return created, nil
}

// uploadScreenshots moves captured blobs to object storage and returns the
// rows to persist. An upload failure is recorded on the row, never fatal.
func (as *AssessmentService) uploadScreenshots(ctx context.Context, exec *pipeline.AssessmentExecution) []model.Screenshot {
	payload := exec.Payload(pipeline.StageScreenshot)
	if payload == nil {
		return nil
	}
	var captured stages.ScreenshotPayload
	if err := json.Unmarshal(payload, &captured); err != nil {
		return nil
	}

	logger := zap.S().Named("assessment_service")
	rows := make([]model.Screenshot, 0, len(captured.Screenshots))
	for _, shot := range captured.Screenshots {
		row := model.Screenshot{
			ID:                uuid.New(),
			AssessmentID:      exec.ID,
			ScreenshotType:    shot.Type,
			ViewportWidth:     shot.ViewportWidth,
			ViewportHeight:    shot.ViewportHeight,
			DeviceScaleFactor: shot.DeviceScaleFactor,
			Format:            shot.Format,
			CaptureDurationMs: shot.CaptureDurationMs,
			ByteSize:          int64(len(shot.Data)),
		}
		if shot.Error != "" {
			errMsg := shot.Error
			row.ErrorMessage = &errMsg
		}
		if len(shot.Metadata) > 0 {
			row.Metadata = model.MakeJSONField(shot.Metadata)
		}

		if as.uploader != nil && len(shot.Data) > 0 {
			key := fmt.Sprintf("%s/%s.%s", exec.ID, shot.Type, imageExtension(shot.Format))
			location, err := as.uploader.Upload(ctx, key, shot.Data, imageContentType(shot.Format))
			if err != nil {
				logger.Warnw("failed to upload screenshot", "assessment_id", exec.ID, "type", shot.Type, "error", err)
				uploadErr := err.Error()
				row.ErrorMessage = &uploadErr
			} else {
				row.StorageBucket = location.Bucket
				row.StorageKey = location.Key
				row.ByteSize = location.Size
			}
		}

		rows = append(rows, row)
	}
	return rows
}

// scrubScreenshotPayloads drops inlined image bytes from the stored stage
// payload. The blobs live in object storage; the row keeps the descriptors.
func scrubScreenshotPayloads(assessment *model.Assessment) {
	for i, res := range assessment.Results {
		if res.Stage != string(pipeline.StageScreenshot) || len(res.Payload) == 0 {
			continue
		}
		var payload stages.ScreenshotPayload
		if err := json.Unmarshal(res.Payload, &payload); err != nil {
			continue
		}
		for j := range payload.Screenshots {
			payload.Screenshots[j].Data = nil
		}
		if scrubbed, err := json.Marshal(payload); err == nil {
			assessment.Results[i].Payload = scrubbed
		}
	}
}

func (as *AssessmentService) storedProgress(assessment *model.Assessment) pipeline.Progress {
	required := make(map[pipeline.StageKind]bool)
	for _, spec := range as.orch.Specs() {
		required[spec.Kind] = spec.Required
	}

	p := pipeline.Progress{
		AssessmentID:  assessment.ID,
		OverallStatus: pipeline.RunStatus(assessment.OverallStatus),
		Total:         len(assessment.Results),
		Stages:        make([]pipeline.StageProgress, 0, len(assessment.Results)),
	}
	for _, res := range assessment.Results {
		p.Resolved++
		p.Stages = append(p.Stages, pipeline.StageProgress{
			Stage:    pipeline.StageKind(res.Stage),
			Status:   pipeline.StageStatus(res.Status),
			Required: required[pipeline.StageKind(res.Stage)],
		})
	}
	if p.Total > 0 {
		p.Fraction = float64(p.Resolved) / float64(p.Total)
	}
	return p
}

func (as *AssessmentService) register(run *pipeline.Run) *pipeline.Run {
	as.mu.Lock()
	as.runs[run.ID()] = run
	as.mu.Unlock()
	return run
}

func (as *AssessmentService) unregister(id uuid.UUID) {
	as.mu.Lock()
	delete(as.runs, id)
	as.mu.Unlock()
}

func imageExtension(format string) string {
	if format == "" {
		return "png"
	}
	return format
}

func imageContentType(format string) string {
	switch format {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
