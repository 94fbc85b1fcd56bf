package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sitegrader/sitegrader/internal/store/model"
)

type Screenshot interface {
	Create(ctx context.Context, screenshot model.Screenshot) (*model.Screenshot, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Screenshot, error)
	ListByAssessment(ctx context.Context, assessmentID uuid.UUID) (model.ScreenshotList, error)
	AddAnnotations(ctx context.Context, screenshotID uuid.UUID, annotations []model.ScreenshotAnnotation) error
	AddComparison(ctx context.Context, comparison model.ScreenshotComparison) (*model.ScreenshotComparison, error)
	ListComparisons(ctx context.Context, screenshotID uuid.UUID) ([]model.ScreenshotComparison, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ScreenshotStore struct {
	db *gorm.DB
}

// Make sure we conform to Screenshot interface
var _ Screenshot = (*ScreenshotStore)(nil)

func NewScreenshotStore(db *gorm.DB) Screenshot {
	return &ScreenshotStore{db: db}
}

func (s *ScreenshotStore) Create(ctx context.Context, screenshot model.Screenshot) (*model.Screenshot, error) {
	result := s.getDB(ctx).Clauses(clause.Returning{}).Create(&screenshot)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &screenshot, nil
}

func (s *ScreenshotStore) Get(ctx context.Context, id uuid.UUID) (*model.Screenshot, error) {
	var screenshot model.Screenshot
	result := s.getDB(ctx).Preload("Annotations").First(&screenshot, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &screenshot, nil
}

func (s *ScreenshotStore) ListByAssessment(ctx context.Context, assessmentID uuid.UUID) (model.ScreenshotList, error) {
	var screenshots model.ScreenshotList
	result := s.getDB(ctx).Preload("Annotations").
		Order("created_at ASC").
		Find(&screenshots, "assessment_id = ?", assessmentID)
	if result.Error != nil {
		return nil, result.Error
	}
	return screenshots, nil
}

// AddAnnotations appends detected-element annotations. Annotations are
// append-only; existing rows are never rewritten.
func (s *ScreenshotStore) AddAnnotations(ctx context.Context, screenshotID uuid.UUID, annotations []model.ScreenshotAnnotation) error {
	if len(annotations) == 0 {
		return nil
	}
	for i := range annotations {
		annotations[i].ScreenshotID = screenshotID
	}
	return s.getDB(ctx).Create(&annotations).Error
}

func (s *ScreenshotStore) AddComparison(ctx context.Context, comparison model.ScreenshotComparison) (*model.ScreenshotComparison, error) {
	if err := s.getDB(ctx).Create(&comparison).Error; err != nil {
		return nil, err
	}
	return &comparison, nil
}

func (s *ScreenshotStore) ListComparisons(ctx context.Context, screenshotID uuid.UUID) ([]model.ScreenshotComparison, error) {
	var comparisons []model.ScreenshotComparison
	result := s.getDB(ctx).
		Where("base_id = ? OR target_id = ?", screenshotID, screenshotID).
		Order("created_at ASC").
		Find(&comparisons)
	if result.Error != nil {
		return nil, result.Error
	}
	return comparisons, nil
}

func (s *ScreenshotStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.getDB(ctx).Unscoped().Delete(&model.Screenshot{}, "id = ?", id.String())
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (s *ScreenshotStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
