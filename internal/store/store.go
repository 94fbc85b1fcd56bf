package store

import (
	"context"

	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Assessment() Assessment
	Screenshot() Screenshot
	Close() error
}

type DataStore struct {
	db         *gorm.DB
	assessment Assessment
	screenshot Screenshot
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:         db,
		assessment: NewAssessmentStore(db),
		screenshot: NewScreenshotStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Assessment() Assessment {
	return s.assessment
}

func (s *DataStore) Screenshot() Screenshot {
	return s.screenshot
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
