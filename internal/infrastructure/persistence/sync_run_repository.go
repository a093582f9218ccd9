package persistence

import (
	"context"

	domainsync "github.com/franchise/backend/internal/domain/sync"
	"gorm.io/gorm"
)

// GormSyncRunRepository implements sync.RunRepository using GORM
type GormSyncRunRepository struct {
	db *gorm.DB
}

// NewGormSyncRunRepository creates a new GormSyncRunRepository
func NewGormSyncRunRepository(db *gorm.DB) *GormSyncRunRepository {
	return &GormSyncRunRepository{db: db}
}

// Save creates or updates a run log entry
func (r *GormSyncRunRepository) Save(ctx context.Context, run *domainsync.Run) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// ListRecent returns the most recent runs, newest first
func (r *GormSyncRunRepository) ListRecent(ctx context.Context, limit int) ([]domainsync.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []domainsync.Run
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// Ensure GormSyncRunRepository implements RunRepository
var _ domainsync.RunRepository = (*GormSyncRunRepository)(nil)
