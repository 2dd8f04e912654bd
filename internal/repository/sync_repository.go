package repository

import (
	"context"
	"time"

	"studyroom-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SyncLogRepository interface {
	Append(ctx context.Context, log *model.SyncLog) error
	LatestWatermark(ctx context.Context) (*string, error)
	Recent(ctx context.Context, limit int) ([]model.SyncLog, error)
}

type syncLogRepository struct {
	db *gorm.DB
}

func NewSyncLogRepository(db *gorm.DB) SyncLogRepository {
	return &syncLogRepository{db}
}

func (r *syncLogRepository) Append(ctx context.Context, log *model.SyncLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// LatestWatermark returns nil when no successful run has recorded a stamp yet.
func (r *syncLogRepository) LatestWatermark(ctx context.Context) (*string, error) {
	var logs []model.SyncLog
	err := r.db.WithContext(ctx).
		Where("status = ? AND last_processed_stamp IS NOT NULL", model.SyncSuccess).
		Order("synced_at desc").Order("id desc").
		Limit(1).Find(&logs).Error
	if err != nil || len(logs) == 0 {
		return nil, err
	}
	return logs[0].LastProcessedStamp, nil
}

func (r *syncLogRepository) Recent(ctx context.Context, limit int) ([]model.SyncLog, error) {
	var logs []model.SyncLog
	err := r.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&logs).Error
	return logs, err
}

type LeaseRepository interface {
	Acquire(ctx context.Context, name, holder string, ttl time.Duration, now time.Time) (bool, error)
	Release(ctx context.Context, name, holder string) error
	Get(ctx context.Context, name string) (*model.SyncLease, error)
}

type leaseRepository struct {
	db *gorm.DB
}

func NewLeaseRepository(db *gorm.DB) LeaseRepository {
	return &leaseRepository{db}
}

// Acquire takes the lease when it is free, expired, or already ours. The conditional UPDATE and
// the primary key on name make two holders impossible.
func (r *leaseRepository) Acquire(ctx context.Context, name, holder string, ttl time.Duration, now time.Time) (bool, error) {
	expires := now.Add(ttl).UTC()
	res := r.db.WithContext(ctx).Model(&model.SyncLease{}).
		Where("name = ? AND (expires_at < ? OR holder = ?)", name, now.UTC(), holder).
		Updates(map[string]interface{}{"holder": holder, "expires_at": expires})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	// no lease row yet: try to create it
	res = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.SyncLease{Name: name, Holder: holder, ExpiresAt: expires})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *leaseRepository) Release(ctx context.Context, name, holder string) error {
	return r.db.WithContext(ctx).Model(&model.SyncLease{}).
		Where("name = ? AND holder = ?", name, holder).
		Update("expires_at", time.Unix(0, 0).UTC()).Error
}

func (r *leaseRepository) Get(ctx context.Context, name string) (*model.SyncLease, error) {
	var lease model.SyncLease
	err := r.db.WithContext(ctx).Where("name = ?", name).Limit(1).Find(&lease).Error
	if err != nil {
		return nil, err
	}
	if lease.Name == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return &lease, nil
}
