package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/bundlewatch/bundlewatch/internal/usage/domain"
	"gorm.io/gorm"
)

type repo struct {
	db    *gorm.DB
	genID *snowflake.Node
}

// New returns the gorm-backed record store.
func New(db *gorm.DB, genID *snowflake.Node) usagedomain.Repository {
	return &repo{db: db, genID: genID}
}

// InsertBatch stores one tick's records inside a single transaction.
// The CollectedAt stamp is assigned here, once per batch, so every
// record of a tick shares it regardless of how long the insert takes.
func (r *repo) InsertBatch(ctx context.Context, records []usagedomain.UsageRecord) (time.Time, error) {
	collectedAt := time.Now().UTC()
	if len(records) == 0 {
		return collectedAt, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range records {
			records[i].ID = r.genID.Generate()
			records[i].CollectedAt = collectedAt
			records[i].CreatedAt = collectedAt
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return time.Time{}, err
	}
	return collectedAt, nil
}

func (r *repo) Latest(ctx context.Context, limit int) ([]usagedomain.UsageRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	var records []usagedomain.UsageRecord
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("collected_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (r *repo) LatestRecord(ctx context.Context) (*usagedomain.UsageRecord, error) {
	var record usagedomain.UsageRecord
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("collected_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repo) History(ctx context.Context, since time.Time) ([]usagedomain.UsageRecord, error) {
	var records []usagedomain.UsageRecord
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND collected_at >= ?", true, since).
		Order("collected_at ASC").
		Find(&records).Error
	return records, err
}

func (r *repo) HistoryForPlan(ctx context.Context, planID string, since time.Time) ([]usagedomain.UsageRecord, error) {
	var records []usagedomain.UsageRecord
	err := r.db.WithContext(ctx).
		Where("plan_id = ? AND collected_at >= ?", planID, since).
		Order("collected_at ASC").
		Find(&records).Error
	return records, err
}

// AppendCallLog records one upstream call outcome. It runs outside any
// record transaction so failed ticks stay visible in the audit log.
func (r *repo) AppendCallLog(ctx context.Context, entry usagedomain.APICallLog) error {
	entry.ID = r.genID.Generate()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}
