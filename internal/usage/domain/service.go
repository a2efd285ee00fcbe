package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bundlewatch/bundlewatch/internal/projection"
)

// ListRequest bounds a latest-N query.
type ListRequest struct {
	Limit int `form:"limit"`
}

// HistoryRequest selects a trailing window of records.
type HistoryRequest struct {
	Days int `form:"days"`
}

// StatsResponse is the aggregate statistics object served to the
// dashboard: the latest plan snapshot plus its consumption projection.
type StatsResponse struct {
	PlanName    string    `json:"plan_name"`
	PlanID      string    `json:"plan_id"`
	LastUpdated time.Time `json:"last_updated"`

	projection.Result
}

// Repository is the append/scan surface over the record store. Records
// are never updated in place, so readers and the collector can run
// concurrently without coordination.
type Repository interface {
	// InsertBatch stores all records of one tick atomically, stamping a
	// single CollectedAt across the batch. All-or-nothing per tick.
	InsertBatch(ctx context.Context, records []UsageRecord) (time.Time, error)
	Latest(ctx context.Context, limit int) ([]UsageRecord, error)
	LatestRecord(ctx context.Context) (*UsageRecord, error)
	History(ctx context.Context, since time.Time) ([]UsageRecord, error)
	HistoryForPlan(ctx context.Context, planID string, since time.Time) ([]UsageRecord, error)
	AppendCallLog(ctx context.Context, entry APICallLog) error
}

// Service is the read side consumed by the HTTP layer.
type Service interface {
	Latest(ctx context.Context, req ListRequest) ([]UsageRecord, error)
	History(ctx context.Context, req HistoryRequest) ([]UsageRecord, error)
	Stats(ctx context.Context) (StatsResponse, error)
}

var (
	ErrInvalidLimit = errors.New("invalid_limit")
	ErrInvalidDays  = errors.New("invalid_days")
)
