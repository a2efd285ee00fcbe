// Package domain contains persistence models for collected bundle usage.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// UsageRecord is one normalized snapshot of a single plan inside a
// bundle fetch. Records are append-only; a fetch with N plans produces
// N records sharing the same CollectedAt.
type UsageRecord struct {
	ID snowflake.ID `gorm:"primaryKey" json:"id"`

	CollectedAt time.Time `gorm:"not null;index:idx_collected_at,sort:desc" json:"collected_at"`

	SubscriberID string `gorm:"type:text;not null;index:idx_subscriber_plan" json:"subscriber_id"`
	PlanName     string `gorm:"type:text;not null" json:"plan_name"`
	PlanID       string `gorm:"type:text;not null;index:idx_subscriber_plan" json:"plan_id"`

	// RemainingBalanceBytes is the authoritative unit; the GB value is a
	// display convenience derived at parse time.
	RemainingBalanceGB    float64 `gorm:"not null" json:"remaining_balance_gb"`
	RemainingBalanceBytes int64   `gorm:"not null" json:"remaining_balance_bytes"`
	TotalUsageBytes       int64   `gorm:"not null" json:"total_usage_bytes"`
	ExpiresInDays         int     `gorm:"not null" json:"expires_in_days"`

	IsActive   bool `gorm:"not null" json:"is_active"`
	IsHomePlan bool `gorm:"not null;default:false" json:"is_home_plan"`

	// RawSnapshot preserves the full upstream response so parsing can be
	// cross-checked against upstream context after the fact.
	RawSnapshot datatypes.JSON `gorm:"type:json" json:"-"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "usage_records" }

// APICallLog is one row of the append-only upstream call audit log.
type APICallLog struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	TickID     string       `gorm:"type:text;not null;index" json:"tick_id"`
	Endpoint   string       `gorm:"type:text;not null" json:"endpoint"`
	Method     string       `gorm:"type:text;not null" json:"method"`
	Success    bool         `gorm:"not null" json:"success"`
	StatusCode int          `json:"status_code"`
	LatencyMS  float64      `json:"latency_ms"`
	Error      string       `gorm:"type:text" json:"error,omitempty"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (APICallLog) TableName() string { return "api_call_logs" }
