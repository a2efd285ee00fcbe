package service

import (
	"context"
	"time"

	"github.com/bundlewatch/bundlewatch/internal/projection"
	usagedomain "github.com/bundlewatch/bundlewatch/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultLatestLimit = 5
	maxLatestLimit     = 100
	defaultHistoryDays = 7
	maxHistoryDays     = 365
	statsWindowDays    = 7
)

type ServiceParam struct {
	fx.In

	Log  *zap.Logger
	Repo usagedomain.Repository
}

type Service struct {
	log  *zap.Logger
	repo usagedomain.Repository
}

// NewService builds the read-side service consumed by the HTTP layer.
func NewService(p ServiceParam) usagedomain.Service {
	return &Service{
		log:  p.Log.Named("usage.service"),
		repo: p.Repo,
	}
}

func (s *Service) Latest(ctx context.Context, req usagedomain.ListRequest) ([]usagedomain.UsageRecord, error) {
	limit := req.Limit
	if limit == 0 {
		limit = defaultLatestLimit
	}
	if limit < 0 || limit > maxLatestLimit {
		return nil, usagedomain.ErrInvalidLimit
	}
	return s.repo.Latest(ctx, limit)
}

func (s *Service) History(ctx context.Context, req usagedomain.HistoryRequest) ([]usagedomain.UsageRecord, error) {
	days := req.Days
	if days == 0 {
		days = defaultHistoryDays
	}
	if days < 0 || days > maxHistoryDays {
		return nil, usagedomain.ErrInvalidDays
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	return s.repo.History(ctx, since)
}

// Stats projects the latest plan's consumption over a trailing window.
// An empty store yields a zero-valued response with HasData false, not
// an error.
func (s *Service) Stats(ctx context.Context) (usagedomain.StatsResponse, error) {
	latest, err := s.repo.LatestRecord(ctx)
	if err != nil {
		return usagedomain.StatsResponse{}, err
	}
	if latest == nil {
		return usagedomain.StatsResponse{}, nil
	}

	since := time.Now().UTC().AddDate(0, 0, -statsWindowDays)
	window, err := s.repo.HistoryForPlan(ctx, latest.PlanID, since)
	if err != nil {
		return usagedomain.StatsResponse{}, err
	}

	samples := make([]projection.Sample, 0, len(window))
	for _, record := range window {
		samples = append(samples, projection.Sample{
			BalanceGB:     record.RemainingBalanceGB,
			BalanceBytes:  record.RemainingBalanceBytes,
			ExpiresInDays: record.ExpiresInDays,
		})
	}

	return usagedomain.StatsResponse{
		PlanName:    latest.PlanName,
		PlanID:      latest.PlanID,
		LastUpdated: latest.CollectedAt,
		Result:      projection.Project(samples),
	}, nil
}
