// Package collector orchestrates one collection tick: authenticate,
// fetch, parse, persist, log out.
package collector

import (
	"context"
	"errors"
	"time"

	"github.com/bundlewatch/bundlewatch/internal/bundle"
	"github.com/bundlewatch/bundlewatch/internal/metrics"
	"github.com/bundlewatch/bundlewatch/internal/taara"
	usagedomain "github.com/bundlewatch/bundlewatch/internal/usage/domain"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Tick outcome classes, used as the metrics label.
const (
	OutcomeOK         = "ok"
	OutcomeAuthError  = "auth_error"
	OutcomeFetchError = "fetch_error"
	OutcomeParseError = "parse_error"
	OutcomeStoreError = "store_error"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Client  *taara.Client
	Repo    usagedomain.Repository
	Metrics *metrics.Metrics
}

// Collector runs ticks. It holds no per-tick state, so overlapping
// ticks (a manual trigger racing the schedule) are tolerated; the
// upstream session model is per-login and the store is append-only.
type Collector struct {
	log     *zap.Logger
	client  *taara.Client
	repo    usagedomain.Repository
	metrics *metrics.Metrics
}

func New(p Params) *Collector {
	return &Collector{
		log:     p.Log.Named("collector"),
		client:  p.Client,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

// RunOnce performs one complete tick. Records are persisted
// all-or-nothing; a failure at any stage fails the tick and stores
// nothing. The audit log is written regardless so failed ticks stay
// visible.
func (c *Collector) RunOnce(ctx context.Context) error {
	tickID := uuid.NewString()
	log := c.log.With(zap.String("tick_id", tickID))
	log.Info("collection tick started")

	session, err := c.timedLogin(ctx, tickID)
	if err != nil {
		log.Error("login failed", zap.Error(err))
		c.metrics.IncTick(OutcomeAuthError)
		return err
	}

	raw, err := c.timedFetch(ctx, tickID, session)
	if err != nil {
		log.Error("bundle fetch failed", zap.Error(err))
		c.metrics.IncTick(OutcomeFetchError)
		c.timedLogout(ctx, tickID, session, log)
		return err
	}

	records, err := bundle.Parse(raw)
	if err != nil {
		log.Error("bundle parse failed", zap.Error(err))
		c.metrics.IncTick(OutcomeParseError)
		c.timedLogout(ctx, tickID, session, log)
		return err
	}

	collectedAt, err := c.repo.InsertBatch(ctx, records)
	if err != nil {
		log.Error("persisting records failed", zap.Error(err))
		c.metrics.IncTick(OutcomeStoreError)
		c.timedLogout(ctx, tickID, session, log)
		return err
	}

	c.timedLogout(ctx, tickID, session, log)

	c.metrics.IncTick(OutcomeOK)
	c.metrics.AddRecords(len(records))
	log.Info("collection tick finished",
		zap.Int("records", len(records)),
		zap.Time("collected_at", collectedAt),
	)
	return nil
}

func (c *Collector) timedLogin(ctx context.Context, tickID string) (taara.Session, error) {
	start := time.Now()
	session, err := c.client.Login(ctx)
	c.audit(ctx, tickID, "login", "POST", start, err)
	return session, err
}

func (c *Collector) timedFetch(ctx context.Context, tickID string, session taara.Session) ([]byte, error) {
	start := time.Now()
	raw, err := c.client.FetchBundle(ctx, session)
	c.audit(ctx, tickID, "get-customer-bundle", "GET", start, err)
	return raw, err
}

// timedLogout is best effort: a failed logout is logged and audited,
// never propagated.
func (c *Collector) timedLogout(ctx context.Context, tickID string, session taara.Session, log *zap.Logger) {
	start := time.Now()
	err := c.client.Logout(ctx, session)
	c.audit(ctx, tickID, "logout", "GET", start, err)
	if err != nil {
		log.Warn("logout failed", zap.Error(err))
	}
}

func (c *Collector) audit(ctx context.Context, tickID, endpoint, method string, start time.Time, callErr error) {
	entry := usagedomain.APICallLog{
		TickID:    tickID,
		Endpoint:  endpoint,
		Method:    method,
		Success:   callErr == nil,
		LatencyMS: float64(time.Since(start).Microseconds()) / 1000,
	}
	if callErr != nil {
		entry.Error = callErr.Error()
		entry.StatusCode = statusCodeOf(callErr)
	}

	c.metrics.ObserveUpstreamCall(endpoint, callErr == nil, time.Since(start).Seconds())

	if err := c.repo.AppendCallLog(ctx, entry); err != nil {
		c.log.Warn("writing api call log failed", zap.Error(err))
	}
}

func statusCodeOf(err error) int {
	var authErr *taara.AuthError
	if errors.As(err, &authErr) {
		return authErr.StatusCode
	}
	var fetchErr *taara.FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode
	}
	return 0
}
