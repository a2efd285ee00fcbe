// Package server exposes the read API and the dashboard.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bundlewatch/bundlewatch/internal/collector"
	"github.com/bundlewatch/bundlewatch/internal/config"
	usagedomain "github.com/bundlewatch/bundlewatch/internal/usage/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(run),
)

// NewEngine builds the gin engine with recovery, request logging and
// the operational endpoints.
func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type ServerParams struct {
	fx.In

	Engine    *gin.Engine
	Log       *zap.Logger
	UsageSvc  usagedomain.Service
	Collector *collector.Collector
}

type Server struct {
	engine    *gin.Engine
	log       *zap.Logger
	usagesvc  usagedomain.Service
	collector *collector.Collector
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:    p.Engine,
		log:       p.Log.Named("server"),
		usagesvc:  p.UsageSvc,
		collector: p.Collector,
	}
}

// RegisterRoutes wires the read API and the dashboard.
func (s *Server) RegisterRoutes() {
	s.engine.GET("/", s.Dashboard)

	api := s.engine.Group("/api")
	api.GET("/data", s.GetLatest)
	api.GET("/history", s.GetHistory)
	api.GET("/stats", s.GetStats)
	api.POST("/collect", s.TriggerCollect)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
