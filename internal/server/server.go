package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/roi/internal/auth/magiclink"
	"github.com/smallbiznis/roi/internal/clock"
	"github.com/smallbiznis/roi/internal/config"
	"github.com/smallbiznis/roi/internal/observability"
	obsmiddleware "github.com/smallbiznis/roi/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/roi/internal/observability/metrics"
	obstracing "github.com/smallbiznis/roi/internal/observability/tracing"
	"github.com/smallbiznis/roi/internal/ratelimit"
	roidomain "github.com/smallbiznis/roi/internal/roi/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(
		registerGin,
		func(s *magiclink.Service) AccessService { return s },
		NewServer,
	),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

// AccessService issues and verifies the emailed access tokens.
type AccessService interface {
	RequestAccess(ctx context.Context, email string) error
	Check(ctx context.Context, token, email string) (bool, error)
	Validate(ctx context.Context, token, email string) (bool, error)
}

type EngineParams struct {
	fx.In

	ObsConfig   observability.Config
	HTTPMetrics *obsmetrics.HTTPMetrics `optional:"true"`
	Metrics     *obsmetrics.Metrics     `optional:"true"`
	Limiter     ratelimit.Limiter       `optional:"true"`
}

func NewEngine(p EngineParams) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           p.ObsConfig.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(p.HTTPMetrics))
	r.Use(ErrorHandlingMiddleware())
	r.Use(SecurityHeaders())
	r.Use(CORS())
	r.Use(RateLimit(p.Limiter, ratelimit.PolicyGeneral, p.Metrics))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(p EngineParams) *gin.Engine {
	return NewEngine(p)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("roi analysis server running",
				zap.String("addr", cfg.HTTPAddr),
				zap.String("environment", cfg.Environment),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down http server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type ServerParams struct {
	fx.In

	Engine  *gin.Engine
	Config  config.Config
	ROI     roidomain.Service
	Access  AccessService
	Clock   clock.Clock
	Limiter ratelimit.Limiter   `optional:"true"`
	Metrics *obsmetrics.Metrics `optional:"true"`
	Log     *zap.Logger
}

type Server struct {
	engine  *gin.Engine
	cfg     config.Config
	roiSvc  roidomain.Service
	access  AccessService
	clock   clock.Clock
	limiter ratelimit.Limiter
	metrics *obsmetrics.Metrics
	log     *zap.Logger
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:  p.Engine,
		cfg:     p.Config,
		roiSvc:  p.ROI,
		access:  p.Access,
		clock:   p.Clock,
		limiter: p.Limiter,
		metrics: p.Metrics,
		log:     p.Log.Named("http.server"),
	}
	s.RegisterRoutes()
	return s
}

func (s *Server) RegisterRoutes() {
	s.engine.GET("/health", s.Health)

	api := s.engine.Group("/api")
	api.POST("/request-access", RateLimit(s.limiter, ratelimit.PolicyMagicLink, s.metrics), s.RequestAccess)
	api.GET("/verify", s.Verify)

	roiLimit := RateLimit(s.limiter, ratelimit.PolicyROI, s.metrics)
	api.GET("/roi", roiLimit, s.GetROI)
	api.GET("/roi/ui", roiLimit, s.GetROI)

	s.registerStatic()
}

// registerStatic serves the portal pages; anything else is a JSON 404.
func (s *Server) registerStatic() {
	root := strings.TrimSpace(s.cfg.StaticDir)
	index := filepath.Join(root, "index.html")

	s.engine.NoRoute(func(c *gin.Context) {
		if root != "" && (c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead) {
			if path, ok := staticFile(root, c.Request.URL.Path); ok {
				c.File(path)
				return
			}
			if c.Request.URL.Path == "/" && fileExists(index) {
				c.File(index)
				return
			}
		}
		AbortWithError(c, ErrNotFound)
	})
}

func staticFile(root, requestPath string) (string, bool) {
	clean := filepath.Clean("/" + requestPath)
	if clean == "/" {
		return "", false
	}
	path := filepath.Join(root, filepath.FromSlash(clean))
	return path, fileExists(path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
