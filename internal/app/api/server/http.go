package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/genstudio/docs"
	"github.com/fatflowers/genstudio/internal/app/api/handlers"
	mw "github.com/fatflowers/genstudio/internal/app/api/middleware"
	"github.com/fatflowers/genstudio/internal/app/repository"
	"github.com/fatflowers/genstudio/internal/app/service/account"
	"github.com/fatflowers/genstudio/internal/app/service/content"
	"github.com/fatflowers/genstudio/internal/app/service/entitlement"
	"github.com/fatflowers/genstudio/internal/app/service/statistics"
	subsvc "github.com/fatflowers/genstudio/internal/app/service/subscription"
	cfgpkg "github.com/fatflowers/genstudio/pkg/config"
	metrics "github.com/fatflowers/genstudio/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Request logger & access log are attached per group in registerRoutes.
	r.Use(mw.TraceMiddleware())
	return r
}

type routeDeps struct {
	fx.In

	Log           *zap.SugaredLogger
	Cfg           *cfgpkg.Config
	Accounts      *account.Service
	Content       *content.Service
	Subscriptions *subsvc.Service
	Entitlements  *entitlement.Service
	Payments      *repository.PaymentRepository
	Statistics    *statistics.Service
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	log, cfg := d.Log, d.Cfg
	if cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			MetricsList: metrics.BusinessMetrics,
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return "unmatched"
			},
			Logger: log,
		})
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)

		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	logged := []gin.HandlerFunc{mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log)}

	pub := r.Group("/", logged...)
	handlers.RegisterHealthRoutes(pub)
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if cfg.Storage.Driver != cfgpkg.StorageDriverS3 {
		publicPath := cfg.Storage.PublicPath
		if publicPath == "" {
			publicPath = "/uploads"
		}
		r.Static(publicPath, cfg.Storage.UploadDir)
	}

	api := r.Group("/api", logged...)
	handlers.RegisterAuthRoutes(api.Group("/auth"), d.Accounts, log)
	handlers.RegisterUserRoutes(api.Group("/users"), d.Accounts, log)
	limiter := mw.NewLimiter(cfg.RateLimit.GenerateRPS, cfg.RateLimit.GenerateBurst)
	handlers.RegisterContentRoutes(api.Group("/content"), d.Content, log, mw.RateLimitMiddleware(limiter, log))
	handlers.RegisterSubscriptionRoutes(api.Group("/subscription"), d.Subscriptions, d.Entitlements, log)

	handlers.RegisterAdminRoutes(api.Group("/v1/admin"), d.Payments, d.Statistics, log)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
