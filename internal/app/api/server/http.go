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
	"gorm.io/gorm"

	"github.com/fatflowers/payport/docs"
	"github.com/fatflowers/payport/internal/app/api/handlers"
	mw "github.com/fatflowers/payport/internal/app/api/middleware"
	"github.com/fatflowers/payport/internal/app/service/checkout"
	nh "github.com/fatflowers/payport/internal/app/service/notification_handler"
	"github.com/fatflowers/payport/internal/app/service/statistics"
	"github.com/fatflowers/payport/internal/app/service/transaction"
	cfgpkg "github.com/fatflowers/payport/pkg/config"
	"github.com/fatflowers/payport/pkg/metrics"
)

func newEngine(cfg *cfgpkg.Config) (*gin.Engine, error) {
	r := gin.New()
	// forwarded headers are honoured only from listed proxies
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid server.trusted_proxies: %w", err)
	}
	r.Use(gin.Recovery())
	// Add request tracing middleware only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r, nil
}

type routeDeps struct {
	fx.In

	Log      *zap.SugaredLogger
	Cfg      *cfgpkg.Config
	DB       *gorm.DB
	Checkout *checkout.Service
	Webhook  *nh.NotificationHandler
	TxMgr    transaction.TransactionManager
	Stats    *statistics.Service
}

func registerRoutes(lc fx.Lifecycle, r *gin.Engine, d routeDeps) {
	// Prometheus metrics
	if d.Cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return "unmatched"
			},
			Logger: d.Log,
		})
		p.Use(r, d.Cfg.MetricsAddr)
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error { p.Start(); return nil },
			OnStop:  p.Stop,
		})
		d.Log.Infow("metrics started", "addr", d.Cfg.MetricsAddr)
	}

	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware(d.Log))
	handlers.RegisterHealthRoutes(pub, d.DB)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware(d.Log))

	handlers.RegisterCheckoutRoutes(apiV1.Group("/checkout"), d.Checkout)
	handlers.RegisterGatewayRoutes(apiV1.Group("/gateway"), d.Webhook, d.Checkout, d.Cfg.Shop, d.Log)

	// Back office
	admin := apiV1.Group("/admin", mw.AdminAuthMiddleware(d.Cfg.Admin.JWTSecret))
	handlers.RegisterAdminRoutes(admin, d.TxMgr, d.Checkout, d.Stats, d.Log)
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
