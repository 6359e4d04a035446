package transaction

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payport/internal/app/service/notification_log"
	"github.com/fatflowers/payport/internal/app/service/order"
	"github.com/fatflowers/payport/internal/app/service/reconcile"
	"github.com/fatflowers/payport/internal/platform/gateway"
	"github.com/fatflowers/payport/pkg/config"
	"github.com/fatflowers/payport/pkg/metrics"
)

// Module exposes the back-office transaction service via Fx.
var Module = fx.Options(
	fx.Provide(func(cfg *config.Config, store *order.Store, caller gateway.Caller, engine *reconcile.Engine,
		logs *notification_log.Service, rec *metrics.Recorder, log *zap.SugaredLogger) *Service {
		return NewService(cfg, store, caller, engine, logs, rec, log)
	}),
	fx.Provide(func(s *Service) TransactionManager { return s }),
)
