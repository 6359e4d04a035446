package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/payport/internal/app/api/server"
	"github.com/fatflowers/payport/internal/app/service/checkout"
	notificationhandler "github.com/fatflowers/payport/internal/app/service/notification_handler"
	notificationlog "github.com/fatflowers/payport/internal/app/service/notification_log"
	"github.com/fatflowers/payport/internal/app/service/order"
	"github.com/fatflowers/payport/internal/app/service/reconcile"
	"github.com/fatflowers/payport/internal/app/service/statistics"
	"github.com/fatflowers/payport/internal/app/service/transaction"
	"github.com/fatflowers/payport/internal/platform/cache"
	"github.com/fatflowers/payport/internal/platform/db"
	"github.com/fatflowers/payport/internal/platform/gateway"
	"github.com/fatflowers/payport/internal/platform/mail"
	"github.com/fatflowers/payport/pkg/config"
	"github.com/fatflowers/payport/pkg/logger"
	"github.com/fatflowers/payport/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

// CoreModule wires storage, the gateway client and the payment services without
// the HTTP server. The command line tools run on it.
var CoreModule = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	db.Module,
	cache.Module,
	mail.Module,
	gateway.Module,
	order.Module,
	notificationlog.Module,
	reconcile.Module,
	checkout.Module,
	notificationhandler.Module,
	transaction.Module,
	statistics.Module,
)

var Module = fx.Options(
	CoreModule,
	server.Module,
)
