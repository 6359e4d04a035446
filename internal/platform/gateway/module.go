package gateway

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payport/pkg/config"
	"github.com/fatflowers/payport/pkg/metrics"
)

func newClient(cfg *config.Config, log *zap.SugaredLogger, rec *metrics.Recorder) *Client {
	return NewClient(cfg.Gateway, log, WithMetrics(rec))
}

var Module = fx.Options(
	fx.Provide(newClient),
	fx.Provide(func(c *Client) Caller { return c }),
)
