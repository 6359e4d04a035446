package notification_log

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fatflowers/payport/internal/models"
	"github.com/fatflowers/payport/internal/platform/gateway"
	"github.com/fatflowers/payport/pkg/logctx"
	"github.com/fatflowers/payport/pkg/tool"
)

// Recorder stores raw gateway messages.
type Recorder interface {
	Save(ctx context.Context, entry *models.PaymentNotificationLog)
}

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
	wg  sync.WaitGroup
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists a payment notification log. Nil input is ignored.
func (s *Service) Save(ctx context.Context, entry *models.PaymentNotificationLog) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = tool.GenerateUUIDV7()
	}
	if entry.TraceID == "" {
		entry.TraceID = logctx.TraceID(ctx)
	}
	lg := logctx.FromCtx(ctx, s.log)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.db.Save(entry).Error; err != nil {
			lg.Errorf("failed to save notification log: %v", err)
		}
	}()
}

// Flush blocks until every pending Save has finished.
func (s *Service) Flush() { s.wg.Wait() }

// List returns the messages recorded for an order, oldest first.
func (s *Service) List(ctx context.Context, orderNo string) ([]*models.PaymentNotificationLog, error) {
	var rows []*models.PaymentNotificationLog
	err := s.db.WithContext(ctx).Where("order_no = ?", orderNo).
		Order("notification_time asc").Order("id asc").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notification logs: %w", err)
	}
	return rows, nil
}

// NewEntry builds a log row for raw. resp may be nil when the body could not be decoded.
// Bodies that are not JSON are stored as a JSON string.
func NewEntry(source models.PaymentNotificationSource, raw []byte, resp *gateway.Response) *models.PaymentNotificationLog {
	entry := &models.PaymentNotificationLog{
		Source:           source,
		NotificationTime: time.Now(),
		Data:             rawJSON(raw),
		Status:           models.PaymentNotificationLogStatusReceived,
	}
	if resp != nil {
		entry.OrderNo = resp.Transaction.OrderNo.String()
		entry.TransactionID = resp.Transaction.TID.String()
		if resp.Event != nil {
			entry.EventType = string(resp.Event.Type)
			entry.EventTID = resp.Event.TID.String()
		}
	}
	return entry
}

// Finish sets the final status and the result payload of entry.
func Finish(entry *models.PaymentNotificationLog, status models.PaymentNotificationLogStatus, result any) {
	if entry == nil {
		return
	}
	entry.Status = status
	if result == nil {
		return
	}
	b, err := json.Marshal(result)
	if err != nil {
		return
	}
	r := datatypes.JSON(b)
	entry.Result = &r
}

func rawJSON(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON("null")
	}
	if json.Valid(raw) {
		return datatypes.JSON(raw)
	}
	b, _ := json.Marshal(string(raw))
	return datatypes.JSON(b)
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Provide(func(s *Service) Recorder { return s }),
	fx.Invoke(func(lc fx.Lifecycle, s *Service) {
		lc.Append(fx.Hook{OnStop: func(context.Context) error {
			s.Flush()
			return nil
		}})
	}),
)
