package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/payport/internal/models"
	"github.com/fatflowers/payport/internal/platform/gateway"
	"github.com/fatflowers/payport/pkg/logctx"
	"github.com/fatflowers/payport/pkg/tool"
	"github.com/fatflowers/payport/pkg/types"
)

var ErrOrderNotFound = errors.New("order not found")

// MutateFunc changes an order inside the store transaction. Returning false leaves the
// order untouched; returning an error rolls the transaction back.
type MutateFunc func(o *models.Order) (changed bool, err error)

// Repository is the order storage used by the payment flows.
type Repository interface {
	Get(ctx context.Context, orderNo, token string) (*models.Order, error)
	Mutate(ctx context.Context, orderNo, token string, fn MutateFunc) (*models.Order, error)
}

type Store struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewStore(db *gorm.DB, log *zap.SugaredLogger) *Store {
	return &Store{db: db, log: log}
}

// Create inserts a new order with its empty payment record.
func (s *Store) Create(ctx context.Context, o *models.Order) error {
	if o == nil {
		return fmt.Errorf("nil order")
	}
	if o.ID == "" {
		o.ID = tool.GenerateUUIDV7()
	}
	if o.Token == "" {
		o.Token = tool.GenerateOrderToken()
	}
	o.Status = lo.CoalesceOrEmpty(o.Status, types.OrderStatusCreated)
	o.PaymentStatus = lo.CoalesceOrEmpty(o.PaymentStatus, types.PaymentStatusNotPaid)
	o.ConfirmationStatus = lo.CoalesceOrEmpty(o.ConfirmationStatus, types.ConfirmationStatusNotConfirmed)
	o.ExportStatus = lo.CoalesceOrEmpty(o.ExportStatus, types.ExportStatusNotExported)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(o).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		p := o.EnsurePayment()
		p.OrderID = o.ID
		if p.ID == "" {
			p.ID = tool.GenerateUUIDV7()
		}
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("failed to create order payment: %w", err)
		}
		return insertNotes(tx, o)
	})
}

// Get loads an order and its payment. An empty token skips the token check.
func (s *Store) Get(ctx context.Context, orderNo, token string) (*models.Order, error) {
	return load(s.db.WithContext(ctx), orderNo, token, false)
}

// Mutate runs fn on the locked order and persists the result in one transaction.
// No network call may happen inside fn.
func (s *Store) Mutate(ctx context.Context, orderNo, token string, fn MutateFunc) (*models.Order, error) {
	var out *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := load(tx, orderNo, token, true)
		if err != nil {
			return err
		}
		changed, err := fn(o)
		if err != nil {
			return err
		}
		if changed {
			if err := save(tx, o); err != nil {
				return err
			}
		}
		out = o
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrOrderNotFound) {
			logctx.FromCtx(ctx, s.log).Warnw("order mutation rolled back", "order_no", orderNo, "err", err)
		}
		return nil, err
	}
	return out, nil
}

func load(tx *gorm.DB, orderNo, token string, lock bool) (*models.Order, error) {
	if orderNo == "" {
		return nil, ErrOrderNotFound
	}
	q := tx.Where("order_no = ?", orderNo)
	if token != "" {
		q = q.Where("token = ?", token)
	}
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var o models.Order
	if err := q.Take(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	pq := tx.Where("order_id = ?", o.ID)
	if lock {
		pq = pq.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p models.OrderPayment
	err := pq.Take(&p).Error
	switch {
	case err == nil:
		o.Payment = &p
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, fmt.Errorf("failed to load order payment: %w", err)
	}
	return &o, nil
}

func save(tx *gorm.DB, o *models.Order) error {
	if err := tx.Omit(clause.Associations).Save(o).Error; err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	if p := o.Payment; p != nil {
		p.OrderID = o.ID
		if p.ID == "" {
			p.ID = tool.GenerateUUIDV7()
			if err := tx.Create(p).Error; err != nil {
				return fmt.Errorf("failed to create order payment: %w", err)
			}
		} else if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("failed to save order payment: %w", err)
		}
	}
	return insertNotes(tx, o)
}

func insertNotes(tx *gorm.DB, o *models.Order) error {
	if len(o.PendingNotes) == 0 {
		return nil
	}
	notes := lo.Map(o.PendingNotes, func(text string, _ int) *models.OrderNote {
		return &models.OrderNote{ID: tool.GenerateUUIDV7(), OrderID: o.ID, Subject: models.NoteSubject, Text: text}
	})
	if err := tx.Create(&notes).Error; err != nil {
		return fmt.Errorf("failed to append order notes: %w", err)
	}
	o.PendingNotes = nil
	return nil
}

// Notes returns the payment history of an order, oldest first.
func (s *Store) Notes(ctx context.Context, orderID string) ([]*models.OrderNote, error) {
	var notes []*models.OrderNote
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at asc").Order("id asc").Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("failed to list order notes: %w", err)
	}
	return notes, nil
}

// SavedPayments returns up to limit distinct stored tokens of a registered customer for
// one payment type, newest first. Failed transactions are skipped.
func (s *Store) SavedPayments(ctx context.Context, customerNo string, pt gateway.PaymentType, limit int) ([]*models.OrderPayment, error) {
	if customerNo == "" {
		return nil, nil
	}
	var rows []*models.OrderPayment
	err := s.db.WithContext(ctx).
		Model(&models.OrderPayment{}).
		Joins("JOIN shop_order ON shop_order.id = order_payment.order_id").
		Where("shop_order.customer_no = ?", customerNo).
		Where("order_payment.payment_method = ?", pt).
		Where("order_payment.payment_token <> ''").
		Where("order_payment.status <> ?", gateway.TransactionStatusFailure).
		Order("order_payment.created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list saved payments: %w", err)
	}
	rows = lo.UniqBy(rows, func(p *models.OrderPayment) string { return p.PaymentToken })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
