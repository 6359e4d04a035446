package statistics

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/payport/internal/models"
	"github.com/fatflowers/payport/pkg/types"
)

type StatisticType string

const (
	// Daily counts and gross amounts
	StatisticTypeDailyOrderCount StatisticType = "daily_order_count"
	StatisticTypeDailyGross      StatisticType = "daily_gross"

	// Breakdowns over the filtered orders
	StatisticTypeByPaymentMethod StatisticType = "by_payment_method"
	StatisticTypeByPaymentStatus StatisticType = "by_payment_status"
	StatisticTypeSettlement      StatisticType = "settlement"
)

// Filter types handled by the statistics request itself
type PaymentStatisticFilterType string

const (
	PaymentStatisticFilterTypeIsSettled PaymentStatisticFilterType = "is_settled"
)

var filterTypes = []PaymentStatisticFilterType{
	PaymentStatisticFilterTypeIsSettled,
}

var validFilters = map[PaymentStatisticFilterType][]StatisticType{
	PaymentStatisticFilterTypeIsSettled: {StatisticTypeDailyOrderCount, StatisticTypeDailyGross, StatisticTypeByPaymentMethod},
}

type PaymentStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type PaymentStatisticRequest struct {
	Filters   []*types.CommonFilter       `json:"filters"`
	DataItems []*PaymentStatisticDataItem `json:"data_items"`
}

func (f *PaymentStatisticRequest) GetFilters(statisticType StatisticType) *PaymentStatisticRequest {
	if f == nil || len(f.Filters) == 0 {
		return f
	}
	var result PaymentStatisticRequest
	for _, filter := range f.Filters {
		if statisticTypes, ok := validFilters[PaymentStatisticFilterType(filter.Field)]; ok {
			if lo.Contains(statisticTypes, statisticType) {
				result.Filters = append(result.Filters, filter)
			}
		} else {
			result.Filters = append(result.Filters, filter)
		}
	}
	return &result
}

// Build composes a WHERE clause based on provided filters, with custom handling for
// is_settled (paid amount covers the order balance).
func (f *PaymentStatisticRequest) Build(builder clause.Builder) {
	if f == nil || len(f.Filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i, filter := range f.Filters {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		switch filter.Field {
		case string(PaymentStatisticFilterTypeIsSettled):
			if len(filter.Values) > 0 && fmt.Sprint(filter.Values[0]) == "true" {
				builder.WriteString("(order_payment.paid_amount >= order_payment.order_amount - order_payment.refunded_amount AND order_payment.order_amount > 0)")
			} else {
				builder.WriteString("(order_payment.paid_amount < order_payment.order_amount - order_payment.refunded_amount)")
			}
		default:
			filter.Build(builder)
		}
	}
}

type PaymentStatisticResponseDataItem struct {
	Date   string `json:"date,omitempty"`
	Label  string `json:"label,omitempty"`
	Value  int64  `json:"value"`
	Value2 int64  `json:"value2,omitempty"`
	Value3 int64  `json:"value3,omitempty"`
}

type PaymentStatisticResponse struct {
	DataItems map[StatisticType][]PaymentStatisticResponseDataItem `json:"data_items"`
}

// Service provides statistics operations
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

// dayExpr formats created_at as YYYY-MM-DD in the dialect of db.
func dayExpr(db *gorm.DB, column string) string {
	switch db.Dialector.Name() {
	case "mysql":
		return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m-%%d')", column)
	case "sqlite":
		return fmt.Sprintf("strftime('%%Y-%%m-%%d', %s)", column)
	default:
		return fmt.Sprintf("TO_CHAR(%s, 'YYYY-MM-DD')", column)
	}
}

func (s *Service) payments(ctx context.Context, request *PaymentStatisticRequest, statisticType StatisticType) *gorm.DB {
	return s.db.WithContext(ctx).Table((models.OrderPayment{}).TableName()).
		Joins("JOIN shop_order ON shop_order.id = order_payment.order_id").
		Where("order_payment.tid <> ''").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(statisticType)}})
}

// Internal helpers for various stats
func (s *Service) getDailyOrderCount(ctx context.Context, request *PaymentStatisticRequest) ([]PaymentStatisticResponseDataItem, error) {
	var results []PaymentStatisticResponseDataItem
	day := dayExpr(s.db, "order_payment.created_at")
	q := s.payments(ctx, request, StatisticTypeDailyOrderCount).
		Select(day + " as date, count(*) as value").
		Group(day).
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyGross(ctx context.Context, request *PaymentStatisticRequest) ([]PaymentStatisticResponseDataItem, error) {
	var results []PaymentStatisticResponseDataItem
	day := dayExpr(s.db, "order_payment.created_at")
	q := s.payments(ctx, request, StatisticTypeDailyGross).
		Select(day + " as date, shop_order.currency AS label, sum(order_payment.order_amount) as value, sum(order_payment.paid_amount) as value2").
		Group(day).
		Group("shop_order.currency").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getByPaymentMethod(ctx context.Context, request *PaymentStatisticRequest) ([]PaymentStatisticResponseDataItem, error) {
	var results []PaymentStatisticResponseDataItem
	q := s.payments(ctx, request, StatisticTypeByPaymentMethod).
		Select("order_payment.payment_method AS label, count(*) as value, sum(order_payment.order_amount) as value2, sum(order_payment.paid_amount) as value3").
		Group("order_payment.payment_method").
		Order("label")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getByPaymentStatus(ctx context.Context, request *PaymentStatisticRequest) ([]PaymentStatisticResponseDataItem, error) {
	var results []PaymentStatisticResponseDataItem
	q := s.payments(ctx, request, StatisticTypeByPaymentStatus).
		Select("order_payment.status AS label, count(*) as value, sum(order_payment.order_amount) as value2").
		Group("order_payment.status").
		Order("label")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// getSettlement sums paid, refunded and outstanding amounts per currency.
func (s *Service) getSettlement(ctx context.Context, request *PaymentStatisticRequest) ([]PaymentStatisticResponseDataItem, error) {
	var results []PaymentStatisticResponseDataItem
	q := s.payments(ctx, request, StatisticTypeSettlement).
		Select(`shop_order.currency AS label, sum(order_payment.paid_amount) as value, sum(order_payment.refunded_amount) as value2,
sum(CASE WHEN order_payment.order_amount - order_payment.refunded_amount > order_payment.paid_amount
  THEN order_payment.order_amount - order_payment.refunded_amount - order_payment.paid_amount ELSE 0 END) as value3`).
		Group("shop_order.currency").
		Order("label")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getPaymentStatistic(ctx context.Context, request *PaymentStatisticRequest, dataItem *PaymentStatisticDataItem) ([]PaymentStatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyOrderCount:
		return s.getDailyOrderCount(ctx, request)
	case StatisticTypeDailyGross:
		return s.getDailyGross(ctx, request)
	case StatisticTypeByPaymentMethod:
		return s.getByPaymentMethod(ctx, request)
	case StatisticTypeByPaymentStatus:
		return s.getByPaymentStatus(ctx, request)
	case StatisticTypeSettlement:
		return s.getSettlement(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

func (s *Service) GetPaymentStatistic(ctx context.Context, request *PaymentStatisticRequest) (*PaymentStatisticResponse, error) {
	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []PaymentStatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *PaymentStatisticDataItem) {
			defer wg.Done()
			// check filter applicability
			for _, filter := range request.Filters {
				ft := PaymentStatisticFilterType(filter.Field)
				if lo.Contains(filterTypes, ft) && !lo.Contains(validFilters[ft], di.ID) {
					resChan <- &lo.Entry[StatisticType, []PaymentStatisticResponseDataItem]{Key: di.ID, Value: nil}
					return
				}
			}
			res, err := s.getPaymentStatistic(ctx, request, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []PaymentStatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	go func() { wg.Wait(); close(errChan); close(resChan) }()

	results := make(map[StatisticType][]PaymentStatisticResponseDataItem)
	for entry := range resChan {
		results[entry.Key] = entry.Value
	}
	if err, ok := <-errChan; ok {
		return nil, err
	}
	return &PaymentStatisticResponse{DataItems: results}, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
