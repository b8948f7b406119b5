package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ft583086849/zhixing-sub003/internal/commission"
	"github.com/ft583086849/zhixing-sub003/internal/model"
	"github.com/ft583086849/zhixing-sub003/internal/repository"
	"github.com/ft583086849/zhixing-sub003/pkg/idgen"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderStore interface {
	GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, orderNo, fromRaw string, to commission.Status) error
	List(ctx context.Context, filter repository.OrderFilter, page, pageSize int) ([]*model.Order, int64, error)
}

// OrderView 订单列表展示，状态与时长为规范值
type OrderView struct {
	OrderNo       string              `json:"order_no"`
	SalesCode     string              `json:"sales_code"`
	Amount        decimal.Decimal     `json:"amount"`
	AmountUSD     decimal.Decimal     `json:"amount_usd"`
	PaymentMethod string              `json:"payment_method"`
	Status        commission.Status   `json:"status"`
	Duration      commission.Duration `json:"duration"`
	CreatedAt     time.Time           `json:"created_at"`
	PaymentTime   *time.Time          `json:"payment_time,omitempty"`
	EffectiveTime *time.Time          `json:"effective_time,omitempty"`
	ExpiryTime    *time.Time          `json:"expiry_time,omitempty"`
}

type OrderService struct {
	tx          Transactor
	orders      OrderStore
	outbox      OutboxWriter
	invalidator Invalidator
	calc        *commission.Calculator
	statusTopic string
	log         *zap.Logger
}

func NewOrderService(tx Transactor, orders OrderStore, outbox OutboxWriter, invalidator Invalidator, calc *commission.Calculator, statusTopic string, log *zap.Logger) *OrderService {
	return &OrderService{
		tx:          tx,
		orders:      orders,
		outbox:      outbox,
		invalidator: invalidator,
		calc:        calc,
		statusTopic: statusTopic,
		log:         log.Named("order"),
	}
}

func (s *OrderService) view(o *model.Order) OrderView {
	c := OrderFromModel(o)
	return OrderView{
		OrderNo:       c.OrderNo,
		SalesCode:     c.SalesCode,
		Amount:        c.Amount,
		AmountUSD:     s.calc.BasisUSD(c).Round(2),
		PaymentMethod: c.PaymentMethod,
		Status:        c.Status,
		Duration:      c.Duration,
		CreatedAt:     c.CreatedAt,
		PaymentTime:   c.PaymentTime,
		EffectiveTime: c.EffectiveTime,
		ExpiryTime:    c.ExpiryTime,
	}
}

func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter, page, pageSize int) ([]OrderView, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	orders, total, err := s.orders.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, s.view(o))
	}
	return views, total, nil
}

// UpdateStatus 订单状态流转，变更事件与状态在同一个事务中写入
func (s *OrderService) UpdateStatus(ctx context.Context, orderNo, target string) (*OrderView, error) {
	to := commission.ParseStatus(target)
	if to == commission.StatusUnknown {
		return nil, fmt.Errorf("%w: %s", repository.ErrOrderStatusInvalid, target)
	}

	order, err := s.orders.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	from := commission.ParseStatus(order.Status)

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.orders.UpdateStatus(ctx, tx, orderNo, order.Status, to); err != nil {
			return fmt.Errorf("%w: %s -> %s", err, from, to)
		}

		msg, err := model.NewOutboxMessage(s.statusTopic, idgen.GenerateEventKey(orderNo), model.EventOrderStatusChanged, map[string]interface{}{
			"order_no":   orderNo,
			"sales_code": order.SalesCode,
			"from":       from,
			"to":         to,
			"changed_at": time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
		if err := s.outbox.Create(ctx, tx, msg); err != nil {
			return fmt.Errorf("写入消息失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			s.log.Warn("清除报表缓存失败", zap.Error(err))
		}
	}
	s.log.Info("订单状态已更新", zap.String("order_no", orderNo), zap.String("from", string(from)), zap.String("to", string(to)))

	order.Status = string(to)
	v := s.view(order)
	return &v, nil
}
