package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ft583086849/zhixing-sub003/internal/commission"
	"github.com/ft583086849/zhixing-sub003/internal/model"

	"gorm.io/gorm"
)

var (
	ErrOrderNotFound      = errors.New("订单不存在")
	ErrOrderStatusInvalid = errors.New("订单状态不合法")
)

// OrderFilter 时间范围为左闭右开，零值字段不参与过滤
type OrderFilter struct {
	Start     *time.Time
	End       *time.Time
	Status    commission.Status
	SalesCode string
}

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) apply(query *gorm.DB, filter OrderFilter) *gorm.DB {
	if filter.Start != nil {
		query = query.Where("created_at >= ?", *filter.Start)
	}
	if filter.End != nil {
		query = query.Where("created_at < ?", *filter.End)
	}
	if filter.Status != "" {
		query = query.Where("status IN ?", commission.RawStatuses(filter.Status))
	}
	if filter.SalesCode != "" {
		query = query.Where("sales_code = ?", filter.SalesCode)
	}
	return query
}

// ListForSettlement 结算需要的全部订单，不分页
func (r *OrderRepository) ListForSettlement(ctx context.Context, filter OrderFilter) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.apply(r.db.WithContext(ctx).Model(&model.Order{}), filter).
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) List(ctx context.Context, filter OrderFilter, page, pageSize int) ([]*model.Order, int64, error) {
	var orders []*model.Order
	var total int64

	query := r.apply(r.db.WithContext(ctx).Model(&model.Order{}), filter)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error

	return orders, total, err
}

func (r *OrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// UpdateStatus fromRaw 是库中当前的原始写法，用作条件更新防止并发覆盖；写回时统一为规范状态
func (r *OrderRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, orderNo, fromRaw string, to commission.Status) error {
	if !model.CanTransitionTo(commission.ParseStatus(fromRaw), to) {
		return ErrOrderStatusInvalid
	}

	if tx == nil {
		tx = r.db
	}

	updates := map[string]interface{}{
		"status": string(to),
	}

	now := time.Now()
	switch to {
	case commission.StatusConfirmedPayment:
		updates["payment_time"] = &now
	case commission.StatusConfirmed:
		updates["effective_time"] = &now
	}

	result := tx.WithContext(ctx).
		Model(&model.Order{}).
		Where("order_no = ? AND status = ?", orderNo, fromRaw).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrOrderStatusInvalid
	}

	return nil
}
