package repository

import (
	"context"
	"errors"

	"github.com/ft583086849/zhixing-sub003/internal/model"

	"gorm.io/gorm"
)

type PayoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) Create(ctx context.Context, tx *gorm.DB, payout *model.CommissionPayout) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(payout).Error
}

// GetByRequestID 不存在时返回 nil, nil
func (r *PayoutRepository) GetByRequestID(ctx context.Context, requestID string) (*model.CommissionPayout, error) {
	var payout model.CommissionPayout
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&payout).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

func (r *PayoutRepository) ListBySalesCode(ctx context.Context, salesCode string, page, pageSize int) ([]*model.CommissionPayout, int64, error) {
	var payouts []*model.CommissionPayout
	var total int64

	query := r.db.WithContext(ctx).Model(&model.CommissionPayout{}).Where("sales_code = ?", salesCode)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&payouts).Error

	return payouts, total, err
}
