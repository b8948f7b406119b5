package repository

import (
	"context"
	"errors"

	"github.com/ft583086849/zhixing-sub003/internal/commission"
	"github.com/ft583086849/zhixing-sub003/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSalesNotFound  = errors.New("销售不存在")
	ErrOptimisticLock = errors.New("乐观锁冲突，请重试")
)

// SalesAccount 改佣与发放共用的视图，屏蔽一级/二级两张表的差异
type SalesAccount struct {
	Tier           commission.Tier
	SalesCode      string
	PaidCommission decimal.Decimal
	Version        int
}

type SalesRepository struct {
	db *gorm.DB
}

func NewSalesRepository(db *gorm.DB) *SalesRepository {
	return &SalesRepository{db: db}
}

// ListPrimary 全部一级销售，包括已移除的，历史订单仍需要归属
func (r *SalesRepository) ListPrimary(ctx context.Context) ([]*model.PrimarySales, error) {
	var sales []*model.PrimarySales
	err := r.db.WithContext(ctx).Order("id ASC").Find(&sales).Error
	return sales, err
}

func (r *SalesRepository) ListSecondary(ctx context.Context) ([]*model.SecondarySales, error) {
	var sales []*model.SecondarySales
	err := r.db.WithContext(ctx).Order("id ASC").Find(&sales).Error
	return sales, err
}

// GetAccount 先查一级表再查二级表；传入 tx 时加行锁
func (r *SalesRepository) GetAccount(ctx context.Context, tx *gorm.DB, salesCode string) (*SalesAccount, error) {
	query := r.db
	if tx != nil {
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var primary model.PrimarySales
	err := query.WithContext(ctx).Where("sales_code = ?", salesCode).First(&primary).Error
	if err == nil {
		return &SalesAccount{
			Tier:           commission.TierPrimary,
			SalesCode:      primary.SalesCode,
			PaidCommission: primary.PaidCommission,
			Version:        primary.Version,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var secondary model.SecondarySales
	err = query.WithContext(ctx).Where("sales_code = ?", salesCode).First(&secondary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSalesNotFound
		}
		return nil, err
	}
	return &SalesAccount{
		Tier:           commission.TierSecondary,
		SalesCode:      secondary.SalesCode,
		PaidCommission: secondary.PaidCommission,
		Version:        secondary.Version,
	}, nil
}

// AddPaidCommission 累加已发放佣金，版本号不一致时返回 ErrOptimisticLock
func (r *SalesRepository) AddPaidCommission(ctx context.Context, tx *gorm.DB, account *SalesAccount, amount decimal.Decimal) error {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(tierModel(account.Tier)).
		Where("sales_code = ? AND version = ?", account.SalesCode, account.Version).
		Updates(map[string]interface{}{
			"paid_commission": gorm.Expr("paid_commission + ?", amount),
			"version":         gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}

	return nil
}

// UpdateCommissionRate 写入百分比形式的佣金率，只有二级销售的佣金率参与结算
func (r *SalesRepository) UpdateCommissionRate(ctx context.Context, tx *gorm.DB, salesCode string, percent decimal.Decimal) (commission.Tier, error) {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(tierModel(commission.TierSecondary)).
		Where("sales_code = ?", salesCode).
		Updates(map[string]interface{}{
			"commission_rate": percent,
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", ErrSalesNotFound
	}
	return commission.TierSecondary, nil
}

func tierModel(tier commission.Tier) interface{} {
	if tier == commission.TierPrimary {
		return &model.PrimarySales{}
	}
	return &model.SecondarySales{}
}
