package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SalesStatusActive  = "active"
	SalesStatusRemoved = "removed"
)

// PrimarySales 一级销售表
// 一级销售可以招募二级销售，并从挂靠二级的成交中获得差额管理奖
type PrimarySales struct {
	ID             int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	SalesCode      string              `gorm:"type:varchar(64);uniqueIndex;not null" json:"sales_code"`
	WechatName     string              `gorm:"type:varchar(128)" json:"wechat_name"`
	Name           string              `gorm:"type:varchar(128)" json:"name"`
	CommissionRate decimal.NullDecimal `gorm:"type:decimal(10,4)" json:"commission_rate"` // 可能是 0.4 也可能是 40，为空时取默认值
	PaidCommission decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0" json:"paid_commission"`
	Status         string              `gorm:"type:varchar(20);not null;default:active" json:"status"`
	Version        int                 `gorm:"not null;default:0" json:"version"` // 乐观锁版本号
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PrimarySales) TableName() string {
	return "primary_sales"
}

// SecondarySales 二级销售表
// ParentSalesCode 为空表示独立二级
type SecondarySales struct {
	ID              int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	SalesCode       string              `gorm:"type:varchar(64);uniqueIndex;not null" json:"sales_code"`
	ParentSalesCode string              `gorm:"type:varchar(64);index" json:"parent_sales_code"`
	WechatName      string              `gorm:"type:varchar(128)" json:"wechat_name"`
	Name            string              `gorm:"type:varchar(128)" json:"name"`
	CommissionRate  decimal.NullDecimal `gorm:"type:decimal(10,4)" json:"commission_rate"`
	PaidCommission  decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0" json:"paid_commission"`
	Status          string              `gorm:"type:varchar(20);not null;default:active" json:"status"`
	Version         int                 `gorm:"not null;default:0" json:"version"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SecondarySales) TableName() string {
	return "secondary_sales"
}
