package model

import (
	"time"

	"github.com/ft583086849/zhixing-sub003/internal/commission"
	"github.com/shopspring/decimal"
)

// ValidStatusTransitions 订单状态流转
// 库里的历史写法在读取时经 commission.ParseStatus 归一，这里只使用规范状态
var ValidStatusTransitions = map[commission.Status][]commission.Status{
	commission.StatusPendingPayment:   {commission.StatusConfirmedPayment, commission.StatusRejected, commission.StatusCancelled},
	commission.StatusConfirmedPayment: {commission.StatusPendingConfig, commission.StatusRejected},
	commission.StatusPendingConfig:    {commission.StatusConfirmed, commission.StatusRejected},
}

func CanTransitionTo(currentStatus, targetStatus commission.Status) bool {
	allowedStatuses, exists := ValidStatusTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// Order 订单表
// Status / Duration 保留原始字符串，历史数据存在多种写法
type Order struct {
	ID                  int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo             string              `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_no"`
	SalesCode           string              `gorm:"type:varchar(64);index" json:"sales_code"`
	CustomerWechat      string              `gorm:"type:varchar(128)" json:"customer_wechat"`
	Amount              decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"amount"`
	ActualPaymentAmount decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"actual_payment_amount"`
	PaymentMethod       string              `gorm:"type:varchar(32)" json:"payment_method"`
	Status              string              `gorm:"type:varchar(32);index;not null" json:"status"`
	Duration            string              `gorm:"type:varchar(32)" json:"duration"`
	PaymentTime         *time.Time          `json:"payment_time"`
	EffectiveTime       *time.Time          `json:"effective_time"`
	ExpiryTime          *time.Time          `json:"expiry_time"`
	CreatedAt           time.Time           `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}
