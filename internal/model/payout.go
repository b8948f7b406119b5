package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionPayout 佣金发放流水表
// 记录每一次"标记已发放"，是核对 paid_commission 的依据
//
// 只追加，不修改，不删除；记录发放前后的已发放金额，便于校验一致性
type CommissionPayout struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	PayoutNo   string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"payout_no"`
	RequestID  string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"request_id"` // 幂等键
	SalesCode  string          `gorm:"type:varchar(64);index;not null" json:"sales_code"`
	Tier       string          `gorm:"type:varchar(20);not null" json:"tier"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	PaidBefore decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"paid_before"`
	PaidAfter  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"paid_after"`
	Remark     string          `gorm:"type:varchar(256)" json:"remark"`
	CreatedAt  time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (CommissionPayout) TableName() string {
	return "commission_payout"
}
