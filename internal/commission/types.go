package commission

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tier 销售所在的表（一级销售表 / 二级销售表）
type Tier string

const (
	TierPrimary   Tier = "primary"
	TierSecondary Tier = "secondary"
)

// Role 销售在层级中的角色，由 Resolver 推导
type Role string

const (
	RolePrimary              Role = "primary"
	RoleSecondaryLinked      Role = "secondary_linked"
	RoleSecondaryIndependent Role = "secondary_independent"
)

// Agent 规范化后的销售
//
// CommissionRate 为原始配置值（可能是小数 0.25，也可能是百分比 25，也可能为空），
// 计算前统一经过 Policy.NormalizeRate。
type Agent struct {
	SalesCode      string
	Tier           Tier
	ParentCode     string
	Name           string
	CommissionRate decimal.NullDecimal
	PaidCommission decimal.Decimal
}

// Order 规范化后的订单，状态与时长已经在数据接入层转换为枚举
type Order struct {
	OrderNo             string
	SalesCode           string
	Amount              decimal.Decimal
	ActualPaymentAmount decimal.NullDecimal
	PaymentMethod       string
	Status              Status
	Duration            Duration
	CreatedAt           time.Time
	PaymentTime         *time.Time
	EffectiveTime       *time.Time
	ExpiryTime          *time.Time
}

// RecordRole 佣金记录中收款方的角色
type RecordRole string

const (
	RecordRoleDirect   RecordRole = "direct"
	RecordRoleOverride RecordRole = "override"
)

// Record 单笔订单对单个销售的佣金
type Record struct {
	OrderNo          string          `json:"order_no"`
	AgentSalesCode   string          `json:"agent_sales_code"`
	RoleInOrder      RecordRole      `json:"role_in_order"`
	RateApplied      decimal.Decimal `json:"rate_applied"`
	AmountUSD        decimal.Decimal `json:"amount_usd"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
}

// DiagnosticKind 数据问题分类
type DiagnosticKind string

const (
	DiagnosticUnknownSalesCode DiagnosticKind = "unknown_sales_code"
	DiagnosticInvalidRate      DiagnosticKind = "invalid_rate"
	DiagnosticNegativeOverride DiagnosticKind = "negative_override"
	DiagnosticDanglingParent   DiagnosticKind = "dangling_parent"
	DiagnosticInvalidAmount    DiagnosticKind = "invalid_amount"
)

// Diagnostic 计算过程中发现的数据问题，不会中断整体汇总
type Diagnostic struct {
	Kind      DiagnosticKind `json:"kind"`
	OrderNo   string         `json:"order_no,omitempty"`
	SalesCode string         `json:"sales_code,omitempty"`
	Detail    string         `json:"detail"`
}
