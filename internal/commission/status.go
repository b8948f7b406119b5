package commission

import (
	"sort"
	"strings"
)

// Status 订单状态的唯一规范取值
//
// 历史数据中同一状态存在多种写法（confirmed_config / confirmed_configuration / active），
// 只在数据接入层通过 ParseStatus 转换一次，计算逻辑只认这里的枚举。
type Status string

const (
	StatusPendingPayment   Status = "pending_payment"
	StatusConfirmedPayment Status = "confirmed_payment"
	StatusPendingConfig    Status = "pending_config"
	StatusConfirmed        Status = "confirmed"
	StatusRejected         Status = "rejected"
	StatusCancelled        Status = "cancelled"
	StatusUnknown          Status = "unknown"
)

var statusAliases = map[string]Status{
	"pending":                 StatusPendingPayment,
	"pending_payment":         StatusPendingPayment,
	"confirmed_payment":       StatusConfirmedPayment,
	"pending_config":          StatusPendingConfig,
	"pending_configuration":   StatusPendingConfig,
	"confirmed":               StatusConfirmed,
	"confirmed_config":        StatusConfirmed,
	"confirmed_configuration": StatusConfirmed,
	"active":                  StatusConfirmed,
	"rejected":                StatusRejected,
	"cancelled":               StatusCancelled,
	"canceled":                StatusCancelled,
}

// AllStatuses 用于状态分布统计的固定顺序
var AllStatuses = []Status{
	StatusPendingPayment,
	StatusConfirmedPayment,
	StatusPendingConfig,
	StatusConfirmed,
	StatusRejected,
	StatusCancelled,
	StatusUnknown,
}

// ParseStatus 将外部字符串转换为规范状态，无法识别时返回 StatusUnknown
func ParseStatus(raw string) Status {
	key := strings.ToLower(strings.TrimSpace(raw))
	if s, ok := statusAliases[key]; ok {
		return s
	}
	return StatusUnknown
}

func (s Status) IsPending() bool {
	return s == StatusPendingPayment || s == StatusConfirmedPayment || s == StatusPendingConfig
}

// IsExcluded 被拒绝或取消的订单
func (s Status) IsExcluded() bool {
	return s == StatusRejected || s == StatusCancelled
}

// RawStatuses 返回库中可能出现的、归一后等于 s 的全部写法，用于数据库过滤
func RawStatuses(s Status) []string {
	out := []string{}
	for raw, canonical := range statusAliases {
		if canonical == s {
			out = append(out, raw)
		}
	}
	sort.Strings(out)
	return out
}
