package commission

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const PaymentMethodAlipay = "alipay"

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Policy 佣金计算所需的全部业务常量，由配置注入
type Policy struct {
	PrimaryBaseRate      decimal.Decimal // 一级销售链路的佣金上限（百分比）
	RMBPerUSD            decimal.Decimal
	DefaultPrimaryRate   decimal.Decimal
	DefaultSecondaryRate decimal.Decimal
	ConfirmedStatuses    []Status
}

// DefaultPolicy 返回当前线上使用的常量；二级默认佣金率没有统一口径，必须由调用方给出
func DefaultPolicy(defaultSecondaryRate decimal.Decimal) Policy {
	return Policy{
		PrimaryBaseRate:      decimal.NewFromInt(40),
		RMBPerUSD:            decimal.RequireFromString("7.15"),
		DefaultPrimaryRate:   decimal.NewFromInt(40),
		DefaultSecondaryRate: defaultSecondaryRate,
		ConfirmedStatuses:    []Status{StatusConfirmed},
	}
}

func (p Policy) Validate() error {
	if !p.PrimaryBaseRate.IsPositive() || p.PrimaryBaseRate.GreaterThan(hundred) {
		return fmt.Errorf("primary base rate must be in (0, 100], got %s", p.PrimaryBaseRate)
	}
	if !p.RMBPerUSD.IsPositive() {
		return fmt.Errorf("rmb per usd must be positive, got %s", p.RMBPerUSD)
	}
	if p.DefaultPrimaryRate.IsNegative() || p.DefaultPrimaryRate.GreaterThan(hundred) {
		return fmt.Errorf("default primary rate out of range: %s", p.DefaultPrimaryRate)
	}
	if p.DefaultSecondaryRate.IsNegative() || p.DefaultSecondaryRate.GreaterThan(hundred) {
		return fmt.Errorf("default secondary rate out of range: %s", p.DefaultSecondaryRate)
	}
	if len(p.ConfirmedStatuses) == 0 {
		return errors.New("confirmed statuses must not be empty")
	}
	for _, s := range p.ConfirmedStatuses {
		if s == StatusUnknown {
			return errors.New("confirmed statuses contain an unknown status")
		}
	}
	return nil
}

// ToUSD 支付宝金额为人民币，按固定汇率折算；其他支付方式已是美元
func (p Policy) ToUSD(amount decimal.Decimal, paymentMethod string) decimal.Decimal {
	if strings.EqualFold(strings.TrimSpace(paymentMethod), PaymentMethodAlipay) {
		return amount.Div(p.RMBPerUSD)
	}
	return amount
}

// IsConfirmed 订单是否计入佣金结算
func (p Policy) IsConfirmed(s Status) bool {
	for _, c := range p.ConfirmedStatuses {
		if c == s {
			return true
		}
	}
	return false
}
