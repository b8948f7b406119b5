package commission

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Calculator 佣金计算器，无状态，可并发使用
type Calculator struct {
	policy Policy
}

func NewCalculator(policy Policy) *Calculator {
	return &Calculator{policy: policy}
}

func (c *Calculator) Policy() Policy {
	return c.policy
}

// BasisUSD 订单的计佣金额（美元）：有实付金额时以实付为准，否则取标价
func (c *Calculator) BasisUSD(o Order) decimal.Decimal {
	return c.policy.ToUSD(basisAmount(o), o.PaymentMethod)
}

func basisAmount(o Order) decimal.Decimal {
	if o.ActualPaymentAmount.Valid {
		return o.ActualPaymentAmount.Decimal
	}
	return o.Amount
}

// ComputeOrderCommission 计算单笔订单在销售链路上的佣金记录
//
// 非确认状态的订单不产生佣金。一级销售直接成交按 PrimaryBaseRate 计佣；
// 独立二级按自身佣金率计佣；挂靠二级按自身佣金率计佣，其上级一级销售获得
// (PrimaryBaseRate - 二级佣金率) 的差额，差额为负时记 0。
func (c *Calculator) ComputeOrderCommission(o Order, res Resolution) ([]Record, []Diagnostic) {
	if !c.policy.IsConfirmed(o.Status) {
		return nil, nil
	}

	var diags []Diagnostic

	basis := basisAmount(o)
	if basis.IsNegative() {
		return nil, []Diagnostic{{
			Kind:      DiagnosticInvalidAmount,
			OrderNo:   o.OrderNo,
			SalesCode: o.SalesCode,
			Detail:    fmt.Sprintf("negative amount %s", basis),
		}}
	}
	usd := c.policy.ToUSD(basis, o.PaymentMethod)

	if res.DanglingParent != "" {
		diags = append(diags, Diagnostic{
			Kind:      DiagnosticDanglingParent,
			OrderNo:   o.OrderNo,
			SalesCode: res.Agent.SalesCode,
			Detail:    fmt.Sprintf("parent %q is not a primary agent, settled as independent", res.DanglingParent),
		})
	}

	if res.Role == RolePrimary {
		base := c.policy.PrimaryBaseRate
		return []Record{newRecord(o.OrderNo, res.Agent.SalesCode, RecordRoleDirect, base, usd)}, diags
	}

	rate := c.policy.NormalizeRate(res.Agent.CommissionRate, TierSecondary)
	if rate.Clamped {
		diags = append(diags, Diagnostic{
			Kind:      DiagnosticInvalidRate,
			OrderNo:   o.OrderNo,
			SalesCode: res.Agent.SalesCode,
			Detail:    fmt.Sprintf("rate %s clamped to %s", res.Agent.CommissionRate.Decimal, rate.Percent),
		})
	}

	records := []Record{newRecord(o.OrderNo, res.Agent.SalesCode, RecordRoleDirect, rate.Percent, usd)}

	if res.Role != RoleSecondaryLinked || res.Parent == nil {
		return records, diags
	}

	spread := c.policy.PrimaryBaseRate.Sub(rate.Percent)
	if spread.IsNegative() {
		diags = append(diags, Diagnostic{
			Kind:      DiagnosticNegativeOverride,
			OrderNo:   o.OrderNo,
			SalesCode: res.Parent.SalesCode,
			Detail: fmt.Sprintf("secondary %s rate %s exceeds base rate %s, override clamped to 0",
				res.Agent.SalesCode, rate.Percent, c.policy.PrimaryBaseRate),
		})
		spread = decimal.Zero
	}
	records = append(records, newRecord(o.OrderNo, res.Parent.SalesCode, RecordRoleOverride, spread, usd))

	return records, diags
}

func newRecord(orderNo, salesCode string, role RecordRole, rate, usd decimal.Decimal) Record {
	return Record{
		OrderNo:          orderNo,
		AgentSalesCode:   salesCode,
		RoleInOrder:      role,
		RateApplied:      rate,
		AmountUSD:        usd,
		CommissionAmount: usd.Mul(rate).Div(hundred),
	}
}
