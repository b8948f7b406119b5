package commission

import "github.com/shopspring/decimal"

// RateResult 规范化后的佣金率（0-100 百分比）
type RateResult struct {
	Percent   decimal.Decimal
	Defaulted bool // 原值为空，使用了角色默认值
	Clamped   bool // 原值越界，已截断到 [0, 100]
}

// NormalizeRate 将库里存储的佣金率统一为百分比
//
// 空值使用角色默认值；0 是显式的零佣金，不能当作缺省；
// (0, 1] 视为小数乘以 100；大于 1 视为已是百分比。
func (p Policy) NormalizeRate(raw decimal.NullDecimal, tier Tier) RateResult {
	if !raw.Valid {
		def := p.DefaultSecondaryRate
		if tier == TierPrimary {
			def = p.DefaultPrimaryRate
		}
		return RateResult{Percent: def, Defaulted: true}
	}

	percent, clamped := NormalizePercent(raw.Decimal)
	return RateResult{Percent: percent, Clamped: clamped}
}

// NormalizePercent 对非空的原始值做小数/百分比识别并截断到 [0, 100]
func NormalizePercent(raw decimal.Decimal) (decimal.Decimal, bool) {
	v := raw
	if v.IsPositive() && v.LessThanOrEqual(one) {
		v = v.Mul(hundred)
	}

	switch {
	case v.IsNegative():
		return decimal.Zero, true
	case v.GreaterThan(hundred):
		return hundred, true
	}
	return v, false
}
