package service

import (
	"strings"

	"github.com/ft583086849/zhixing-sub003/internal/commission"
	"github.com/ft583086849/zhixing-sub003/internal/model"
)

// 数据接入层：库表记录只在这里转换为计算用的规范结构
// 名称回退、状态别名、时长别名、支付方式大小写都在这里处理一次

// DisplayName 微信名 > 姓名 > 销售码
func DisplayName(wechatName, name, salesCode string) string {
	if s := strings.TrimSpace(wechatName); s != "" {
		return s
	}
	if s := strings.TrimSpace(name); s != "" {
		return s
	}
	return salesCode
}

func AgentsFromModels(primaries []*model.PrimarySales, secondaries []*model.SecondarySales) []commission.Agent {
	agents := make([]commission.Agent, 0, len(primaries)+len(secondaries))
	for _, p := range primaries {
		code := strings.TrimSpace(p.SalesCode)
		agents = append(agents, commission.Agent{
			SalesCode:      code,
			Tier:           commission.TierPrimary,
			Name:           DisplayName(p.WechatName, p.Name, code),
			CommissionRate: p.CommissionRate,
			PaidCommission: p.PaidCommission,
		})
	}
	for _, s := range secondaries {
		code := strings.TrimSpace(s.SalesCode)
		agents = append(agents, commission.Agent{
			SalesCode:      code,
			Tier:           commission.TierSecondary,
			ParentCode:     strings.TrimSpace(s.ParentSalesCode),
			Name:           DisplayName(s.WechatName, s.Name, code),
			CommissionRate: s.CommissionRate,
			PaidCommission: s.PaidCommission,
		})
	}
	return agents
}

func OrderFromModel(o *model.Order) commission.Order {
	return commission.Order{
		OrderNo:             o.OrderNo,
		SalesCode:           strings.TrimSpace(o.SalesCode),
		Amount:              o.Amount,
		ActualPaymentAmount: o.ActualPaymentAmount,
		PaymentMethod:       strings.ToLower(strings.TrimSpace(o.PaymentMethod)),
		Status:              commission.ParseStatus(o.Status),
		Duration:            commission.ParseDuration(o.Duration),
		CreatedAt:           o.CreatedAt,
		PaymentTime:         o.PaymentTime,
		EffectiveTime:       o.EffectiveTime,
		ExpiryTime:          o.ExpiryTime,
	}
}

func OrdersFromModels(orders []*model.Order) []commission.Order {
	out := make([]commission.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderFromModel(o))
	}
	return out
}
