package service

import (
	"testing"

	"github.com/ft583086849/zhixing-sub003/internal/commission"
	"github.com/ft583086849/zhixing-sub003/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "wx", DisplayName(" wx ", "name", "P1"))
	assert.Equal(t, "name", DisplayName("", "name", "P1"))
	assert.Equal(t, "P1", DisplayName(" ", "", "P1"))
}

func TestAgentsFromModels(t *testing.T) {
	agents := AgentsFromModels(
		[]*model.PrimarySales{{SalesCode: " P1 ", Name: "Alice"}},
		[]*model.SecondarySales{{SalesCode: "S1", ParentSalesCode: " P1", CommissionRate: decimal.NewNullDecimal(decimal.RequireFromString("0.25"))}},
	)

	require.Len(t, agents, 2)
	assert.Equal(t, commission.Agent{SalesCode: "P1", Tier: commission.TierPrimary, Name: "Alice"}, agents[0])
	assert.Equal(t, "P1", agents[1].ParentCode)
	assert.Equal(t, "S1", agents[1].Name)
	assert.Equal(t, commission.TierSecondary, agents[1].Tier)
}

func TestOrderFromModel(t *testing.T) {
	o := OrderFromModel(&model.Order{
		OrderNo:       "O1",
		SalesCode:     "S1 ",
		Amount:        decimal.NewFromInt(715),
		PaymentMethod: " AliPay",
		Status:        "confirmed_configuration",
		Duration:      "1个月",
	})

	assert.Equal(t, "S1", o.SalesCode)
	assert.Equal(t, "alipay", o.PaymentMethod)
	assert.Equal(t, commission.StatusConfirmed, o.Status)
	assert.Equal(t, commission.DurationOneMonth, o.Duration)
}
