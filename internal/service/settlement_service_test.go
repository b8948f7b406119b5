package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ft583086849/zhixing-sub003/internal/commission"
	"github.com/ft583086849/zhixing-sub003/internal/model"
	"github.com/ft583086849/zhixing-sub003/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testCalculator() *commission.Calculator {
	return commission.NewCalculator(commission.DefaultPolicy(decimal.NewFromInt(25)))
}

func sampleSales() *fakeSales {
	return &fakeSales{
		primaries: []*model.PrimarySales{
			{SalesCode: "P1", WechatName: "primary"},
		},
		secondaries: []*model.SecondarySales{
			{SalesCode: "S1", ParentSalesCode: "P1", CommissionRate: decimal.NewNullDecimal(decimal.NewFromInt(25))},
			{SalesCode: "S2", CommissionRate: decimal.NewNullDecimal(decimal.RequireFromString("0.3"))},
		},
	}
}

func sampleOrderRows() []*model.Order {
	return []*model.Order{
		{OrderNo: "O1", SalesCode: "S1", Amount: decimal.NewFromInt(1000), PaymentMethod: "alipay", Status: "confirmed_config", Duration: "1个月"},
		{OrderNo: "O2", SalesCode: "P1", Amount: decimal.NewFromInt(200), PaymentMethod: "crypto", Status: "active", Duration: "1年"},
		{OrderNo: "O3", SalesCode: "S2", Amount: decimal.NewFromInt(100), PaymentMethod: "crypto", Status: "pending", Duration: "7天"},
		{OrderNo: "O4", SalesCode: "NOBODY", Amount: decimal.NewFromInt(100), PaymentMethod: "crypto", Status: "confirmed"},
	}
}

func newSettlement(t *testing.T, orders *fakeOrders, cache ReportCache) *SettlementService {
	return newSettlementWith(t, orders, sampleSales(), cache)
}

func newSettlementWith(t *testing.T, orders *fakeOrders, sales *fakeSales, cache ReportCache) *SettlementService {
	return NewSettlementService(orders, sales, cache, testCalculator(), FetchOptions{
		Timeout:       time.Second,
		MaxRetries:    3,
		RetryInterval: time.Millisecond,
	}, zaptest.NewLogger(t))
}

func TestGetReport(t *testing.T) {
	svc := newSettlement(t, &fakeOrders{orders: sampleOrderRows()}, nil)

	report, err := svc.GetReport(context.Background(), ReportFilter{})
	require.NoError(t, err)

	assert.Equal(t, 4, report.Global.TotalOrders)
	assert.Equal(t, 3, report.Global.ConfirmedOrders)
	assert.Equal(t, 1, report.Global.UnattributedOrders)
	assert.InDelta(t, 100.98, report.Summaries["P1"].TotalCommission.InexactFloat64(), 0.01)
	assert.Equal(t, "primary", report.Summaries["P1"].Name)
	assert.True(t, report.Summaries["S2"].TotalCommission.IsZero())
}

func TestGetReport_UsesCache(t *testing.T) {
	orders := &fakeOrders{orders: sampleOrderRows()}
	cache := newMemCache()
	svc := newSettlement(t, orders, cache)
	ctx := context.Background()

	_, err := svc.GetReport(ctx, ReportFilter{})
	require.NoError(t, err)
	_, err = svc.GetReport(ctx, ReportFilter{})
	require.NoError(t, err)

	assert.Equal(t, 1, orders.calls)
	assert.Equal(t, 1, cache.hits)

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.GetReport(ctx, ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, orders.calls)
}

func TestGetReport_FilterIsPassedDown(t *testing.T) {
	orders := &fakeOrders{orders: sampleOrderRows()}
	svc := newSettlement(t, orders, newMemCache())

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.GetReport(context.Background(), ReportFilter{Start: &start})
	require.NoError(t, err)

	require.Len(t, orders.filters, 1)
	assert.Equal(t, &start, orders.filters[0].Start)
	assert.Nil(t, orders.filters[0].End)
}

func TestGetReport_RetriesTransientErrors(t *testing.T) {
	orders := &fakeOrders{orders: sampleOrderRows(), failN: 2}
	svc := newSettlement(t, orders, nil)

	report, err := svc.GetReport(context.Background(), ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, orders.calls)
	assert.Equal(t, 4, report.Global.TotalOrders)
}

func TestGetReport_GivesUpAfterMaxRetries(t *testing.T) {
	orders := &fakeOrders{orders: sampleOrderRows(), failN: 10}
	svc := newSettlement(t, orders, nil)

	_, err := svc.GetReport(context.Background(), ReportFilter{})
	require.Error(t, err)
	assert.Equal(t, 3, orders.calls)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGetAgentSettlement(t *testing.T) {
	svc := newSettlement(t, &fakeOrders{orders: sampleOrderRows()}, nil)
	ctx := context.Background()

	agent, err := svc.GetAgentSettlement(ctx, "P1", ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, "P1", agent.Summary.SalesCode)
	require.Len(t, agent.Records, 2)
	assert.Empty(t, agent.Diagnostics)

	_, err = svc.GetAgentSettlement(ctx, "NOBODY", ReportFilter{})
	assert.True(t, errors.Is(err, repository.ErrSalesNotFound))
}

func TestGetStats(t *testing.T) {
	svc := newSettlement(t, &fakeOrders{orders: sampleOrderRows()}, nil)

	stats, err := svc.GetStats(context.Background(), ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.StatusCounts[commission.StatusPendingPayment])
	assert.Equal(t, 3, stats.StatusCounts[commission.StatusConfirmed])
	assert.Equal(t, 1, stats.DurationCounts[commission.DurationTrial])
	assert.Equal(t, 1, stats.DurationCounts[commission.DurationUnknown])
}

func TestRefresh(t *testing.T) {
	cache := newMemCache()
	svc := newSettlement(t, &fakeOrders{orders: sampleOrderRows()}, cache)

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Contains(t, cache.entries, cache.Key(0, nil, nil))
}

func TestGetReport_WriteDuringComputeIsNotCached(t *testing.T) {
	sales := sampleSales()
	cache := newMemCache()
	svc := newSettlementWith(t, &fakeOrders{orders: sampleOrderRows()}, sales, cache)
	ctx := context.Background()

	// 快照已读到一级销售之后，发放提交并清除缓存
	sales.afterList = func() {
		sales.mu.Lock()
		sales.primaries[0].PaidCommission = decimal.NewFromInt(100)
		sales.mu.Unlock()
		require.NoError(t, svc.Invalidate(ctx))
	}

	first, err := svc.GetReport(ctx, ReportFilter{})
	require.NoError(t, err)
	assert.True(t, first.Summaries["P1"].PaidCommission.IsZero())
	assert.Empty(t, cache.entries)

	second, err := svc.GetReport(ctx, ReportFilter{})
	require.NoError(t, err)
	assert.True(t, second.Summaries["P1"].PaidCommission.Equal(decimal.NewFromInt(100)), second.Summaries["P1"].PaidCommission.String())
	assert.Contains(t, cache.entries, cache.Key(1, nil, nil))
}
