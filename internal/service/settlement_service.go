package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ft583086849/zhixing-sub003/internal/commission"
	"github.com/ft583086849/zhixing-sub003/internal/model"
	"github.com/ft583086849/zhixing-sub003/internal/repository"

	"go.uber.org/zap"
)

type OrderReader interface {
	ListForSettlement(ctx context.Context, filter repository.OrderFilter) ([]*model.Order, error)
}

type SalesReader interface {
	ListPrimary(ctx context.Context) ([]*model.PrimarySales, error)
	ListSecondary(ctx context.Context) ([]*model.SecondarySales, error)
}

type ReportCache interface {
	Generation(ctx context.Context) (int64, error)
	Key(gen int64, start, end *time.Time) string
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, v interface{}) error
	Invalidate(ctx context.Context) (int, error)
}

// FetchOptions 读取快照的超时与重试
type FetchOptions struct {
	Timeout       time.Duration // 单次尝试的超时
	MaxRetries    int
	RetryInterval time.Duration
}

// ReportFilter 按订单创建时间过滤，左闭右开
type ReportFilter struct {
	Start *time.Time
	End   *time.Time
}

// AgentSettlement 单个销售的对账视图
type AgentSettlement struct {
	Summary     *commission.Summary     `json:"summary"`
	Records     []commission.Record     `json:"records"`
	Diagnostics []commission.Diagnostic `json:"diagnostics"`
}

type SettlementService struct {
	orders OrderReader
	sales  SalesReader
	cache  ReportCache
	calc   *commission.Calculator
	fetch  FetchOptions
	log    *zap.Logger
}

// NewSettlementService cache 可以为 nil，此时每次请求都重新计算
func NewSettlementService(orders OrderReader, sales SalesReader, cache ReportCache, calc *commission.Calculator, fetch FetchOptions, log *zap.Logger) *SettlementService {
	if fetch.MaxRetries < 1 {
		fetch.MaxRetries = 1
	}
	return &SettlementService{
		orders: orders,
		sales:  sales,
		cache:  cache,
		calc:   calc,
		fetch:  fetch,
		log:    log.Named("settlement"),
	}
}

// GetReport 先读缓存，未命中时读取快照并计算
func (s *SettlementService) GetReport(ctx context.Context, filter ReportFilter) (*commission.Report, error) {
	if s.cache == nil {
		return s.compute(ctx, filter)
	}

	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.log.Warn("读取缓存代数失败，跳过缓存", zap.Error(err))
		return s.compute(ctx, filter)
	}

	key := s.cache.Key(gen, filter.Start, filter.End)
	var cached commission.Report
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("读取报表缓存失败", zap.String("key", key), zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	report, err := s.compute(ctx, filter)
	if err != nil {
		return nil, err
	}

	if err := s.store(ctx, gen, key, report); err != nil {
		s.log.Warn("写入报表缓存失败", zap.String("key", key), zap.Error(err))
	}
	return report, nil
}

// Refresh 重新计算全量报表并覆盖缓存
func (s *SettlementService) Refresh(ctx context.Context) (*commission.Report, error) {
	if s.cache == nil {
		return s.compute(ctx, ReportFilter{})
	}

	gen, err := s.cache.Generation(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取缓存代数失败: %w", err)
	}

	report, err := s.compute(ctx, ReportFilter{})
	if err != nil {
		return nil, err
	}
	if err := s.store(ctx, gen, s.cache.Key(gen, nil, nil), report); err != nil {
		return report, fmt.Errorf("写入报表缓存失败: %w", err)
	}
	return report, nil
}

// store 计算期间发生过失效时不写入，报表基于的快照可能早于那次写操作
func (s *SettlementService) store(ctx context.Context, gen int64, key string, report *commission.Report) error {
	current, err := s.cache.Generation(ctx)
	if err != nil {
		return err
	}
	if current != gen {
		s.log.Debug("计算期间缓存已失效，放弃写入", zap.String("key", key), zap.Int64("gen", gen), zap.Int64("current", current))
		return nil
	}
	return s.cache.Set(ctx, key, report)
}

func (s *SettlementService) GetAgentSettlement(ctx context.Context, salesCode string, filter ReportFilter) (*AgentSettlement, error) {
	report, err := s.GetReport(ctx, filter)
	if err != nil {
		return nil, err
	}

	summary, ok := report.Summaries[salesCode]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrSalesNotFound, salesCode)
	}

	diags := []commission.Diagnostic{}
	for _, d := range report.Diagnostics {
		if d.SalesCode == salesCode {
			diags = append(diags, d)
		}
	}

	return &AgentSettlement{
		Summary:     summary,
		Records:     report.RecordsFor(salesCode),
		Diagnostics: diags,
	}, nil
}

func (s *SettlementService) GetStats(ctx context.Context, filter ReportFilter) (*commission.GlobalStats, error) {
	report, err := s.GetReport(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &report.Global, nil
}

// Invalidate 任何订单、佣金率、发放变更之后调用
func (s *SettlementService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	n, err := s.cache.Invalidate(ctx)
	if err != nil {
		return err
	}
	s.log.Debug("报表缓存已清除", zap.Int("keys", n))
	return nil
}

func (s *SettlementService) compute(ctx context.Context, filter ReportFilter) (*commission.Report, error) {
	orders, agents, err := s.fetchSnapshot(ctx, filter)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	report := s.calc.Aggregate(OrdersFromModels(orders), agents)

	s.log.Info("结算报表计算完成",
		zap.Int("orders", report.Global.TotalOrders),
		zap.Int("agents", len(report.Summaries)),
		zap.Int("diagnostics", len(report.Diagnostics)),
		zap.Duration("cost", time.Since(start)),
	)
	return report, nil
}

// fetchSnapshot 读取订单与销售两张表，任一失败时整体重试
func (s *SettlementService) fetchSnapshot(ctx context.Context, filter ReportFilter) ([]*model.Order, []commission.Agent, error) {
	var (
		orders      []*model.Order
		primaries   []*model.PrimarySales
		secondaries []*model.SecondarySales
	)

	err := s.retry(ctx, func(ctx context.Context) error {
		var err error
		if orders, err = s.orders.ListForSettlement(ctx, repository.OrderFilter{Start: filter.Start, End: filter.End}); err != nil {
			return fmt.Errorf("查询订单失败: %w", err)
		}
		if primaries, err = s.sales.ListPrimary(ctx); err != nil {
			return fmt.Errorf("查询一级销售失败: %w", err)
		}
		if secondaries, err = s.sales.ListSecondary(ctx); err != nil {
			return fmt.Errorf("查询二级销售失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return orders, AgentsFromModels(primaries, secondaries), nil
}

func (s *SettlementService) retry(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for i := 0; i < s.fetch.MaxRetries; i++ {
		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if s.fetch.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, s.fetch.Timeout)
		}
		lastErr = fn(attemptCtx)
		cancel()
		if lastErr == nil {
			return nil
		}

		s.log.Warn("读取结算数据失败", zap.Int("attempt", i+1), zap.Error(lastErr))

		if i == s.fetch.MaxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.fetch.RetryInterval):
		}
	}
	return fmt.Errorf("读取结算数据失败，已重试 %d 次: %w", s.fetch.MaxRetries, lastErr)
}
