package job

import (
	"context"
	"sync"
	"time"

	"github.com/ft583086849/zhixing-sub003/internal/commission"

	"go.uber.org/zap"
)

type ReportRefresher interface {
	Refresh(ctx context.Context) (*commission.Report, error)
}

// SettlementRefreshJob 定时重算全量报表并预热缓存，同时把数据问题打到日志里
type SettlementRefreshJob struct {
	refresher ReportRefresher
	log       *zap.Logger
	stopCh    chan struct{}
	stopOnce  sync.Once
	interval  time.Duration
}

func NewSettlementRefreshJob(refresher ReportRefresher, interval time.Duration, log *zap.Logger) *SettlementRefreshJob {
	return &SettlementRefreshJob{
		refresher: refresher,
		log:       log.Named("settlement_refresh"),
		stopCh:    make(chan struct{}),
		interval:  interval,
	}
}

func (j *SettlementRefreshJob) Start(ctx context.Context) {
	j.log.Info("结算报表刷新任务启动", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			j.log.Info("收到停止信号，任务退出")
			return
		case <-j.stopCh:
			j.log.Info("任务停止")
			return
		case <-ticker.C:
			j.refresh(ctx)
		}
	}
}

func (j *SettlementRefreshJob) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
}

func (j *SettlementRefreshJob) refresh(ctx context.Context) {
	report, err := j.refresher.Refresh(ctx)
	if err != nil {
		j.log.Error("刷新结算报表失败", zap.Error(err))
		return
	}

	counts := make(map[commission.DiagnosticKind]int)
	for _, d := range report.Diagnostics {
		counts[d.Kind]++
	}

	for kind, n := range counts {
		j.log.Warn("结算数据存在问题", zap.String("kind", string(kind)), zap.Int("count", n))
	}
}
