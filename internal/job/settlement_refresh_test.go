package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ft583086849/zhixing-sub003/internal/commission"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type countingRefresher struct {
	calls  int32
	report *commission.Report
	err    error
}

func (r *countingRefresher) Refresh(ctx context.Context) (*commission.Report, error) {
	atomic.AddInt32(&r.calls, 1)
	return r.report, r.err
}

func TestSettlementRefreshJob_LogsDiagnostics(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := &countingRefresher{report: &commission.Report{Diagnostics: []commission.Diagnostic{
		{Kind: commission.DiagnosticUnknownSalesCode, OrderNo: "O1"},
		{Kind: commission.DiagnosticUnknownSalesCode, OrderNo: "O2"},
		{Kind: commission.DiagnosticNegativeOverride, OrderNo: "O3"},
	}}}
	j := NewSettlementRefreshJob(r, time.Hour, zap.New(core))

	j.refresh(context.Background())

	warns := logs.FilterMessage("结算数据存在问题").All()
	assert.Len(t, warns, 2)
	for _, w := range warns {
		fields := w.ContextMap()
		if fields["kind"] == string(commission.DiagnosticUnknownSalesCode) {
			assert.EqualValues(t, 2, fields["count"])
		}
	}
}

func TestSettlementRefreshJob_RefreshError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := &countingRefresher{err: errors.New("db down")}
	j := NewSettlementRefreshJob(r, time.Hour, zap.New(core))

	j.refresh(context.Background())
	assert.Equal(t, 1, logs.FilterMessage("刷新结算报表失败").Len())
}

func TestSettlementRefreshJob_RunsOnStartAndTicks(t *testing.T) {
	r := &countingRefresher{report: &commission.Report{}}
	j := NewSettlementRefreshJob(r, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&r.calls) >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
