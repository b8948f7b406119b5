package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ft583086849/zhixing-sub003/internal/commission"
	"github.com/ft583086849/zhixing-sub003/internal/model"
	"github.com/ft583086849/zhixing-sub003/internal/repository"
	"github.com/ft583086849/zhixing-sub003/pkg/idgen"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SalesStore interface {
	GetAccount(ctx context.Context, tx *gorm.DB, salesCode string) (*repository.SalesAccount, error)
	AddPaidCommission(ctx context.Context, tx *gorm.DB, account *repository.SalesAccount, amount decimal.Decimal) error
	UpdateCommissionRate(ctx context.Context, tx *gorm.DB, salesCode string, percent decimal.Decimal) (commission.Tier, error)
}

type PayoutStore interface {
	GetByRequestID(ctx context.Context, requestID string) (*model.CommissionPayout, error)
	Create(ctx context.Context, tx *gorm.DB, payout *model.CommissionPayout) error
	ListBySalesCode(ctx context.Context, salesCode string, page, pageSize int) ([]*model.CommissionPayout, int64, error)
}

type OutboxWriter interface {
	Create(ctx context.Context, tx *gorm.DB, msg *model.OutboxMessage) error
}

type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Invalidator 数据变更后清除报表缓存
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Locker interface {
	Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error
	Unlock(ctx context.Context) error
}

const unlockTimeout = 3 * time.Second

// LockFactory 按销售码和请求ID创建发放锁
type LockFactory func(salesCode, requestID string) Locker

type SalesService struct {
	tx          Transactor
	sales       SalesStore
	payouts     PayoutStore
	outbox      OutboxWriter
	invalidator Invalidator
	newLock     LockFactory
	payoutTopic string
	log         *zap.Logger
}

func NewSalesService(tx Transactor, sales SalesStore, payouts PayoutStore, outbox OutboxWriter, invalidator Invalidator, newLock LockFactory, payoutTopic string, log *zap.Logger) *SalesService {
	return &SalesService{
		tx:          tx,
		sales:       sales,
		payouts:     payouts,
		outbox:      outbox,
		invalidator: invalidator,
		newLock:     newLock,
		payoutTopic: payoutTopic,
		log:         log.Named("sales"),
	}
}

type RateUpdateResult struct {
	SalesCode      string          `json:"sales_code"`
	Tier           commission.Tier `json:"tier"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

// UpdateCommissionRate 接受 0.25 或 25 两种写法，统一以百分比入库
// 只允许修改二级销售，一级销售按基准费率结算
func (s *SalesService) UpdateCommissionRate(ctx context.Context, salesCode string, raw decimal.Decimal) (*RateUpdateResult, error) {
	percent, clamped := commission.NormalizePercent(raw)
	if clamped {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRate, raw)
	}

	account, err := s.sales.GetAccount(ctx, nil, salesCode)
	if err != nil {
		return nil, err
	}
	if account.Tier == commission.TierPrimary {
		return nil, fmt.Errorf("%w: %s", ErrPrimaryRateFixed, salesCode)
	}

	tier, err := s.sales.UpdateCommissionRate(ctx, nil, salesCode, percent)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info("佣金率已更新", zap.String("sales_code", salesCode), zap.String("tier", string(tier)), zap.String("rate", percent.String()))

	return &RateUpdateResult{SalesCode: salesCode, Tier: tier, CommissionRate: percent}, nil
}

type PayoutRequest struct {
	RequestID string
	SalesCode string
	Amount    decimal.Decimal
	Remark    string
}

type PayoutResult struct {
	PayoutNo       string          `json:"payout_no"`
	SalesCode      string          `json:"sales_code"`
	Amount         decimal.Decimal `json:"amount"`
	PaidCommission decimal.Decimal `json:"paid_commission"`
	Message        string          `json:"message,omitempty"`
}

func payoutResult(p *model.CommissionPayout, message string) *PayoutResult {
	return &PayoutResult{
		PayoutNo:       p.PayoutNo,
		SalesCode:      p.SalesCode,
		Amount:         p.Amount,
		PaidCommission: p.PaidAfter,
		Message:        message,
	}
}

// RecordPayout 标记佣金已发放
//
// 同一个 request_id 只会生效一次；同一个销售的发放串行执行。
// 已发放金额、发放流水和消息在同一个事务中写入。
func (s *SalesService) RecordPayout(ctx context.Context, req *PayoutRequest) (*PayoutResult, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	// 幂等校验
	existing, err := s.payouts.GetByRequestID(ctx, req.RequestID)
	if err != nil {
		return nil, fmt.Errorf("查询发放记录失败: %w", err)
	}
	if existing != nil {
		return payoutResult(existing, "发放记录已存在"), nil
	}

	payoutLock := s.newLock(req.SalesCode, req.RequestID)
	if err := payoutLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSystemBusy, err)
	}
	defer func() {
		// 请求取消后也要释放锁
		unlockCtx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()
		if err := payoutLock.Unlock(unlockCtx); err != nil {
			s.log.Warn("释放发放锁失败", zap.String("sales_code", req.SalesCode), zap.Error(err))
		}
	}()

	// 获取锁后再次检查幂等
	existing, err = s.payouts.GetByRequestID(ctx, req.RequestID)
	if err != nil {
		return nil, fmt.Errorf("查询发放记录失败: %w", err)
	}
	if existing != nil {
		return payoutResult(existing, "发放记录已存在"), nil
	}

	var payout *model.CommissionPayout
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		account, err := s.sales.GetAccount(ctx, tx, req.SalesCode)
		if err != nil {
			return err
		}

		if err := s.sales.AddPaidCommission(ctx, tx, account, req.Amount); err != nil {
			if errors.Is(err, repository.ErrOptimisticLock) {
				return ErrSystemBusy
			}
			return fmt.Errorf("更新已发放佣金失败: %w", err)
		}

		payout = &model.CommissionPayout{
			PayoutNo:   idgen.GeneratePayoutNo(),
			RequestID:  req.RequestID,
			SalesCode:  account.SalesCode,
			Tier:       string(account.Tier),
			Amount:     req.Amount,
			PaidBefore: account.PaidCommission,
			PaidAfter:  account.PaidCommission.Add(req.Amount),
			Remark:     req.Remark,
		}
		if err := s.payouts.Create(ctx, tx, payout); err != nil {
			return fmt.Errorf("记录发放流水失败: %w", err)
		}

		msg, err := model.NewOutboxMessage(s.payoutTopic, idgen.GenerateEventKey(account.SalesCode), model.EventCommissionPaid, map[string]interface{}{
			"payout_no":   payout.PayoutNo,
			"sales_code":  payout.SalesCode,
			"tier":        payout.Tier,
			"amount":      payout.Amount,
			"paid_before": payout.PaidBefore,
			"paid_after":  payout.PaidAfter,
			"paid_at":     time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
		if err := s.outbox.Create(ctx, tx, msg); err != nil {
			return fmt.Errorf("写入消息失败: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info("佣金发放成功",
		zap.String("payout_no", payout.PayoutNo),
		zap.String("sales_code", payout.SalesCode),
		zap.String("amount", payout.Amount.String()),
	)

	return payoutResult(payout, "发放成功"), nil
}

// ListPayouts 销售的发放流水，最新的在前
func (s *SalesService) ListPayouts(ctx context.Context, salesCode string, page, pageSize int) ([]*model.CommissionPayout, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	if _, err := s.sales.GetAccount(ctx, nil, salesCode); err != nil {
		return nil, 0, err
	}
	return s.payouts.ListBySalesCode(ctx, salesCode, page, pageSize)
}

func (s *SalesService) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.log.Warn("清除报表缓存失败", zap.Error(err))
	}
}
