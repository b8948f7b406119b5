package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ft583086849/zhixing-sub003/internal/commission"
	"github.com/ft583086849/zhixing-sub003/internal/model"
	"github.com/ft583086849/zhixing-sub003/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeTx struct{}

func (fakeTx) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOrders struct {
	mu      sync.Mutex
	orders  []*model.Order
	failN   int // 前 failN 次 ListForSettlement 返回错误
	calls   int
	filters []repository.OrderFilter
}

func (f *fakeOrders) ListForSettlement(ctx context.Context, filter repository.OrderFilter) ([]*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.filters = append(f.filters, filter)
	if f.calls <= f.failN {
		return nil, errors.New("connection reset")
	}
	return f.orders, nil
}

func (f *fakeOrders) GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderNo == orderNo {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (f *fakeOrders) UpdateStatus(ctx context.Context, tx *gorm.DB, orderNo, fromRaw string, to commission.Status) error {
	if !model.CanTransitionTo(commission.ParseStatus(fromRaw), to) {
		return repository.ErrOrderStatusInvalid
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderNo == orderNo && o.Status == fromRaw {
			o.Status = string(to)
			return nil
		}
	}
	return repository.ErrOrderStatusInvalid
}

func (f *fakeOrders) List(ctx context.Context, filter repository.OrderFilter, page, pageSize int) ([]*model.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	var out []*model.Order
	for _, o := range f.orders {
		if filter.SalesCode != "" && o.SalesCode != filter.SalesCode {
			continue
		}
		if filter.Status != "" && commission.ParseStatus(o.Status) != filter.Status {
			continue
		}
		out = append(out, o)
	}
	total := int64(len(out))
	start := (page - 1) * pageSize
	if start >= len(out) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

type fakeSales struct {
	mu          sync.Mutex
	primaries   []*model.PrimarySales
	secondaries []*model.SecondarySales
	// 为 true 时 AddPaidCommission 返回乐观锁冲突
	conflict bool
	// 读完二级销售后执行一次，模拟读取快照期间的并发写
	afterList func()
}

// List 系列返回副本，与数据库查询一样和后续写入互不影响
func (f *fakeSales) ListPrimary(ctx context.Context) ([]*model.PrimarySales, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.PrimarySales, 0, len(f.primaries))
	for _, p := range f.primaries {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeSales) ListSecondary(ctx context.Context) ([]*model.SecondarySales, error) {
	f.mu.Lock()
	hook := f.afterList
	f.afterList = nil
	secondaries := make([]*model.SecondarySales, 0, len(f.secondaries))
	for _, s := range f.secondaries {
		cp := *s
		secondaries = append(secondaries, &cp)
	}
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return secondaries, nil
}

func (f *fakeSales) GetAccount(ctx context.Context, tx *gorm.DB, salesCode string) (*repository.SalesAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.primaries {
		if p.SalesCode == salesCode {
			return &repository.SalesAccount{Tier: commission.TierPrimary, SalesCode: salesCode, PaidCommission: p.PaidCommission, Version: p.Version}, nil
		}
	}
	for _, s := range f.secondaries {
		if s.SalesCode == salesCode {
			return &repository.SalesAccount{Tier: commission.TierSecondary, SalesCode: salesCode, PaidCommission: s.PaidCommission, Version: s.Version}, nil
		}
	}
	return nil, repository.ErrSalesNotFound
}

func (f *fakeSales) AddPaidCommission(ctx context.Context, tx *gorm.DB, account *repository.SalesAccount, amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflict {
		return repository.ErrOptimisticLock
	}
	for _, p := range f.primaries {
		if p.SalesCode == account.SalesCode && p.Version == account.Version {
			p.PaidCommission = p.PaidCommission.Add(amount)
			p.Version++
			return nil
		}
	}
	for _, s := range f.secondaries {
		if s.SalesCode == account.SalesCode && s.Version == account.Version {
			s.PaidCommission = s.PaidCommission.Add(amount)
			s.Version++
			return nil
		}
	}
	return repository.ErrOptimisticLock
}

func (f *fakeSales) UpdateCommissionRate(ctx context.Context, tx *gorm.DB, salesCode string, percent decimal.Decimal) (commission.Tier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.secondaries {
		if s.SalesCode == salesCode {
			s.CommissionRate = decimal.NewNullDecimal(percent)
			return commission.TierSecondary, nil
		}
	}
	return "", repository.ErrSalesNotFound
}

type fakePayouts struct {
	mu      sync.Mutex
	payouts []*model.CommissionPayout
}

func (f *fakePayouts) GetByRequestID(ctx context.Context, requestID string) (*model.CommissionPayout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payouts {
		if p.RequestID == requestID {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePayouts) Create(ctx context.Context, tx *gorm.DB, payout *model.CommissionPayout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payouts = append(f.payouts, payout)
	return nil
}

func (f *fakePayouts) ListBySalesCode(ctx context.Context, salesCode string, page, pageSize int) ([]*model.CommissionPayout, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*model.CommissionPayout
	for i := len(f.payouts) - 1; i >= 0; i-- {
		if f.payouts[i].SalesCode == salesCode {
			matched = append(matched, f.payouts[i])
		}
	}
	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

type fakeOutbox struct {
	mu       sync.Mutex
	messages []*model.OutboxMessage
}

func (f *fakeOutbox) Create(ctx context.Context, tx *gorm.DB, msg *model.OutboxMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

type fakeInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeInvalidator) Invalidate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]interface{}
	gen     int64
	gets    int
	hits    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]interface{})}
}

func (c *memCache) Generation(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *memCache) Key(gen int64, start, end *time.Time) string {
	s, e := "-", "-"
	if start != nil {
		s = start.Format(time.RFC3339)
	}
	if end != nil {
		e = end.Format(time.RFC3339)
	}
	return fmt.Sprintf("report:%d:%s:%s", gen, s, e)
}

func (c *memCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.hits++
	*(dst.(*commission.Report)) = *(v.(*commission.Report))
	return true, nil
}

func (c *memCache) Set(ctx context.Context, key string, v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
	return nil
}

func (c *memCache) Invalidate(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	n := len(c.entries)
	c.entries = make(map[string]interface{})
	return n, nil
}
