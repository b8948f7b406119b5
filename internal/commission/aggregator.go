package commission

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

// Summary 单个销售的结算汇总
//
// TeamOrders / TeamVolumeUSD 只用于一级销售的看板展示（自身 + 挂靠二级的成交），
// 不参与任何佣金合计，避免重复计算。
type Summary struct {
	SalesCode          string          `json:"sales_code"`
	Name               string          `json:"name"`
	Role               Role            `json:"role"`
	ParentCode         string          `json:"parent_sales_code,omitempty"`
	CommissionRate     decimal.Decimal `json:"commission_rate"`
	TotalOrders        int             `json:"total_orders"`
	TotalAmountUSD     decimal.Decimal `json:"total_amount_usd"`
	DirectCommission   decimal.Decimal `json:"direct_commission"`
	OverrideCommission decimal.Decimal `json:"override_commission"`
	TotalCommission    decimal.Decimal `json:"total_commission"`
	PaidCommission     decimal.Decimal `json:"paid_commission"`
	PendingCommission  decimal.Decimal `json:"pending_commission"`
	TeamOrders         int             `json:"team_orders"`
	TeamVolumeUSD      decimal.Decimal `json:"team_volume_usd"`
}

// GlobalStats 全局统计
type GlobalStats struct {
	TotalOrders        int                          `json:"total_orders"`
	ConfirmedOrders    int                          `json:"confirmed_orders"`
	UnattributedOrders int                          `json:"unattributed_orders"`
	StatusCounts       map[Status]int               `json:"status_counts"`
	DurationCounts     map[Duration]int             `json:"duration_counts"`
	DurationPercent    map[Duration]decimal.Decimal `json:"duration_percent"`
	ConfirmedAmountUSD decimal.Decimal              `json:"confirmed_amount_usd"`
	DirectCommission   decimal.Decimal              `json:"direct_commission"`
	OverrideCommission decimal.Decimal              `json:"override_commission"`
	TotalCommission    decimal.Decimal              `json:"total_commission"`
	PaidCommission     decimal.Decimal              `json:"paid_commission"`
	PendingCommission  decimal.Decimal              `json:"pending_commission"`
}

// Report 一次结算计算的完整输出
type Report struct {
	Summaries   map[string]*Summary `json:"summaries"`
	Records     []Record            `json:"records"`
	Global      GlobalStats         `json:"global"`
	Diagnostics []Diagnostic        `json:"diagnostics"`
}

// Aggregate 对订单与销售快照做一次完整的结算汇总
//
// 单条数据异常只影响自身，不会中断整体计算：无法归属的订单不进入任何销售的汇总，
// 但计入订单总量并出现在 Diagnostics 中。
func (c *Calculator) Aggregate(orders []Order, agents []Agent) *Report {
	resolver := NewResolver(agents)

	report := &Report{
		Summaries:   make(map[string]*Summary),
		Records:     []Record{},
		Diagnostics: []Diagnostic{},
		Global: GlobalStats{
			StatusCounts:    make(map[Status]int),
			DurationCounts:  make(map[Duration]int),
			DurationPercent: make(map[Duration]decimal.Decimal),
		},
	}

	for _, a := range agents {
		res, err := resolver.Resolve(a.SalesCode)
		if err != nil {
			continue
		}
		code := res.Agent.SalesCode
		if _, ok := report.Summaries[code]; ok {
			continue
		}
		report.Summaries[code] = c.newSummary(res)
	}

	// 一级销售名下挂靠二级的成交，单独累计，最后并入 Team 字段
	downstreamOrders := make(map[string]int)
	downstreamVolume := make(map[string]decimal.Decimal)

	g := &report.Global
	for _, o := range orders {
		g.TotalOrders++
		g.StatusCounts[o.Status]++
		g.DurationCounts[o.Duration]++

		confirmed := c.policy.IsConfirmed(o.Status)
		if confirmed {
			g.ConfirmedOrders++
			if amount := basisAmount(o); !amount.IsNegative() {
				g.ConfirmedAmountUSD = g.ConfirmedAmountUSD.Add(c.policy.ToUSD(amount, o.PaymentMethod))
			}
		}

		res, err := resolver.Resolve(o.SalesCode)
		if err != nil {
			if errors.Is(err, ErrUnknownSalesCode) {
				g.UnattributedOrders++
				report.Diagnostics = append(report.Diagnostics, Diagnostic{
					Kind:      DiagnosticUnknownSalesCode,
					OrderNo:   o.OrderNo,
					SalesCode: o.SalesCode,
					Detail:    err.Error(),
				})
			}
			continue
		}
		if !confirmed {
			continue
		}

		records, diags := c.ComputeOrderCommission(o, res)
		report.Diagnostics = append(report.Diagnostics, diags...)

		for _, r := range records {
			report.Records = append(report.Records, r)
			s := report.Summaries[r.AgentSalesCode]
			if s == nil {
				continue
			}
			switch r.RoleInOrder {
			case RecordRoleDirect:
				s.TotalOrders++
				s.TotalAmountUSD = s.TotalAmountUSD.Add(r.AmountUSD)
				s.DirectCommission = s.DirectCommission.Add(r.CommissionAmount)
				g.DirectCommission = g.DirectCommission.Add(r.CommissionAmount)
			case RecordRoleOverride:
				s.OverrideCommission = s.OverrideCommission.Add(r.CommissionAmount)
				g.OverrideCommission = g.OverrideCommission.Add(r.CommissionAmount)
				downstreamOrders[r.AgentSalesCode]++
				downstreamVolume[r.AgentSalesCode] = downstreamVolume[r.AgentSalesCode].Add(r.AmountUSD)
			}
		}
	}

	for code, s := range report.Summaries {
		s.TotalCommission = s.DirectCommission.Add(s.OverrideCommission)
		s.PendingCommission = s.TotalCommission.Sub(s.PaidCommission)
		if s.Role == RolePrimary {
			s.TeamOrders = s.TotalOrders + downstreamOrders[code]
			s.TeamVolumeUSD = s.TotalAmountUSD.Add(downstreamVolume[code])
		}
		g.PaidCommission = g.PaidCommission.Add(s.PaidCommission)
	}

	g.TotalCommission = g.DirectCommission.Add(g.OverrideCommission)
	g.PendingCommission = g.TotalCommission.Sub(g.PaidCommission)

	if g.TotalOrders > 0 {
		total := decimal.NewFromInt(int64(g.TotalOrders))
		for d, n := range g.DurationCounts {
			g.DurationPercent[d] = decimal.NewFromInt(int64(n)).Mul(hundred).Div(total).Round(2)
		}
	}

	return report
}

func (c *Calculator) newSummary(res Resolution) *Summary {
	s := &Summary{
		SalesCode:      res.Agent.SalesCode,
		Name:           res.Agent.Name,
		Role:           res.Role,
		PaidCommission: res.Agent.PaidCommission,
	}
	if res.Parent != nil {
		s.ParentCode = res.Parent.SalesCode
	}
	if res.Role == RolePrimary {
		s.CommissionRate = c.policy.PrimaryBaseRate
	} else {
		s.CommissionRate = c.policy.NormalizeRate(res.Agent.CommissionRate, TierSecondary).Percent
	}
	return s
}

// SortedSummaries 按销售码排序，便于分页展示
func (r *Report) SortedSummaries() []*Summary {
	out := make([]*Summary, 0, len(r.Summaries))
	for _, s := range r.Summaries {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SalesCode < out[j].SalesCode })
	return out
}

// RecordsFor 某个销售参与的全部佣金记录（直销与管理奖）
func (r *Report) RecordsFor(salesCode string) []Record {
	out := []Record{}
	for _, rec := range r.Records {
		if rec.AgentSalesCode == salesCode {
			out = append(out, rec)
		}
	}
	return out
}

// Rounded 返回金额保留指定小数位的副本，仅用于展示
func (r *Report) Rounded(places int32) *Report {
	out := &Report{
		Summaries:   make(map[string]*Summary, len(r.Summaries)),
		Records:     make([]Record, len(r.Records)),
		Diagnostics: r.Diagnostics,
	}
	for code, s := range r.Summaries {
		cp := s.Rounded(places)
		out.Summaries[code] = &cp
	}
	for i, rec := range r.Records {
		rec.AmountUSD = rec.AmountUSD.Round(places)
		rec.CommissionAmount = rec.CommissionAmount.Round(places)
		out.Records[i] = rec
	}
	out.Global = r.Global.Rounded(places)
	return out
}

func (g GlobalStats) Rounded(places int32) GlobalStats {
	g.ConfirmedAmountUSD = g.ConfirmedAmountUSD.Round(places)
	g.DirectCommission = g.DirectCommission.Round(places)
	g.OverrideCommission = g.OverrideCommission.Round(places)
	g.TotalCommission = g.TotalCommission.Round(places)
	g.PaidCommission = g.PaidCommission.Round(places)
	g.PendingCommission = g.PendingCommission.Round(places)
	return g
}

func (s Summary) Rounded(places int32) Summary {
	s.TotalAmountUSD = s.TotalAmountUSD.Round(places)
	s.DirectCommission = s.DirectCommission.Round(places)
	s.OverrideCommission = s.OverrideCommission.Round(places)
	s.TotalCommission = s.TotalCommission.Round(places)
	s.PaidCommission = s.PaidCommission.Round(places)
	s.PendingCommission = s.PendingCommission.Round(places)
	s.TeamVolumeUSD = s.TeamVolumeUSD.Round(places)
	return s
}
