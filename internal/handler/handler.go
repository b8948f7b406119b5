package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ft583086849/zhixing-sub003/internal/commission"
	"github.com/ft583086849/zhixing-sub003/internal/model"
	"github.com/ft583086849/zhixing-sub003/internal/repository"
	"github.com/ft583086849/zhixing-sub003/internal/service"
	"github.com/ft583086849/zhixing-sub003/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 金额对外展示保留两位小数
const displayPlaces = 2

type SettlementAPI interface {
	GetReport(ctx context.Context, filter service.ReportFilter) (*commission.Report, error)
	GetAgentSettlement(ctx context.Context, salesCode string, filter service.ReportFilter) (*service.AgentSettlement, error)
	GetStats(ctx context.Context, filter service.ReportFilter) (*commission.GlobalStats, error)
}

type OrderAPI interface {
	ListOrders(ctx context.Context, filter repository.OrderFilter, page, pageSize int) ([]service.OrderView, int64, error)
	UpdateStatus(ctx context.Context, orderNo, target string) (*service.OrderView, error)
}

type SalesAPI interface {
	UpdateCommissionRate(ctx context.Context, salesCode string, raw decimal.Decimal) (*service.RateUpdateResult, error)
	RecordPayout(ctx context.Context, req *service.PayoutRequest) (*service.PayoutResult, error)
	ListPayouts(ctx context.Context, salesCode string, page, pageSize int) ([]*model.CommissionPayout, int64, error)
}

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	settlement SettlementAPI
	orders     OrderAPI
	sales      SalesAPI
	log        *zap.Logger
}

func NewHandler(settlement SettlementAPI, orders OrderAPI, sales SalesAPI, log *zap.Logger) *Handler {
	return &Handler{
		settlement: settlement,
		orders:     orders,
		sales:      sales,
		log:        log.Named("handler"),
	}
}

// writeError 把各层的哨兵错误映射为业务码，未知错误按服务端错误处理
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrSalesNotFound):
		response.BusinessError(c, response.CodeSalesNotFound, err.Error())
	case errors.Is(err, repository.ErrOrderNotFound):
		response.BusinessError(c, response.CodeOrderNotFound, err.Error())
	case errors.Is(err, repository.ErrOrderStatusInvalid):
		response.BusinessError(c, response.CodeOrderStatusInvalid, err.Error())
	case errors.Is(err, service.ErrInvalidRate):
		response.BusinessError(c, response.CodeInvalidRate, err.Error())
	case errors.Is(err, service.ErrPrimaryRateFixed):
		response.BusinessError(c, response.CodePrimaryRateFixed, err.Error())
	case errors.Is(err, service.ErrInvalidAmount):
		response.BusinessError(c, response.CodeInvalidAmount, err.Error())
	case errors.Is(err, service.ErrSystemBusy), errors.Is(err, repository.ErrOptimisticLock):
		response.BusinessError(c, response.CodeSystemBusy, err.Error())
	default:
		_ = c.Error(err)
		h.log.Error("请求处理失败", zap.String("path", c.FullPath()), zap.Error(err))
		response.ServerError(c, "服务器内部错误")
	}
}

// parseRange 解析 start / end 查询参数
// 支持 2006-01-02 与 RFC3339；只给日期时 end 包含当天
func parseRange(c *gin.Context) (service.ReportFilter, error) {
	var f service.ReportFilter

	if s := strings.TrimSpace(c.Query("start")); s != "" {
		t, _, err := parseTime(s)
		if err != nil {
			return f, fmt.Errorf("start 参数错误: %w", err)
		}
		f.Start = &t
	}
	if s := strings.TrimSpace(c.Query("end")); s != "" {
		t, dateOnly, err := parseTime(s)
		if err != nil {
			return f, fmt.Errorf("end 参数错误: %w", err)
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1)
		}
		f.End = &t
	}
	if f.Start != nil && f.End != nil && !f.Start.Before(*f.End) {
		return f, errors.New("start 必须早于 end")
	}
	return f, nil
}

func parseTime(s string) (time.Time, bool, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	return t, false, err
}

// ============================================================
// 结算相关接口
// ============================================================

// GetReport 结算报表
// GET /api/v1/settlement/report?start=2024-01-01&end=2024-01-31
func (h *Handler) GetReport(c *gin.Context) {
	filter, err := parseRange(c)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}

	report, err := h.settlement.GetReport(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	rounded := report.Rounded(displayPlaces)
	response.Success(c, gin.H{
		"summaries":   rounded.SortedSummaries(),
		"global":      rounded.Global,
		"diagnostics": rounded.Diagnostics,
	})
}

// GetStats 全局统计
// GET /api/v1/settlement/stats
func (h *Handler) GetStats(c *gin.Context) {
	filter, err := parseRange(c)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}

	stats, err := h.settlement.GetStats(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, stats.Rounded(displayPlaces))
}

// GetAgentSettlement 单个销售的汇总与明细
// GET /api/v1/settlement/agents/:sales_code
func (h *Handler) GetAgentSettlement(c *gin.Context) {
	salesCode := strings.TrimSpace(c.Param("sales_code"))
	if salesCode == "" {
		response.ParamError(c, "sales_code 不能为空")
		return
	}

	filter, err := parseRange(c)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}

	agent, err := h.settlement.GetAgentSettlement(c.Request.Context(), salesCode, filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	summary := agent.Summary.Rounded(displayPlaces)
	records := make([]commission.Record, len(agent.Records))
	for i, r := range agent.Records {
		r.AmountUSD = r.AmountUSD.Round(displayPlaces)
		r.CommissionAmount = r.CommissionAmount.Round(displayPlaces)
		records[i] = r
	}

	response.Success(c, gin.H{
		"summary":     summary,
		"records":     records,
		"diagnostics": agent.Diagnostics,
	})
}

// ============================================================
// 订单相关接口
// ============================================================

// ListOrders 订单列表
// GET /api/v1/orders?status=confirmed&sales_code=xxx&page=1&page_size=20
func (h *Handler) ListOrders(c *gin.Context) {
	filter := repository.OrderFilter{
		SalesCode: strings.TrimSpace(c.Query("sales_code")),
	}
	if s := c.Query("status"); s != "" {
		filter.Status = commission.ParseStatus(s)
		if filter.Status == commission.StatusUnknown {
			response.ParamError(c, "status 参数错误")
			return
		}
	}

	r, err := parseRange(c)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}
	filter.Start, filter.End = r.Start, r.End

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	orders, total, err := h.orders.ListOrders(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      orders,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

type UpdateOrderStatusRequest struct {
	OrderNo string `json:"order_no" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

// UpdateOrderStatus 订单状态流转
// POST /api/v1/orders/status
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), req.OrderNo, req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, order)
}

// ============================================================
// 销售相关接口
// ============================================================

type UpdateRateRequest struct {
	SalesCode      string           `json:"sales_code" binding:"required"`
	CommissionRate *decimal.Decimal `json:"commission_rate" binding:"required"` // 0.25 与 25 等价
}

// UpdateCommissionRate 修改佣金率
// PUT /api/v1/sales/commission-rate
func (h *Handler) UpdateCommissionRate(c *gin.Context) {
	var req UpdateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.sales.UpdateCommissionRate(c.Request.Context(), req.SalesCode, *req.CommissionRate)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, result)
}

type PayoutRequest struct {
	RequestID string           `json:"request_id" binding:"required"` // 幂等ID，客户端生成
	SalesCode string           `json:"sales_code" binding:"required"`
	Amount    *decimal.Decimal `json:"amount" binding:"required"`
	Remark    string           `json:"remark" binding:"max=256"`
}

// RecordPayout 标记佣金已发放
// POST /api/v1/sales/payout
func (h *Handler) RecordPayout(c *gin.Context) {
	var req PayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.sales.RecordPayout(c.Request.Context(), &service.PayoutRequest{
		RequestID: req.RequestID,
		SalesCode: req.SalesCode,
		Amount:    *req.Amount,
		Remark:    req.Remark,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, result)
}

// ListPayouts 发放流水
// GET /api/v1/sales/:sales_code/payouts?page=1&page_size=20
func (h *Handler) ListPayouts(c *gin.Context) {
	salesCode := strings.TrimSpace(c.Param("sales_code"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	payouts, total, err := h.sales.ListPayouts(c.Request.Context(), salesCode, page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      payouts,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
