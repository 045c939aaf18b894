package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/visabackoffice/internal/payment/application"
	"github.com/wyfcoding/visabackoffice/internal/payment/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// PaymentHandler 缴费 HTTP 处理器
type PaymentHandler struct {
	command *application.PaymentCommandService
	query   *application.PaymentQueryService
}

// NewPaymentHandler 创建缴费 HTTP 处理器实例
func NewPaymentHandler(command *application.PaymentCommandService, query *application.PaymentQueryService) *PaymentHandler {
	return &PaymentHandler{command: command, query: query}
}

// RegisterRoutes 注册路由
func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/v1/payments")
	{
		payments.POST("/invoices", h.GenerateInvoice)
		payments.GET("", h.ListPayments)
		payments.GET("/:id", h.GetPayment)
		payments.POST("/:id/record", h.RecordPayment)
		payments.POST("/:id/overdue", h.MarkOverdue)
		payments.POST("/:id/cancel", h.CancelInvoice)
		payments.POST("/:id/receipt/request", h.RequestReceipt)
		payments.POST("/:id/receipt/issue", h.IssueReceipt)
	}
	router.GET("/v1/applications/:id/payments", h.ListByApplication)
}

// GenerateInvoiceRequest 开具账单请求
type GenerateInvoiceRequest struct {
	ApplicationID uint `json:"application_id" binding:"required"`
}

// GenerateInvoice 为申请开具账单
func (h *PaymentHandler) GenerateInvoice(c *gin.Context) {
	var req GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, err := h.command.GenerateInvoice(c.Request.Context(), req.ApplicationID)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to generate invoice",
			"application_id", req.ApplicationID, "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error(), "code": errs.CodeOf(err)})
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// RecordPaymentRequest 付款记录请求
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Method string          `json:"method"`
}

// RecordPayment 记录付款
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, err := h.command.RecordPayment(c.Request.Context(), uint(id), req.Amount, req.Method)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to record payment",
			"payment_id", id, "amount", req.Amount.String(), "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error(), "code": errs.CodeOf(err)})
		return
	}

	c.JSON(http.StatusOK, payment)
}

// MarkOverdue 标记账单逾期
func (h *PaymentHandler) MarkOverdue(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	payment, err := h.command.MarkOverdue(c.Request.Context(), uint(id), time.Now())
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error(), "code": errs.CodeOf(err)})
		return
	}

	c.JSON(http.StatusOK, payment)
}

// CancelInvoice 作废账单
func (h *PaymentHandler) CancelInvoice(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	payment, err := h.command.CancelInvoice(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error(), "code": errs.CodeOf(err)})
		return
	}

	c.JSON(http.StatusOK, payment)
}

// RequestReceipt 申请收据
func (h *PaymentHandler) RequestReceipt(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	payment, err := h.command.RequestReceipt(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, payment)
}

// IssueReceipt 开具收据
func (h *PaymentHandler) IssueReceipt(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	payment, err := h.command.IssueReceipt(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, payment)
}

// GetPayment 查询账单详情
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	payment, err := h.query.GetPayment(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, payment)
}

// ListPayments 按状态分页查询账单
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	status := c.Query("status")

	payments, total, err := h.query.ListPayments(c.Request.Context(), domain.Status(status), page, pageSize)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list payments", "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments, "total": total, "page": page, "page_size": pageSize})
}

// ListByApplication 查询申请名下账单
func (h *PaymentHandler) ListByApplication(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	payments, err := h.query.ListByApplication(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments})
}
