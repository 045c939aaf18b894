package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/visabackoffice/internal/visa/application"
	"github.com/wyfcoding/visabackoffice/internal/visa/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// ApplicationHandler 签证申请 HTTP 处理器
type ApplicationHandler struct {
	command *application.ApplicationCommandService
	memos   *application.MemoCommandService
	query   *application.ApplicationQueryService
}

// NewApplicationHandler 创建申请 HTTP 处理器实例
func NewApplicationHandler(command *application.ApplicationCommandService, memos *application.MemoCommandService, query *application.ApplicationQueryService) *ApplicationHandler {
	return &ApplicationHandler{command: command, memos: memos, query: query}
}

// RegisterRoutes 注册路由
func (h *ApplicationHandler) RegisterRoutes(router *gin.RouterGroup) {
	apps := router.Group("/v1/applications")
	{
		apps.POST("", h.CreateApplication)
		apps.GET("", h.ListApplications)
		apps.GET("/:id", h.GetApplication)
		apps.POST("/:id/status", h.RequestStatusChange)
		apps.POST("/:id/status/override", h.AdminUpdateStatus)
		apps.GET("/:id/history", h.GetStatusHistory)
		apps.GET("/:id/memos", h.ListMemos)
		apps.POST("/:id/memos", h.AddMemo)
	}
	memos := router.Group("/v1/memos")
	{
		memos.PUT("/:id", h.UpdateMemo)
		memos.DELETE("/:id", h.DeleteMemo)
	}
}

// CreateApplicationRequest 创建申请请求
type CreateApplicationRequest struct {
	UserID         string `json:"user_id" binding:"required"`
	FullName       string `json:"full_name" binding:"required"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Nationality    string `json:"nationality"`
	PassportNumber string `json:"passport_number"`
	VisaType       string `json:"visa_type" binding:"required"`
	Priority       string `json:"priority"`
}

// CreateApplication 创建签证申请
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	var req CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app, err := h.command.CreateApplication(c.Request.Context(), req.UserID, req.FullName, req.Email, req.Phone,
		req.Nationality, req.PassportNumber, req.VisaType, domain.Priority(req.Priority))
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to create application", "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, app)
}

// StatusChangeRequest 状态变更请求
type StatusChangeRequest struct {
	Status string `json:"status" binding:"required"`
	Actor  string `json:"actor" binding:"required"`
	Reason string `json:"reason"`
}

// RequestStatusChange 请求状态变更
func (h *ApplicationHandler) RequestStatusChange(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}
	var req StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app, err := h.command.RequestStatusChange(c.Request.Context(), id, domain.Status(req.Status), req.Actor, req.Reason)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to change application status",
			"application_id", id, "target", req.Status, "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error(), "code": errs.CodeOf(err)})
		return
	}

	c.JSON(http.StatusOK, app)
}

// AdminUpdateStatus 管理员覆盖状态
func (h *ApplicationHandler) AdminUpdateStatus(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}
	var req StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app, err := h.command.AdminUpdateApplicationStatus(c.Request.Context(), id, domain.Status(req.Status), req.Actor, req.Reason)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to override application status",
			"application_id", id, "target", req.Status, "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error(), "code": errs.CodeOf(err)})
		return
	}

	c.JSON(http.StatusOK, app)
}

// GetApplication 查询申请详情
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	app, err := h.query.GetApplication(c.Request.Context(), id)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, app)
}

// ListApplications 分页查询申请
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	status := c.Query("status")

	apps, total, err := h.query.ListApplications(c.Request.Context(), domain.Status(status), page, pageSize)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list applications", "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": apps, "total": total, "page": page, "page_size": pageSize})
}

// GetStatusHistory 查询状态历史
func (h *ApplicationHandler) GetStatusHistory(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	history, err := h.query.GetStatusHistory(c.Request.Context(), id)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// MemoRequest 备注请求
type MemoRequest struct {
	Author  string `json:"author" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// AddMemo 追加备注
func (h *ApplicationHandler) AddMemo(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}
	var req MemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	memo, err := h.memos.AddMemo(c.Request.Context(), id, req.Author, req.Content)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, memo)
}

// ListMemos 查询备注
func (h *ApplicationHandler) ListMemos(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	memos, err := h.query.ListMemos(c.Request.Context(), id)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"memos": memos})
}

// UpdateMemo 修改备注
func (h *ApplicationHandler) UpdateMemo(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid memo id"})
		return
	}
	var req MemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	memo, err := h.memos.UpdateMemo(c.Request.Context(), id, req.Author, req.Content)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, memo)
}

// DeleteMemo 删除备注
func (h *ApplicationHandler) DeleteMemo(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid memo id"})
		return
	}
	author := c.Query("author")
	if author == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "author is required"})
		return
	}

	if err := h.memos.DeleteMemo(c.Request.Context(), id, author); err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
