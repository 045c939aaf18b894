package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/visabackoffice/internal/notification/application"
	"github.com/wyfcoding/visabackoffice/internal/notification/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// NotificationHandler 通知 HTTP 处理器
type NotificationHandler struct {
	service *application.NotificationService
}

// NewNotificationHandler 创建通知 HTTP 处理器实例
func NewNotificationHandler(service *application.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/v1/notifications")
	{
		api.POST("/send", h.Send)
		api.GET("", h.Paginated)
		api.GET("/unread-count", h.UnreadCount)
		api.POST("/:id/read", h.MarkRead)
		api.POST("/read-all", h.MarkAllRead)
		api.POST("/bulk", h.Bulk)
		api.DELETE("", h.DeleteAll)
	}
}

// SendRequest 直接发送通知请求
type SendRequest struct {
	Recipient string `json:"recipient" binding:"required"`
	Type      string `json:"type"`
	Title     string `json:"title" binding:"required"`
	Message   string `json:"message"`
	TargetURL string `json:"target_url"`
	RelatedID uint   `json:"related_id"`
}

// Send 直接创建通知
func (h *NotificationHandler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := h.service.Send(c.Request.Context(), req.Recipient, req.Type, req.Title, req.Message, req.TargetURL, req.RelatedID)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to send notification", "recipient", req.Recipient, "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, n)
}

// Paginated 键集分页查询通知
func (h *NotificationHandler) Paginated(c *gin.Context) {
	recipient := c.Query("recipient")
	if recipient == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	cursor := c.Query("cursor")
	status := c.Query("status")

	page, err := h.service.Paginated(c.Request.Context(), recipient, domain.Status(status), cursor, limit)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list notifications", "recipient", recipient, "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, page)
}

// UnreadCount 查询未读数
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	recipient := c.Query("recipient")
	if recipient == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient is required"})
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), recipient)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipient": recipient, "unread_count": count})
}

// MarkRead 单条置为已读
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	n, err := h.service.MarkRead(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, n)
}

// MarkAllRead 全部置为已读
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	var req struct {
		Recipient string `json:"recipient" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.MarkAllRead(c.Request.Context(), req.Recipient); err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked_all_read": true})
}

// BulkRequest 批量操作请求
type BulkRequest struct {
	IDs    []uint `json:"ids" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// Bulk 批量操作，整体成功或整体失败
func (h *NotificationHandler) Bulk(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Bulk(c.Request.Context(), req.IDs, domain.BulkAction(req.Action)); err != nil {
		logging.Error(c.Request.Context(), "Failed to apply bulk notification action",
			"action", req.Action, "count", len(req.IDs), "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error(), "code": errs.CodeOf(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"applied": true, "count": len(req.IDs)})
}

// DeleteAll 删除收件人全部通知
func (h *NotificationHandler) DeleteAll(c *gin.Context) {
	recipient := c.Query("recipient")
	if recipient == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient is required"})
		return
	}

	if err := h.service.DeleteAll(c.Request.Context(), recipient); err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted_all": true})
}
