package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/visabackoffice/internal/document/application"
	"github.com/wyfcoding/visabackoffice/internal/document/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// DocumentHandler 申请材料 HTTP 处理器
type DocumentHandler struct {
	command *application.DocumentCommandService
	query   *application.DocumentQueryService
}

// NewDocumentHandler 创建材料 HTTP 处理器实例
func NewDocumentHandler(command *application.DocumentCommandService, query *application.DocumentQueryService) *DocumentHandler {
	return &DocumentHandler{command: command, query: query}
}

// RegisterRoutes 注册路由
func (h *DocumentHandler) RegisterRoutes(router *gin.RouterGroup) {
	docs := router.Group("/v1/documents")
	{
		docs.POST("", h.RegisterDocument)
		docs.GET("", h.ListDocuments)
		docs.GET("/statistics", h.GetStatistics)
		docs.GET("/:id", h.GetDocument)
		docs.POST("/:id/status", h.SetStatus)
		docs.POST("/bulk-status", h.BulkSetStatus)
	}
	router.GET("/v1/applications/:id/documents", h.ListByApplication)
}

// RegisterDocumentRequest 登记材料请求
type RegisterDocumentRequest struct {
	ApplicationID uint   `json:"application_id" binding:"required"`
	DocumentType  string `json:"document_type" binding:"required"`
	FileName      string `json:"file_name"`
	FileURL       string `json:"file_url"`
	Required      bool   `json:"required"`
}

// RegisterDocument 登记申请材料
func (h *DocumentHandler) RegisterDocument(c *gin.Context) {
	var req RegisterDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.command.RegisterDocument(c.Request.Context(), req.ApplicationID, req.DocumentType, req.FileName, req.FileURL, req.Required)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to register document", "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// SetStatusRequest 审核请求
type SetStatusRequest struct {
	Status   string `json:"status" binding:"required"`
	Reviewer string `json:"reviewer" binding:"required"`
	Notes    string `json:"notes"`
}

// SetStatus 审核单个材料
func (h *DocumentHandler) SetStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.command.SetStatus(c.Request.Context(), uint(id), domain.Status(req.Status), req.Reviewer, req.Notes)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to review document", "document_id", id, "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error(), "code": errs.CodeOf(err)})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// BulkSetStatusRequest 批量审核请求
type BulkSetStatusRequest struct {
	DocumentIDs []uint `json:"document_ids" binding:"required"`
	Status      string `json:"status" binding:"required"`
	Reviewer    string `json:"reviewer" binding:"required"`
	Notes       string `json:"notes"`
}

// BulkSetStatus 批量审核材料，整体成功或整体失败
func (h *DocumentHandler) BulkSetStatus(c *gin.Context) {
	var req BulkSetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	docs, err := h.command.BulkSetStatus(c.Request.Context(), req.DocumentIDs, domain.Status(req.Status), req.Reviewer, req.Notes)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to bulk review documents", "count", len(req.DocumentIDs), "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error(), "code": errs.CodeOf(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs, "updated": len(docs)})
}

// GetDocument 查询材料详情
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	doc, err := h.query.GetDocument(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// ListDocuments 分页查询材料
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	docs, total, err := h.query.ListDocuments(c.Request.Context(), page, pageSize)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list documents", "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs, "total": total, "page": page, "page_size": pageSize})
}

// ListByApplication 查询申请名下材料
func (h *DocumentHandler) ListByApplication(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	docs, err := h.query.ListByApplication(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// GetStatistics 查询审核统计，支持按申请过滤
func (h *DocumentHandler) GetStatistics(c *gin.Context) {
	var applicationID uint64
	if raw := c.Query("application_id"); raw != "" {
		var err error
		applicationID, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application_id"})
			return
		}
	}

	stats, err := h.query.GetStatistics(c.Request.Context(), uint(applicationID))
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to get document statistics", "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
