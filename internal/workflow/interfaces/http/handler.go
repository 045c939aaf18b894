package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/visabackoffice/internal/workflow/application"
	"github.com/wyfcoding/visabackoffice/internal/workflow/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// WorkflowHandler 工作流 HTTP 处理器
type WorkflowHandler struct {
	command   *application.WorkflowCommandService
	templates *application.TemplateCommandService
	query     *application.WorkflowQueryService
}

// NewWorkflowHandler 创建工作流 HTTP 处理器实例
func NewWorkflowHandler(command *application.WorkflowCommandService, templates *application.TemplateCommandService, query *application.WorkflowQueryService) *WorkflowHandler {
	return &WorkflowHandler{command: command, templates: templates, query: query}
}

// RegisterRoutes 注册路由
func (h *WorkflowHandler) RegisterRoutes(router *gin.RouterGroup) {
	wf := router.Group("/v1/workflows")
	{
		wf.POST("/initialize", h.InitializeWorkflow)
		wf.GET("/:application_id", h.GetWorkflow)
		wf.POST("/:application_id/checklist", h.UpdateChecklist)
		wf.POST("/:application_id/apply-template", h.ApplyTemplate)
	}
	tpl := router.Group("/v1/workflow-templates")
	{
		tpl.POST("", h.CreateTemplate)
		tpl.GET("", h.ListTemplates)
		tpl.GET("/:id", h.GetTemplate)
		tpl.PUT("/:id", h.UpdateTemplate)
		tpl.POST("/:id/deactivate", h.DeactivateTemplate)
	}
}

// InitializeWorkflowRequest 初始化工作流请求
type InitializeWorkflowRequest struct {
	ApplicationID uint `json:"application_id" binding:"required"`
}

// InitializeWorkflow 按签证类型匹配模板并初始化工作流
func (h *WorkflowHandler) InitializeWorkflow(c *gin.Context) {
	var req InitializeWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wf, err := h.command.InitializeWorkflow(c.Request.Context(), req.ApplicationID)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to initialize workflow",
			"application_id", req.ApplicationID, "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error(), "code": errs.CodeOf(err)})
		return
	}

	c.JSON(http.StatusCreated, wf)
}

// UpdateChecklistRequest 清单进度补丁请求，条目名到完成状态的映射。
type UpdateChecklistRequest struct {
	Items map[string]bool `json:"items" binding:"required"`
}

// UpdateChecklist 批量更新清单项完成状态
func (h *WorkflowHandler) UpdateChecklist(c *gin.Context) {
	applicationID, err := strconv.ParseUint(c.Param("application_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}
	var req UpdateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wf, err := h.command.UpdateChecklist(c.Request.Context(), uint(applicationID), req.Items)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to update checklist",
			"application_id", applicationID, "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error(), "code": errs.CodeOf(err)})
		return
	}

	c.JSON(http.StatusOK, wf)
}

// ApplyTemplateRequest 套用模板请求
type ApplyTemplateRequest struct {
	TemplateID uint `json:"template_id" binding:"required"`
}

// ApplyTemplate 套用模板并重置进度
func (h *WorkflowHandler) ApplyTemplate(c *gin.Context) {
	applicationID, err := strconv.ParseUint(c.Param("application_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}
	var req ApplyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wf, err := h.command.ApplyTemplate(c.Request.Context(), uint(applicationID), req.TemplateID)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to apply workflow template",
			"application_id", applicationID, "template_id", req.TemplateID, "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error(), "code": errs.CodeOf(err)})
		return
	}

	c.JSON(http.StatusOK, wf)
}

// GetWorkflow 查询申请的工作流
func (h *WorkflowHandler) GetWorkflow(c *gin.Context) {
	applicationID, err := strconv.ParseUint(c.Param("application_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	wf, err := h.query.GetWorkflow(c.Request.Context(), uint(applicationID))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, wf)
}

// TemplateRequest 模板创建/更新请求
type TemplateRequest struct {
	Name      string                 `json:"name"`
	VisaType  string                 `json:"visa_type"`
	Checklist domain.Checklist       `json:"checklist"`
	Rules     domain.AutomationRules `json:"rules"`
}

// CreateTemplate 创建模板
func (h *WorkflowHandler) CreateTemplate(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tpl, err := h.templates.CreateTemplate(c.Request.Context(), req.Name, req.VisaType, req.Checklist, req.Rules)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to create workflow template", "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, tpl)
}

// UpdateTemplate 更新模板
func (h *WorkflowHandler) UpdateTemplate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
		return
	}
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tpl, err := h.templates.UpdateTemplate(c.Request.Context(), uint(id), req.Name, req.Checklist, req.Rules)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, tpl)
}

// DeactivateTemplate 停用模板
func (h *WorkflowHandler) DeactivateTemplate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
		return
	}

	if err := h.templates.DeactivateTemplate(c.Request.Context(), uint(id)); err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deactivated": true})
}

// ListTemplates 分页查询模板
func (h *WorkflowHandler) ListTemplates(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	templates, total, err := h.query.ListTemplates(c.Request.Context(), page, pageSize)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list workflow templates", "error", err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates, "total": total, "page": page, "page_size": pageSize})
}

// GetTemplate 查询模板详情
func (h *WorkflowHandler) GetTemplate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
		return
	}

	tpl, err := h.query.GetTemplate(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, tpl)
}
