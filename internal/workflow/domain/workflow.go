package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// ChecklistEntry 清单项的完成状态
type ChecklistEntry struct {
	Done        bool       `json:"done"`
	CompletedAt *time.Time `json:"completed_at"`
}

// ChecklistStatus 清单项名到完成状态的映射，按 JSON 列存储。
type ChecklistStatus map[string]ChecklistEntry

func (s ChecklistStatus) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *ChecklistStatus) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("unsupported checklist status column type %T", value)
		}
		b = []byte(str)
	}
	return json.Unmarshal(b, s)
}

// ApplicationWorkflow 申请工作流实例，每个申请至多一个。
type ApplicationWorkflow struct {
	ID            uint            `json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	ApplicationID uint            `json:"application_id"`
	TemplateID    uint            `json:"template_id"`
	TemplateName  string          `json:"template_name"`
	VisaType      string          `json:"visa_type"`
	Checklist     Checklist       `json:"checklist"`
	Status        ChecklistStatus `json:"status"`
	Rules         AutomationRules `json:"rules"`
	CompletedAt   *time.Time      `json:"completed_at"`
}

// NewApplicationWorkflow 按模板实例化工作流，所有清单项初始为未完成。
func NewApplicationWorkflow(applicationID uint, tpl *WorkflowTemplate) *ApplicationWorkflow {
	status := make(ChecklistStatus, len(tpl.Checklist))
	for _, item := range tpl.Checklist {
		status[item.Name] = ChecklistEntry{}
	}
	return &ApplicationWorkflow{
		ApplicationID: applicationID,
		TemplateID:    tpl.ID,
		TemplateName:  tpl.Name,
		VisaType:      tpl.VisaType,
		Checklist:     tpl.Checklist,
		Status:        status,
		Rules:         tpl.Rules,
	}
}

// MarkItem 更新清单项完成状态，项不属于模板时返回 UnknownChecklistItem。
func (w *ApplicationWorkflow) MarkItem(name string, done bool, now time.Time) error {
	if !w.Checklist.Contains(name) {
		return errs.New(errs.CodeUnknownChecklistItem, "checklist item %q is not part of template %s", name, w.TemplateName)
	}
	entry := ChecklistEntry{Done: done}
	if done {
		entry.CompletedAt = &now
	}
	if w.Status == nil {
		w.Status = make(ChecklistStatus)
	}
	w.Status[name] = entry
	return nil
}

// RequiredComplete 判断全部必需清单项是否已完成。
func (w *ApplicationWorkflow) RequiredComplete() bool {
	return len(w.IncompleteRequired()) == 0
}

// IncompleteRequired 返回尚未完成的必需清单项名。
func (w *ApplicationWorkflow) IncompleteRequired() []string {
	var incomplete []string
	for _, item := range w.Checklist {
		if !item.Required {
			continue
		}
		if entry, ok := w.Status[item.Name]; !ok || !entry.Done {
			incomplete = append(incomplete, item.Name)
		}
	}
	return incomplete
}

// ApplyTemplate 套用新模板并重置全部进度。
func (w *ApplicationWorkflow) ApplyTemplate(tpl *WorkflowTemplate) {
	status := make(ChecklistStatus, len(tpl.Checklist))
	for _, item := range tpl.Checklist {
		status[item.Name] = ChecklistEntry{}
	}
	w.TemplateID = tpl.ID
	w.TemplateName = tpl.Name
	w.VisaType = tpl.VisaType
	w.Checklist = tpl.Checklist
	w.Status = status
	w.Rules = tpl.Rules
	w.CompletedAt = nil
}
