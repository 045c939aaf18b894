// Package domain 工作流上下文的领域模型：模板与申请工作流实例。
// 清单与自动化规则以 JSON 列存储，类型自带 Valuer/Scanner。
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// 自动化规则动作词表
const (
	RuleEffectAdvanceStatus = "advance_status"
	RuleEffectNotify        = "notify"
)

// ChecklistItem 模板清单项
type ChecklistItem struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// Checklist 模板清单，按 JSON 列存储。
type Checklist []ChecklistItem

func (c Checklist) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *Checklist) Scan(value any) error {
	if value == nil {
		*c = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("unsupported checklist column type %T", value)
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, c)
}

// Contains 判断清单是否包含指定项。
func (c Checklist) Contains(name string) bool {
	for _, item := range c {
		if item.Name == name {
			return true
		}
	}
	return false
}

// AutomationRule 工作流完成时执行的自动化规则。
// 未知动作被忽略，仅记录告警日志。
type AutomationRule struct {
	Effect string `json:"effect"`
	Target string `json:"target"`
}

// AutomationRules 自动化规则集合，按 JSON 列存储。
type AutomationRules []AutomationRule

func (r AutomationRules) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *AutomationRules) Scan(value any) error {
	if value == nil {
		*r = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("unsupported automation rules column type %T", value)
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, r)
}

// WorkflowTemplate 工作流模板，按签证类型匹配。
type WorkflowTemplate struct {
	ID        uint            `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Name      string          `json:"name"`
	VisaType  string          `json:"visa_type"`
	Active    bool            `json:"active"`
	Checklist Checklist       `json:"checklist"`
	Rules     AutomationRules `json:"rules"`
}
