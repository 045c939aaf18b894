// Package pricing 签证费用定价：基础价按签证类型，加急按优先级加成。
package pricing

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/visabackoffice/internal/payment/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// 基础费用表，单位 USD。
var baseFees = map[string]decimal.Decimal{
	"tourist":  decimal.NewFromInt(160),
	"business": decimal.NewFromInt(185),
	"student":  decimal.NewFromInt(350),
	"work":     decimal.NewFromInt(460),
	"transit":  decimal.NewFromInt(60),
}

// 优先级加成系数。
var priorityMultipliers = map[string]decimal.Decimal{
	"normal": decimal.NewFromInt(1),
	"high":   decimal.NewFromFloat(1.25),
	"urgent": decimal.NewFromFloat(1.5),
}

// TablePricer 查表定价器
type TablePricer struct{}

// NewTablePricer 创建查表定价器实例。
func NewTablePricer() domain.Pricer {
	return &TablePricer{}
}

// Quote 按签证类型与优先级计算账单金额，保留两位小数。
func (p *TablePricer) Quote(ctx context.Context, visaType, priority string) (decimal.Decimal, string, error) {
	base, ok := baseFees[visaType]
	if !ok {
		return decimal.Zero, "", errs.New(errs.CodeInvalidArgument, "no fee configured for visa type %q", visaType)
	}
	multiplier, ok := priorityMultipliers[priority]
	if !ok {
		multiplier = priorityMultipliers["normal"]
	}
	return base.Mul(multiplier).Round(2), "USD", nil
}
