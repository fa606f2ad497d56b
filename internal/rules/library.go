// Package rules 约束规则库与运行配置装配
package rules

import (
	"github.com/aininja-pro/media-scheduler-sub000/internal/config"
	"github.com/aininja-pro/media-scheduler-sub000/internal/office"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/cooldown"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/optimizer"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/scorer"
)

// ConstraintParam 约束参数定义
type ConstraintParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, bool
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// ConstraintDefinition 约束定义（API 暴露的可配置项目录）
type ConstraintDefinition struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"` // hard 硬约束, soft 软约束
	Description string            `json:"description"`
	Params      []ConstraintParam `json:"params"`
}

// LibraryResponse 约束库响应
type LibraryResponse struct {
	Library []ConstraintDefinition `json:"library"`
}

// GetLibrary 获取完整的约束库
func GetLibrary() []ConstraintDefinition {
	return []ConstraintDefinition{
		{
			Name:        "vin_unique",
			DisplayName: "车辆唯一性",
			Type:        "hard",
			Description: "每辆车一周最多被分配一次。不可配置、不可关闭。",
			Params:      []ConstraintParam{},
		},
		{
			Name:        "day_capacity",
			DisplayName: "每日容量",
			Type:        "hard",
			Description: "某日起租数不得超过容量日历的起租位数；零容量日整天封锁。",
			Params:      []ConstraintParam{},
		},
		{
			Name:        "tier_cap_overage",
			DisplayName: "等级年度上限",
			Type:        "soft",
			Description: "滚动12个月的 (合作方, 品牌) 用量超过等级上限时按单位线性惩罚；可切换为硬执行。",
			Params: []ConstraintParam{
				{Name: "weight", Type: "int", Description: "每单位超额的惩罚", Default: "25", Min: "0", Max: "500"},
				{Name: "hard", Type: "bool", Description: "硬执行（超额直接禁止）", Default: "false"},
			},
		},
		{
			Name:        "fairness",
			DisplayName: "分配公平性",
			Type:        "soft",
			Description: "抑制一周库存集中到少数合作方：超出公平目标线性惩罚，超出第二阈值追加阶梯惩罚，同合作方同日共选另计。",
			Params: []ConstraintParam{
				{Name: "weight", Type: "int", Description: "超出公平目标的惩罚", Default: "20", Min: "0", Max: "500"},
				{Name: "fair_target", Type: "int", Description: "每合作方公平目标数", Default: "1", Min: "1", Max: "7"},
				{Name: "step_threshold", Type: "int", Description: "阶梯惩罚阈值", Default: "2", Min: "1", Max: "7"},
				{Name: "step_weight", Type: "int", Description: "阶梯惩罚权重", Default: "15", Min: "0", Max: "500"},
				{Name: "same_day_weight", Type: "int", Description: "同日共选惩罚", Default: "10", Min: "0", Max: "500"},
			},
		},
		{
			Name:        "budget_overage",
			DisplayName: "季度预算",
			Type:        "soft",
			Description: "品牌车队的新增开销超出季度剩余预算时按美元线性惩罚；可切换为硬执行。",
			Params: []ConstraintParam{
				{Name: "weight", Type: "int", Description: "每超支一美元的惩罚", Default: "1", Min: "0", Max: "100"},
				{Name: "cost_per_loan", Type: "float", Description: "单次分配成本估算", Default: "1000"},
				{Name: "hard", Type: "bool", Description: "硬执行（超支直接禁止）", Default: "false"},
			},
		},
	}
}

// BuildRunConfig 由服务配置和办公室设置装配引擎运行配置
func BuildRunConfig(ec config.EngineConfig, o *office.Office, weekStart string) *engine.RunConfig {
	cfg := engine.DefaultRunConfig(o.Code, weekStart)

	if ec.CandidateStartDays > 0 {
		cfg.CandidateStartDays = ec.CandidateStartDays
	}
	if ec.MinConsecutiveDays > 0 {
		cfg.MinConsecutiveDays = ec.MinConsecutiveDays
	}
	if ec.LoanDays > 0 {
		cfg.LoanDays = ec.LoanDays
	}
	if o.Settings.PerPartnerPerDay > 0 {
		cfg.PerPartnerPerDay = o.Settings.PerPartnerPerDay
	}
	if ec.CooldownDays > 0 {
		cfg.Cooldown = cooldown.Config{DefaultDays: ec.CooldownDays}
	}
	if ec.CostPerLoan > 0 {
		cfg.CostPerLoan = ec.CostPerLoan
	}
	cfg.Seed = ec.Seed
	cfg.Scoring = scorer.DefaultConfig(ec.Seed)

	opt := optimizer.DefaultConfig(ec.Seed)
	if ec.MaxIterations > 0 {
		opt.MaxIterations = ec.MaxIterations
	}
	if ec.SolveTimeBudget > 0 {
		opt.TimeBudget = ec.SolveTimeBudget
	}
	if ec.Workers > 0 {
		opt.Workers = ec.Workers
	}
	cfg.Optimizer = opt

	return cfg
}
