// Package validator 提供分配结果的事后校验
package validator

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/cooldown"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

// ViolationType 违规类型
type ViolationType string

const (
	ViolationDuplicateVIN     ViolationType = "duplicate_vin"     // 同一VIN本周被分配多次
	ViolationCapacityOverflow ViolationType = "capacity_overflow" // 某日分配数超过起租位数
	ViolationCooldown         ViolationType = "cooldown"          // 冷却期未满
	ViolationNotApproved      ViolationType = "not_approved"      // 合作方未获该品牌审批
	ViolationStartWeekday     ViolationType = "start_weekday"     // 起租日不在合作方允许的星期
)

// Violation 违规信息
type Violation struct {
	Type      ViolationType `json:"type"`
	VIN       string        `json:"vin,omitempty"`
	PartnerID uuid.UUID     `json:"partner_id,omitempty"`
	Date      string        `json:"date,omitempty"`
	Message   string        `json:"message"`
}

// InvariantChecker 最终结果的不变量检查器
// 与引擎的约束管理器互相独立，引擎的输出在返回前应通过全部检查
type InvariantChecker struct {
	slotsByDay map[string]int
	cooldown   *cooldown.Filter
	partners   map[uuid.UUID]*model.Partner
}

// NewInvariantChecker 创建不变量检查器
// slotsByDay 为空表示跳过容量检查，cooldownFilter 为 nil 表示跳过冷却检查
func NewInvariantChecker(
	slotsByDay map[string]int,
	cooldownFilter *cooldown.Filter,
	partners map[uuid.UUID]*model.Partner,
) *InvariantChecker {
	return &InvariantChecker{
		slotsByDay: slotsByDay,
		cooldown:   cooldownFilter,
		partners:   partners,
	}
}

// CheckAll 检查一周分配结果的全部不变量
func (c *InvariantChecker) CheckAll(selected []model.SelectedAssignment) []Violation {
	var violations []Violation
	violations = append(violations, c.checkVINUniqueness(selected)...)
	violations = append(violations, c.checkCapacity(selected)...)
	violations = append(violations, c.checkCooldown(selected)...)
	violations = append(violations, c.checkPartnerRules(selected)...)
	return violations
}

// checkVINUniqueness 检查VIN本周唯一
func (c *InvariantChecker) checkVINUniqueness(selected []model.SelectedAssignment) []Violation {
	var violations []Violation

	seen := make(map[string]int)
	for i := range selected {
		seen[selected[i].VIN]++
	}
	vins := make([]string, 0, len(seen))
	for vin, n := range seen {
		if n > 1 {
			vins = append(vins, vin)
		}
	}
	sort.Strings(vins)

	for _, vin := range vins {
		violations = append(violations, Violation{
			Type:    ViolationDuplicateVIN,
			VIN:     vin,
			Message: fmt.Sprintf("VIN %s 本周被分配 %d 次", vin, seen[vin]),
		})
	}
	return violations
}

// checkCapacity 检查每日分配数不超过起租位数
func (c *InvariantChecker) checkCapacity(selected []model.SelectedAssignment) []Violation {
	if c.slotsByDay == nil {
		return nil
	}
	var violations []Violation

	byDay := make(map[string]int)
	for i := range selected {
		byDay[selected[i].LoanStart]++
	}
	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	for _, d := range days {
		slots := c.slotsByDay[d]
		if byDay[d] > slots {
			violations = append(violations, Violation{
				Type:    ViolationCapacityOverflow,
				Date:    d,
				Message: fmt.Sprintf("%s 分配了 %d 个起租，超过起租位数 %d", d, byDay[d], slots),
			})
		}
	}
	return violations
}

// checkCooldown 检查每个分配都满足冷却期
func (c *InvariantChecker) checkCooldown(selected []model.SelectedAssignment) []Violation {
	if c.cooldown == nil {
		return nil
	}
	var violations []Violation

	for i := range selected {
		s := &selected[i]
		triple := model.FeasibleTriple{
			VIN:       s.VIN,
			PartnerID: s.PartnerID,
			StartDay:  s.LoanStart,
			Make:      s.Make,
			Model:     s.Model,
		}
		if pass, basis := c.cooldown.Check(&triple); !pass {
			violations = append(violations, Violation{
				Type:      ViolationCooldown,
				VIN:       s.VIN,
				PartnerID: s.PartnerID,
				Date:      s.LoanStart,
				Message:   fmt.Sprintf("合作方 %s 对品牌 %s 的冷却期未满（判定依据 %s）", s.PartnerID, s.Make, basis),
			})
		}
	}
	return violations
}

// checkPartnerRules 检查品牌审批和允许的起租星期
func (c *InvariantChecker) checkPartnerRules(selected []model.SelectedAssignment) []Violation {
	if c.partners == nil {
		return nil
	}
	var violations []Violation

	for i := range selected {
		s := &selected[i]
		p := c.partners[s.PartnerID]
		if p == nil {
			continue
		}

		if _, ok := p.ApprovedFor(s.Make); !ok {
			violations = append(violations, Violation{
				Type:      ViolationNotApproved,
				VIN:       s.VIN,
				PartnerID: s.PartnerID,
				Date:      s.LoanStart,
				Message:   fmt.Sprintf("合作方 %s 未获品牌 %s 的审批", p.Name, s.Make),
			})
		}
		if start, err := model.ParseDate(s.LoanStart); err == nil && !p.CanStartOn(start.Weekday()) {
			violations = append(violations, Violation{
				Type:      ViolationStartWeekday,
				VIN:       s.VIN,
				PartnerID: s.PartnerID,
				Date:      s.LoanStart,
				Message:   fmt.Sprintf("合作方 %s 不允许在 %s 起租", p.Name, s.LoanStart),
			})
		}
	}
	return violations
}
