package builtin

import (
	"fmt"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/constraint"
)

// DayCapacityConstraint 每日容量硬约束
// 每个起租日的选中数不超过容量日历给出的起租位数；零容量日强制全部不选
type DayCapacityConstraint struct {
	*BaseConstraint
}

// NewDayCapacityConstraint 创建每日容量约束
func NewDayCapacityConstraint() *DayCapacityConstraint {
	return &DayCapacityConstraint{
		BaseConstraint: NewBaseConstraint(
			"每日起租容量",
			constraint.TypeDayCapacity,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估当前整体选择
func (c *DayCapacityConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	counted := make(map[string]bool)
	for _, i := range ctx.SelectedIndexes() {
		day := ctx.Triples[i].StartDay
		if counted[day] {
			continue
		}
		counted[day] = true

		slots := ctx.DaySlots[day]
		if n := ctx.DayCount(day); n > slots {
			isValid = false
			penalty := c.Weight() * (n - slots)
			totalPenalty += penalty

			violations = append(violations, c.CreateViolation(day,
				fmt.Sprintf("日期 %s 起租 %d 次，超过容量 %d", day, n, slots), penalty))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateTriple 评估新增选中第 i 个三元组
func (c *DayCapacityConstraint) EvaluateTriple(ctx *constraint.Context, i int) (bool, int) {
	if ctx.IsSelected(i) {
		return true, 0
	}
	day := ctx.Triples[i].StartDay
	if ctx.DayCount(day)+1 > ctx.DaySlots[day] {
		return false, c.Weight()
	}
	return true, 0
}
