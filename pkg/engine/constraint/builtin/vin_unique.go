package builtin

import (
	"fmt"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/constraint"
)

// VINUniqueConstraint 车辆唯一性硬约束
// 每辆车一周最多被选中一次
type VINUniqueConstraint struct {
	*BaseConstraint
}

// NewVINUniqueConstraint 创建车辆唯一性约束
func NewVINUniqueConstraint() *VINUniqueConstraint {
	return &VINUniqueConstraint{
		BaseConstraint: NewBaseConstraint(
			"车辆唯一性",
			constraint.TypeVINUnique,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估当前整体选择
func (c *VINUniqueConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	counted := make(map[string]bool)
	for _, i := range ctx.SelectedIndexes() {
		t := &ctx.Triples[i]
		if counted[t.VIN] {
			continue
		}
		counted[t.VIN] = true

		if n := ctx.VINCount(t.VIN); n > 1 {
			isValid = false
			penalty := c.Weight() * (n - 1)
			totalPenalty += penalty

			v := c.CreateViolation(t.StartDay,
				fmt.Sprintf("车辆 %s 被选中 %d 次，每周最多 1 次", t.VIN, n), penalty)
			v.VIN = t.VIN
			violations = append(violations, v)
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateTriple 评估新增选中第 i 个三元组
func (c *VINUniqueConstraint) EvaluateTriple(ctx *constraint.Context, i int) (bool, int) {
	t := &ctx.Triples[i]
	if ctx.IsSelected(i) {
		return true, 0
	}
	if ctx.VINCount(t.VIN) >= 1 {
		return false, c.Weight()
	}
	return true, 0
}
