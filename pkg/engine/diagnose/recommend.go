package diagnose

import (
	"fmt"
	"sort"
)

// Recommendation 参数调整建议
type Recommendation struct {
	Action     string     `json:"action"`
	Reason     string     `json:"reason"`
	Bottleneck Bottleneck `json:"bottleneck"`
	Impact     int        `json:"impact"` // 可归因的空位数
	Rank       int        `json:"rank"`
}

// recommend 基于瓶颈汇总产出排名后的人类可读建议
func recommend(report *Report) []Recommendation {
	recs := make([]Recommendation, 0, len(report.PrimaryBottlenecks))

	for _, s := range report.PrimaryBottlenecks {
		var action, reason string
		switch s.Bottleneck {
		case BottleneckNoFeasibleTriples:
			action = "放宽冷却天数或扩大合作方审批范围"
			reason = fmt.Sprintf("有 %d 天（共 %d 个空位）完全没有可行组合", s.Days, s.EmptySlots)
		case BottleneckFewVehicles:
			action = "检查车辆可用性网格与生命周期窗口"
			reason = fmt.Sprintf("有 %d 天可行车辆数少于起租位数，共 %d 个空位", s.Days, s.EmptySlots)
		case BottleneckFewPartners:
			action = "提高每合作方每日上限或扩充合规合作方"
			reason = fmt.Sprintf("有 %d 天合规合作方不足以填满容量，共 %d 个空位", s.Days, s.EmptySlots)
		case BottleneckOptimizerDeclined:
			action = "下调公平性或等级上限惩罚权重"
			reason = fmt.Sprintf("有 %d 天容量和可行组合都充足但软惩罚主导，共 %d 个空位", s.Days, s.EmptySlots)
		default:
			continue
		}

		recs = append(recs, Recommendation{
			Action:     action,
			Reason:     reason,
			Bottleneck: s.Bottleneck,
			Impact:     s.EmptySlots,
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Impact != recs[j].Impact {
			return recs[i].Impact > recs[j].Impact
		}
		return recs[i].Bottleneck < recs[j].Bottleneck
	})
	for i := range recs {
		recs[i].Rank = i + 1
	}
	return recs
}
