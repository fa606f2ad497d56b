// Package stats 提供分配结果的统计分析
package stats

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

// PartnerInfo 合作方信息（统计用）
type PartnerInfo struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// FairnessMetrics 分配公平性指标
type FairnessMetrics struct {
	// 分配集中度
	AssignmentGini float64 `json:"assignment_gini"` // 分配数基尼系数 (0=完全公平, 1=完全集中)
	TopNShare      float64 `json:"top_n_share"`     // 前N个合作方占比
	TopN           int     `json:"top_n"`

	// 基本统计量
	AvgPerPartner float64 `json:"avg_per_partner"`
	MaxPerPartner int     `json:"max_per_partner"`
	MinPerPartner int     `json:"min_per_partner"`

	// 合作方级别统计
	PartnerStats []PartnerStat `json:"partner_stats"`

	// 综合评分
	OverallFairnessScore float64 `json:"overall_fairness_score"` // 0-100
}

// PartnerStat 合作方统计
type PartnerStat struct {
	PartnerID   uuid.UUID `json:"partner_id"`
	PartnerName string    `json:"partner_name"`
	Assignments int       `json:"assignments"`
	Makes       []string  `json:"makes"`
	Deviation   float64   `json:"deviation"` // 与平均值的偏差百分比
}

// FairnessAnalyzer 分配公平性分析器
type FairnessAnalyzer struct {
	topN int
}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{topN: 3}
}

// Analyze 分析一周分配的公平性
// 统计对象是全部候选合作方，未获分配的也计入（零分配拉高集中度）
func (f *FairnessAnalyzer) Analyze(selected []model.SelectedAssignment, partners []*PartnerInfo) *FairnessMetrics {
	if len(selected) == 0 || len(partners) == 0 {
		return &FairnessMetrics{OverallFairnessScore: 100}
	}

	nameOf := make(map[uuid.UUID]string, len(partners))
	for _, p := range partners {
		nameOf[p.ID] = p.Name
	}

	counts := make(map[uuid.UUID]int)
	makesOf := make(map[uuid.UUID]map[string]bool)
	for i := range selected {
		s := &selected[i]
		counts[s.PartnerID]++
		if makesOf[s.PartnerID] == nil {
			makesOf[s.PartnerID] = make(map[string]bool)
		}
		makesOf[s.PartnerID][s.Make] = true
	}

	// 全体候选合作方的分配数向量
	values := make([]float64, 0, len(partners))
	statList := make([]PartnerStat, 0, len(partners))
	for _, p := range partners {
		n := counts[p.ID]
		values = append(values, float64(n))

		makes := make([]string, 0, len(makesOf[p.ID]))
		for mk := range makesOf[p.ID] {
			makes = append(makes, mk)
		}
		sort.Strings(makes)

		statList = append(statList, PartnerStat{
			PartnerID:   p.ID,
			PartnerName: nameOf[p.ID],
			Assignments: n,
			Makes:       makes,
		})
	}

	avg := mean(values)
	for i := range statList {
		if avg > 0 {
			statList[i].Deviation = (float64(statList[i].Assignments) - avg) / avg * 100
		}
	}

	sort.Slice(statList, func(i, j int) bool {
		if statList[i].Assignments != statList[j].Assignments {
			return statList[i].Assignments > statList[j].Assignments
		}
		return statList[i].PartnerID.String() < statList[j].PartnerID.String()
	})

	gini := Gini(values)
	topShare := f.topNShare(statList, len(selected))

	maxN, minN := statList[0].Assignments, statList[len(statList)-1].Assignments

	return &FairnessMetrics{
		AssignmentGini:       gini,
		TopNShare:            topShare,
		TopN:                 f.topN,
		AvgPerPartner:        avg,
		MaxPerPartner:        maxN,
		MinPerPartner:        minN,
		PartnerStats:         statList,
		OverallFairnessScore: f.overallScore(gini, topShare),
	}
}

// topNShare 前N个合作方占全部分配的比例
func (f *FairnessAnalyzer) topNShare(stats []PartnerStat, total int) float64 {
	if total == 0 {
		return 0
	}
	n := f.topN
	if n > len(stats) {
		n = len(stats)
	}
	top := 0
	for i := 0; i < n; i++ {
		top += stats[i].Assignments
	}
	return float64(top) / float64(total)
}

// overallScore 综合公平性评分
func (f *FairnessAnalyzer) overallScore(gini, topShare float64) float64 {
	const (
		giniWeight  = 0.6
		shareWeight = 0.4
	)
	score := giniWeight*(1-gini)*100 + shareWeight*(1-topShare)*100
	return math.Max(0, math.Min(100, score))
}

// Gini 计算基尼系数
func Gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}

	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}

// mean 计算平均值
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
