// Package diagnose 提供未用容量的瓶颈归因诊断
package diagnose

import (
	"sort"

	"github.com/google/uuid"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/calendar"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

// Bottleneck 瓶颈类型
type Bottleneck string

const (
	BottleneckNone               Bottleneck = "none"                  // 该日容量填满
	BottleneckNoCapacity         Bottleneck = "no_capacity"           // 封锁日（零容量）
	BottleneckNoFeasibleTriples  Bottleneck = "no_feasible_triples"   // 无任何可行三元组
	BottleneckFewVehicles        Bottleneck = "insufficient_vehicles" // 可行车辆不足
	BottleneckFewPartners        Bottleneck = "insufficient_partners" // 合规合作方不足（受同日限制）
	BottleneckOptimizerDeclined  Bottleneck = "optimizer_declined"    // 容量与三元组都够，软惩罚主导
)

// DailyDiagnostic 单日诊断
type DailyDiagnostic struct {
	Date            string     `json:"date"`
	Slots           int        `json:"slots"`
	Note            string     `json:"note,omitempty"`
	FeasibleTriples int        `json:"feasible_triples"`
	UniqueVehicles  int        `json:"unique_vehicles"`
	UniquePartners  int        `json:"unique_partners"`
	Selected        int        `json:"selected"`
	EmptySlots      int        `json:"empty_slots"`
	Bottleneck      Bottleneck `json:"bottleneck"`
}

// BottleneckSummary 瓶颈汇总（按可归因的空位数排名）
type BottleneckSummary struct {
	Bottleneck Bottleneck `json:"bottleneck"`
	EmptySlots int        `json:"empty_slots"`
	Days       int        `json:"days"`
	Rank       int        `json:"rank"`
}

// Report 诊断报告
type Report struct {
	Office             string              `json:"office"`
	WeekStart          string              `json:"week_start"`
	Daily              []DailyDiagnostic   `json:"daily"`
	PrimaryBottlenecks []BottleneckSummary `json:"primary_bottlenecks"`
	Recommendations    []Recommendation    `json:"recommendations"`
}

// Config 诊断配置
type Config struct {
	Office    string
	WeekStart string
	Days      int // 诊断覆盖的天数（候选起租日数）
	// 每个合作方每日的同日上限，用于判断合作方不足
	PerPartnerPerDay int
}

// Engine 诊断引擎
// 只读组件：解释选择结果，绝不修改它
type Engine struct {
	cal *calendar.Calendar
	cfg Config
}

// New 创建诊断引擎
func New(cal *calendar.Calendar, cfg Config) *Engine {
	if cfg.PerPartnerPerDay < 1 {
		cfg.PerPartnerPerDay = 1
	}
	return &Engine{cal: cal, cfg: cfg}
}

// Explain 对一周的每个候选起租日做瓶颈归因
// 输入是完整可行集（冷却过滤前后由调用方决定）和最终选择
func (e *Engine) Explain(feasible []model.FeasibleTriple, selected []model.SelectedAssignment) *Report {
	report := &Report{
		Office:    e.cfg.Office,
		WeekStart: e.cfg.WeekStart,
		Daily:     make([]DailyDiagnostic, 0, e.cfg.Days),
	}

	feasByDay := make(map[string][]*model.FeasibleTriple)
	for i := range feasible {
		t := &feasible[i]
		feasByDay[t.StartDay] = append(feasByDay[t.StartDay], t)
	}
	selByDay := make(map[string]int)
	for i := range selected {
		selByDay[selected[i].LoanStart]++
	}

	for offset := 0; offset < e.cfg.Days; offset++ {
		date := model.AddDays(e.cfg.WeekStart, offset)
		if date == "" {
			continue
		}
		slots, note, err := e.cal.CapacityFor(e.cfg.Office, date)
		if err != nil {
			continue
		}

		d := DailyDiagnostic{
			Date:            date,
			Slots:           slots,
			Note:            note,
			FeasibleTriples: len(feasByDay[date]),
			Selected:        selByDay[date],
		}

		vins := make(map[string]bool)
		partners := make(map[uuid.UUID]bool)
		for _, t := range feasByDay[date] {
			vins[t.VIN] = true
			partners[t.PartnerID] = true
		}
		d.UniqueVehicles = len(vins)
		d.UniquePartners = len(partners)

		d.EmptySlots = slots - d.Selected
		if d.EmptySlots < 0 {
			d.EmptySlots = 0
		}
		d.Bottleneck = e.classify(&d)

		report.Daily = append(report.Daily, d)
	}

	report.PrimaryBottlenecks = summarize(report.Daily)
	report.Recommendations = recommend(report)
	return report
}

// classify 把单日空位归因到一个瓶颈
func (e *Engine) classify(d *DailyDiagnostic) Bottleneck {
	switch {
	case d.Slots == 0:
		return BottleneckNoCapacity
	case d.EmptySlots == 0:
		return BottleneckNone
	case d.FeasibleTriples == 0:
		return BottleneckNoFeasibleTriples
	case d.UniqueVehicles < d.Slots:
		return BottleneckFewVehicles
	case d.UniquePartners*e.cfg.PerPartnerPerDay < d.Slots:
		return BottleneckFewPartners
	default:
		// 容量和三元组都够：优化器因软惩罚放弃填充
		return BottleneckOptimizerDeclined
	}
}

// summarize 按可归因空位数对瓶颈排名
func summarize(daily []DailyDiagnostic) []BottleneckSummary {
	agg := make(map[Bottleneck]*BottleneckSummary)
	for i := range daily {
		d := &daily[i]
		if d.Bottleneck == BottleneckNone || d.Bottleneck == BottleneckNoCapacity {
			continue
		}
		s, ok := agg[d.Bottleneck]
		if !ok {
			s = &BottleneckSummary{Bottleneck: d.Bottleneck}
			agg[d.Bottleneck] = s
		}
		s.EmptySlots += d.EmptySlots
		s.Days++
	}

	out := make([]BottleneckSummary, 0, len(agg))
	for _, s := range agg {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmptySlots != out[j].EmptySlots {
			return out[i].EmptySlots > out[j].EmptySlots
		}
		return out[i].Bottleneck < out[j].Bottleneck
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
