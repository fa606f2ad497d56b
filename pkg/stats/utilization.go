package stats

import (
	"sort"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

// UtilizationMetrics 容量利用率指标
type UtilizationMetrics struct {
	// 整体填充率
	TotalSlots    int     `json:"total_slots"`    // 一周总起租位数
	FilledSlots   int     `json:"filled_slots"`   // 已填充起租位数
	OverallFill   float64 `json:"overall_fill"`   // 整体填充率 (%)
	FleetVehicles int     `json:"fleet_vehicles"` // 车队规模
	UsedVehicles  int     `json:"used_vehicles"`  // 被借出的车辆数
	FleetFill     float64 `json:"fleet_fill"`     // 车队利用率 (%)

	// 按日期统计
	DailyFill []DayFill `json:"daily_fill"`

	// 按品牌统计
	MakeFill map[string]int `json:"make_fill"` // 各品牌借出数
}

// DayFill 每日填充情况
type DayFill struct {
	Date     string  `json:"date"`
	Slots    int     `json:"slots"`
	Filled   int     `json:"filled"`
	FillRate float64 `json:"fill_rate"`
}

// UtilizationAnalyzer 容量利用率分析器
type UtilizationAnalyzer struct{}

// NewUtilizationAnalyzer 创建利用率分析器
func NewUtilizationAnalyzer() *UtilizationAnalyzer {
	return &UtilizationAnalyzer{}
}

// Analyze 分析一周的容量利用率
// slotsByDay 是容量日历在各候选起租日的起租位数
func (u *UtilizationAnalyzer) Analyze(
	selected []model.SelectedAssignment,
	slotsByDay map[string]int,
	fleetSize int,
) *UtilizationMetrics {
	m := &UtilizationMetrics{
		FleetVehicles: fleetSize,
		MakeFill:      make(map[string]int),
	}

	filledByDay := make(map[string]int)
	vins := make(map[string]bool)
	for i := range selected {
		s := &selected[i]
		filledByDay[s.LoanStart]++
		vins[s.VIN] = true
		m.MakeFill[s.Make]++
	}
	m.UsedVehicles = len(vins)
	m.FilledSlots = len(selected)

	days := make([]string, 0, len(slotsByDay))
	for d := range slotsByDay {
		days = append(days, d)
	}
	sort.Strings(days)

	for _, d := range days {
		slots := slotsByDay[d]
		filled := filledByDay[d]
		m.TotalSlots += slots

		rate := 0.0
		if slots > 0 {
			rate = float64(filled) / float64(slots) * 100
		}
		m.DailyFill = append(m.DailyFill, DayFill{
			Date:     d,
			Slots:    slots,
			Filled:   filled,
			FillRate: rate,
		})
	}

	if m.TotalSlots > 0 {
		m.OverallFill = float64(m.FilledSlots) / float64(m.TotalSlots) * 100
	}
	if fleetSize > 0 {
		m.FleetFill = float64(m.UsedVehicles) / float64(fleetSize) * 100
	}
	return m
}
