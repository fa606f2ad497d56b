// Package model 定义排程引擎的核心数据模型
package model

// Vehicle 媒体试驾车
// 生命周期窗口为 [InService, TurnIn]，入库后不可变；排程核心只读取，不修改
type Vehicle struct {
	VIN        string `json:"vin" db:"vin"`
	Make       string `json:"make" db:"make"`
	Model      string `json:"model" db:"model"`
	Office     string `json:"office" db:"office"`
	Class      string `json:"class,omitempty" db:"class"`           // 车型分类（SUV/轿车等，可选）
	Powertrain string `json:"powertrain,omitempty" db:"powertrain"` // 动力类型（EV/HEV/ICE，可选）
	InService  string `json:"in_service" db:"in_service"`           // YYYY-MM-DD
	TurnIn     string `json:"turn_in" db:"turn_in"`                 // YYYY-MM-DD
}

// InLifecycle 检查日期是否落在车辆生命周期窗口内
func (v *Vehicle) InLifecycle(date string) bool {
	if v.InService != "" && date < v.InService {
		return false
	}
	if v.TurnIn != "" && date > v.TurnIn {
		return false
	}
	return true
}

// LifecycleCovers 检查从 start 起连续 days 天是否都在生命周期内
func (v *Vehicle) LifecycleCovers(start string, days int) bool {
	if !v.InLifecycle(start) {
		return false
	}
	end := AddDays(start, days-1)
	if end == "" {
		return false
	}
	return v.InLifecycle(end)
}

// AvailabilityGrid 车辆可用性网格（外部协作方产出，核心只读）
// 对每个 (vin, date) 表示"以该日为起点的整个贷出窗口是否不被打断"
type AvailabilityGrid map[string]map[string]bool

// Available 查询车辆某日是否可用
func (g AvailabilityGrid) Available(vin, date string) bool {
	days, ok := g[vin]
	if !ok {
		return false
	}
	return days[date]
}

// HasConsecutive 检查车辆从 start 起连续 days 天是否全部可用
func (g AvailabilityGrid) HasConsecutive(vin, start string, days int) bool {
	for i := 0; i < days; i++ {
		d := AddDays(start, i)
		if d == "" || !g.Available(vin, d) {
			return false
		}
	}
	return true
}

// CapacityRow 容量日历行（某办公室某日的起租位数）
type CapacityRow struct {
	Office string `json:"office" db:"office"`
	Date   string `json:"date" db:"date"`
	Slots  int    `json:"slots" db:"slots"`
	Note   string `json:"note,omitempty" db:"note"` // 如 "blackout"、"travel day"
}
