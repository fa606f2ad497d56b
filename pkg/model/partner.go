// Package model 定义排程引擎的核心数据模型
package model

import "time"

// Partner 媒体合作方
// 核心的不可变输入；品牌审批与起租日限制均在此声明
type Partner struct {
	BaseModel
	Name   string `json:"name" db:"name"`
	Office string `json:"office" db:"office"`

	// 品牌审批：make -> 等级排名（A+/A/B/C），无审批即无资格（不存在隐式回退）
	Approvals map[string]string `json:"approvals" db:"-"`

	// 声明的服务区域（办公室编码列表），用于地理匹配加分
	ServiceRegion []string `json:"service_region,omitempty" db:"-"`

	// 允许的起租星期（为空表示不限制）
	AllowedStartWeekdays []time.Weekday `json:"allowed_start_weekdays,omitempty" db:"-"`
}

// ApprovedFor 检查合作方是否获得某品牌的审批，返回等级排名
func (p *Partner) ApprovedFor(make string) (string, bool) {
	rank, ok := p.Approvals[make]
	return rank, ok
}

// CanStartOn 检查某星期是否允许作为起租日
func (p *Partner) CanStartOn(wd time.Weekday) bool {
	if len(p.AllowedStartWeekdays) == 0 {
		return true
	}
	for _, w := range p.AllowedStartWeekdays {
		if w == wd {
			return true
		}
	}
	return false
}

// InRegion 检查某办公室是否在合作方声明的服务区域内
func (p *Partner) InRegion(office string) bool {
	for _, o := range p.ServiceRegion {
		if o == office {
			return true
		}
	}
	return false
}

// GeoMatches 检查合作方与车辆办公室是否地理匹配
func (p *Partner) GeoMatches(vehicleOffice string) bool {
	return p.Office == vehicleOffice || p.InRegion(vehicleOffice)
}
