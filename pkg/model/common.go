// Package model 定义排程引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// DateFormat 统一日期格式 YYYY-MM-DD
const DateFormat = "2006-01-02"

// 合作方等级（按品牌审批的等级排名）
const (
	RankAPlus    = "A+"
	RankA        = "A"
	RankB        = "B"
	RankC        = "C"
	RankUnranked = "" // 未评级，使用保底权重
)

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JSONMap 用于存储 JSONB 数据
type JSONMap map[string]interface{}

// ParseDate 解析 YYYY-MM-DD 日期
func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateFormat, date)
}

// AddDays 日期加减天数，输入非法时返回空串
func AddDays(date string, days int) string {
	t, err := time.Parse(DateFormat, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, days).Format(DateFormat)
}

// DaysBetween 计算两个日期间的天数（end - start）
func DaysBetween(start, end string) int {
	s, err1 := time.Parse(DateFormat, start)
	e, err2 := time.Parse(DateFormat, end)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(e.Sub(s).Hours() / 24)
}

// IsWeekend 判断日期是否为周末
func IsWeekend(date string) bool {
	t, err := time.Parse(DateFormat, date)
	if err != nil {
		return false
	}
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsMonday 判断日期是否为周一（周排程的规范起始日）
func IsMonday(date string) bool {
	t, err := time.Parse(DateFormat, date)
	if err != nil {
		return false
	}
	return t.Weekday() == time.Monday
}

// QuarterOf 返回日期所在的年份和季度
func QuarterOf(date string) (year, quarter int) {
	t, err := time.Parse(DateFormat, date)
	if err != nil {
		return 0, 0
	}
	return t.Year(), (int(t.Month())-1)/3 + 1
}
