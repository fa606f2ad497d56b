// Package calendar 实现容量日历（各办公室每日起租位上限）
package calendar

import (
	"fmt"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/errors"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

// Defaults 某办公室在没有显式日历行时的默认起租位数
type Defaults struct {
	WeekdaySlots int `json:"weekday_slots" yaml:"weekday_slots"`
	WeekendSlots int `json:"weekend_slots" yaml:"weekend_slots"`
}

// Calendar 容量日历
// 纯查询结构，构建后只读；每次排程运行持有自己的副本，无跨运行共享状态
type Calendar struct {
	rows     map[string]map[string]model.CapacityRow // office -> date -> 显式行
	defaults map[string]Defaults                     // office -> 默认值
	skipped  int                                     // 构建时跳过的坏行数
}

// New 从日历行和各办公室默认值构建容量日历
// 负容量属于运行级配置错误，直接失败；单条坏日期行跳过计数，不致命
func New(rows []model.CapacityRow, defaults map[string]Defaults) (*Calendar, error) {
	c := &Calendar{
		rows:     make(map[string]map[string]model.CapacityRow),
		defaults: make(map[string]Defaults, len(defaults)),
	}

	for office, d := range defaults {
		if d.WeekdaySlots < 0 || d.WeekendSlots < 0 {
			return nil, errors.InvalidConfiguration("defaults",
				fmt.Sprintf("办公室 '%s' 的默认容量不能为负", office))
		}
		c.defaults[office] = d
	}

	for _, row := range rows {
		if row.Slots < 0 {
			return nil, errors.InvalidConfiguration("capacity_rows",
				fmt.Sprintf("办公室 '%s' 日期 '%s' 的容量不能为负", row.Office, row.Date))
		}
		if _, err := model.ParseDate(row.Date); err != nil {
			c.skipped++
			continue
		}
		if c.rows[row.Office] == nil {
			c.rows[row.Office] = make(map[string]model.CapacityRow)
		}
		c.rows[row.Office][row.Date] = row
	}

	return c, nil
}

// CapacityFor 查询某办公室某日的起租位数
// 显式行优先；无显式行时按工作日/周末默认值回退；未知办公室按零容量处理（保守失败）
func (c *Calendar) CapacityFor(office, date string) (int, string, error) {
	if _, err := model.ParseDate(date); err != nil {
		return 0, "", errors.InvalidDate(date)
	}

	if byDate, ok := c.rows[office]; ok {
		if row, ok := byDate[date]; ok {
			return row.Slots, row.Note, nil
		}
	}

	d, ok := c.defaults[office]
	if !ok {
		return 0, "", nil
	}
	if model.IsWeekend(date) {
		return d.WeekendSlots, "", nil
	}
	return d.WeekdaySlots, "", nil
}

// WeekSlots 统计从 weekStart 起连续 days 天的总起租位数（诊断用）
func (c *Calendar) WeekSlots(office, weekStart string, days int) int {
	total := 0
	for i := 0; i < days; i++ {
		d := model.AddDays(weekStart, i)
		if d == "" {
			continue
		}
		slots, _, err := c.CapacityFor(office, d)
		if err != nil {
			continue
		}
		total += slots
	}
	return total
}

// SkippedRows 返回构建时跳过的坏行数
func (c *Calendar) SkippedRows() int {
	return c.skipped
}
