// Package feasible 实现可行三元组生成（车辆 × 合作方 × 起租日）
package feasible

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/calendar"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/errors"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

// Config 可行性生成配置
type Config struct {
	Office             string `json:"office" yaml:"office"`
	WeekStart          string `json:"week_start" yaml:"week_start"` // YYYY-MM-DD，必须为周一
	CandidateStartDays int    `json:"candidate_start_days" yaml:"candidate_start_days"`
	MinConsecutiveDays int    `json:"min_consecutive_days" yaml:"min_consecutive_days"`
	Seed               int64  `json:"seed" yaml:"seed"`
}

// Validate 校验生成配置
func (c *Config) Validate() error {
	if c.Office == "" {
		return errors.InvalidConfiguration("office", "不能为空")
	}
	if _, err := model.ParseDate(c.WeekStart); err != nil {
		return errors.InvalidDate(c.WeekStart)
	}
	if !model.IsMonday(c.WeekStart) {
		return errors.InvalidConfiguration("week_start", "必须是周一")
	}
	if c.CandidateStartDays < 1 || c.CandidateStartDays > 7 {
		return errors.InvalidConfiguration("candidate_start_days", "必须在 1 到 7 之间")
	}
	if c.MinConsecutiveDays < 1 {
		return errors.InvalidConfiguration("min_consecutive_days", "必须为正")
	}
	return nil
}

// Generator 可行三元组生成器
type Generator struct {
	cal *calendar.Calendar
	cfg Config
}

// NewGenerator 创建可行三元组生成器
func NewGenerator(cal *calendar.Calendar, cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{cal: cal, cfg: cfg}, nil
}

// Generate 生成本周的全部可行三元组
// 每个产出的三元组都满足：起租日容量非零、车辆生命周期与可用性覆盖整个贷出窗口、
// 合作方有该品牌的显式审批（无隐式回退）、起租星期在合作方允许范围内
// 输出按 (起租日, VIN, 合作方, 平手键) 排序，排序是正确性要求而非便利
func (g *Generator) Generate(
	vehicles []model.Vehicle,
	partners []model.Partner,
	avail model.AvailabilityGrid,
) ([]model.FeasibleTriple, error) {
	triples := []model.FeasibleTriple{}

	for offset := 0; offset < g.cfg.CandidateStartDays; offset++ {
		day := model.AddDays(g.cfg.WeekStart, offset)
		if day == "" {
			continue
		}

		slots, _, err := g.cal.CapacityFor(g.cfg.Office, day)
		if err != nil {
			return nil, err
		}
		if slots == 0 {
			// 封锁日：整天跳过
			continue
		}

		wd, _ := model.ParseDate(day)
		weekday := wd.Weekday()

		for vi := range vehicles {
			v := &vehicles[vi]
			if v.Office != g.cfg.Office {
				continue
			}
			if !v.InLifecycle(day) || !v.LifecycleCovers(day, g.cfg.MinConsecutiveDays) {
				continue
			}
			if !avail.HasConsecutive(v.VIN, day, g.cfg.MinConsecutiveDays) {
				continue
			}

			for pi := range partners {
				p := &partners[pi]
				rank, ok := p.ApprovedFor(v.Make)
				if !ok {
					continue
				}
				if !p.CanStartOn(weekday) {
					continue
				}

				triples = append(triples, model.FeasibleTriple{
					VIN:        v.VIN,
					PartnerID:  p.ID,
					StartDay:   day,
					Make:       v.Make,
					Model:      v.Model,
					Office:     v.Office,
					Rank:       rank,
					Class:      v.Class,
					Powertrain: v.Powertrain,
					GeoMatch:   p.GeoMatches(v.Office),
					TieBreak:   tieBreakKey(v.VIN, p.ID.String(), day, g.cfg.Seed),
				})
			}
		}
	}

	sort.Slice(triples, func(i, j int) bool {
		a, b := &triples[i], &triples[j]
		if a.StartDay != b.StartDay {
			return a.StartDay < b.StartDay
		}
		if a.VIN != b.VIN {
			return a.VIN < b.VIN
		}
		if a.PartnerID != b.PartnerID {
			return a.PartnerID.String() < b.PartnerID.String()
		}
		return a.TieBreak < b.TieBreak
	})

	return triples, nil
}

// tieBreakKey 由 (vin, 合作方, 日期, 种子) 派生的稳定平手键
func tieBreakKey(vin, partnerID, day string, seed int64) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%d", vin, partnerID, day, seed)
	return h.Sum64()
}
