// Package cooldown 实现冷却期过滤（同一合作方近期借过同款车则暂不再借）
package cooldown

import (
	"github.com/google/uuid"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

// 冷却判定依据（命中的账本层级）
const (
	BasisModel = "model" // 命中精确车型记录
	BasisMake  = "make"  // 回退到品牌级记录
	BasisNone  = "none"  // 无任何历史，天然通过
)

type ledgerKey struct {
	partnerID uuid.UUID
	key       string // 车型名或品牌名
}

// Ledger 冷却账本
// 每次运行从完整贷出历史构建一次，之后只读
type Ledger struct {
	byModel map[ledgerKey]string // (partner, model) -> 最近结束日
	byMake  map[ledgerKey]string // (partner, make) -> 最近结束日
	skipped int                  // 构建时跳过的坏记录数
}

// BuildLedger 从贷出历史构建冷却账本
// 每条历史同时登记车型键和品牌键，各自保留最近的结束日；坏记录跳过计数
func BuildLedger(history []model.LoanRecord) *Ledger {
	l := &Ledger{
		byModel: make(map[ledgerKey]string),
		byMake:  make(map[ledgerKey]string),
	}

	for i := range history {
		r := &history[i]
		if !r.Valid() {
			l.skipped++
			continue
		}

		if r.Model != "" {
			mk := ledgerKey{partnerID: r.PartnerID, key: r.Model}
			if prev, ok := l.byModel[mk]; !ok || r.EndDate > prev {
				l.byModel[mk] = r.EndDate
			}
		}

		bk := ledgerKey{partnerID: r.PartnerID, key: r.Make}
		if prev, ok := l.byMake[bk]; !ok || r.EndDate > prev {
			l.byMake[bk] = r.EndDate
		}
	}

	return l
}

// LastEnd 查询最近结束日，按车型优先、品牌回退的顺序，返回命中的层级
func (l *Ledger) LastEnd(partnerID uuid.UUID, vehicleModel, make string) (string, string) {
	if vehicleModel != "" {
		if end, ok := l.byModel[ledgerKey{partnerID: partnerID, key: vehicleModel}]; ok {
			return end, BasisModel
		}
	}
	if end, ok := l.byMake[ledgerKey{partnerID: partnerID, key: make}]; ok {
		return end, BasisMake
	}
	return "", BasisNone
}

// SkippedRecords 返回构建时跳过的坏记录数
func (l *Ledger) SkippedRecords() int {
	return l.skipped
}
