// Package scorer 实现三元组综合打分
package scorer

import (
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

// 默认打分参数
// 平手打破项被限制在 [0, tieBound)，严格小于最小等级差（20），
// 只能在同分之间排序，永远不会跨越等级或加分项的粗粒度排序
const (
	DefaultGeoBonus = 15
	DefaultPubBonus = 12
	tieBound        = 10
)

// DefaultRankWeights 默认等级权重表（未评级使用保底权重）
func DefaultRankWeights() map[string]int {
	return map[string]int{
		model.RankAPlus:    100,
		model.RankA:        80,
		model.RankB:        60,
		model.RankC:        40,
		model.RankUnranked: 20,
	}
}

// Config 打分配置
type Config struct {
	RankWeights map[string]int `json:"rank_weights" yaml:"rank_weights"`
	GeoBonus    int            `json:"geo_bonus" yaml:"geo_bonus"`
	PubBonus    int            `json:"pub_bonus" yaml:"pub_bonus"`
	Seed        int64          `json:"seed" yaml:"seed"`
}

// DefaultConfig 返回默认打分配置
func DefaultConfig(seed int64) Config {
	return Config{
		RankWeights: DefaultRankWeights(),
		GeoBonus:    DefaultGeoBonus,
		PubBonus:    DefaultPubBonus,
		Seed:        seed,
	}
}

type pubKey struct {
	partnerID uuid.UUID
	make      string
}

// Scorer 三元组打分器
// 纯函数式：相同输入和种子总是产出相同分数
type Scorer struct {
	cfg       Config
	published map[pubKey]bool // (partner, make) 是否有过已发表的贷出
}

// New 从打分配置和贷出历史创建打分器
func New(cfg Config, history []model.LoanRecord) *Scorer {
	s := &Scorer{
		cfg:       cfg,
		published: make(map[pubKey]bool),
	}
	if s.cfg.RankWeights == nil {
		s.cfg.RankWeights = DefaultRankWeights()
	}
	for i := range history {
		r := &history[i]
		if r.Published && r.PartnerID != uuid.Nil && r.Make != "" {
			s.published[pubKey{partnerID: r.PartnerID, make: r.Make}] = true
		}
	}
	return s
}

// rankWeight 查询等级权重，未知等级落到未评级保底
func (s *Scorer) rankWeight(rank string) int {
	if w, ok := s.cfg.RankWeights[rank]; ok {
		return w
	}
	return s.cfg.RankWeights[model.RankUnranked]
}

// HasPublished 检查合作方对某品牌是否有已发表的历史贷出
func (s *Scorer) HasPublished(partnerID uuid.UUID, make string) bool {
	return s.published[pubKey{partnerID: partnerID, make: make}]
}

// Score 对单个三元组打分
func (s *Scorer) Score(t *model.FeasibleTriple) model.ScoredTriple {
	st := model.ScoredTriple{FeasibleTriple: *t}

	st.RankScore = s.rankWeight(t.Rank)
	if t.GeoMatch {
		st.GeoBonus = s.cfg.GeoBonus
	}
	if s.HasPublished(t.PartnerID, t.Make) {
		st.PubBonus = s.cfg.PubBonus
	}
	st.TieValue = tieValue(t.Model, t.VIN, s.cfg.Seed)
	st.Score = st.RankScore + st.GeoBonus + st.PubBonus + st.TieValue
	return st
}

// ScoreAll 对整个序列打分，保持输入顺序
func (s *Scorer) ScoreAll(triples []model.FeasibleTriple) []model.ScoredTriple {
	scored := make([]model.ScoredTriple, 0, len(triples))
	for i := range triples {
		scored = append(scored, s.Score(&triples[i]))
	}
	return scored
}

// tieValue 由车型、VIN和种子派生的确定性小扰动
func tieValue(vehicleModel, vin string, seed int64) int {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d", vehicleModel, vin, seed)
	return int(h.Sum64() % tieBound)
}
