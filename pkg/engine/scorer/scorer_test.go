package scorer

import (
	"testing"

	"github.com/google/uuid"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

var (
	partner1 = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	partner2 = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func TestScorer_RankWeights(t *testing.T) {
	s := New(DefaultConfig(42), nil)

	tests := []struct {
		name string
		rank string
		want int
	}{
		{"A+等级", model.RankAPlus, 100},
		{"A等级", model.RankA, 80},
		{"B等级", model.RankB, 60},
		{"C等级", model.RankC, 40},
		{"未评级保底", model.RankUnranked, 20},
		{"未知等级落到保底", "Z", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := model.FeasibleTriple{VIN: "VIN001", PartnerID: partner1, Make: "Toyota", Model: "Camry", Rank: tt.rank}
			st := s.Score(&tr)
			if st.RankScore != tt.want {
				t.Errorf("RankScore = %d, expected %d", st.RankScore, tt.want)
			}
		})
	}
}

func TestScorer_Bonuses(t *testing.T) {
	history := []model.LoanRecord{
		{PartnerID: partner1, Make: "Toyota", Model: "Camry", EndDate: "2026-01-10", Published: true},
		{PartnerID: partner2, Make: "Toyota", Model: "Camry", EndDate: "2026-01-10", Published: false},
	}
	s := New(DefaultConfig(42), history)

	// 地理匹配 + 有发表历史
	tr := model.FeasibleTriple{VIN: "VIN001", PartnerID: partner1, Make: "Toyota", Model: "Camry", Rank: model.RankA, GeoMatch: true}
	st := s.Score(&tr)
	if st.GeoBonus != DefaultGeoBonus {
		t.Errorf("GeoBonus = %d, expected %d", st.GeoBonus, DefaultGeoBonus)
	}
	if st.PubBonus != DefaultPubBonus {
		t.Errorf("PubBonus = %d, expected %d", st.PubBonus, DefaultPubBonus)
	}

	// 未发表的历史不给加分
	tr2 := model.FeasibleTriple{VIN: "VIN001", PartnerID: partner2, Make: "Toyota", Model: "Camry", Rank: model.RankA}
	st2 := s.Score(&tr2)
	if st2.PubBonus != 0 {
		t.Errorf("Unpublished history should not earn bonus, got %d", st2.PubBonus)
	}
	if st2.GeoBonus != 0 {
		t.Errorf("No geo match should not earn bonus, got %d", st2.GeoBonus)
	}
}

func TestScorer_TieBreakBounded(t *testing.T) {
	s := New(DefaultConfig(7), nil)

	// 平手项必须严格小于最小等级差，保证永远只打破平手
	vins := []string{"VIN001", "VIN002", "VIN003", "VIN004", "VIN005"}
	for _, vin := range vins {
		tr := model.FeasibleTriple{VIN: vin, PartnerID: partner1, Make: "Toyota", Model: "Camry", Rank: model.RankC}
		st := s.Score(&tr)
		if st.TieValue < 0 || st.TieValue >= 10 {
			t.Errorf("TieValue = %d, expected within [0, 10)", st.TieValue)
		}
	}
}

func TestScorer_Deterministic(t *testing.T) {
	history := []model.LoanRecord{
		{PartnerID: partner1, Make: "Toyota", Model: "Camry", EndDate: "2026-01-10", Published: true},
	}
	tr := model.FeasibleTriple{VIN: "VIN001", PartnerID: partner1, Make: "Toyota", Model: "Camry", Rank: model.RankB, GeoMatch: true}

	a := New(DefaultConfig(42), history).Score(&tr)
	b := New(DefaultConfig(42), history).Score(&tr)
	if a != b {
		t.Errorf("Same inputs and seed must score identically: %+v vs %+v", a, b)
	}

	// 分数单调于等级且非负
	if a.Score <= 0 {
		t.Errorf("Score should be positive, got %d", a.Score)
	}
	trHigher := tr
	trHigher.Rank = model.RankAPlus
	if got := New(DefaultConfig(42), history).Score(&trHigher); got.Score <= a.Score {
		t.Errorf("Higher rank must outscore lower rank: %d vs %d", got.Score, a.Score)
	}
}
