package optimizer

import (
	"math/rand"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/constraint"
)

// move 邻域移动：先取消 off 里的选择，再选入 on 里的下标
type move struct {
	off []int
	on  []int
}

// apply 应用移动
func (m *move) apply(selCtx *constraint.Context) {
	for _, i := range m.off {
		selCtx.Unselect(i)
	}
	for _, i := range m.on {
		selCtx.Select(i)
	}
}

// revert 撤销移动
func (m *move) revert(selCtx *constraint.Context) {
	for _, i := range m.on {
		selCtx.Unselect(i)
	}
	for _, i := range m.off {
		selCtx.Select(i)
	}
}

// neighborGenerator 邻域移动生成器
// 三类移动：翻入（选中一个未选的）、翻出（取消一个已选的）、
// 交换（取消一个已选的同时换入一个未选的）
// 随机性只来自注入的种子化随机源
type neighborGenerator struct {
	mgr *constraint.Manager
	rng *rand.Rand
}

func newNeighborGenerator(mgr *constraint.Manager, rng *rand.Rand) *neighborGenerator {
	return &neighborGenerator{mgr: mgr, rng: rng}
}

// next 在给定的尝试次数内生成一个硬约束可行的移动，失败返回 nil
func (g *neighborGenerator) next(selCtx *constraint.Context, attempts int) *move {
	n := len(selCtx.Triples)
	if n == 0 {
		return nil
	}

	for a := 0; a < attempts; a++ {
		switch g.rng.Intn(3) {
		case 0:
			if m := g.flipOn(selCtx); m != nil {
				return m
			}
		case 1:
			if m := g.flipOff(selCtx); m != nil {
				return m
			}
		default:
			if m := g.swap(selCtx); m != nil {
				return m
			}
		}
	}
	return nil
}

// flipOn 随机翻入一个硬约束可行的未选三元组
func (g *neighborGenerator) flipOn(selCtx *constraint.Context) *move {
	i := g.rng.Intn(len(selCtx.Triples))
	if selCtx.IsSelected(i) {
		return nil
	}
	if ok, _ := g.mgr.CanSelect(selCtx, i); !ok {
		return nil
	}
	return &move{on: []int{i}}
}

// flipOff 随机翻出一个已选三元组
func (g *neighborGenerator) flipOff(selCtx *constraint.Context) *move {
	selected := selCtx.SelectedIndexes()
	if len(selected) == 0 {
		return nil
	}
	i := selected[g.rng.Intn(len(selected))]
	return &move{off: []int{i}}
}

// swap 随机翻出一个已选的，再翻入一个腾出位置后可行的未选的
func (g *neighborGenerator) swap(selCtx *constraint.Context) *move {
	selected := selCtx.SelectedIndexes()
	if len(selected) == 0 {
		return nil
	}
	out := selected[g.rng.Intn(len(selected))]

	selCtx.Unselect(out)
	defer selCtx.Select(out)

	in := g.rng.Intn(len(selCtx.Triples))
	if in == out || selCtx.IsSelected(in) {
		return nil
	}
	if ok, _ := g.mgr.CanSelect(selCtx, in); !ok {
		return nil
	}
	return &move{off: []int{out}, on: []int{in}}
}
