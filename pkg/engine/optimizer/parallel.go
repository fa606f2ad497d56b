package optimizer

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/constraint"
)

// optimizeParallel 多起点并行搜索
// 每个工作者用派生种子独立搜索自己的上下文克隆；胜者按
// (目标值降序, 选择字典序键升序) 裁决，保证相同种子与工作者数下结果确定
func (o *Optimizer) optimizeParallel(ctx context.Context, selCtx *constraint.Context, start time.Time) (*Result, error) {
	type workerOut struct {
		result *Result
		ctx    *constraint.Context
	}

	outs := make([]workerOut, o.cfg.Workers)
	var wg sync.WaitGroup

	for w := 0; w < o.cfg.Workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			clone := selCtx.Clone()
			seed := deriveSeed(o.cfg.Seed, w)
			r, err := o.optimizeSingle(ctx, clone, seed, start)
			if err != nil {
				return
			}
			outs[w] = workerOut{result: r, ctx: clone}
		}(w)
	}
	wg.Wait()

	var winner *workerOut
	for w := range outs {
		if outs[w].result == nil {
			continue
		}
		if winner == nil {
			winner = &outs[w]
			continue
		}
		a, b := outs[w].result, winner.result
		if a.Objective > b.Objective ||
			(a.Objective == b.Objective && outs[w].ctx.SelectionKey() < winner.ctx.SelectionKey()) {
			winner = &outs[w]
		}
	}

	if winner == nil {
		return o.finish(selCtx, StatusInfeasible, 0, start), nil
	}

	restore(selCtx, winner.ctx.Selected)
	out := *winner.result
	out.Indexes = selCtx.SelectedIndexes()
	out.Duration = time.Since(start)
	return &out, nil
}

// deriveSeed 为工作者派生独立种子
func deriveSeed(seed int64, worker int) int64 {
	h := fnv.New64a()
	var buf [16]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(seed >> (8 * i))
	}
	for i := 0; i < 8; i++ {
		buf[8+i] = byte(worker >> (8 * i))
	}
	h.Write(buf[:])
	return int64(h.Sum64())
}
