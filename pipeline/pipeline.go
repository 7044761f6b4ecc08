package pipeline

import (
	"context"
	"time"

	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/pkg/metric"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链，顺序执行。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		metric.Timing("pipeline.node.duration", time.Since(start),
			[]string{"node:" + node.Name(), "kind:" + string(node.Kind())})
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
