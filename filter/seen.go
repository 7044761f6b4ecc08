package filter

import (
	"context"
	"time"

	"github.com/recflow/recflow/core"
)

const seenSetParam = "_seen_products"

// Seen 过滤用户近期已点击过的商品，避免个性化结果反复推已看内容。
// 点击集合在每个请求内只加载一次，缓存在 rctx.Params（rctx 为单请求作用域）。
type Seen struct {
	EventLog core.EventLog
	Window   time.Duration // 默认 7 天
}

func (f *Seen) Name() string {
	return "filter.seen"
}

func (f *Seen) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx == nil || rctx.UserID == "" {
		return false, nil
	}

	seen, ok := rctx.Params[seenSetParam].(map[string]struct{})
	if !ok {
		var err error
		seen, err = f.loadSeen(ctx, rctx.UserID)
		if err != nil {
			return false, err
		}
		rctx.Params[seenSetParam] = seen
	}

	_, clicked := seen[item.ID]
	return clicked, nil
}

func (f *Seen) loadSeen(ctx context.Context, userID string) (map[string]struct{}, error) {
	window := f.Window
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	events, err := f.EventLog.Recent(ctx, userID, window)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if ev.EventType == core.EventClick && ev.ProductID != "" {
			seen[ev.ProductID] = struct{}{}
		}
	}
	return seen, nil
}

var _ Filter = (*Seen)(nil)
