package filter

import (
	"context"

	"github.com/recflow/recflow/core"
)

// Blacklist 过滤运营下架/屏蔽的商品。
// 名单来自内存列表或存储集合（两者可同时配置）。
type Blacklist struct {
	// ProductIDs 是内存中的黑名单商品 ID 列表
	ProductIDs []string

	// Store 用于从存储集合读取黑名单（可选）
	Store core.KeyValueStore

	// Key 是 Store 中的黑名单集合 key（可选）
	Key string
}

func (f *Blacklist) Name() string {
	return "filter.blacklist"
}

func (f *Blacklist) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	for _, id := range f.ProductIDs {
		if item.ID == id {
			return true, nil
		}
	}

	if f.Store != nil && f.Key != "" {
		blocked, err := f.Store.SMembers(ctx, f.Key)
		if err == nil {
			for _, id := range blocked {
				if item.ID == id {
					return true, nil
				}
			}
		}
	}

	return false, nil
}

var _ Filter = (*Blacklist)(nil)
