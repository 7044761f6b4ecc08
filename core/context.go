package core

import "github.com/recflow/recflow/pkg/utils"

// RecommendContext 承载用户/场景/请求信息，贯穿整个请求链路透传。
type RecommendContext struct {
	UserID string // 使用 string 类型（通用，支持所有 ID 格式）
	Scene  string // home / product / search

	// Labels 是用户级标签，可驱动整个链路行为
	// 例如：冷启动用户、价格敏感等
	Labels map[string]utils.Label

	// Params 请求级上下文参数，包含：
	// - 请求参数：query, anchor_product_id, limit 等
	// - 降级标记：fallback_reason 等
	Params map[string]any
}

func NewRecommendContext(userID, scene string) *RecommendContext {
	return &RecommendContext{
		UserID: userID,
		Scene:  scene,
		Params: make(map[string]any),
	}
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// ParamString 读取字符串参数，不存在或类型不符时返回空串。
func (rctx *RecommendContext) ParamString(key string) string {
	if rctx == nil || rctx.Params == nil {
		return ""
	}
	if v, ok := rctx.Params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ParamInt 读取整数参数，不存在或类型不符时返回默认值。
func (rctx *RecommendContext) ParamInt(key string, def int) int {
	if rctx == nil || rctx.Params == nil {
		return def
	}
	switch v := rctx.Params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}
