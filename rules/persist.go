package rules

import (
	"context"
	"encoding/json"

	"github.com/recflow/recflow/core"
)

// tableKey 是规则表快照在 KV 存储里的键。
const tableKey = "rules:table"

// SaveTable 把引擎当前规则表以 JSON 快照写入存储，
// 进程重启后可先恢复旧表再等下一轮挖掘。
func SaveTable(ctx context.Context, store core.Store, engine *Engine) error {
	data, err := json.Marshal(engine.Rules())
	if err != nil {
		return core.NewDomainError(core.ModuleRules, core.ErrorCodeInternalError,
			"rules: encode table snapshot: "+err.Error())
	}
	return store.Set(ctx, tableKey, data)
}

// LoadTable 从存储恢复规则表快照并发布到引擎。
// 没有快照不算错误，返回 false 且引擎保持当前表。
func LoadTable(ctx context.Context, store core.Store, engine *Engine) (bool, error) {
	data, err := store.Get(ctx, tableKey)
	if core.IsStoreNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return false, core.NewDomainError(core.ModuleRules, core.ErrorCodeInternalError,
			"rules: decode table snapshot: "+err.Error())
	}
	engine.Publish(rules)
	return true, nil
}
