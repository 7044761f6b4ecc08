package filter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/recflow/recflow/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Expr 是 CEL (Common Expression Language) 表达式过滤器。
// 表达式在构造时编译一次，请求路径上只做求值；
// 表达式返回 true 表示该商品被剔除。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：label.recall_source == "trending"
//   - 数值：item.score < 0.1
//   - 逻辑：label.category == "Watches" && item.score < 0.5
//   - 包含：label.recall_source.contains("search")
//
// 示例：
//   - `item.score < 0.05` → 剔除低分候选
//   - `rctx.scene == "home" && label.recall_source == "search"` → 首页剔除搜索召回
type Expr struct {
	expr string
	prg  cel.Program
}

// NewExpr 编译表达式并返回过滤器，表达式非法时报错。
func NewExpr(expr string) (*Expr, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile expression: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build program: %w", err)
	}
	return &Expr{expr: expr, prg: prg}, nil
}

func (f *Expr) Name() string {
	return "filter.expr"
}

func (f *Expr) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	out, _, err := f.prg.Eval(buildInput(rctx, item))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", f.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", f.expr, out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据。
// label 提供顶层快捷访问（label.recall_source 直接取 value）；
// 访问不存在的 key 会报错，用 label.key != null 检查存在性。
func buildInput(rctx *core.RecommendContext, it *core.Item) map[string]interface{} {
	labels := make(map[string]interface{}, len(it.Labels))
	for k, v := range it.Labels {
		labels[k] = v.Value
	}

	input := map[string]interface{}{
		"item": map[string]interface{}{
			"id":    it.ID,
			"score": it.Score,
			"meta":  it.Meta,
		},
		"label": labels,
	}
	if rctx != nil {
		input["rctx"] = map[string]interface{}{
			"user_id": rctx.UserID,
			"scene":   rctx.Scene,
			"params":  rctx.Params,
		}
	}
	return input
}

var _ Filter = (*Expr)(nil)
