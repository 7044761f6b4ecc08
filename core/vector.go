package core

import "context"

// Neighbor 是一次近邻查询的单条结果。
type Neighbor struct {
	ID    string  // 商品 ID
	Score float64 // 归一化内积（余弦）相似度
}

// VectorIndex 是向量相似索引的领域接口。
//
// 语义约定：
//   - 查询商品不在索引中时返回空序列（IndexMiss 不是错误，
//     新上架商品的冷启动属于正常情况）
//   - 结果不包含查询商品自身，按分数降序，同分按商品 ID 升序
//   - 服务期索引只读；重载通过整体原子换入新快照完成
//
// 实现：
//   - vector.Index（进程内快照索引）
type VectorIndex interface {
	// Name 返回索引名称（用于日志/监控）
	Name() string

	// Neighbors 返回 productID 的 Top-k 近邻
	Neighbors(ctx context.Context, productID string, k int) ([]Neighbor, error)

	// Size 返回当前快照内的向量数
	Size() int
}
