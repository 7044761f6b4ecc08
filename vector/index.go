// Package vector 实现商品内容向量的近邻索引。
//
// 索引离线构建、服务期只读：向量在构建时归一化一次（而不是每次查询），
// 查询只做内积即得余弦分数。重载通过"旁路构建新快照 + 原子指针换入"
// 完成，在途查询永远看不到半加载状态。
package vector

import (
	"context"
	"math"
	"sort"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/recflow/recflow/core"
)

// snapshot 是一代完整构建的只读索引。
type snapshot struct {
	ids  []string       // 商品 ID，升序
	pos  map[string]int // 商品 ID -> 下标
	vecs [][]float64    // 与 ids 对齐的归一化向量
	dim  int
}

// Index 是进程内的向量相似索引，实现 core.VectorIndex。
// 并发读无锁；Reload 整体换入新快照。
type Index struct {
	snap atomic.Pointer[snapshot]
}

// NewIndex 从 id -> 向量 的制品构建索引。
// 所有向量必须等长；空制品得到一个空索引（所有查询返回空序列）。
func NewIndex(vectors map[string][]float64) (*Index, error) {
	snap, err := buildSnapshot(vectors)
	if err != nil {
		return nil, err
	}
	idx := &Index{}
	idx.snap.Store(snap)
	return idx, nil
}

func buildSnapshot(vectors map[string][]float64) (*snapshot, error) {
	ids := make([]string, 0, len(vectors))
	dim := 0
	for id, vec := range vectors {
		if dim == 0 {
			dim = len(vec)
		}
		if len(vec) != dim || len(vec) == 0 {
			return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
				"vector: inconsistent vector dimension for product "+id)
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	snap := &snapshot{
		ids:  ids,
		pos:  make(map[string]int, len(ids)),
		vecs: make([][]float64, len(ids)),
		dim:  dim,
	}
	for i, id := range ids {
		snap.pos[id] = i
		snap.vecs[i] = normalize(vectors[id])
	}
	return snap, nil
}

// normalize 返回单位向量；零向量原样返回（与任何向量的相似度为 0）。
func normalize(v []float64) []float64 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	out := make([]float64, len(v))
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func (idx *Index) Name() string { return "vector.index" }

// Size 返回当前快照内的向量数。
func (idx *Index) Size() int {
	return len(idx.snap.Load().ids)
}

// Neighbors 返回 productID 的 Top-k 近邻，不含自身。
// 索引未收录该商品时返回空序列（IndexMiss 不是错误）。
// 排序：分数降序，同分按商品 ID 升序，保证确定性。
func (idx *Index) Neighbors(ctx context.Context, productID string, k int) ([]core.Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}
	snap := idx.snap.Load()
	qi, ok := snap.pos[productID]
	if !ok {
		return nil, nil
	}
	query := snap.vecs[qi]

	scored := make([]core.Neighbor, 0, len(snap.ids)-1)
	for i, vec := range snap.vecs {
		if i == qi {
			continue
		}
		scored = append(scored, core.Neighbor{ID: snap.ids[i], Score: dot(query, vec)})
	}
	// ids 本身升序，stable 排序天然得到"同分按 ID 升序"
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Reload 通过 loader 构建新快照并原子换入。
// 构建失败时旧快照保持有效，在途查询不受影响。
func (idx *Index) Reload(ctx context.Context, loader ArtifactLoader) error {
	vectors, err := loader.Load(ctx)
	if err != nil {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "vector: load artifact: "+err.Error())
	}
	snap, err := buildSnapshot(vectors)
	if err != nil {
		return err
	}
	idx.snap.Store(snap)
	log.Info().Int("vectors", len(snap.ids)).Int("dim", snap.dim).Msg("vector index reloaded")
	return nil
}

var _ core.VectorIndex = (*Index)(nil)
