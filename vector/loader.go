package vector

import (
	"context"
	"encoding/json"
	"os"

	"github.com/recflow/recflow/core"
)

// ArtifactLoader 提供一次索引构建所需的全量向量制品。
type ArtifactLoader interface {
	// Load 返回 商品 ID -> 向量。所有向量等长。
	Load(ctx context.Context) (map[string][]float64, error)
}

// FileLoader 从本地 JSON 制品文件加载向量。
// 文件格式：{"B08CF3D7QR": [0.1, 0.2, ...], ...}
// 适合离线训练产出的 embedding 落盘场景。
type FileLoader struct {
	Path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{Path: path}
}

func (l *FileLoader) Load(ctx context.Context) (map[string][]float64, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeUnavailable,
			"vector: read artifact file: "+err.Error())
	}
	var vectors map[string][]float64
	if err := json.Unmarshal(data, &vectors); err != nil {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
			"vector: decode artifact file: "+err.Error())
	}
	return vectors, nil
}

var _ ArtifactLoader = (*FileLoader)(nil)
