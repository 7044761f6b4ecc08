package vector

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/feast"
)

// FeastLoader 从 Feast 在线存储批量拉取商品 embedding 作为索引制品。
//
// 商品全集来自 Catalog；分批请求避免单次 RPC 过大。
// 缺失 embedding 的商品跳过并记 warn，不阻塞整体构建。
type FeastLoader struct {
	client    feast.Client
	catalog   core.Catalog
	feature   string // 例如 "product_embeddings:vector"
	entityKey string // 例如 "product_id"
	batchSize int
}

func NewFeastLoader(client feast.Client, catalog core.Catalog, feature, entityKey string) *FeastLoader {
	return &FeastLoader{
		client:    client,
		catalog:   catalog,
		feature:   feature,
		entityKey: entityKey,
		batchSize: 100,
	}
}

func (l *FeastLoader) Load(ctx context.Context) (map[string][]float64, error) {
	ids, err := l.catalog.AllIDs(ctx)
	if err != nil {
		return nil, err
	}

	vectors := make(map[string][]float64, len(ids))
	for start := 0; start < len(ids); start += l.batchSize {
		end := start + l.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		rows := make([]map[string]interface{}, 0, len(batch))
		for _, id := range batch {
			rows = append(rows, map[string]interface{}{l.entityKey: id})
		}
		resp, err := l.client.GetOnlineFeatures(ctx, &feast.GetOnlineFeaturesRequest{
			Features:   []string{l.feature},
			EntityRows: rows,
		})
		if err != nil {
			return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeUnavailable,
				"vector: feast online features: "+err.Error())
		}

		for i, fv := range resp.FeatureVectors {
			vec, ok := fv.Values[l.feature].([]float64)
			if !ok || len(vec) == 0 {
				log.Warn().Str("product_id", batch[i]).Msg("feast embedding missing, skip")
				continue
			}
			vectors[batch[i]] = vec
		}
	}
	return vectors, nil
}

var _ ArtifactLoader = (*FeastLoader)(nil)
