// Package feast 封装 Feast Feature Store 的在线特征读取。
// 特征管道把商品 embedding 物化到 Feast 在线存储后，
// vector.FeastLoader 通过本包在索引构建期批量拉取。
package feast

import "context"

// Client 是 Feast Feature Store 的客户端接口（领域层定义，基础设施层实现）。
//
// Feast 是一个开源的 Feature Store；本模块只消费其在线存储
// （GetOnlineFeatures），离线训练侧的物化与注册不在此范围。
//
// 实现：
//   - GrpcClient：基于官方 Go SDK (github.com/feast-dev/feast/sdk/go)
type Client interface {
	// GetOnlineFeatures 获取在线特征
	//
	// 参数：
	//   - Features: 特征名称列表，例如 ["product_embeddings:vector"]
	//   - EntityRows: 实体行，例如 [{"product_id": "B08CF3D7QR"}]
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求
type GetOnlineFeaturesRequest struct {
	// Features 特征名称列表
	Features []string

	// EntityRows 实体行，例如 [{"product_id": "B08CF3D7QR"}]
	EntityRows []map[string]interface{}

	// Project 项目名称（可选，缺省用客户端默认值）
	Project string
}

// FeatureVector 是单个实体行的特征取值，key 为特征名称。
// 数值标量统一为 float64，数值列表统一为 []float64。
type FeatureVector struct {
	Values    map[string]interface{}
	EntityRow map[string]interface{}
}

// GetOnlineFeaturesResponse 获取在线特征响应，与请求的实体行一一对应。
type GetOnlineFeaturesResponse struct {
	FeatureVectors []FeatureVector
}
