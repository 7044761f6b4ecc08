package core

import "context"

// Product 是不可变的商品目录记录，由目录存储（外部协作方）负责写入，
// 本模块只按 ID 或排序谓词读取。
type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	MainCategory  string  `json:"main_category"`
	SubCategory   string  `json:"sub_category"`
	Image         string  `json:"image,omitempty"`
	Link          string  `json:"link,omitempty"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"original_price"`
	Rating        float64 `json:"rating"`
	RatingCount   int64   `json:"rating_count"`
	DiscountRatio float64 `json:"discount_ratio"`
}

// CategoryPath 返回 "主类目 > 子类目" 形式的类目路径。
func (p *Product) CategoryPath() string {
	if p.SubCategory == "" {
		return p.MainCategory
	}
	return p.MainCategory + " > " + p.SubCategory
}

// Catalog 是商品目录的只读领域接口。
//
// 设计原则：
//   - 目录的写入/清洗归上游摄取管道，本模块只消费读视图
//   - 所有查询都带行数上限，避免把全表拉进请求路径
//
// 实现：
//   - catalog.SQLiteCatalog（database/sql + sqlite）
//   - catalog.MemoryCatalog（测试/开发）
type Catalog interface {
	// Name 返回后端名称（用于日志/监控）
	Name() string

	// GetByIDs 按 ID 批量读取商品，保序返回（缺失的 ID 跳过）
	GetByIDs(ctx context.Context, ids []string) ([]*Product, error)

	// TopRated 按 (rating desc, rating_count desc) 返回 Top 商品
	TopRated(ctx context.Context, limit int) ([]*Product, error)

	// BestValue 按 discount_ratio desc 返回 Top 商品
	BestValue(ctx context.Context, limit int) ([]*Product, error)

	// TopInCategory 返回某子类目按 rating desc 的 Top 商品
	TopInCategory(ctx context.Context, category string, limit int) ([]*Product, error)

	// RandomSample 均匀随机采样
	RandomSample(ctx context.Context, limit int) ([]*Product, error)

	// SearchByName 名称子串匹配（大小写不敏感，所有 token 都必须命中）
	SearchByName(ctx context.Context, tokens []string, limit int) ([]*Product, error)

	// AllIDs 返回全部商品 ID（供索引构建使用）
	AllIDs(ctx context.Context) ([]string, error)

	// Close 释放后端资源
	Close() error
}
