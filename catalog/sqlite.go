// Package catalog 实现商品目录的只读后端。
//
// 目录由上游摄取管道写入，本模块只消费读视图：
//   - SQLiteCatalog：database/sql + sqlite 文件库，适合单机部署
//   - MemoryCatalog：进程内实现，测试/开发用
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/recflow/recflow/core"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS products (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	main_category  TEXT NOT NULL DEFAULT '',
	sub_category   TEXT NOT NULL DEFAULT '',
	image          TEXT NOT NULL DEFAULT '',
	link           TEXT NOT NULL DEFAULT '',
	price          REAL NOT NULL DEFAULT 0,
	original_price REAL NOT NULL DEFAULT 0,
	rating         REAL NOT NULL DEFAULT 0,
	rating_count   INTEGER NOT NULL DEFAULT 0,
	discount_ratio REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_products_rating ON products(rating DESC, rating_count DESC);
CREATE INDEX IF NOT EXISTS idx_products_discount ON products(discount_ratio DESC);
CREATE INDEX IF NOT EXISTS idx_products_sub_category ON products(sub_category);
`

const productColumns = "id, name, main_category, sub_category, image, link, price, original_price, rating, rating_count, discount_ratio"

// SQLiteCatalog 基于 sqlite 文件库的目录实现。
type SQLiteCatalog struct {
	db *sql.DB
}

// NewSQLiteCatalog 打开（必要时初始化）目录库。
func NewSQLiteCatalog(path string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init catalog schema: %w", err)
	}
	return &SQLiteCatalog{db: db}, nil
}

func (c *SQLiteCatalog) Name() string { return "catalog.sqlite" }

func (c *SQLiteCatalog) Close() error { return c.db.Close() }

// Upsert 写入或更新商品记录（摄取工具使用，请求路径不调用）。
func (c *SQLiteCatalog) Upsert(ctx context.Context, p *core.Product) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			main_category = excluded.main_category,
			sub_category = excluded.sub_category,
			image = excluded.image,
			link = excluded.link,
			price = excluded.price,
			original_price = excluded.original_price,
			rating = excluded.rating,
			rating_count = excluded.rating_count,
			discount_ratio = excluded.discount_ratio`,
		p.ID, p.Name, p.MainCategory, p.SubCategory, p.Image, p.Link,
		p.Price, p.OriginalPrice, p.Rating, p.RatingCount, p.DiscountRatio)
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return nil
}

func (c *SQLiteCatalog) GetByIDs(ctx context.Context, ids []string) ([]*core.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := c.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	byID, err := scanProductMap(rows)
	if err != nil {
		return nil, err
	}
	// IN 查询不保序，按入参顺序重排，缺失的 ID 跳过
	out := make([]*core.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *SQLiteCatalog) TopRated(ctx context.Context, limit int) ([]*core.Product, error) {
	return c.query(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY rating DESC, rating_count DESC, id ASC LIMIT ?", limit)
}

func (c *SQLiteCatalog) BestValue(ctx context.Context, limit int) ([]*core.Product, error) {
	return c.query(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY discount_ratio DESC, id ASC LIMIT ?", limit)
}

func (c *SQLiteCatalog) TopInCategory(ctx context.Context, category string, limit int) ([]*core.Product, error) {
	return c.query(ctx,
		"SELECT "+productColumns+" FROM products WHERE sub_category = ? ORDER BY rating DESC, id ASC LIMIT ?",
		category, limit)
}

func (c *SQLiteCatalog) RandomSample(ctx context.Context, limit int) ([]*core.Product, error) {
	return c.query(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY RANDOM() LIMIT ?", limit)
}

func (c *SQLiteCatalog) SearchByName(ctx context.Context, tokens []string, limit int) ([]*core.Product, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	conds := make([]string, 0, len(tokens))
	args := make([]any, 0, len(tokens)+1)
	for _, tok := range tokens {
		conds = append(conds, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(tok)+"%")
	}
	args = append(args, limit)
	return c.query(ctx,
		"SELECT "+productColumns+" FROM products WHERE "+strings.Join(conds, " AND ")+
			" ORDER BY rating DESC, id ASC LIMIT ?", args...)
}

func (c *SQLiteCatalog) AllIDs(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT id FROM products ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("list product ids: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (c *SQLiteCatalog) query(ctx context.Context, q string, args ...any) ([]*core.Product, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()
	var out []*core.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProduct(rows *sql.Rows) (*core.Product, error) {
	var p core.Product
	if err := rows.Scan(&p.ID, &p.Name, &p.MainCategory, &p.SubCategory, &p.Image, &p.Link,
		&p.Price, &p.OriginalPrice, &p.Rating, &p.RatingCount, &p.DiscountRatio); err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

func scanProductMap(rows *sql.Rows) (map[string]*core.Product, error) {
	defer rows.Close()
	byID := make(map[string]*core.Product)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		byID[p.ID] = p
	}
	return byID, rows.Err()
}

var _ core.Catalog = (*SQLiteCatalog)(nil)
