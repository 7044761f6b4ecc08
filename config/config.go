// Package config 提供服务配置的加载与默认值，以及 Pipeline Node 工厂。
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是服务的完整配置。
type Config struct {
	App    AppConfig    `yaml:"app"`
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`

	Catalog CatalogConfig `yaml:"catalog"`
	Vector  VectorConfig  `yaml:"vector"`
	Mining  MiningConfig  `yaml:"mining"`

	Recommend RecommendConfig `yaml:"recommend"`
}

type AppConfig struct {
	Name       string `yaml:"name"`
	LogLevel   string `yaml:"log_level"`
	StatsdAddr string `yaml:"statsd_addr"` // 为空时指标打点为 no-op
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig 选择事件日志后端：memory / redis / scylla。
type StoreConfig struct {
	Backend string       `yaml:"backend"`
	Redis   RedisConfig  `yaml:"redis"`
	Scylla  ScyllaConfig `yaml:"scylla"`
}

type RedisConfig struct {
	Addr        string `yaml:"addr"`
	DB          int    `yaml:"db"`
	PoolSize    int    `yaml:"pool_size"`
	PoolTimeout int    `yaml:"pool_timeout_ms"`
}

type ScyllaConfig struct {
	Hosts     []string `yaml:"hosts"`
	Keyspace  string   `yaml:"keyspace"`
	NumConns  int      `yaml:"num_conns"`
	TimeoutMs int      `yaml:"timeout_ms"`
}

type CatalogConfig struct {
	Path string `yaml:"path"` // sqlite 文件路径
}

// VectorConfig 选择向量制品来源：file / feast。
type VectorConfig struct {
	Source       string `yaml:"source"`
	ArtifactPath string `yaml:"artifact_path"` // source=file 时的 JSON 制品
	FeastHost    string `yaml:"feast_host"`
	FeastPort    int    `yaml:"feast_port"`
	FeastProject string `yaml:"feast_project"`
	Feature      string `yaml:"feature"`    // 例如 product_embeddings:vector
	EntityKey    string `yaml:"entity_key"` // 例如 product_id
}

type MiningConfig struct {
	WindowDays    int     `yaml:"window_days"`
	MinSupport    float64 `yaml:"min_support"`
	MinConfidence float64 `yaml:"min_confidence"`
	IntervalMin   int     `yaml:"interval_minutes"` // <=0 关闭周期挖掘
}

type RecommendConfig struct {
	HistoryWindowDays int                `yaml:"history_window_days"`
	ViewTimeoutMs     int                `yaml:"view_timeout_ms"`
	NeighborK         int                `yaml:"neighbor_k"`
	MinConfidence     float64            `yaml:"min_confidence"`
	DefaultLimit      int                `yaml:"default_limit"`
	MaxLimit          int                `yaml:"max_limit"`
	Categories        []string           `yaml:"categories"`
	Synonyms          map[string]string  `yaml:"synonyms"`
	Weights           map[string]float64 `yaml:"weights"`
	AuditExposure     bool               `yaml:"audit_exposure"`
	// PipelineFile 指向个性化板块的 Pipeline 配置文件，
	// 为空时使用内置节点链
	PipelineFile string `yaml:"pipeline_file"`
}

// Default 返回可直接启动的默认配置（内存存储 + 本地目录）。
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:     "recflow",
			LogLevel: "info",
		},
		Server: ServerConfig{Addr: ":8080"},
		Store:  StoreConfig{Backend: "memory"},
		Catalog: CatalogConfig{
			Path: "data/catalog.db",
		},
		Vector: VectorConfig{
			Source:       "file",
			ArtifactPath: "data/embeddings.json",
			FeastPort:    6565,
			Feature:      "product_embeddings:vector",
			EntityKey:    "product_id",
		},
		Mining: MiningConfig{
			WindowDays:    30,
			MinSupport:    0.02,
			MinConfidence: 0.3,
			IntervalMin:   60,
		},
		Recommend: RecommendConfig{
			HistoryWindowDays: 30,
			ViewTimeoutMs:     800,
			NeighborK:         10,
			MinConfidence:     0.3,
			DefaultLimit:      10,
			MaxLimit:          60,
			Categories:        []string{"Home Furnishing", "Watches"},
		},
	}
}

// Load 从 YAML 文件加载配置，未设置的字段保留默认值。
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// HistoryWindow 返回回看窗口时长。
func (c *RecommendConfig) HistoryWindow() time.Duration {
	return time.Duration(c.HistoryWindowDays) * 24 * time.Hour
}

// ViewTimeout 返回板块超时时长。
func (c *RecommendConfig) ViewTimeout() time.Duration {
	return time.Duration(c.ViewTimeoutMs) * time.Millisecond
}

// Window 返回挖掘取样窗口时长。
func (c *MiningConfig) Window() time.Duration {
	return time.Duration(c.WindowDays) * 24 * time.Hour
}
