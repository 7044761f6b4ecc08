// recflowd 是推荐服务进程：装配事件日志、商品目录、向量索引、
// 规则挖掘与 HTTP 接口。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/recflow/recflow/catalog"
	"github.com/recflow/recflow/config"
	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/eventlog"
	"github.com/recflow/recflow/feast"
	"github.com/recflow/recflow/pkg/logger"
	"github.com/recflow/recflow/pkg/metric"
	"github.com/recflow/recflow/recommend"
	"github.com/recflow/recflow/rules"
	"github.com/recflow/recflow/server"
	"github.com/recflow/recflow/store"
	"github.com/recflow/recflow/vector"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults apply when empty)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load config:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logger.Init(cfg.App.Name, cfg.App.LogLevel)
	if cfg.App.StatsdAddr != "" {
		metric.Init(cfg.App.StatsdAddr, cfg.App.Name)
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("recflowd exited")
	}
}

func run(cfg *config.Config) error {
	eventLog, kv, err := buildEventLog(cfg)
	if err != nil {
		return fmt.Errorf("event log: %w", err)
	}
	defer eventLog.Close()

	cat, err := catalog.NewSQLiteCatalog(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	defer cat.Close()

	index, err := buildIndex(cfg, cat)
	if err != nil {
		return fmt.Errorf("vector index: %w", err)
	}
	log.Info().Int("vectors", index.Size()).Msg("vector index ready")

	engine := rules.NewEngine()
	if kv != nil {
		// 先恢复上一代规则表快照，避免冷启动等待首轮挖掘
		if loaded, err := rules.LoadTable(context.Background(), kv, engine); err != nil {
			log.Warn().Err(err).Msg("rule table snapshot not restored")
		} else if loaded {
			log.Info().Int("rules", engine.Size()).Msg("rule table restored from snapshot")
		}
	}
	miner := rules.NewMiner(eventLog, engine, rules.MinerOptions{
		Window:        cfg.Mining.Window(),
		MinSupport:    cfg.Mining.MinSupport,
		MinConfidence: cfg.Mining.MinConfidence,
		Store:         kv,
	})

	personalized, err := cfg.BuildPersonalizedPipeline(config.FactoryDeps{
		EventLog: eventLog,
		Catalog:  cat,
		Index:    index,
		Engine:   engine,
		Synonyms: cfg.Recommend.Synonyms,
	})
	if err != nil {
		return fmt.Errorf("personalized pipeline: %w", err)
	}

	orchestrator := recommend.NewOrchestrator(eventLog, cat, index, engine, recommend.Options{
		HistoryWindow: cfg.Recommend.HistoryWindow(),
		ViewTimeout:   cfg.Recommend.ViewTimeout(),
		NeighborK:     cfg.Recommend.NeighborK,
		MinConfidence: cfg.Recommend.MinConfidence,
		DefaultLimit:  cfg.Recommend.DefaultLimit,
		MaxLimit:      cfg.Recommend.MaxLimit,
		Categories:    cfg.Recommend.Categories,
		Synonyms:      cfg.Recommend.Synonyms,
		Weights:       cfg.Recommend.Weights,
		AuditExposure: cfg.Recommend.AuditExposure,
		Pipeline:      personalized,
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Mining.IntervalMin > 0 {
		go mineLoop(rootCtx, miner, time.Duration(cfg.Mining.IntervalMin)*time.Minute)
	}

	srv := server.New(cfg.Server.Addr, orchestrator, miner, engine)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-rootCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// buildEventLog 返回事件日志与其底层 KV 存储。
// Scylla 后端没有通用 KV 面，此时第二个返回值为 nil，
// 规则表快照持久化随之关闭。
func buildEventLog(cfg *config.Config) (core.EventLog, core.Store, error) {
	switch cfg.Store.Backend {
	case "", "memory":
		ms := store.NewMemoryStore()
		return eventlog.NewKeyValueLog(ms), ms, nil
	case "redis":
		rs, err := store.NewRedisStore(store.RedisOptions{
			Addr:        cfg.Store.Redis.Addr,
			DB:          cfg.Store.Redis.DB,
			PoolSize:    cfg.Store.Redis.PoolSize,
			PoolTimeout: time.Duration(cfg.Store.Redis.PoolTimeout) * time.Millisecond,
		})
		if err != nil {
			return nil, nil, err
		}
		return eventlog.NewKeyValueLog(rs), rs, nil
	case "scylla":
		sl, err := eventlog.NewScyllaLog(eventlog.ScyllaOptions{
			Hosts:     cfg.Store.Scylla.Hosts,
			Keyspace:  cfg.Store.Scylla.Keyspace,
			NumConns:  cfg.Store.Scylla.NumConns,
			TimeoutMs: cfg.Store.Scylla.TimeoutMs,
		})
		if err != nil {
			return nil, nil, err
		}
		return sl, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func buildIndex(cfg *config.Config, cat core.Catalog) (*vector.Index, error) {
	var loader vector.ArtifactLoader
	switch cfg.Vector.Source {
	case "", "file":
		loader = vector.NewFileLoader(cfg.Vector.ArtifactPath)
	case "feast":
		client, err := feast.NewGrpcClient(cfg.Vector.FeastHost, cfg.Vector.FeastPort, cfg.Vector.FeastProject)
		if err != nil {
			return nil, err
		}
		loader = vector.NewFeastLoader(client, cat, cfg.Vector.Feature, cfg.Vector.EntityKey)
	default:
		return nil, fmt.Errorf("unknown vector source %q", cfg.Vector.Source)
	}

	index, err := vector.NewIndex(nil)
	if err != nil {
		return nil, err
	}
	if err := index.Reload(context.Background(), loader); err != nil {
		// 制品缺失时空索引起服，依赖规则/热门兜底
		log.Warn().Err(err).Msg("vector artifact unavailable, serving with empty index")
	}
	return index, nil
}

// mineLoop 周期触发规则挖掘；BUSY 与 MINING_ABORTED 属正常节奏，降级记 warn。
func mineLoop(ctx context.Context, miner *rules.Miner, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := miner.Run(ctx); err != nil {
				log.Warn().Err(err).Msg("scheduled mining skipped")
			}
		}
	}
}
