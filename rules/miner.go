package rules

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/pkg/metric"
)

// MinerOptions 是一次挖掘运行的参数。
type MinerOptions struct {
	// Window 事务取样的时间窗口（默认 30 天）
	Window time.Duration
	// MinSupport 频繁项集支持度阈值 (0,1]
	MinSupport float64
	// MinConfidence 规则置信度阈值 (0,1]
	MinConfidence float64
	// Store 可选。设置后每次成功发布都会写一份规则表快照，
	// 写失败只记 warn，不影响已发布的表
	Store core.Store
}

func (o *MinerOptions) withDefaults() MinerOptions {
	out := *o
	if out.Window <= 0 {
		out.Window = 30 * 24 * time.Hour
	}
	if out.MinSupport <= 0 {
		out.MinSupport = 0.02
	}
	if out.MinConfidence <= 0 {
		out.MinConfidence = 0.3
	}
	return out
}

// Miner 从交互日志重建规则表。
//
// 同一时刻至多一次挖掘在途：并发触发返回 BUSY 而不是排队，
// 由调度方择机重试。挖掘失败时规则表保持上一代不变。
type Miner struct {
	eventLog core.EventLog
	engine   *Engine
	opts     MinerOptions
	running  atomic.Bool
}

func NewMiner(eventLog core.EventLog, engine *Engine, opts MinerOptions) *Miner {
	return &Miner{
		eventLog: eventLog,
		engine:   engine,
		opts:     opts.withDefaults(),
	}
}

// Run 执行一次完整挖掘并在成功时发布新规则表。
//
// 事务构造：窗口内每个用户的点击商品去重集合为一条事务，
// 少于 2 个不同商品的用户剔除。没有任何可用事务或没有挖出
// 任何频繁项集时返回 MINING_ABORTED，旧表保持有效。
func (m *Miner) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return core.NewDomainError(core.ModuleRules, core.ErrorCodeBusy, "rules: mining already in progress")
	}
	defer m.running.Store(false)

	start := time.Now()
	transactions, err := m.collectTransactions(ctx)
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		metric.Incr("rules.mining.aborted", nil)
		return core.NewDomainError(core.ModuleRules, core.ErrorCodeMiningAborted,
			"rules: no transactions in window, keeping previous table")
	}

	itemsets := MineFrequentItemsets(transactions, m.opts.MinSupport)
	if len(itemsets) == 0 {
		metric.Incr("rules.mining.aborted", nil)
		return core.NewDomainError(core.ModuleRules, core.ErrorCodeMiningAborted,
			"rules: no frequent itemsets, keeping previous table")
	}

	generated := GenerateRules(itemsets, len(transactions), m.opts.MinConfidence)
	m.engine.Publish(generated)
	if m.opts.Store != nil {
		if err := SaveTable(ctx, m.opts.Store, m.engine); err != nil {
			log.Warn().Err(err).Msg("rule table snapshot not persisted")
		}
	}
	metric.Incr("rules.mining.success", nil)
	metric.Timing("rules.mining.duration", time.Since(start), nil)
	log.Info().
		Int("transactions", len(transactions)).
		Int("itemsets", len(itemsets)).
		Int("rules", len(generated)).
		Int64("revision", m.engine.Revision()).
		Dur("elapsed", time.Since(start)).
		Msg("rule table published")
	return nil
}

// collectTransactions 扫描全部已注册用户，取窗口内点击构造事务。
// 单个用户读取失败跳过并记 warn，不让一个坏分区拖垮整轮挖掘。
func (m *Miner) collectTransactions(ctx context.Context) ([][]string, error) {
	users, err := m.eventLog.Users(ctx)
	if err != nil {
		return nil, err
	}
	transactions := make([][]string, 0, len(users))
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return nil, core.NewDomainError(core.ModuleRules, core.ErrorCodeMiningAborted,
				"rules: mining canceled: "+err.Error())
		}
		events, err := m.eventLog.Recent(ctx, userID, m.opts.Window)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("skip user during mining")
			continue
		}
		seen := map[string]struct{}{}
		for _, ev := range events {
			if ev.EventType == core.EventClick && ev.ProductID != "" {
				seen[ev.ProductID] = struct{}{}
			}
		}
		if len(seen) < 2 {
			continue
		}
		tx := make([]string, 0, len(seen))
		for id := range seen {
			tx = append(tx, id)
		}
		sort.Strings(tx)
		transactions = append(transactions, tx)
	}
	return transactions, nil
}
