// Package eventlog 实现按用户分区的交互事件日志。
//
// 设计要点：
//   - 分区 key 只由校验后的用户 ID 派生（log:{user_id}），
//     未经校验的输入绝不用于寻址存储
//   - 每个用户的日志是独立单元，跨用户写入只在连接池层面共享资源
//   - 读路径失败降级（调用方回退冷启动），写路径 log-and-drop
package eventlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/pkg/metric"
)

const (
	logKeyPrefix    = "log:"
	userRegistryKey = "log:users"
)

// KeyValueLog 是基于 core.KeyValueStore 的 EventLog 实现。
// 每个用户一个有序集合，member 为事件 JSON，score 为事件时间戳（毫秒）。
// 集合在首次 ZAdd 时由存储端惰性创建，EnsureUserLog 负责把用户
// 登记进注册表，供离线挖掘枚举。
type KeyValueLog struct {
	store core.KeyValueStore
}

func NewKeyValueLog(store core.KeyValueStore) *KeyValueLog {
	return &KeyValueLog{store: store}
}

func (l *KeyValueLog) Name() string { return "eventlog." + l.store.Name() }

func logKey(userID string) string { return logKeyPrefix + userID }

// EnsureUserLog 幂等地登记用户。重复调用对可观测状态无影响：
// 注册表是集合语义，日志集合本身按需创建。
func (l *KeyValueLog) EnsureUserLog(ctx context.Context, userID string) error {
	if err := core.ValidateUserID(userID); err != nil {
		return err
	}
	if err := l.store.SAdd(ctx, userRegistryKey, userID); err != nil {
		return asUnavailable(err)
	}
	return nil
}

// Append 校验后追加一条事件。未设置时间戳时取当前时间。
func (l *KeyValueLog) Append(ctx context.Context, userID string, event *core.InteractionEvent) error {
	if err := core.ValidateUserID(userID); err != nil {
		return err
	}
	if event == nil {
		return core.NewDomainError(core.ModuleEventLog, core.ErrorCodeValidation, "eventlog: nil event")
	}
	if err := event.Validate(); err != nil {
		return err
	}
	// 时间戳缺省补在本地副本上，不回写调用方的事件
	ev := *event
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	if err := l.EnsureUserLog(ctx, userID); err != nil {
		return err
	}

	member, err := json.Marshal(&ev)
	if err != nil {
		return core.NewDomainError(core.ModuleEventLog, core.ErrorCodeInternalError, "eventlog: encode event: "+err.Error())
	}

	t1 := time.Now()
	if err := l.store.ZAdd(ctx, logKey(userID), float64(ev.Timestamp.UnixMilli()), string(member)); err != nil {
		return asUnavailable(err)
	}
	metric.Incr("eventlog_append_count", []string{metric.TagAsString("backend", l.store.Name())})
	metric.Timing("eventlog_append_latency", time.Since(t1), nil)
	return nil
}

// Recent 返回窗口内事件，最新在前。用户尚无日志时返回空序列。
func (l *KeyValueLog) Recent(ctx context.Context, userID string, window time.Duration) ([]*core.InteractionEvent, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return nil, err
	}

	now := time.Now()
	min := float64(now.Add(-window).UnixMilli())
	max := float64(now.UnixMilli())

	t1 := time.Now()
	members, err := l.store.ZRevRangeByScore(ctx, logKey(userID), min, max)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, asUnavailable(err)
	}
	metric.Timing("eventlog_recent_latency", time.Since(t1), nil)

	events := make([]*core.InteractionEvent, 0, len(members))
	for _, m := range members {
		var evt core.InteractionEvent
		if err := json.Unmarshal([]byte(m), &evt); err != nil {
			// 坏成员跳过而不是让整个读失败
			log.Warn().Str("user_id", userID).Msgf("eventlog: skip undecodable event: %v", err)
			continue
		}
		events = append(events, &evt)
	}
	return events, nil
}

// Users 枚举所有登记过的用户。
func (l *KeyValueLog) Users(ctx context.Context) ([]string, error) {
	users, err := l.store.SMembers(ctx, userRegistryKey)
	if err != nil {
		return nil, asUnavailable(err)
	}
	return users, nil
}

func (l *KeyValueLog) Close() error { return l.store.Close() }

// asUnavailable 把存储层错误统一收敛为 UNAVAILABLE：
// 调用方只需要区分"校验失败"与"存储不可用"两类。
func asUnavailable(err error) error {
	if err == nil {
		return nil
	}
	if d := core.GetDomainError(err); d != nil {
		if d.Code == core.ErrorCodeUnavailable || d.Code == core.ErrorCodeNotFound {
			return err
		}
	}
	return core.NewDomainError(core.ModuleEventLog, core.ErrorCodeUnavailable, "eventlog: store error: "+err.Error())
}

var _ core.EventLog = (*KeyValueLog)(nil)
