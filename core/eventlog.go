package core

import (
	"context"
	"time"
)

// EventLog 是用户交互事件日志的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（eventlog）实现
//   - 每个用户的日志是独立单元：不同用户并发追加互不争用
//   - 分区 key 由校验后的用户 ID 派生，杜绝动态 schema 注入
//
// 实现：
//   - eventlog.KeyValueLog 基于 core.KeyValueStore（Redis / 内存）
//   - eventlog.ScyllaLog 基于 Scylla/Cassandra
type EventLog interface {
	// Name 返回后端名称（用于日志/监控）
	Name() string

	// EnsureUserLog 幂等地创建该用户的日志分区。
	// 用户 ID 非法时返回 INVALID_IDENTIFIER；存储失败时返回 UNAVAILABLE。
	EnsureUserLog(ctx context.Context, userID string) error

	// Append 校验事件不变量后追加一条事件；内部先调用 EnsureUserLog。
	// 对调用方同步，但不阻塞其他用户的写入。
	Append(ctx context.Context, userID string, event *InteractionEvent) error

	// Recent 返回 [now - window, now] 内的事件，按时间倒序（最新在前）。
	// 用户尚无日志时返回空序列（不是错误）。
	Recent(ctx context.Context, userID string, window time.Duration) ([]*InteractionEvent, error)

	// Users 枚举所有拥有日志的用户 ID（供离线挖掘扫描）。
	Users(ctx context.Context) ([]string, error)

	// Close 释放后端资源
	Close() error
}
