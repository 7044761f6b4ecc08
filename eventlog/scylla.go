package eventlog

import (
	"context"
	"time"

	"github.com/gocql/gocql"

	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/pkg/metric"
)

const (
	eventsTable = "interaction_events"
	usersTable  = "interaction_users"
)

// ScyllaLog 是基于 Scylla/Cassandra 的 EventLog 实现。
// 单表按 user_id 分区、ts 倒序聚簇，天然满足"最新在前的窗口读"；
// 另有一张用户注册表供离线挖掘枚举。
//
// 预期 schema：
//
//	CREATE TABLE interaction_events (
//	    user_id text, ts timestamp,
//	    event_type text, product_id text, query text,
//	    PRIMARY KEY ((user_id), ts)
//	) WITH CLUSTERING ORDER BY (ts DESC);
//	CREATE TABLE interaction_users (user_id text PRIMARY KEY);
type ScyllaLog struct {
	session  *gocql.Session
	keyspace string
}

// ScyllaOptions 是 ScyllaLog 的连接配置。
type ScyllaOptions struct {
	Hosts     []string
	Keyspace  string
	NumConns  int
	TimeoutMs int
}

func NewScyllaLog(opts ScyllaOptions) (*ScyllaLog, error) {
	cluster := gocql.NewCluster(opts.Hosts...)
	cluster.Keyspace = opts.Keyspace
	cluster.Consistency = gocql.Quorum
	if opts.NumConns > 0 {
		cluster.NumConns = opts.NumConns
	}
	if opts.TimeoutMs > 0 {
		cluster.Timeout = time.Duration(opts.TimeoutMs) * time.Millisecond
	}
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, core.NewDomainError(core.ModuleEventLog, core.ErrorCodeUnavailable, "eventlog: scylla connect: "+err.Error())
	}
	return &ScyllaLog{session: session, keyspace: opts.Keyspace}, nil
}

func (l *ScyllaLog) Name() string { return "eventlog.scylla" }

func (l *ScyllaLog) EnsureUserLog(ctx context.Context, userID string) error {
	if err := core.ValidateUserID(userID); err != nil {
		return err
	}
	// INSERT 在 CQL 里是 upsert，天然幂等
	err := l.session.Query(`INSERT INTO `+usersTable+` (user_id) VALUES (?)`, userID).
		WithContext(ctx).Exec()
	if err != nil {
		return asUnavailable(err)
	}
	return nil
}

func (l *ScyllaLog) Append(ctx context.Context, userID string, event *core.InteractionEvent) error {
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

	t1 := time.Now()
	err := l.session.Query(
		`INSERT INTO `+eventsTable+` (user_id, ts, event_type, product_id, query) VALUES (?, ?, ?, ?, ?)`,
		userID, ev.Timestamp, string(ev.EventType), ev.ProductID, ev.Query,
	).WithContext(ctx).Exec()
	if err != nil {
		return asUnavailable(err)
	}
	metric.Incr("eventlog_append_count", []string{metric.TagAsString("backend", "scylla")})
	metric.Timing("eventlog_append_latency", time.Since(t1), nil)
	return nil
}

func (l *ScyllaLog) Recent(ctx context.Context, userID string, window time.Duration) ([]*core.InteractionEvent, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return nil, err
	}

	since := time.Now().Add(-window)
	iter := l.session.Query(
		`SELECT event_type, product_id, query, ts FROM `+eventsTable+` WHERE user_id = ? AND ts >= ?`,
		userID, since,
	).WithContext(ctx).Iter()

	var (
		events    []*core.InteractionEvent
		eventType string
		productID string
		query     string
		ts        time.Time
	)
	for iter.Scan(&eventType, &productID, &query, &ts) {
		events = append(events, &core.InteractionEvent{
			EventType: core.EventType(eventType),
			ProductID: productID,
			Query:     query,
			Timestamp: ts,
		})
	}
	if err := iter.Close(); err != nil {
		return nil, asUnavailable(err)
	}
	return events, nil
}

func (l *ScyllaLog) Users(ctx context.Context) ([]string, error) {
	iter := l.session.Query(`SELECT user_id FROM ` + usersTable).WithContext(ctx).Iter()

	var (
		users  []string
		userID string
	)
	for iter.Scan(&userID) {
		users = append(users, userID)
	}
	if err := iter.Close(); err != nil {
		return nil, asUnavailable(err)
	}
	return users, nil
}

func (l *ScyllaLog) Close() error {
	l.session.Close()
	return nil
}

var _ core.EventLog = (*ScyllaLog)(nil)
