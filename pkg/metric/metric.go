// Package metric 提供基于 statsd 的计数/耗时打点。
// 未初始化时所有调用都是 no-op，方便测试与本地开发。
package metric

import (
	"sync"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rs/zerolog/log"
)

var (
	mu     sync.RWMutex
	client statsd.ClientInterface
)

// Init 连接 statsd agent。addr 形如 "127.0.0.1:8125"。
func Init(addr, namespace string) {
	c, err := statsd.New(addr, statsd.WithNamespace(namespace))
	if err != nil {
		log.Warn().Msgf("metric: statsd init failed, metrics disabled: %v", err)
		return
	}
	mu.Lock()
	client = c
	mu.Unlock()
}

// Incr 计数 +1。
func Incr(name string, tags []string) {
	mu.RLock()
	c := client
	mu.RUnlock()
	if c == nil {
		return
	}
	_ = c.Incr(name, tags, 1)
}

// Timing 记录耗时。
func Timing(name string, value time.Duration, tags []string) {
	mu.RLock()
	c := client
	mu.RUnlock()
	if c == nil {
		return
	}
	_ = c.Timing(name, value, tags, 1)
}

// TagAsString 组装 "key:value" 形式的 tag。
func TagAsString(key, value string) string {
	return key + ":" + value
}
