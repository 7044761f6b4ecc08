package core

import (
	"regexp"
	"time"
)

// EventType 是交互事件类型。
type EventType string

const (
	// EventClick 商品点击事件，必须携带 ProductID
	EventClick EventType = "click"
	// EventSearch 搜索事件，必须携带非空 Query
	EventSearch EventType = "search"
	// EventRecommended 推荐曝光审计事件（服务端合成，尽力而为写入）
	EventRecommended EventType = "recommended"
)

var (
	// userIDPattern 用户 ID 约束：分区 key 只能由校验后的 ID 派生，
	// 绝不直接使用未校验输入寻址存储。
	userIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,50}$`)

	// productIDPattern 商品 ID 约束：10 位大写字母数字。
	productIDPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)
)

// ValidateUserID 校验用户 ID 格式，非法时返回 INVALID_IDENTIFIER。
func ValidateUserID(userID string) error {
	if !userIDPattern.MatchString(userID) {
		return NewDomainError(ModuleEventLog, ErrorCodeInvalidIdentifier, "eventlog: invalid user id")
	}
	return nil
}

// ValidProductID 判断商品 ID 是否为合法格式。
func ValidProductID(productID string) bool {
	return productIDPattern.MatchString(productID)
}

// InteractionEvent 是一条用户交互事件，append-only，归属于且仅归属于一个用户。
//
// 不变量：
//   - click 事件必须携带合法 ProductID
//   - search 事件必须携带非空 Query
type InteractionEvent struct {
	EventType EventType `json:"event_type"`
	ProductID string    `json:"product_id,omitempty"`
	Query     string    `json:"query,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate 校验事件不变量，违反时返回 VALIDATION_ERROR。
// 校验在任何 I/O 之前执行。
func (e *InteractionEvent) Validate() error {
	switch e.EventType {
	case EventClick, EventRecommended:
		if !ValidProductID(e.ProductID) {
			return NewDomainError(ModuleEventLog, ErrorCodeValidation,
				"eventlog: "+string(e.EventType)+" event requires a 10-char alphanumeric product id")
		}
	case EventSearch:
		if e.Query == "" {
			return NewDomainError(ModuleEventLog, ErrorCodeValidation,
				"eventlog: search event requires a non-empty query")
		}
	default:
		return NewDomainError(ModuleEventLog, ErrorCodeValidation,
			"eventlog: unknown event type "+string(e.EventType))
	}
	return nil
}
