package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - 事件日志：INVALID_IDENTIFIER, VALIDATION_ERROR, UNAVAILABLE
//   - 规则挖掘：MINING_ABORTED, BUSY
//   - 融合排序：EMPTY_FUSION
//   - 其他领域错误
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "UNAVAILABLE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "eventlog", "rules", "catalog"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DomainError)
	return ok
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 存储/服务不可用（连接池耗尽等）
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 领域特有错误代码
	ErrorCodeInvalidIdentifier = "INVALID_IDENTIFIER" // 用户/商品 ID 格式非法，在任何 I/O 之前拒绝
	ErrorCodeValidation        = "VALIDATION_ERROR"   // 事件不满足不变量（如 click 缺 product_id）
	ErrorCodeMiningAborted     = "MINING_ABORTED"     // 没有项集达到支持度阈值，保留旧规则表
	ErrorCodeEmptyFusion       = "EMPTY_FUSION"       // 所有候选来源为空，降级为带原因的空结果
	ErrorCodeBusy              = "BUSY"               // 互斥任务正在运行，本次触发被拒绝
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 存储模块
	ModuleEventLog  = "eventlog"  // 交互事件日志模块
	ModuleVector    = "vector"    // 向量索引模块
	ModuleRules     = "rules"     // 关联规则模块
	ModuleCatalog   = "catalog"   // 商品目录模块
	ModuleRecommend = "recommend" // 编排模块
)

// 通用错误检查函数

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}

// IsInvalidIdentifier 检查错误是否为 INVALID_IDENTIFIER
func IsInvalidIdentifier(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidIdentifier
	}
	return false
}

// IsValidation 检查错误是否为 VALIDATION_ERROR
func IsValidation(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeValidation
	}
	return false
}

// IsMiningAborted 检查错误是否为 MINING_ABORTED
func IsMiningAborted(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeMiningAborted
	}
	return false
}

// IsBusy 检查错误是否为 BUSY
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeBusy
	}
	return false
}
