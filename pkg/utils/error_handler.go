package utils

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// 错误类别，配合 errors.Is 使用
var (
	ErrNotFound     = errors.New("未找到")
	ErrIO           = errors.New("读写失败")
	ErrInvalidInput = errors.New("输入无效")
	ErrUnresolved   = errors.New("对齐无法自动解决")
)

// ToolError 是工具链错误的基础类型
type ToolError struct {
	Kind    error // 错误类别，可为nil
	Message string
	Cause   error
}

// Error 实现error接口
func (e *ToolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

// Unwrap 支持error chain
func (e *ToolError) Unwrap() error {
	return e.Cause
}

// Is 让 errors.Is(err, ErrNotFound) 这类判断命中错误类别
func (e *ToolError) Is(target error) bool {
	return e.Kind != nil && e.Kind == target
}

// NewError 创建一个不带类别的错误
func NewError(message string, cause error) error {
	return &ToolError{
		Message: message,
		Cause:   cause,
	}
}

// NewKindError 创建一个带类别的错误
func NewKindError(kind error, message string, cause error) error {
	return &ToolError{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// ErrorHandler 处理错误和重试
type ErrorHandler struct {
	MaxRetries int
	RetryDelay float64
	ErrorStats map[string]map[string]int // 操作 -> 错误信息 -> 计数
	mu         sync.Mutex
}

// NewErrorHandler 创建新的错误处理器
func NewErrorHandler(maxRetries int, retryDelay float64) *ErrorHandler {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &ErrorHandler{
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
		ErrorStats: make(map[string]map[string]int),
	}
}

// Retry 执行函数并在失败时重试
func (h *ErrorHandler) Retry(operation string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < h.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		h.updateErrorStats(operation, err.Error())

		if attempt < h.MaxRetries-1 {
			delay := h.RetryDelay * float64(attempt+1)
			Warn("操作 %s 失败 (尝试 %d/%d): %s", operation, attempt+1, h.MaxRetries, err)
			Warn("等待 %.1f 秒后重试...", delay)
			time.Sleep(time.Duration(delay * float64(time.Second)))
		}
	}

	return &ToolError{
		Kind:    kindOf(lastErr),
		Message: fmt.Sprintf("操作 %s 重试 %d 次后仍然失败", operation, h.MaxRetries),
		Cause:   lastErr,
	}
}

// SafeExecute 安全地执行函数，并在失败时进行清理
func (h *ErrorHandler) SafeExecute(operation string, fn func() error, cleanup func()) error {
	err := fn()
	if err != nil {
		h.updateErrorStats(operation, err.Error())

		if cleanup != nil {
			Info("执行清理操作...")
			cleanup()
		}

		return &ToolError{
			Kind:    kindOf(err),
			Message: fmt.Sprintf("操作 %s 失败", operation),
			Cause:   err,
		}
	}
	return nil
}

// kindOf 沿错误链取出已知类别，保证包装后 errors.Is 仍然命中
func kindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrIO, ErrInvalidInput, ErrUnresolved} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// 更新错误统计
func (h *ErrorHandler) updateErrorStats(operation string, errMsg string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ErrorStats[operation] == nil {
		h.ErrorStats[operation] = make(map[string]int)
	}
	h.ErrorStats[operation][errMsg]++
}

// GetErrorStats 获取错误统计信息的副本
func (h *ErrorHandler) GetErrorStats() map[string]map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := make(map[string]map[string]int, len(h.ErrorStats))
	for op, errs := range h.ErrorStats {
		inner := make(map[string]int, len(errs))
		for msg, count := range errs {
			inner[msg] = count
		}
		stats[op] = inner
	}
	return stats
}

// PrintErrorStats 打印错误统计信息
func (h *ErrorHandler) PrintErrorStats() {
	stats := h.GetErrorStats()
	if len(stats) == 0 {
		Info("没有错误记录")
		return
	}

	operations := make([]string, 0, len(stats))
	for op := range stats {
		operations = append(operations, op)
	}
	sort.Strings(operations)

	Info("错误统计:")
	for _, operation := range operations {
		Info("操作: %s", operation)
		for errMsg, count := range stats[operation] {
			Info("  - %s: %d次", errMsg, count)
		}
	}
}
