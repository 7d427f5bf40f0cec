package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatTimeDuration 格式化时间长度为易读格式
func FormatTimeDuration(seconds float64) string {
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := int(seconds) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, secs)
	}
	return fmt.Sprintf("%ds", secs)
}

// splitSeconds 将秒数拆成时、分、秒、毫秒，毫秒先四舍五入避免 59.9996 之类的进位错误
func splitSeconds(seconds float64) (h, m, s, ms int) {
	if seconds < 0 {
		seconds = 0
	}
	total := int(math.Round(seconds * 1000))
	ms = total % 1000
	total /= 1000
	s = total % 60
	total /= 60
	m = total % 60
	h = total / 60
	return
}

// FormatHMS 将秒数格式化为 H:MM:SS.mmm，omitHour 为真且不足一小时时输出 M:SS.mmm
func FormatHMS(seconds float64, omitHour bool) string {
	h, m, s, ms := splitSeconds(seconds)
	if omitHour && h == 0 {
		return fmt.Sprintf("%d:%02d.%03d", m, s, ms)
	}
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, ms)
}

// FormatSRTTime 将秒数格式化为SRT时间格式 (H:MM:SS,mmm)
func FormatSRTTime(seconds float64) string {
	return strings.Replace(FormatHMS(seconds, false), ".", ",", 1)
}

// ParseHMS 解析 H:MM:SS.mmm / M:SS.mmm / 纯秒数，小数点也可以是逗号
func ParseHMS(value string) (float64, error) {
	value = strings.TrimSpace(strings.Replace(value, ",", ".", 1))
	if value == "" {
		return 0, NewKindError(ErrInvalidInput, "时间为空", nil)
	}

	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, NewKindError(ErrInvalidInput, fmt.Sprintf("无法解析时间: %s", value), nil)
	}

	var total float64
	for _, part := range parts {
		n, err := strconv.ParseFloat(part, 64)
		if err != nil || n < 0 {
			return 0, NewKindError(ErrInvalidInput, fmt.Sprintf("无法解析时间: %s", value), err)
		}
		total = total*60 + n
	}

	return total, nil
}
