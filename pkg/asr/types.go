package asr

import (
	"context"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
)

// 识别结果的文件格式
const (
	FormatAuto     = "auto"     // 按扩展名与内容自动判断
	FormatText     = "text"     // 纯文本
	FormatJSON     = "json"     // 本工具导出的结构化JSON
	FormatWhisper  = "whisper"  // whisper 风格JSON（text 与 segments[].words）
	FormatVosk     = "vosk"     // vosk 风格JSON（result 或 alternatives[0].result）
	FormatAudacity = "audacity" // Audacity 标签
	FormatAudition = "audition" // Audition 标记
)

// ProgressCallback 是进度回调函数，用于通知处理过程的进度
type ProgressCallback func(percent int, message string)

// TextSource 文本识别结果：文本准确，但没有可靠的逐词时间
type TextSource interface {
	Words(ctx context.Context) ([]string, error)
}

// TimingSource 带逐词时间的识别结果，文本可能不准确
type TimingSource interface {
	Timings(ctx context.Context) ([]models.WordTiming, error)
}

// StaticText 内存中的文本识别结果
type StaticText []string

// Words 实现 TextSource
func (s StaticText) Words(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string(nil), s...), nil
}

// StaticTimings 内存中的带时间识别结果
type StaticTimings []models.WordTiming

// Timings 实现 TimingSource
func (s StaticTimings) Timings(ctx context.Context) ([]models.WordTiming, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]models.WordTiming(nil), s...), nil
}
