package models

import (
	"fmt"
	"strings"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// WordTiming 表示一个带时间区间的单词
type WordTiming struct {
	Text       string   `json:"text"`       // 单词文本
	Start      float64  `json:"start"`      // 开始时间（秒）
	End        float64  `json:"end"`        // 结束时间（秒）
	Confidence *float64 `json:"confidence"` // 置信度，nil 表示未知
}

// NewWordTiming 创建不带置信度的单词
func NewWordTiming(text string, start, end float64) WordTiming {
	return WordTiming{Text: text, Start: start, End: end}
}

// Duration 单词时长
func (w WordTiming) Duration() float64 {
	return w.End - w.Start
}

// ConfidenceOr 返回置信度，未知时返回默认值
func (w WordTiming) ConfidenceOr(defaultVal float64) float64 {
	if w.Confidence == nil {
		return defaultVal
	}
	return *w.Confidence
}

// Float64 返回指向v的指针，方便构造置信度
func Float64(v float64) *float64 {
	return &v
}

// Transcript 是按时间排序、不可变的单词序列
type Transcript struct {
	words []WordTiming
	model string
}

// NewTranscript 校验并复制输入，构造转录结果。
// 要求每个单词 start <= end，且开始时间单调不减。
func NewTranscript(words []WordTiming, model string) (Transcript, error) {
	copied := make([]WordTiming, len(words))
	for i, w := range words {
		if w.Start > w.End {
			return Transcript{}, utils.NewKindError(utils.ErrInvalidInput,
				fmt.Sprintf("第 %d 个单词 %q 的开始时间 %.3f 晚于结束时间 %.3f", i+1, w.Text, w.Start, w.End), nil)
		}
		if i > 0 && w.Start < words[i-1].Start {
			return Transcript{}, utils.NewKindError(utils.ErrInvalidInput,
				fmt.Sprintf("第 %d 个单词 %q 的开始时间早于前一个单词", i+1, w.Text), nil)
		}
		if w.Confidence != nil {
			w.Confidence = Float64(*w.Confidence)
		}
		copied[i] = w
	}

	return Transcript{words: copied, model: model}, nil
}

// MustTranscript 与 NewTranscript 相同，校验失败时panic，用于常量数据与测试
func MustTranscript(words []WordTiming, model string) Transcript {
	t, err := NewTranscript(words, model)
	if err != nil {
		panic(err)
	}
	return t
}

// Model 生成该转录的模型名称
func (t Transcript) Model() string {
	return t.model
}

// Len 单词数量
func (t Transcript) Len() int {
	return len(t.words)
}

// At 返回第i个单词
func (t Transcript) At(i int) WordTiming {
	return t.words[i]
}

// Words 返回单词序列的副本
func (t Transcript) Words() []WordTiming {
	out := make([]WordTiming, len(t.words))
	copy(out, t.words)
	return out
}

// Tokens 返回去掉首尾空白的单词文本
func (t Transcript) Tokens() []string {
	tokens := make([]string, len(t.words))
	for i, w := range t.words {
		tokens[i] = strings.TrimSpace(w.Text)
	}
	return tokens
}

// Start 第一个单词开始的时间，空转录为0
func (t Transcript) Start() float64 {
	if len(t.words) == 0 {
		return 0
	}
	return t.words[0].Start
}

// Duration 转录持续的时间（最后一个单词的结束时间），空转录为0
func (t Transcript) Duration() float64 {
	if len(t.words) == 0 {
		return 0
	}
	return t.words[len(t.words)-1].End
}

// Text 以空格连接的全文
func (t Transcript) Text() string {
	return strings.Join(t.Tokens(), " ")
}

// String 实现 fmt.Stringer
func (t Transcript) String() string {
	return t.Text()
}

// Waits 每个单词之后的停顿时长，最后一个单词为0
func (t Transcript) Waits() []float64 {
	waits := make([]float64, len(t.words))
	for i := 0; i+1 < len(t.words); i++ {
		waits[i] = t.words[i+1].Start - t.words[i].End
	}
	return waits
}

// MeanConfidence 平均置信度，未知置信度按0计；空转录返回 ok=false
func (t Transcript) MeanConfidence() (float64, bool) {
	if len(t.words) == 0 {
		return 0, false
	}

	var sum float64
	for _, w := range t.words {
		sum += w.ConfidenceOr(0)
	}
	return sum / float64(len(t.words)), true
}

// MinConfidence 最低置信度；空转录返回 ok=false
func (t Transcript) MinConfidence() (float64, bool) {
	if len(t.words) == 0 {
		return 0, false
	}

	min := t.words[0].ConfidenceOr(0)
	for _, w := range t.words[1:] {
		if c := w.ConfidenceOr(0); c < min {
			min = c
		}
	}
	return min, true
}

// IsConfident 平均置信度是否达到阈值，空转录视为不可信
func (t Transcript) IsConfident(threshold float64) bool {
	mean, ok := t.MeanConfidence()
	return ok && mean >= threshold
}

// Segment 是一段连续说出的单词，以及其后到下一段之前的静音时长
type Segment struct {
	Words     []WordTiming `json:"words"`
	WaitAfter float64      `json:"wait_after"`
}

// Start 段内最早的开始时间
func (s Segment) Start() float64 {
	if len(s.Words) == 0 {
		return 0
	}
	start := s.Words[0].Start
	for _, w := range s.Words[1:] {
		if w.Start < start {
			start = w.Start
		}
	}
	return start
}

// End 段内最晚的结束时间
func (s Segment) End() float64 {
	if len(s.Words) == 0 {
		return 0
	}
	end := s.Words[0].End
	for _, w := range s.Words[1:] {
		if w.End > end {
			end = w.End
		}
	}
	return end
}

// Duration 段落时长
func (s Segment) Duration() float64 {
	return s.End() - s.Start()
}

// Text 以空格连接的段落文本
func (s Segment) Text() string {
	parts := make([]string, len(s.Words))
	for i, w := range s.Words {
		parts[i] = strings.TrimSpace(w.Text)
	}
	return strings.Join(parts, " ")
}
