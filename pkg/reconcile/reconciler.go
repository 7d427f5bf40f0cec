package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// Path 对齐实际走过的路径
type Path string

const (
	PathMatching   Path = "matching"    // 长度一致，直接配对
	PathAligned    Path = "aligned"     // 序列比对后自动组合
	PathAssisted   Path = "assisted"    // 经人工校对
	PathTimingOnly Path = "timing-only" // 丢弃文本，只用带时间的结果
)

// Reconciler 把文本识别结果（文本准确、无时间）与带时间的识别结果合并
type Reconciler struct {
	Policy    models.ReconciliationPolicy
	Assistant Assistant // 可为nil，此时需要人工校对的情况返回 ErrUnresolved
	Model     string    // 写入结果转录的模型名
}

// NewReconciler 创建对齐器
func NewReconciler(policy models.ReconciliationPolicy, assistant Assistant) *Reconciler {
	return &Reconciler{
		Policy:    policy,
		Assistant: assistant,
	}
}

// Reconcile 合并两路识别结果。
// 结果中每个单词的文本来自 textWords，时间来自 timedWords；
// 任何错误（包括人工校对被取消）都不会返回部分结果。
func (r *Reconciler) Reconcile(ctx context.Context, textWords []string, timedWords []models.WordTiming) (models.Transcript, Path, error) {
	if err := ctx.Err(); err != nil {
		return models.Transcript{}, "", err
	}

	equal := len(textWords) == len(timedWords)

	switch r.Policy {
	case models.PolicyTimingOnly:
		if equal {
			return r.matching(textWords, timedWords)
		}
		utils.Warn("单词数不一致 (文本 %d / 时间 %d)，直接使用带时间的识别结果", len(textWords), len(timedWords))
		transcript, err := models.NewTranscript(timedWords, r.Model)
		return transcript, PathTimingOnly, err

	case models.PolicyForcedManual:
		return r.assist(ctx, Align(textWords, texts(timedWords)), textWords, timedWords)

	case models.PolicyAuto, "":
		if equal {
			return r.matching(textWords, timedWords)
		}

		utils.Warn("单词数不一致 (文本 %d / 时间 %d)，开始序列比对", len(textWords), len(timedWords))
		rows := Align(textWords, texts(timedWords))

		words, err := build(rows, true, textWords, timedWords)
		if err == nil {
			transcript, err := models.NewTranscript(words, r.Model)
			return transcript, PathAligned, err
		}
		if !errors.Is(err, utils.ErrUnresolved) {
			return models.Transcript{}, "", err
		}

		utils.Info("存在无法自动决定的片段，转交人工校对: %v", err)
		return r.assist(ctx, rows, textWords, timedWords)

	default:
		return models.Transcript{}, "", utils.NewKindError(utils.ErrInvalidInput,
			fmt.Sprintf("未知的对齐策略 %q", r.Policy), nil)
	}
}

func (r *Reconciler) matching(textWords []string, timedWords []models.WordTiming) (models.Transcript, Path, error) {
	utils.Info("单词数一致 (%d)，直接把时间赋给文本", len(textWords))

	words := make([]models.WordTiming, len(textWords))
	for i, text := range textWords {
		words[i] = models.WordTiming{
			Text:  strings.TrimSpace(text),
			Start: timedWords[i].Start,
			End:   timedWords[i].End,
		}
	}

	transcript, err := models.NewTranscript(words, r.Model)
	return transcript, PathMatching, err
}

func (r *Reconciler) assist(ctx context.Context, rows []Row, textWords []string, timedWords []models.WordTiming) (models.Transcript, Path, error) {
	if r.Assistant == nil {
		return models.Transcript{}, "", utils.NewKindError(utils.ErrUnresolved, "需要人工校对，但没有配置校对程序", nil)
	}

	corrected, err := r.Assistant.Correct(ctx, NewAlignment(rows))
	if err != nil {
		return models.Transcript{}, "", fmt.Errorf("人工校对失败: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return models.Transcript{}, "", fmt.Errorf("人工校对被取消: %w", err)
	}

	words, err := ApplyAlignment(corrected, textWords, timedWords)
	if err != nil {
		return models.Transcript{}, "", err
	}

	transcript, err := models.NewTranscript(words, r.Model)
	return transcript, PathAssisted, err
}

func texts(words []models.WordTiming) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Text
	}
	return out
}
