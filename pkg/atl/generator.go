package atl

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// epsilon 比较累计时间时的容差
const epsilon = 1e-9

// Generator 根据转录生成 Ren'Py ATL 口型动画脚本
type Generator struct {
	opts       Options
	transcript models.Transcript
	indent     string
}

// NewGenerator 创建脚本生成器
func NewGenerator(transcript models.Transcript, opts Options) (*Generator, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	return &Generator{
		opts:       opts,
		transcript: transcript,
		indent:     strings.Repeat(" ", opts.Indent),
	}, nil
}

// Options 返回生成参数
func (g *Generator) Options() Options {
	return g.opts
}

// Generate 按对齐方式生成脚本
func (g *Generator) Generate(mode models.AlignmentMode) string {
	if mode == models.AlignmentWord {
		return g.GenerateWordAligned()
	}
	return g.GenerateFixedStep()
}

// GenerateFixedStep 以名义帧长交替张嘴/闭嘴，覆盖 [0, 转录时长)，最后一帧总是闭嘴
func (g *Generator) GenerateFixedStep() string {
	lines := g.header()
	lines = append(lines, g.alternateFrames(0, g.transcript.Duration(), g.opts.Verbose)...)

	utils.Debug("固定帧长脚本: %s, %d 行", g.opts.ImageName, len(lines))
	return strings.Join(lines, "\n")
}

// GenerateWordAligned 逐词生成整数个帧，帧长按单词时长微调，
// 单词之间的停顿用单独的延时行表示。
// 与前一个单词重叠的部分从前一个单词结束处开始计算，脚本时长不会超过实际语音。
func (g *Generator) GenerateWordAligned() string {
	lines := g.header()
	lines = append(lines, g.assetLine(false))

	words := g.transcript.Words()
	var cursor float64
	for _, w := range words {
		if w.Start > cursor+epsilon {
			lines = append(lines, g.delayLine(formatDelay(w.Start-cursor), cursor, w.Start, g.opts.Verbose))
			cursor = w.Start
		}

		start := math.Max(w.Start, cursor)
		end := math.Max(w.End, start)
		if start > w.Start && end-start <= epsilon {
			// 完全被前一个单词覆盖
			continue
		}

		lines = append(lines, g.wordFrames(start, end)...)
		cursor = end
	}

	utils.Debug("逐词对齐脚本: %s, %d 个单词, %d 行", g.opts.ImageName, len(words), len(lines))
	return strings.Join(lines, "\n")
}

// WordFrames 计算一个单词的帧数与实际帧长：帧数为时长除以名义帧长后取整（至少1帧），
// 帧数乘帧长恰好等于单词时长。
func WordFrames(duration, nominal float64) (int, float64) {
	frames := int(math.Max(1, math.Round(duration/nominal)))
	return frames, duration / float64(frames)
}

// wordFrames 覆盖 [start, end) 的帧
func (g *Generator) wordFrames(start, end float64) []string {
	frames, step := WordFrames(end-start, g.opts.FrameDuration)

	var lines []string
	for n := 0; n < frames; n++ {
		t := start + float64(n)*step
		lines = append(lines,
			g.assetLine(n%2 == 0),
			g.delayLine(formatDelay(step), t, t+step, g.opts.Verbose),
		)
	}

	if frames%2 == 1 {
		lines = append(lines, g.assetLine(false))
	}
	return lines
}

// alternateFrames 从 start 开始以名义帧长交替输出，直到覆盖 stop，
// 最后一帧是张嘴时补一行闭嘴。没有输出任何帧时也会输出闭嘴。
// 时间按写入脚本的帧长累加，与重新注释时解析出的时间一致。
func (g *Generator) alternateFrames(start, stop float64, verbose bool) []string {
	var lines []string

	token := formatDelay(g.opts.FrameDuration)
	step, err := strconv.ParseFloat(token, 64)
	if err != nil || step <= 0 {
		step = g.opts.FrameDuration
	}

	open := true
	lastOpen := false
	for t := start; t < stop-epsilon; t += step {
		lines = append(lines,
			g.assetLine(open),
			g.delayLine(token, t, t+step, verbose),
		)
		lastOpen = open
		open = !open
	}

	if lastOpen || len(lines) == 0 {
		lines = append(lines, g.assetLine(false))
	}
	return lines
}

func (g *Generator) header() []string {
	flag := ""
	if g.lowConfidence() {
		flag = "(!) "
	}

	return []string{
		fmt.Sprintf("image %s:", g.opts.ImageName),
		fmt.Sprintf("%s# %sTranscription: %s", g.indent, flag, g.transcript.Text()),
		fmt.Sprintf("%s# length: %.3f seconds", g.indent, g.transcript.Duration()),
	}
}

// lowConfidence 转录带有置信度且平均值低于阈值；完全没有置信度信息时不标记
func (g *Generator) lowConfidence() bool {
	for _, w := range g.transcript.Words() {
		if w.Confidence != nil {
			return !g.transcript.IsConfident(g.opts.ConfidenceThreshold)
		}
	}
	return false
}

func (g *Generator) assetLine(open bool) string {
	image := g.opts.ClosedImage
	if open {
		image = g.opts.OpenImage
	}
	return g.indent + `"` + image + `"`
}

func (g *Generator) delayLine(token string, start, end float64, verbose bool) string {
	return g.indent + token + g.Annotate(start, end, verbose)
}

func formatDelay(seconds float64) string {
	return fmt.Sprintf("%.3f", seconds)
}
