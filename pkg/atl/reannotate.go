package atl

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

var (
	// 延时行：可选缩进 + 十进制数 + 可选注释
	delayPattern = regexp.MustCompile(`^(\s*)(\d+(?:\.\d*)?|\.\d+)\s*(#.*)?$`)
	// 图片行：带引号的路径
	assetPattern = regexp.MustCompile(`^\s*"(.*)"\s*$`)
)

// Reannotate 在人工编辑过的脚本上重新计算每个延时行的注释。
// 延时行保留原有缩进与数字写法，其余行原样输出。
// 累计时间达到转录时长后丢弃剩余行；脚本不够长时按固定帧长补齐。
// 无论哪种情况，结果的最后一个图片行都是闭嘴。
func (g *Generator) Reannotate(script string, verbose bool) string {
	trailingNewline := strings.HasSuffix(script, "\n")
	script = strings.TrimSuffix(script, "\n")

	duration := g.transcript.Duration()

	var (
		lines      []string
		running    float64
		lastClosed bool
		truncated  bool
	)
	for _, line := range strings.Split(script, "\n") {
		if m := delayPattern.FindStringSubmatch(line); m != nil {
			pause, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				lines = append(lines, line)
				continue
			}

			lines = append(lines, m[1]+m[2]+g.Annotate(running, running+pause, verbose))
			running += pause

			if running >= duration-epsilon {
				truncated = true
				break
			}
			continue
		}

		if m := assetPattern.FindStringSubmatch(line); m != nil {
			lastClosed = m[1] == g.opts.ClosedImage
		}
		lines = append(lines, line)
	}

	if !truncated && running < duration-epsilon {
		utils.Debug("脚本只覆盖 %.3f / %.3f 秒，补齐剩余帧", running, duration)
		lines = append(lines, g.alternateFrames(running, duration, verbose)...)
		lastClosed = true
	}

	if !lastClosed {
		lines = append(lines, g.assetLine(false))
	}

	result := strings.Join(lines, "\n")
	if trailingNewline {
		result += "\n"
	}
	return result
}

// ScriptDuration 脚本中所有延时行的总时长
func ScriptDuration(script string) float64 {
	var total float64
	for _, line := range strings.Split(script, "\n") {
		if m := delayPattern.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[2], 64); err == nil {
				total += v
			}
		}
	}
	return total
}
