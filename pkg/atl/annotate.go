package atl

import (
	"fmt"
	"sort"
	"strings"
)

// event 单词在时间窗口内的开始或结束
type event struct {
	word string
	kind string // start / end
	time float64
}

// Annotate 生成时间窗口 [start, end) 的行尾注释。
// 简洁模式列出在窗口内开始的单词；详细模式同时列出在窗口内结束的单词，
// 按时间排序并标注时间点。窗口内没有单词时简洁模式返回空串。
func (g *Generator) Annotate(start, end float64, verbose bool) string {
	var events []event
	for _, w := range g.transcript.Words() {
		text := strings.TrimSpace(w.Text)
		if inWindow(w.Start, start, end) {
			events = append(events, event{word: text, kind: "start", time: w.Start})
		}
		if verbose && inWindow(w.End, start, end) {
			events = append(events, event{word: text, kind: "end", time: w.End})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].time < events[j].time
	})

	if !verbose {
		if len(events) == 0 {
			return ""
		}
		words := make([]string, len(events))
		for i, e := range events {
			words[i] = e.word
		}
		return "  # " + strings.Join(words, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "  # animation time: %.3f → %.3f ", start, end)
	for i, e := range events {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "| %s [%s @ %.2f]", quoteWord(e.word), e.kind, e.time)
	}
	return strings.TrimRight(sb.String(), " ")
}

func inWindow(t, start, end float64) bool {
	return start <= t && t < end
}

// quoteWord 用单引号包住单词，单词本身含单引号时改用双引号
func quoteWord(word string) string {
	if strings.Contains(word, "'") && !strings.Contains(word, `"`) {
		return `"` + word + `"`
	}
	return "'" + strings.ReplaceAll(word, "'", `\'`) + "'"
}
