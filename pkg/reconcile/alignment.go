package reconcile

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// Marker 把一段不一致的短语拆成并列子组的分隔符
const Marker = "/"

// Row 比对结果中的一行：匹配片段之前两侧各自独有的短语，以及匹配片段本身
type Row struct {
	TextOnly   string // 只出现在文本识别结果中的短语
	TimingOnly string // 只出现在带时间识别结果中的短语
	Matched    string // 两侧一致的短语
}

// Alignment 三列并行的比对表，每行对应一个比对块
type Alignment struct {
	TextOnly   []string
	TimingOnly []string
	Matched    []string
}

// NewAlignment 由行构造三列表
func NewAlignment(rows []Row) Alignment {
	a := Alignment{
		TextOnly:   make([]string, len(rows)),
		TimingOnly: make([]string, len(rows)),
		Matched:    make([]string, len(rows)),
	}
	for i, r := range rows {
		a.TextOnly[i] = r.TextOnly
		a.TimingOnly[i] = r.TimingOnly
		a.Matched[i] = r.Matched
	}
	return a
}

// Rows 还原为行，三列长度不一致时报错
func (a Alignment) Rows() ([]Row, error) {
	n := len(a.TextOnly)
	if len(a.TimingOnly) != n || len(a.Matched) != n {
		return nil, utils.NewKindError(utils.ErrInvalidInput,
			fmt.Sprintf("比对表三列长度不一致: %d/%d/%d", n, len(a.TimingOnly), len(a.Matched)), nil)
	}

	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{TextOnly: a.TextOnly[i], TimingOnly: a.TimingOnly[i], Matched: a.Matched[i]}
	}
	return rows, nil
}

// Align 对两路单词序列做序列比对（大小写与标点不敏感），
// 每一行是一个匹配片段及其之前两侧的不一致片段，末尾的不一致片段单独成行。
func Align(textWords, timingWords []string) []Row {
	a := utils.NormalizeTokens(textWords)
	b := utils.NormalizeTokens(timingWords)

	// 关闭autojunk，否则长文本中的高频词会被当作垃圾元素而无法匹配
	matcher := difflib.NewMatcherWithJunk(a, b, false, nil)

	var (
		rows         []Row
		pendingText  []string
		pendingTimed []string
	)
	for _, op := range matcher.GetOpCodes() {
		if op.Tag != 'e' {
			pendingText = append(pendingText, textWords[op.I1:op.I2]...)
			pendingTimed = append(pendingTimed, timingWords[op.J1:op.J2]...)
			continue
		}

		rows = append(rows, Row{
			TextOnly:   joinWords(pendingText),
			TimingOnly: joinWords(pendingTimed),
			Matched:    joinWords(textWords[op.I1:op.I2]),
		})
		pendingText, pendingTimed = nil, nil
	}

	if len(pendingText) > 0 || len(pendingTimed) > 0 {
		rows = append(rows, Row{
			TextOnly:   joinWords(pendingText),
			TimingOnly: joinWords(pendingTimed),
		})
	}

	return rows
}

func joinWords(words []string) string {
	trimmed := make([]string, len(words))
	for i, w := range words {
		trimmed[i] = strings.TrimSpace(w)
	}
	return strings.Join(trimmed, " ")
}

// step 一次消费：从文本流取 nText 个单词、从时间流取 nTiming 个时间
type step struct {
	nText   int
	nTiming int
}

// groups 按空白切分短语并统计各子组的单词数。
// 只有单独成词的 "/" 才是子组分隔符，"24/7" 这样的单词照常计数
func groups(phrase string) (counts []int, marked bool) {
	counts = []int{0}
	for _, field := range strings.Fields(phrase) {
		if field == Marker {
			counts = append(counts, 0)
			marked = true
			continue
		}
		counts[len(counts)-1]++
	}
	return counts, marked
}

func countWords(phrase string) int {
	counts, _ := groups(phrase)
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

// plan 把一行拆成消费步骤。
// strict 用于未经人工修改的比对结果：没有显式分组且两侧单词数不同、
// 只有文本或只有时间的片段都无法自动决定归属，返回 ErrUnresolved。
func (r Row) plan(strict bool) ([]step, error) {
	var steps []step

	textGroups, textMarked := groups(r.TextOnly)
	timingGroups, timingMarked := groups(r.TimingOnly)
	nText := countWords(r.TextOnly)
	nTiming := countWords(r.TimingOnly)
	marked := textMarked || timingMarked

	switch {
	case nText == 0 && nTiming == 0:
	case nTiming == 0:
		if strict {
			return nil, utils.NewKindError(utils.ErrUnresolved,
				fmt.Sprintf("文本识别结果中的短语 %q 没有对应时间", r.TextOnly), nil)
		}
		// 没有时间的文本：整体跳过
		steps = append(steps, step{nText: nText})
	case nText == 0:
		if strict {
			return nil, utils.NewKindError(utils.ErrUnresolved,
				fmt.Sprintf("时间识别结果中多出的短语 %q 没有对应文本", r.TimingOnly), nil)
		}
		steps = append(steps, step{nTiming: nTiming})
	case !marked && nText == nTiming:
		for i := 0; i < nText; i++ {
			steps = append(steps, step{nText: 1, nTiming: 1})
		}
	case !marked:
		if strict {
			return nil, utils.NewKindError(utils.ErrUnresolved,
				fmt.Sprintf("无法自动分组: %q (%d 词) / %q (%d 词)", r.TextOnly, nText, r.TimingOnly, nTiming), nil)
		}
		steps = append(steps, step{nText: nText, nTiming: nTiming})
	default:
		if len(textGroups) != len(timingGroups) {
			return nil, utils.NewKindError(utils.ErrUnresolved,
				fmt.Sprintf("两侧子组数量不同: %q (%d 组) / %q (%d 组)", r.TextOnly, len(textGroups), r.TimingOnly, len(timingGroups)), nil)
		}
		for i := range textGroups {
			steps = append(steps, step{nText: textGroups[i], nTiming: timingGroups[i]})
		}
	}

	// 匹配片段只按空白计数
	for i := len(strings.Fields(r.Matched)); i > 0; i-- {
		steps = append(steps, step{nText: 1, nTiming: 1})
	}

	return steps, nil
}

// build 按行依次从两路输入中消费单词，组合出带时间的单词。
// 必须恰好消费完两路输入，否则说明比对表与输入不符。
func build(rows []Row, strict bool, textWords []string, timedWords []models.WordTiming) ([]models.WordTiming, error) {
	var (
		out    []models.WordTiming
		ti, bi int
	)

	for rowIndex, row := range rows {
		steps, err := row.plan(strict)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", rowIndex+1, err)
		}

		for _, s := range steps {
			if ti+s.nText > len(textWords) || bi+s.nTiming > len(timedWords) {
				return nil, utils.NewKindError(utils.ErrInvalidInput,
					fmt.Sprintf("第 %d 行需要的单词超出输入范围", rowIndex+1), nil)
			}

			words := textWords[ti : ti+s.nText]
			ti += s.nText

			if s.nTiming == 0 {
				utils.Debug("跳过没有时间的子组: %q", joinWords(words))
				continue
			}

			timings := timedWords[bi : bi+s.nTiming]
			bi += s.nTiming

			if s.nText == 0 {
				utils.Debug("丢弃没有文本的时间: %d 个", len(timings))
				continue
			}

			out = append(out, models.WordTiming{
				Text:  joinWords(words),
				Start: timings[0].Start,
				End:   timings[len(timings)-1].End,
			})
		}
	}

	if ti != len(textWords) || bi != len(timedWords) {
		return nil, utils.NewKindError(utils.ErrInvalidInput,
			fmt.Sprintf("比对表只覆盖了 %d/%d 个文本单词、%d/%d 个时间", ti, len(textWords), bi, len(timedWords)), nil)
	}

	return out, nil
}

// ApplyAlignment 按（可能经人工修改的）比对表组合两路输入。
// 子组只决定消费数量，文本始终取自文本识别结果，时间取自带时间识别结果的首尾。
func ApplyAlignment(alignment Alignment, textWords []string, timedWords []models.WordTiming) ([]models.WordTiming, error) {
	rows, err := alignment.Rows()
	if err != nil {
		return nil, err
	}
	return build(rows, false, textWords, timedWords)
}
