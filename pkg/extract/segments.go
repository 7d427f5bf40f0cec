package extract

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// GetSegments 按停顿切分转录：相邻单词间隔严格大于 tolerance 时开始新段落。
// 空转录或单个单词的转录返回一个段落。
func GetSegments(t models.Transcript, tolerance float64) []models.Segment {
	words := t.Words()
	if len(words) < 2 {
		return []models.Segment{{Words: words}}
	}

	var (
		segments []models.Segment
		current  = []models.WordTiming{words[0]}
	)
	for i := 1; i < len(words); i++ {
		gap := words[i].Start - words[i-1].End
		if gap > tolerance {
			segments = append(segments, models.Segment{Words: current, WaitAfter: gap})
			current = nil
		}
		current = append(current, words[i])
	}
	segments = append(segments, models.Segment{Words: current})

	utils.Debug("转录被切分为 %d 个段落 (容差 %.3f 秒)", len(segments), tolerance)
	return segments
}

// GetFragment 找出文本片段在转录中对应的单词，返回其所在的段落。
// 比对忽略大小写与标点，取转录中第一个匹配块。
func GetFragment(t models.Transcript, text string) (models.Segment, error) {
	query := utils.Tokenize(text)
	if len(query) == 0 {
		return models.Segment{}, utils.NewKindError(utils.ErrNotFound,
			fmt.Sprintf("片段 %q 不含可比对的单词", text), nil)
	}

	tokens := utils.NormalizeTokens(t.Tokens())
	matcher := difflib.NewMatcherWithJunk(tokens, query, false, nil)

	for _, block := range matcher.GetMatchingBlocks() {
		if block.Size == 0 {
			continue
		}

		words := t.Words()[block.A : block.A+block.Size]
		return models.Segment{Words: words}, nil
	}

	return models.Segment{}, utils.NewKindError(utils.ErrNotFound,
		fmt.Sprintf("转录中找不到片段 %q", text), nil)
}

// GetFragments 按行切分用户文本，逐行定位片段，跳过空行
func GetFragments(t models.Transcript, text string) ([]models.Segment, error) {
	var fragments []models.Segment
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		fragment, err := GetFragment(t, line)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", i+1, err)
		}
		fragments = append(fragments, fragment)
	}

	return fragments, nil
}
