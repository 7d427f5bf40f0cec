package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/export"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// voskWord vosk 输出的单词
type voskWord struct {
	Conf  *float64 `json:"conf"`
	Start float64  `json:"start"`
	End   float64  `json:"end"`
	Word  string   `json:"word"`
}

// voskOutput vosk 的最终结果，开启 max_alternatives 时结果在 alternatives 中
type voskOutput struct {
	Text         string     `json:"text"`
	Result       []voskWord `json:"result"`
	Alternatives []struct {
		Text   string     `json:"text"`
		Result []voskWord `json:"result"`
	} `json:"alternatives"`
}

// whisperWord whisper 风格的逐词时间
type whisperWord struct {
	Word        string   `json:"word"`
	Start       float64  `json:"start"`
	End         float64  `json:"end"`
	Probability *float64 `json:"probability"`
}

// whisperOutput whisper 风格的识别结果
type whisperOutput struct {
	Text     string `json:"text"`
	Segments []struct {
		Text  string        `json:"text"`
		Start float64       `json:"start"`
		End   float64       `json:"end"`
		Words []whisperWord `json:"words"`
	} `json:"segments"`
}

// DetectJSONFormat 根据顶层字段判断JSON识别结果的格式
func DetectJSONFormat(data []byte) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", utils.NewKindError(utils.ErrInvalidInput, "识别结果不是JSON对象", err)
	}

	switch {
	case fields["result"] != nil || fields["alternatives"] != nil:
		return FormatVosk, nil
	case fields["segments"] != nil:
		return FormatWhisper, nil
	case fields["words"] != nil:
		return FormatJSON, nil
	case fields["text"] != nil:
		return FormatWhisper, nil
	}
	return "", utils.NewKindError(utils.ErrInvalidInput, "无法判断JSON识别结果的格式", nil)
}

// DecodeVosk 解析 vosk 结果中的逐词时间
func DecodeVosk(data []byte) ([]models.WordTiming, error) {
	var out voskOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, utils.NewKindError(utils.ErrInvalidInput, "解析vosk结果失败", err)
	}

	result := out.Result
	if result == nil && len(out.Alternatives) > 0 {
		result = out.Alternatives[0].Result
	}

	words := make([]models.WordTiming, 0, len(result))
	for _, w := range result {
		words = append(words, models.WordTiming{
			Text:       w.Word,
			Start:      w.Start,
			End:        w.End,
			Confidence: w.Conf,
		})
	}
	return words, nil
}

// DecodeWhisper 解析 whisper 结果中的逐词时间
func DecodeWhisper(data []byte) ([]models.WordTiming, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, utils.NewKindError(utils.ErrInvalidInput, "解析whisper结果失败", err)
	}

	var words []models.WordTiming
	for _, segment := range out.Segments {
		for _, w := range segment.Words {
			words = append(words, models.WordTiming{
				Text:       strings.TrimSpace(w.Word),
				Start:      w.Start,
				End:        w.End,
				Confidence: w.Probability,
			})
		}
	}
	if len(words) == 0 && len(out.Segments) > 0 {
		return nil, utils.NewKindError(utils.ErrInvalidInput, "whisper结果中没有逐词时间", nil)
	}
	return words, nil
}

// DecodeWhisperText 取 whisper 结果的全文；没有 text 字段时拼接各段文本
func DecodeWhisperText(data []byte) ([]string, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, utils.NewKindError(utils.ErrInvalidInput, "解析whisper结果失败", err)
	}

	text := out.Text
	if strings.TrimSpace(text) == "" {
		parts := make([]string, len(out.Segments))
		for i, s := range out.Segments {
			parts[i] = s.Text
		}
		text = strings.Join(parts, " ")
	}
	return strings.Fields(text), nil
}

// TextFile 从文件读取的文本识别结果
type TextFile struct {
	Path   string
	Format string // text / whisper / auto
}

// NewTextFile 创建文件文本源，格式为空或 auto 时按扩展名判断
func NewTextFile(path, format string) *TextFile {
	return &TextFile{Path: path, Format: format}
}

// Words 实现 TextSource
func (s *TextFile) Words(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := utils.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}

	format := s.Format
	if format == "" || format == FormatAuto {
		format = FormatText
		if strings.EqualFold(filepath.Ext(s.Path), ".json") {
			format = FormatWhisper
		}
	}

	switch format {
	case FormatText:
		return strings.Fields(string(data)), nil
	case FormatWhisper, FormatJSON:
		words, err := DecodeWhisperText(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Path, err)
		}
		return words, nil
	default:
		return nil, utils.NewKindError(utils.ErrInvalidInput, fmt.Sprintf("不支持的文本格式: %s", format), nil)
	}
}

// TimingFile 从文件读取的带时间识别结果
type TimingFile struct {
	Path   string
	Format string
	decode TimingDecoder
}

// Timings 实现 TimingSource
func (s *TimingFile) Timings(ctx context.Context) ([]models.WordTiming, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := utils.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}

	words, err := s.decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}

	utils.Debug("从 %s 读取了 %d 个带时间的单词 (%s)", s.Path, len(words), s.Format)
	return words, nil
}

func decodeStructured(data []byte) ([]models.WordTiming, error) {
	t, err := export.DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return t.Words(), nil
}

func decodeAudacity(data []byte) ([]models.WordTiming, error) {
	t, err := export.DecodeAudacity(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return t.Words(), nil
}

func decodeAudition(data []byte) ([]models.WordTiming, error) {
	t, err := export.DecodeAudition(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return t.Words(), nil
}

// decodeAutoJSON 按内容判断JSON格式后解析
func decodeAutoJSON(data []byte) ([]models.WordTiming, error) {
	format, err := DetectJSONFormat(data)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatVosk:
		return DecodeVosk(data)
	case FormatWhisper:
		return DecodeWhisper(data)
	default:
		return decodeStructured(data)
	}
}
