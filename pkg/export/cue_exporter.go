package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// auditionHeader Audition 标记文件的表头
var auditionHeader = []string{"Name", "Start", "Duration", "Time Format", "Type", "Description"}

// AudacityExporter 导出 Audacity 标签文件：开始\t结束\t标签
type AudacityExporter struct {
	OutputFolder string
}

// NewAudacityExporter 创建 Audacity 标签导出器
func NewAudacityExporter(outputFolder string) *AudacityExporter {
	return &AudacityExporter{OutputFolder: outputFolder}
}

// Format 实现 Exporter
func (e *AudacityExporter) Format() string {
	return models.ExportAudacity
}

// Export 实现 Exporter
func (e *AudacityExporter) Export(t models.Transcript, name string) (string, error) {
	return e.ExportAudacity(t, name)
}

// GenerateAudacityContent 生成标签内容，时间保留六位小数
func (e *AudacityExporter) GenerateAudacityContent(t models.Transcript) (string, error) {
	rows := make([][]string, 0, t.Len())
	for _, w := range t.Words() {
		rows = append(rows, []string{
			strconv.FormatFloat(w.Start, 'f', 6, 64),
			strconv.FormatFloat(w.End, 'f', 6, 64),
			strings.TrimSpace(w.Text),
		})
	}
	return writeTSV(rows, false)
}

// ExportAudacity 导出 Audacity 标签文件
func (e *AudacityExporter) ExportAudacity(t models.Transcript, name string) (string, error) {
	content, err := e.GenerateAudacityContent(t)
	if err != nil {
		return "", err
	}
	return writeOutput(outputPath(e.OutputFolder, name, "_audacity.txt"), content, "Audacity标签")
}

// AuditionExporter 导出 Adobe Audition 标记文件
type AuditionExporter struct {
	OutputFolder string
}

// NewAuditionExporter 创建 Audition 标记导出器
func NewAuditionExporter(outputFolder string) *AuditionExporter {
	return &AuditionExporter{OutputFolder: outputFolder}
}

// Format 实现 Exporter
func (e *AuditionExporter) Format() string {
	return models.ExportAudition
}

// Export 实现 Exporter
func (e *AuditionExporter) Export(t models.Transcript, name string) (string, error) {
	return e.ExportAudition(t, name)
}

// GenerateAuditionContent 生成标记内容：表头之后每个单词一个 Cue
func (e *AuditionExporter) GenerateAuditionContent(t models.Transcript) (string, error) {
	rows := [][]string{auditionHeader}
	for i, w := range t.Words() {
		rows = append(rows, []string{
			fmt.Sprintf("Marker %d", i+1),
			utils.FormatHMS(w.Start, true),
			utils.FormatHMS(w.Duration(), true),
			"decimal",
			"Cue",
			strings.TrimSpace(w.Text),
		})
	}
	return writeTSV(rows, true)
}

// ExportAudition 导出 Audition 标记文件
func (e *AuditionExporter) ExportAudition(t models.Transcript, name string) (string, error) {
	content, err := e.GenerateAuditionContent(t)
	if err != nil {
		return "", err
	}
	return writeOutput(outputPath(e.OutputFolder, name, "_audition.csv"), content, "Audition标记")
}

func writeTSV(rows [][]string, crlf bool) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = '\t'
	w.UseCRLF = crlf

	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("生成制表符分隔内容失败: %w", err)
	}
	return buf.String(), nil
}

func readTSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, utils.NewKindError(utils.ErrInvalidInput, "解析制表符分隔内容失败", err)
	}
	return rows, nil
}

// DecodeAudacity 解析 Audacity 标签；以反斜杠开头的频谱选区行会被跳过
func DecodeAudacity(r io.Reader) (models.Transcript, error) {
	rows, err := readTSV(r)
	if err != nil {
		return models.Transcript{}, err
	}

	words := make([]models.WordTiming, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 || strings.HasPrefix(row[0], `\`) {
			continue
		}
		if len(row) < 2 {
			return models.Transcript{}, utils.NewKindError(utils.ErrInvalidInput,
				fmt.Sprintf("第 %d 行字段不足", i+1), nil)
		}

		start, err := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		if err != nil {
			return models.Transcript{}, utils.NewKindError(utils.ErrInvalidInput,
				fmt.Sprintf("第 %d 行开始时间无效", i+1), err)
		}
		end, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return models.Transcript{}, utils.NewKindError(utils.ErrInvalidInput,
				fmt.Sprintf("第 %d 行结束时间无效", i+1), err)
		}

		label := ""
		if len(row) > 2 {
			label = row[2]
		}
		words = append(words, models.NewWordTiming(label, start, end))
	}

	return models.NewTranscript(words, "")
}

// ImportAudacity 读取 Audacity 标签文件
func ImportAudacity(path string) (models.Transcript, error) {
	data, err := utils.ReadFile(path)
	if err != nil {
		return models.Transcript{}, err
	}
	return DecodeAudacity(bytes.NewReader(data))
}

// DecodeAudition 解析 Audition 标记，第一行为表头
func DecodeAudition(r io.Reader) (models.Transcript, error) {
	rows, err := readTSV(r)
	if err != nil {
		return models.Transcript{}, err
	}

	var words []models.WordTiming
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < len(auditionHeader) {
			return models.Transcript{}, utils.NewKindError(utils.ErrInvalidInput,
				fmt.Sprintf("第 %d 行字段不足", i+1), nil)
		}

		start, err := utils.ParseHMS(row[1])
		if err != nil {
			return models.Transcript{}, fmt.Errorf("第 %d 行开始时间: %w", i+1, err)
		}
		duration, err := utils.ParseHMS(row[2])
		if err != nil {
			return models.Transcript{}, fmt.Errorf("第 %d 行时长: %w", i+1, err)
		}

		words = append(words, models.NewWordTiming(row[5], start, start+duration))
	}

	return models.NewTranscript(words, "")
}

// ImportAudition 读取 Audition 标记文件
func ImportAudition(path string) (models.Transcript, error) {
	data, err := utils.ReadFile(path)
	if err != nil {
		return models.Transcript{}, err
	}
	return DecodeAudition(bytes.NewReader(data))
}
