package export

import (
	"encoding/json"
	"fmt"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// TranscriptRecord 转录的结构化JSON表示
type TranscriptRecord struct {
	Model string              `json:"model"` // 识别模型
	Text  string              `json:"text"`  // 全文
	Words []models.WordTiming `json:"words"` // 逐词时间
}

// JSONExporter 负责将转录导出为JSON文件
type JSONExporter struct {
	OutputFolder string
}

// NewJSONExporter 创建一个新的JSON导出器
func NewJSONExporter(outputFolder string) *JSONExporter {
	return &JSONExporter{
		OutputFolder: outputFolder,
	}
}

// Format 实现 Exporter
func (e *JSONExporter) Format() string {
	return models.ExportJSON
}

// Export 实现 Exporter
func (e *JSONExporter) Export(t models.Transcript, name string) (string, error) {
	return e.ExportJSON(t, name)
}

// GenerateJSONContent 生成转录的结构化表示
func (e *JSONExporter) GenerateJSONContent(t models.Transcript) TranscriptRecord {
	words := t.Words()
	if words == nil {
		words = []models.WordTiming{}
	}

	return TranscriptRecord{
		Model: t.Model(),
		Text:  t.Text(),
		Words: words,
	}
}

// ExportJSON 导出JSON格式文件
func (e *JSONExporter) ExportJSON(t models.Transcript, name string) (string, error) {
	jsonData, err := json.MarshalIndent(e.GenerateJSONContent(t), "", "    ")
	if err != nil {
		return "", fmt.Errorf("JSON编码失败: %w", err)
	}

	return writeOutput(outputPath(e.OutputFolder, name, ".json"), string(jsonData), "JSON")
}

// DecodeJSON 从JSON数据还原转录
func DecodeJSON(data []byte) (models.Transcript, error) {
	var record TranscriptRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return models.Transcript{}, utils.NewKindError(utils.ErrInvalidInput, "解析转录JSON失败", err)
	}

	return models.NewTranscript(record.Words, record.Model)
}

// ImportJSON 读取由 ExportJSON 写出的文件
func ImportJSON(path string) (models.Transcript, error) {
	data, err := utils.ReadFile(path)
	if err != nil {
		return models.Transcript{}, err
	}

	t, err := DecodeJSON(data)
	if err != nil {
		return models.Transcript{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
