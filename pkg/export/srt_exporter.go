package export

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/extract"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// SRTExporter 负责将转录按停顿切分后导出为SRT字幕文件
type SRTExporter struct {
	OutputFolder string
	LineWidth    int     // 每行最大显示宽度
	Tolerance    float64 // 切分段落时允许的最大停顿
}

// NewSRTExporter 创建一个新的SRT导出器
func NewSRTExporter(outputFolder string, lineWidth int, tolerance float64) *SRTExporter {
	return &SRTExporter{
		OutputFolder: outputFolder,
		LineWidth:    lineWidth,
		Tolerance:    tolerance,
	}
}

// Format 实现 Exporter
func (e *SRTExporter) Format() string {
	return models.ExportSRT
}

// Export 实现 Exporter
func (e *SRTExporter) Export(t models.Transcript, name string) (string, error) {
	return e.ExportSRT(t, name)
}

// GenerateSRTContent 生成SRT格式内容，每个段落一条字幕
func (e *SRTExporter) GenerateSRTContent(segments []models.Segment) string {
	var srtLines []string

	index := 0
	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text())
		if text == "" {
			continue
		}
		index++

		srtLines = append(srtLines, fmt.Sprintf("%d", index))
		srtLines = append(srtLines, fmt.Sprintf("%s --> %s",
			utils.FormatSRTTime(segment.Start()), utils.FormatSRTTime(segment.End())))
		srtLines = append(srtLines, WrapText(text, e.LineWidth))
		srtLines = append(srtLines, "") // 空行分隔
	}

	if len(srtLines) == 0 {
		return ""
	}
	return strings.Join(srtLines, "\n") + "\n"
}

// ExportSRT 导出SRT格式字幕文件
func (e *SRTExporter) ExportSRT(t models.Transcript, name string) (string, error) {
	content := e.GenerateSRTContent(extract.GetSegments(t, e.Tolerance))
	return writeOutput(outputPath(e.OutputFolder, name, ".srt"), content, "SRT字幕")
}

// WrapText 按显示宽度折行（全角字符计2），超长的单词单独成行
func WrapText(text string, width int) string {
	words := strings.Fields(text)
	if width <= 0 || len(words) == 0 {
		return strings.Join(words, " ")
	}

	var (
		lines   []string
		current strings.Builder
		used    int
	)
	for _, word := range words {
		w := runewidth.StringWidth(word)
		if used > 0 && used+1+w > width {
			lines = append(lines, current.String())
			current.Reset()
			used = 0
		}
		if used > 0 {
			current.WriteByte(' ')
			used++
		}
		current.WriteString(word)
		used += w
	}
	lines = append(lines, current.String())

	return strings.Join(lines, "\n")
}
