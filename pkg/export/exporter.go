package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// Exporter 把转录导出为某种文件格式
type Exporter interface {
	// Format 导出格式名，与配置中的 export_formats 对应
	Format() string
	// Export 写出文件并返回文件路径
	Export(t models.Transcript, name string) (string, error)
}

// NewExporter 按格式名创建导出器
func NewExporter(format string, cfg *models.Config) (Exporter, error) {
	switch format {
	case models.ExportJSON:
		return NewJSONExporter(cfg.OutputFolder), nil
	case models.ExportAudacity:
		return NewAudacityExporter(cfg.OutputFolder), nil
	case models.ExportAudition:
		return NewAuditionExporter(cfg.OutputFolder), nil
	case models.ExportSRT:
		return NewSRTExporter(cfg.OutputFolder, cfg.SubtitleLineWidth, cfg.SegmentTolerance), nil
	default:
		return nil, utils.NewKindError(utils.ErrInvalidInput, fmt.Sprintf("不支持的导出格式: %s", format), nil)
	}
}

// NewExporters 创建配置中列出的全部导出器
func NewExporters(cfg *models.Config) ([]Exporter, error) {
	exporters := make([]Exporter, 0, len(cfg.ExportFormats))
	for _, format := range cfg.ExportFormats {
		exporter, err := NewExporter(format, cfg)
		if err != nil {
			return nil, err
		}
		exporters = append(exporters, exporter)
	}
	return exporters, nil
}

// outputPath 由任务名构造输出文件路径，任务名可以带目录与扩展名
func outputPath(folder, name, suffix string) string {
	baseName := filepath.Base(name)
	baseName = strings.TrimSuffix(baseName, filepath.Ext(baseName))
	return filepath.Join(folder, baseName+suffix)
}

func writeOutput(path, content, kind string) (string, error) {
	if err := utils.WriteFileAtomic(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("写入%s文件失败: %w", kind, err)
	}

	utils.Info("已导出%s文件: %s", kind, path)
	return path, nil
}
