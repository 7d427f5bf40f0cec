package asr

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// TimingDecoder 把文件内容解析为带时间的单词
type TimingDecoder func(data []byte) ([]models.WordTiming, error)

// FormatStats 格式使用统计
type FormatStats struct {
	SuccessCount int
	TotalCount   int
}

// SourceSelector 带时间识别结果的格式选择器：显式格式优先，否则按文件后缀判断
type SourceSelector struct {
	mu         sync.RWMutex
	decoders   map[string]TimingDecoder // 格式 -> 解析函数
	suffixes   map[string]string        // 文件后缀 -> 格式
	stats      map[string]*FormatStats  // 统计信息
	formatList []string                 // 注册顺序
}

// NewSourceSelector 创建空的格式选择器
func NewSourceSelector() *SourceSelector {
	return &SourceSelector{
		decoders:   make(map[string]TimingDecoder),
		suffixes:   make(map[string]string),
		stats:      make(map[string]*FormatStats),
		formatList: make([]string, 0),
	}
}

// NewDefaultSelector 创建注册了全部内置格式的选择器
func NewDefaultSelector() *SourceSelector {
	s := NewSourceSelector()
	s.RegisterFormat(FormatVosk, DecodeVosk, ".vosk.json")
	s.RegisterFormat(FormatWhisper, DecodeWhisper, ".whisper.json")
	s.RegisterFormat(FormatJSON, decodeAutoJSON, ".json")
	s.RegisterFormat(FormatAudacity, decodeAudacity, ".labels.txt", "_audacity.txt", ".txt")
	s.RegisterFormat(FormatAudition, decodeAudition, ".csv")
	return s
}

// RegisterFormat 注册格式及其文件后缀
func (s *SourceSelector) RegisterFormat(format string, decoder TimingDecoder, suffixes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.decoders[format]; !exists {
		s.formatList = append(s.formatList, format)
		s.stats[format] = &FormatStats{}
	}
	s.decoders[format] = decoder
	for _, suffix := range suffixes {
		s.suffixes[strings.ToLower(suffix)] = format
	}

	utils.Log.Debugf("注册识别结果格式: %s, 后缀: %v", format, suffixes)
}

// Formats 已注册的格式
func (s *SourceSelector) Formats() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.formatList...)
}

// DetectFormat 按最长匹配的后缀判断文件格式
func (s *SourceSelector) DetectFormat(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name := strings.ToLower(filepath.Base(path))
	best, format := "", ""
	for suffix, f := range s.suffixes {
		if strings.HasSuffix(name, suffix) && len(suffix) > len(best) {
			best, format = suffix, f
		}
	}
	return format, format != ""
}

// SelectTimingSource 选择文件的解析方式，format 为空或 auto 时按后缀判断
func (s *SourceSelector) SelectTimingSource(path, format string) (*TimingFile, error) {
	if format == "" || format == FormatAuto {
		detected, ok := s.DetectFormat(path)
		if !ok {
			return nil, utils.NewKindError(utils.ErrInvalidInput,
				fmt.Sprintf("无法根据文件名判断识别结果格式: %s", path), nil)
		}
		format = detected
	}

	s.mu.RLock()
	decoder, ok := s.decoders[format]
	s.mu.RUnlock()
	if !ok {
		return nil, utils.NewKindError(utils.ErrInvalidInput, fmt.Sprintf("未知的识别结果格式: %s", format), nil)
	}

	return &TimingFile{
		Path:   path,
		Format: format,
		decode: s.tracked(format, decoder),
	}, nil
}

// tracked 包装解析函数，记录成功率
func (s *SourceSelector) tracked(format string, decoder TimingDecoder) TimingDecoder {
	return func(data []byte) ([]models.WordTiming, error) {
		words, err := decoder(data)
		s.ReportResult(format, err == nil)
		return words, err
	}
}

// ReportResult 报告一次解析结果
func (s *SourceSelector) ReportResult(format string, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stat, exists := s.stats[format]; exists {
		if success {
			stat.SuccessCount++
		}
		stat.TotalCount++
	}
}

// GetStats 获取各格式的使用统计
func (s *SourceSelector) GetStats() map[string]map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]map[string]interface{})
	for name, stat := range s.stats {
		if stat.TotalCount == 0 {
			continue
		}
		successRate := float64(stat.SuccessCount) / float64(stat.TotalCount) * 100
		result[name] = map[string]interface{}{
			"count":        stat.TotalCount,
			"success_rate": fmt.Sprintf("%.1f%%", successRate),
		}
	}
	return result
}

// PrintStats 输出格式使用统计
func (s *SourceSelector) PrintStats() {
	stats := s.GetStats()
	if len(stats) == 0 {
		return
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	utils.Info("识别结果格式统计:")
	for _, name := range names {
		utils.Info("  %s: %v 次, 成功率 %v", name, stats[name]["count"], stats[name]["success_rate"])
	}
}
