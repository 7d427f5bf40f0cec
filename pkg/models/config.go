package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ReconciliationPolicy 两路识别结果长度不一致时的处理策略
type ReconciliationPolicy string

const (
	// PolicyAuto 长度一致时直接配对，否则按序列比对，无法自动解决时交给人工校对
	PolicyAuto ReconciliationPolicy = "auto"
	// PolicyForcedManual 无论长度是否一致都交给人工校对
	PolicyForcedManual ReconciliationPolicy = "forced-manual"
	// PolicyTimingOnly 长度不一致时丢弃文本识别结果，直接使用带时间的识别结果
	PolicyTimingOnly ReconciliationPolicy = "degrade-to-timing-only"
)

// AlignmentMode 口型动画的帧对齐方式
type AlignmentMode string

const (
	AlignmentFixed AlignmentMode = "fixed" // 固定帧长
	AlignmentWord  AlignmentMode = "word"  // 按单词对齐
)

// 支持的导出格式
const (
	ExportJSON     = "json"
	ExportAudacity = "audacity"
	ExportAudition = "audition"
	ExportSRT      = "srt"
)

var (
	validPolicies      = []ReconciliationPolicy{PolicyAuto, PolicyForcedManual, PolicyTimingOnly}
	validAlignments    = []AlignmentMode{AlignmentFixed, AlignmentWord}
	validExportFormats = []string{ExportJSON, ExportAudacity, ExportAudition, ExportSRT}
)

// Config 表示应用程序的配置，通过构造函数逐层传递
type Config struct {
	OutputFolder        string               `json:"output_folder" yaml:"output_folder"`                 // 输出结果文件夹
	Reconciliation      ReconciliationPolicy `json:"reconciliation" yaml:"reconciliation"`               // 对齐策略
	FrameDuration       float64              `json:"frame_duration" yaml:"frame_duration"`               // 名义帧长（秒）
	Alignment           AlignmentMode        `json:"alignment" yaml:"alignment"`                         // fixed / word
	Indent              int                  `json:"indent" yaml:"indent"`                               // 脚本缩进空格数
	VerboseAnnotations  bool                 `json:"verbose_annotations" yaml:"verbose_annotations"`     // 详细注释
	FullImagePath       bool                 `json:"full_image_path" yaml:"full_image_path"`             // 保留图片完整路径
	ImageRoot           string               `json:"image_root" yaml:"image_root"`                       // 截断图片路径时保留的最高层目录
	ConfidenceThreshold float64              `json:"confidence_threshold" yaml:"confidence_threshold"`   // 低于该平均置信度时在脚本头部标记(!)
	SegmentTolerance    float64              `json:"segment_tolerance" yaml:"segment_tolerance"`         // 切分段落时允许的最大停顿（秒）
	SubtitleLineWidth   int                  `json:"subtitle_line_width" yaml:"subtitle_line_width"`     // 字幕每行显示宽度
	ExportFormats       []string             `json:"export_formats" yaml:"export_formats"`               // 导出格式
	MaxWorkers          int                  `json:"max_workers" yaml:"max_workers"`                     // 批处理并发数
	MaxRetries          int                  `json:"max_retries" yaml:"max_retries"`                     // 写文件最大重试次数
	RetryDelay          float64              `json:"retry_delay" yaml:"retry_delay"`                     // 重试延迟（秒）
	LogLevel            string               `json:"log_level" yaml:"log_level"`                         // 日志级别
	LogFile             string               `json:"log_file" yaml:"log_file"`                           // 日志文件
	ShowProgress        bool                 `json:"show_progress" yaml:"show_progress"`                 // 显示进度条
	WatchDebounceMs     int                  `json:"watch_debounce_ms" yaml:"watch_debounce_ms"`         // 监听模式去抖时间（毫秒）
	MetricsFile         string               `json:"metrics_file" yaml:"metrics_file"`                   // 指标文本文件，空表示不输出
}

// ConfigValidationError 表示配置验证错误
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e ConfigValidationError) Error() string {
	return fmt.Sprintf("配置验证错误: %s - %s", e.Field, e.Message)
}

// NewDefaultConfig 创建默认配置
func NewDefaultConfig() *Config {
	return &Config{
		OutputFolder:        "./output",
		Reconciliation:      PolicyAuto,
		FrameDuration:       0.2,
		Alignment:           AlignmentFixed,
		Indent:              4,
		VerboseAnnotations:  false,
		FullImagePath:       false,
		ImageRoot:           "images",
		ConfidenceThreshold: 0.5,
		SegmentTolerance:    0.0,
		SubtitleLineWidth:   42,
		ExportFormats:       []string{ExportJSON},
		MaxWorkers:          4,
		MaxRetries:          3,
		RetryDelay:          1.0,
		LogLevel:            "INFO",
		LogFile:             "",
		ShowProgress:        true,
		WatchDebounceMs:     500,
		MetricsFile:         "",
	}
}

// Validate 验证配置是否有效
func (c *Config) Validate() error {
	if !containsPolicy(validPolicies, c.Reconciliation) {
		return &ConfigValidationError{"Reconciliation", fmt.Sprintf("必须是 %v 之一", validPolicies)}
	}

	if c.FrameDuration <= 0 || c.FrameDuration > 5 {
		return &ConfigValidationError{"FrameDuration", "必须在0-5秒之间（不含0）"}
	}

	if c.Alignment != AlignmentFixed && c.Alignment != AlignmentWord {
		return &ConfigValidationError{"Alignment", fmt.Sprintf("必须是 %v 之一", validAlignments)}
	}

	if c.Indent < 0 || c.Indent > 16 {
		return &ConfigValidationError{"Indent", "必须在0-16之间"}
	}

	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return &ConfigValidationError{"ConfidenceThreshold", "必须在0-1之间"}
	}

	if c.SegmentTolerance < 0 {
		return &ConfigValidationError{"SegmentTolerance", "不能为负数"}
	}

	if c.SubtitleLineWidth < 10 || c.SubtitleLineWidth > 200 {
		return &ConfigValidationError{"SubtitleLineWidth", "必须在10-200之间"}
	}

	for _, format := range c.ExportFormats {
		if !containsString(validExportFormats, format) {
			return &ConfigValidationError{"ExportFormats", fmt.Sprintf("不支持的导出格式 %q", format)}
		}
	}

	if c.MaxWorkers < 1 || c.MaxWorkers > 16 {
		return &ConfigValidationError{"MaxWorkers", "必须在1-16之间"}
	}

	if c.MaxRetries < 1 || c.MaxRetries > 10 {
		return &ConfigValidationError{"MaxRetries", "必须在1-10之间"}
	}

	if c.RetryDelay < 0 || c.RetryDelay > 10.0 {
		return &ConfigValidationError{"RetryDelay", "必须在0-10.0秒之间"}
	}

	if c.WatchDebounceMs < 0 || c.WatchDebounceMs > 10000 {
		return &ConfigValidationError{"WatchDebounceMs", "必须在0-10000毫秒之间"}
	}

	return nil
}

// ParsePolicy 解析对齐策略名
func ParsePolicy(name string) (ReconciliationPolicy, error) {
	policy := ReconciliationPolicy(strings.ToLower(strings.TrimSpace(name)))
	if !containsPolicy(validPolicies, policy) {
		return "", &ConfigValidationError{"Reconciliation", fmt.Sprintf("未知的对齐策略 %q，必须是 %v 之一", name, validPolicies)}
	}
	return policy, nil
}

// ParseAlignmentMode 解析帧对齐方式
func ParseAlignmentMode(name string) (AlignmentMode, error) {
	mode := AlignmentMode(strings.ToLower(strings.TrimSpace(name)))
	if mode != AlignmentFixed && mode != AlignmentWord {
		return "", &ConfigValidationError{"Alignment", fmt.Sprintf("未知的对齐方式 %q，必须是 %v 之一", name, validAlignments)}
	}
	return mode, nil
}

// HasExportFormat 是否配置了指定导出格式
func (c *Config) HasExportFormat(format string) bool {
	return containsString(c.ExportFormats, format)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFromFile 从文件加载配置，.yaml/.yml 按YAML解析，其余按JSON解析
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("读取配置文件失败: %v", err)
		return err
	}

	loaded := *c
	if isYAML(path) {
		err = yaml.Unmarshal(data, &loaded)
	} else {
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		logrus.Errorf("解析配置文件失败: %v", err)
		return err
	}

	if err := loaded.Validate(); err != nil {
		logrus.Errorf("配置验证失败: %v", err)
		return err
	}

	*c = loaded
	return nil
}

// SaveToFile 保存配置到文件
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logrus.Errorf("创建目录失败: %v", err)
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		logrus.Errorf("序列化配置失败: %v", err)
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		logrus.Errorf("写入配置文件失败: %v", err)
		return err
	}

	return nil
}

// Update 批量更新配置，验证失败时回滚
func (c *Config) Update(updates map[string]interface{}) error {
	tempConfig := *c

	// 将更新序列化为JSON再反序列化到结构体中
	updateBytes, err := json.Marshal(updates)
	if err != nil {
		logrus.Errorf("序列化更新数据失败: %v", err)
		return err
	}

	if err := json.Unmarshal(updateBytes, c); err != nil {
		*c = tempConfig
		logrus.Errorf("应用配置更新失败: %v", err)
		return err
	}

	if err := c.Validate(); err != nil {
		*c = tempConfig
		logrus.Errorf("配置验证失败: %v", err)
		return err
	}

	return nil
}

// Reset 重置为默认配置
func (c *Config) Reset() {
	*c = *NewDefaultConfig()
}

// PrintConfig 打印当前配置
func (c *Config) PrintConfig() {
	bytes, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		logrus.Errorf("序列化配置失败: %v", err)
		return
	}
	logrus.Infof("当前配置:\n%s", string(bytes))
}

func containsPolicy(list []ReconciliationPolicy, v ReconciliationPolicy) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
