package models

import "github.com/google/uuid"

// Result 一次处理任务的结果统计信息
type Result struct {
	JobID          string            `json:"job_id"`           // 任务ID
	Name           string            `json:"name"`             // 任务名称（输入文件主名）
	ReconcilePath  string            `json:"reconcile_path"`   // 对齐所走的路径
	OutputFiles    map[string]string `json:"output_files"`     // 输出文件路径，按格式索引
	WordCount      int               `json:"word_count"`       // 单词数
	SegmentCount   int               `json:"segment_count"`    // 段落数
	DurationMs     int64             `json:"duration_ms"`      // 转录时长（毫秒）
	ProcessTimeMs  int64             `json:"process_time_ms"`  // 处理耗时（毫秒）
	MeanConfidence *float64          `json:"mean_confidence"`  // 平均置信度，空转录为nil
}

// NewResult 创建带有新任务ID的结果
func NewResult(name string) *Result {
	return &Result{
		JobID:       uuid.NewString(),
		Name:        name,
		OutputFiles: make(map[string]string),
	}
}
