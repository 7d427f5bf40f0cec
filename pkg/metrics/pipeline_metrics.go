// Package metrics 提供处理流水线的 Prometheus 指标
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// 任务结果标签
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// Collector 流水线指标，每个实例使用独立的注册表
type Collector struct {
	registry *prometheus.Registry

	// jobsTotal 任务数，标签 outcome: success / failed / canceled
	jobsTotal *prometheus.CounterVec

	// reconcilePaths 对齐路径计数，标签 path: matching / aligned / assisted / timing-only
	reconcilePaths *prometheus.CounterVec

	// jobDuration 单个任务耗时，桶: 10ms ~ 60s
	jobDuration prometheus.Histogram

	wordsTotal prometheus.Counter
}

// NewCollector 创建并注册流水线指标
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		jobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lipsync_jobs_total",
				Help: "Total number of lip-sync jobs by outcome",
			},
			[]string{"outcome"},
		),
		reconcilePaths: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lipsync_reconcile_paths_total",
				Help: "Total number of reconciliations by resolution path",
			},
			[]string{"path"},
		),
		jobDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lipsync_job_duration_seconds",
				Help:    "Duration of lip-sync jobs in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60},
			},
		),
		wordsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lipsync_words_total",
				Help: "Total number of timed words written to scripts",
			},
		),
	}

	c.registry.MustRegister(c.jobsTotal, c.reconcilePaths, c.jobDuration, c.wordsTotal)
	return c
}

// RecordJob 记录一个任务的结果与耗时。nil Collector 不做任何事
func (c *Collector) RecordJob(outcome string, durationSeconds float64) {
	if c == nil {
		return
	}
	c.jobsTotal.WithLabelValues(outcome).Inc()
	c.jobDuration.Observe(durationSeconds)
}

// RecordReconcile 记录对齐路径
func (c *Collector) RecordReconcile(path string) {
	if c == nil {
		return
	}
	c.reconcilePaths.WithLabelValues(path).Inc()
}

// RecordWords 累加输出的单词数
func (c *Collector) RecordWords(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.wordsTotal.Add(float64(n))
}

// Registry 返回底层注册表
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile 以文本格式写出全部指标，供 node-exporter textfile 采集
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("写入指标文件失败: %w", err)
	}
	return nil
}
