package processor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/asr"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/atl"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/export"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/extract"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/metrics"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/reconcile"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// Job 一个口型动画任务
type Job struct {
	Name        string           // 任务名，也是输出文件主名
	Text        asr.TextSource   // 文本识别结果，为nil时直接使用带时间结果的文本
	Timings     asr.TimingSource // 带时间的识别结果
	ImageName   string           // ATL图像名，为空时使用任务名
	OpenImage   string           // 张嘴图片
	ClosedImage string           // 闭嘴图片
}

// imageName 返回脚本使用的图像名
func (j Job) imageName() string {
	if j.ImageName != "" {
		return j.ImageName
	}
	base := filepath.Base(j.Name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Pipeline 单个任务的处理流程：读取 → 对齐 → 导出 → 生成脚本
type Pipeline struct {
	Config           *models.Config
	Reconciler       *reconcile.Reconciler
	Exporters        []export.Exporter
	Metrics          *metrics.Collector // 可为nil
	ErrorHandler     *utils.ErrorHandler
	ProgressCallback asr.ProgressCallback
}

// NewPipeline 根据配置创建处理流程，assistant 与 collector 都可以为nil
func NewPipeline(cfg *models.Config, assistant reconcile.Assistant, collector *metrics.Collector) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	exporters, err := export.NewExporters(cfg)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		Config:       cfg,
		Reconciler:   reconcile.NewReconciler(cfg.Reconciliation, assistant),
		Exporters:    exporters,
		Metrics:      collector,
		ErrorHandler: utils.NewErrorHandler(cfg.MaxRetries, cfg.RetryDelay),
	}, nil
}

// SetProgressCallback 设置进度回调
func (p *Pipeline) SetProgressCallback(callback asr.ProgressCallback) {
	p.ProgressCallback = callback
}

func (p *Pipeline) progress(percent int, message string) {
	if p.ProgressCallback != nil {
		p.ProgressCallback(percent, message)
	}
}

// Run 执行一个任务。出错时返回的结果仍然记录了已经写出的文件，便于调用方清理
func (p *Pipeline) Run(ctx context.Context, job Job) (result *models.Result, err error) {
	startTime := time.Now()
	result = models.NewResult(job.Name)
	logger := utils.WithFields(map[string]interface{}{"job": job.Name, "job_id": result.JobID})

	defer func() {
		elapsed := time.Since(startTime)
		result.ProcessTimeMs = elapsed.Milliseconds()
		p.Metrics.RecordJob(outcomeOf(err), elapsed.Seconds())
	}()

	if job.Timings == nil {
		return result, utils.NewKindError(utils.ErrInvalidInput, "任务缺少带时间的识别结果", nil)
	}

	p.progress(10, "读取识别结果")
	timedWords, err := job.Timings.Timings(ctx)
	if err != nil {
		return result, fmt.Errorf("读取带时间的识别结果失败: %w", err)
	}

	transcript, path, err := p.reconcile(ctx, job, timedWords)
	if err != nil {
		return result, err
	}
	result.ReconcilePath = string(path)
	p.Metrics.RecordReconcile(string(path))
	logger.Infof("对齐完成: %d 个单词, 路径 %s", transcript.Len(), path)

	p.progress(50, "导出转录")
	for _, exporter := range p.Exporters {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var outputPath string
		err := p.ErrorHandler.Retry("导出"+exporter.Format(), func() error {
			var exportErr error
			outputPath, exportErr = exporter.Export(transcript, job.Name)
			return exportErr
		})
		if err != nil {
			return result, err
		}
		result.OutputFiles[exporter.Format()] = outputPath
	}

	p.progress(80, "生成口型脚本")
	scriptPath, err := p.generate(transcript, job)
	if err != nil {
		return result, err
	}
	result.OutputFiles["atl"] = scriptPath

	result.WordCount = transcript.Len()
	result.SegmentCount = len(extract.GetSegments(transcript, p.Config.SegmentTolerance))
	result.DurationMs = int64(transcript.Duration() * 1000)
	if mean, ok := transcript.MeanConfidence(); ok {
		result.MeanConfidence = models.Float64(mean)
	}
	p.Metrics.RecordWords(result.WordCount)

	p.progress(100, "处理完成")
	return result, nil
}

// reconcile 读取文本识别结果并与带时间的结果合并
func (p *Pipeline) reconcile(ctx context.Context, job Job, timedWords []models.WordTiming) (models.Transcript, reconcile.Path, error) {
	if job.Text == nil {
		t, err := models.NewTranscript(timedWords, p.Reconciler.Model)
		if err != nil {
			return models.Transcript{}, "", err
		}
		return t, reconcile.PathTimingOnly, nil
	}

	textWords, err := job.Text.Words(ctx)
	if err != nil {
		return models.Transcript{}, "", fmt.Errorf("读取文本识别结果失败: %w", err)
	}

	p.progress(30, "对齐两路识别结果")
	t, path, err := p.Reconciler.Reconcile(ctx, textWords, timedWords)
	if err != nil {
		return models.Transcript{}, "", fmt.Errorf("对齐识别结果失败: %w", err)
	}
	return t, path, nil
}

// generate 按配置的对齐方式生成并写出ATL脚本
func (p *Pipeline) generate(t models.Transcript, job Job) (string, error) {
	opts, err := atl.NewOptions(p.Config, job.imageName(), job.OpenImage, job.ClosedImage)
	if err != nil {
		return "", err
	}

	generator, err := atl.NewGenerator(t, opts)
	if err != nil {
		return "", err
	}
	script := generator.Generate(p.Config.Alignment)

	var scriptPath string
	err = p.ErrorHandler.Retry("导出ATL脚本", func() error {
		var writeErr error
		scriptPath, writeErr = atl.ExportScript(p.Config.OutputFolder, opts.ImageName, script)
		return writeErr
	})
	return scriptPath, err
}

// outcomeOf 把任务错误归类为指标标签
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeFailed
	}
}
