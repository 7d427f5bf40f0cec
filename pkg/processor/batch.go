package processor

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ccp-p/asr-media-cli/lipsync/internal/ui"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// BatchResult 存储批处理结果
type BatchResult struct {
	Job         string
	Success     bool
	Result      *models.Result
	Error       error
	ProcessTime time.Duration
}

// BatchProgressCallback 批处理进度回调，result 为nil表示任务开始
type BatchProgressCallback func(current, total int, name string, result *BatchResult)

// BatchProcessor 批量处理器，任务之间并发，单个任务内部顺序执行
type BatchProcessor struct {
	Pipeline         *Pipeline
	MaxWorkers       int
	ErrorHandler     *utils.ErrorHandler
	ProgressCallback BatchProgressCallback
	ProgressManager  *ui.ProgressManager
}

// NewBatchProcessor 创建批处理器
func NewBatchProcessor(pipeline *Pipeline, callback BatchProgressCallback) *BatchProcessor {
	maxWorkers := pipeline.Config.MaxWorkers
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	return &BatchProcessor{
		Pipeline:         pipeline,
		MaxWorkers:       maxWorkers,
		ErrorHandler:     utils.NewErrorHandler(1, 0),
		ProgressCallback: callback,
	}
}

// SetProgressManager 设置进度管理器
func (p *BatchProcessor) SetProgressManager(manager *ui.ProgressManager) {
	p.ProgressManager = manager
}

// Process 并发处理多个任务。单个任务失败只记录在结果中；
// ctx 被取消时不再启动新任务，未启动的任务以 ctx 的错误结束，并返回该错误
func (p *BatchProcessor) Process(ctx context.Context, jobs []Job) ([]BatchResult, error) {
	results := make([]BatchResult, len(jobs))
	if len(jobs) == 0 {
		return results, nil
	}

	// 创建总进度条
	if p.ProgressManager != nil {
		p.ProgressManager.CreateProgressBar("batch_overall", len(jobs),
			"总体进度", fmt.Sprintf("0/%d 任务已处理", len(jobs)))
	}

	var (
		mu        sync.Mutex
		completed int
	)

	g := new(errgroup.Group)
	g.SetLimit(p.MaxWorkers)

	for i, job := range jobs {
		results[i] = BatchResult{Job: job.Name}
		if err := ctx.Err(); err != nil {
			results[i].Error = err
			continue
		}

		index, job := i, job
		g.Go(func() error {
			if p.ProgressCallback != nil {
				p.ProgressCallback(index+1, len(jobs), job.Name, nil)
			}

			result := p.processSingleJob(ctx, job)

			mu.Lock()
			results[index] = result
			completed++
			done := completed
			mu.Unlock()

			if p.ProgressCallback != nil {
				p.ProgressCallback(done, len(jobs), job.Name, &result)
			}
			if p.ProgressManager != nil {
				p.ProgressManager.UpdateProgressBar("batch_overall", done,
					fmt.Sprintf("%d/%d 任务已处理", done, len(jobs)))
			}
			return nil
		})
	}

	// 任务失败不返回错误，Wait 只用于等待
	_ = g.Wait()

	if p.ProgressManager != nil {
		p.ProgressManager.CompleteProgressBar("batch_overall", "所有任务处理完成")
	}

	return results, ctx.Err()
}

// processSingleJob 处理单个任务，失败时删除已写出的文件
func (p *BatchProcessor) processSingleJob(ctx context.Context, job Job) BatchResult {
	startTime := time.Now()
	batchResult := BatchResult{Job: job.Name}

	barID := "job_" + job.Name
	if p.ProgressManager != nil {
		p.ProgressManager.CreateProgressBar(barID, 100, fmt.Sprintf("处理 %s", job.Name), "准备中")
	}

	var result *models.Result
	err := p.ErrorHandler.SafeExecute("处理任务 "+job.Name, func() error {
		var runErr error
		result, runErr = p.Pipeline.Run(ctx, job)
		return runErr
	}, func() {
		if result == nil {
			return
		}
		for _, path := range result.OutputFiles {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				utils.Warn("删除未完成任务的输出失败 %s: %v", path, err)
			}
		}
	})

	batchResult.Result = result
	batchResult.Error = err
	batchResult.Success = err == nil
	batchResult.ProcessTime = time.Since(startTime)

	if p.ProgressManager != nil {
		if err != nil {
			p.ProgressManager.CompleteProgressBar(barID, fmt.Sprintf("失败: %v", err))
		} else {
			p.ProgressManager.CompleteProgressBar(barID, "处理完成")
		}
	}
	return batchResult
}

// Summarize 统计成功与失败的任务数
func Summarize(results []BatchResult) (succeeded, failed int) {
	for _, r := range results {
		if r.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
