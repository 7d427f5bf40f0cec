package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/ccp-p/asr-media-cli/lipsync/internal/ui"
	"github.com/ccp-p/asr-media-cli/lipsync/internal/watcher"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/asr"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/atl"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/metrics"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/processor"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/reconcile"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/scanner"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// Options 控制器的运行选项
type Options struct {
	Interactive bool      // 需要人工校对时在终端中询问
	In          io.Reader // 校对输入，默认标准输入
	Out         io.Writer // 结果输出，默认标准输出
}

// Controller 协调各个组件工作
type Controller struct {
	Config *models.Config

	ProgressManager *ui.ProgressManager
	Selector        *asr.SourceSelector
	Metrics         *metrics.Collector
	Assistant       reconcile.Assistant // 非交互模式下为nil

	Stats struct {
		StartTime time.Time
		TotalJobs int
		Succeeded int
		Failed    int
	}

	out        io.Writer
	ctx        context.Context
	cancelFunc context.CancelFunc
	cleanup    []func()
	mu         sync.Mutex
}

// New 创建控制器，ctx 在收到中断信号时被取消
func New(cfg *models.Config, opts Options) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	c := &Controller{
		Config:          cfg,
		ProgressManager: ui.NewProgressManager(cfg.ShowProgress && !opts.Interactive),
		Selector:        asr.NewDefaultSelector(),
		Metrics:         metrics.NewCollector(),
		out:             opts.Out,
		ctx:             ctx,
		cancelFunc:      cancel,
	}
	c.ProgressManager.SetOutput(opts.Out)
	c.addCleanup(cancel)

	if opts.Interactive {
		// 校对期间日志只写文件，避免打断输入
		utils.EnableTerminalInteractive()
		c.addCleanup(utils.DisableTerminalInteractive)
		c.Assistant = ui.NewTerminalAssistant(opts.In, opts.Out)
	}

	return c, nil
}

// Context 返回控制器的上下文
func (c *Controller) Context() context.Context {
	return c.ctx
}

// Cancel 取消正在进行的处理
func (c *Controller) Cancel() {
	c.cancelFunc()
}

// NewPipeline 使用控制器的配置、校对程序与指标创建处理流程
func (c *Controller) NewPipeline() (*processor.Pipeline, error) {
	return processor.NewPipeline(c.Config, c.Assistant, c.Metrics)
}

// RunJob 处理单个任务并打印结果
func (c *Controller) RunJob(job processor.Job) (*models.Result, error) {
	c.Stats.StartTime = time.Now()

	pipeline, err := c.NewPipeline()
	if err != nil {
		return nil, err
	}

	barID := "job_" + job.Name
	c.ProgressManager.CreateProgressBar(barID, 100, "处理 "+job.Name, "准备中")
	pipeline.SetProgressCallback(c.ProgressManager.Callback(barID))

	result, err := pipeline.Run(c.ctx, job)
	c.Stats.TotalJobs = 1
	if err != nil {
		c.Stats.Failed = 1
		c.ProgressManager.CompleteProgressBar(barID, "失败")
		color.New(color.FgRed).Fprintf(c.out, "处理失败: %s - %v\n", job.Name, err)
		c.writeMetrics()
		return result, err
	}

	c.Stats.Succeeded = 1
	c.ProgressManager.CompleteProgressBar(barID, "处理完成")
	c.printResult(result)
	c.writeMetrics()
	return result, nil
}

// RunBatch 扫描目录中的配对文件并批量处理
func (c *Controller) RunBatch(dir, openImage, closedImage string) ([]processor.BatchResult, error) {
	c.Stats.StartTime = time.Now()

	jobScanner := scanner.NewJobScanner(c.Selector)
	files, err := jobScanner.ScanDirectory(dir)
	if err != nil {
		return nil, fmt.Errorf("扫描目录失败: %w", err)
	}
	if len(files) == 0 {
		utils.Info("没有找到可以配对的识别结果")
		return nil, nil
	}

	jobs, err := jobScanner.BuildJobs(files, openImage, closedImage)
	if err != nil {
		return nil, err
	}

	pipeline, err := c.NewPipeline()
	if err != nil {
		return nil, err
	}

	batch := processor.NewBatchProcessor(pipeline, c.batchProgressCallback)
	batch.SetProgressManager(c.ProgressManager)

	results, err := batch.Process(c.ctx, jobs)
	c.updateStats(results)
	c.printSummary()
	c.Selector.PrintStats()
	batch.ErrorHandler.PrintErrorStats()
	c.writeMetrics()

	return results, err
}

// Watch 监控脚本文件，保存时重新注释，直到收到中断信号
func (c *Controller) Watch(scriptPath string, generator *atl.Generator) error {
	handler := watcher.NewScriptHandler(generator, c.Config.VerboseAnnotations)
	handler.OnUpdate = func(filePath string) {
		color.New(color.FgGreen).Fprintf(c.out, "已更新: %s\n", filePath)
	}

	utils.Info("监控已启动，按Ctrl+C退出...")
	debounce := time.Duration(c.Config.WatchDebounceMs) * time.Millisecond
	return watcher.WatchScript(c.ctx, scriptPath, handler, debounce)
}

func (c *Controller) batchProgressCallback(current, total int, name string, result *processor.BatchResult) {
	if result == nil {
		utils.Debug("[%d/%d] 开始处理: %s", current, total, name)
		return
	}
	if result.Success {
		utils.Info("[%d/%d] 处理成功: %s (%s)", current, total, name,
			utils.FormatTimeDuration(result.ProcessTime.Seconds()))
	} else {
		utils.Warn("[%d/%d] 处理失败: %s - %v", current, total, name, result.Error)
	}
}

func (c *Controller) printResult(result *models.Result) {
	color.New(color.FgGreen).Fprintf(c.out, "处理成功: %s (%s, %d 个单词, %d 段)\n",
		result.Name, result.ReconcilePath, result.WordCount, result.SegmentCount)

	formats := make([]string, 0, len(result.OutputFiles))
	for format := range result.OutputFiles {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	for _, format := range formats {
		fmt.Fprintf(c.out, "  - %s: %s\n", format, result.OutputFiles[format])
	}
}

func (c *Controller) printSummary() {
	elapsed := time.Since(c.Stats.StartTime).Seconds()
	fmt.Fprintf(c.out, "\n共 %d 个任务，用时 %s\n", c.Stats.TotalJobs, utils.FormatTimeDuration(elapsed))
	color.New(color.FgGreen).Fprintf(c.out, "成功: %d\n", c.Stats.Succeeded)
	if c.Stats.Failed > 0 {
		color.New(color.FgRed).Fprintf(c.out, "失败: %d\n", c.Stats.Failed)
	}
}

// 统计处理结果
func (c *Controller) updateStats(results []processor.BatchResult) {
	c.Stats.TotalJobs = len(results)
	c.Stats.Succeeded, c.Stats.Failed = processor.Summarize(results)
}

func (c *Controller) writeMetrics() {
	if err := c.Metrics.WriteTextfile(c.Config.MetricsFile); err != nil {
		utils.Warn("%v", err)
	}
}

// 添加清理函数
func (c *Controller) addCleanup(cleanup func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanup = append(c.cleanup, cleanup)
}

// Cleanup 逆序执行所有清理函数
func (c *Controller) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.cleanup) - 1; i >= 0; i-- {
		c.cleanup[i]()
	}
	c.cleanup = nil

	c.ProgressManager.CloseAll("已完成")
}
