package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/ccp-p/asr-media-cli/lipsync/internal/controller"
	"github.com/ccp-p/asr-media-cli/lipsync/internal/watcher"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/asr"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/atl"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/export"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/extract"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/processor"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// settings 各命令共用的配置覆盖参数，空值表示沿用配置
type settings struct {
	policy    string
	mode      string
	frame     float64
	indent    int
	verbose   bool
	fullPath  bool
	imageRoot string
	threshold float64
	tolerance float64
	formats   string
	workers   int
}

func (s *settings) register(fs *flag.FlagSet) {
	fs.StringVar(&s.policy, "policy", "", "对齐策略 (auto, forced-manual, degrade-to-timing-only)")
	fs.StringVar(&s.mode, "mode", "", "帧对齐方式 (fixed, word)")
	fs.Float64Var(&s.frame, "frame", 0, "名义帧长（秒）")
	fs.IntVar(&s.indent, "indent", -1, "脚本缩进空格数")
	fs.BoolVar(&s.verbose, "verbose", false, "输出详细注释")
	fs.BoolVar(&s.fullPath, "full-path", false, "保留图片完整路径")
	fs.StringVar(&s.imageRoot, "image-root", "", "截断图片路径时保留的最高层目录")
	fs.Float64Var(&s.threshold, "threshold", -1, "置信度阈值")
	fs.Float64Var(&s.tolerance, "tolerance", -1, "切分段落的停顿容差（秒）")
	fs.StringVar(&s.formats, "formats", "", "导出格式，逗号分隔 (json, audacity, audition, srt)")
	fs.IntVar(&s.workers, "workers", 0, "批处理并发数")
}

// apply 把命令行参数写入配置并重新验证
func (s *settings) apply(cfg *models.Config) error {
	if s.policy != "" {
		policy, err := models.ParsePolicy(s.policy)
		if err != nil {
			return err
		}
		cfg.Reconciliation = policy
	}
	if s.mode != "" {
		mode, err := models.ParseAlignmentMode(s.mode)
		if err != nil {
			return err
		}
		cfg.Alignment = mode
	}
	if s.frame > 0 {
		cfg.FrameDuration = s.frame
	}
	if s.indent >= 0 {
		cfg.Indent = s.indent
	}
	if s.verbose {
		cfg.VerboseAnnotations = true
	}
	if s.fullPath {
		cfg.FullImagePath = true
	}
	if s.imageRoot != "" {
		cfg.ImageRoot = s.imageRoot
	}
	if s.threshold >= 0 {
		cfg.ConfidenceThreshold = s.threshold
	}
	if s.tolerance >= 0 {
		cfg.SegmentTolerance = s.tolerance
	}
	if s.formats != "" {
		cfg.ExportFormats = splitList(s.formats)
	}
	if s.workers > 0 {
		cfg.MaxWorkers = s.workers
	}
	return cfg.Validate()
}

// transcriptFlags 读取转录的参数
type transcriptFlags struct {
	path   string
	format string
}

func (f *transcriptFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.path, "transcript", "", "转录文件 (json/vosk/whisper/audacity/audition)")
	fs.StringVar(&f.format, "format", asr.FormatAuto, "转录文件格式")
}

func (f *transcriptFlags) load(ctx context.Context) (models.Transcript, error) {
	if f.path == "" {
		return models.Transcript{}, fmt.Errorf("必须指定 -transcript")
	}

	source, err := asr.NewDefaultSelector().SelectTimingSource(f.path, f.format)
	if err != nil {
		return models.Transcript{}, err
	}
	words, err := source.Timings(ctx)
	if err != nil {
		return models.Transcript{}, err
	}
	return models.NewTranscript(words, source.Format)
}

// stem 返回文件名去掉所有识别结果后缀的部分
func (f *transcriptFlags) stem() string {
	base := filepath.Base(f.path)
	for _, suffix := range []string{".vosk.json", ".whisper.json", ".labels.txt", "_audacity.txt", "_audition.csv"} {
		if strings.HasSuffix(strings.ToLower(base), suffix) {
			return base[:len(base)-len(suffix)]
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// imageFlags 口型图片参数
type imageFlags struct {
	name   string
	open   string
	closed string
}

func (f *imageFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.name, "image", "", "ATL图像名，默认使用输入文件主名")
	fs.StringVar(&f.open, "open", "", "张嘴图片路径")
	fs.StringVar(&f.closed, "closed", "", "闭嘴图片路径")
}

func (f *imageFlags) nameOr(fallback string) string {
	if f.name != "" {
		return f.name
	}
	return fallback
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func runReconcile(cfg *models.Config, args []string) error {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	var (
		s           settings
		images      imageFlags
		textPath    = fs.String("text", "", "文本识别结果（为空时只使用带时间的识别结果）")
		textFormat  = fs.String("text-format", asr.FormatAuto, "文本识别结果格式 (text, whisper)")
		timingPath  = fs.String("timings", "", "带时间的识别结果")
		timingFmt   = fs.String("timing-format", asr.FormatAuto, "带时间的识别结果格式")
		interactive = fs.Bool("interactive", false, "无法自动对齐时在终端中校对")
	)
	s.register(fs)
	images.register(fs)
	fs.Parse(args)

	if err := s.apply(cfg); err != nil {
		return err
	}
	if *timingPath == "" {
		return fmt.Errorf("必须指定 -timings")
	}

	c, err := controller.New(cfg, controller.Options{Interactive: *interactive})
	if err != nil {
		return err
	}
	defer c.Cleanup()

	timings, err := c.Selector.SelectTimingSource(*timingPath, *timingFmt)
	if err != nil {
		return err
	}

	name := (&transcriptFlags{path: *timingPath}).stem()
	job := processor.Job{
		Name:        name,
		Timings:     timings,
		ImageName:   images.nameOr(name),
		OpenImage:   images.open,
		ClosedImage: images.closed,
	}
	if *textPath != "" {
		job.Text = asr.NewTextFile(*textPath, *textFormat)
	}

	_, err = c.RunJob(job)
	return err
}

func runBatch(cfg *models.Config, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	var (
		s      settings
		images imageFlags
		dir    = fs.String("dir", ".", "识别结果所在目录")
	)
	s.register(fs)
	images.register(fs)
	fs.Parse(args)

	if err := s.apply(cfg); err != nil {
		return err
	}

	c, err := controller.New(cfg, controller.Options{})
	if err != nil {
		return err
	}
	defer c.Cleanup()

	if _, err := c.RunBatch(*dir, images.open, images.closed); err != nil {
		return err
	}
	if c.Stats.Failed > 0 {
		return fmt.Errorf("有 %d 个任务失败", c.Stats.Failed)
	}
	return nil
}

func runSegments(cfg *models.Config, args []string) error {
	fs := flag.NewFlagSet("segments", flag.ExitOnError)
	var (
		s settings
		t transcriptFlags
	)
	s.register(fs)
	t.register(fs)
	fs.Parse(args)

	if err := s.apply(cfg); err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	transcript, err := t.load(ctx)
	if err != nil {
		return err
	}

	for i, segment := range extract.GetSegments(transcript, cfg.SegmentTolerance) {
		printSegment(i+1, segment)
	}
	return nil
}

func runFragment(cfg *models.Config, args []string) error {
	fs := flag.NewFlagSet("fragment", flag.ExitOnError)
	var (
		t        transcriptFlags
		text     = fs.String("text", "", "要查找的文本片段")
		linesArg = fs.String("file", "", "每行一个片段的文本文件")
	)
	t.register(fs)
	fs.Parse(args)

	ctx, cancel := commandContext()
	defer cancel()

	transcript, err := t.load(ctx)
	if err != nil {
		return err
	}

	if *linesArg != "" {
		data, err := utils.ReadFile(*linesArg)
		if err != nil {
			return err
		}
		fragments, err := extract.GetFragments(transcript, string(data))
		if err != nil {
			return err
		}
		for i, fragment := range fragments {
			printSegment(i+1, fragment)
		}
		return nil
	}

	fragment, err := extract.GetFragment(transcript, *text)
	if err != nil {
		return err
	}
	printSegment(1, fragment)
	return nil
}

func printSegment(index int, segment models.Segment) {
	fmt.Printf("[%02d] %s - %s ", index, utils.FormatHMS(segment.Start(), true), utils.FormatHMS(segment.End(), true))
	color.New(color.FgGreen).Println(segment.Text())
	if segment.WaitAfter > 0 {
		fmt.Printf("     停顿 %.3f 秒\n", segment.WaitAfter)
	}
}

// newGenerator 由命令行参数构造脚本生成器
func newGenerator(ctx context.Context, cfg *models.Config, t *transcriptFlags, images *imageFlags) (*atl.Generator, error) {
	transcript, err := t.load(ctx)
	if err != nil {
		return nil, err
	}

	opts, err := atl.NewOptions(cfg, images.nameOr(t.stem()), images.open, images.closed)
	if err != nil {
		return nil, err
	}
	return atl.NewGenerator(transcript, opts)
}

func runGenerate(cfg *models.Config, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	var (
		s      settings
		t      transcriptFlags
		images imageFlags
		stdout = fs.Bool("stdout", false, "输出到终端而不是文件")
	)
	s.register(fs)
	t.register(fs)
	images.register(fs)
	fs.Parse(args)

	if err := s.apply(cfg); err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	generator, err := newGenerator(ctx, cfg, &t, &images)
	if err != nil {
		return err
	}

	script := generator.Generate(cfg.Alignment)
	if *stdout {
		fmt.Println(script)
		return nil
	}

	path, err := atl.ExportScript(cfg.OutputFolder, generator.Options().ImageName, script)
	if err != nil {
		return err
	}
	color.Green("已生成: %s", path)
	return nil
}

func runReannotate(cfg *models.Config, args []string) error {
	fs := flag.NewFlagSet("reannotate", flag.ExitOnError)
	var (
		s      settings
		t      transcriptFlags
		images imageFlags
		script = fs.String("script", "", "要重新注释的脚本")
	)
	s.register(fs)
	t.register(fs)
	images.register(fs)
	fs.Parse(args)

	if err := s.apply(cfg); err != nil {
		return err
	}
	if *script == "" {
		return fmt.Errorf("必须指定 -script")
	}

	ctx, cancel := commandContext()
	defer cancel()

	generator, err := newGenerator(ctx, cfg, &t, &images)
	if err != nil {
		return err
	}

	changed, err := watcher.NewScriptHandler(generator, cfg.VerboseAnnotations).Reannotate(*script)
	if err != nil {
		return err
	}
	if changed {
		color.Green("已更新: %s", *script)
	} else {
		color.Yellow("无需更新: %s", *script)
	}
	return nil
}

func runWatch(cfg *models.Config, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	var (
		s        settings
		t        transcriptFlags
		images   imageFlags
		script   = fs.String("script", "", "要监控的脚本，默认为输出目录中的 ATL-image-<图像名>.txt")
		debounce = fs.Int("debounce", 0, "去抖时间（毫秒）")
	)
	s.register(fs)
	t.register(fs)
	images.register(fs)
	fs.Parse(args)

	if err := s.apply(cfg); err != nil {
		return err
	}
	if *debounce > 0 {
		cfg.WatchDebounceMs = *debounce
	}

	c, err := controller.New(cfg, controller.Options{})
	if err != nil {
		return err
	}
	defer c.Cleanup()

	generator, err := newGenerator(c.Context(), cfg, &t, &images)
	if err != nil {
		return err
	}

	path := *script
	if path == "" {
		path = filepath.Join(cfg.OutputFolder, atl.ScriptFileName(generator.Options().ImageName))
	}
	return c.Watch(path, generator)
}

func runExport(cfg *models.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	var (
		s    settings
		t    transcriptFlags
		name = fs.String("name", "", "输出文件主名，默认使用输入文件主名")
	)
	s.register(fs)
	t.register(fs)
	fs.Parse(args)

	if err := s.apply(cfg); err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	transcript, err := t.load(ctx)
	if err != nil {
		return err
	}

	exporters, err := export.NewExporters(cfg)
	if err != nil {
		return err
	}

	outputName := *name
	if outputName == "" {
		outputName = t.stem()
	}
	for _, exporter := range exporters {
		path, err := exporter.Export(transcript, outputName)
		if err != nil {
			return err
		}
		color.Green("已导出 %s: %s", exporter.Format(), path)
	}
	return nil
}

func runSay(cfg *models.Config, args []string) error {
	fs := flag.NewFlagSet("say", flag.ExitOnError)
	var t transcriptFlags
	t.register(fs)
	fs.Parse(args)

	ctx, cancel := commandContext()
	defer cancel()

	transcript, err := t.load(ctx)
	if err != nil {
		return err
	}

	fmt.Println(atl.SayStatement(transcript))
	return nil
}
