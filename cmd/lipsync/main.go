package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

var (
	configFile = flag.String("config", "", "配置文件路径 (.json/.yaml)")
	outputDir  = flag.String("output", "", "输出目录，覆盖配置文件")
	logLevel   = flag.String("log-level", "", "日志级别 (VERBOSE, INFO, WARN)")
	logFile    = flag.String("log-file", "", "日志文件路径")
)

// command 子命令
type command struct {
	usage string
	run   func(cfg *models.Config, args []string) error
}

var commands = map[string]command{
	"reconcile":  {"合并文本与带时间的识别结果，导出转录并生成口型脚本", runReconcile},
	"batch":      {"批量处理目录中配对的识别结果", runBatch},
	"segments":   {"按停顿切分转录并输出各段", runSegments},
	"fragment":   {"查找文本片段在转录中的位置", runFragment},
	"generate":   {"由转录生成口型动画脚本", runGenerate},
	"reannotate": {"按转录重新注释已编辑的脚本", runReannotate},
	"watch":      {"监控脚本，保存时自动重新注释", runWatch},
	"export":     {"把转录转换为其他格式", runExport},
	"say":        {"输出带等待标签的台词", runSay},
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(2)
	}

	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		color.Red("未知的命令: %s", flag.Arg(0))
		printUsage()
		os.Exit(2)
	}

	cfg, err := loadConfig()
	if err != nil {
		color.Red("加载配置失败: %v", err)
		os.Exit(1)
	}

	if err := utils.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		color.Red("初始化日志失败: %v", err)
		os.Exit(1)
	}
	logrus.Debugf("执行命令: %s %v", flag.Arg(0), flag.Args()[1:])

	if err := cmd.run(cfg, flag.Args()[1:]); err != nil {
		color.Red("错误: %v", err)
		os.Exit(1)
	}
}

// loadConfig 加载配置文件并应用全局参数
func loadConfig() (*models.Config, error) {
	cfg := models.NewDefaultConfig()

	if *configFile != "" {
		if err := cfg.LoadFromFile(*configFile); err != nil {
			return nil, err
		}
	}

	if *outputDir != "" {
		cfg.OutputFolder = *outputDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}

	return cfg, cfg.Validate()
}

func printUsage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out)
	color.New(color.FgCyan).Fprintln(out, "lipsync - 口型动画脚本生成工具")
	fmt.Fprintln(out, "\n用法: lipsync [全局参数] <命令> [参数]")

	fmt.Fprintln(out, "\n命令:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-11s %s\n", name, commands[name].usage)
	}

	fmt.Fprintln(out, "\n全局参数:")
	flag.PrintDefaults()
	fmt.Fprintln(out, "\n使用 lipsync <命令> -h 查看命令参数")
}
