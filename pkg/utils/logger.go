package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 日志级别常量
const (
	LogLevelVerbose = "VERBOSE"
	LogLevelNormal  = "INFO"
	LogLevelQuiet   = "WARN"
)

var (
	// Log 全局日志实例
	Log *logrus.Logger
	// 终端交互模式下日志不写入终端，避免打断人工校对输入
	terminalInteractive bool
)

func init() {
	// 保证在未调用InitLogger时也有可用的日志实例
	Log = logrus.New()
	Log.SetOutput(os.Stderr)
	Log.SetLevel(logrus.InfoLevel)
}

// InitLogger 初始化日志系统
// level: 日志级别 (VERBOSE/INFO/WARN)，也接受logrus级别名(debug/info/warn/error)
// logFile: 日志文件路径，空字符串表示仅输出到控制台
func InitLogger(level string, logFile string) error {
	Log = logrus.New()

	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if terminalInteractive {
		if logFile == "" {
			logFile = filepath.Join(os.TempDir(), "lipsync.log")
		}
		Log.SetOutput(newRotatingWriter(logFile))
	} else if logFile != "" {
		logDir := filepath.Dir(logFile)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return fmt.Errorf("创建日志目录失败: %w", err)
		}

		// 同时输出到文件和控制台，文件按大小滚动
		mw := io.MultiWriter(os.Stdout, newRotatingWriter(logFile))
		Log.SetOutput(mw)
	} else {
		Log.SetOutput(os.Stdout)
	}

	Log.SetLevel(parseLevel(level))
	return nil
}

func newRotatingWriter(logFile string) io.Writer {
	return &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28, // 天
	}
}

func parseLevel(level string) logrus.Level {
	switch level {
	case LogLevelVerbose:
		return logrus.DebugLevel
	case LogLevelNormal:
		return logrus.InfoLevel
	case LogLevelQuiet:
		return logrus.WarnLevel
	}

	if lv, err := logrus.ParseLevel(level); err == nil {
		return lv
	}
	return logrus.InfoLevel
}

// EnableTerminalInteractive 进入交互模式 - 之后日志只写文件
func EnableTerminalInteractive() {
	terminalInteractive = true
	currentLevel := Log.GetLevel().String()
	InitLogger(currentLevel, "")
}

// DisableTerminalInteractive 退出交互模式 - 日志恢复到终端输出
func DisableTerminalInteractive() {
	terminalInteractive = false
	Log.SetOutput(os.Stdout)
}

// Debug 输出调试日志
func Debug(format string, args ...interface{}) {
	if len(args) > 0 {
		Log.Debugf(format, args...)
	} else {
		Log.Debug(format)
	}
}

// Info 输出信息日志
func Info(format string, args ...interface{}) {
	if len(args) > 0 {
		Log.Infof(format, args...)
	} else {
		Log.Info(format)
	}
}

// Warn 输出警告日志
func Warn(format string, args ...interface{}) {
	if len(args) > 0 {
		Log.Warnf(format, args...)
	} else {
		Log.Warn(format)
	}
}

// Error 输出错误日志
func Error(format string, args ...interface{}) {
	if len(args) > 0 {
		Log.Errorf(format, args...)
	} else {
		Log.Error(format)
	}
}

// WithField 创建带字段的日志条目
func WithField(key string, value interface{}) *logrus.Entry {
	return Log.WithField(key, value)
}

// WithFields 创建带多个字段的日志条目
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log.WithFields(fields)
}
