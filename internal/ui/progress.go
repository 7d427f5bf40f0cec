package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// ProgressBar 进度条结构
type ProgressBar struct {
	Total      int       // 总步数
	Current    int       // 当前进度
	Prefix     string    // 前缀
	Suffix     string    // 后缀
	Width      int       // 进度条宽度
	FillChar   string    // 填充字符
	EmptyChar  string    // 空白字符
	StartTime  time.Time // 开始时间
	LastUpdate time.Time // 上次更新时间
	Out        io.Writer // 输出位置，默认标准输出

	mu sync.Mutex
}

// NewProgressBar 创建新的进度条
func NewProgressBar(total int, prefix string, suffix string) *ProgressBar {
	if total < 1 {
		total = 1
	}
	return &ProgressBar{
		Total:      total,
		Prefix:     prefix,
		Suffix:     suffix,
		Width:      30,
		FillChar:   "█",
		EmptyChar:  "░",
		StartTime:  time.Now(),
		LastUpdate: time.Now(),
		Out:        os.Stdout,
	}
}

// Update 更新进度，负值被忽略，超过总数按总数处理
func (p *ProgressBar) Update(current int, suffix string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.update(current, suffix)
}

func (p *ProgressBar) update(current int, suffix string) {
	if current < 0 {
		return
	}
	if current > p.Total {
		current = p.Total
	}

	p.Current = current
	if suffix != "" {
		p.Suffix = suffix
	}

	p.LastUpdate = time.Now()
	p.draw()
}

// Increment 增加进度
func (p *ProgressBar) Increment(suffix string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.update(p.Current+1, suffix)
}

// Complete 完成进度条
func (p *ProgressBar) Complete(suffix string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.update(p.Total, suffix)
	fmt.Fprintln(p.Out)
}

// Percent 当前完成比例（0-1）
func (p *ProgressBar) Percent() float64 {
	return float64(p.Current) / float64(p.Total)
}

// 绘制进度条
func (p *ProgressBar) draw() {
	percent := p.Percent()

	// 估计剩余时间
	elapsed := time.Since(p.StartTime)
	var remaining time.Duration
	if p.Current > 0 {
		remaining = time.Duration(float64(elapsed) / percent * (1 - percent))
	}

	progressLine := fmt.Sprintf("\r%s %s %3.0f%% | %d/%d | %s<%s | %s",
		p.Prefix, p.render(), percent*100, p.Current, p.Total,
		formatDuration(elapsed), formatDuration(remaining), p.Suffix)

	color.New(color.FgCyan).Fprint(p.Out, progressLine)
}

func (p *ProgressBar) render() string {
	filled := int(p.Percent() * float64(p.Width))
	if filled > p.Width {
		filled = p.Width
	}
	return "[" + strings.Repeat(p.FillChar, filled) + strings.Repeat(p.EmptyChar, p.Width-filled) + "]"
}

// String 返回进度条的字符串表示
func (p *ProgressBar) String() string {
	return fmt.Sprintf("%s %s %3.0f%% | %d/%d", p.Prefix, p.render(), p.Percent()*100, p.Current, p.Total)
}

// 格式化持续时间为 MM:SS 格式
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
