package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
)

// ProgressManager 管理多个进度条，禁用时所有操作都不输出
type ProgressManager struct {
	progressBars map[string]*ProgressBar
	mutex        sync.Mutex
	enabled      bool
	out          io.Writer
}

// NewProgressManager 创建新的进度管理器
func NewProgressManager(enabled bool) *ProgressManager {
	return &ProgressManager{
		progressBars: make(map[string]*ProgressBar),
		enabled:      enabled,
		out:          os.Stdout,
	}
}

// SetOutput 设置新进度条的输出位置
func (pm *ProgressManager) SetOutput(w io.Writer) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	pm.out = w
}

// Enabled 是否显示进度
func (pm *ProgressManager) Enabled() bool {
	return pm.enabled
}

// CreateProgressBar 创建并注册一个新的进度条，同名进度条会先被完成
func (pm *ProgressManager) CreateProgressBar(id string, total int, prefix string, suffix string) *ProgressBar {
	if !pm.enabled {
		return nil
	}

	pm.mutex.Lock()
	previous, exists := pm.progressBars[id]
	bar := NewProgressBar(total, prefix, suffix)
	bar.Out = pm.out
	pm.progressBars[id] = bar
	pm.mutex.Unlock()

	if exists {
		previous.Complete("已被替换")
	}
	return bar
}

// GetProgressBar 获取已存在的进度条
func (pm *ProgressManager) GetProgressBar(id string) *ProgressBar {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	return pm.progressBars[id]
}

// UpdateProgressBar 更新进度条
func (pm *ProgressManager) UpdateProgressBar(id string, current int, suffix string) {
	if bar := pm.GetProgressBar(id); bar != nil {
		bar.Update(current, suffix)
	}
}

// CompleteProgressBar 完成并移除进度条
func (pm *ProgressManager) CompleteProgressBar(id string, suffix string) {
	pm.mutex.Lock()
	bar, exists := pm.progressBars[id]
	delete(pm.progressBars, id)
	pm.mutex.Unlock()

	if exists {
		bar.Complete(suffix)
	}
}

// Callback 返回把百分比进度写入指定进度条的回调
func (pm *ProgressManager) Callback(id string) func(percent int, message string) {
	return func(percent int, message string) {
		pm.UpdateProgressBar(id, percent, message)
	}
}

// CloseAll 完成所有进度条
func (pm *ProgressManager) CloseAll(suffix string) {
	pm.mutex.Lock()
	bars := make([]*ProgressBar, 0, len(pm.progressBars))
	for _, bar := range pm.progressBars {
		bars = append(bars, bar)
	}
	pm.progressBars = make(map[string]*ProgressBar)
	pm.mutex.Unlock()

	for _, bar := range bars {
		bar.Complete(suffix)
	}
}

// PrintStatus 打印当前所有进度条的状态
func (pm *ProgressManager) PrintStatus() {
	if !pm.enabled {
		return
	}

	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	ids := make([]string, 0, len(pm.progressBars))
	for id := range pm.progressBars {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Fprintln(pm.out, "\n当前进度状态:")
	for _, id := range ids {
		bar := pm.progressBars[id]
		fmt.Fprintf(pm.out, "- %s: %.1f%% (%d/%d) %s\n",
			id, bar.Percent()*100, bar.Current, bar.Total, bar.Suffix)
	}
}
