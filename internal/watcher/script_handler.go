package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/atl"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// ScriptHandler 在脚本被保存时重新生成注释，并按转录长度补齐或截断
type ScriptHandler struct {
	generator *atl.Generator
	verbose   bool

	mutex   sync.Mutex
	updates map[string]int // 文件 -> 重写次数

	// OnUpdate 脚本被重写后调用，可为nil
	OnUpdate func(filePath string)
}

// NewScriptHandler 创建脚本处理器
func NewScriptHandler(generator *atl.Generator, verbose bool) *ScriptHandler {
	return &ScriptHandler{
		generator: generator,
		verbose:   verbose,
		updates:   make(map[string]int),
	}
}

// OnFileCreated 处理文件创建事件
func (h *ScriptHandler) OnFileCreated(filePath string) {
	h.handle(filePath)
}

// OnFileModified 处理文件修改事件
func (h *ScriptHandler) OnFileModified(filePath string) {
	h.handle(filePath)
}

// OnFileDeleted 处理文件删除事件
func (h *ScriptHandler) OnFileDeleted(filePath string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.updates, filePath)
	utils.Info("脚本已删除: %s", filePath)
}

// Updates 返回文件被重写的次数
func (h *ScriptHandler) Updates(filePath string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.updates[filePath]
}

func (h *ScriptHandler) handle(filePath string) {
	changed, err := h.Reannotate(filePath)
	if err != nil {
		utils.Error("重新注释脚本失败 %s: %v", filePath, err)
		return
	}
	if changed && h.OnUpdate != nil {
		h.OnUpdate(filePath)
	}
}

// Reannotate 重新注释脚本文件，内容有变化时原子写回并返回 true。
// 重新注释是幂等的，写回触发的下一次事件不会再修改文件
func (h *ScriptHandler) Reannotate(filePath string) (bool, error) {
	data, err := utils.ReadFile(filePath)
	if err != nil {
		return false, err
	}

	script := string(data)
	updated := h.generator.Reannotate(script, h.verbose)
	if updated == script {
		utils.Debug("脚本无需更新: %s", filePath)
		return false, nil
	}

	if err := utils.WriteFileAtomic(filePath, []byte(updated), 0644); err != nil {
		return false, err
	}

	h.mutex.Lock()
	h.updates[filePath]++
	h.mutex.Unlock()

	utils.Info("已重新注释脚本: %s (%.3f 秒)", filePath, atl.ScriptDuration(updated))
	return true, nil
}

// WatchScript 监控脚本所在的文件夹，直到 ctx 结束。启动前先处理一次现有内容
func WatchScript(ctx context.Context, scriptPath string, handler *ScriptHandler, debounce time.Duration) error {
	if utils.CheckFileExists(scriptPath) {
		if _, err := handler.Reannotate(scriptPath); err != nil {
			return err
		}
	}

	monitor, err := NewFolderMonitor(filepath.Dir(scriptPath), []string{literalPattern(filepath.Base(scriptPath))}, handler, debounce)
	if err != nil {
		return err
	}
	return monitor.Run(ctx)
}

// literalPattern 转义文件名中的通配符
func literalPattern(name string) string {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(`*?[\\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
