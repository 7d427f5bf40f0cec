package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// FileEventHandler 是处理文件事件的接口
type FileEventHandler interface {
	OnFileCreated(filePath string)
	OnFileModified(filePath string)
	OnFileDeleted(filePath string)
}

// FolderMonitor 监控文件夹中匹配指定模式的文件，写入事件经过去抖后交给处理器
type FolderMonitor struct {
	watcher      *fsnotify.Watcher
	folderPath   string
	patterns     []string // filepath.Match 模式，只匹配文件名
	handler      FileEventHandler
	debounceTime time.Duration
	pendingFiles map[string]*time.Timer
	created      map[string]bool // 去抖期间出现过创建事件的文件
	mutex        sync.Mutex
	stopChan     chan struct{}
	stopOnce     sync.Once
}

// NewFolderMonitor 创建新的文件夹监控器
func NewFolderMonitor(folderPath string, patterns []string, handler FileEventHandler, debounceTime time.Duration) (*FolderMonitor, error) {
	for _, pattern := range patterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, utils.NewKindError(utils.ErrInvalidInput, fmt.Sprintf("无效的文件模式: %s", pattern), err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监控器失败: %w", err)
	}

	return &FolderMonitor{
		watcher:      watcher,
		folderPath:   folderPath,
		patterns:     patterns,
		handler:      handler,
		debounceTime: debounceTime,
		pendingFiles: make(map[string]*time.Timer),
		created:      make(map[string]bool),
		stopChan:     make(chan struct{}),
	}, nil
}

// Start 开始监控文件夹
func (m *FolderMonitor) Start() error {
	if !utils.CheckDirExists(m.folderPath) {
		return utils.NewKindError(utils.ErrNotFound, fmt.Sprintf("监控的文件夹不存在: %s", m.folderPath), nil)
	}

	// 监控文件夹而不是文件本身，编辑器保存时常常用重命名替换文件
	if err := m.watcher.Add(m.folderPath); err != nil {
		return fmt.Errorf("添加监控文件夹失败: %w", err)
	}

	go m.watchLoop()

	utils.Info("开始监控文件夹: %s", m.folderPath)
	return nil
}

// Run 开始监控直到 ctx 结束
func (m *FolderMonitor) Run(ctx context.Context) error {
	if err := m.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	m.Stop()
	return nil
}

// Stop 停止监控，可以重复调用
func (m *FolderMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
		m.watcher.Close()
		utils.Info("停止监控文件夹: %s", m.folderPath)

		// 取消所有待处理的文件定时器
		m.mutex.Lock()
		defer m.mutex.Unlock()
		for _, timer := range m.pendingFiles {
			timer.Stop()
		}
	})
}

// watchLoop 监控循环
func (m *FolderMonitor) watchLoop() {
	for {
		select {
		case <-m.stopChan:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handleFileEvent(event)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			utils.Error("监控文件夹时出错: %v", err)
		}
	}
}

// 处理文件事件
func (m *FolderMonitor) handleFileEvent(event fsnotify.Event) {
	filePath := event.Name
	if !m.isTargetFile(filePath) {
		return
	}

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		// 重命名替换时随后会有创建事件，文件仍然存在就不算删除
		if utils.CheckFileExists(filePath) {
			return
		}
		m.cancelPending(filePath)
		if m.handler != nil {
			m.handler.OnFileDeleted(filePath)
		}
		return
	}

	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if event.Op&fsnotify.Create != 0 {
		m.created[filePath] = true
	}

	// 取消已存在的定时器
	if timer, exists := m.pendingFiles[filePath]; exists {
		timer.Stop()
	}
	m.pendingFiles[filePath] = time.AfterFunc(m.debounceTime, func() {
		m.processFile(filePath)
	})

	utils.Debug("检测到文件变化: %s", filePath)
}

func (m *FolderMonitor) cancelPending(filePath string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if timer, exists := m.pendingFiles[filePath]; exists {
		timer.Stop()
		delete(m.pendingFiles, filePath)
	}
	delete(m.created, filePath)
}

// 判断文件名是否匹配监控模式
func (m *FolderMonitor) isTargetFile(filePath string) bool {
	name := filepath.Base(filePath)
	for _, pattern := range m.patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// 处理去抖后的文件
func (m *FolderMonitor) processFile(filePath string) {
	m.mutex.Lock()
	delete(m.pendingFiles, filePath)
	created := m.created[filePath]
	delete(m.created, filePath)
	m.mutex.Unlock()

	select {
	case <-m.stopChan:
		return
	default:
	}

	// 检查文件是否仍然存在
	if info, err := os.Stat(filePath); err != nil || info.IsDir() {
		return
	}

	if m.handler == nil {
		return
	}
	if created {
		m.handler.OnFileCreated(filePath)
	} else {
		m.handler.OnFileModified(filePath)
	}
}
