package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic 先写临时文件再重命名，保证目标文件要么是完整内容要么保持原样
func WriteFileAtomic(filePath string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return NewKindError(ErrIO, "创建目录失败", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return NewKindError(ErrIO, "创建临时文件失败", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return NewKindError(ErrIO, fmt.Sprintf("写入文件失败: %s", filePath), err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return NewKindError(ErrIO, fmt.Sprintf("同步文件失败: %s", filePath), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return NewKindError(ErrIO, fmt.Sprintf("关闭文件失败: %s", filePath), err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return NewKindError(ErrIO, "设置文件权限失败", err)
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		os.Remove(tmpName)
		return NewKindError(ErrIO, fmt.Sprintf("重命名文件失败: %s", filePath), err)
	}

	return nil
}

// ReadFile 读取文件，失败时返回带类别的错误
func ReadFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewKindError(ErrNotFound, fmt.Sprintf("文件不存在: %s", filePath), err)
		}
		return nil, NewKindError(ErrIO, fmt.Sprintf("读取文件失败: %s", filePath), err)
	}
	return data, nil
}

// LoadJSONFile 加载JSON文件到目标结构
func LoadJSONFile(filePath string, target interface{}) error {
	data, err := ReadFile(filePath)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, target); err != nil {
		return NewKindError(ErrInvalidInput, fmt.Sprintf("解析JSON失败: %s", filePath), err)
	}

	return nil
}

// SaveJSONFile 保存数据到JSON文件
func SaveJSONFile(filePath string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	return WriteFileAtomic(filePath, jsonData, 0644)
}

// CheckFileExists 检查文件是否存在
func CheckFileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// CheckDirExists 检查目录是否存在
func CheckDirExists(dirPath string) bool {
	info, err := os.Stat(dirPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDirExists 确保目录存在，如果不存在则创建
func EnsureDirExists(dirPath string) error {
	if dirPath == "" {
		return nil // 空路径视为可选
	}

	if !CheckDirExists(dirPath) {
		return os.MkdirAll(dirPath, 0755)
	}

	return nil
}
