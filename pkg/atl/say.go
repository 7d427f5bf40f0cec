package atl

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

// WaitTag 构造 Ren'Py 等待标签 {w=秒}，四舍五入到两位小数，为0时返回空串
func WaitTag(seconds float64) string {
	rounded := math.Round(seconds*100) / 100
	if rounded <= 0 {
		return ""
	}
	return "{w=" + strconv.FormatFloat(rounded, 'f', -1, 64) + "}"
}

// SayStatement 把转录转换为 Ren'Py 台词，单词之后的停顿用等待标签表示
func SayStatement(t models.Transcript) string {
	waits := t.Waits()
	parts := make([]string, t.Len())
	for i, token := range t.Tokens() {
		parts[i] = token + WaitTag(waits[i])
	}
	return strings.Join(parts, " ")
}

// ScriptFileName 脚本导出文件名
func ScriptFileName(imageName string) string {
	return fmt.Sprintf("ATL-image-%s.txt", imageName)
}

// ExportScript 把脚本原子写入 dir/ATL-image-<name>.txt，返回文件路径
func ExportScript(dir, imageName, script string) (string, error) {
	path := filepath.Join(dir, ScriptFileName(imageName))
	if !strings.HasSuffix(script, "\n") {
		script += "\n"
	}
	if err := utils.WriteFileAtomic(path, []byte(script), 0644); err != nil {
		return "", err
	}

	utils.Info("已导出ATL脚本: %s", path)
	return path, nil
}
