package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBar(total int) (*ProgressBar, *bytes.Buffer) {
	var buf bytes.Buffer
	bar := NewProgressBar(total, "测试", "初始状态")
	bar.Out = &buf
	return bar, &buf
}

func TestNewProgressBar(t *testing.T) {
	bar := NewProgressBar(100, "测试", "初始状态")

	assert.Equal(t, 100, bar.Total)
	assert.Equal(t, 0, bar.Current)
	assert.Equal(t, "测试", bar.Prefix)
	assert.Equal(t, "初始状态", bar.Suffix)

	// 总数至少为1，避免除零
	assert.Equal(t, 1, NewProgressBar(0, "", "").Total)
}

func TestUpdate(t *testing.T) {
	bar, buf := newTestBar(100)

	bar.Update(50, "半程")
	assert.Equal(t, 50, bar.Current)
	assert.Equal(t, "半程", bar.Suffix)
	assert.Contains(t, buf.String(), "50/100")

	// 负值被忽略
	bar.Update(-10, "")
	assert.Equal(t, 50, bar.Current)

	// 超过最大值按最大值处理
	bar.Update(150, "")
	assert.Equal(t, 100, bar.Current)
	assert.Equal(t, "半程", bar.Suffix)
}

func TestIncrement(t *testing.T) {
	bar, _ := newTestBar(100)

	bar.Increment("递增测试")
	assert.Equal(t, 1, bar.Current)
	assert.Equal(t, "递增测试", bar.Suffix)

	for i := 0; i < 5; i++ {
		bar.Increment("")
	}
	assert.Equal(t, 6, bar.Current)
}

func TestComplete(t *testing.T) {
	bar, buf := newTestBar(100)
	bar.Update(50, "")

	bar.Complete("完成")
	assert.Equal(t, 100, bar.Current)
	assert.Equal(t, "完成", bar.Suffix)
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestDrawWithTimers(t *testing.T) {
	bar, buf := newTestBar(100)
	bar.StartTime = time.Now().Add(-10 * time.Second)

	bar.Update(20, "")
	assert.Contains(t, buf.String(), "00:10<")
}

func TestString(t *testing.T) {
	bar, _ := newTestBar(4)
	bar.Width = 4
	bar.Update(1, "")

	assert.Equal(t, "测试 [█░░░]  25% | 1/4", bar.String())
}

func TestProgressManager(t *testing.T) {
	var buf bytes.Buffer
	pm := NewProgressManager(true)
	pm.SetOutput(&buf)
	assert.True(t, pm.Enabled())

	bar := pm.CreateProgressBar("job", 10, "任务", "准备中")
	require.NotNil(t, bar)
	assert.Same(t, bar, pm.GetProgressBar("job"))

	pm.Callback("job")(5, "对齐中")
	assert.Equal(t, 5, bar.Current)
	assert.Equal(t, "对齐中", bar.Suffix)

	pm.PrintStatus()
	assert.Contains(t, buf.String(), "- job: 50.0% (5/10) 对齐中")

	pm.CompleteProgressBar("job", "完成")
	assert.Equal(t, 10, bar.Current)
	assert.Nil(t, pm.GetProgressBar("job"))

	// 同名进度条会先完成旧的
	first := pm.CreateProgressBar("dup", 3, "", "")
	second := pm.CreateProgressBar("dup", 3, "", "")
	assert.Equal(t, 3, first.Current)
	assert.Same(t, second, pm.GetProgressBar("dup"))

	pm.CloseAll("结束")
	assert.Equal(t, 3, second.Current)
	assert.Nil(t, pm.GetProgressBar("dup"))
}

func TestProgressManagerDisabled(t *testing.T) {
	pm := NewProgressManager(false)

	assert.Nil(t, pm.CreateProgressBar("job", 10, "", ""))
	assert.NotPanics(t, func() {
		pm.UpdateProgressBar("job", 5, "")
		pm.Callback("job")(50, "")
		pm.CompleteProgressBar("job", "")
		pm.CloseAll("")
		pm.PrintStatus()
	})
}
