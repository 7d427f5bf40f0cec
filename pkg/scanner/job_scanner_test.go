package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 创建测试目录和测试文件
func setupTestDirectory(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"scene01.txt":          "hello world",
		"scene01.vosk.json":    `{"result":[{"word":"hello","start":0,"end":0.4},{"word":"world","start":0.5,"end":0.9}]}`,
		"scene01.csv":          "Name\tStart\tDuration\tTime Format\tType\tDescription\r\n",
		"scene02.txt":          "good morning",
		"scene02.labels.txt":   "0.000000\t0.500000\tgood\n0.600000\t1.000000\tmorning\n",
		"scene03.txt":          "no timings here",
		"scene04_audacity.txt": "0.0\t1.0\torphan\n",
		"notes.pdf":            "not a transcript",
		".hidden.txt":          "hidden",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "subfolder.txt"), 0755))

	return dir
}

func TestScanDirectory(t *testing.T) {
	dir := setupTestDirectory(t)

	jobs, err := NewJobScanner(nil).ScanDirectory(dir)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "scene01", jobs[0].Name)
	assert.Equal(t, filepath.Join(dir, "scene01.txt"), jobs[0].TextPath)
	// vosk 结果优先于 Audition 标记
	assert.Equal(t, filepath.Join(dir, "scene01.vosk.json"), jobs[0].TimingPath)
	assert.False(t, jobs[0].ModTime.IsZero())

	assert.Equal(t, "scene02", jobs[1].Name)
	assert.Equal(t, filepath.Join(dir, "scene02.labels.txt"), jobs[1].TimingPath)
}

func TestScanDirectoryMissing(t *testing.T) {
	_, err := NewJobScanner(nil).ScanDirectory(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestTimingStem(t *testing.T) {
	s := NewJobScanner(nil)

	cases := map[string]string{
		"a.vosk.json":    "a",
		"a.json":         "a",
		"A.LABELS.TXT":   "A",
		"a_audacity.txt": "a",
		"a.b.csv":        "a.b",
	}
	for name, expected := range cases {
		stem, _, ok := s.timingStem(name)
		assert.True(t, ok, name)
		assert.Equal(t, expected, stem, name)
	}

	for _, name := range []string{"a.txt", "a.wav", ".json"} {
		_, _, ok := s.timingStem(name)
		assert.False(t, ok, name)
	}
}

func TestFilterNewJobs(t *testing.T) {
	jobs := []JobFiles{{Name: "scene01"}, {Name: "scene02"}, {Name: "scene03"}}

	newJobs := NewJobScanner(nil).FilterNewJobs(jobs, map[string]bool{"scene01": true})
	require.Len(t, newJobs, 2)
	assert.Equal(t, "scene02", newJobs[0].Name)
	assert.Equal(t, "scene03", newJobs[1].Name)
}

func TestBuildJobs(t *testing.T) {
	dir := setupTestDirectory(t)
	s := NewJobScanner(nil)

	files, err := s.ScanDirectory(dir)
	require.NoError(t, err)

	jobs, err := s.BuildJobs(files, "images/open.png", "images/closed.png")
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "scene02", jobs[1].Name)
	assert.Equal(t, "images/open.png", jobs[1].OpenImage)

	words, err := jobs[1].Text.Words(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"good", "morning"}, words)

	timings, err := jobs[1].Timings.Timings(context.Background())
	require.NoError(t, err)
	require.Len(t, timings, 2)
	assert.Equal(t, "morning", timings[1].Text)
	assert.Equal(t, 0.6, timings[1].Start)
}
