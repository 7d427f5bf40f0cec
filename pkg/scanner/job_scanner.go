package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/asr"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/processor"
)

// JobFiles 同一主名下配对的两路识别结果文件
type JobFiles struct {
	Name       string    // 文件主名
	TextPath   string    // <name>.txt
	TimingPath string    // <name>.vosk.json / .json / .labels.txt ...
	ModTime    time.Time // 两个文件中较新的修改时间
}

// JobScanner 在目录中查找可以配对的识别结果文件
type JobScanner struct {
	TextSuffix     string
	TimingSuffixes []string // 同名存在多个时按顺序优先
	Selector       *asr.SourceSelector
}

// NewJobScanner 创建新的任务扫描器，selector 为nil时使用内置格式
func NewJobScanner(selector *asr.SourceSelector) *JobScanner {
	if selector == nil {
		selector = asr.NewDefaultSelector()
	}
	return &JobScanner{
		TextSuffix:     ".txt",
		TimingSuffixes: []string{".vosk.json", ".whisper.json", ".json", ".labels.txt", "_audacity.txt", ".csv"},
		Selector:       selector,
	}
}

// ScanDirectory 扫描指定目录（非递归），返回按主名排序的配对结果
func (s *JobScanner) ScanDirectory(dir string) ([]JobFiles, error) {
	logrus.Infof("开始扫描目录: %s", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	texts := make(map[string]string)
	timings := make(map[string]string)
	timingRank := make(map[string]int)
	modTimes := make(map[string]time.Time)

	for _, entry := range entries {
		// 跳过目录和隐藏文件
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logrus.Warnf("获取文件信息失败: %v", err)
			continue
		}

		path := filepath.Join(dir, entry.Name())
		stem, rank, ok := s.timingStem(entry.Name())
		switch {
		case ok:
			if previous, exists := timingRank[stem]; !exists || rank < previous {
				timings[stem] = path
				timingRank[stem] = rank
			}
		case strings.HasSuffix(strings.ToLower(entry.Name()), s.TextSuffix):
			stem = entry.Name()[:len(entry.Name())-len(s.TextSuffix)]
			texts[stem] = path
		default:
			continue
		}

		if info.ModTime().After(modTimes[stem]) {
			modTimes[stem] = info.ModTime()
		}
	}

	var jobs []JobFiles
	for stem, textPath := range texts {
		timingPath, ok := timings[stem]
		if !ok {
			logrus.Warnf("%s 没有对应的带时间识别结果，跳过", textPath)
			continue
		}
		jobs = append(jobs, JobFiles{
			Name:       stem,
			TextPath:   textPath,
			TimingPath: timingPath,
			ModTime:    modTimes[stem],
		})
	}
	for stem, timingPath := range timings {
		if _, ok := texts[stem]; !ok {
			logrus.Warnf("%s 没有对应的文本识别结果，跳过", timingPath)
		}
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })

	logrus.Infof("扫描完成，共找到 %d 个任务", len(jobs))
	return jobs, nil
}

// timingStem 按最长匹配的后缀判断是否为带时间的识别结果，返回主名与优先级
func (s *JobScanner) timingStem(name string) (string, int, bool) {
	lower := strings.ToLower(name)
	best, rank := -1, 0
	for i, suffix := range s.TimingSuffixes {
		if strings.HasSuffix(lower, suffix) && len(lower) > len(suffix) {
			if best < 0 || len(suffix) > len(s.TimingSuffixes[best]) {
				best, rank = i, i
			}
		}
	}
	if best < 0 {
		return "", 0, false
	}
	return name[:len(name)-len(s.TimingSuffixes[best])], rank, true
}

// FilterNewJobs 根据已处理记录过滤出新任务
func (s *JobScanner) FilterNewJobs(jobs []JobFiles, processed map[string]bool) []JobFiles {
	var newJobs []JobFiles
	for _, job := range jobs {
		if !processed[job.Name] {
			newJobs = append(newJobs, job)
		}
	}

	logrus.Infof("过滤后剩余 %d 个新任务需要处理", len(newJobs))
	return newJobs
}

// BuildJobs 把配对结果转换为处理任务，所有任务使用同一组口型图片
func (s *JobScanner) BuildJobs(files []JobFiles, openImage, closedImage string) ([]processor.Job, error) {
	jobs := make([]processor.Job, 0, len(files))
	for _, f := range files {
		timing, err := s.Selector.SelectTimingSource(f.TimingPath, asr.FormatAuto)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, processor.Job{
			Name:        f.Name,
			Text:        asr.NewTextFile(f.TextPath, asr.FormatText),
			Timings:     timing,
			OpenImage:   openImage,
			ClosedImage: closedImage,
		})
	}
	return jobs, nil
}
