package atl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
)

const (
	openImage   = "images/open.png"
	closedImage = "images/closed.png"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.ImageName = "eileen"
	opts.OpenImage = openImage
	opts.ClosedImage = closedImage
	// 二进制可精确表示的帧长，避免边界上的浮点误差
	opts.FrameDuration = 0.25
	return opts
}

func helloWorld() models.Transcript {
	hello := models.NewWordTiming("hello", 0.25, 0.75)
	hello.Confidence = models.Float64(0.9)
	world := models.NewWordTiming("world", 1.0, 1.75)
	world.Confidence = models.Float64(0.8)
	return models.MustTranscript([]models.WordTiming{hello, world}, "test")
}

func newTestGenerator(t *testing.T, transcript models.Transcript) *Generator {
	g, err := NewGenerator(transcript, testOptions())
	require.NoError(t, err)
	return g
}

// lastAssetLine 脚本中最后一个图片行
func lastAssetLine(script string) string {
	lines := strings.Split(script, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if assetPattern.MatchString(lines[i]) {
			return lines[i]
		}
	}
	return ""
}

func TestGenerateFixedStep(t *testing.T) {
	g := newTestGenerator(t, helloWorld())

	expected := strings.Join([]string{
		`image eileen:`,
		`    # Transcription: hello world`,
		`    # length: 1.750 seconds`,
		`    "images/open.png"`,
		`    0.250`,
		`    "images/closed.png"`,
		`    0.250  # hello`,
		`    "images/open.png"`,
		`    0.250`,
		`    "images/closed.png"`,
		`    0.250`,
		`    "images/open.png"`,
		`    0.250  # world`,
		`    "images/closed.png"`,
		`    0.250`,
		`    "images/open.png"`,
		`    0.250`,
		`    "images/closed.png"`,
	}, "\n")

	assert.Equal(t, expected, g.GenerateFixedStep())
	assert.Equal(t, expected, g.Generate(models.AlignmentFixed))
}

func TestGenerateWordAligned(t *testing.T) {
	g := newTestGenerator(t, helloWorld())

	expected := strings.Join([]string{
		`image eileen:`,
		`    # Transcription: hello world`,
		`    # length: 1.750 seconds`,
		`    "images/closed.png"`,
		`    0.250`,
		`    "images/open.png"`,
		`    0.250  # hello`,
		`    "images/closed.png"`,
		`    0.250`,
		`    0.250`,
		`    "images/open.png"`,
		`    0.250  # world`,
		`    "images/closed.png"`,
		`    0.250`,
		`    "images/open.png"`,
		`    0.250`,
		`    "images/closed.png"`,
	}, "\n")

	script := g.GenerateWordAligned()
	assert.Equal(t, expected, script)
	assert.InDelta(t, 1.75, ScriptDuration(script), 1e-6)
}

func TestGenerateWordAlignedOverlap(t *testing.T) {
	transcript := models.MustTranscript([]models.WordTiming{
		models.NewWordTiming("so", 0, 1),
		models.NewWordTiming("what", 0.5, 1.5),
		// 完全落在前一个单词之内
		models.NewWordTiming("uh", 0.75, 1.25),
	}, "test")
	g := newTestGenerator(t, transcript)

	script := g.GenerateWordAligned()
	assert.InDelta(t, 1.5, ScriptDuration(script), 1e-6)
	assert.Equal(t, `    "`+closedImage+`"`, lastAssetLine(script))

	// so 占4帧，what 从 1.0 开始占2帧，uh 不再产生帧
	assert.Equal(t, 6, strings.Count(script, "0.250"))
}

func TestGenerateEndsClosed(t *testing.T) {
	transcripts := map[string]models.Transcript{
		"空转录": models.MustTranscript(nil, ""),
		"单个单词": models.MustTranscript([]models.WordTiming{
			models.NewWordTiming("hi", 0, 0.3),
		}, ""),
		"零时长单词": models.MustTranscript([]models.WordTiming{
			models.NewWordTiming("a", 0.5, 0.5),
			models.NewWordTiming("b", 0.5, 1.1),
		}, ""),
		"示例": helloWorld(),
	}

	closed := `    "` + closedImage + `"`
	for name, transcript := range transcripts {
		t.Run(name, func(t *testing.T) {
			g := newTestGenerator(t, transcript)
			assert.Equal(t, closed, lastAssetLine(g.GenerateFixedStep()))
			assert.Equal(t, closed, lastAssetLine(g.GenerateWordAligned()))
		})
	}
}

func TestWordFrames(t *testing.T) {
	cases := []struct {
		duration float64
		frames   int
	}{
		{0.05, 1},
		{0.2, 1},
		{0.39, 2},
		{0.61, 3},
		{1.37, 7},
	}

	for _, c := range cases {
		frames, step := WordFrames(c.duration, 0.2)
		assert.Equal(t, c.frames, frames, "时长 %v", c.duration)
		// 帧长之和等于单词时长
		assert.InDelta(t, c.duration, float64(frames)*step, 1e-6)
	}
}

func TestLowConfidenceFlag(t *testing.T) {
	low := models.NewWordTiming("mumble", 0, 0.4)
	low.Confidence = models.Float64(0.1)

	g := newTestGenerator(t, models.MustTranscript([]models.WordTiming{low}, ""))
	assert.Contains(t, g.GenerateFixedStep(), "    # (!) Transcription: mumble")

	// 没有置信度信息时不标记
	g = newTestGenerator(t, models.MustTranscript([]models.WordTiming{models.NewWordTiming("mumble", 0, 0.4)}, ""))
	assert.Contains(t, g.GenerateFixedStep(), "    # Transcription: mumble")
}

func TestAnnotate(t *testing.T) {
	g := newTestGenerator(t, helloWorld())

	assert.Equal(t, "  # hello", g.Annotate(0.25, 0.5, false))
	assert.Equal(t, "  # hello, world", g.Annotate(0, 1.25, false))
	// 半开区间：恰好在窗口结束处开始的单词不计入
	assert.Equal(t, "", g.Annotate(0, 0.25, false))
	assert.Equal(t, "", g.Annotate(1.25, 1.5, false))

	assert.Equal(t,
		"  # animation time: 0.500 → 1.250 | 'hello' [end @ 0.75] | 'world' [start @ 1.00]",
		g.Annotate(0.5, 1.25, true))
	assert.Equal(t, "  # animation time: 1.250 → 1.500", g.Annotate(1.25, 1.5, true))
}

func TestQuoteWord(t *testing.T) {
	assert.Equal(t, "'hello'", quoteWord("hello"))
	assert.Equal(t, `"don't"`, quoteWord("don't"))
}

func TestNewGeneratorValidation(t *testing.T) {
	opts := testOptions()
	opts.ClosedImage = opts.OpenImage
	_, err := NewGenerator(helloWorld(), opts)
	assert.Error(t, err)

	opts = testOptions()
	opts.FrameDuration = 0
	_, err = NewGenerator(helloWorld(), opts)
	assert.Error(t, err)

	opts = testOptions()
	opts.ImageName = ""
	_, err = NewGenerator(helloWorld(), opts)
	assert.Error(t, err)
}

func TestNewOptions(t *testing.T) {
	cfg := models.NewDefaultConfig()
	cfg.VerboseAnnotations = true

	opts, err := NewOptions(cfg, "eileen", "/home/me/game/images/eileen/open.png", `C:\game\images\eileen\closed.png`)
	require.NoError(t, err)
	assert.Equal(t, "images/eileen/open.png", opts.OpenImage)
	assert.Equal(t, "images/eileen/closed.png", opts.ClosedImage)
	assert.True(t, opts.Verbose)
	assert.Equal(t, cfg.FrameDuration, opts.FrameDuration)

	cfg.FullImagePath = true
	opts, err = NewOptions(cfg, "eileen", "/abs/open.png", "/abs/closed.png")
	require.NoError(t, err)
	assert.Equal(t, "/abs/open.png", opts.OpenImage)

	cfg.FullImagePath = false
	_, err = NewOptions(cfg, "eileen", "/abs/open.png", "/abs/closed.png")
	assert.Error(t, err)
}
