package atl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
)

func threeSeconds() models.Transcript {
	return models.MustTranscript([]models.WordTiming{
		models.NewWordTiming("a", 0.25, 0.75),
		models.NewWordTiming("b", 2.0, 3.0),
	}, "")
}

func TestReannotateGeneratedScriptUnchanged(t *testing.T) {
	g := newTestGenerator(t, helloWorld())

	fixed := g.GenerateFixedStep()
	assert.Equal(t, fixed, g.Reannotate(fixed, false))

	// 保留末尾换行
	assert.Equal(t, fixed+"\n", g.Reannotate(fixed+"\n", false))
}

func TestReannotateIdempotent(t *testing.T) {
	g := newTestGenerator(t, helloWorld())

	for _, script := range []string{g.GenerateFixedStep(), g.GenerateWordAligned()} {
		for _, verbose := range []bool{false, true} {
			once := g.Reannotate(script, verbose)
			twice := g.Reannotate(once, verbose)
			assert.Equal(t, once, twice)
		}
	}
}

func TestReannotatePreservesDelayTokens(t *testing.T) {
	g := newTestGenerator(t, helloWorld())

	script := strings.Join([]string{
		"image eileen:",
		"  # my own comment",
		`  "images/closed.png"`,
		"  .5 # stale",
		"\t\"images/open.png\"",
		"\t1.25",
		`  "images/open.png"`,
		"  0.5",
	}, "\n")

	result := g.Reannotate(script, false)
	lines := strings.Split(result, "\n")

	assert.Equal(t, "  # my own comment", lines[1])
	assert.Equal(t, "  .5  # hello", lines[3])
	assert.Equal(t, "\t1.25  # world", lines[5])
	// 1.75 秒处截断，最后一个图片行是张嘴，补一行闭嘴
	assert.Len(t, lines, 7)
	assert.Equal(t, `    "images/closed.png"`, lines[6])
}

func TestReannotateExtendsShortScript(t *testing.T) {
	g := newTestGenerator(t, threeSeconds())

	script := strings.Join([]string{
		"image eileen:",
		`    "images/open.png"`,
		"    0.25",
		`    "images/closed.png"`,
		"    0.75 # stale comment",
	}, "\n")

	result := g.Reannotate(script, false)

	assert.Contains(t, result, "    0.25\n")
	assert.Contains(t, result, "    0.75  # a\n")
	assert.NotContains(t, result, "stale")
	assert.InDelta(t, 3.0, ScriptDuration(result), 1e-6)
	assert.Equal(t, `    "images/closed.png"`, lastAssetLine(result))

	// 补齐后的脚本覆盖整个转录，再次注释不变
	assert.Equal(t, result, g.Reannotate(result, false))
}

func TestReannotateTruncatesLongScript(t *testing.T) {
	long := newTestGenerator(t, threeSeconds()).GenerateFixedStep()

	g := newTestGenerator(t, helloWorld())
	result := g.Reannotate(long, false)

	assert.InDelta(t, 1.75, ScriptDuration(result), 1e-6)
	assert.Equal(t, `    "images/closed.png"`, lastAssetLine(result))

	// 头部之后的内容与直接生成的脚本一致
	got := strings.Split(result, "\n")
	want := strings.Split(g.GenerateFixedStep(), "\n")
	assert.Equal(t, want[3:], got[3:])
}

func TestScriptDuration(t *testing.T) {
	script := strings.Join([]string{
		"image x:",
		"    # 0.5 not a delay",
		"    0.5",
		`    "a.png"`,
		"    .25  # comment",
		"    1.5 seconds",
	}, "\n")

	assert.InDelta(t, 0.75, ScriptDuration(script), 1e-9)
}
