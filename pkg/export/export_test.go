package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/extract"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

func sampleTranscript() models.Transcript {
	hello := models.NewWordTiming("Hello,", 0.25, 0.5)
	hello.Confidence = models.Float64(0.875)
	return models.MustTranscript([]models.WordTiming{
		hello,
		models.NewWordTiming("world.", 0.5, 1.125),
		models.NewWordTiming("Again", 62.5, 63.0),
	}, "base.en")
}

func assertSameTimings(t *testing.T, want, got models.Transcript) {
	t.Helper()
	require.Equal(t, want.Len(), got.Len())
	for i := 0; i < want.Len(); i++ {
		assert.Equal(t, want.At(i).Text, got.At(i).Text)
		assert.InDelta(t, want.At(i).Start, got.At(i).Start, 1e-3)
		assert.InDelta(t, want.At(i).End, got.At(i).End, 1e-3)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	exporter := NewJSONExporter(dir)
	transcript := sampleTranscript()

	path, err := exporter.Export(transcript, "/data/scene01.wav")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scene01.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"model": "base.en"`)
	assert.Contains(t, string(data), `"text": "Hello, world. Again"`)
	assert.Contains(t, string(data), `"confidence": null`)

	imported, err := ImportJSON(path)
	require.NoError(t, err)
	assert.Equal(t, transcript.Words(), imported.Words())
	assert.Equal(t, "base.en", imported.Model())
}

func TestJSONEmptyTranscript(t *testing.T) {
	record := NewJSONExporter("").GenerateJSONContent(models.MustTranscript(nil, ""))
	assert.NotNil(t, record.Words)
	assert.Empty(t, record.Words)
}

func TestImportJSONErrors(t *testing.T) {
	_, err := ImportJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, utils.ErrNotFound))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = ImportJSON(bad)
	assert.True(t, errors.Is(err, utils.ErrInvalidInput))

	// 时间倒序的单词不能构成转录
	unordered := filepath.Join(t.TempDir(), "unordered.json")
	content := `{"model":"","text":"","words":[{"text":"b","start":1,"end":2},{"text":"a","start":0,"end":0.5}]}`
	require.NoError(t, os.WriteFile(unordered, []byte(content), 0644))
	_, err = ImportJSON(unordered)
	assert.True(t, errors.Is(err, utils.ErrInvalidInput))
}

func TestAudacityContent(t *testing.T) {
	content, err := NewAudacityExporter("").GenerateAudacityContent(sampleTranscript())
	require.NoError(t, err)

	assert.Equal(t,
		"0.250000\t0.500000\tHello,\n"+
			"0.500000\t1.125000\tworld.\n"+
			"62.500000\t63.000000\tAgain\n",
		content)
}

func TestAudacityRoundTrip(t *testing.T) {
	dir := t.TempDir()
	transcript := sampleTranscript()

	path, err := NewAudacityExporter(dir).Export(transcript, "scene01")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scene01_audacity.txt"), path)

	imported, err := ImportAudacity(path)
	require.NoError(t, err)
	assertSameTimings(t, transcript, imported)
}

func TestDecodeAudacitySkipsSpectralRows(t *testing.T) {
	input := "1.000000\t2.000000\thi\n\\\t100.0\t2000.0\n3.0\t3.5\n"

	transcript, err := DecodeAudacity(strings.NewReader(input))
	require.NoError(t, err)

	require.Equal(t, 2, transcript.Len())
	assert.Equal(t, "hi", transcript.At(0).Text)
	assert.Equal(t, "", transcript.At(1).Text)
	assert.Equal(t, 3.5, transcript.At(1).End)

	_, err = DecodeAudacity(strings.NewReader("abc\t1.0\tx\n"))
	assert.True(t, errors.Is(err, utils.ErrInvalidInput))
}

func TestAuditionContent(t *testing.T) {
	content, err := NewAuditionExporter("").GenerateAuditionContent(sampleTranscript())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(content, "\r\n"), "\r\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Name\tStart\tDuration\tTime Format\tType\tDescription", lines[0])
	assert.Equal(t, "Marker 1\t0:00.250\t0:00.250\tdecimal\tCue\tHello,", lines[1])
	assert.Equal(t, "Marker 3\t1:02.500\t0:00.500\tdecimal\tCue\tAgain", lines[3])
}

func TestAuditionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	transcript := sampleTranscript()

	path, err := NewAuditionExporter(dir).Export(transcript, "scene01.wav")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scene01_audition.csv"), path)

	imported, err := ImportAudition(path)
	require.NoError(t, err)
	assertSameTimings(t, transcript, imported)
}

func TestSRTContent(t *testing.T) {
	exporter := NewSRTExporter("", 42, 0.5)
	content := exporter.GenerateSRTContent(extract.GetSegments(sampleTranscript(), exporter.Tolerance))

	expected := "1\n" +
		"0:00:00,250 --> 0:00:01,125\n" +
		"Hello, world.\n" +
		"\n" +
		"2\n" +
		"0:01:02,500 --> 0:01:03,000\n" +
		"Again\n" +
		"\n"
	assert.Equal(t, expected, content)
}

func TestSRTSkipsEmptySegments(t *testing.T) {
	exporter := NewSRTExporter("", 42, 0)
	assert.Equal(t, "", exporter.GenerateSRTContent(extract.GetSegments(models.MustTranscript(nil, ""), 0)))
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "the quick\nbrown fox", WrapText("the quick brown fox", 10))
	assert.Equal(t, "supercalifragilistic\nword", WrapText("supercalifragilistic word", 10))
	// 全角字符按两个宽度计算
	assert.Equal(t, "你好 世界\n再见", WrapText("你好 世界 再见", 9))
	assert.Equal(t, "a b", WrapText("a   b", 0))
}

func TestExportWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	// 输出目录是一个普通文件，无法写入
	_, err := NewJSONExporter(filepath.Join(blocker, "sub")).Export(sampleTranscript(), "scene01")
	assert.True(t, errors.Is(err, utils.ErrIO))
}

func TestNewExporters(t *testing.T) {
	cfg := models.NewDefaultConfig()
	cfg.ExportFormats = []string{models.ExportJSON, models.ExportSRT, models.ExportAudacity, models.ExportAudition}

	exporters, err := NewExporters(cfg)
	require.NoError(t, err)

	var formats []string
	for _, e := range exporters {
		formats = append(formats, e.Format())
	}
	assert.Equal(t, cfg.ExportFormats, formats)

	_, err = NewExporter("vtt", cfg)
	assert.Error(t, err)
}
