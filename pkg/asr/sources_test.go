package asr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

const voskJSON = `{
  "result": [
    {"conf": 1.0, "end": 0.42, "start": 0.12, "word": "hello"},
    {"conf": 0.5, "end": 0.9, "start": 0.5, "word": "world"}
  ],
  "text": "hello world"
}`

const voskAlternativesJSON = `{
  "alternatives": [
    {"confidence": 220.0, "result": [{"end": 0.42, "start": 0.12, "word": "hello"}], "text": "hello"},
    {"confidence": 100.0, "result": [{"end": 0.42, "start": 0.12, "word": "yellow"}], "text": "yellow"}
  ]
}`

const whisperJSON = `{
  "text": " Hello, world.",
  "segments": [
    {"text": " Hello, world.", "start": 0.0, "end": 1.0, "words": [
      {"word": " Hello,", "start": 0.0, "end": 0.4, "probability": 0.93},
      {"word": " world.", "start": 0.5, "end": 1.0, "probability": 0.88}
    ]}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDetectJSONFormat(t *testing.T) {
	cases := map[string]string{
		voskJSON:                   FormatVosk,
		voskAlternativesJSON:       FormatVosk,
		whisperJSON:                FormatWhisper,
		`{"model":"x","words":[]}`: FormatJSON,
		`{"text":"only the text"}`: FormatWhisper,
	}
	for input, expected := range cases {
		format, err := DetectJSONFormat([]byte(input))
		require.NoError(t, err)
		assert.Equal(t, expected, format)
	}

	_, err := DetectJSONFormat([]byte(`{"foo": 1}`))
	assert.True(t, errors.Is(err, utils.ErrInvalidInput))

	_, err = DetectJSONFormat([]byte(`[1, 2]`))
	assert.True(t, errors.Is(err, utils.ErrInvalidInput))
}

func TestDecodeVosk(t *testing.T) {
	words, err := DecodeVosk([]byte(voskJSON))
	require.NoError(t, err)

	require.Len(t, words, 2)
	assert.Equal(t, "hello", words[0].Text)
	assert.Equal(t, 0.12, words[0].Start)
	assert.Equal(t, 0.42, words[0].End)
	require.NotNil(t, words[1].Confidence)
	assert.Equal(t, 0.5, *words[1].Confidence)

	// 多候选时取第一个候选
	words, err = DecodeVosk([]byte(voskAlternativesJSON))
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "hello", words[0].Text)
	assert.Nil(t, words[0].Confidence)
}

func TestDecodeWhisper(t *testing.T) {
	words, err := DecodeWhisper([]byte(whisperJSON))
	require.NoError(t, err)

	require.Len(t, words, 2)
	assert.Equal(t, "Hello,", words[0].Text)
	assert.Equal(t, 0.93, *words[0].Confidence)

	_, err = DecodeWhisper([]byte(`{"segments":[{"text":"no words","start":0,"end":1}]}`))
	assert.True(t, errors.Is(err, utils.ErrInvalidInput))
}

func TestTextFile(t *testing.T) {
	ctx := context.Background()

	plain := writeFile(t, "scene.txt", "Hello,  world.\nHow are you?\n")
	words, err := NewTextFile(plain, FormatAuto).Words(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello,", "world.", "How", "are", "you?"}, words)

	whisper := writeFile(t, "scene.json", whisperJSON)
	words, err = NewTextFile(whisper, "").Words(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello,", "world."}, words)

	// 没有 text 字段时拼接各段文本
	segmentsOnly := writeFile(t, "segments.json", `{"segments":[{"text":" one two"},{"text":" three"}]}`)
	words, err = NewTextFile(segmentsOnly, FormatWhisper).Words(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, words)

	_, err = NewTextFile(filepath.Join(t.TempDir(), "missing.txt"), "").Words(ctx)
	assert.True(t, errors.Is(err, utils.ErrNotFound))

	_, err = NewTextFile(plain, "docx").Words(ctx)
	assert.True(t, errors.Is(err, utils.ErrInvalidInput))
}

func TestSourcesRespectCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTextFile(writeFile(t, "a.txt", "a"), "").Words(ctx)
	assert.True(t, errors.Is(err, context.Canceled))

	_, err = StaticText{"a"}.Words(ctx)
	assert.True(t, errors.Is(err, context.Canceled))

	_, err = StaticTimings{models.NewWordTiming("a", 0, 1)}.Timings(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStaticSourcesCopy(t *testing.T) {
	source := StaticText{"a", "b"}
	words, err := source.Words(context.Background())
	require.NoError(t, err)

	words[0] = "changed"
	assert.Equal(t, "a", source[0])
}
