package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/models"
)

func TestSettingsApply(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var s settings
	s.register(fs)
	require.NoError(t, fs.Parse([]string{
		"-policy", "forced-manual",
		"-mode", "word",
		"-frame", "0.25",
		"-indent", "2",
		"-formats", "json, srt",
		"-workers", "3",
	}))

	cfg := models.NewDefaultConfig()
	require.NoError(t, s.apply(cfg))

	assert.Equal(t, models.PolicyForcedManual, cfg.Reconciliation)
	assert.Equal(t, 0.25, cfg.FrameDuration)
	assert.Equal(t, 2, cfg.Indent)
	assert.Equal(t, []string{"json", "srt"}, cfg.ExportFormats)
	assert.Equal(t, 3, cfg.MaxWorkers)
}

func TestSettingsApplyKeepsDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var s settings
	s.register(fs)
	require.NoError(t, fs.Parse(nil))

	cfg := models.NewDefaultConfig()
	require.NoError(t, s.apply(cfg))
	assert.Equal(t, models.NewDefaultConfig(), cfg)
}

func TestSettingsApplyInvalidPolicy(t *testing.T) {
	s := settings{policy: "sometimes", indent: -1, threshold: -1, tolerance: -1}
	assert.Error(t, s.apply(models.NewDefaultConfig()))
}

func TestTranscriptStem(t *testing.T) {
	tests := map[string]string{
		"scene01.vosk.json":    "scene01",
		"dir/scene02.json":     "scene02",
		"scene03_audacity.txt": "scene03",
		"scene04.labels.txt":   "scene04",
		"scene05_audition.csv": "scene05",
		"scene06.whisper.json": "scene06",
	}
	for path, want := range tests {
		f := transcriptFlags{path: path}
		assert.Equal(t, want, f.stem(), path)
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a,,b ,"))
	assert.Nil(t, splitList(""))
}
