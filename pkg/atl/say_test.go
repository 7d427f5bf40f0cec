package atl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/asr-media-cli/lipsync/pkg/utils"
)

func TestWaitTag(t *testing.T) {
	assert.Equal(t, "{w=0.12}", WaitTag(0.123))
	assert.Equal(t, "{w=1}", WaitTag(1.0))
	assert.Equal(t, "", WaitTag(0))
	assert.Equal(t, "", WaitTag(0.004))
}

func TestSayStatement(t *testing.T) {
	assert.Equal(t, "hello{w=0.25} world", SayStatement(helloWorld()))
}

func TestTruncatePath(t *testing.T) {
	path, err := TruncatePath("/home/me/game/images/eileen/open.png", "images")
	require.NoError(t, err)
	assert.Equal(t, "images/eileen/open.png", path)

	_, err = TruncatePath("/home/me/open.png", "images")
	assert.True(t, errors.Is(err, utils.ErrInvalidInput))
}

func TestExportScript(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, err := ExportScript(dir, "eileen", "image eileen:")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ATL-image-eileen.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "image eileen:\n", string(data))
}
