package clientcli_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelts/filecrate/clientcli"
)

func TestNewFormatter(t *testing.T) {
	assert.IsType(t, &clientcli.JSONFormatter{}, clientcli.NewFormatter(true, false))
	assert.IsType(t, &clientcli.HumanFormatter{}, clientcli.NewFormatter(false, false))
}

func TestHumanFormatter(t *testing.T) {
	t.Run("upload", func(t *testing.T) {
		var buf bytes.Buffer
		f := &clientcli.HumanFormatter{}

		err := f.FormatUpload(&buf, &clientcli.UploadResult{
			RemotePath: "https://bucket/clip.mp4",
			ID:         uuid.New(),
			Size:       25 * 1024 * 1024,
			Parts:      3,
		})
		require.NoError(t, err)

		out := buf.String()
		assert.Contains(t, out, "Uploaded: https://bucket/clip.mp4")
		assert.Contains(t, out, "25.0 MB")
		assert.Contains(t, out, "3 part(s)")
	})

	t.Run("quiet upload prints nothing", func(t *testing.T) {
		var buf bytes.Buffer
		f := &clientcli.HumanFormatter{Quiet: true}

		require.NoError(t, f.FormatUpload(&buf, &clientcli.UploadResult{}))
		assert.Empty(t, buf.String())
	})

	t.Run("delete prints errors even when quiet", func(t *testing.T) {
		var buf bytes.Buffer
		f := &clientcli.HumanFormatter{Quiet: true}

		id := uuid.New()
		require.NoError(t, f.FormatDelete(&buf, []clientcli.DeleteResult{
			{ID: uuid.New(), Deleted: true},
			{ID: id, Err: errors.New("not found")},
		}))

		out := buf.String()
		assert.NotContains(t, out, "Deleted:")
		assert.Contains(t, out, "Error: "+id.String())
	})

	t.Run("files table", func(t *testing.T) {
		var buf bytes.Buffer
		f := &clientcli.HumanFormatter{}

		require.NoError(t, f.FormatFiles(&buf, []clientcli.FileInfo{
			{ID: uuid.New(), Filename: "clip.mp4", SizeBytes: 1024, CreatedAt: time.Now()},
			{ID: uuid.New(), Filename: "notes.txt", SizeBytes: 512, CreatedAt: time.Now()},
		}))

		out := buf.String()
		assert.Contains(t, out, "FILENAME")
		assert.Contains(t, out, "clip.mp4")
		assert.Contains(t, out, "2 file(s) (1.5 KB total)")
	})

	t.Run("empty files", func(t *testing.T) {
		var buf bytes.Buffer
		f := &clientcli.HumanFormatter{}

		require.NoError(t, f.FormatFiles(&buf, nil))
		assert.Equal(t, "No files found\n", buf.String())
	})

	t.Run("bucket table", func(t *testing.T) {
		var buf bytes.Buffer
		f := &clientcli.HumanFormatter{}

		require.NoError(t, f.FormatBucket(&buf, []clientcli.ObjectInfo{
			{Key: "a.txt", Size: 10, LastModified: time.Now()},
		}))

		out := buf.String()
		assert.Contains(t, out, "KEY")
		assert.Contains(t, out, "a.txt")
		assert.Contains(t, out, "1 object(s)")
	})

	t.Run("long filenames are truncated", func(t *testing.T) {
		var buf bytes.Buffer
		f := &clientcli.HumanFormatter{}

		long := strings.Repeat("x", 60) + ".mp4"
		require.NoError(t, f.FormatFiles(&buf, []clientcli.FileInfo{
			{ID: uuid.New(), Filename: long, SizeBytes: 1, CreatedAt: time.Now()},
		}))

		assert.NotContains(t, buf.String(), long)
		assert.Contains(t, buf.String(), "...")
	})
}

func TestJSONFormatter(t *testing.T) {
	t.Run("delete converts errors to strings", func(t *testing.T) {
		var buf bytes.Buffer
		f := &clientcli.JSONFormatter{}

		okID := uuid.New()
		failID := uuid.New()
		require.NoError(t, f.FormatDelete(&buf, []clientcli.DeleteResult{
			{ID: okID, Deleted: true},
			{ID: failID, Err: errors.New("boom")},
		}))

		var out struct {
			Results []struct {
				ID      string `json:"id"`
				Deleted bool   `json:"deleted"`
				Error   string `json:"error"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		require.Len(t, out.Results, 2)
		assert.True(t, out.Results[0].Deleted)
		assert.Empty(t, out.Results[0].Error)
		assert.Equal(t, "boom", out.Results[1].Error)
	})

	t.Run("files round-trip", func(t *testing.T) {
		var buf bytes.Buffer
		f := &clientcli.JSONFormatter{}

		files := []clientcli.FileInfo{{ID: uuid.New(), Filename: "clip.mp4", SizeBytes: 12}}
		require.NoError(t, f.FormatFiles(&buf, files))

		var out []clientcli.FileInfo
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		require.Len(t, out, 1)
		assert.Equal(t, files[0].ID, out[0].ID)
	})

	t.Run("error", func(t *testing.T) {
		var buf bytes.Buffer
		f := &clientcli.JSONFormatter{}

		require.NoError(t, f.FormatError(&buf, errors.New("boom")))

		var out map[string]string
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		assert.Equal(t, "boom", out["error"])
	})
}
