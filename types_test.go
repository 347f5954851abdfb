package filecrate_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelts/filecrate"
)

func newSession(t *testing.T, totalSize int64) *filecrate.UploadSession {
	t.Helper()
	expected, err := filecrate.ExpectedPartCount(totalSize)
	require.NoError(t, err)
	return filecrate.NewUploadSession("upload-1", "videos/clip.mp4", "video/mp4", totalSize, expected)
}

func TestUploadSession_RecordPart(t *testing.T) {
	t.Run("records parts in any order", func(t *testing.T) {
		session := newSession(t, 25*1024*1024)

		assert.NoError(t, session.RecordPart(3, "etag-3"))
		assert.NoError(t, session.RecordPart(1, "etag-1"))
		assert.NoError(t, session.RecordPart(2, "etag-2"))

		assert.Equal(t, 3, session.PartCount())
		assert.Equal(t, filecrate.StatusPartsInFlight, session.Status())
	})

	t.Run("re-recording the identical etag is a no-op", func(t *testing.T) {
		session := newSession(t, 25*1024*1024)

		require.NoError(t, session.RecordPart(1, "etag-1"))
		assert.NoError(t, session.RecordPart(1, "etag-1"))
		assert.Equal(t, 1, session.PartCount())
	})

	t.Run("conflicting etag is rejected", func(t *testing.T) {
		session := newSession(t, 25*1024*1024)

		require.NoError(t, session.RecordPart(1, "etag-1"))
		err := session.RecordPart(1, "etag-other")
		assert.ErrorIs(t, err, filecrate.ErrDuplicatePart)
		assert.Equal(t, 1, session.PartCount())
	})

	t.Run("out of range part numbers are rejected", func(t *testing.T) {
		session := newSession(t, 25*1024*1024)

		assert.ErrorIs(t, session.RecordPart(0, "etag"), filecrate.ErrInvalidPartNumber)
		assert.ErrorIs(t, session.RecordPart(4, "etag"), filecrate.ErrInvalidPartNumber)
		assert.ErrorIs(t, session.RecordPart(-1, "etag"), filecrate.ErrInvalidPartNumber)
	})

	t.Run("concurrent registration is safe", func(t *testing.T) {
		session := newSession(t, 100*1024*1024)

		var wg sync.WaitGroup
		for n := 1; n <= session.ExpectedPartCount; n++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, session.RecordPart(n, "etag"))
			}()
		}
		wg.Wait()

		assert.Equal(t, session.ExpectedPartCount, session.PartCount())
		assert.Empty(t, session.MissingParts())
	})
}

func TestUploadSession_BeginFinalize(t *testing.T) {
	t.Run("only the first claim wins", func(t *testing.T) {
		session := newSession(t, 25*1024*1024)

		require.NoError(t, session.BeginFinalize())
		assert.ErrorIs(t, session.BeginFinalize(), filecrate.ErrUnknownSession)
	})

	t.Run("terminal sessions cannot be claimed", func(t *testing.T) {
		session := newSession(t, 25*1024*1024)
		session.Finish(filecrate.StatusAborted)

		assert.ErrorIs(t, session.BeginFinalize(), filecrate.ErrUnknownSession)
	})

	t.Run("no parts are accepted once finalizing", func(t *testing.T) {
		session := newSession(t, 25*1024*1024)
		require.NoError(t, session.RecordPart(1, "etag-1"))

		require.NoError(t, session.BeginFinalize())
		assert.ErrorIs(t, session.RecordPart(2, "etag-2"), filecrate.ErrUnknownSession)
		assert.Equal(t, 1, session.PartCount())
	})

	t.Run("finish records the terminal status", func(t *testing.T) {
		session := newSession(t, 25*1024*1024)

		require.NoError(t, session.BeginFinalize())
		session.Finish(filecrate.StatusCompleted)
		assert.Equal(t, filecrate.StatusCompleted, session.Status())
	})
}

func TestUploadSession_MissingParts(t *testing.T) {
	session := newSession(t, 25*1024*1024)

	assert.Equal(t, []int{1, 2, 3}, session.MissingParts())

	require.NoError(t, session.RecordPart(2, "etag-2"))
	assert.Equal(t, []int{1, 3}, session.MissingParts())

	require.NoError(t, session.RecordPart(1, "etag-1"))
	require.NoError(t, session.RecordPart(3, "etag-3"))
	assert.Empty(t, session.MissingParts())
}

func TestUploadSession_Manifest(t *testing.T) {
	t.Run("ascending regardless of registration order", func(t *testing.T) {
		session := newSession(t, 25*1024*1024)

		require.NoError(t, session.RecordPart(3, "etag-3"))
		require.NoError(t, session.RecordPart(1, "etag-1"))
		require.NoError(t, session.RecordPart(2, "etag-2"))

		manifest, err := session.Manifest()
		require.NoError(t, err)
		require.Len(t, manifest, 3)

		for i, part := range manifest {
			assert.Equal(t, i+1, part.PartNumber)
		}
		assert.Equal(t, "etag-1", manifest[0].ETag)
		assert.Equal(t, "etag-2", manifest[1].ETag)
		assert.Equal(t, "etag-3", manifest[2].ETag)
	})

	t.Run("incomplete set is rejected", func(t *testing.T) {
		session := newSession(t, 25*1024*1024)

		require.NoError(t, session.RecordPart(1, "etag-1"))
		require.NoError(t, session.RecordPart(3, "etag-3"))

		_, err := session.Manifest()
		assert.ErrorIs(t, err, filecrate.ErrIncompletePartsSet)
	})

	t.Run("empty session is rejected", func(t *testing.T) {
		session := newSession(t, 25*1024*1024)

		_, err := session.Manifest()
		assert.ErrorIs(t, err, filecrate.ErrIncompletePartsSet)
	})
}

func TestSessionStatus_IsTerminal(t *testing.T) {
	assert.False(t, filecrate.StatusInitiated.IsTerminal())
	assert.False(t, filecrate.StatusPartsInFlight.IsTerminal())
	assert.True(t, filecrate.StatusCompleted.IsTerminal())
	assert.True(t, filecrate.StatusAborted.IsTerminal())
	assert.True(t, filecrate.StatusFailed.IsTerminal())
}
