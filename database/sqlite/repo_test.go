package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelts/filecrate"
	"github.com/avelts/filecrate/database/sqlite"

	_ "modernc.org/sqlite"
)

func newRepo(t *testing.T) *sqlite.Repo {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// in-memory sqlite drops everything when more than one connection opens
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	require.NoError(t, sqlite.Migrate(ctx, db, "files", "folders"))

	repo, err := sqlite.NewRepo(db, "files", "folders")
	require.NoError(t, err)
	return repo
}

func insertFile(t *testing.T, repo *sqlite.Repo, filename, ownerID string, folderID *uuid.UUID) filecrate.FileRecord {
	t.Helper()
	record, err := repo.InsertFile(context.Background(), filecrate.FileRecord{
		ID:        uuid.New(),
		Filename:  filename,
		Path:      "https://bucket/" + filename,
		SizeBytes: 100,
		FolderID:  folderID,
		OwnerID:   ownerID,
	})
	require.NoError(t, err)
	return record
}

func TestNewRepo(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	t.Run("valid table names", func(t *testing.T) {
		_, err := sqlite.NewRepo(db, "files", "folders")
		assert.NoError(t, err)
	})

	t.Run("invalid table name", func(t *testing.T) {
		_, err := sqlite.NewRepo(db, "files; DROP TABLE files", "folders")
		assert.Error(t, err)

		_, err = sqlite.NewRepo(db, "files", "1folders")
		assert.Error(t, err)
	})
}

func TestRepo_InsertFile(t *testing.T) {
	t.Run("round-trips a record", func(t *testing.T) {
		repo := newRepo(t)
		inserted := insertFile(t, repo, "clip.mp4", "user-1", nil)
		assert.False(t, inserted.CreatedAt.IsZero())

		got, err := repo.FileByID(context.Background(), inserted.ID)
		require.NoError(t, err)

		assert.Equal(t, inserted.ID, got.ID)
		assert.Equal(t, "clip.mp4", got.Filename)
		assert.Equal(t, "https://bucket/clip.mp4", got.Path)
		assert.Equal(t, int64(100), got.SizeBytes)
		assert.Nil(t, got.FolderID)
		assert.Equal(t, "user-1", got.OwnerID)
		assert.True(t, got.CreatedAt.Equal(inserted.CreatedAt))
	})

	t.Run("keeps the folder id", func(t *testing.T) {
		repo := newRepo(t)
		folderID := uuid.New()
		inserted := insertFile(t, repo, "clip.mp4", "user-1", &folderID)

		got, err := repo.FileByID(context.Background(), inserted.ID)
		require.NoError(t, err)
		require.NotNil(t, got.FolderID)
		assert.Equal(t, folderID, *got.FolderID)
	})
}

func TestRepo_FileByID(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.FileByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, filecrate.ErrNotFound)
}

func TestRepo_FilesByOwner(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	first := insertFile(t, repo, "a.txt", "user-1", nil)
	second := insertFile(t, repo, "b.txt", "user-1", nil)
	insertFile(t, repo, "other.txt", "user-2", nil)

	files, err := repo.FilesByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, []uuid.UUID{files[0].ID, files[1].ID})

	empty, err := repo.FilesByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepo_AllFiles(t *testing.T) {
	repo := newRepo(t)

	insertFile(t, repo, "a.txt", "user-1", nil)
	insertFile(t, repo, "b.txt", "user-2", nil)

	files, err := repo.AllFiles(context.Background())
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestRepo_DeleteFile(t *testing.T) {
	t.Run("deletes a record", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		inserted := insertFile(t, repo, "clip.mp4", "user-1", nil)

		require.NoError(t, repo.DeleteFile(ctx, inserted.ID))

		_, err := repo.FileByID(ctx, inserted.ID)
		assert.ErrorIs(t, err, filecrate.ErrNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.DeleteFile(context.Background(), uuid.New())
		assert.ErrorIs(t, err, filecrate.ErrNotFound)
	})
}

func TestRepo_Folders(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	folder, err := repo.InsertFolder(ctx, filecrate.Folder{
		ID:      uuid.New(),
		Name:    "videos",
		OwnerID: "user-1",
	})
	require.NoError(t, err)
	assert.False(t, folder.CreatedAt.IsZero())

	_, err = repo.InsertFolder(ctx, filecrate.Folder{
		ID:      uuid.New(),
		Name:    "other",
		OwnerID: "user-2",
	})
	require.NoError(t, err)

	folders, err := repo.FoldersByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, folder.ID, folders[0].ID)
	assert.Equal(t, "videos", folders[0].Name)
}

func TestDropTables(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	require.NoError(t, sqlite.Migrate(ctx, db, "files", "folders"))
	require.NoError(t, sqlite.DropTables(ctx, db, "files", "folders"))

	// migrating again proves the tables are gone
	assert.NoError(t, sqlite.Migrate(ctx, db, "files", "folders"))
}
