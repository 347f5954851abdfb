// Package postgres implements the metadata repo on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avelts/filecrate"
)

var validTableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type Repo struct {
	pool         *pgxpool.Pool
	filesTable   string
	foldersTable string
}

func NewRepo(pool *pgxpool.Pool, filesTable, foldersTable string) (*Repo, error) {
	for _, name := range []string{filesTable, foldersTable} {
		if !validTableName.MatchString(name) || len(name) > 63 {
			return nil, fmt.Errorf("new repo: invalid table name: %s", name)
		}
	}

	return &Repo{pool: pool, filesTable: filesTable, foldersTable: foldersTable}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) InsertFile(ctx context.Context, record filecrate.FileRecord) (filecrate.FileRecord, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, filename, path, size_bytes, folder_id, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, filename, path, size_bytes, folder_id, owner_id, created_at
	`, r.filesTable)

	var m filecrate.FileRecord
	err := r.pool.QueryRow(ctx, query,
		record.ID, record.Filename, record.Path, record.SizeBytes, record.FolderID, record.OwnerID,
	).Scan(&m.ID, &m.Filename, &m.Path, &m.SizeBytes, &m.FolderID, &m.OwnerID, &m.CreatedAt)
	if err != nil {
		return filecrate.FileRecord{}, fmt.Errorf("insert file: %w", err)
	}

	return m, nil
}

func (r *Repo) FileByID(ctx context.Context, id uuid.UUID) (filecrate.FileRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, filename, path, size_bytes, folder_id, owner_id, created_at
		FROM %s
		WHERE id = $1
	`, r.filesTable)

	var m filecrate.FileRecord
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Filename, &m.Path, &m.SizeBytes, &m.FolderID, &m.OwnerID, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return filecrate.FileRecord{}, filecrate.ErrNotFound
		}
		return filecrate.FileRecord{}, fmt.Errorf("file by id: %w", err)
	}

	return m, nil
}

func (r *Repo) FilesByOwner(ctx context.Context, ownerID string) ([]filecrate.FileRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, filename, path, size_bytes, folder_id, owner_id, created_at
		FROM %s
		WHERE owner_id = $1
		ORDER BY created_at, id
	`, r.filesTable)

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("files by owner: %w", err)
	}
	defer rows.Close()

	return scanFiles(rows, "files by owner")
}

func (r *Repo) AllFiles(ctx context.Context) ([]filecrate.FileRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, filename, path, size_bytes, folder_id, owner_id, created_at
		FROM %s
		ORDER BY created_at, id
	`, r.filesTable)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("all files: %w", err)
	}
	defer rows.Close()

	return scanFiles(rows, "all files")
}

func scanFiles(rows pgx.Rows, opName string) ([]filecrate.FileRecord, error) {
	items := []filecrate.FileRecord{}
	for rows.Next() {
		var m filecrate.FileRecord
		if err := rows.Scan(&m.ID, &m.Filename, &m.Path, &m.SizeBytes, &m.FolderID, &m.OwnerID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", opName, err)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", opName, err)
	}

	return items, nil
}

func (r *Repo) DeleteFile(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.filesTable)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete file: %w", filecrate.ErrNotFound)
	}

	return nil
}

func (r *Repo) InsertFolder(ctx context.Context, folder filecrate.Folder) (filecrate.Folder, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, owner_id, created_at
	`, r.foldersTable)

	var f filecrate.Folder
	err := r.pool.QueryRow(ctx, query, folder.ID, folder.Name, folder.OwnerID).Scan(
		&f.ID, &f.Name, &f.OwnerID, &f.CreatedAt,
	)
	if err != nil {
		return filecrate.Folder{}, fmt.Errorf("insert folder: %w", err)
	}

	return f, nil
}

func (r *Repo) FoldersByOwner(ctx context.Context, ownerID string) ([]filecrate.Folder, error) {
	query := fmt.Sprintf(`
		SELECT id, name, owner_id, created_at
		FROM %s
		WHERE owner_id = $1
		ORDER BY created_at, id
	`, r.foldersTable)

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("folders by owner: %w", err)
	}
	defer rows.Close()

	items := []filecrate.Folder{}
	for rows.Next() {
		var f filecrate.Folder
		if err := rows.Scan(&f.ID, &f.Name, &f.OwnerID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("folders by owner: scan: %w", err)
		}
		items = append(items, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("folders by owner: rows: %w", err)
	}

	return items, nil
}
