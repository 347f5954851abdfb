// Package sqlite implements the metadata repo using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/avelts/filecrate"
)

var validTableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type Repo struct {
	db           *sql.DB
	filesTable   string
	foldersTable string
}

func NewRepo(db *sql.DB, filesTable, foldersTable string) (*Repo, error) {
	for _, name := range []string{filesTable, foldersTable} {
		if !validTableName.MatchString(name) || len(name) > 63 {
			return nil, fmt.Errorf("new repo: invalid table name: %s", name)
		}
	}

	return &Repo{db: db, filesTable: filesTable, foldersTable: foldersTable}, nil
}

func (r *Repo) InsertFile(ctx context.Context, record filecrate.FileRecord) (filecrate.FileRecord, error) {
	now := time.Now().UTC()

	var folderID any
	if record.FolderID != nil {
		folderID = record.FolderID.String()
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, filename, path, size_bytes, folder_id, owner_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, r.filesTable)

	_, err := r.db.ExecContext(ctx, query,
		record.ID.String(), record.Filename, record.Path, record.SizeBytes, folderID, record.OwnerID,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return filecrate.FileRecord{}, fmt.Errorf("insert file: %w", err)
	}

	record.CreatedAt = now
	return record, nil
}

func (r *Repo) FileByID(ctx context.Context, id uuid.UUID) (filecrate.FileRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, filename, path, size_bytes, folder_id, owner_id, created_at
		FROM %s
		WHERE id = ?`, r.filesTable)

	m, err := scanFile(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return filecrate.FileRecord{}, filecrate.ErrNotFound
		}
		return filecrate.FileRecord{}, fmt.Errorf("file by id: %w", err)
	}

	return m, nil
}

func (r *Repo) FilesByOwner(ctx context.Context, ownerID string) ([]filecrate.FileRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, filename, path, size_bytes, folder_id, owner_id, created_at
		FROM %s
		WHERE owner_id = ?
		ORDER BY created_at, id`, r.filesTable)

	return r.queryFiles(ctx, "files by owner", query, ownerID)
}

func (r *Repo) AllFiles(ctx context.Context) ([]filecrate.FileRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, filename, path, size_bytes, folder_id, owner_id, created_at
		FROM %s
		ORDER BY created_at, id`, r.filesTable)

	return r.queryFiles(ctx, "all files", query)
}

func (r *Repo) queryFiles(ctx context.Context, opName, query string, args ...any) ([]filecrate.FileRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opName, err)
	}
	defer func() { _ = rows.Close() }()

	items := []filecrate.FileRecord{}
	for rows.Next() {
		m, scanErr := scanFile(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%s: %w", opName, scanErr)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", opName, err)
	}

	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (filecrate.FileRecord, error) {
	var m filecrate.FileRecord
	var idStr, createdAt string
	var folderID sql.NullString

	if err := row.Scan(&idStr, &m.Filename, &m.Path, &m.SizeBytes, &folderID, &m.OwnerID, &createdAt); err != nil {
		return filecrate.FileRecord{}, err
	}

	var err error
	m.ID, err = uuid.Parse(idStr)
	if err != nil {
		return filecrate.FileRecord{}, fmt.Errorf("parse uuid: %w", err)
	}

	if folderID.Valid {
		fid, parseErr := uuid.Parse(folderID.String)
		if parseErr != nil {
			return filecrate.FileRecord{}, fmt.Errorf("parse folder uuid: %w", parseErr)
		}
		m.FolderID = &fid
	}

	m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return filecrate.FileRecord{}, fmt.Errorf("parse created_at: %w", err)
	}

	return m, nil
}

func (r *Repo) DeleteFile(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.filesTable) //nolint:gosec // table name is validated

	result, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete file: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("delete file: %w", filecrate.ErrNotFound)
	}

	return nil
}

func (r *Repo) InsertFolder(ctx context.Context, folder filecrate.Folder) (filecrate.Folder, error) {
	now := time.Now().UTC()

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, name, owner_id, created_at)
		VALUES (?, ?, ?, ?)`, r.foldersTable)

	_, err := r.db.ExecContext(ctx, query,
		folder.ID.String(), folder.Name, folder.OwnerID, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return filecrate.Folder{}, fmt.Errorf("insert folder: %w", err)
	}

	folder.CreatedAt = now
	return folder, nil
}

func (r *Repo) FoldersByOwner(ctx context.Context, ownerID string) ([]filecrate.Folder, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, name, owner_id, created_at
		FROM %s
		WHERE owner_id = ?
		ORDER BY created_at, id`, r.foldersTable)

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("folders by owner: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []filecrate.Folder{}
	for rows.Next() {
		var f filecrate.Folder
		var idStr, createdAt string

		if scanErr := rows.Scan(&idStr, &f.Name, &f.OwnerID, &createdAt); scanErr != nil {
			return nil, fmt.Errorf("folders by owner: scan: %w", scanErr)
		}

		var parseErr error
		f.ID, parseErr = uuid.Parse(idStr)
		if parseErr != nil {
			return nil, fmt.Errorf("folders by owner: parse uuid: %w", parseErr)
		}

		f.CreatedAt, parseErr = time.Parse(time.RFC3339Nano, createdAt)
		if parseErr != nil {
			return nil, fmt.Errorf("folders by owner: parse created_at: %w", parseErr)
		}

		items = append(items, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("folders by owner: rows: %w", err)
	}

	return items, nil
}
