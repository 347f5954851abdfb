package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

// Migrate creates the files and folders tables and their indexes.
func Migrate(ctx context.Context, db *sql.DB, filesTable, foldersTable string) error {
	if err := createFoldersTable(ctx, db, foldersTable); err != nil {
		return fmt.Errorf("migrate up %s: %w", foldersTable, err)
	}
	if err := createFilesTable(ctx, db, filesTable); err != nil {
		return fmt.Errorf("migrate up %s: %w", filesTable, err)
	}
	return nil
}

// DropTables removes the metadata tables.
func DropTables(ctx context.Context, db *sql.DB, filesTable, foldersTable string) error {
	for _, name := range []string{filesTable, foldersTable} {
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(name))
		if _, err := db.ExecContext(ctx, dropSQL); err != nil {
			return fmt.Errorf("migrate down %s: %w", name, err)
		}
	}
	return nil
}

func createFoldersTable(ctx context.Context, db *sql.DB, tableName string) error {
	quotedTable := quoteIdentifier(tableName)
	indexOwner := quoteIdentifier(fmt.Sprintf("idx_%s_owner", tableName))

	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT NOT NULL PRIMARY KEY,
			name TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`, quotedTable)

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	indexSQL := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (owner_id)`, indexOwner, quotedTable)
	if _, err := db.ExecContext(ctx, indexSQL); err != nil {
		return fmt.Errorf("create index owner: %w", err)
	}

	return nil
}

func createFilesTable(ctx context.Context, db *sql.DB, tableName string) error {
	quotedTable := quoteIdentifier(tableName)
	indexOwner := quoteIdentifier(fmt.Sprintf("idx_%s_owner", tableName))
	indexFolder := quoteIdentifier(fmt.Sprintf("idx_%s_folder", tableName))

	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT NOT NULL PRIMARY KEY,
			filename TEXT NOT NULL,
			path TEXT NOT NULL,
			size_bytes INTEGER NOT NULL,
			folder_id TEXT,
			owner_id TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`, quotedTable)

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	indexSQL := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (owner_id)`, indexOwner, quotedTable)
	if _, err := db.ExecContext(ctx, indexSQL); err != nil {
		return fmt.Errorf("create index owner: %w", err)
	}

	indexSQL = fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (folder_id)`, indexFolder, quotedTable)
	if _, err := db.ExecContext(ctx, indexSQL); err != nil {
		return fmt.Errorf("create index folder: %w", err)
	}

	return nil
}
