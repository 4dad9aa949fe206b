package datasource

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// Items live in a single table:
//
//	CREATE TABLE items (model TEXT NOT NULL, header TEXT, sequence INTEGER)
//
// Row order is rowid order.
const createItemsTable = `CREATE TABLE IF NOT EXISTS items (
	model    TEXT NOT NULL,
	header   TEXT,
	sequence INTEGER
)`

func loadSQLite(path string) ([]Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open items database: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open items database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT model, header, sequence FROM items ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query items in %s: %w", path, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec    Record
			header sql.NullString
			seq    sql.NullInt64
		)
		if err := rows.Scan(&rec.Model, &header, &seq); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if header.Valid {
			h := header.String
			rec.Header = &h
		}
		if seq.Valid {
			n := int(seq.Int64)
			rec.Sequence = &n
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, len(records)+1, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return records, nil
}

// saveSQLite replaces the items table of the database at path.
func saveSQLite(path string, records []Record) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open items database: %w", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(createItemsTable); err != nil {
		return fmt.Errorf("create items table: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM items`); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO items (model, header, sequence) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, rec := range records {
		var header sql.NullString
		var seq sql.NullInt64
		if rec.Header != nil {
			header = sql.NullString{String: *rec.Header, Valid: true}
		}
		if rec.Sequence != nil {
			seq = sql.NullInt64{Int64: int64(*rec.Sequence), Valid: true}
		}
		if _, err := stmt.Exec(rec.Model, header, seq); err != nil {
			return fmt.Errorf("insert %q: %w", rec.Model, err)
		}
	}
	return tx.Commit()
}
