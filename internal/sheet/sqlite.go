package sheet

import (
	"database/sql"
	"fmt"

	"framealign/framework"

	_ "modernc.org/sqlite"
)

// A SQLite workbook keeps every non-blank cell as one row of the cells table.

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sheets (
	name     TEXT PRIMARY KEY,
	position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS cells (
	sheet   TEXT NOT NULL,
	row_num INTEGER NOT NULL,
	col_num INTEGER NOT NULL,
	kind    INTEGER NOT NULL,
	text    TEXT NOT NULL DEFAULT '',
	number  REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (sheet, row_num, col_num)
);`

func openSQLite(path string) (*memBook, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite workbook: %w", err)
	}
	defer db.Close()
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("init sqlite workbook: %w", err)
	}

	book := newMemBook(saveSQLite)
	rows, err := db.Query(`SELECT name FROM sheets ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sheet: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	rows.Close()

	for _, name := range names {
		book.addSheet(name, nil)
	}
	cells, err := db.Query(`SELECT sheet, row_num, col_num, kind, text, number FROM cells ORDER BY sheet, row_num, col_num`)
	if err != nil {
		return nil, fmt.Errorf("load cells: %w", err)
	}
	defer cells.Close()
	for cells.Next() {
		var (
			sheet    string
			row, col int
			kind     int
			text     string
			number   float64
		)
		if err := cells.Scan(&sheet, &row, &col, &kind, &text, &number); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		if !book.HasSheet(sheet) {
			book.addSheet(sheet, nil)
		}
		v := framework.Value{Kind: framework.ValueKind(kind), Text: text, Number: number}
		if err := book.SetCell(sheet, row, col, v); err != nil {
			return nil, err
		}
	}
	if err := cells.Err(); err != nil {
		return nil, fmt.Errorf("load cells: %w", err)
	}
	return book, nil
}

func saveSQLite(b *memBook, path string) (err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite workbook: %w", err)
	}
	defer db.Close()
	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("init sqlite workbook: %w", err)
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.Exec(`DELETE FROM cells`); err != nil {
		return fmt.Errorf("clear cells: %w", err)
	}
	if _, err = tx.Exec(`DELETE FROM sheets`); err != nil {
		return fmt.Errorf("clear sheets: %w", err)
	}
	insertCell, err := tx.Prepare(`INSERT INTO cells (sheet, row_num, col_num, kind, text, number) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer insertCell.Close()
	for pos, name := range b.names {
		if _, err = tx.Exec(`INSERT INTO sheets (name, position) VALUES (?, ?)`, name, pos); err != nil {
			return fmt.Errorf("insert sheet %s: %w", name, err)
		}
		for r, row := range b.sheets[name] {
			for c, v := range row {
				if v.Kind == framework.KindBlank {
					continue
				}
				if _, err = insertCell.Exec(name, r+1, c+1, int(v.Kind), v.Text, v.Number); err != nil {
					return fmt.Errorf("insert cell %s!R%dC%d: %w", name, r+1, c+1, err)
				}
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}
