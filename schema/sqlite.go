package schema

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLite introspects tables through the sqlite PRAGMA metadata views.
type SQLite struct{}

// Columns reads PRAGMA table_info. An absent table yields zero rows.
func (SQLite) Columns(ctx context.Context, db *sql.DB, table string) ([]ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var (
			cid          int
			name         string
			columnType   string
			notNull      int
			defaultValue sql.NullString
			pk           int
		)
		if err := rows.Scan(&cid, &name, &columnType, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, ColumnInfo{
			Name:       name,
			Type:       columnType,
			NotNull:    notNull != 0,
			PrimaryKey: pk,
		})
	}

	return columns, rows.Err()
}

// UniqueColumns reads PRAGMA index_list and index_info, collecting every
// column covered by a single-column unique index. Primary-key indexes
// count: a unique column constraint and a single-column primary key are
// both acceptable uniqueness guarantees.
func (SQLite) UniqueColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%q)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uniqueIndexes []string
	for rows.Next() {
		var (
			seq     int
			name    string
			unique  int
			origin  string
			partial int
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}
		if unique != 0 {
			uniqueIndexes = append(uniqueIndexes, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	unique := make(map[string]bool)
	for _, index := range uniqueIndexes {
		columns, err := indexColumns(ctx, db, index)
		if err != nil {
			return nil, err
		}
		if len(columns) == 1 {
			unique[columns[0]] = true
		}
	}

	return unique, nil
}

func indexColumns(ctx context.Context, db *sql.DB, index string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%q)", index))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			seqno int
			cid   int
			name  sql.NullString
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		if name.Valid {
			columns = append(columns, name.String)
		}
	}

	return columns, rows.Err()
}

// ForeignKeys reads PRAGMA foreign_key_list. Composite foreign keys appear
// as multiple rows sharing an id; only single-column keys are reported
// since the logical schema declares no composite ones.
func (SQLite) ForeignKeys(ctx context.Context, db *sql.DB, table string) ([]ForeignKeyInfo, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%q)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []ForeignKeyInfo
	for rows.Next() {
		var (
			id          int
			seq         int
			targetTable string
			from        string
			to          sql.NullString
			onUpdate    string
			onDelete    string
			match       string
		)
		if err := rows.Scan(&id, &seq, &targetTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		keys = append(keys, ForeignKeyInfo{
			Column:       from,
			TargetTable:  targetTable,
			TargetColumn: to.String,
		})
	}

	return keys, rows.Err()
}

var _ Dialect = SQLite{}
