// Package schema validates that live database tables structurally match a
// declared logical schema before the authentication core operates on them.
//
// Expectations are declarative table descriptors; introspection is dialect
// specific and hidden behind [Dialect]. Validation short-circuits at the
// first mismatch and returns a [ValidationError] whose message format is
// part of the contract: external tooling matches on the exact wording.
package schema

import (
	"context"
	"database/sql"
	"fmt"
)

// Column describes one expected column.
type Column struct {
	Name       string
	Type       string
	PrimaryKey bool
	NotNull    bool
	Unique     bool
}

// ForeignKey describes one expected single-column foreign key.
type ForeignKey struct {
	Column       string
	TargetTable  string
	TargetColumn string
}

// Table is the logical schema of one table.
type Table struct {
	Name        string
	Columns     []Column
	ForeignKeys []ForeignKey
}

// ColumnInfo is the dialect-neutral description of one physical column.
// PrimaryKey is the 1-based ordinal of the column within the primary key,
// or zero when the column is not part of it.
type ColumnInfo struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey int
}

// ForeignKeyInfo is the dialect-neutral description of one physical
// single-column foreign key.
type ForeignKeyInfo struct {
	Column       string
	TargetTable  string
	TargetColumn string
}

// Dialect introspects physical tables of one storage engine.
type Dialect interface {
	// Columns returns the physical columns of table, empty when the table
	// does not exist.
	Columns(ctx context.Context, db *sql.DB, table string) ([]ColumnInfo, error)
	// UniqueColumns returns the set of columns covered by a single-column
	// unique index (including primary-key indexes).
	UniqueColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error)
	// ForeignKeys returns the physical foreign keys declared on table.
	ForeignKeys(ctx context.Context, db *sql.DB, table string) ([]ForeignKeyInfo, error)
}

// ValidationError reports the first structural mismatch found.
type ValidationError struct {
	Table   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks each table in declaration order and returns the first
// violation found, or nil when every table matches its descriptor.
func Validate(ctx context.Context, db *sql.DB, dialect Dialect, tables []Table) error {
	for _, table := range tables {
		if err := validateTable(ctx, db, dialect, table); err != nil {
			return err
		}
	}
	return nil
}

func validateTable(ctx context.Context, db *sql.DB, dialect Dialect, table Table) error {
	columns, err := dialect.Columns(ctx, db, table.Name)
	if err != nil {
		return fmt.Errorf("describe columns of %s: %w", table.Name, err)
	}
	if len(columns) == 0 {
		return &ValidationError{
			Table:   table.Name,
			Message: fmt.Sprintf("%s table for SLIP does not exist", table.Name),
		}
	}

	byName := make(map[string]ColumnInfo, len(columns))
	for _, column := range columns {
		byName[column.Name] = column
	}

	unique, err := dialect.UniqueColumns(ctx, db, table.Name)
	if err != nil {
		return fmt.Errorf("describe indexes of %s: %w", table.Name, err)
	}

	for _, expected := range table.Columns {
		actual, ok := byName[expected.Name]
		if !ok {
			return &ValidationError{
				Table:   table.Name,
				Message: fmt.Sprintf("%s table must contain a column with name %q", table.Name, expected.Name),
			}
		}
		if actual.Type != expected.Type {
			return &ValidationError{
				Table:   table.Name,
				Message: fmt.Sprintf("%s table must contain a column %q with type %q", table.Name, expected.Name, expected.Type),
			}
		}
		if expected.PrimaryKey && actual.PrimaryKey == 0 {
			return &ValidationError{
				Table:   table.Name,
				Message: fmt.Sprintf("%s table must contain a column %q as primary key", table.Name, expected.Name),
			}
		}
		if expected.NotNull && !actual.NotNull {
			return &ValidationError{
				Table:   table.Name,
				Message: fmt.Sprintf("%s table must contain a column %q not nullable", table.Name, expected.Name),
			}
		}
		if expected.Unique && !unique[expected.Name] {
			return &ValidationError{
				Table:   table.Name,
				Message: fmt.Sprintf("%s table must contain a column %q unique", table.Name, expected.Name),
			}
		}
	}

	if len(table.ForeignKeys) == 0 {
		return nil
	}

	physical, err := dialect.ForeignKeys(ctx, db, table.Name)
	if err != nil {
		return fmt.Errorf("describe foreign keys of %s: %w", table.Name, err)
	}

	for _, expected := range table.ForeignKeys {
		var match *ForeignKeyInfo
		for i := range physical {
			if physical[i].Column == expected.Column {
				match = &physical[i]
				break
			}
		}
		if match == nil {
			return &ValidationError{
				Table:   table.Name,
				Message: fmt.Sprintf("%s table should have a foreign key %q", table.Name, expected.Column),
			}
		}
		if match.TargetTable != expected.TargetTable || match.TargetColumn != expected.TargetColumn {
			return &ValidationError{
				Table: table.Name,
				Message: fmt.Sprintf(
					"foreign key %q in %s table should target %q column from the %q table",
					expected.Column, table.Name, expected.TargetColumn, expected.TargetTable,
				),
			}
		}
	}

	return nil
}
