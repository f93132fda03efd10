package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema
// creation. Each migration must be idempotent. Append new migrations at
// the end.
var migrations = []string{
	// Migration 1: Backfill the explicit category tag on documents created
	// before it existed. Category used to be inferred from the presence of
	// a quantity field, which misclassifies a material with no stock left.
	`UPDATE documents
	 SET fields = json_set(fields, '$.category',
	     CASE WHEN json_extract(fields, '$.quantity') IS NULL
	          THEN 'costumes' ELSE 'materials' END)
	 WHERE json_extract(fields, '$.category') IS NULL`,
}

// Migrate ensures the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
