package store

import (
	"context"
	"fmt"
)

const schema = `
CREATE SCHEMA IF NOT EXISTS cloudenv;
CREATE TABLE IF NOT EXISTS cloudenv.pricing_machine_types (
	name TEXT PRIMARY KEY,
	cpu INT NOT NULL,
	memory_gb DOUBLE PRECISION NOT NULL
);
CREATE TABLE IF NOT EXISTS cloudenv.pricing_entries (
	kind TEXT NOT NULL,
	region TEXT NOT NULL DEFAULT '',
	sku TEXT NOT NULL DEFAULT '',
	price DOUBLE PRECISION NOT NULL CHECK (price >= 0),
	size_gb INT,
	PRIMARY KEY (kind, region, sku)
);
`

// Migrate creates the pricing schema if it does not exist.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
