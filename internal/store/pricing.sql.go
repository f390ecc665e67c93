package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listMachineTypes = `-- name: ListMachineTypes :many
SELECT name, cpu, memory_gb FROM cloudenv.pricing_machine_types ORDER BY name
`

func (q *Queries) ListMachineTypes(ctx context.Context) ([]PricingMachineType, error) {
	rows, err := q.db.Query(ctx, listMachineTypes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PricingMachineType
	for rows.Next() {
		var i PricingMachineType
		if err := rows.Scan(&i.Name, &i.Cpu, &i.MemoryGb); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPricingEntries = `-- name: ListPricingEntries :many
SELECT kind, region, sku, price, size_gb FROM cloudenv.pricing_entries ORDER BY kind, region, sku
`

func (q *Queries) ListPricingEntries(ctx context.Context) ([]PricingEntry, error) {
	rows, err := q.db.Query(ctx, listPricingEntries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PricingEntry
	for rows.Next() {
		var i PricingEntry
		if err := rows.Scan(&i.Kind, &i.Region, &i.Sku, &i.Price, &i.SizeGb); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countPricingEntries = `-- name: CountPricingEntries :one
SELECT count(*) FROM cloudenv.pricing_entries
`

func (q *Queries) CountPricingEntries(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countPricingEntries)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const upsertMachineType = `-- name: UpsertMachineType :exec
INSERT INTO cloudenv.pricing_machine_types (name, cpu, memory_gb)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET cpu = EXCLUDED.cpu, memory_gb = EXCLUDED.memory_gb
`

type UpsertMachineTypeParams struct {
	Name     string
	Cpu      int32
	MemoryGb float64
}

func (q *Queries) UpsertMachineType(ctx context.Context, arg UpsertMachineTypeParams) error {
	_, err := q.db.Exec(ctx, upsertMachineType, arg.Name, arg.Cpu, arg.MemoryGb)
	return err
}

const upsertPricingEntry = `-- name: UpsertPricingEntry :exec
INSERT INTO cloudenv.pricing_entries (kind, region, sku, price, size_gb)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (kind, region, sku) DO UPDATE SET price = EXCLUDED.price, size_gb = EXCLUDED.size_gb
`

type UpsertPricingEntryParams struct {
	Kind   string
	Region string
	Sku    string
	Price  float64
	SizeGb pgtype.Int4
}

func (q *Queries) UpsertPricingEntry(ctx context.Context, arg UpsertPricingEntryParams) error {
	_, err := q.db.Exec(ctx, upsertPricingEntry, arg.Kind, arg.Region, arg.Sku, arg.Price, arg.SizeGb)
	return err
}
