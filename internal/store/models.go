package store

import "github.com/jackc/pgx/v5/pgtype"

type PricingMachineType struct {
	Name     string
	Cpu      int32
	MemoryGb float64
}

type PricingEntry struct {
	Kind   string
	Region string
	Sku    string
	Price  float64
	SizeGb pgtype.Int4
}
