package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/lzjever/cloudenv/internal/store"
)

// Azure disk tiers share the entries table; the size lives in size_gb.
const kindAzureDiskTier = "azure_disk_tier"

type Config struct {
	Source           string        `envconfig:"PRICING_SOURCE" default:"static"`
	DBDSN            string        `envconfig:"PRICING_DB_DSN"`
	SeedIfEmpty      bool          `envconfig:"PRICING_SEED_IF_EMPTY" default:"true"`
	DBMaxConns       int32         `envconfig:"PRICING_DB_MAX_CONNS" default:"4"`
	DBMaxConnIdle    time.Duration `envconfig:"PRICING_DB_MAX_CONN_IDLE" default:"5m"`
	DBStartupTimeout time.Duration `envconfig:"PRICING_DB_STARTUP_TIMEOUT" default:"10s"`
}

// PoolConfig maps the pricing settings onto the store pool.
func (c Config) PoolConfig() store.PoolConfig {
	return store.PoolConfig{
		DSN:             c.DBDSN,
		MaxConns:        c.DBMaxConns,
		MaxConnIdleTime: c.DBMaxConnIdle,
		PingTimeout:     c.DBStartupTimeout,
	}
}

// PostgresSource reads the tables from the pricing schema.
type PostgresSource struct {
	queries *store.Queries
	seed    bool
	log     *zap.Logger
}

func NewPostgresSource(queries *store.Queries, seedIfEmpty bool, log *zap.Logger) *PostgresSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostgresSource{queries: queries, seed: seedIfEmpty, log: log}
}

func (s *PostgresSource) Load(ctx context.Context) (*Tables, error) {
	if s.seed {
		n, err := s.queries.CountPricingEntries(ctx)
		if err != nil {
			return nil, fmt.Errorf("count pricing entries: %w", err)
		}
		if n == 0 {
			s.log.Info("pricing tables empty, seeding built-in prices")
			if err := Seed(ctx, s.queries, Static()); err != nil {
				return nil, err
			}
		}
	}

	machines, err := s.queries.ListMachineTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list machine types: %w", err)
	}
	entries, err := s.queries.ListPricingEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pricing entries: %w", err)
	}

	b := NewBuilder()
	for _, m := range machines {
		b.AddMachineType(MachineType{Name: m.Name, CPU: int(m.Cpu), MemoryGB: m.MemoryGb})
	}
	for _, e := range entries {
		if e.Kind == kindAzureDiskTier {
			if !e.SizeGb.Valid {
				return nil, fmt.Errorf("azure disk tier %q has no size", e.Sku)
			}
			b.AddAzureDiskTier(AzureDiskTier{Name: e.Sku, SizeGB: int(e.SizeGb.Int32)})
			continue
		}
		b.Add(Entry{Kind: Kind(e.Kind), Region: e.Region, SKU: e.Sku, Price: e.Price})
	}
	t := b.Build()
	s.log.Info("pricing tables loaded", zap.Int("machine_types", len(machines)), zap.Int("entries", len(entries)))
	return t, nil
}

// Seed writes every row of t into the pricing schema.
func Seed(ctx context.Context, q *store.Queries, t *Tables) error {
	for _, m := range t.MachineTypes() {
		if err := q.UpsertMachineType(ctx, store.UpsertMachineTypeParams{
			Name:     m.Name,
			Cpu:      int32(m.CPU),
			MemoryGb: m.MemoryGB,
		}); err != nil {
			return fmt.Errorf("seed machine type %s: %w", m.Name, err)
		}
	}
	for _, e := range t.Entries() {
		if err := q.UpsertPricingEntry(ctx, store.UpsertPricingEntryParams{
			Kind:   string(e.Kind),
			Region: e.Region,
			Sku:    e.SKU,
			Price:  e.Price,
		}); err != nil {
			return fmt.Errorf("seed %s/%s/%s: %w", e.Kind, e.Region, e.SKU, err)
		}
	}
	for _, tier := range t.AzureDiskTiers() {
		if err := q.UpsertPricingEntry(ctx, store.UpsertPricingEntryParams{
			Kind:   kindAzureDiskTier,
			Sku:    tier.Name,
			SizeGb: pgtype.Int4{Int32: int32(tier.SizeGB), Valid: true},
		}); err != nil {
			return fmt.Errorf("seed azure disk tier %s: %w", tier.Name, err)
		}
	}
	return nil
}
