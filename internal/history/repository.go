package history

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/domain"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/listing"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations returns the schema migrations of the history store.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// ErrDisabled is reported when no history store is configured.
var ErrDisabled = errors.New("lookup history is disabled")

const (
	defaultListLimit = 30
	maxListLimit     = 365
)

// Record is one stored lookup.
type Record struct {
	ID        uuid.UUID                `json:"id"`
	URL       string                   `json:"url"`
	CheckIn   string                   `json:"checkIn"`
	CheckOut  string                   `json:"checkOut"`
	Currency  string                   `json:"currency"`
	Result    domain.AggregatedListing `json:"result"`
	CreatedAt time.Time                `json:"createdAt"`
}

// Repository is an append-only log of successful lookups.
type Repository interface {
	Save(ctx context.Context, req listing.Request, result domain.AggregatedListing) error
	List(ctx context.Context, limit int) ([]Record, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL history repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Save(ctx context.Context, req listing.Request, result domain.AggregatedListing) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding lookup result: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO listing_lookups (id, url, check_in, check_out, currency, result)
		 VALUES ($1, $2, $3::date, $4::date, $5, $6::jsonb)`,
		uuid.New(), req.URL, req.CheckIn, req.CheckOut, req.Currency, data)
	if err != nil {
		return fmt.Errorf("saving lookup: %w", err)
	}
	return nil
}

func (r *PgRepository) List(ctx context.Context, limit int) ([]Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, url, to_char(check_in, 'YYYY-MM-DD'), to_char(check_out, 'YYYY-MM-DD'),
		        currency, result, created_at
		 FROM listing_lookups
		 ORDER BY created_at DESC
		 LIMIT $1`, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing lookups: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec  Record
			data []byte
		)
		if err := rows.Scan(&rec.ID, &rec.URL, &rec.CheckIn, &rec.CheckOut, &rec.Currency, &data, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning lookup: %w", err)
		}
		if err := json.Unmarshal(data, &rec.Result); err != nil {
			return nil, fmt.Errorf("decoding lookup %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lookups: %w", err)
	}
	return records, nil
}

// ClampLimit bounds a requested page size to [1, 365], defaulting to 30.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}
