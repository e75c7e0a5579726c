package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terrasift/terrasift/internal/site"
)

// PostgresStore loads the site population from the terrasift_sites table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const siteColumns = `site_id, biome, hilliness, temperature, rainfall, elevation, latitude,
	has_river, has_coast, has_road, has_cave, stone_types, habitable`

// LoadSites streams the full dataset. Row order is stable (ordered by id)
// so repeated loads produce identical evaluations.
func (s *PostgresStore) LoadSites(ctx context.Context) ([]site.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+siteColumns+`
		FROM terrasift_sites
		ORDER BY site_id`)
	if err != nil {
		return nil, fmt.Errorf("query sites: %w", err)
	}
	defer rows.Close()

	var records []site.Record
	for rows.Next() {
		var r site.Record
		var hilliness int
		if err := rows.Scan(
			&r.ID, &r.Attrs.Biome, &hilliness,
			&r.Attrs.Temperature, &r.Attrs.Rainfall, &r.Attrs.Elevation, &r.Attrs.Latitude,
			&r.Attrs.HasRiver, &r.Attrs.HasCoast, &r.Attrs.HasRoad, &r.Attrs.HasCave,
			&r.Attrs.StoneTypes, &r.Attrs.Habitable,
		); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		r.Attrs.Hilliness = site.Hilliness(hilliness)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read sites: %w", err)
	}
	return records, nil
}
