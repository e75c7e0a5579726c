// seed_sites.go — standalone script to fill the terrasift_sites table with a
// synthetic population for development.
//
// Usage:
//
//	go run scripts/seed_sites.go -db postgres://localhost/terrasift -count 150000 -seed 1
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terrasift/terrasift/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS terrasift_sites (
	site_id     BIGINT PRIMARY KEY,
	biome       TEXT NOT NULL,
	hilliness   INT NOT NULL,
	temperature DOUBLE PRECISION NOT NULL,
	rainfall    DOUBLE PRECISION NOT NULL,
	elevation   DOUBLE PRECISION NOT NULL,
	latitude    DOUBLE PRECISION NOT NULL,
	has_river   BOOLEAN NOT NULL,
	has_coast   BOOLEAN NOT NULL,
	has_road    BOOLEAN NOT NULL,
	has_cave    BOOLEAN NOT NULL,
	stone_types TEXT[] NOT NULL,
	habitable   BOOLEAN NOT NULL
)`

func main() {
	dbURL := flag.String("db", "postgres://localhost/terrasift", "database URL")
	count := flag.Int("count", 150000, "number of sites to generate")
	seed := flag.Int64("seed", 1, "generator seed")
	truncate := flag.Bool("truncate", false, "clear the table before seeding")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, *dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("create table: %v", err)
	}
	if *truncate {
		if _, err := pool.Exec(ctx, "TRUNCATE terrasift_sites"); err != nil {
			log.Fatalf("truncate: %v", err)
		}
	}

	records := store.GenerateSites(*count, *seed)
	start := time.Now()

	const batch = 1000
	inserted := 0
	for lo := 0; lo < len(records); lo += batch {
		hi := lo + batch
		if hi > len(records) {
			hi = len(records)
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			log.Fatalf("begin: %v", err)
		}
		for _, r := range records[lo:hi] {
			a := r.Attrs
			_, err := tx.Exec(ctx, `
				INSERT INTO terrasift_sites (
					site_id, biome, hilliness, temperature, rainfall, elevation, latitude,
					has_river, has_coast, has_road, has_cave, stone_types, habitable
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
				ON CONFLICT (site_id) DO NOTHING`,
				r.ID, a.Biome, int(a.Hilliness), a.Temperature, a.Rainfall, a.Elevation, a.Latitude,
				a.HasRiver, a.HasCoast, a.HasRoad, a.HasCave, a.StoneTypes, a.Habitable,
			)
			if err != nil {
				log.Fatalf("insert site %d: %v", r.ID, err)
			}
		}
		if err := tx.Commit(ctx); err != nil {
			log.Fatalf("commit: %v", err)
		}
		inserted += hi - lo
		if inserted%10000 == 0 {
			log.Printf("seeded %d/%d sites", inserted, len(records))
		}
	}

	log.Printf("done: %d sites in %s", inserted, time.Since(start).Round(time.Millisecond))
}
