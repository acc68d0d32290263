package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jack-barr3tt/board-proxy/src/common/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const PostgresSource = "postgres"

const createStationsTable = `
	CREATE TABLE IF NOT EXISTS stations (
		position INTEGER PRIMARY KEY,
		country  TEXT NOT NULL,
		code     TEXT NOT NULL,
		name     TEXT NOT NULL,
		name_en  TEXT,
		city     TEXT NOT NULL,
		slug     TEXT NOT NULL UNIQUE,
		type     TEXT NOT NULL,
		url      TEXT NOT NULL
	)
`

// LoadPostgres reads the stations table in position order and validates it
// like a stations file.
func LoadPostgres(ctx context.Context, pg *pgxpool.Pool) (*Directory, error) {
	rows, err := pg.Query(ctx, `
		SELECT country, code, name, name_en, city, slug, type, url
		FROM stations
		ORDER BY position
	`)
	if err != nil {
		return nil, &DataLoadError{Source: PostgresSource, Err: err}
	}
	defer rows.Close()

	var stations []types.Station
	for rows.Next() {
		var st types.Station
		var nameEn sql.NullString
		var providerType string

		if err := rows.Scan(&st.Country, &st.Code, &st.Name, &nameEn, &st.City, &st.Slug, &providerType, &st.URL); err != nil {
			return nil, &DataLoadError{Source: PostgresSource, Err: err}
		}
		if nameEn.Valid {
			st.NameEn = nameEn.String
		}
		st.Type = types.ProviderType(providerType)
		stations = append(stations, st)
	}

	if err = rows.Err(); err != nil {
		return nil, &DataLoadError{Source: PostgresSource, Err: err}
	}

	if err := Validate(stations); err != nil {
		return nil, &DataLoadError{Source: PostgresSource, Err: err}
	}

	return NewDirectory(stations, PostgresSource), nil
}

// SyncStations replaces the stations table contents in a single transaction.
func SyncStations(ctx context.Context, pg *pgxpool.Pool, stations []types.Station) error {
	if err := Validate(stations); err != nil {
		return &DataLoadError{Source: "sync input", Err: err}
	}

	tx, err := pg.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, createStationsTable); err != nil {
		return fmt.Errorf("create stations table: %w", err)
	}

	if _, err = tx.Exec(ctx, "TRUNCATE TABLE stations"); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, st := range stations {
		var nameEn *string
		if st.NameEn != "" {
			nameEn = &st.NameEn
		}
		batch.Queue(`
			INSERT INTO stations (position, country, code, name, name_en, city, slug, type, url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, i, st.Country, st.Code, st.Name, nameEn, st.City, st.Slug, string(st.Type), st.URL)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert stations: %w", err)
	}

	return tx.Commit(ctx)
}
