// Package repository persists transport research results so the expensive
// grounded-AI calls run at most once per city within the TTL window.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"arrival-guide/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UpsertParams is one cache write. Nil info fields leave the stored value
// untouched: a later highway write must not erase an earlier transport write
// for the same key.
type UpsertParams struct {
	City        string
	CountryCode string
	AirportCode string
	Transport   *models.TransportInfo
	Highway     *models.HighwayInfo
	TTL         time.Duration
}

// PostgresCache implements the transport cache on PostgreSQL.
type PostgresCache struct {
	db *pgxpool.Pool
}

// NewPostgresCache creates a PostgreSQL-backed transport cache.
func NewPostgresCache(db *pgxpool.Pool) *PostgresCache {
	return &PostgresCache{db: db}
}

// Get returns the cached entry for the composite key, or nil when absent or
// past its expiry. An expired row is indistinguishable from a missing one.
func (r *PostgresCache) Get(ctx context.Context, city, countryCode, airportCode string) (*models.TransportCacheEntry, error) {
	sql := `
		SELECT city, country_code, airport_code, transport_info, highway_info, expires_at
		FROM transport_cache
		WHERE city = $1 AND country_code = $2 AND airport_code = $3
		  AND expires_at > now()
	`

	var entry models.TransportCacheEntry
	var transportJSON, highwayJSON []byte
	err := r.db.QueryRow(ctx, sql, city, countryCode, airportCode).Scan(
		&entry.City,
		&entry.CountryCode,
		&entry.AirportCode,
		&transportJSON,
		&highwayJSON,
		&entry.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to read transport cache: %w", err)
	}

	if transportJSON != nil {
		entry.Transport = &models.TransportInfo{}
		if err := json.Unmarshal(transportJSON, entry.Transport); err != nil {
			return nil, fmt.Errorf("repository: failed to decode transport info: %w", err)
		}
	}
	if highwayJSON != nil {
		entry.Highway = &models.HighwayInfo{}
		if err := json.Unmarshal(highwayJSON, entry.Highway); err != nil {
			return nil, fmt.Errorf("repository: failed to decode highway info: %w", err)
		}
	}

	return &entry, nil
}

// Upsert writes a research result under the composite key, merging non-nil
// fields into an existing row and refreshing its expiry. Concurrent writers
// for the same key may race; last-writer-wins is acceptable since content
// computed for the same key is equivalent.
func (r *PostgresCache) Upsert(ctx context.Context, params UpsertParams) error {
	transportJSON, highwayJSON, err := encodeInfo(params)
	if err != nil {
		return err
	}

	sql := `
		INSERT INTO transport_cache (city, country_code, airport_code, transport_info, highway_info, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (city, country_code, airport_code) DO UPDATE SET
			transport_info = COALESCE(EXCLUDED.transport_info, transport_cache.transport_info),
			highway_info   = COALESCE(EXCLUDED.highway_info, transport_cache.highway_info),
			expires_at     = EXCLUDED.expires_at
	`

	_, err = r.db.Exec(ctx, sql,
		params.City, params.CountryCode, params.AirportCode,
		transportJSON, highwayJSON, time.Now().Add(params.TTL),
	)
	if err != nil {
		return fmt.Errorf("repository: failed to upsert transport cache: %w", err)
	}
	return nil
}

func encodeInfo(params UpsertParams) (transportJSON, highwayJSON []byte, err error) {
	if params.Transport != nil {
		transportJSON, err = json.Marshal(params.Transport)
		if err != nil {
			return nil, nil, fmt.Errorf("repository: failed to encode transport info: %w", err)
		}
	}
	if params.Highway != nil {
		highwayJSON, err = json.Marshal(params.Highway)
		if err != nil {
			return nil, nil, fmt.Errorf("repository: failed to encode highway info: %w", err)
		}
	}
	return transportJSON, highwayJSON, nil
}

// Schema is the DDL for the cache table, applied by deployments and the
// integration test.
const Schema = `
CREATE TABLE IF NOT EXISTS transport_cache (
	city           VARCHAR(255) NOT NULL,
	country_code   VARCHAR(2)   NOT NULL,
	airport_code   VARCHAR(3)   NOT NULL DEFAULT '',
	transport_info JSONB,
	highway_info   JSONB,
	expires_at     TIMESTAMPTZ  NOT NULL,
	PRIMARY KEY (city, country_code, airport_code)
);
`
