//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"arrival-guide/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jackc/pgx/v5/pgxpool"
)

func setupTestDatabase(t *testing.T) *pgxpool.Pool {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections"),
	}

	postgresC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		postgresC.Terminate(ctx)
	})

	host, err := postgresC.Host(ctx)
	require.NoError(t, err)

	port, err := postgresC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := "postgres://testuser:testpass@" + host + ":" + port.Port() + "/testdb?sslmode=disable"

	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
	})

	_, err = pool.Exec(ctx, Schema)
	require.NoError(t, err)

	return pool
}

func TestPostgresCache_UpsertAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := setupTestDatabase(t)
	cache := NewPostgresCache(pool)
	ctx := context.Background()

	transport := &models.TransportInfo{
		Available: true,
		Options: []models.TransportOption{
			{Type: "metro", Route: "Line 8 to Nuevos Ministerios", Frequency: "every 5 min", Duration: "25 min", Price: "4.50-6.00 EUR"},
		},
		Taxi: &models.TaxiInfo{PriceRange: "30-35 EUR", Duration: "30 min"},
	}
	highway := &models.HighwayInfo{
		Available: true,
		Highways:  []string{"A-2", "M-30"},
		Tolls:     false,
	}

	t.Run("miss on empty table", func(t *testing.T) {
		entry, err := cache.Get(ctx, "Madrid", "ES", "MAD")
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("partial writes merge on the composite key", func(t *testing.T) {
		require.NoError(t, cache.Upsert(ctx, UpsertParams{
			City: "Madrid", CountryCode: "ES", AirportCode: "MAD",
			Transport: transport, TTL: time.Hour,
		}))
		require.NoError(t, cache.Upsert(ctx, UpsertParams{
			City: "Madrid", CountryCode: "ES", AirportCode: "MAD",
			Highway: highway, TTL: time.Hour,
		}))

		entry, err := cache.Get(ctx, "Madrid", "ES", "MAD")
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, transport, entry.Transport)
		assert.Equal(t, highway, entry.Highway)
	})

	t.Run("expired row reads as a miss", func(t *testing.T) {
		require.NoError(t, cache.Upsert(ctx, UpsertParams{
			City: "Sevilla", CountryCode: "ES", AirportCode: "SVQ",
			Transport: transport, TTL: -time.Minute,
		}))

		entry, err := cache.Get(ctx, "Sevilla", "ES", "SVQ")
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("empty airport code key", func(t *testing.T) {
		require.NoError(t, cache.Upsert(ctx, UpsertParams{
			City: "Cuenca", CountryCode: "ES", AirportCode: "",
			Highway: highway, TTL: time.Hour,
		}))

		entry, err := cache.Get(ctx, "Cuenca", "ES", "")
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Nil(t, entry.Transport)
		assert.Equal(t, highway, entry.Highway)
	})
}
