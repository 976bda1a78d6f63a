package database_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rakeshsingh12700/dearstudent62-storefront/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := database.PostgresConfig{User: "store", Password: "pw", DBName: "storefront"}

	assert.Equal(t,
		"host=localhost user=store password=pw dbname=storefront port=5432 sslmode=disable TimeZone=Asia/Kolkata",
		cfg.DSN())

	cfg.Host, cfg.Port, cfg.SSLMode, cfg.TimeZone = "db", "6543", "require", "UTC"
	assert.Equal(t,
		"host=db user=store password=pw dbname=storefront port=6543 sslmode=require TimeZone=UTC",
		cfg.DSN())
}

func TestConnectPostgres_IncompleteConfig(t *testing.T) {
	_, err := database.ConnectPostgres(database.PostgresConfig{User: "store"}, zap.NewNop())
	assert.EqualError(t, err, "postgres config incomplete")
}

func TestClose(t *testing.T) {
	assert.NoError(t, database.Close(nil))

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectClose()
	assert.NoError(t, database.Close(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := database.NewRedisClient(context.Background(), "not-a-url", zap.NewNop())
	assert.ErrorContains(t, err, "invalid Redis URL")
}
