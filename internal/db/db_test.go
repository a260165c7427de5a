package db

import (
	"fmt"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"

	"equipment-ledger-backend/config"
	"equipment-ledger-backend/internal/model"
)

func TestInit_SQLiteMigratesDevices(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		AutoMigrate:  true,
		LogLevel:     "silent",
	}

	gormDB, err := Init(cfg, zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.True(t, gormDB.Migrator().HasTable(&model.Device{}))
	assert.True(t, gormDB.Migrator().HasColumn(&model.Device{}, "storage_at"))
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestInit_RejectsUnknownDriver(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "oracle", DSN: "x"}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestInit_RequiresDSN(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "mysql"}, zap.NewNop())
	assert.ErrorContains(t, err, "dsn is empty")
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, gormLogLevel("silent"))
	assert.Equal(t, logger.Info, gormLogLevel("INFO"))
	assert.Equal(t, logger.Warn, gormLogLevel(""))
}

func TestMySQLDSN_PinsUTC(t *testing.T) {
	dsn, err := mysqlDSN("ledger:ledger@tcp(127.0.0.1:3306)/ledger?charset=utf8mb4&parseTime=false&loc=Local")
	require.NoError(t, err)

	parsed, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, parsed.Loc)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, "ledger", parsed.DBName)
	assert.Equal(t, "127.0.0.1:3306", parsed.Addr)
	assert.Equal(t, "utf8mb4", parsed.Params["charset"])
}

func TestInit_RejectsMalformedMySQLDSN(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "mysql", DSN: "ledger@tcp(127.0.0.1:3306"}, zap.NewNop())
	assert.ErrorContains(t, err, "invalid mysql dsn")
}
