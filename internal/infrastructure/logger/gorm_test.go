package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level), logs
}

func queryFunc(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_TraceQueryAtInfoLevel(t *testing.T) {
	gl, logs := newObservedGormLogger(gormlogger.Info)

	gl.Trace(context.Background(), time.Now(), queryFunc("SELECT * FROM wallets", 3), nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "sql query", entries[0].Message)
	assert.Equal(t, "SELECT * FROM wallets", entries[0].ContextMap()["sql"])
	assert.Equal(t, int64(3), entries[0].ContextMap()["rows"])
}

func TestGormLogger_TraceError(t *testing.T) {
	gl, logs := newObservedGormLogger(gormlogger.Error)

	gl.Trace(context.Background(), time.Now(), queryFunc("UPDATE wallets SET balance = $1", 0), errors.New("deadlock detected"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "sql error", entries[0].Message)
}

func TestGormLogger_RecordNotFoundIsSilent(t *testing.T) {
	gl, logs := newObservedGormLogger(gormlogger.Error)

	gl.Trace(context.Background(), time.Now(), queryFunc("SELECT * FROM shipment_orders", 0), gormlogger.ErrRecordNotFound)

	assert.Zero(t, logs.Len())
}

func TestGormLogger_SlowQueryWarns(t *testing.T) {
	gl, logs := newObservedGormLogger(gormlogger.Warn)

	begin := time.Now().Add(-2 * slowQueryThreshold)
	gl.Trace(context.Background(), begin, queryFunc("SELECT * FROM wallet_transactions", 500), nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "slow sql", entries[0].Message)
}

func TestGormLogger_SilentLevelDropsEverything(t *testing.T) {
	gl, logs := newObservedGormLogger(gormlogger.Silent)

	gl.Trace(context.Background(), time.Now(), queryFunc("SELECT 1", 1), errors.New("ignored"))

	assert.Zero(t, logs.Len())
}

func TestGormLogger_TraceCarriesRequestID(t *testing.T) {
	gl, logs := newObservedGormLogger(gormlogger.Info)

	ctx := ContextWithRequestID(context.Background(), "req-sql")
	gl.Trace(ctx, time.Now(), queryFunc("SELECT 1", 1), nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-sql", entries[0].ContextMap()["request_id"])
}

func TestGormLogger_LogModeReturnsCopy(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Error)

	quieter := gl.LogMode(gormlogger.Silent)
	assert.NotSame(t, gl, quieter)
	assert.Equal(t, gormlogger.Error, gl.level)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("unknown"))
}
