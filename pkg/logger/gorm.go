package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger sends gorm statements to slog. Each of the five legacy
// databases gets its own instance so lines carry the file they touched.
type GormLogger struct {
	level    gormlogger.LogLevel
	slow     time.Duration
	database string
}

func NewGormLogger(database string, level gormlogger.LogLevel, slow time.Duration) *GormLogger {
	return &GormLogger{level: level, slow: slow, database: database}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.emit(gormlogger.Info, slog.LevelInfo, fmt.Sprintf(msg, data...))
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.emit(gormlogger.Warn, slog.LevelWarn, fmt.Sprintf(msg, data...))
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.emit(gormlogger.Error, slog.LevelError, fmt.Sprintf(msg, data...))
}

// Trace reports failed statements, statements over the slow threshold and,
// at Info verbosity, everything else at debug level.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	took := time.Since(begin)
	statement, affected := fc()
	attrs := []any{
		slog.String("sql", statement),
		slog.Int64("rows", affected),
		slog.Duration("took", took),
	}

	switch {
	// a missing ledger month is a normal lookup outcome
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		l.emit(gormlogger.Error, slog.LevelError, "query failed", append(attrs, slog.Any("error", err))...)
	case l.slow > 0 && took > l.slow:
		l.emit(gormlogger.Warn, slog.LevelWarn, "slow query", attrs...)
	default:
		l.emit(gormlogger.Info, slog.LevelDebug, "query", attrs...)
	}
}

func (l *GormLogger) emit(min gormlogger.LogLevel, level slog.Level, msg string, attrs ...any) {
	if l.level < min {
		return
	}
	Log.Log(context.Background(), level, msg, append([]any{slog.String("db", l.database)}, attrs...)...)
}
