package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
)

const slowQueryThreshold = time.Second

// gormLog forwards gorm's logging to the zap facade.
type gormLog struct {
	log   *logger.Logger
	level gormLogger.LogLevel
	slow  time.Duration
}

var _ gormLogger.Interface = (*gormLog)(nil)

func newGormLog(logg *logger.Logger) *gormLog {
	return &gormLog{
		log:   logger.OrNop(logg).With("component", "gorm"),
		level: gormLogger.Warn,
		slow:  slowQueryThreshold,
	}
}

func (g *gormLog) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *gormLog) Info(_ context.Context, msg string, data ...interface{}) {
	if g.level >= gormLogger.Info {
		g.log.Info(fmt.Sprintf(msg, data...))
	}
}

func (g *gormLog) Warn(_ context.Context, msg string, data ...interface{}) {
	if g.level >= gormLogger.Warn {
		g.log.Warn(fmt.Sprintf(msg, data...))
	}
}

func (g *gormLog) Error(_ context.Context, msg string, data ...interface{}) {
	if g.level >= gormLogger.Error {
		g.log.Error(fmt.Sprintf(msg, data...))
	}
}

// Trace logs failed queries at error level and slow ones at warn level.
// Missing rows are an expected outcome and are not logged.
func (g *gormLog) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && g.level >= gormLogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		g.log.Error("query failed", "error", err, "sql", sql, "rows", rows, "elapsed", elapsed)
	case g.slow > 0 && elapsed > g.slow && g.level >= gormLogger.Warn:
		sql, rows := fc()
		g.log.Warn("slow query", "sql", sql, "rows", rows, "elapsed", elapsed, "threshold", g.slow)
	case g.level >= gormLogger.Info:
		sql, rows := fc()
		g.log.Debug("query", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}
