package logs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	glogger "gorm.io/gorm/logger"

	"Regnum/modules/kit/tracex"
)

// GormLogger 把 GORM 的日志接到 zap：SQL 错误 ERROR，慢查询 WARN，其余 Info 级别下 DEBUG。
type GormLogger struct {
	log           *zap.Logger
	level         glogger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger l 为空时用全局 logger。
func NewGormLogger(l *zap.Logger, level glogger.LogLevel, slowThreshold time.Duration) *GormLogger {
	if l == nil {
		l = Logger()
	}
	return &GormLogger{log: l.Named("gorm"), level: level, slowThreshold: slowThreshold}
}

// LogMode 返回副本，gorm.Session 会在共享的 logger 上调用它。
func (l *GormLogger) LogMode(level glogger.LogLevel) glogger.Interface {
	next := *l
	next.level = level
	return &next
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= glogger.Info {
		l.with(ctx).Info(msg, zap.Any("data", data))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= glogger.Warn {
		l.with(ctx).Warn(msg, zap.Any("data", data))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= glogger.Error {
		l.with(ctx).Error(msg, zap.Any("data", data))
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= glogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	log := l.with(ctx).With(
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	)

	switch {
	case err != nil && !errors.Is(err, glogger.ErrRecordNotFound):
		log.Error("sql error", zap.Error(err))
	case l.slowThreshold > 0 && elapsed > l.slowThreshold:
		log.Warn("slow query", zap.Duration("threshold", l.slowThreshold))
	case l.level >= glogger.Info:
		log.Debug("sql")
	}
}

func (l *GormLogger) with(ctx context.Context) *zap.Logger {
	if tid, ok := tracex.TraceIDFrom(ctx); ok {
		return l.log.With(zap.String("trace_id", tid))
	}
	return l.log
}

var _ glogger.Interface = (*GormLogger)(nil)
