package logs

import (
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"Regnum/internal/shared/config"
)

var (
	logger      = zap.NewNop()
	atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init 替换全局 logger：控制台彩色输出，配置了 file_dir 时另写一份 JSON 到滚动文件。
// 级别用 AtomicLevel，配置热更新只需要 SetLevel。
func Init(appName string, cfg config.LogConfig) error {
	atomicLevel.SetLevel(parseLevel(cfg.Level))

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Dev {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	}
	next := zap.New(newCore(cfg), opts...).Named(appName)

	_ = logger.Sync()
	logger = next
	return nil
}

// 例：2026-01-28T10:00:00.000+0800  INFO  game  engine started  app/engine.go:42
func encoderConfig(level zapcore.LevelEncoder) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    level,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// newCore 文件和控制台分成两个 core，颜色转义不会进日志文件。
func newCore(cfg config.LogConfig) zapcore.Core {
	console := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig(zapcore.CapitalColorLevelEncoder)),
		zapcore.Lock(os.Stderr),
		atomicLevel,
	)
	if cfg.FileDir == "" {
		return console
	}
	file := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig(zapcore.CapitalLevelEncoder)),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FileDir,
			MaxSize:    max(1, cfg.MaxSize), // MB
			MaxBackups: max(0, cfg.MaxBackups),
			MaxAge:     max(0, cfg.MaxAge), // days
			Compress:   cfg.Compress,
		}),
		atomicLevel,
	)
	return zapcore.NewTee(console, file)
}

// Logger 全局 logger，Init 之前是 Nop。
func Logger() *zap.Logger {
	return logger
}

// SetLevel 非法值回退到 info。
func SetLevel(level string) {
	atomicLevel.SetLevel(parseLevel(level))
}

func Sync() {
	_ = logger.Sync()
}

func parseLevel(level string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func Debug(msg string, fields ...zap.Field) { logger.Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { logger.Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { logger.Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { logger.Error(msg, fields...) }

// Fatal 打印后 os.Exit(1)，只在启动阶段用。
func Fatal(msg string, fields ...zap.Field) { logger.Fatal(msg, fields...) }
