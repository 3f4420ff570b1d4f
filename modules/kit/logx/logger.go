package logx

import (
	"context"

	"go.uber.org/zap"
)

// Logger 跨包复用的最小日志接口。
//
// 约束：
// - API 保持极简：结构化字段 + ctx 透传（trace/span）
// - With 用于给组件挂固定字段（component、player_id 等）
type Logger interface {
	Info(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Debug(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
	WithContext(ctx context.Context) Logger
}
