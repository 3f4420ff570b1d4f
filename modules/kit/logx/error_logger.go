package logx

import (
	"context"
	"strings"

	"Regnum/modules/kit/errx"

	"go.uber.org/zap"
)

// BizLog 是业务拒绝日志的强类型输入，避免参数顺序误传。
type BizLog struct {
	Action  string
	Reason  string
	Message string
}

// SysLog 是技术错误日志的强类型输入，避免参数顺序误传。
type SysLog struct {
	Action string
	Err    error
}

func NewBizLog(action, reason, message string) BizLog {
	return BizLog{
		Action:  action,
		Reason:  reason,
		Message: message,
	}
}

func NewSysLog(action string, err error) SysLog {
	return SysLog{
		Action: action,
		Err:    err,
	}
}

// ReportAccessWithLoggerContext 记录访问日志：
// - biz_code == 0: INFO
// - biz_code  1~499: WARN
// - biz_code >= 500: ERROR
func ReportAccessWithLoggerContext(ctx context.Context, l Logger, action string, bizCode int, fields ...zap.Field) {
	if l == nil {
		return
	}
	base := []zap.Field{
		zap.String("log_type", "access"),
		zap.String("action", action),
		zap.Int("biz_code", bizCode),
	}
	base = append(base, fields...)
	withCtx := l.WithContext(ctx)
	switch {
	case bizCode == 0:
		withCtx.Info("access", base...)
	case bizCode >= 500:
		withCtx.Error("access", base...)
	default:
		withCtx.Warn("access", base...)
	}
}

// ReportBizWithLoggerContext 记录业务拒绝日志：INFO、err_type=biz、不带堆栈。
func ReportBizWithLoggerContext(ctx context.Context, l Logger, biz BizLog, fields ...zap.Field) {
	if l == nil {
		return
	}
	action := biz.Action
	if action == "" {
		action = "biz_reject"
	}
	base := []zap.Field{
		zap.String("err_type", "biz"),
		zap.String("action", action),
	}
	parts := []string{action}
	if biz.Reason != "" {
		base = append(base, zap.String("reason", biz.Reason))
		parts = append(parts, "reason:"+biz.Reason)
	}
	if biz.Message != "" {
		base = append(base, zap.String("biz_message", biz.Message))
		parts = append(parts, "msg:"+biz.Message)
	}
	base = append(base, fields...)
	msg := strings.Join(parts, ", ")
	l.WithContext(ctx).Info(msg, base...)
}

// ReportResult 按错误类型打印一次命令结果：
// - err == nil：不打印（成功由 access 日志覆盖）
// - 业务错误：ReportBizWithLoggerContext（reason 取 data.reason，没有则用错误码）
// - 其他：ReportSysErrorWithLoggerContext
func ReportResult(ctx context.Context, l Logger, action string, err error, fields ...zap.Field) {
	if err == nil || l == nil {
		return
	}
	if errx.IsBiz(err) {
		d := DetailOf(err)
		ReportBizWithLoggerContext(ctx, l, NewBizLog(action, d.ReasonOrCode(), d.Msg), fields...)
		return
	}
	ReportSysErrorWithLoggerContext(ctx, l, NewSysLog(action, err), fields...)
}

// ReportSysErrorWithLoggerContext 记录技术错误日志：ERROR、err_type=sys，可附带栈信息。
func ReportSysErrorWithLoggerContext(ctx context.Context, l Logger, sys SysLog, fields ...zap.Field) {
	if sys.Err == nil || l == nil {
		return
	}
	action := sys.Action
	if action == "" {
		action = "sys_error"
	}
	d := DetailOf(sys.Err)
	base := append([]zap.Field{
		zap.String("err_type", "sys"),
		zap.String("action", action),
	}, d.sysFields()...)
	base = append(base, fields...)
	l.WithContext(ctx).Error(d.summary(action), base...)
}
