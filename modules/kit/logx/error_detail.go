package logx

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	maxCauseDepth = 20
	maxStackDepth = 32
)

// ErrorDetail 从错误链上拆出来的可读信息。errx.Error 实现全部接口，普通 error 只有 Error/CauseChain。
type ErrorDetail struct {
	Error      string
	Code       string
	Msg        string
	Reason     string
	Data       map[string]any
	CauseChain []string
	Origin     string
	Stack      string
}

// DetailOf 沿 errors.As 依次提取错误码、提示语、reason、附加数据和记录处的栈。
func DetailOf(err error) ErrorDetail {
	if err == nil {
		return ErrorDetail{}
	}
	d := ErrorDetail{Error: err.Error(), CauseChain: causeChain(err)}

	if p, ok := as[interface{ CodeText() string }](err); ok {
		d.Code = p.CodeText()
	}
	if p, ok := as[interface{ Msg() string }](err); ok {
		d.Msg = p.Msg()
	}
	if p, ok := as[interface{ Reason() string }](err); ok {
		d.Reason = p.Reason()
	}
	if p, ok := as[interface{ Data() map[string]any }](err); ok {
		d.Data = p.Data()
	}
	if p, ok := as[interface{ Stack() []uintptr }](err); ok {
		d.Origin, d.Stack = formatStack(p.Stack())
	}
	return d
}

// ReasonOrCode 业务日志的 reason：优先 data.reason，其次错误码。
func (d ErrorDetail) ReasonOrCode() string {
	if d.Reason != "" {
		return d.Reason
	}
	return d.Code
}

// sysFields 技术错误日志的附加字段，空值不输出。
func (d ErrorDetail) sysFields() []zap.Field {
	out := make([]zap.Field, 0, 5)
	if d.Code != "" {
		out = append(out, zap.String("error_code", d.Code))
	}
	if len(d.CauseChain) != 0 {
		out = append(out, zap.Strings("cause_chain", d.CauseChain))
	}
	if len(d.Data) != 0 {
		out = append(out, zap.Any("error_data", d.Data))
	}
	if d.Origin != "" {
		out = append(out, zap.String("origin_caller", d.Origin))
	}
	if d.Stack != "" {
		out = append(out, zap.String("stack_origin", d.Stack))
	}
	return out
}

// summary 技术错误日志的 message 行。
func (d ErrorDetail) summary(action string) string {
	switch {
	case d.Reason != "":
		return fmt.Sprintf("%s, reason:%s, error:%s", action, d.Reason, d.Error)
	case d.Msg != "":
		return fmt.Sprintf("%s, error:%s, msg:%s", action, d.Error, d.Msg)
	default:
		return fmt.Sprintf("%s, error:%s", action, d.Error)
	}
}

func as[T any](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)
	return target, ok
}

func causeChain(err error) []string {
	var out []string
	for cur, i := errors.Unwrap(err), 0; cur != nil && i < maxCauseDepth; cur, i = errors.Unwrap(cur), i+1 {
		out = append(out, fmt.Sprintf("%T: %v", cur, cur))
	}
	return out
}

// formatStack 第一帧作为 origin，整段每帧一行。
func formatStack(pcs []uintptr) (origin, stack string) {
	if len(pcs) == 0 {
		return "", ""
	}
	frames := runtime.CallersFrames(pcs)
	lines := make([]string, 0, len(pcs))
	for len(lines) < maxStackDepth {
		f, more := frames.Next()
		if f.Function == "" && f.File == "" {
			break
		}
		lines = append(lines, f.Function+" "+f.File+":"+strconv.Itoa(f.Line))
		if !more {
			break
		}
	}
	if len(lines) == 0 {
		return "", ""
	}
	return lines[0], strings.Join(lines, "\n")
}
