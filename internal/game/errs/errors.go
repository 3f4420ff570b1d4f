package errs

import (
	"errors"
	"fmt"

	"Regnum/modules/kit/errx"
)

type Kind string

const (
	KindUnknown    Kind = "unknown"
	KindInfra      Kind = "infra"
	KindDependency Kind = "dependency"
)

// CodeStorage 存储层失败对外统一成这个系统错误码。
const CodeStorage errx.Code = "GAME_STORAGE"

var ErrStorage = errx.NewSys(CodeStorage, "存储不可用")

type Error struct {
	Op    string         // 发生位置：repo.mongo.Save / journal.Append
	Kind  Kind           // 粗分类
	Meta  map[string]any // 关键参数（collection, id...）
	Cause error          // 根因（必须保留）
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Wrap 统一包装入口，cause 为 nil 时返回 nil。
func Wrap(op string, kind Kind, cause error, meta map[string]any) error {
	if cause == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Cause: cause, Meta: meta}
}

// KindOf 取链上第一个 *Error 的分类。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ToSys 基础设施错误转换成带栈的系统错误，data 里带上 op 和 meta。
func ToSys(err error) error {
	if err == nil {
		return nil
	}
	var xe *errx.Error
	if errors.As(err, &xe) {
		return err
	}
	data := map[string]any{}
	var e *Error
	if errors.As(err, &e) {
		data["op"] = e.Op
		data["kind"] = string(e.Kind)
		for k, v := range e.Meta {
			data[k] = v
		}
	}
	return ErrStorage.WithDataMap(data).WithCause(err)
}
