package handler

import (
	"context"
	"errors"

	"Regnum/internal/game/domain"
	"Regnum/internal/shared/transport"
	"Regnum/modules/kit/errx"
)

// 游戏域业务码（460~469）。
const (
	InsufficientResources = 460
	RegionOccupied        = 461
	NotYourTerritory      = 462
	BarracksRequired      = 463
	AllianceExists        = 464
)

const busyMsg = "系统繁忙，请稍后重试"

var (
	ReasonBadPayload     = domain.NewReason("BAD_PAYLOAD", "参数有误")
	ReasonUnknownCommand = domain.NewReason("UNKNOWN_COMMAND", "命令不存在")

	// ErrJournalDisabled 没有配置事件流水时 events.since 不可用。
	ErrJournalDisabled = errx.NewSys("GAME_JOURNAL_DISABLED", "事件流水未启用")
)

func BadPayload(cause error) error {
	return domain.ErrInvalidArgument.WithReason(ReasonBadPayload).WithCause(cause)
}

func mapBizErrToClientCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return transport.Unauthenticated
	case errors.Is(err, domain.ErrInsufficientResources):
		return InsufficientResources
	case errors.Is(err, domain.ErrRegionOccupied):
		return RegionOccupied
	case errors.Is(err, domain.ErrNotYourTerritory):
		return NotYourTerritory
	case errors.Is(err, domain.ErrBarracksRequired):
		return BarracksRequired
	case errors.Is(err, domain.ErrAllianceExists):
		return AllianceExists
	case errors.Is(err, domain.ErrNotFound):
		return transport.NotFound
	case errors.Is(err, domain.ErrForbidden):
		return transport.Forbidden
	case errors.Is(err, domain.ErrInvalidArgument):
		return transport.InvalidParam
	default:
		return transport.SystemError
	}
}

func mapTechErrToClientCode(err error) int {
	switch {
	case err == nil:
		return transport.OK
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return transport.Unavailable
	case errors.Is(err, ErrJournalDisabled):
		return transport.Unavailable
	default:
		return transport.SystemError
	}
}

// ReasonOf data.reason 优先，没有则用错误码。
func ReasonOf(err error) string {
	return errx.ReasonOf(err)
}

// HandleError 把错误映射成客户端业务码和提示语，并把 reason 记到 access 日志上下文。
// 技术错误不把内部信息透给客户端。
func HandleError(ctx context.Context, err error) (int, string) {
	if err == nil {
		return transport.OK, ""
	}
	if reason := ReasonOf(err); reason != "" {
		transport.SetErrorReason(ctx, reason)
	}
	if errx.IsBiz(err) {
		return mapBizErrToClientCode(err), errx.MsgOf(err, "操作失败")
	}
	return mapTechErrToClientCode(err), busyMsg
}
