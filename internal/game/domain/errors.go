package domain

import "Regnum/modules/kit/errx"

// Code 领域错误码，对外语义的唯一来源。
//
// 约定：
// - 所有校验失败都是业务错误（不带栈），调用方修正输入或状态后可以重试
// - data 里放业务上下文（resource/region/reason...），cause 只用于溯源
type Code = errx.Code

const (
	CodeUnauthenticated       Code = "GAME_UNAUTHENTICATED"
	CodeInsufficientResources Code = "GAME_INSUFFICIENT_RESOURCES"
	CodeRegionOccupied        Code = "GAME_REGION_OCCUPIED"
	CodeNotYourTerritory      Code = "GAME_NOT_YOUR_TERRITORY"
	CodeBarracksRequired      Code = "GAME_BARRACKS_REQUIRED"
	CodeAllianceExists        Code = "GAME_ALLIANCE_EXISTS"
	CodeNotFound              Code = "GAME_NOT_FOUND"
	CodeForbidden             Code = "GAME_FORBIDDEN"
	CodeInvalidArgument       Code = "GAME_INVALID_ARGUMENT"
)

type Error = errx.Error

var (
	ErrUnauthenticated       = errx.NewBiz(CodeUnauthenticated, "未认证")
	ErrInsufficientResources = errx.NewBiz(CodeInsufficientResources, "资源不足")
	ErrRegionOccupied        = errx.NewBiz(CodeRegionOccupied, "领地已被占领")
	ErrNotYourTerritory      = errx.NewBiz(CodeNotYourTerritory, "不是你的领地")
	ErrBarracksRequired      = errx.NewBiz(CodeBarracksRequired, "需要兵营")
	ErrAllianceExists        = errx.NewBiz(CodeAllianceExists, "结盟记录已存在")
	ErrNotFound              = errx.NewBiz(CodeNotFound, "目标不存在")
	ErrForbidden             = errx.NewBiz(CodeForbidden, "无权操作")
	ErrInvalidArgument       = errx.NewBiz(CodeInvalidArgument, "参数有误")
)

// 业务拒绝 reason（写在 data.reason 里，便于日志与客户端区分同一 code 下的不同场景）。
var (
	ReasonPlayerNotFound     = NewReason("PLAYER_NOT_FOUND", "玩家不存在")
	ReasonRegionNotFound     = NewReason("REGION_NOT_FOUND", "领地不存在")
	ReasonBuildingNotFound   = NewReason("BUILDING_NOT_FOUND", "建筑不存在")
	ReasonAllianceNotFound   = NewReason("ALLIANCE_NOT_FOUND", "结盟记录不存在")
	ReasonAllianceNotPending = NewReason("ALLIANCE_NOT_PENDING", "结盟记录已结束")
	ReasonNotAllianceTarget  = NewReason("NOT_ALLIANCE_TARGET", "只有被邀请方可以处理")
	ReasonNotBuildingOwner   = NewReason("NOT_BUILDING_OWNER", "不是你的建筑")
	ReasonNoFreeRegion       = NewReason("NO_FREE_REGION", "没有空闲领地")
	ReasonSelfTarget         = NewReason("SELF_TARGET", "不能以自己为目标")
	ReasonUnknownType        = NewReason("UNKNOWN_TYPE", "类型不存在")
	ReasonBadQuantity        = NewReason("BAD_QUANTITY", "数量必须大于 0 且不能超出上限")
)

type Reason struct {
	Code    string
	Message string
}

func (r Reason) ReasonCode() string {
	return r.Code
}

func NewReason(c, m string) Reason {
	return Reason{Code: c, Message: m}
}

// InsufficientResources 构造资源不足错误，带上第一个短缺的资源。
func InsufficientResources(r Resource, need, have int64) *Error {
	return ErrInsufficientResources.WithDataMap(map[string]any{
		"resource": string(r),
		"need":     need,
		"have":     have,
	})
}
