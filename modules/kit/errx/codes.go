package errx

// 跨服务统一的系统类错误码。
//
// 约束：
// - 只放“系统/技术类错误”，便于告警、观测、排障
// - 业务域错误码（例如 GAME_REGION_OCCUPIED）由各业务包自己定义，不在 kit 里集中

const (
	// CodeInternal 服务内部不可预期错误（兜底）。
	CodeInternal Code = "INTERNAL_ERROR"
	// CodeUnavailable 依赖不可用（存储/下游/网络异常等）。
	CodeUnavailable Code = "SERVICE_UNAVAILABLE"
	// CodeTimeout 请求/依赖调用超时。
	CodeTimeout Code = "TIMEOUT"
	// CodeRateLimited 被限流。
	CodeRateLimited Code = "RATE_LIMITED"
	// CodeReqParamError 请求参数无法解析。
	CodeReqParamError Code = "CODE_REQ_PARAM_ERROR"
)

var (
	ErrInternal    = NewSys(CodeInternal, "服务器内部错误")
	ErrUnavailable = NewSys(CodeUnavailable, "服务不可用")
	ErrTimeout     = NewSys(CodeTimeout, "请求超时")
	ErrRateLimited = NewSys(CodeRateLimited, "请求过于频繁")
	ErrReqParamERR = NewSys(CodeReqParamError, "请求参数错误")
)
