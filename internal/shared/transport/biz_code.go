package transport

// BizCode 表示业务码的强类型封装，用于在日志上下文中减少误传风险。
type BizCode int

// 通用业务码。0 成功；1~499 可预期的拒绝（access 日志 WARN）；>=500 系统错误（ERROR）。
// 各业务域在 1~499 内自行扩展（例如游戏域 460~469）。
const (
	OK              = 0
	InvalidParam    = 400
	Unauthenticated = 401
	Forbidden       = 403
	NotFound        = 404
	RateLimited     = 429
	SystemError     = 500
	Unavailable     = 503
)

// Response HTTP/gRPC 统一响应体。
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}
