package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"Regnum/internal/shared/transport"
	"Regnum/modules/kit/logx"
)

type bodyCaptureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCaptureWriter) Write(data []byte) (int, error) {
	_, _ = w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	_, _ = w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// AccessLog 每个请求一条 access 日志，业务码取响应体的 `code`；/healthz 不记。
// 必须挂在 Auth 之前：它创建的 AccessLog 上下文由 Auth/RateLimit 填 player 和 reason。
func AccessLog(log logx.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Next()
			return
		}
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ctx := transport.NewContextWithParent(c.Request.Context(), c.Request.Method+" "+route)
		c.Request = c.Request.WithContext(ctx)

		bw := &bodyCaptureWriter{ResponseWriter: c.Writer}
		c.Writer = bw

		c.Next()

		transport.SetBizCode(ctx, transport.BizCode(bizCodeOf(c.Writer.Status(), bw.body.Bytes())))
		transport.WriteAccessLog(ctx, log)
	}
}

// bizCodeOf 响应体没有 code 时按 HTTP 状态推断（例如路由不存在）。
func bizCodeOf(status int, body []byte) int {
	if code, ok := parseBizCode(body); ok {
		return code
	}
	switch {
	case status == http.StatusNotFound:
		return transport.NotFound
	case status == http.StatusUnauthorized:
		return transport.Unauthenticated
	case status == http.StatusTooManyRequests:
		return transport.RateLimited
	case status >= http.StatusBadRequest:
		return transport.SystemError
	default:
		return transport.OK
	}
}

func parseBizCode(body []byte) (int, bool) {
	if len(body) == 0 {
		return 0, false
	}
	var payload struct {
		Code *int `json:"code"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Code == nil {
		return 0, false
	}
	return *payload.Code, true
}
