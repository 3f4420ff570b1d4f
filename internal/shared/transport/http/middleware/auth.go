package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"Regnum/internal/shared/security"
	"Regnum/internal/shared/transport"
)

const ginPrincipalKey = "regnum.principal"

// TokenParser 即 security.Signer，测试里可以替换。
type TokenParser interface {
	ParseToken(token string) (*security.Claims, error)
}

// CurrentPrincipal 从 gin.Context 读取调用方身份。
func CurrentPrincipal(c *gin.Context) transport.Principal {
	if v, ok := c.Get(ginPrincipalKey); ok {
		if p, ok := v.(transport.Principal); ok {
			return p
		}
	}
	return transport.PrincipalFrom(c.Request.Context())
}

// Auth 解析 `Authorization: Bearer <jwt>`。
// 缺少 token 时不拦截，由业务层返回 Unauthenticated；token 非法直接 401。
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := BearerToken(c.GetHeader("Authorization"))
		if raw == "" || parser == nil {
			c.Next()
			return
		}
		claims, err := parser.ParseToken(raw)
		if err != nil {
			transport.SetErrorReason(c.Request.Context(), "INVALID_TOKEN")
			c.AbortWithStatusJSON(http.StatusUnauthorized, transport.Response{
				Code: transport.Unauthenticated,
				Msg:  "token 无效",
			})
			return
		}
		p := transport.Principal{PlayerID: claims.PID, Username: claims.Username, Email: claims.Email}
		c.Set(ginPrincipalKey, p)
		c.Request = c.Request.WithContext(transport.WithPrincipal(c.Request.Context(), p))
		transport.SetPlayer(c.Request.Context(), p.PlayerID)
		c.Next()
	}
}

// BearerToken 从 Authorization 头取 token，格式不对返回空串。
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
