package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"Regnum/internal/shared/transport"
)

// Limiters 按 key（玩家 id，未鉴权时取客户端 IP）分配令牌桶。
type Limiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewLimiters(perSecond float64, burst int) *Limiters {
	if perSecond <= 0 {
		perSecond = 10
	}
	if burst <= 0 {
		burst = 20
	}
	return &Limiters{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *Limiters) Get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, exists := l.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	return limiter
}

// Allow 给 WS 路由复用，见 ws.Router.Limit。
func (l *Limiters) Allow(key string) bool {
	return l.Get(key).Allow()
}

// RateLimit 必须挂在 Auth 之后，才能按玩家限流。
func RateLimit(l *Limiters) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		key := CurrentPrincipal(c).PlayerID
		if key == "" {
			key = c.ClientIP()
		}
		if !l.Allow(key) {
			transport.SetErrorReason(c.Request.Context(), "RATE_LIMITED")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, transport.Response{
				Code: transport.RateLimited,
				Msg:  "请求过于频繁",
			})
			return
		}
		c.Next()
	}
}
