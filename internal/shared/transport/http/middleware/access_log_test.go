package middleware

import (
	nethttp "net/http"
	"testing"

	"Regnum/internal/shared/transport"
)

func TestBizCodeOf_优先响应体(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   int
	}{
		{nethttp.StatusOK, `{"code":461,"msg":"领地已被占领"}`, 461},
		{nethttp.StatusOK, `{"code":0,"data":{}}`, transport.OK},
		{nethttp.StatusNotFound, `404 page not found`, transport.NotFound},
		{nethttp.StatusTooManyRequests, ``, transport.RateLimited},
		{nethttp.StatusInternalServerError, ``, transport.SystemError},
		{nethttp.StatusOK, `[]`, transport.OK},
	}
	for _, c := range cases {
		if got := bizCodeOf(c.status, []byte(c.body)); got != c.want {
			t.Fatalf("status=%d body=%q 期望 %d, got=%d", c.status, c.body, c.want, got)
		}
	}
}
