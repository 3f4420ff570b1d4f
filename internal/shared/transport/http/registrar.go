package http

import "github.com/gin-gonic/gin"

// Registrar 业务模块把 REST 路由挂到鉴权后的 group 上。
type Registrar interface {
	HttpRegister(g *gin.RouterGroup)
}

func (s *Server) Register(rs ...Registrar) {
	for _, r := range rs {
		r.HttpRegister(s.group)
	}
}
