package ws

// Registrar 业务模块注册 `group.action` 路由。
type Registrar interface {
	WsRegister(r *Router)
}

func (r *Router) Register(rs ...Registrar) {
	for _, reg := range rs {
		reg.WsRegister(r)
	}
}
