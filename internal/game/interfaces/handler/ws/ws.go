package ws

import (
	"context"

	"Regnum/internal/game/interfaces/handler"
	"Regnum/internal/shared/transport"
	"Regnum/internal/shared/transport/ws"
)

type WsHandler struct {
	game *handler.Game
}

func NewWsHandler(g *handler.Game) *WsHandler {
	return &WsHandler{game: g}
}

// RegisterRoutes 路由名就是命令名，例如 war.declare。
func (h *WsHandler) RegisterRoutes(r *ws.Router) {
	gameGroup := r.Group("game")
	gameGroup.Handle("enter", h.exec(handler.CmdEnter))
	gameGroup.Handle("snapshot", h.exec(handler.CmdSnapshot))
	gameGroup.Handle("balance", h.exec(handler.CmdBalance))

	warGroup := r.Group("war")
	warGroup.Handle("declare", h.exec(handler.CmdDeclareWar))

	allianceGroup := r.Group("alliance")
	allianceGroup.Handle("propose", h.exec(handler.CmdProposeAlliance))
	allianceGroup.Handle("accept", h.exec(handler.CmdAcceptAlliance))
	allianceGroup.Handle("reject", h.exec(handler.CmdRejectAlliance))

	territoryGroup := r.Group("territory")
	territoryGroup.Handle("conquer", h.exec(handler.CmdConquer))

	buildingGroup := r.Group("building")
	buildingGroup.Handle("build", h.exec(handler.CmdBuild))
	buildingGroup.Handle("upgrade", h.exec(handler.CmdUpgrade))

	armyGroup := r.Group("army")
	armyGroup.Handle("train", h.exec(handler.CmdTrain))

	eventsGroup := r.Group("events")
	eventsGroup.Handle("since", h.exec(handler.CmdEventsSince))
}

func (h *WsHandler) exec(name string) ws.HandlerFunc {
	return func(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
		if wsReq == nil || wsReq.Body == nil || wsResp == nil || wsResp.Body == nil {
			h.fail(wsResp, transport.InvalidParam, "参数有误")
			return
		}

		var decode handler.Decoder
		if wsReq.Body.Msg != nil {
			decode = func(dst any) error {
				return ws.BindMsg(wsReq, dst)
			}
		}

		data, err := h.game.Execute(ctx, handler.IdentityFrom(ctx), name, decode)
		if err != nil {
			h.error(ctx, wsResp, err)
			return
		}
		h.ok(wsResp, data)
	}
}

func (h *WsHandler) ok(resp *ws.WsMsgResp, data any) {
	if resp == nil || resp.Body == nil {
		return
	}
	resp.Body.Code = transport.OK
	resp.Body.Msg = data
}

func (h *WsHandler) fail(resp *ws.WsMsgResp, code int, msg string) {
	if resp == nil || resp.Body == nil {
		return
	}
	resp.Body.Code = code
	if msg != "" {
		resp.Body.Msg = msg
	}
}

func (h *WsHandler) error(ctx context.Context, resp *ws.WsMsgResp, err error) {
	code, msg := handler.HandleError(ctx, err)
	h.fail(resp, code, msg)
}
