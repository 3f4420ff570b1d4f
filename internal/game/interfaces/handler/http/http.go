package http

import (
	"context"
	nethttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"Regnum/internal/game/interfaces/handler"
	"Regnum/internal/game/interfaces/handler/dto"
	"Regnum/internal/shared/transport"
)

type HttpHandler struct {
	game *handler.Game
}

func NewHttpHandler(g *handler.Game) *HttpHandler {
	return &HttpHandler{game: g}
}

func (h *HttpHandler) RegisterRoutes(group *gin.RouterGroup) {
	api := group.Group("/api")
	api.POST("/enter", h.Enter)
	api.GET("/snapshot", h.Snapshot)
	api.GET("/balance", h.Balance)
	api.GET("/events", h.Events)

	api.POST("/wars", h.DeclareWar)

	api.POST("/alliances", h.ProposeAlliance)
	api.POST("/alliances/:id/accept", h.AcceptAlliance)
	api.POST("/alliances/:id/reject", h.RejectAlliance)

	api.POST("/territories/:region/conquer", h.Conquer)

	api.POST("/buildings", h.Build)
	api.POST("/buildings/:id/upgrade", h.Upgrade)

	api.POST("/armies/train", h.Train)
}

func (h *HttpHandler) Enter(c *gin.Context) {
	ctx := c.Request.Context()
	h.exec(ctx, c, handler.CmdEnter, nil)
}

func (h *HttpHandler) Snapshot(c *gin.Context) {
	ctx := c.Request.Context()
	h.exec(ctx, c, handler.CmdSnapshot, nil)
}

func (h *HttpHandler) Balance(c *gin.Context) {
	ctx := c.Request.Context()
	h.exec(ctx, c, handler.CmdBalance, nil)
}

// Events `?since=<seq>&limit=<n>`，两个参数都可省略。
func (h *HttpHandler) Events(c *gin.Context) {
	ctx := c.Request.Context()

	req := dto.EventsReq{}
	if raw := c.Query("since"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.fail(c, transport.InvalidParam, "参数有误")
			return
		}
		req.Since = v
	}
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(c, transport.InvalidParam, "参数有误")
			return
		}
		req.Limit = v
	}

	resp, err := h.game.EventsSince(ctx, handler.IdentityFrom(ctx), req)
	if err != nil {
		h.error(ctx, c, err)
		return
	}
	h.ok(c, resp)
}

func (h *HttpHandler) DeclareWar(c *gin.Context) {
	ctx := c.Request.Context()
	h.exec(ctx, c, handler.CmdDeclareWar, c.ShouldBindJSON)
}

func (h *HttpHandler) ProposeAlliance(c *gin.Context) {
	ctx := c.Request.Context()
	h.exec(ctx, c, handler.CmdProposeAlliance, c.ShouldBindJSON)
}

func (h *HttpHandler) AcceptAlliance(c *gin.Context) {
	h.resolveAlliance(c, handler.CmdAcceptAlliance)
}

func (h *HttpHandler) RejectAlliance(c *gin.Context) {
	h.resolveAlliance(c, handler.CmdRejectAlliance)
}

func (h *HttpHandler) resolveAlliance(c *gin.Context, name string) {
	ctx := c.Request.Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.fail(c, transport.InvalidParam, "参数有误")
		return
	}
	h.exec(ctx, c, name, fixed(dto.AllianceReq{AllianceID: id}))
}

func (h *HttpHandler) Conquer(c *gin.Context) {
	ctx := c.Request.Context()
	h.exec(ctx, c, handler.CmdConquer, fixed(dto.ConquerReq{Region: c.Param("region")}))
}

func (h *HttpHandler) Build(c *gin.Context) {
	ctx := c.Request.Context()
	h.exec(ctx, c, handler.CmdBuild, c.ShouldBindJSON)
}

func (h *HttpHandler) Upgrade(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.fail(c, transport.InvalidParam, "参数有误")
		return
	}
	h.exec(ctx, c, handler.CmdUpgrade, fixed(dto.UpgradeReq{BuildingID: id}))
}

func (h *HttpHandler) Train(c *gin.Context) {
	ctx := c.Request.Context()
	h.exec(ctx, c, handler.CmdTrain, c.ShouldBindJSON)
}

func (h *HttpHandler) exec(ctx context.Context, c *gin.Context, name string, decode handler.Decoder) {
	data, err := h.game.Execute(ctx, handler.IdentityFrom(ctx), name, decode)
	if err != nil {
		h.error(ctx, c, err)
		return
	}
	h.ok(c, data)
}

// fixed 参数来自路径时用它代替请求体解码。
func fixed[T any](v T) handler.Decoder {
	return func(dst any) error {
		if p, ok := dst.(*T); ok {
			*p = v
		}
		return nil
	}
}

func (h *HttpHandler) ok(c *gin.Context, data any) {
	c.JSON(nethttp.StatusOK, dto.Success(transport.OK, data))
}

func (h *HttpHandler) fail(c *gin.Context, code int, msg string) {
	c.JSON(nethttp.StatusOK, dto.Error(code, msg))
}

func (h *HttpHandler) error(ctx context.Context, c *gin.Context, err error) {
	code, msg := handler.HandleError(ctx, err)
	h.fail(c, code, msg)
}
