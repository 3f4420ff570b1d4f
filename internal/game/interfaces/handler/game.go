package handler

import (
	"context"

	"Regnum/internal/game/app"
	"Regnum/internal/game/domain"
	"Regnum/internal/game/event"
	"Regnum/internal/game/interfaces/handler/dto"
	"Regnum/internal/shared/transport"
	"Regnum/modules/kit/logx"

	"go.uber.org/zap"
)

// Engine 三种协议共用的命令入口，由 *app.Engine 实现。
type Engine interface {
	Enter(ctx context.Context, id domain.Identity) (domain.Player, error)
	Snapshot(ctx context.Context, id domain.Identity) (app.Snapshot, error)
	Balance(ctx context.Context, id domain.Identity) (domain.Balance, error)
	DeclareWar(ctx context.Context, id domain.Identity, defender domain.PlayerID, region string) (domain.War, error)
	ProposeAlliance(ctx context.Context, id domain.Identity, target domain.PlayerID, message string) (domain.Alliance, error)
	AcceptAlliance(ctx context.Context, id domain.Identity, allianceID domain.AllianceID) (domain.Alliance, error)
	RejectAlliance(ctx context.Context, id domain.Identity, allianceID domain.AllianceID) (domain.Alliance, error)
	ConquerTerritory(ctx context.Context, id domain.Identity, region string) (domain.Region, error)
	BuildStructure(ctx context.Context, id domain.Identity, region string, t domain.BuildingType) (domain.Building, error)
	UpgradeBuilding(ctx context.Context, id domain.Identity, buildingID domain.BuildingID) (domain.Building, error)
	TrainUnits(ctx context.Context, id domain.Identity, region string, t domain.UnitType, quantity int64) (domain.ArmyUnit, error)
}

// Journal 事件流水的只读部分，可以为空。
type Journal interface {
	Since(ctx context.Context, seq uint64, limit int) ([]event.Event, error)
}

// Decoder 把协议层的请求体解到 dst；HTTP/WS/gRPC 各自实现。
type Decoder func(dst any) error

type command func(ctx context.Context, g *Game, id domain.Identity, decode Decoder) (any, error)

// 命令名与 WS 路由一致：group.action。
const (
	CmdEnter           = "game.enter"
	CmdSnapshot        = "game.snapshot"
	CmdBalance         = "game.balance"
	CmdDeclareWar      = "war.declare"
	CmdProposeAlliance = "alliance.propose"
	CmdAcceptAlliance  = "alliance.accept"
	CmdRejectAlliance  = "alliance.reject"
	CmdConquer         = "territory.conquer"
	CmdBuild           = "building.build"
	CmdUpgrade         = "building.upgrade"
	CmdTrain           = "army.train"
	CmdEventsSince     = "events.since"
)

var commands = map[string]command{
	CmdEnter: func(ctx context.Context, g *Game, id domain.Identity, _ Decoder) (any, error) {
		return g.engine.Enter(ctx, id)
	},
	CmdSnapshot: func(ctx context.Context, g *Game, id domain.Identity, _ Decoder) (any, error) {
		return g.engine.Snapshot(ctx, id)
	},
	CmdBalance: func(ctx context.Context, g *Game, id domain.Identity, _ Decoder) (any, error) {
		return g.engine.Balance(ctx, id)
	},
	CmdDeclareWar: func(ctx context.Context, g *Game, id domain.Identity, decode Decoder) (any, error) {
		var req dto.DeclareWarReq
		if err := bind(decode, &req); err != nil {
			return nil, err
		}
		return g.DeclareWar(ctx, id, req)
	},
	CmdProposeAlliance: func(ctx context.Context, g *Game, id domain.Identity, decode Decoder) (any, error) {
		var req dto.ProposeAllianceReq
		if err := bind(decode, &req); err != nil {
			return nil, err
		}
		return g.ProposeAlliance(ctx, id, req)
	},
	CmdAcceptAlliance: func(ctx context.Context, g *Game, id domain.Identity, decode Decoder) (any, error) {
		var req dto.AllianceReq
		if err := bind(decode, &req); err != nil {
			return nil, err
		}
		return g.AcceptAlliance(ctx, id, req)
	},
	CmdRejectAlliance: func(ctx context.Context, g *Game, id domain.Identity, decode Decoder) (any, error) {
		var req dto.AllianceReq
		if err := bind(decode, &req); err != nil {
			return nil, err
		}
		return g.RejectAlliance(ctx, id, req)
	},
	CmdConquer: func(ctx context.Context, g *Game, id domain.Identity, decode Decoder) (any, error) {
		var req dto.ConquerReq
		if err := bind(decode, &req); err != nil {
			return nil, err
		}
		return g.Conquer(ctx, id, req)
	},
	CmdBuild: func(ctx context.Context, g *Game, id domain.Identity, decode Decoder) (any, error) {
		var req dto.BuildReq
		if err := bind(decode, &req); err != nil {
			return nil, err
		}
		return g.Build(ctx, id, req)
	},
	CmdUpgrade: func(ctx context.Context, g *Game, id domain.Identity, decode Decoder) (any, error) {
		var req dto.UpgradeReq
		if err := bind(decode, &req); err != nil {
			return nil, err
		}
		return g.Upgrade(ctx, id, req)
	},
	CmdTrain: func(ctx context.Context, g *Game, id domain.Identity, decode Decoder) (any, error) {
		var req dto.TrainReq
		if err := bind(decode, &req); err != nil {
			return nil, err
		}
		return g.Train(ctx, id, req)
	},
	CmdEventsSince: func(ctx context.Context, g *Game, id domain.Identity, decode Decoder) (any, error) {
		var req dto.EventsReq
		if decode != nil {
			if err := bind(decode, &req); err != nil {
				return nil, err
			}
		}
		return g.EventsSince(ctx, id, req)
	},
}

func bind(decode Decoder, dst any) error {
	if decode == nil {
		return BadPayload(nil)
	}
	if err := decode(dst); err != nil {
		return BadPayload(err)
	}
	return nil
}

// Game 协议无关的命令分发；引擎命令的日志在引擎里打，这里只做参数转换。
type Game struct {
	engine  Engine
	journal Journal
	log     logx.Logger
}

func NewGame(e Engine, j Journal, l logx.Logger) *Game {
	if l == nil {
		l = logx.NewZapLogger(nil)
	}
	return &Game{engine: e, journal: j, log: l}
}

// IdentityFrom 鉴权中间件放进 context 的身份；没有 token 时是零值，引擎返回 Unauthenticated。
func IdentityFrom(ctx context.Context) domain.Identity {
	p := transport.PrincipalFrom(ctx)
	return domain.Identity{
		PlayerID: domain.PlayerID(p.PlayerID),
		Username: p.Username,
		Email:    p.Email,
	}
}

// Execute 按命令名分发。未知命令返回 InvalidArgument。
func (g *Game) Execute(ctx context.Context, id domain.Identity, name string, decode Decoder) (any, error) {
	cmd, ok := commands[name]
	if !ok {
		return nil, domain.ErrInvalidArgument.WithReason(ReasonUnknownCommand).WithData("command", name)
	}
	return cmd(ctx, g, id, decode)
}

func (g *Game) DeclareWar(ctx context.Context, id domain.Identity, req dto.DeclareWarReq) (domain.War, error) {
	return g.engine.DeclareWar(ctx, id, domain.PlayerID(req.Defender), req.Region)
}

func (g *Game) ProposeAlliance(ctx context.Context, id domain.Identity, req dto.ProposeAllianceReq) (domain.Alliance, error) {
	return g.engine.ProposeAlliance(ctx, id, domain.PlayerID(req.Target), req.Message)
}

func (g *Game) AcceptAlliance(ctx context.Context, id domain.Identity, req dto.AllianceReq) (domain.Alliance, error) {
	return g.engine.AcceptAlliance(ctx, id, domain.AllianceID(req.AllianceID))
}

func (g *Game) RejectAlliance(ctx context.Context, id domain.Identity, req dto.AllianceReq) (domain.Alliance, error) {
	return g.engine.RejectAlliance(ctx, id, domain.AllianceID(req.AllianceID))
}

func (g *Game) Conquer(ctx context.Context, id domain.Identity, req dto.ConquerReq) (domain.Region, error) {
	return g.engine.ConquerTerritory(ctx, id, req.Region)
}

func (g *Game) Build(ctx context.Context, id domain.Identity, req dto.BuildReq) (domain.Building, error) {
	return g.engine.BuildStructure(ctx, id, req.Region, domain.BuildingType(req.Type))
}

func (g *Game) Upgrade(ctx context.Context, id domain.Identity, req dto.UpgradeReq) (domain.Building, error) {
	return g.engine.UpgradeBuilding(ctx, id, domain.BuildingID(req.BuildingID))
}

func (g *Game) Train(ctx context.Context, id domain.Identity, req dto.TrainReq) (domain.ArmyUnit, error) {
	return g.engine.TrainUnits(ctx, id, req.Region, domain.UnitType(req.Type), req.Quantity)
}

// EventsSince 断线重连补事件，要求已认证。不经过引擎，所以日志在这里打。
func (g *Game) EventsSince(ctx context.Context, id domain.Identity, req dto.EventsReq) (resp dto.EventsResp, err error) {
	defer func() {
		logx.ReportResult(ctx, g.log, "game.events.since", err, zap.String("player_id", string(id.PlayerID)))
	}()
	if !id.Authenticated() {
		return dto.EventsResp{}, domain.ErrUnauthenticated
	}
	if g.journal == nil {
		return dto.EventsResp{}, ErrJournalDisabled
	}
	events, err := g.journal.Since(ctx, req.Since, req.Limit)
	if err != nil {
		return dto.EventsResp{}, err
	}
	// next 按扫过的最后一条推进，过滤掉的事件不会被重复拉取
	resp = dto.NewEventsResp(req.Since, events)
	visible := resp.Events[:0:0]
	for _, e := range resp.Events {
		if e.VisibleTo(id.PlayerID) {
			visible = append(visible, e)
		}
	}
	resp.Events = visible
	return resp, nil
}
