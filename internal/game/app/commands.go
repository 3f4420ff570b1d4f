package app

import (
	"context"

	"Regnum/internal/game/domain"
)

// Enter 首次登录：未初始化的玩家在这里完成初始化。
func (e *Engine) Enter(ctx context.Context, id domain.Identity) (domain.Player, error) {
	var out domain.Player
	err := e.run(ctx, "game.enter", id, func() (string, error) {
		out, _ = e.players.Get(id.PlayerID)
		return "", nil
	})
	return out, err
}

func (e *Engine) Balance(ctx context.Context, id domain.Identity) (domain.Balance, error) {
	var out domain.Balance
	err := e.run(ctx, "game.balance", id, func() (string, error) {
		b, err := e.ledger.GetBalance(id.PlayerID)
		out = b
		return "", err
	})
	return out, err
}

func (e *Engine) DeclareWar(ctx context.Context, id domain.Identity, defender domain.PlayerID, region string) (domain.War, error) {
	var out domain.War
	err := e.run(ctx, "game.war.declare", id, func() (string, error) {
		w, err := e.relations.DeclareWar(id.PlayerID, defender, region)
		out = w
		return "", err
	})
	return out, err
}

func (e *Engine) ProposeAlliance(ctx context.Context, id domain.Identity, target domain.PlayerID, message string) (domain.Alliance, error) {
	var out domain.Alliance
	err := e.run(ctx, "game.alliance.propose", id, func() (string, error) {
		a, err := e.relations.ProposeAlliance(id.PlayerID, target, message)
		out = a
		return "", err
	})
	return out, err
}

func (e *Engine) AcceptAlliance(ctx context.Context, id domain.Identity, allianceID domain.AllianceID) (domain.Alliance, error) {
	var out domain.Alliance
	err := e.run(ctx, "game.alliance.accept", id, func() (string, error) {
		a, err := e.relations.AcceptAlliance(id.PlayerID, allianceID)
		out = a
		return "", err
	})
	return out, err
}

func (e *Engine) RejectAlliance(ctx context.Context, id domain.Identity, allianceID domain.AllianceID) (domain.Alliance, error) {
	var out domain.Alliance
	err := e.run(ctx, "game.alliance.reject", id, func() (string, error) {
		a, err := e.relations.RejectAlliance(id.PlayerID, allianceID)
		out = a
		return "", err
	})
	return out, err
}

// ConquerTerritory 成功后玩家的当前领地切到新占领的领地。
func (e *Engine) ConquerTerritory(ctx context.Context, id domain.Identity, region string) (domain.Region, error) {
	var out domain.Region
	err := e.run(ctx, "game.territory.conquer", id, func() (string, error) {
		if err := e.territory.Conquer(id.PlayerID, region); err != nil {
			return "", err
		}
		r, err := e.territory.Region(region)
		out = r
		return region, err
	})
	return out, err
}

func (e *Engine) BuildStructure(ctx context.Context, id domain.Identity, region string, t domain.BuildingType) (domain.Building, error) {
	var out domain.Building
	err := e.run(ctx, "game.building.build", id, func() (string, error) {
		b, err := e.buildings.Build(id.PlayerID, region, t)
		out = b
		return "", err
	})
	return out, err
}

func (e *Engine) UpgradeBuilding(ctx context.Context, id domain.Identity, buildingID domain.BuildingID) (domain.Building, error) {
	var out domain.Building
	err := e.run(ctx, "game.building.upgrade", id, func() (string, error) {
		b, err := e.buildings.Upgrade(id.PlayerID, buildingID)
		out = b
		return "", err
	})
	return out, err
}

func (e *Engine) TrainUnits(ctx context.Context, id domain.Identity, region string, t domain.UnitType, quantity int64) (domain.ArmyUnit, error) {
	var out domain.ArmyUnit
	err := e.run(ctx, "game.army.train", id, func() (string, error) {
		u, err := e.armies.Train(id.PlayerID, region, t, quantity)
		out = u
		return "", err
	})
	return out, err
}
