package app

import (
	"context"
	"time"

	"Regnum/internal/game/domain"
)

// PlayerView 其他玩家可见的档案字段。
type PlayerView struct {
	ID            domain.PlayerID `json:"id"`
	Username      string          `json:"username"`
	CurrentRegion string          `json:"current_region"`
	LastActive    time.Time       `json:"last_active"`
}

// Snapshot 地图、关系、建筑、军队对所有人可见；余额只给调用方自己。
type Snapshot struct {
	Me        domain.Player     `json:"me"`
	Balance   domain.Balance    `json:"balance"`
	Players   []PlayerView      `json:"players"`
	Regions   []domain.Region   `json:"regions"`
	Alliances []domain.Alliance `json:"alliances"`
	Wars      []domain.War      `json:"wars"`
	Buildings []domain.Building `json:"buildings"`
	Armies    []domain.ArmyUnit `json:"armies"`
}

func (e *Engine) Snapshot(ctx context.Context, id domain.Identity) (Snapshot, error) {
	var out Snapshot
	err := e.run(ctx, "game.snapshot", id, func() (string, error) {
		e.view.RLock()
		defer e.view.RUnlock()

		me, _ := e.players.Get(id.PlayerID)
		bal, err := e.ledger.GetBalance(id.PlayerID)
		if err != nil {
			return "", err
		}
		all := e.players.All()
		views := make([]PlayerView, 0, len(all))
		for _, p := range all {
			views = append(views, PlayerView{ID: p.ID, Username: p.Username, CurrentRegion: p.CurrentRegion, LastActive: p.LastActive})
		}
		out = Snapshot{
			Me:        me,
			Balance:   bal,
			Players:   views,
			Regions:   e.territory.Regions(),
			Alliances: e.relations.Alliances(),
			Wars:      e.relations.Wars(),
			Buildings: e.buildings.All(),
			Armies:    e.armies.All(),
		}
		return "", nil
	})
	return out, err
}
