package app

import "Regnum/internal/game/domain"

// 下面这些方法供写回缓存按脏 id 取最新状态，调用方在 ReadView 内调用。

// ReadView 持 view 读锁执行 fn：取到的状态里不会有初始化到一半的玩家。
func (e *Engine) ReadView(fn func()) {
	e.view.RLock()
	defer e.view.RUnlock()
	fn()
}

func (e *Engine) PlayerLedger(id domain.PlayerID) (domain.PlayerLedger, bool) {
	pl, ok := e.players.Get(id)
	if !ok {
		return domain.PlayerLedger{}, false
	}
	bal, err := e.ledger.GetBalance(id)
	if err != nil {
		return domain.PlayerLedger{}, false
	}
	return domain.PlayerLedger{Player: pl, Balance: bal}, true
}

func (e *Engine) RegionState(name string) (domain.Region, bool) {
	r, err := e.territory.Region(name)
	return r, err == nil
}

func (e *Engine) AllianceByID(id domain.AllianceID) (domain.Alliance, bool) {
	return e.relations.Alliance(id)
}

func (e *Engine) WarByID(id domain.WarID) (domain.War, bool) {
	return e.relations.War(id)
}

func (e *Engine) BuildingByID(id domain.BuildingID) (domain.Building, bool) {
	b, err := e.buildings.Get(id)
	return b, err == nil
}

func (e *Engine) ArmyByID(id domain.ArmyID) (domain.ArmyUnit, bool) {
	return e.armies.Get(id)
}

// WithCheckpoint 在入账间隙执行 fn，fn 里读到的余额和 cp 对应同一组已完成窗口。
func (e *Engine) WithCheckpoint(fn func(cp domain.ProductionCheckpoint)) {
	e.scheduler.WithCheckpoint(fn)
}
