package domain

// ProductionCheckpoint 产出调度的断点：最后一次入账的窗口，以及不足 1 的余数。
// 余数单位是 “资源 × 秒 / 小时”，避免浮点误差。
type ProductionCheckpoint struct {
	LastWindow int64                          `json:"last_window" bson:"last_window"`
	Remainders map[PlayerID]map[Resource]int64 `json:"remainders" bson:"remainders"`
}

func (c ProductionCheckpoint) Clone() ProductionCheckpoint {
	out := ProductionCheckpoint{LastWindow: c.LastWindow}
	if c.Remainders == nil {
		return out
	}
	out.Remainders = make(map[PlayerID]map[Resource]int64, len(c.Remainders))
	for pid, m := range c.Remainders {
		cp := make(map[Resource]int64, len(m))
		for r, v := range m {
			cp[r] = v
		}
		out.Remainders[pid] = cp
	}
	return out
}

// PlayerLedger 持久化用：玩家 + 余额一行。
type PlayerLedger struct {
	Player  Player  `json:"player"`
	Balance Balance `json:"balance"`
}

// WorldState 启动时从存储全量加载的状态。
type WorldState struct {
	Players    []PlayerLedger
	Regions    []Region
	Alliances  []Alliance
	Wars       []War
	Buildings  []Building
	Armies     []ArmyUnit
	Checkpoint *ProductionCheckpoint
}

// WorldSnap 一次写回的脏数据快照，Version 单调递增，高版本覆盖低版本。
type WorldSnap struct {
	Version    uint64
	Players    []PlayerLedger
	Regions    []Region
	Alliances  []Alliance
	Wars       []War
	Buildings  []Building
	Armies     []ArmyUnit
	Removed    Removed
	Checkpoint *ProductionCheckpoint
}

// Removed 补偿回滚时删除的实体（只在启动流程失败时出现）。
type Removed struct {
	Players   []PlayerID
	Buildings []BuildingID
	Armies    []ArmyID
}

func (s *WorldSnap) Empty() bool {
	if s == nil {
		return true
	}
	return len(s.Players) == 0 && len(s.Regions) == 0 && len(s.Alliances) == 0 &&
		len(s.Wars) == 0 && len(s.Buildings) == 0 && len(s.Armies) == 0 &&
		len(s.Removed.Players) == 0 && len(s.Removed.Buildings) == 0 &&
		len(s.Removed.Armies) == 0 && s.Checkpoint == nil
}
