package domain

import "time"

type BuildingID int64

type BuildingType string

const (
	Farm     BuildingType = "farm"
	Quarry   BuildingType = "quarry"
	Mine     BuildingType = "mine"
	Pizzeria BuildingType = "pizzeria"
	Barracks BuildingType = "barracks"
)

// buildCosts 建造价格（固定常量）。
var buildCosts = map[BuildingType]Cost{
	Farm:     {Food: 50, Stone: 100},
	Quarry:   {Stone: 80, Iron: 60},
	Mine:     {Iron: 100, Coal: 80},
	Pizzeria: {Food: 150, Pizza: 30},
	Barracks: {Iron: 200, Stone: 150},
}

// yields 建筑 -> 产出资源；兵营不产出。
var yields = map[BuildingType]Resource{
	Farm:     Food,
	Quarry:   Stone,
	Mine:     Iron,
	Pizzeria: Pizza,
}

const (
	// ProductionPerLevel 每级每小时产出。
	ProductionPerLevel = 10
	// UpgradeStonePerLevel 升级价格 = 当前等级 × 50 石头。
	UpgradeStonePerLevel = 50
)

func (t BuildingType) Valid() bool {
	_, ok := buildCosts[t]
	return ok
}

// BuildCost 返回价格的拷贝，调用方可以随意修改。
func (t BuildingType) BuildCost() Cost {
	c, ok := buildCosts[t]
	if !ok {
		return nil
	}
	return c.clone()
}

// Yield 建筑产出的资源；兵营等不产出的返回 false。
func (t BuildingType) Yield() (Resource, bool) {
	r, ok := yields[t]
	return r, ok
}

// ProductionRate 每小时产出 = 10 × level；不产出资源的建筑为 0。
func (t BuildingType) ProductionRate(level int) int64 {
	if _, ok := yields[t]; !ok {
		return 0
	}
	return int64(level) * ProductionPerLevel
}

// UpgradeCost 从 level 升到 level+1 的价格。
func UpgradeCost(level int) Cost {
	return Cost{Stone: int64(level) * UpgradeStonePerLevel}
}

type Building struct {
	ID             BuildingID   `json:"id" bson:"_id"`
	OwnerID        PlayerID     `json:"owner_id" bson:"owner_id"`
	Region         string       `json:"region" bson:"region"`
	Type           BuildingType `json:"type" bson:"type"`
	Level          int          `json:"level" bson:"level"`
	ProductionRate int64        `json:"production_rate" bson:"production_rate"`
	CreatedAt      time.Time    `json:"created_at" bson:"created_at"`
}
