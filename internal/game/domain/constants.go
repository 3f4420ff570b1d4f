package domain

import "time"

var (
	// ConquestCost 占领无主领地的价格。
	ConquestCost = Cost{Iron: 100, Food: 200}
	// WarCost 宣战的价格（由进攻方支付）。
	WarCost = Cost{Iron: 50, Food: 100}
)

const (
	// ProductionCap 产出入账后任一资源都不会超过这个值。
	ProductionCap int64 = 10000
	// TickPeriod 产出调度周期；每小时产出按 rate/60 每周期入账。
	TickPeriod = 60 * time.Second

	// StartingLegionaries 新玩家初始军队。
	StartingLegionaries int64 = 100
)

// StartingBalance 新玩家初始资源 500/300/200/100/50。
var StartingBalance = Balance{Food: 500, Stone: 300, Iron: 200, Coal: 100, Pizza: 50}
