package domain

type ArmyID int64

type UnitType string

const (
	Legionary UnitType = "legionary"
	Archer    UnitType = "archer"
	Cavalry   UnitType = "cavalry"
	Catapult  UnitType = "catapult"
)

// UnitStats 兵种的固定属性，不随实例变化。
type UnitStats struct {
	Cost    Cost
	Attack  int
	Defense int
}

var unitStats = map[UnitType]UnitStats{
	Legionary: {Cost: Cost{Food: 20, Iron: 10}, Attack: 10, Defense: 12},
	Archer:    {Cost: Cost{Food: 15, Iron: 25}, Attack: 15, Defense: 8},
	Cavalry:   {Cost: Cost{Food: 40, Iron: 30}, Attack: 20, Defense: 18},
	Catapult:  {Cost: Cost{Iron: 80, Stone: 60}, Attack: 30, Defense: 5},
}

func (t UnitType) Valid() bool {
	_, ok := unitStats[t]
	return ok
}

func (t UnitType) Stats() (UnitStats, bool) {
	s, ok := unitStats[t]
	if !ok {
		return UnitStats{}, false
	}
	s.Cost = s.Cost.clone()
	return s, true
}

// ArmyUnit 某玩家在某领地的一个兵种堆叠。
type ArmyUnit struct {
	ID           ArmyID   `json:"id" bson:"_id"`
	OwnerID      PlayerID `json:"owner_id" bson:"owner_id"`
	Region       string   `json:"region" bson:"region"`
	Type         UnitType `json:"type" bson:"type"`
	Quantity     int64    `json:"quantity" bson:"quantity"`
	AttackPower  int      `json:"attack_power" bson:"attack_power"`
	DefensePower int      `json:"defense_power" bson:"defense_power"`
}
