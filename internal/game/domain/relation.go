package domain

import "time"

type AllianceID int64

type AllianceState string

const (
	AlliancePending  AllianceState = "pending"
	AllianceActive   AllianceState = "active"
	AllianceRejected AllianceState = "rejected"
)

// Blocking pending/active 会阻止同一对玩家再次发起结盟；rejected 不会。
func (s AllianceState) Blocking() bool {
	return s == AlliancePending || s == AllianceActive
}

type Alliance struct {
	ID         AllianceID    `json:"id" bson:"_id"`
	ProposerID PlayerID      `json:"proposer_id" bson:"proposer_id"`
	TargetID   PlayerID      `json:"target_id" bson:"target_id"`
	Message    string        `json:"message" bson:"message"`
	State      AllianceState `json:"state" bson:"state"`
	CreatedAt  time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" bson:"updated_at"`
}

// Involves 判断玩家是否是这条结盟记录的任一方。
func (a Alliance) Involves(id PlayerID) bool {
	return a.ProposerID == id || a.TargetID == id
}

type WarID int64

type WarState string

const (
	WarDeclared WarState = "declared"
	WarActive   WarState = "active"
	WarResolved WarState = "resolved"
)

// War 宣战记录。引擎只负责 declared，后续状态暂无驱动。
type War struct {
	ID           WarID     `json:"id" bson:"_id"`
	AttackerID   PlayerID  `json:"attacker_id" bson:"attacker_id"`
	DefenderID   PlayerID  `json:"defender_id" bson:"defender_id"`
	TargetRegion string    `json:"target_region" bson:"target_region"`
	State        WarState  `json:"state" bson:"state"`
	Result       string    `json:"result,omitempty" bson:"result,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

func (w War) Involves(id PlayerID) bool {
	return w.AttackerID == id || w.DefenderID == id
}
