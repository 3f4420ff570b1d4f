package model

import (
	"encoding/json"
	"time"

	"Regnum/internal/game/domain"
)

type Region struct {
	Name       string `gorm:"column:name;type:varchar(64);primaryKey;not null;" json:"name"`
	Capital    string `gorm:"column:capital;type:varchar(100);comment:首府;" json:"capital"`
	Population int64  `gorm:"column:population;type:bigint;comment:人口;not null;default:0;" json:"population"`
	OwnerID    string `gorm:"column:owner_id;type:varchar(64);comment:归属玩家，空为无主;index;" json:"owner_id"`
}

func (m *Region) TableName() string {
	return "regnum_region"
}

type Alliance struct {
	ID         int64     `gorm:"column:id;type:bigint;primaryKey;not null;" json:"id"`
	ProposerID string    `gorm:"column:proposer_id;type:varchar(64);not null;index;" json:"proposer_id"`
	TargetID   string    `gorm:"column:target_id;type:varchar(64);not null;index;" json:"target_id"`
	Message    string    `gorm:"column:message;type:varchar(500);" json:"message"`
	State      string    `gorm:"column:state;type:varchar(16);comment:pending/active/rejected;not null;" json:"state"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamp;not null;" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;type:timestamp;not null;" json:"updated_at"`
}

func (m *Alliance) TableName() string {
	return "regnum_alliance"
}

type War struct {
	ID           int64     `gorm:"column:id;type:bigint;primaryKey;not null;" json:"id"`
	AttackerID   string    `gorm:"column:attacker_id;type:varchar(64);not null;index;" json:"attacker_id"`
	DefenderID   string    `gorm:"column:defender_id;type:varchar(64);not null;index;" json:"defender_id"`
	TargetRegion string    `gorm:"column:target_region;type:varchar(64);not null;" json:"target_region"`
	State        string    `gorm:"column:state;type:varchar(16);comment:declared/active/resolved;not null;" json:"state"`
	Result       string    `gorm:"column:result;type:varchar(200);" json:"result"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamp;not null;" json:"created_at"`
}

func (m *War) TableName() string {
	return "regnum_war"
}

type Building struct {
	ID             int64     `gorm:"column:id;type:bigint;primaryKey;not null;" json:"id"`
	OwnerID        string    `gorm:"column:owner_id;type:varchar(64);not null;index;" json:"owner_id"`
	Region         string    `gorm:"column:region;type:varchar(64);not null;" json:"region"`
	Type           string    `gorm:"column:type;type:varchar(16);not null;" json:"type"`
	Level          int       `gorm:"column:level;type:int;not null;default:1;" json:"level"`
	ProductionRate int64     `gorm:"column:production_rate;type:bigint;comment:每小时产出;not null;default:0;" json:"production_rate"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamp;not null;" json:"created_at"`
}

func (m *Building) TableName() string {
	return "regnum_building"
}

type Army struct {
	ID           int64  `gorm:"column:id;type:bigint;primaryKey;not null;" json:"id"`
	OwnerID      string `gorm:"column:owner_id;type:varchar(64);not null;index;" json:"owner_id"`
	Region       string `gorm:"column:region;type:varchar(64);not null;" json:"region"`
	Type         string `gorm:"column:type;type:varchar(16);not null;" json:"type"`
	Quantity     int64  `gorm:"column:quantity;type:bigint;not null;" json:"quantity"`
	AttackPower  int    `gorm:"column:attack_power;type:int;not null;" json:"attack_power"`
	DefensePower int    `gorm:"column:defense_power;type:int;not null;" json:"defense_power"`
}

func (m *Army) TableName() string {
	return "regnum_army"
}

// Checkpoint 产出断点只有一行，余数以 JSON 存。
type Checkpoint struct {
	ID         string `gorm:"column:id;type:varchar(32);primaryKey;not null;" json:"id"`
	LastWindow int64  `gorm:"column:last_window;type:bigint;not null;" json:"last_window"`
	Remainders string `gorm:"column:remainders;type:text;" json:"remainders"`
}

func (m *Checkpoint) TableName() string {
	return "regnum_checkpoint"
}

const CheckpointID = "production"

// All 需要 AutoMigrate 的表。
func All() []any {
	return []any{&Player{}, &Region{}, &Alliance{}, &War{}, &Building{}, &Army{}, &Checkpoint{}}
}

func RegionFromDomain(r domain.Region) *Region {
	return &Region{Name: r.Name, Capital: r.Capital, Population: r.Population, OwnerID: string(r.OwnerID)}
}

func (m *Region) ToDomain() domain.Region {
	return domain.Region{Name: m.Name, Capital: m.Capital, Population: m.Population, OwnerID: domain.PlayerID(m.OwnerID)}
}

func AllianceFromDomain(a domain.Alliance) *Alliance {
	return &Alliance{
		ID:         int64(a.ID),
		ProposerID: string(a.ProposerID),
		TargetID:   string(a.TargetID),
		Message:    a.Message,
		State:      string(a.State),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func (m *Alliance) ToDomain() domain.Alliance {
	return domain.Alliance{
		ID:         domain.AllianceID(m.ID),
		ProposerID: domain.PlayerID(m.ProposerID),
		TargetID:   domain.PlayerID(m.TargetID),
		Message:    m.Message,
		State:      domain.AllianceState(m.State),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func WarFromDomain(w domain.War) *War {
	return &War{
		ID:           int64(w.ID),
		AttackerID:   string(w.AttackerID),
		DefenderID:   string(w.DefenderID),
		TargetRegion: w.TargetRegion,
		State:        string(w.State),
		Result:       w.Result,
		CreatedAt:    w.CreatedAt,
	}
}

func (m *War) ToDomain() domain.War {
	return domain.War{
		ID:           domain.WarID(m.ID),
		AttackerID:   domain.PlayerID(m.AttackerID),
		DefenderID:   domain.PlayerID(m.DefenderID),
		TargetRegion: m.TargetRegion,
		State:        domain.WarState(m.State),
		Result:       m.Result,
		CreatedAt:    m.CreatedAt,
	}
}

func BuildingFromDomain(b domain.Building) *Building {
	return &Building{
		ID:             int64(b.ID),
		OwnerID:        string(b.OwnerID),
		Region:         b.Region,
		Type:           string(b.Type),
		Level:          b.Level,
		ProductionRate: b.ProductionRate,
		CreatedAt:      b.CreatedAt,
	}
}

func (m *Building) ToDomain() domain.Building {
	return domain.Building{
		ID:             domain.BuildingID(m.ID),
		OwnerID:        domain.PlayerID(m.OwnerID),
		Region:         m.Region,
		Type:           domain.BuildingType(m.Type),
		Level:          m.Level,
		ProductionRate: m.ProductionRate,
		CreatedAt:      m.CreatedAt,
	}
}

func ArmyFromDomain(u domain.ArmyUnit) *Army {
	return &Army{
		ID:           int64(u.ID),
		OwnerID:      string(u.OwnerID),
		Region:       u.Region,
		Type:         string(u.Type),
		Quantity:     u.Quantity,
		AttackPower:  u.AttackPower,
		DefensePower: u.DefensePower,
	}
}

func (m *Army) ToDomain() domain.ArmyUnit {
	return domain.ArmyUnit{
		ID:           domain.ArmyID(m.ID),
		OwnerID:      domain.PlayerID(m.OwnerID),
		Region:       m.Region,
		Type:         domain.UnitType(m.Type),
		Quantity:     m.Quantity,
		AttackPower:  m.AttackPower,
		DefensePower: m.DefensePower,
	}
}

func CheckpointFromDomain(cp domain.ProductionCheckpoint) (*Checkpoint, error) {
	raw, err := json.Marshal(cp.Remainders)
	if err != nil {
		return nil, err
	}
	return &Checkpoint{ID: CheckpointID, LastWindow: cp.LastWindow, Remainders: string(raw)}, nil
}

func (m *Checkpoint) ToDomain() (domain.ProductionCheckpoint, error) {
	cp := domain.ProductionCheckpoint{LastWindow: m.LastWindow}
	if m.Remainders == "" {
		return cp, nil
	}
	if err := json.Unmarshal([]byte(m.Remainders), &cp.Remainders); err != nil {
		return domain.ProductionCheckpoint{}, err
	}
	return cp, nil
}

// CheckpointDoc mongodb 文档，_id 固定为 CheckpointID。
type CheckpointDoc struct {
	ID         string                                        `bson:"_id"`
	LastWindow int64                                         `bson:"last_window"`
	Remainders map[domain.PlayerID]map[domain.Resource]int64 `bson:"remainders"`
}
