package model

import (
	"time"

	"Regnum/internal/game/domain"
)

// Player 玩家档案 + 余额一行。
type Player struct {
	ID            string    `gorm:"column:id;type:varchar(64);comment:身份服务签发的玩家id;primaryKey;not null;" json:"id"`
	Username      string    `gorm:"column:username;type:varchar(100);not null;default:'';" json:"username"`
	Email         string    `gorm:"column:email;type:varchar(200);not null;default:'';" json:"email"`
	CurrentRegion string    `gorm:"column:current_region;type:varchar(64);comment:当前领地（展示用）;" json:"current_region"`
	Food          int64     `gorm:"column:food;type:bigint;comment:食物;not null;default:0;" json:"food"`
	Stone         int64     `gorm:"column:stone;type:bigint;comment:石头;not null;default:0;" json:"stone"`
	Iron          int64     `gorm:"column:iron;type:bigint;comment:铁;not null;default:0;" json:"iron"`
	Coal          int64     `gorm:"column:coal;type:bigint;comment:煤;not null;default:0;" json:"coal"`
	Pizza         int64     `gorm:"column:pizza;type:bigint;comment:披萨;not null;default:0;" json:"pizza"`
	LastActive    time.Time `gorm:"column:last_active;type:timestamp;comment:最后活跃;" json:"last_active"`
	CreatedAt     time.Time `gorm:"column:created_at;type:timestamp;not null;default:CURRENT_TIMESTAMP;" json:"created_at"`
}

func (m *Player) TableName() string {
	return "regnum_player"
}

func PlayerFromDomain(p domain.PlayerLedger) *Player {
	return &Player{
		ID:            string(p.Player.ID),
		Username:      p.Player.Username,
		Email:         p.Player.Email,
		CurrentRegion: p.Player.CurrentRegion,
		Food:          p.Balance.Food,
		Stone:         p.Balance.Stone,
		Iron:          p.Balance.Iron,
		Coal:          p.Balance.Coal,
		Pizza:         p.Balance.Pizza,
		LastActive:    p.Player.LastActive,
		CreatedAt:     p.Player.CreatedAt,
	}
}

func (m *Player) ToDomain() domain.PlayerLedger {
	return domain.PlayerLedger{
		Player: domain.Player{
			ID:            domain.PlayerID(m.ID),
			Username:      m.Username,
			Email:         m.Email,
			CurrentRegion: m.CurrentRegion,
			LastActive:    m.LastActive,
			CreatedAt:     m.CreatedAt,
		},
		Balance: domain.Balance{Food: m.Food, Stone: m.Stone, Iron: m.Iron, Coal: m.Coal, Pizza: m.Pizza},
	}
}

// PlayerDoc mongodb 文档。
type PlayerDoc struct {
	ID            domain.PlayerID `bson:"_id"`
	Username      string          `bson:"username"`
	Email         string          `bson:"email"`
	CurrentRegion string          `bson:"current_region"`
	LastActive    time.Time       `bson:"last_active"`
	CreatedAt     time.Time       `bson:"created_at"`
	Balance       domain.Balance  `bson:"balance"`
}

func PlayerDocFromDomain(p domain.PlayerLedger) PlayerDoc {
	return PlayerDoc{
		ID:            p.Player.ID,
		Username:      p.Player.Username,
		Email:         p.Player.Email,
		CurrentRegion: p.Player.CurrentRegion,
		LastActive:    p.Player.LastActive,
		CreatedAt:     p.Player.CreatedAt,
		Balance:       p.Balance,
	}
}

func (d PlayerDoc) ToDomain() domain.PlayerLedger {
	return domain.PlayerLedger{
		Player: domain.Player{
			ID:            d.ID,
			Username:      d.Username,
			Email:         d.Email,
			CurrentRegion: d.CurrentRegion,
			LastActive:    d.LastActive,
			CreatedAt:     d.CreatedAt,
		},
		Balance: d.Balance,
	}
}
