package domain

import "time"

// PlayerID 由外部身份服务签发的稳定标识，空字符串表示未认证。
type PlayerID string

// Identity 每条命令都会携带的调用方身份。
type Identity struct {
	PlayerID PlayerID `json:"player_id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
}

func (i Identity) Authenticated() bool {
	return i.PlayerID != ""
}

// Player 玩家档案；引擎内从不删除。
type Player struct {
	ID            PlayerID  `json:"id" bson:"_id"`
	Username      string    `json:"username" bson:"username"`
	Email         string    `json:"email" bson:"email"`
	CurrentRegion string    `json:"current_region" bson:"current_region"` // 仅展示用
	LastActive    time.Time `json:"last_active" bson:"last_active"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}
