package port

import (
	"context"

	"Regnum/internal/game/domain"
)

// WorldRepository 引擎状态的持久化端口。Load 在启动时调用一次；Save 只写快照里的脏实体。
type WorldRepository interface {
	Load(ctx context.Context) (*domain.WorldState, error)
	Save(ctx context.Context, s *domain.WorldSnap) error
}
