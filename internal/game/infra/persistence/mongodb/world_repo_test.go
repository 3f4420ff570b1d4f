package mongodb

import (
	"context"
	"testing"

	"Regnum/internal/game/domain"
	"Regnum/internal/game/errs"
)

func TestWorldRepository_未初始化返回基础设施错误(t *testing.T) {
	r := NewWorldRepository(nil)

	if _, err := r.Load(context.Background()); errs.KindOf(err) != errs.KindInfra {
		t.Fatalf("期望 KindInfra, got=%v", err)
	}
	if err := r.Save(context.Background(), &domain.WorldSnap{Version: 1}); errs.KindOf(err) != errs.KindInfra {
		t.Fatalf("期望 KindInfra, got=%v", err)
	}
	if err := r.Save(context.Background(), nil); err != nil {
		t.Fatalf("期望 nil 快照直接返回, got=%v", err)
	}
}
