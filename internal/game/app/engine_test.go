package app

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"Regnum/internal/game/domain"
	"Regnum/modules/kit/logx"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NextID() int64 { return s.n.Add(1) }

func regions(names ...string) []domain.Region {
	out := make([]domain.Region, 0, len(names))
	for _, n := range names {
		out = append(out, domain.Region{Name: n})
	}
	return out
}

func newEngine(t *testing.T, names ...string) *Engine {
	t.Helper()
	if len(names) == 0 {
		names = []string{"lazio", "sicilia", "puglia"}
	}
	e, err := New(Deps{IDs: &seqIDs{}, Regions: regions(names...), Rand: rand.New(rand.NewSource(1))})
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func who(id string) domain.Identity {
	return domain.Identity{PlayerID: domain.PlayerID(id), Username: id, Email: id + "@example.com"}
}

func TestEnter_新玩家初始化(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	p, err := e.Enter(ctx, who("a"))
	if err != nil {
		t.Fatalf("Enter err=%v", err)
	}
	if p.CurrentRegion == "" || p.Username != "a" {
		t.Fatalf("期望分配领地, got=%+v", p)
	}
	bal, _ := e.Balance(ctx, who("a"))
	if bal != domain.StartingBalance {
		t.Fatalf("期望初始资源 %+v, got=%+v", domain.StartingBalance, bal)
	}
	if owner, _ := e.territory.Owner(p.CurrentRegion); owner != "a" {
		t.Fatalf("期望领地归属 a, got=%q", owner)
	}

	bs := e.buildings.ByOwner("a")
	if len(bs) != 2 {
		t.Fatalf("期望农场 + 兵营, got=%+v", bs)
	}
	for _, b := range bs {
		switch b.Type {
		case domain.Farm:
			if b.ProductionRate != 10 {
				t.Fatalf("期望农场产出 10, got=%d", b.ProductionRate)
			}
		case domain.Barracks:
			if b.ProductionRate != 0 {
				t.Fatalf("期望兵营产出 0, got=%d", b.ProductionRate)
			}
		default:
			t.Fatalf("意外的建筑 %+v", b)
		}
	}
	units := e.armies.ByOwner("a")
	if len(units) != 1 || units[0].Type != domain.Legionary || units[0].Quantity != 100 {
		t.Fatalf("期望 100 军团兵, got=%+v", units)
	}

	// 幂等
	if _, err := e.Enter(ctx, who("a")); err != nil {
		t.Fatalf("Enter again err=%v", err)
	}
	if len(e.buildings.ByOwner("a")) != 2 || len(e.territory.OwnedBy("a")) != 1 {
		t.Fatalf("期望重复进入不再初始化")
	}
}

func TestEnter_并发只初始化一次(t *testing.T) {
	e := newEngine(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Balance(context.Background(), who("a")); err != nil {
				t.Errorf("Balance err=%v", err)
			}
		}()
	}
	wg.Wait()
	if len(e.territory.OwnedBy("a")) != 1 || len(e.armies.ByOwner("a")) != 1 {
		t.Fatalf("期望只初始化一次")
	}
}

func TestCommand_未认证不触碰注册表(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	if _, err := e.ConquerTerritory(ctx, domain.Identity{}, "lazio"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("期望 Unauthenticated, got=%v", err)
	}
	if _, err := e.Snapshot(ctx, domain.Identity{Username: "x"}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("期望 Unauthenticated, got=%v", err)
	}
	if len(e.players.All()) != 0 || len(e.ledger.Players()) != 0 {
		t.Fatalf("期望没有任何玩家")
	}
	if owner, _ := e.territory.Owner("lazio"); owner != "" {
		t.Fatalf("期望领地仍无主")
	}
}

func TestEnter_地图满了回滚(t *testing.T) {
	e := newEngine(t, "lazio")
	ctx := context.Background()
	if _, err := e.Enter(ctx, who("a")); err != nil {
		t.Fatalf("Enter a err=%v", err)
	}

	_, err := e.Enter(ctx, who("b"))
	if !errors.Is(err, domain.ErrRegionOccupied) {
		t.Fatalf("期望 RegionOccupied, got=%v", err)
	}
	if e.players.Exists("b") || e.ledger.Has("b") {
		t.Fatalf("期望回滚 b 的账本和档案")
	}
	if owner, _ := e.territory.Owner("lazio"); owner != "a" {
		t.Fatalf("期望 lazio 仍归 a, got=%q", owner)
	}
}

func TestConquer_扣费并赠送农场(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	a, _ := e.Enter(ctx, who("a"))

	var free string
	for _, r := range e.territory.Regions() {
		if !r.Owned() {
			free = r.Name
			break
		}
	}
	reg, err := e.ConquerTerritory(ctx, who("a"), free)
	if err != nil {
		t.Fatalf("Conquer err=%v", err)
	}
	if reg.OwnerID != "a" {
		t.Fatalf("期望归属 a, got=%+v", reg)
	}
	bal, _ := e.Balance(ctx, who("a"))
	if bal.Iron != 100 || bal.Food != 300 {
		t.Fatalf("期望扣 100 iron + 200 food, got=%+v", bal)
	}
	if !e.buildings.HasType("a", free, domain.Farm) {
		t.Fatalf("期望新领地有农场")
	}
	if p, _ := e.players.Get("a"); p.CurrentRegion != free || p.CurrentRegion == a.CurrentRegion {
		t.Fatalf("期望当前领地切到 %s, got=%s", free, p.CurrentRegion)
	}

	// 新领地没有兵营
	if _, err := e.TrainUnits(ctx, who("a"), free, domain.Legionary, 1); !errors.Is(err, domain.ErrBarracksRequired) {
		t.Fatalf("期望 BarracksRequired, got=%v", err)
	}
	if _, err := e.TrainUnits(ctx, who("a"), a.CurrentRegion, domain.Legionary, 1); err != nil {
		t.Fatalf("期望老家可以训练, err=%v", err)
	}
}

func TestDeclareWar_然后占领敌方领地被拒(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	_, _ = e.Enter(ctx, who("a"))
	b, _ := e.Enter(ctx, who("b"))

	w, err := e.DeclareWar(ctx, who("a"), "b", b.CurrentRegion)
	if err != nil {
		t.Fatalf("DeclareWar err=%v", err)
	}
	if w.State != domain.WarDeclared || w.DefenderID != "b" {
		t.Fatalf("期望 declared, got=%+v", w)
	}
	bal, _ := e.Balance(ctx, who("a"))
	if bal.Iron != 150 || bal.Food != 400 {
		t.Fatalf("期望扣 50 iron + 100 food, got=%+v", bal)
	}

	if _, err := e.ConquerTerritory(ctx, who("a"), b.CurrentRegion); !errors.Is(err, domain.ErrRegionOccupied) {
		t.Fatalf("期望 RegionOccupied, got=%v", err)
	}
	if after, _ := e.Balance(ctx, who("a")); after != bal {
		t.Fatalf("期望占领失败不扣费, got=%+v", after)
	}
}

func TestAlliance_通过引擎(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	_, _ = e.Enter(ctx, who("a"))

	if _, err := e.ProposeAlliance(ctx, who("a"), "b", "hi"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("期望未进入过的玩家 NotFound, got=%v", err)
	}
	_, _ = e.Enter(ctx, who("b"))
	al, err := e.ProposeAlliance(ctx, who("a"), "b", "hi")
	if err != nil {
		t.Fatalf("Propose err=%v", err)
	}
	if _, err := e.AcceptAlliance(ctx, who("a"), al.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("期望发起方不能接受, got=%v", err)
	}
	got, err := e.AcceptAlliance(ctx, who("b"), al.ID)
	if err != nil || got.State != domain.AllianceActive {
		t.Fatalf("期望 active, got=%+v err=%v", got, err)
	}
}

func TestSnapshot_只包含自己的余额(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	_, _ = e.Enter(ctx, who("a"))
	_, _ = e.DeclareWar(ctx, who("a"), "b", "lazio") // b 不存在

	snap, err := e.Snapshot(ctx, who("b"))
	if err != nil {
		t.Fatalf("Snapshot err=%v", err)
	}
	if snap.Me.ID != "b" || snap.Balance != domain.StartingBalance {
		t.Fatalf("期望 b 的档案和余额, got=%+v", snap.Me)
	}
	if len(snap.Players) != 2 || len(snap.Regions) != 3 || len(snap.Buildings) != 4 || len(snap.Armies) != 2 {
		t.Fatalf("期望全部公开实体, got players=%d regions=%d buildings=%d armies=%d",
			len(snap.Players), len(snap.Regions), len(snap.Buildings), len(snap.Armies))
	}
	if len(snap.Wars) != 0 {
		t.Fatalf("期望宣战失败没有记录")
	}
}

func TestRestore_回填后状态一致(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	a, _ := e.Enter(ctx, who("a"))
	_, _ = e.BuildStructure(ctx, who("a"), a.CurrentRegion, domain.Quarry)

	state := &domain.WorldState{Regions: e.territory.Regions(), Buildings: e.buildings.All(), Armies: e.armies.All()}
	for _, p := range e.players.All() {
		pl, _ := e.PlayerLedger(p.ID)
		state.Players = append(state.Players, pl)
	}
	cp := e.scheduler.Checkpoint()
	cp.LastWindow = 42
	state.Checkpoint = &cp

	next := newEngine(t)
	next.Restore(state)

	before, _ := e.Balance(ctx, who("a"))
	after, err := next.Balance(ctx, who("a"))
	if err != nil || after != before {
		t.Fatalf("期望余额一致 %+v, got=%+v err=%v", before, after, err)
	}
	if len(next.buildings.ByOwner("a")) != 3 || len(next.territory.OwnedBy("a")) != 1 {
		t.Fatalf("期望建筑和领地回填")
	}
	if next.scheduler.Checkpoint().LastWindow != 42 {
		t.Fatalf("期望断点回填")
	}
}

func TestRun_业务拒绝只记一条INFO(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e, err := New(Deps{IDs: &seqIDs{}, Regions: regions("lazio", "sicilia"), Logger: logx.NewZapLogger(zap.New(core))})
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	defer e.Close()
	ctx := context.Background()
	a, _ := e.Enter(ctx, who("a"))

	_, _ = e.TrainUnits(ctx, who("a"), a.CurrentRegion, domain.Catapult, 100)

	entries := logs.FilterMessageSnippet("game.army.train").All()
	if len(entries) != 1 || entries[0].Level != zap.InfoLevel {
		t.Fatalf("期望一条 INFO, got=%+v", entries)
	}
}
