package dc

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"Regnum/internal/game/app"
	"Regnum/internal/game/domain"
	"Regnum/internal/game/event"
	"Regnum/internal/game/infra/persistence/memory"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NextID() int64 { return s.n.Add(1) }

func newEngine(t *testing.T) *app.Engine {
	t.Helper()
	e, err := app.New(app.Deps{
		IDs:     &seqIDs{},
		Regions: []domain.Region{{Name: "lazio"}, {Name: "sicilia"}},
		Rand:    rand.New(rand.NewSource(1)),
	})
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("等待超时")
}

func TestGameDC_脏实体写回并可重启回填(t *testing.T) {
	e := newEngine(t)
	repo := memory.NewWorldRepository()
	d := NewGameDC(repo, e, nil, time.Hour)
	e.Bus().AddSink(d)

	ctx := context.Background()
	p, _ := e.Enter(ctx, domain.Identity{PlayerID: "a", Username: "a"})
	_, _ = e.BuildStructure(ctx, domain.Identity{PlayerID: "a"}, p.CurrentRegion, domain.Quarry)
	if !d.IsDirty() {
		t.Fatalf("期望有脏数据")
	}
	if err := d.Close(ctx); err != nil {
		t.Fatalf("Close err=%v", err)
	}

	s, _ := repo.Load(ctx)
	if len(s.Players) != 1 || len(s.Buildings) != 3 || len(s.Armies) != 1 || len(s.Regions) != 1 {
		t.Fatalf("期望写回全部脏实体, got players=%d buildings=%d armies=%d regions=%d",
			len(s.Players), len(s.Buildings), len(s.Armies), len(s.Regions))
	}

	next := newEngine(t)
	next.Restore(s)
	want, _ := e.Balance(ctx, domain.Identity{PlayerID: "a"})
	got, _ := next.Balance(ctx, domain.Identity{PlayerID: "a"})
	if got != want {
		t.Fatalf("期望余额一致 %+v, got=%+v", want, got)
	}
}

func TestGameDC_回滚的实体从存储删除(t *testing.T) {
	e := newEngine(t)
	repo := memory.NewWorldRepository()
	d := NewGameDC(repo, e, nil, time.Hour)
	e.Bus().AddSink(d)
	ctx := context.Background()

	_ = repo.Save(ctx, &domain.WorldSnap{Version: 1, Buildings: []domain.Building{{ID: 999}}})
	d.Handle(event.Event{Kind: event.BuildingsChanged, Ref: 999})
	if err := d.Flush(ctx); err != nil {
		t.Fatalf("Flush err=%v", err)
	}
	waitFor(t, func() bool {
		s, _ := repo.Load(ctx)
		return len(s.Buildings) == 0
	})
	_ = d.Close(ctx)
}

type flakyRepo struct {
	mu    sync.Mutex
	fails int
	saved []*domain.WorldSnap
}

func (r *flakyRepo) Load(context.Context) (*domain.WorldState, error) { return &domain.WorldState{}, nil }

func (r *flakyRepo) Save(_ context.Context, s *domain.WorldSnap) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fails > 0 {
		r.fails--
		return errors.New("store down")
	}
	r.saved = append(r.saved, s)
	return nil
}

func (r *flakyRepo) savedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func TestGameDC_写库失败后重试(t *testing.T) {
	e := newEngine(t)
	repo := &flakyRepo{fails: 2}
	d := NewGameDC(repo, e, nil, time.Hour)
	d.retryEvery = time.Millisecond
	e.Bus().AddSink(d)

	_, _ = e.Enter(context.Background(), domain.Identity{PlayerID: "a"})
	_ = d.Flush(context.Background())
	waitFor(t, func() bool { return repo.savedCount() == 1 })

	repo.mu.Lock()
	s := repo.saved[0]
	repo.mu.Unlock()
	if len(s.Players) != 1 || s.Players[0].Player.ID != "a" {
		t.Fatalf("期望重试后写入玩家 a, got=%+v", s.Players)
	}
	_ = d.Close(context.Background())
}

func TestMerge_新版本覆盖旧版本(t *testing.T) {
	older := &domain.WorldSnap{
		Version:   1,
		Buildings: []domain.Building{{ID: 1, Level: 1}, {ID: 2, Level: 1}},
	}
	newer := &domain.WorldSnap{
		Version:   2,
		Buildings: []domain.Building{{ID: 1, Level: 3}},
		Removed:   domain.Removed{Buildings: []domain.BuildingID{2}},
	}
	m := merge(newer, older)
	if m.Version != 2 || len(m.Buildings) != 1 || m.Buildings[0].Level != 3 {
		t.Fatalf("期望只剩建筑 1 且为 3 级, got=%+v", m.Buildings)
	}
	if len(m.Removed.Buildings) != 1 || m.Removed.Buildings[0] != 2 {
		t.Fatalf("期望删除建筑 2, got=%+v", m.Removed)
	}
}

// flushOnCredit 第一次入账时从另一个协程触发 Flush，模拟定时写回落在 Tick 中间。
type flushOnCredit struct {
	once    sync.Once
	d       *GameDC
	flushed chan struct{}
}

func (f *flushOnCredit) Handle(e event.Event) {
	if e.Kind != event.ResourcesChanged {
		return
	}
	f.once.Do(func() {
		go func() {
			_ = f.d.Flush(context.Background())
			close(f.flushed)
		}()
		select {
		case <-f.flushed:
		case <-time.After(50 * time.Millisecond):
		}
	})
}

func TestGameDC_入账中途写回后重启同一窗口不重复入账(t *testing.T) {
	e := newEngine(t)
	repo := memory.NewWorldRepository()
	d := NewGameDC(repo, e, nil, time.Hour)
	e.Bus().AddSink(d)
	t.Cleanup(func() { _ = d.Close(context.Background()) })

	ctx := context.Background()
	id := domain.Identity{PlayerID: "a", Username: "a"}
	if _, err := e.Enter(ctx, id); err != nil {
		t.Fatalf("Enter err=%v", err)
	}
	before, _ := e.Balance(ctx, id)

	f := &flushOnCredit{d: d, flushed: make(chan struct{})}
	e.Bus().AddSink(f)
	const window = 100
	if _, err := e.Scheduler().Tick(ctx, window); err != nil {
		t.Fatalf("Tick err=%v", err)
	}
	<-f.flushed
	live, _ := e.Balance(ctx, id)
	if live.Food <= before.Food {
		t.Fatalf("期望入账后粮食增加, before=%d live=%d", before.Food, live.Food)
	}

	var s *domain.WorldState
	waitFor(t, func() bool {
		s, _ = repo.Load(ctx)
		return len(s.Players) == 1 && s.Players[0].Balance.Food == live.Food
	})
	if s.Checkpoint == nil || s.Checkpoint.LastWindow != window {
		t.Fatalf("期望断点和余额一起写入窗口 %d, got=%+v", window, s.Checkpoint)
	}

	next := newEngine(t)
	next.Restore(s)
	rep, err := next.Scheduler().Tick(ctx, window)
	if err != nil {
		t.Fatalf("Tick err=%v", err)
	}
	if !rep.Skipped {
		t.Fatalf("期望重启后同一窗口跳过")
	}
	got, _ := next.Balance(ctx, id)
	if got.Food != live.Food {
		t.Fatalf("期望粮食 %d, got=%d", live.Food, got.Food)
	}
}
