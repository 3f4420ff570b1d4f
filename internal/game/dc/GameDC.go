package dc

import (
	"context"
	"errors"
	"sync"
	"time"

	"Regnum/internal/game/app/port"
	"Regnum/internal/game/domain"
	"Regnum/internal/game/event"
	"Regnum/modules/kit/logx"

	"go.uber.org/zap"
)

const defaultFlushEvery = 3000 * time.Millisecond

// Source 按 id 读取最新状态，由 app.Engine 实现。
type Source interface {
	ReadView(fn func())
	PlayerLedger(id domain.PlayerID) (domain.PlayerLedger, bool)
	RegionState(name string) (domain.Region, bool)
	AllianceByID(id domain.AllianceID) (domain.Alliance, bool)
	WarByID(id domain.WarID) (domain.War, bool)
	BuildingByID(id domain.BuildingID) (domain.Building, bool)
	ArmyByID(id domain.ArmyID) (domain.ArmyUnit, bool)
	WithCheckpoint(fn func(cp domain.ProductionCheckpoint))
}

type dirtySet struct {
	players    map[domain.PlayerID]struct{}
	regions    map[string]struct{}
	alliances  map[domain.AllianceID]struct{}
	wars       map[domain.WarID]struct{}
	buildings  map[domain.BuildingID]struct{}
	armies     map[domain.ArmyID]struct{}
	checkpoint bool
}

func newDirtySet() *dirtySet {
	return &dirtySet{
		players:   make(map[domain.PlayerID]struct{}),
		regions:   make(map[string]struct{}),
		alliances: make(map[domain.AllianceID]struct{}),
		wars:      make(map[domain.WarID]struct{}),
		buildings: make(map[domain.BuildingID]struct{}),
		armies:    make(map[domain.ArmyID]struct{}),
	}
}

func (d *dirtySet) empty() bool {
	return len(d.players) == 0 && len(d.regions) == 0 && len(d.alliances) == 0 &&
		len(d.wars) == 0 && len(d.buildings) == 0 && len(d.armies) == 0 && !d.checkpoint
}

// GameDC 写回缓存：引擎事件作为脏标记，定时把脏实体拼成带版本的快照交给单个写协程。
// 写库失败时快照重新排队，与更新的快照合并，新版本覆盖旧版本。
type GameDC struct {
	repo       port.WorldRepository
	src        Source
	log        logx.Logger
	flushEvery time.Duration
	retryEvery time.Duration

	dirtyMu sync.Mutex
	dirty   *dirtySet

	mu      sync.Mutex
	pending *domain.WorldSnap
	version uint64
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func NewGameDC(repo port.WorldRepository, src Source, log logx.Logger, flushEvery time.Duration) *GameDC {
	if flushEvery <= 0 {
		flushEvery = defaultFlushEvery
	}
	if log == nil {
		log = logx.NewZapLogger(zap.NewNop())
	}
	d := &GameDC{
		repo:       repo,
		src:        src,
		log:        log,
		flushEvery: flushEvery,
		retryEvery: 200 * time.Millisecond,
		dirty:      newDirtySet(),
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go d.writerLoop()
	return d
}

// Load 启动时读取全量状态。
func (d *GameDC) Load(ctx context.Context) (*domain.WorldState, error) {
	if d.repo == nil {
		return nil, errors.New("game repository is nil")
	}
	return d.repo.Load(ctx)
}

// Handle 实现 event.Sink：只记录脏 id，不回调引擎。
func (d *GameDC) Handle(e event.Event) {
	d.dirtyMu.Lock()
	defer d.dirtyMu.Unlock()
	switch e.Kind {
	case event.PlayersChanged, event.ResourcesChanged:
		if e.PlayerID != "" {
			d.dirty.players[e.PlayerID] = struct{}{}
		}
	case event.RegionChanged:
		d.dirty.regions[e.Region] = struct{}{}
	case event.AlliancesChanged:
		d.dirty.alliances[domain.AllianceID(e.Ref)] = struct{}{}
	case event.WarsChanged:
		d.dirty.wars[domain.WarID(e.Ref)] = struct{}{}
	case event.BuildingsChanged:
		d.dirty.buildings[domain.BuildingID(e.Ref)] = struct{}{}
	case event.ArmiesChanged:
		d.dirty.armies[domain.ArmyID(e.Ref)] = struct{}{}
	case event.ProductionTicked:
		d.dirty.checkpoint = true
	}
}

func (d *GameDC) IsDirty() bool {
	d.dirtyMu.Lock()
	defer d.dirtyMu.Unlock()
	return !d.dirty.empty()
}

func (d *GameDC) FlushEvery() time.Duration {
	return d.flushEvery
}

// Flush 取走当前脏集合拼成快照入队，不等待写库。
func (d *GameDC) Flush(ctx context.Context) error {
	if d.repo == nil {
		return errors.New("game repository is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s, ok := d.buildNextSnapshot()
	if !ok {
		return nil
	}
	d.enqueueLatest(s)
	return nil
}

// Run 定时 Flush，ctx 结束时返回。
func (d *GameDC) Run(ctx context.Context) {
	ticker := time.NewTicker(d.flushEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := d.Flush(ctx); err != nil && ctx.Err() == nil {
				d.log.Error("game periodic flush failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close 最后 Flush 一次并等写协程把剩余快照写完。
func (d *GameDC) Close(ctx context.Context) error {
	_ = d.Flush(context.Background())

	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.stop)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *GameDC) takeDirty() *dirtySet {
	d.dirtyMu.Lock()
	defer d.dirtyMu.Unlock()
	if d.dirty.empty() {
		return nil
	}
	out := d.dirty
	d.dirty = newDirtySet()
	return out
}

// buildNextSnapshot 在 view 读锁和调度锁内取脏集合并读状态。
// 带了玩家余额就一定带断点，写进去的余额不会含有断点之后的入账。
func (d *GameDC) buildNextSnapshot() (*domain.WorldSnap, bool) {
	if d.src == nil {
		return nil, false
	}
	var s *domain.WorldSnap
	d.src.ReadView(func() {
		d.src.WithCheckpoint(func(cp domain.ProductionCheckpoint) {
			dirty := d.takeDirty()
			if dirty == nil {
				return
			}
			d.mu.Lock()
			d.version++
			s = &domain.WorldSnap{Version: d.version}
			d.mu.Unlock()
			d.collect(s, dirty)
			if dirty.checkpoint || len(dirty.players) > 0 {
				s.Checkpoint = &cp
			}
		})
	})
	if s == nil || s.Empty() {
		return nil, false
	}
	return s, true
}

func (d *GameDC) collect(s *domain.WorldSnap, dirty *dirtySet) {
	for id := range dirty.players {
		if pl, ok := d.src.PlayerLedger(id); ok {
			s.Players = append(s.Players, pl)
		} else {
			s.Removed.Players = append(s.Removed.Players, id)
		}
	}
	for name := range dirty.regions {
		if r, ok := d.src.RegionState(name); ok {
			s.Regions = append(s.Regions, r)
		}
	}
	for id := range dirty.alliances {
		if a, ok := d.src.AllianceByID(id); ok {
			s.Alliances = append(s.Alliances, a)
		}
	}
	for id := range dirty.wars {
		if w, ok := d.src.WarByID(id); ok {
			s.Wars = append(s.Wars, w)
		}
	}
	for id := range dirty.buildings {
		if b, ok := d.src.BuildingByID(id); ok {
			s.Buildings = append(s.Buildings, b)
		} else {
			s.Removed.Buildings = append(s.Removed.Buildings, id)
		}
	}
	for id := range dirty.armies {
		if u, ok := d.src.ArmyByID(id); ok {
			s.Armies = append(s.Armies, u)
		} else {
			s.Removed.Armies = append(s.Removed.Armies, id)
		}
	}
}

func (d *GameDC) enqueueLatest(s *domain.WorldSnap) {
	if s == nil {
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.pending = merge(d.pending, s)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *GameDC) popPending() *domain.WorldSnap {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.pending
	d.pending = nil
	return s
}

func (d *GameDC) requeueOnError(s *domain.WorldSnap) {
	d.mu.Lock()
	d.pending = merge(s, d.pending)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *GameDC) writerLoop() {
	defer close(d.done)

	for {
		select {
		case <-d.wake:
			d.consumePending(false)
		case <-d.stop:
			d.consumePending(true)
			return
		}
	}
}

// consumePending 关闭阶段最多重试 3 次，避免存储一直不可用时卡住退出。
func (d *GameDC) consumePending(closing bool) {
	attempts := 0
	for {
		s := d.popPending()
		if s == nil {
			return
		}
		if err := d.repo.Save(context.Background(), s); err != nil {
			d.log.Error("game snapshot save failed", zap.Uint64("version", s.Version), zap.Error(err))
			attempts++
			if closing && attempts >= 3 {
				return
			}
			d.requeueOnError(s)
			if !closing {
				select {
				case <-time.After(d.retryEvery):
				case <-d.stop:
					closing = true
				}
			} else {
				time.Sleep(d.retryEvery)
			}
			continue
		}
		attempts = 0
	}
}
