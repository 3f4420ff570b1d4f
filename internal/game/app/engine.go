package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"Regnum/internal/game/army"
	"Regnum/internal/game/building"
	"Regnum/internal/game/catalog"
	"Regnum/internal/game/domain"
	"Regnum/internal/game/event"
	"Regnum/internal/game/ledger"
	"Regnum/internal/game/production"
	"Regnum/internal/game/relation"
	"Regnum/internal/game/territory"
	"Regnum/internal/shared/utils"
	"Regnum/modules/kit/logx"

	"go.uber.org/zap"
)

type IDGen interface {
	NextID() int64
}

type Deps struct {
	Logger logx.Logger
	// Bus 为空时引擎自己创建并在 Close 时关闭。
	Bus *event.Bus
	// IDs 为空时使用默认 snowflake。
	IDs IDGen
	// Regions 为空时使用内置目录。
	Regions    []domain.Region
	Production production.Options
	Rand       *rand.Rand
	Now        func() time.Time
}

// Engine 把各注册表组合成对外的命令入口。
//
// view 锁只在新玩家初始化和启动回填时写锁，Snapshot 持读锁，
// 因此快照不会看到初始化到一半的玩家。普通命令不拿 view 锁，并发由各注册表自己保证。
type Engine struct {
	view sync.RWMutex

	bus       *event.Bus
	ownBus    bool
	players   *Players
	ledger    *ledger.Ledger
	territory *territory.Registry
	buildings *building.Registry
	armies    *army.Registry
	relations *relation.Machine
	scheduler *production.Scheduler

	log logx.Logger
	rnd *rand.Rand
	now func() time.Time
}

func New(d Deps) (*Engine, error) {
	regions := d.Regions
	if len(regions) == 0 {
		var err error
		if regions, err = catalog.Regions(); err != nil {
			return nil, err
		}
	}
	ids := d.IDs
	if ids == nil {
		sf, err := utils.DefaultSnowflake()
		if err != nil {
			return nil, err
		}
		ids = sf
	}
	e := &Engine{
		bus: d.Bus,
		log: d.Logger,
		rnd: d.Rand,
		now: d.Now,
	}
	if e.bus == nil {
		e.bus = event.NewBus()
		e.ownBus = true
	}
	if e.log == nil {
		e.log = logx.NewZapLogger(zap.NewNop())
	}
	if e.rnd == nil {
		e.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.now == nil {
		e.now = time.Now
	}

	e.players = NewPlayers(e.bus)
	e.ledger = ledger.New(e.bus)
	e.territory = territory.New(regions, e.ledger, e.bus)
	e.buildings = building.New(ids, e.territory, e.ledger, e.bus)
	e.territory.SetSeeder(e.buildings)
	e.armies = army.New(ids, e.territory, e.buildings, e.ledger, e.bus)
	e.relations = relation.New(ids, e.players, e.territory, e.ledger, e.bus)
	e.scheduler = production.NewScheduler(e.buildings, e.ledger, e.bus, d.Production)
	return e, nil
}

func (e *Engine) Close() {
	if e.ownBus {
		e.bus.Close()
	}
}

func (e *Engine) Bus() *event.Bus {
	return e.bus
}

func (e *Engine) Scheduler() *production.Scheduler {
	return e.scheduler
}

// run 每条命令的公共流程：认证 -> 首次出现则初始化 -> 执行 -> 更新活跃时间 -> 记一次日志。
func (e *Engine) run(ctx context.Context, action string, id domain.Identity, fn func() (string, error)) error {
	err := e.exec(ctx, id, fn)
	logx.ReportResult(ctx, e.log, action, err, zap.String("player_id", string(id.PlayerID)))
	return err
}

func (e *Engine) exec(ctx context.Context, id domain.Identity, fn func() (string, error)) error {
	if !id.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.ensurePlayer(id); err != nil {
		return err
	}
	region, err := fn()
	e.players.Touch(id.PlayerID, e.now(), region)
	return err
}

// ensurePlayer 双重检查：已存在的玩家不拿写锁。
func (e *Engine) ensurePlayer(id domain.Identity) error {
	if e.players.Exists(id.PlayerID) {
		return nil
	}
	e.view.Lock()
	defer e.view.Unlock()
	if e.players.Exists(id.PlayerID) {
		return nil
	}
	return e.bootstrap(id)
}

// bootstrap 初始资源 -> 随机领地 -> 农场 + 兵营 -> 100 军团兵 -> 写入档案。
// 任一步失败按相反顺序回滚，玩家档案只在最后一步写入。
func (e *Engine) bootstrap(id domain.Identity) (err error) {
	pid := id.PlayerID
	var undo []func()
	defer func() {
		if err == nil {
			return
		}
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}()

	if err = e.ledger.Open(pid, domain.StartingBalance); err != nil {
		return err
	}
	undo = append(undo, func() { e.ledger.Close(pid) })

	region, err := e.territory.ClaimRandom(pid, e.rnd)
	if err != nil {
		return err
	}
	undo = append(undo, func() { e.territory.Release(pid, region.Name) })

	for _, t := range []domain.BuildingType{domain.Farm, domain.Barracks} {
		b, serr := e.buildings.Seed(pid, region.Name, t)
		if serr != nil {
			return serr
		}
		undo = append(undo, func() { e.buildings.Remove(b.ID) })
	}

	u, err := e.armies.Seed(pid, region.Name, domain.Legionary, domain.StartingLegionaries)
	if err != nil {
		return err
	}
	undo = append(undo, func() { e.armies.Remove(u.ID) })

	now := e.now()
	e.players.Add(domain.Player{
		ID:            pid,
		Username:      id.Username,
		Email:         id.Email,
		CurrentRegion: region.Name,
		LastActive:    now,
		CreatedAt:     now,
	})
	return nil
}

// Restore 启动时用存储里的全量状态回填各注册表。
func (e *Engine) Restore(s *domain.WorldState) {
	if s == nil {
		return
	}
	e.view.Lock()
	defer e.view.Unlock()

	players := make([]domain.Player, 0, len(s.Players))
	balances := make(map[domain.PlayerID]domain.Balance, len(s.Players))
	for _, pl := range s.Players {
		players = append(players, pl.Player)
		balances[pl.Player.ID] = pl.Balance
	}
	e.ledger.Restore(balances)
	e.players.Restore(players)
	e.territory.Restore(s.Regions)
	e.buildings.Restore(s.Buildings)
	e.armies.Restore(s.Armies)
	e.relations.Restore(s.Alliances, s.Wars)
	if s.Checkpoint != nil {
		e.scheduler.Restore(*s.Checkpoint)
	}
}
