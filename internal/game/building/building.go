package building

import (
	"sort"
	"sync"
	"time"

	"Regnum/internal/game/domain"
	"Regnum/internal/game/event"
)

type IDGen interface {
	NextID() int64
}

type Debitor interface {
	TryDebitCredit(id domain.PlayerID, delta domain.Delta) (domain.Balance, error)
}

// Ownership 领地归属校验，由 territory.Registry 实现。
type Ownership interface {
	WithOwnership(playerID domain.PlayerID, region string, fn func() error) error
}

// Registry 建筑注册表。map 结构由 mu 保护，单个建筑的等级变化由 entry.mu 串行。
type Registry struct {
	mu    sync.RWMutex
	items map[domain.BuildingID]*entry

	ids       IDGen
	territory Ownership
	ledger    Debitor
	pub       event.Publisher
	now       func() time.Time
}

type entry struct {
	mu sync.Mutex
	b  domain.Building
}

func New(ids IDGen, territory Ownership, ledger Debitor, pub event.Publisher) *Registry {
	if pub == nil {
		pub = event.Nop{}
	}
	return &Registry{
		items:     make(map[domain.BuildingID]*entry),
		ids:       ids,
		territory: territory,
		ledger:    ledger,
		pub:       pub,
		now:       time.Now,
	}
}

// Build 在自己的领地上建造 1 级建筑：归属校验、扣费、写入在领地锁内完成。
func (r *Registry) Build(playerID domain.PlayerID, region string, t domain.BuildingType) (domain.Building, error) {
	if !t.Valid() {
		return domain.Building{}, domain.ErrInvalidArgument.WithReason(domain.ReasonUnknownType).WithData("type", string(t))
	}
	var built domain.Building
	err := r.territory.WithOwnership(playerID, region, func() error {
		if _, err := r.ledger.TryDebitCredit(playerID, t.BuildCost().Debit()); err != nil {
			return err
		}
		built = r.insert(playerID, region, t)
		return nil
	})
	if err != nil {
		return domain.Building{}, err
	}
	r.publish(built)
	return built, nil
}

// Seed 免费放一座 1 级建筑（占领/新玩家初始化），调用方已经保证归属。
func (r *Registry) Seed(playerID domain.PlayerID, region string, t domain.BuildingType) (domain.Building, error) {
	if !t.Valid() {
		return domain.Building{}, domain.ErrInvalidArgument.WithReason(domain.ReasonUnknownType).WithData("type", string(t))
	}
	b := r.insert(playerID, region, t)
	r.publish(b)
	return b, nil
}

// Upgrade 升一级，价格 = 当前等级 × 50 石头。同一建筑的并发升级各自按当时的等级付费。
func (r *Registry) Upgrade(playerID domain.PlayerID, id domain.BuildingID) (domain.Building, error) {
	e, err := r.entry(id)
	if err != nil {
		return domain.Building{}, err
	}

	e.mu.Lock()
	if e.b.OwnerID != playerID {
		e.mu.Unlock()
		return domain.Building{}, domain.ErrForbidden.WithReason(domain.ReasonNotBuildingOwner).WithData("building_id", int64(id))
	}
	if _, err := r.ledger.TryDebitCredit(playerID, domain.UpgradeCost(e.b.Level).Debit()); err != nil {
		e.mu.Unlock()
		return domain.Building{}, err
	}
	e.b.Level++
	e.b.ProductionRate = e.b.Type.ProductionRate(e.b.Level)
	out := e.b
	e.mu.Unlock()

	r.publish(out)
	return out, nil
}

// Remove 补偿用。
func (r *Registry) Remove(id domain.BuildingID) {
	r.mu.Lock()
	e, ok := r.items[id]
	delete(r.items, id)
	r.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	b := e.b
	e.mu.Unlock()
	r.publish(b)
}

func (r *Registry) Get(id domain.BuildingID) (domain.Building, error) {
	e, err := r.entry(id)
	if err != nil {
		return domain.Building{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.b, nil
}

// HasType 玩家在该领地是否有某类建筑（训练前检查兵营）。
func (r *Registry) HasType(playerID domain.PlayerID, region string, t domain.BuildingType) bool {
	for _, b := range r.All() {
		if b.OwnerID == playerID && b.Region == region && b.Type == t {
			return true
		}
	}
	return false
}

func (r *Registry) ByOwner(playerID domain.PlayerID) []domain.Building {
	var out []domain.Building
	for _, b := range r.All() {
		if b.OwnerID == playerID {
			out = append(out, b)
		}
	}
	return out
}

// All 按 id 排序。
func (r *Registry) All() []domain.Building {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.items))
	for _, e := range r.items {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]domain.Building, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.b)
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Restore 启动时回填，不发事件。
func (r *Registry) Restore(items []domain.Building) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range items {
		r.items[b.ID] = &entry{b: b}
	}
}

func (r *Registry) insert(playerID domain.PlayerID, region string, t domain.BuildingType) domain.Building {
	b := domain.Building{
		ID:             domain.BuildingID(r.ids.NextID()),
		OwnerID:        playerID,
		Region:         region,
		Type:           t,
		Level:          1,
		ProductionRate: t.ProductionRate(1),
		CreatedAt:      r.now(),
	}
	r.mu.Lock()
	r.items[b.ID] = &entry{b: b}
	r.mu.Unlock()
	return b
}

func (r *Registry) entry(id domain.BuildingID) (*entry, error) {
	r.mu.RLock()
	e, ok := r.items[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound.WithReason(domain.ReasonBuildingNotFound).WithData("building_id", int64(id))
	}
	return e, nil
}

func (r *Registry) publish(b domain.Building) {
	r.pub.Publish(event.Event{Kind: event.BuildingsChanged, PlayerID: b.OwnerID, Region: b.Region, Ref: int64(b.ID)})
}
