package army

import (
	"math"
	"sort"
	"sync"

	"Regnum/internal/game/domain"
	"Regnum/internal/game/event"
)

type IDGen interface {
	NextID() int64
}

type Debitor interface {
	TryDebitCredit(id domain.PlayerID, delta domain.Delta) (domain.Balance, error)
}

type Ownership interface {
	WithOwnership(playerID domain.PlayerID, region string, fn func() error) error
}

// Barracks 训练前的兵营检查，由 building.Registry 实现。
type Barracks interface {
	HasType(playerID domain.PlayerID, region string, t domain.BuildingType) bool
}

type stackKey struct {
	owner  domain.PlayerID
	region string
	typ    domain.UnitType
}

// Registry 军队注册表：同一玩家同一领地同一兵种只有一个堆叠，训练时累加数量。
type Registry struct {
	mu    sync.RWMutex
	byID  map[domain.ArmyID]*domain.ArmyUnit
	stack map[stackKey]domain.ArmyID

	ids       IDGen
	territory Ownership
	barracks  Barracks
	ledger    Debitor
	pub       event.Publisher
}

func New(ids IDGen, territory Ownership, barracks Barracks, ledger Debitor, pub event.Publisher) *Registry {
	if pub == nil {
		pub = event.Nop{}
	}
	return &Registry{
		byID:      make(map[domain.ArmyID]*domain.ArmyUnit),
		stack:     make(map[stackKey]domain.ArmyID),
		ids:       ids,
		territory: territory,
		barracks:  barracks,
		ledger:    ledger,
		pub:       pub,
	}
}

// Train 在自己有兵营的领地训练 quantity 个单位，价格 = 单价 × quantity。
func (r *Registry) Train(playerID domain.PlayerID, region string, t domain.UnitType, quantity int64) (domain.ArmyUnit, error) {
	stats, ok := t.Stats()
	if !ok {
		return domain.ArmyUnit{}, domain.ErrInvalidArgument.WithReason(domain.ReasonUnknownType).WithData("type", string(t))
	}
	if quantity < 1 {
		return domain.ArmyUnit{}, badQuantity(quantity)
	}

	cost, ok := stats.Cost.Times(quantity)
	if !ok {
		return domain.ArmyUnit{}, badQuantity(quantity)
	}

	var out domain.ArmyUnit
	err := r.territory.WithOwnership(playerID, region, func() error {
		if !r.barracks.HasType(playerID, region, domain.Barracks) {
			return domain.ErrBarracksRequired.WithData("region", region)
		}
		// 同一领地的训练在领地锁内串行，检查后堆叠数量不会再被别人改动
		if !r.fits(playerID, region, t, quantity) {
			return badQuantity(quantity)
		}
		if _, err := r.ledger.TryDebitCredit(playerID, cost.Debit()); err != nil {
			return err
		}
		var err error
		out, err = r.merge(playerID, region, t, stats, quantity)
		return err
	})
	if err != nil {
		return domain.ArmyUnit{}, err
	}
	r.publish(out)
	return out, nil
}

// Seed 免费加兵（新玩家初始军队），不检查兵营。
func (r *Registry) Seed(playerID domain.PlayerID, region string, t domain.UnitType, quantity int64) (domain.ArmyUnit, error) {
	stats, ok := t.Stats()
	if !ok {
		return domain.ArmyUnit{}, domain.ErrInvalidArgument.WithReason(domain.ReasonUnknownType).WithData("type", string(t))
	}
	if quantity < 1 {
		return domain.ArmyUnit{}, badQuantity(quantity)
	}
	out, err := r.merge(playerID, region, t, stats, quantity)
	if err != nil {
		return domain.ArmyUnit{}, err
	}
	r.publish(out)
	return out, nil
}

// Remove 补偿用。
func (r *Registry) Remove(id domain.ArmyID) {
	r.mu.Lock()
	u, ok := r.byID[id]
	if ok {
		delete(r.byID, id)
		delete(r.stack, stackKey{u.OwnerID, u.Region, u.Type})
	}
	r.mu.Unlock()
	if ok {
		r.publish(*u)
	}
}

func (r *Registry) Get(id domain.ArmyID) (domain.ArmyUnit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ArmyUnit{}, false
	}
	return *u, true
}

func (r *Registry) ByOwner(playerID domain.PlayerID) []domain.ArmyUnit {
	var out []domain.ArmyUnit
	for _, u := range r.All() {
		if u.OwnerID == playerID {
			out = append(out, u)
		}
	}
	return out
}

func (r *Registry) All() []domain.ArmyUnit {
	r.mu.RLock()
	out := make([]domain.ArmyUnit, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, *u)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Restore 启动时回填，不发事件。重复的堆叠以后出现的为准。
func (r *Registry) Restore(units []domain.ArmyUnit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range units {
		u := u
		r.byID[u.ID] = &u
		r.stack[stackKey{u.OwnerID, u.Region, u.Type}] = u.ID
	}
}

func badQuantity(quantity int64) error {
	return domain.ErrInvalidArgument.WithReason(domain.ReasonBadQuantity).WithData("quantity", quantity)
}

// fits 堆叠加上 quantity 后不溢出 int64。
func (r *Registry) fits(playerID domain.PlayerID, region string, t domain.UnitType, quantity int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.stack[stackKey{playerID, region, t}]
	if !ok {
		return true
	}
	return r.byID[id].Quantity <= math.MaxInt64-quantity
}

func (r *Registry) merge(playerID domain.PlayerID, region string, t domain.UnitType, stats domain.UnitStats, quantity int64) (domain.ArmyUnit, error) {
	key := stackKey{playerID, region, t}

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.stack[key]; ok {
		u := r.byID[id]
		if u.Quantity > math.MaxInt64-quantity {
			return domain.ArmyUnit{}, badQuantity(quantity)
		}
		u.Quantity += quantity
		return *u, nil
	}
	u := &domain.ArmyUnit{
		ID:           domain.ArmyID(r.ids.NextID()),
		OwnerID:      playerID,
		Region:       region,
		Type:         t,
		Quantity:     quantity,
		AttackPower:  stats.Attack,
		DefensePower: stats.Defense,
	}
	r.byID[u.ID] = u
	r.stack[key] = u.ID
	return *u, nil
}

func (r *Registry) publish(u domain.ArmyUnit) {
	r.pub.Publish(event.Event{Kind: event.ArmiesChanged, PlayerID: u.OwnerID, Region: u.Region, Ref: int64(u.ID)})
}
