package territory

import (
	"math/rand"
	"sync"

	"Regnum/internal/game/domain"
	"Regnum/internal/game/event"
)

// Debitor 账本的扣费入口。
type Debitor interface {
	TryDebitCredit(id domain.PlayerID, delta domain.Delta) (domain.Balance, error)
}

// Seeder 占领成功后在领地里放一座免费的 1 级农场。
type Seeder interface {
	Seed(owner domain.PlayerID, region string, t domain.BuildingType) (domain.Building, error)
}

// Registry 地图分区的唯一归属来源。每块领地一把锁，归属变更都是该锁内的 CAS。
type Registry struct {
	slots  map[string]*slot
	order  []string
	ledger Debitor
	seeder Seeder
	pub    event.Publisher
}

type slot struct {
	mu     sync.Mutex
	region domain.Region
}

func New(regions []domain.Region, ledger Debitor, pub event.Publisher) *Registry {
	if pub == nil {
		pub = event.Nop{}
	}
	r := &Registry{
		slots:  make(map[string]*slot, len(regions)),
		order:  make([]string, 0, len(regions)),
		ledger: ledger,
		pub:    pub,
	}
	for _, reg := range regions {
		if _, ok := r.slots[reg.Name]; ok {
			continue
		}
		r.slots[reg.Name] = &slot{region: reg}
		r.order = append(r.order, reg.Name)
	}
	return r
}

// SetSeeder 建筑注册表依赖本注册表做归属校验，只能构造后再注入。
func (r *Registry) SetSeeder(s Seeder) {
	r.seeder = s
}

func (r *Registry) Exists(name string) bool {
	_, ok := r.slots[name]
	return ok
}

func (r *Registry) Region(name string) (domain.Region, error) {
	s, err := r.slot(name)
	if err != nil {
		return domain.Region{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.region, nil
}

// Owner 无主时返回空 PlayerID。
func (r *Registry) Owner(name string) (domain.PlayerID, error) {
	reg, err := r.Region(name)
	if err != nil {
		return "", err
	}
	return reg.OwnerID, nil
}

// Regions 按目录顺序返回全部领地。
func (r *Registry) Regions() []domain.Region {
	out := make([]domain.Region, 0, len(r.order))
	for _, name := range r.order {
		s := r.slots[name]
		s.mu.Lock()
		out = append(out, s.region)
		s.mu.Unlock()
	}
	return out
}

// OwnedBy 某玩家拥有的领地名。
func (r *Registry) OwnedBy(id domain.PlayerID) []string {
	var out []string
	for _, reg := range r.Regions() {
		if reg.OwnerID == id {
			out = append(out, reg.Name)
		}
	}
	return out
}

// Conquer 占领无主领地：校验无主 -> 扣费 -> 设置归属 -> 放农场，整个过程持有领地锁。
// 已有主时不扣费；放农场失败时恢复无主并退款。
func (r *Registry) Conquer(playerID domain.PlayerID, name string) error {
	s, err := r.slot(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.region.Owned() {
		owner := s.region.OwnerID
		s.mu.Unlock()
		return domain.ErrRegionOccupied.WithDataMap(map[string]any{
			"region": name,
			"owner":  string(owner),
		})
	}
	if _, err := r.ledger.TryDebitCredit(playerID, domain.ConquestCost.Debit()); err != nil {
		s.mu.Unlock()
		return err
	}
	s.region.OwnerID = playerID

	if r.seeder != nil {
		if _, err := r.seeder.Seed(playerID, name, domain.Farm); err != nil {
			s.region.OwnerID = ""
			s.mu.Unlock()
			if _, rerr := r.ledger.TryDebitCredit(playerID, domain.ConquestCost.Refund()); rerr != nil {
				return rerr
			}
			return err
		}
	}
	s.mu.Unlock()

	r.publish(playerID, name)
	return nil
}

// ClaimRandom 新玩家初始化：随机挑一块无主领地 CAS 给玩家，不扣费。
// 地图满了返回 RegionOccupied（reason=NO_FREE_REGION）。
func (r *Registry) ClaimRandom(playerID domain.PlayerID, rnd *rand.Rand) (domain.Region, error) {
	candidates := make([]string, len(r.order))
	copy(candidates, r.order)
	shuffle := rand.Shuffle
	if rnd != nil {
		shuffle = rnd.Shuffle
	}
	shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })

	for _, name := range candidates {
		s := r.slots[name]
		s.mu.Lock()
		if s.region.Owned() {
			s.mu.Unlock()
			continue
		}
		s.region.OwnerID = playerID
		claimed := s.region
		s.mu.Unlock()

		r.publish(playerID, name)
		return claimed, nil
	}
	return domain.Region{}, domain.ErrRegionOccupied.WithReason(domain.ReasonNoFreeRegion)
}

// Release 补偿用：只有当前归属者匹配时才恢复无主。
func (r *Registry) Release(playerID domain.PlayerID, name string) {
	s, err := r.slot(name)
	if err != nil {
		return
	}
	s.mu.Lock()
	if s.region.OwnerID != playerID {
		s.mu.Unlock()
		return
	}
	s.region.OwnerID = ""
	s.mu.Unlock()

	r.publish(playerID, name)
}

// WithOwnership 持有领地锁校验归属后执行 fn，建造/训练的归属校验和写入因此是原子的。
// fn 内不能再获取同一块领地的锁。
func (r *Registry) WithOwnership(playerID domain.PlayerID, name string, fn func() error) error {
	s, err := r.slot(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.region.OwnerID != playerID {
		return domain.ErrNotYourTerritory.WithDataMap(map[string]any{
			"region": name,
			"owner":  string(s.region.OwnerID),
		})
	}
	return fn()
}

// Restore 启动时回填归属，不发事件。未知领地忽略。
func (r *Registry) Restore(regions []domain.Region) {
	for _, reg := range regions {
		s, ok := r.slots[reg.Name]
		if !ok {
			continue
		}
		s.mu.Lock()
		s.region.OwnerID = reg.OwnerID
		s.mu.Unlock()
	}
}

func (r *Registry) slot(name string) (*slot, error) {
	s, ok := r.slots[name]
	if !ok {
		return nil, domain.ErrNotFound.WithReason(domain.ReasonRegionNotFound).WithData("region", name)
	}
	return s, nil
}

func (r *Registry) publish(playerID domain.PlayerID, name string) {
	r.pub.Publish(event.Event{Kind: event.RegionChanged, PlayerID: playerID, Region: name})
}
