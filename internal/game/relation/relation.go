package relation

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

// Directory 目标玩家是否存在。
type Directory interface {
	Exists(id domain.PlayerID) bool
}

// Regions 宣战目标领地是否存在。
type Regions interface {
	Exists(name string) bool
}

// Machine 结盟/战争状态机。所有记录由一把锁保护，结盟的“查重 + 插入”因此是原子的。
type Machine struct {
	mu        sync.Mutex
	alliances map[domain.AllianceID]*domain.Alliance
	wars      map[domain.WarID]*domain.War

	ids     IDGen
	players Directory
	regions Regions
	ledger  Debitor
	pub     event.Publisher
	now     func() time.Time
}

func New(ids IDGen, players Directory, regions Regions, ledger Debitor, pub event.Publisher) *Machine {
	if pub == nil {
		pub = event.Nop{}
	}
	return &Machine{
		alliances: make(map[domain.AllianceID]*domain.Alliance),
		wars:      make(map[domain.WarID]*domain.War),
		ids:       ids,
		players:   players,
		regions:   regions,
		ledger:    ledger,
		pub:       pub,
		now:       time.Now,
	}
}

// ProposeAlliance 同一对玩家（不分方向）只能有一条 pending/active 记录；rejected 之后可以重新发起。
func (m *Machine) ProposeAlliance(proposer, target domain.PlayerID, message string) (domain.Alliance, error) {
	if proposer == target {
		return domain.Alliance{}, domain.ErrInvalidArgument.WithReason(domain.ReasonSelfTarget)
	}
	if !m.players.Exists(target) {
		return domain.Alliance{}, domain.ErrNotFound.WithReason(domain.ReasonPlayerNotFound).WithData("player_id", string(target))
	}

	m.mu.Lock()
	for _, a := range m.alliances {
		if !a.State.Blocking() {
			continue
		}
		if a.Involves(proposer) && a.Involves(target) {
			id := a.ID
			m.mu.Unlock()
			return domain.Alliance{}, domain.ErrAllianceExists.WithData("alliance_id", int64(id))
		}
	}
	now := m.now()
	a := &domain.Alliance{
		ID:         domain.AllianceID(m.ids.NextID()),
		ProposerID: proposer,
		TargetID:   target,
		Message:    message,
		State:      domain.AlliancePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.alliances[a.ID] = a
	out := *a
	m.mu.Unlock()

	m.publishAlliance(out)
	return out, nil
}

func (m *Machine) AcceptAlliance(actor domain.PlayerID, id domain.AllianceID) (domain.Alliance, error) {
	return m.resolve(actor, id, domain.AllianceActive)
}

func (m *Machine) RejectAlliance(actor domain.PlayerID, id domain.AllianceID) (domain.Alliance, error) {
	return m.resolve(actor, id, domain.AllianceRejected)
}

// resolve pending -> active/rejected，只有被邀请方可以操作。
func (m *Machine) resolve(actor domain.PlayerID, id domain.AllianceID, next domain.AllianceState) (domain.Alliance, error) {
	m.mu.Lock()
	a, ok := m.alliances[id]
	if !ok {
		m.mu.Unlock()
		return domain.Alliance{}, domain.ErrNotFound.WithReason(domain.ReasonAllianceNotFound).WithData("alliance_id", int64(id))
	}
	if a.TargetID != actor {
		m.mu.Unlock()
		return domain.Alliance{}, domain.ErrForbidden.WithReason(domain.ReasonNotAllianceTarget).WithData("alliance_id", int64(id))
	}
	if a.State != domain.AlliancePending {
		state := a.State
		m.mu.Unlock()
		return domain.Alliance{}, domain.ErrForbidden.WithReason(domain.ReasonAllianceNotPending).WithDataMap(map[string]any{
			"alliance_id": int64(id),
			"state":       string(state),
		})
	}
	a.State = next
	a.UpdatedAt = m.now()
	out := *a
	m.mu.Unlock()

	m.publishAlliance(out)
	return out, nil
}

// DeclareWar 进攻方付费后插入 declared 记录。不检查结盟，也不改动结盟；同一对玩家可以有多场战争。
func (m *Machine) DeclareWar(attacker, defender domain.PlayerID, region string) (domain.War, error) {
	if attacker == defender {
		return domain.War{}, domain.ErrInvalidArgument.WithReason(domain.ReasonSelfTarget)
	}
	if !m.regions.Exists(region) {
		return domain.War{}, domain.ErrNotFound.WithReason(domain.ReasonRegionNotFound).WithData("region", region)
	}
	if !m.players.Exists(defender) {
		return domain.War{}, domain.ErrNotFound.WithReason(domain.ReasonPlayerNotFound).WithData("player_id", string(defender))
	}
	if _, err := m.ledger.TryDebitCredit(attacker, domain.WarCost.Debit()); err != nil {
		return domain.War{}, err
	}

	w := &domain.War{
		ID:           domain.WarID(m.ids.NextID()),
		AttackerID:   attacker,
		DefenderID:   defender,
		TargetRegion: region,
		State:        domain.WarDeclared,
		CreatedAt:    m.now(),
	}
	m.mu.Lock()
	m.wars[w.ID] = w
	out := *w
	m.mu.Unlock()

	m.pub.Publish(event.Event{Kind: event.WarsChanged, PlayerID: attacker, Region: region, Ref: int64(out.ID)})
	return out, nil
}

func (m *Machine) Alliance(id domain.AllianceID) (domain.Alliance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alliances[id]
	if !ok {
		return domain.Alliance{}, false
	}
	return *a, true
}

func (m *Machine) War(id domain.WarID) (domain.War, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wars[id]
	if !ok {
		return domain.War{}, false
	}
	return *w, true
}

// Alliances 按 id 排序。
func (m *Machine) Alliances() []domain.Alliance {
	m.mu.Lock()
	out := make([]domain.Alliance, 0, len(m.alliances))
	for _, a := range m.alliances {
		out = append(out, *a)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Machine) Wars() []domain.War {
	m.mu.Lock()
	out := make([]domain.War, 0, len(m.wars))
	for _, w := range m.wars {
		out = append(out, *w)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Machine) AlliancesOf(id domain.PlayerID) []domain.Alliance {
	var out []domain.Alliance
	for _, a := range m.Alliances() {
		if a.Involves(id) {
			out = append(out, a)
		}
	}
	return out
}

func (m *Machine) WarsOf(id domain.PlayerID) []domain.War {
	var out []domain.War
	for _, w := range m.Wars() {
		if w.Involves(id) {
			out = append(out, w)
		}
	}
	return out
}

// Restore 启动时回填，不发事件。
func (m *Machine) Restore(alliances []domain.Alliance, wars []domain.War) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range alliances {
		a := a
		m.alliances[a.ID] = &a
	}
	for _, w := range wars {
		w := w
		m.wars[w.ID] = &w
	}
}

func (m *Machine) publishAlliance(a domain.Alliance) {
	m.pub.Publish(event.Event{Kind: event.AlliancesChanged, PlayerID: a.ProposerID, Ref: int64(a.ID)})
}
