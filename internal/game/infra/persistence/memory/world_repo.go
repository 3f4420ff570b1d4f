package memory

import (
	"context"
	"sort"
	"sync"

	"Regnum/internal/game/domain"
)

// WorldRepository 进程内存储：driver=memory 时使用，重启即丢失；测试里也用它验证写回结果。
type WorldRepository struct {
	mu         sync.Mutex
	players    map[domain.PlayerID]domain.PlayerLedger
	regions    map[string]domain.Region
	alliances  map[domain.AllianceID]domain.Alliance
	wars       map[domain.WarID]domain.War
	buildings  map[domain.BuildingID]domain.Building
	armies     map[domain.ArmyID]domain.ArmyUnit
	checkpoint *domain.ProductionCheckpoint
	saves      int
}

func NewWorldRepository() *WorldRepository {
	return &WorldRepository{
		players:   make(map[domain.PlayerID]domain.PlayerLedger),
		regions:   make(map[string]domain.Region),
		alliances: make(map[domain.AllianceID]domain.Alliance),
		wars:      make(map[domain.WarID]domain.War),
		buildings: make(map[domain.BuildingID]domain.Building),
		armies:    make(map[domain.ArmyID]domain.ArmyUnit),
	}
}

func (r *WorldRepository) Load(ctx context.Context) (*domain.WorldState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &domain.WorldState{}
	for _, p := range r.players {
		s.Players = append(s.Players, p)
	}
	sort.Slice(s.Players, func(i, j int) bool { return s.Players[i].Player.ID < s.Players[j].Player.ID })
	for _, v := range r.regions {
		s.Regions = append(s.Regions, v)
	}
	sort.Slice(s.Regions, func(i, j int) bool { return s.Regions[i].Name < s.Regions[j].Name })
	for _, v := range r.alliances {
		s.Alliances = append(s.Alliances, v)
	}
	sort.Slice(s.Alliances, func(i, j int) bool { return s.Alliances[i].ID < s.Alliances[j].ID })
	for _, v := range r.wars {
		s.Wars = append(s.Wars, v)
	}
	sort.Slice(s.Wars, func(i, j int) bool { return s.Wars[i].ID < s.Wars[j].ID })
	for _, v := range r.buildings {
		s.Buildings = append(s.Buildings, v)
	}
	sort.Slice(s.Buildings, func(i, j int) bool { return s.Buildings[i].ID < s.Buildings[j].ID })
	for _, v := range r.armies {
		s.Armies = append(s.Armies, v)
	}
	sort.Slice(s.Armies, func(i, j int) bool { return s.Armies[i].ID < s.Armies[j].ID })
	if r.checkpoint != nil {
		cp := r.checkpoint.Clone()
		s.Checkpoint = &cp
	}
	return s, nil
}

func (r *WorldRepository) Save(ctx context.Context, s *domain.WorldSnap) error {
	if s == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range s.Players {
		r.players[p.Player.ID] = p
	}
	for _, v := range s.Regions {
		r.regions[v.Name] = v
	}
	for _, v := range s.Alliances {
		r.alliances[v.ID] = v
	}
	for _, v := range s.Wars {
		r.wars[v.ID] = v
	}
	for _, v := range s.Buildings {
		r.buildings[v.ID] = v
	}
	for _, v := range s.Armies {
		r.armies[v.ID] = v
	}
	for _, id := range s.Removed.Players {
		delete(r.players, id)
	}
	for _, id := range s.Removed.Buildings {
		delete(r.buildings, id)
	}
	for _, id := range s.Removed.Armies {
		delete(r.armies, id)
	}
	if s.Checkpoint != nil {
		cp := s.Checkpoint.Clone()
		r.checkpoint = &cp
	}
	r.saves++
	return nil
}

// Saves 成功写入的快照次数。
func (r *WorldRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}
