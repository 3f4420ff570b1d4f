package app

import (
	"sort"
	"sync"
	"time"

	"Regnum/internal/game/domain"
	"Regnum/internal/game/event"
)

// Players 玩家档案目录。档案只在初始化完成后写入，引擎内不删除（补偿除外）。
type Players struct {
	mu  sync.RWMutex
	m   map[domain.PlayerID]domain.Player
	pub event.Publisher
}

func NewPlayers(pub event.Publisher) *Players {
	if pub == nil {
		pub = event.Nop{}
	}
	return &Players{m: make(map[domain.PlayerID]domain.Player), pub: pub}
}

func (p *Players) Exists(id domain.PlayerID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.m[id]
	return ok
}

func (p *Players) Get(id domain.PlayerID) (domain.Player, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pl, ok := p.m[id]
	return pl, ok
}

func (p *Players) Add(pl domain.Player) {
	p.mu.Lock()
	p.m[pl.ID] = pl
	p.mu.Unlock()
	p.publish(pl.ID)
}

// Touch 更新 LastActive；region 非空时顺带更新展示用的当前领地。
func (p *Players) Touch(id domain.PlayerID, at time.Time, region string) {
	p.mu.Lock()
	pl, ok := p.m[id]
	if ok {
		pl.LastActive = at
		if region != "" {
			pl.CurrentRegion = region
		}
		p.m[id] = pl
	}
	p.mu.Unlock()
	if ok {
		p.publish(id)
	}
}

// All 按 id 排序。
func (p *Players) All() []domain.Player {
	p.mu.RLock()
	out := make([]domain.Player, 0, len(p.m))
	for _, pl := range p.m {
		out = append(out, pl)
	}
	p.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (p *Players) Restore(players []domain.Player) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pl := range players {
		p.m[pl.ID] = pl
	}
}

func (p *Players) publish(id domain.PlayerID) {
	p.pub.Publish(event.Event{Kind: event.PlayersChanged, PlayerID: id})
}
