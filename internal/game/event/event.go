package event

import (
	"sync"
	"sync/atomic"
	"time"

	"Regnum/internal/game/domain"
)

// Kind 变更通知的粒度是“表级”：某类实体变了，附带玩家/领地/实体 id 方便订阅方过滤。
type Kind string

const (
	PlayersChanged   Kind = "players_changed"
	ResourcesChanged Kind = "resources_changed"
	RegionChanged    Kind = "region_changed"
	AlliancesChanged Kind = "alliances_changed"
	WarsChanged      Kind = "wars_changed"
	BuildingsChanged Kind = "buildings_changed"
	ArmiesChanged    Kind = "armies_changed"
	ProductionTicked Kind = "production_ticked"
)

type Event struct {
	Seq      uint64          `json:"seq"`
	Kind     Kind            `json:"kind"`
	PlayerID domain.PlayerID `json:"player_id,omitempty"`
	Region   string          `json:"region,omitempty"`
	// Ref 实体 id（建筑/军队/结盟/战争），其他类型为 0。
	Ref int64     `json:"ref,omitempty"`
	At  time.Time `json:"at"`
}

// VisibleTo 资源变动只有本人可见，其余事件对所有玩家可见。
func (e Event) VisibleTo(playerID domain.PlayerID) bool {
	return e.Kind != ResourcesChanged || (playerID != "" && e.PlayerID == playerID)
}

// Publisher 注册表只依赖这个接口，没有订阅者时也能工作。
type Publisher interface {
	Publish(e Event)
}

// Nop 丢弃所有事件。
type Nop struct{}

func (Nop) Publish(Event) {}

// Sink 同步消费者：在发布方的 goroutine 里执行，必须很快且不能回调注册表。
type Sink interface {
	Handle(e Event)
}

type SinkFunc func(e Event)

func (f SinkFunc) Handle(e Event) { f(e) }

// Bus 进程内事件总线：同步 sink（持久化脏标记）+ 带缓冲的异步订阅（推送/流水）。
// 订阅方跟不上时丢事件并计数，不阻塞引擎。
type Bus struct {
	mu     sync.RWMutex
	sinks  []Sink
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool

	seq atomic.Uint64
	now func() time.Time
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[uint64]*Subscription),
		now:  time.Now,
	}
}

func (b *Bus) AddSink(s Sink) {
	if s == nil {
		return
	}
	b.mu.Lock()
	b.sinks = append(b.sinks, s)
	b.mu.Unlock()
}

// Publish 分配进程内序号和时间后分发。
func (b *Bus) Publish(e Event) {
	e.Seq = b.seq.Add(1)
	if e.At.IsZero() {
		e.At = b.now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.sinks {
		s.Handle(e)
	}
	for _, sub := range b.subs {
		sub.deliver(e)
	}
}

// Subscribe buffer <= 0 时取 256。
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 256
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &Subscription{
		id:  b.nextID,
		bus: b,
		ch:  make(chan Event, buffer),
	}
	if b.closed {
		close(sub.ch)
		sub.closed = true
		return sub
	}
	b.subs[sub.id] = sub
	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub.id]; !ok {
		return
	}
	delete(b.subs, sub.id)
	close(sub.ch)
}

// Close 关闭所有订阅 channel；之后的 Publish 被忽略。
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
}

type Subscription struct {
	id      uint64
	bus     *Bus
	ch      chan Event
	dropped atomic.Uint64
	closed  bool
}

// C 总线关闭或 Close 后 channel 会被关闭。
func (s *Subscription) C() <-chan Event {
	return s.ch
}

func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Subscription) Close() {
	if s == nil || s.closed {
		return
	}
	s.bus.unsubscribe(s)
}

// deliver 在 bus 读锁内调用，unsubscribe 持写锁关闭 channel，所以不会写已关闭的 channel。
func (s *Subscription) deliver(e Event) {
	select {
	case s.ch <- e:
	default:
		s.dropped.Add(1)
	}
}
