package production

import (
	"context"
	"errors"
	"sync"
	"time"

	"Regnum/internal/game/domain"
	"Regnum/internal/game/event"
)

// Buildings 产出来源。
type Buildings interface {
	All() []domain.Building
}

// Creditor 账本的产出入账入口。
type Creditor interface {
	CreditCapped(id domain.PlayerID, delta domain.Delta, limit int64) (domain.Balance, error)
}

type Options struct {
	Period time.Duration
	Cap    int64
}

// Report 一次 tick 的结果。Skipped 表示该窗口已经入过账。
type Report struct {
	Window  int64                            `json:"window"`
	Skipped bool                             `json:"skipped"`
	Credits map[domain.PlayerID]domain.Delta `json:"credits,omitempty"`
}

// Scheduler 按固定窗口给所有产出建筑的主人入账。整个 tick 持有 mu，窗口检查和推进因此是原子的。
type Scheduler struct {
	mu         sync.Mutex
	checkpoint domain.ProductionCheckpoint

	period    time.Duration
	cap       int64
	buildings Buildings
	ledger    Creditor
	pub       event.Publisher
}

func NewScheduler(buildings Buildings, ledger Creditor, pub event.Publisher, opts Options) *Scheduler {
	if opts.Period <= 0 {
		opts.Period = domain.TickPeriod
	}
	if opts.Cap <= 0 {
		opts.Cap = domain.ProductionCap
	}
	if pub == nil {
		pub = event.Nop{}
	}
	return &Scheduler{
		checkpoint: domain.ProductionCheckpoint{Remainders: make(map[domain.PlayerID]map[domain.Resource]int64)},
		period:     opts.Period,
		cap:        opts.Cap,
		buildings:  buildings,
		ledger:     ledger,
		pub:        pub,
	}
}

func (s *Scheduler) Period() time.Duration {
	return s.period
}

// WindowOf floor(unix 秒 / 周期)。
func (s *Scheduler) WindowOf(t time.Time) int64 {
	sec := int64(s.period / time.Second)
	if sec <= 0 {
		sec = 1
	}
	return t.Unix() / sec
}

// TickAt 对 t 所在的窗口入账。重启后的补偿也走这里：只补当前窗口，中间丢失的窗口不补。
func (s *Scheduler) TickAt(ctx context.Context, t time.Time) (Report, error) {
	return s.Tick(ctx, s.WindowOf(t))
}

// Tick 窗口 <= 上次入账窗口时直接跳过，并发调用同一窗口最多入账一次。
// 每小时产出按 rate × 周期秒数 / 3600 入账，不足 1 的部分记在余数里。
func (s *Scheduler) Tick(ctx context.Context, window int64) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if window <= s.checkpoint.LastWindow {
		return Report{Window: window, Skipped: true}, nil
	}

	periodSec := int64(s.period / time.Second)
	rates := hourlyRates(s.buildings.All())
	credits := make(map[domain.PlayerID]domain.Delta, len(rates))
	var errs []error

	for pid, byRes := range rates {
		rem := s.checkpoint.Remainders[pid]
		if rem == nil {
			rem = make(map[domain.Resource]int64, len(byRes))
		}
		delta := make(domain.Delta, len(byRes))
		nextRem := make(map[domain.Resource]int64, len(byRes))
		for res, rate := range byRes {
			total := rate*periodSec + rem[res]
			if c := total / 3600; c > 0 {
				delta[res] = c
			}
			nextRem[res] = total % 3600
		}

		if len(delta) > 0 {
			if _, err := s.ledger.CreditCapped(pid, delta, s.cap); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				errs = append(errs, err)
				continue
			}
			credits[pid] = delta
		}
		s.checkpoint.Remainders[pid] = nextRem
	}

	s.checkpoint.LastWindow = window
	s.pub.Publish(event.Event{Kind: event.ProductionTicked, Ref: window})
	return Report{Window: window, Credits: credits}, errors.Join(errs...)
}

// Checkpoint 返回拷贝，供持久化使用。
func (s *Scheduler) Checkpoint() domain.ProductionCheckpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkpoint.Clone()
}

// WithCheckpoint 持调度锁执行 fn：期间不会有窗口入账到一半。
func (s *Scheduler) WithCheckpoint(fn func(cp domain.ProductionCheckpoint)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.checkpoint.Clone())
}

// Restore 启动时回填断点。
func (s *Scheduler) Restore(cp domain.ProductionCheckpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoint = cp.Clone()
	if s.checkpoint.Remainders == nil {
		s.checkpoint.Remainders = make(map[domain.PlayerID]map[domain.Resource]int64)
	}
}

// hourlyRates 玩家 -> 资源 -> 每小时产出之和；兵营等不产出的跳过。
func hourlyRates(buildings []domain.Building) map[domain.PlayerID]map[domain.Resource]int64 {
	out := make(map[domain.PlayerID]map[domain.Resource]int64)
	for _, b := range buildings {
		res, ok := b.Type.Yield()
		if !ok || b.ProductionRate <= 0 {
			continue
		}
		m := out[b.OwnerID]
		if m == nil {
			m = make(map[domain.Resource]int64)
			out[b.OwnerID] = m
		}
		m[res] += b.ProductionRate
	}
	return out
}
