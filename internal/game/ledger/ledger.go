package ledger

import (
	"sort"
	"sync"

	"Regnum/internal/game/domain"
	"Regnum/internal/game/event"
	"Regnum/modules/kit/errx"
)

// Ledger 每个玩家五种资源的唯一账本。所有经济操作都走 TryDebitCredit / CreditCapped。
// 同一玩家的读改写在 account.mu 内串行，不同玩家互不阻塞。
type Ledger struct {
	mu       sync.RWMutex
	accounts map[domain.PlayerID]*account
	pub      event.Publisher
}

type account struct {
	mu  sync.Mutex
	bal domain.Balance
	// gone 在 Close 之后置位，拿到旧指针的并发调用按不存在处理
	gone bool
}

var errAlreadyOpen = errx.NewSys(errx.CodeInternal, "账本已存在")

func New(pub event.Publisher) *Ledger {
	if pub == nil {
		pub = event.Nop{}
	}
	return &Ledger{
		accounts: make(map[domain.PlayerID]*account),
		pub:      pub,
	}
}

// Open 新玩家建账，只能调用一次。
func (l *Ledger) Open(id domain.PlayerID, initial domain.Balance) error {
	l.mu.Lock()
	if _, ok := l.accounts[id]; ok {
		l.mu.Unlock()
		return errAlreadyOpen.WithData("player_id", string(id))
	}
	l.accounts[id] = &account{bal: initial}
	l.mu.Unlock()

	l.publish(id)
	return nil
}

// Close 删除账本，只用于新玩家初始化失败时的补偿。
func (l *Ledger) Close(id domain.PlayerID) {
	l.mu.Lock()
	acc, ok := l.accounts[id]
	if ok {
		delete(l.accounts, id)
	}
	l.mu.Unlock()
	if !ok {
		return
	}
	acc.mu.Lock()
	acc.gone = true
	acc.mu.Unlock()

	l.publish(id)
}

func (l *Ledger) Has(id domain.PlayerID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.accounts[id]
	return ok
}

func (l *Ledger) GetBalance(id domain.PlayerID) (domain.Balance, error) {
	acc, err := l.get(id)
	if err != nil {
		return domain.Balance{}, err
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	if acc.gone {
		return domain.Balance{}, notFound(id)
	}
	return acc.bal, nil
}

// TryDebitCredit 原子地叠加带符号的 delta：要么全部生效，要么全部不生效。
// 任一资源会变成负数时返回 InsufficientResources（data.resource 为第一个短缺的资源）。
func (l *Ledger) TryDebitCredit(id domain.PlayerID, delta domain.Delta) (domain.Balance, error) {
	acc, err := l.get(id)
	if err != nil {
		return domain.Balance{}, err
	}

	acc.mu.Lock()
	if acc.gone {
		acc.mu.Unlock()
		return domain.Balance{}, notFound(id)
	}
	next, short, ok := acc.bal.Apply(delta)
	if !ok {
		have := acc.bal.Get(short)
		acc.mu.Unlock()
		return domain.Balance{}, domain.InsufficientResources(short, -delta[short], have).
			WithData("player_id", string(id))
	}
	changed := next != acc.bal
	acc.bal = next
	acc.mu.Unlock()

	if changed {
		l.publish(id)
	}
	return next, nil
}

// CreditCapped 产出入账：只接受正数，每项封顶 limit，不会削减已超过 limit 的余额。
func (l *Ledger) CreditCapped(id domain.PlayerID, delta domain.Delta, limit int64) (domain.Balance, error) {
	acc, err := l.get(id)
	if err != nil {
		return domain.Balance{}, err
	}

	acc.mu.Lock()
	if acc.gone {
		acc.mu.Unlock()
		return domain.Balance{}, notFound(id)
	}
	next := acc.bal.ApplyCapped(delta, limit)
	changed := next != acc.bal
	acc.bal = next
	acc.mu.Unlock()

	if changed {
		l.publish(id)
	}
	return next, nil
}

// Players 有账本的玩家，按 id 排序。
func (l *Ledger) Players() []domain.PlayerID {
	l.mu.RLock()
	out := make([]domain.PlayerID, 0, len(l.accounts))
	for id := range l.accounts {
		out = append(out, id)
	}
	l.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Restore 启动时从存储回填，不发事件。
func (l *Ledger) Restore(balances map[domain.PlayerID]domain.Balance) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, b := range balances {
		l.accounts[id] = &account{bal: b}
	}
}

func (l *Ledger) get(id domain.PlayerID) (*account, error) {
	l.mu.RLock()
	acc, ok := l.accounts[id]
	l.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	return acc, nil
}

func (l *Ledger) publish(id domain.PlayerID) {
	l.pub.Publish(event.Event{Kind: event.ResourcesChanged, PlayerID: id})
}

func notFound(id domain.PlayerID) error {
	return domain.ErrNotFound.WithReason(domain.ReasonPlayerNotFound).WithData("player_id", string(id))
}
