package ledger

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"Regnum/internal/game/domain"
	"Regnum/internal/game/event"
	"Regnum/modules/kit/errx"
)

func newLedger(t *testing.T, initial domain.Balance) *Ledger {
	t.Helper()
	l := New(nil)
	if err := l.Open("p-1", initial); err != nil {
		t.Fatalf("Open err=%v", err)
	}
	return l
}

func TestTryDebitCredit_余额不足不做任何修改(t *testing.T) {
	l := newLedger(t, domain.Balance{Food: 100, Iron: 10})

	_, err := l.TryDebitCredit("p-1", domain.Delta{domain.Food: -50, domain.Iron: -20})
	if !errors.Is(err, domain.ErrInsufficientResources) {
		t.Fatalf("期望 InsufficientResources, got=%v", err)
	}
	var e *errx.Error
	if !errors.As(err, &e) || e.Data()["resource"] != "iron" || e.Data()["need"] != int64(20) || e.Data()["have"] != int64(10) {
		t.Fatalf("期望 data 标出 iron need=20 have=10, got=%v", e.Data())
	}

	b, _ := l.GetBalance("p-1")
	if b.Food != 100 || b.Iron != 10 {
		t.Fatalf("期望失败时余额不变, got=%+v", b)
	}
}

func TestTryDebitCredit_按固定顺序报告第一个短缺资源(t *testing.T) {
	l := newLedger(t, domain.Balance{})
	_, err := l.TryDebitCredit("p-1", domain.Delta{domain.Pizza: -1, domain.Stone: -1, domain.Food: -1})
	var e *errx.Error
	if !errors.As(err, &e) || e.Data()["resource"] != "food" {
		t.Fatalf("期望第一个短缺资源为 food, got=%v", err)
	}
}

func TestTryDebitCredit_玩家不存在(t *testing.T) {
	l := New(nil)
	if _, err := l.TryDebitCredit("ghost", domain.Delta{domain.Food: 1}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("期望 NotFound, got=%v", err)
	}
}

func TestOpen_重复建账是系统错误(t *testing.T) {
	l := newLedger(t, domain.Balance{})
	err := l.Open("p-1", domain.Balance{})
	if err == nil || errx.IsBiz(err) {
		t.Fatalf("期望重复建账返回系统错误, got=%v", err)
	}
}

func TestCreditCapped_封顶且不削减超额余额(t *testing.T) {
	l := newLedger(t, domain.Balance{Food: 9995, Stone: 12000, Iron: 1})

	b, err := l.CreditCapped("p-1", domain.Delta{domain.Food: 10, domain.Stone: 10, domain.Iron: -1}, 10000)
	if err != nil {
		t.Fatalf("CreditCapped err=%v", err)
	}
	if b.Food != 10000 || b.Stone != 12000 || b.Iron != 1 {
		t.Fatalf("期望 food 封顶 10000、stone 保持 12000、负数忽略, got=%+v", b)
	}
}

func TestLedger_随机并发操作余额永不为负(t *testing.T) {
	l := newLedger(t, domain.Balance{Food: 500, Stone: 300, Iron: 200, Coal: 100, Pizza: 50})

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for i := 0; i < 500; i++ {
				d := domain.Delta{}
				for _, r := range domain.Resources {
					d[r] = int64(rnd.Intn(61) - 40)
				}
				_, _ = l.TryDebitCredit("p-1", d)
				b, _ := l.GetBalance("p-1")
				for _, r := range domain.Resources {
					if b.Get(r) < 0 {
						t.Errorf("资源 %s 变成负数: %+v", r, b)
						return
					}
				}
			}
		}(int64(w))
	}
	wg.Wait()
}

func TestLedger_并发扣费只能成功余额允许的次数(t *testing.T) {
	l := newLedger(t, domain.Balance{Iron: 100})

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.TryDebitCredit("p-1", domain.Delta{domain.Iron: -10}); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	b, _ := l.GetBalance("p-1")
	if ok != 10 || b.Iron != 0 {
		t.Fatalf("期望恰好 10 次成功且 iron=0, got ok=%d iron=%d", ok, b.Iron)
	}
}

func TestLedger_变更发布资源事件(t *testing.T) {
	bus := event.NewBus()
	var kinds []event.Kind
	bus.AddSink(event.SinkFunc(func(e event.Event) { kinds = append(kinds, e.Kind) }))
	l := New(bus)

	_ = l.Open("p-1", domain.Balance{Food: 10})
	_, _ = l.TryDebitCredit("p-1", domain.Delta{domain.Food: -5})
	_, _ = l.TryDebitCredit("p-1", domain.Delta{domain.Food: -50})
	l.Close("p-1")

	if len(kinds) != 3 {
		t.Fatalf("期望 Open/扣费/Close 共 3 个事件（失败不发）, got=%v", kinds)
	}
	if l.Has("p-1") {
		t.Fatalf("期望 Close 后账本不存在")
	}
}
