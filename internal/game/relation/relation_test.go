package relation

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"Regnum/internal/game/domain"
	"Regnum/internal/game/ledger"
	"Regnum/modules/kit/errx"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NextID() int64 { return s.n.Add(1) }

type ledgerDir struct{ l *ledger.Ledger }

func (d ledgerDir) Exists(id domain.PlayerID) bool { return d.l.Has(id) }

type regionSet map[string]bool

func (s regionSet) Exists(name string) bool { return s[name] }

func setup(t *testing.T, players ...domain.PlayerID) (*Machine, *ledger.Ledger) {
	t.Helper()
	l := ledger.New(nil)
	for _, p := range players {
		if err := l.Open(p, domain.StartingBalance); err != nil {
			t.Fatalf("Open err=%v", err)
		}
	}
	return New(&seqIDs{}, ledgerDir{l}, regionSet{"sicilia": true, "lazio": true}, l, nil), l
}

func TestProposeAlliance_双向唯一(t *testing.T) {
	m, _ := setup(t, "a", "b")

	a, err := m.ProposeAlliance("a", "b", "ciao")
	if err != nil {
		t.Fatalf("Propose err=%v", err)
	}
	if a.State != domain.AlliancePending || a.Message != "ciao" {
		t.Fatalf("期望 pending, got=%+v", a)
	}
	if _, err := m.ProposeAlliance("a", "b", ""); !errors.Is(err, domain.ErrAllianceExists) {
		t.Fatalf("期望重复发起 AllianceExists, got=%v", err)
	}
	if _, err := m.ProposeAlliance("b", "a", ""); !errors.Is(err, domain.ErrAllianceExists) {
		t.Fatalf("期望反向发起 AllianceExists, got=%v", err)
	}
}

func TestProposeAlliance_参数校验(t *testing.T) {
	m, _ := setup(t, "a")
	if _, err := m.ProposeAlliance("a", "a", ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("期望自己对自己 InvalidArgument, got=%v", err)
	}
	if _, err := m.ProposeAlliance("a", "ghost", ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("期望目标不存在 NotFound, got=%v", err)
	}
}

func TestProposeAlliance_并发只成功一条(t *testing.T) {
	m, _ := setup(t, "a", "b")

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := domain.PlayerID("a"), domain.PlayerID("b")
			if i%2 == 1 {
				from, to = to, from
			}
			_, err := m.ProposeAlliance(from, to, "")
			switch {
			case err == nil:
				ok.Add(1)
			case !errors.Is(err, domain.ErrAllianceExists):
				t.Errorf("期望 AllianceExists, got=%v", err)
			}
		}(i)
	}
	wg.Wait()

	if ok.Load() != 1 || len(m.Alliances()) != 1 {
		t.Fatalf("期望只有一条结盟, ok=%d records=%d", ok.Load(), len(m.Alliances()))
	}
}

func TestAccept_只有被邀请方且只能从pending(t *testing.T) {
	m, _ := setup(t, "a", "b")
	a, _ := m.ProposeAlliance("a", "b", "")

	if _, err := m.AcceptAlliance("a", a.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("期望发起方接受 Forbidden, got=%v", err)
	}
	got, err := m.AcceptAlliance("b", a.ID)
	if err != nil || got.State != domain.AllianceActive {
		t.Fatalf("期望 active, got=%+v err=%v", got, err)
	}

	_, err = m.RejectAlliance("b", a.ID)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("期望终态后 Forbidden, got=%v", err)
	}
	var xe *errx.Error
	if !errors.As(err, &xe) || xe.Reason() != domain.ReasonAllianceNotPending.Code {
		t.Fatalf("期望 reason=%s, got=%v", domain.ReasonAllianceNotPending.Code, err)
	}
	if _, err := m.AcceptAlliance("b", 12345); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("期望 NotFound, got=%v", err)
	}
}

func TestReject_之后可以重新发起(t *testing.T) {
	m, _ := setup(t, "a", "b")
	a, _ := m.ProposeAlliance("a", "b", "")

	if got, err := m.RejectAlliance("b", a.ID); err != nil || got.State != domain.AllianceRejected {
		t.Fatalf("期望 rejected, got=%+v err=%v", got, err)
	}
	again, err := m.ProposeAlliance("b", "a", "retry")
	if err != nil {
		t.Fatalf("期望拒绝后可以重新发起, err=%v", err)
	}
	if again.ID == a.ID || len(m.AlliancesOf("a")) != 2 {
		t.Fatalf("期望两条记录, got=%+v", m.AlliancesOf("a"))
	}
}

func TestDeclareWar_扣费且不影响结盟(t *testing.T) {
	m, l := setup(t, "a", "b")
	al, _ := m.ProposeAlliance("a", "b", "")
	_, _ = m.AcceptAlliance("b", al.ID)

	w, err := m.DeclareWar("a", "b", "sicilia")
	if err != nil {
		t.Fatalf("DeclareWar err=%v", err)
	}
	if w.State != domain.WarDeclared || w.TargetRegion != "sicilia" {
		t.Fatalf("期望 declared, got=%+v", w)
	}
	bal, _ := l.GetBalance("a")
	if bal.Iron != 150 || bal.Food != 400 {
		t.Fatalf("期望扣 50 iron + 100 food, got=%+v", bal)
	}
	if got, _ := m.Alliance(al.ID); got.State != domain.AllianceActive {
		t.Fatalf("期望结盟保持 active, got=%+v", got)
	}

	if _, err := m.DeclareWar("a", "b", "sicilia"); err != nil {
		t.Fatalf("期望允许多场战争, err=%v", err)
	}
	if len(m.WarsOf("b")) != 2 {
		t.Fatalf("期望两场战争, got=%d", len(m.WarsOf("b")))
	}
}

func TestDeclareWar_校验与余额不足(t *testing.T) {
	m, l := setup(t, "a", "b")

	if _, err := m.DeclareWar("a", "b", "atlantide"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("期望领地不存在 NotFound, got=%v", err)
	}
	if _, err := m.DeclareWar("a", "ghost", "lazio"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("期望防守方不存在 NotFound, got=%v", err)
	}
	if _, err := m.DeclareWar("a", "a", "lazio"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("期望对自己宣战 InvalidArgument, got=%v", err)
	}

	_, _ = l.TryDebitCredit("a", domain.Delta{domain.Iron: -180})
	if _, err := m.DeclareWar("a", "b", "lazio"); !errors.Is(err, domain.ErrInsufficientResources) {
		t.Fatalf("期望 InsufficientResources, got=%v", err)
	}
	if len(m.Wars()) != 0 {
		t.Fatalf("期望没有战争记录")
	}
}
