package army

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"Regnum/internal/game/building"
	"Regnum/internal/game/domain"
	"Regnum/internal/game/ledger"
	"Regnum/internal/game/territory"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NextID() int64 { return s.n.Add(1) }

type fixture struct {
	army      *Registry
	buildings *building.Registry
	ledger    *ledger.Ledger
	region    string
}

func setup(t *testing.T, bal domain.Balance) fixture {
	t.Helper()
	l := ledger.New(nil)
	if err := l.Open("p-1", bal); err != nil {
		t.Fatalf("Open err=%v", err)
	}
	terr := territory.New([]domain.Region{{Name: "lazio"}}, l, nil)
	reg, err := terr.ClaimRandom("p-1", nil)
	if err != nil {
		t.Fatalf("ClaimRandom err=%v", err)
	}
	ids := &seqIDs{}
	b := building.New(ids, terr, l, nil)
	return fixture{
		army:      New(ids, terr, b, l, nil),
		buildings: b,
		ledger:    l,
		region:    reg.Name,
	}
}

func TestTrain_没有兵营(t *testing.T) {
	f := setup(t, domain.Balance{Food: 1000, Iron: 1000})

	if _, err := f.army.Train("p-1", f.region, domain.Legionary, 1); !errors.Is(err, domain.ErrBarracksRequired) {
		t.Fatalf("期望 BarracksRequired, got=%v", err)
	}
	if bal, _ := f.ledger.GetBalance("p-1"); bal.Food != 1000 {
		t.Fatalf("期望不扣费, got=%+v", bal)
	}
}

func TestTrain_扣费并合并堆叠(t *testing.T) {
	f := setup(t, domain.Balance{Food: 1000, Iron: 1000})
	_, _ = f.buildings.Seed("p-1", f.region, domain.Barracks)

	u1, err := f.army.Train("p-1", f.region, domain.Archer, 4)
	if err != nil {
		t.Fatalf("Train err=%v", err)
	}
	if u1.Quantity != 4 || u1.AttackPower != 15 || u1.DefensePower != 8 {
		t.Fatalf("期望 4 个弓手, got=%+v", u1)
	}
	u2, err := f.army.Train("p-1", f.region, domain.Archer, 6)
	if err != nil {
		t.Fatalf("Train err=%v", err)
	}
	if u2.ID != u1.ID || u2.Quantity != 10 {
		t.Fatalf("期望合并到同一堆叠, got=%+v", u2)
	}
	if bal, _ := f.ledger.GetBalance("p-1"); bal.Food != 1000-150 || bal.Iron != 1000-250 {
		t.Fatalf("期望扣 10 × (15 food, 25 iron), got=%+v", bal)
	}
	if len(f.army.ByOwner("p-1")) != 1 {
		t.Fatalf("期望一个堆叠")
	}
}

func TestTrain_参数校验(t *testing.T) {
	f := setup(t, domain.Balance{Food: 1000, Iron: 1000})
	_, _ = f.buildings.Seed("p-1", f.region, domain.Barracks)

	for _, q := range []int64{0, -3} {
		if _, err := f.army.Train("p-1", f.region, domain.Legionary, q); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("期望 quantity=%d 为 InvalidArgument, got=%v", q, err)
		}
	}
	if _, err := f.army.Train("p-1", f.region, "dragon", 1); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("期望未知兵种为 InvalidArgument, got=%v", err)
	}
	if _, err := f.army.Train("p-2", f.region, domain.Legionary, 1); !errors.Is(err, domain.ErrNotYourTerritory) {
		t.Fatalf("期望 NotYourTerritory, got=%v", err)
	}
}

func TestTrain_资源不足不产生单位(t *testing.T) {
	f := setup(t, domain.Balance{Iron: 100, Stone: 100})
	_, _ = f.buildings.Seed("p-1", f.region, domain.Barracks)

	if _, err := f.army.Train("p-1", f.region, domain.Catapult, 2); !errors.Is(err, domain.ErrInsufficientResources) {
		t.Fatalf("期望 InsufficientResources, got=%v", err)
	}
	if len(f.army.All()) != 0 {
		t.Fatalf("期望没有军队")
	}
}

func TestTrain_并发训练数量守恒(t *testing.T) {
	f := setup(t, domain.Balance{Food: 100000, Iron: 100000})
	_, _ = f.buildings.Seed("p-1", f.region, domain.Barracks)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.army.Train("p-1", f.region, domain.Legionary, 5); err != nil {
				t.Errorf("Train err=%v", err)
			}
		}()
	}
	wg.Wait()

	units := f.army.ByOwner("p-1")
	if len(units) != 1 || units[0].Quantity != 100 {
		t.Fatalf("期望一个 100 人的堆叠, got=%+v", units)
	}
}

func TestSeedRemove(t *testing.T) {
	f := setup(t, domain.Balance{})
	u, err := f.army.Seed("p-1", f.region, domain.Legionary, domain.StartingLegionaries)
	if err != nil || u.Quantity != 100 {
		t.Fatalf("期望 100 个军团兵, got=%+v err=%v", u, err)
	}
	f.army.Remove(u.ID)
	if _, ok := f.army.Get(u.ID); ok {
		t.Fatalf("期望 Remove 后不存在")
	}
	again, _ := f.army.Seed("p-1", f.region, domain.Legionary, 1)
	if again.ID == u.ID || again.Quantity != 1 {
		t.Fatalf("期望新堆叠, got=%+v", again)
	}
}

func TestTrain_数量过大时拒绝且不改余额(t *testing.T) {
	start := domain.Balance{Food: 500, Iron: 200}
	f := setup(t, start)
	_, _ = f.buildings.Seed("p-1", f.region, domain.Barracks)

	// 单价 × 数量超出 int64，乘积回绕成负数就会变成加钱
	if _, err := f.army.Train("p-1", f.region, domain.Legionary, 1844674407370955161); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("期望 InvalidArgument, got=%v", err)
	}
	if bal, _ := f.ledger.GetBalance("p-1"); bal != start {
		t.Fatalf("期望余额不变, got=%+v", bal)
	}
	if len(f.army.ByOwner("p-1")) != 0 {
		t.Fatalf("期望没有生成军队")
	}
}

func TestTrain_堆叠数量溢出时拒绝且不扣费(t *testing.T) {
	start := domain.Balance{Food: 1000, Iron: 1000}
	f := setup(t, start)
	_, _ = f.buildings.Seed("p-1", f.region, domain.Barracks)
	f.army.Restore([]domain.ArmyUnit{{ID: 99, OwnerID: "p-1", Region: f.region, Type: domain.Legionary, Quantity: math.MaxInt64 - 5}})

	if _, err := f.army.Train("p-1", f.region, domain.Legionary, 10); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("期望 InvalidArgument, got=%v", err)
	}
	if bal, _ := f.ledger.GetBalance("p-1"); bal != start {
		t.Fatalf("期望不扣费, got=%+v", bal)
	}
	if u, _ := f.army.Get(99); u.Quantity != math.MaxInt64-5 {
		t.Fatalf("期望堆叠数量不变, got=%d", u.Quantity)
	}
	if _, err := f.army.Seed("p-1", f.region, domain.Legionary, 10); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("期望 Seed 同样拒绝溢出, got=%v", err)
	}
}
