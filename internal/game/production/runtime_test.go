package production

import (
	"context"
	"errors"
	"testing"
	"time"

	"Regnum/internal/game/domain"
	"Regnum/internal/game/ledger"
)

func TestRuntime_TickNow经由actor执行(t *testing.T) {
	l := ledger.New(nil)
	_ = l.Open("p-1", domain.Balance{})
	s := NewScheduler(staticBuildings{farm("p-1", 36)}, l, nil, Options{Period: time.Hour})

	fixed := time.Unix(1_700_000_000, 0)
	rt := NewRuntime(s, func() time.Time { return fixed }, time.Second)
	defer rt.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Started 时已经补过当前窗口
	rep, err := rt.TickNow(ctx, fixed)
	if err != nil {
		t.Fatalf("TickNow err=%v", err)
	}
	if !rep.Skipped {
		t.Fatalf("期望当前窗口已在启动时入账, got=%+v", rep)
	}
	if bal, _ := l.GetBalance("p-1"); bal.Food != 360 {
		t.Fatalf("期望入账 360, got=%d", bal.Food)
	}

	rep, err = rt.TickNow(ctx, fixed.Add(time.Hour))
	if err != nil || rep.Skipped || rep.Credits["p-1"][domain.Food] != 360 {
		t.Fatalf("期望下一窗口入账 360, got=%+v err=%v", rep, err)
	}
}

func TestRuntime_Shutdown后请求报已停止(t *testing.T) {
	l := ledger.New(nil)
	s := NewScheduler(staticBuildings{}, l, nil, Options{Period: time.Hour})
	rt := NewRuntime(s, time.Now, time.Second)
	rt.Shutdown()
	rt.Shutdown()

	if _, err := rt.TickNow(context.Background(), time.Now()); !errors.Is(err, ErrRuntimeStopped) {
		t.Fatalf("期望 ErrRuntimeStopped, got=%v", err)
	}
}
