package production

import (
	"context"
	"time"

	"github.com/asynkron/protoactor-go/actor"
)

type tick struct{}

func (tick) NotInfluenceReceiveTimeout() {}

// TickRequest 同步触发一次 tick（管理接口、测试）。At 为零值时取当前时间。
type TickRequest struct {
	At time.Time
}

type TickResponse struct {
	Report Report
	Err    error
}

// Actor 串行执行定时 tick 和手动 tick。
type Actor struct {
	scheduler *Scheduler
	now       func() time.Time
	tickStop  chan struct{}
}

func NewActor(s *Scheduler, now func() time.Time) *Actor {
	if now == nil {
		now = time.Now
	}
	return &Actor{scheduler: s, now: now}
}

func (a *Actor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		// 重启后先补当前窗口
		if _, err := a.scheduler.TickAt(context.Background(), a.now()); err != nil {
			ctx.Logger().Error("production catchup failed", "err", err)
		}
		a.startTickLoop(ctx)
	case *actor.Stopping, *actor.Stopped, *actor.Restarting:
		a.stopTickLoop()
	case tick:
		if _, err := a.scheduler.TickAt(context.Background(), a.now()); err != nil {
			ctx.Logger().Error("production tick failed", "err", err)
		}
	case *TickRequest:
		at := msg.At
		if at.IsZero() {
			at = a.now()
		}
		rep, err := a.scheduler.TickAt(context.Background(), at)
		ctx.Respond(&TickResponse{Report: rep, Err: err})
	}
}

func (a *Actor) startTickLoop(ctx actor.Context) {
	if a.tickStop != nil {
		return
	}
	every := a.scheduler.Period()
	a.tickStop = make(chan struct{})
	self := ctx.Self()
	root := ctx.ActorSystem().Root

	go func(stop <-chan struct{}) {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				root.Send(self, tick{})
			case <-stop:
				return
			}
		}
	}(a.tickStop)
}

func (a *Actor) stopTickLoop() {
	if a.tickStop == nil {
		return
	}
	close(a.tickStop)
	a.tickStop = nil
}
