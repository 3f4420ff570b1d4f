package production

import (
	"context"
	"fmt"
	"time"

	"Regnum/modules/kit/errx"

	protoactor "github.com/asynkron/protoactor-go/actor"
)

const defaultAskTimeout = 3 * time.Second

// ErrRuntimeStopped Shutdown 之后或未初始化时的请求。
var ErrRuntimeStopped = errx.NewSys("GAME_PRODUCTION_STOPPED", "产出调度已停止")

// Runtime 一个 actor system 里只跑一个调度 actor：定时 tick 和 TickNow 共用同一个邮箱。
type Runtime struct {
	system  *protoactor.ActorSystem
	pid     *protoactor.PID
	timeout time.Duration
}

func NewRuntime(s *Scheduler, now func() time.Time, askTimeout time.Duration) *Runtime {
	if askTimeout <= 0 {
		askTimeout = defaultAskTimeout
	}
	system := protoactor.NewActorSystem()
	props := protoactor.PropsFromProducer(func() protoactor.Actor {
		return NewActor(s, now)
	})
	return &Runtime{
		system:  system,
		pid:     system.Root.Spawn(props),
		timeout: askTimeout,
	}
}

// TickNow 同步执行一次 tick；ctx 的 deadline 比 askTimeout 更近时以 ctx 为准。
func (r *Runtime) TickNow(ctx context.Context, at time.Time) (Report, error) {
	if r == nil || r.pid == nil {
		return Report{}, ErrRuntimeStopped
	}
	res, err := r.system.Root.RequestFuture(r.pid, &TickRequest{At: at}, r.askTimeout(ctx)).Result()
	if err != nil {
		return Report{}, errx.ErrUnavailable.WithData("op", "production.tick").WithCause(err)
	}
	resp, ok := res.(*TickResponse)
	if !ok || resp == nil {
		return Report{}, errx.ErrInternal.WithCause(fmt.Errorf("production: unexpected reply %T", res))
	}
	return resp.Report, resp.Err
}

// Shutdown 等调度 actor 停下（Stopping 时关掉 ticker）再关 actor system。
func (r *Runtime) Shutdown() {
	if r == nil || r.pid == nil {
		return
	}
	_ = r.system.Root.StopFuture(r.pid).Wait()
	r.system.Shutdown()
	r.pid = nil
}

func (r *Runtime) askTimeout(ctx context.Context) time.Duration {
	timeout := r.timeout
	if ctx == nil {
		return timeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		remain := time.Until(deadline)
		if remain <= 0 {
			return time.Millisecond
		}
		timeout = min(timeout, remain)
	}
	return timeout
}
