package ws

import (
	"context"

	"go.uber.org/zap"

	"Regnum/internal/game/domain"
	"Regnum/internal/game/event"
	"Regnum/internal/shared/transport"
	"Regnum/internal/shared/transport/ws"
	"Regnum/modules/kit/logx"
)

// PushName 服务端主动推送帧的 name。
const PushName = "event"

// Broadcaster 即 *ws.Hub。
type Broadcaster interface {
	BroadcastIf(name string, data any, match func(ws.WSConn) bool)
}

// Pusher 把总线事件转成推送帧。资源变动只推给本人，其余事件对所有连接可见。
type Pusher struct {
	hub Broadcaster
	log logx.Logger
}

func NewPusher(hub Broadcaster, l logx.Logger) *Pusher {
	if l == nil {
		l = logx.NewZapLogger(nil)
	}
	return &Pusher{hub: hub, log: l}
}

// Run 阻塞到 ctx 结束或订阅关闭。
func (p *Pusher) Run(ctx context.Context, sub *event.Subscription) {
	defer func() {
		if n := sub.Dropped(); n > 0 {
			p.log.Warn("ws push dropped events", zap.Uint64("dropped", n))
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C():
			if !ok {
				return
			}
			p.Push(e)
		}
	}
}

// Handle 实现 event.Sink，接在事件流水后面推送带持久序号的事件。
func (p *Pusher) Handle(e event.Event) { p.Push(e) }

func (p *Pusher) Push(e event.Event) {
	var match func(ws.WSConn) bool
	if e.Kind == event.ResourcesChanged {
		match = func(c ws.WSConn) bool {
			pr, _ := c.GetProperty(ws.ConnKeyPrincipal).(transport.Principal)
			return e.VisibleTo(domain.PlayerID(pr.PlayerID))
		}
	}
	p.hub.BroadcastIf(PushName, e, match)
}
