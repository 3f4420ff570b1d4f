package ws

import "sync"

// Hub 记录在线连接，给事件推送做广播。
type Hub struct {
	mu    sync.RWMutex
	conns map[WSConn]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[WSConn]struct{})}
}

func (h *Hub) Register(c WSConn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Unregister(c WSConn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast 推给所有连接；单个连接的写队列满时只丢它自己的这条。
func (h *Hub) Broadcast(name string, data any) {
	h.BroadcastIf(name, data, nil)
}

// BroadcastIf 只推给 match 返回 true 的连接，match 为 nil 等价于 Broadcast。
func (h *Hub) BroadcastIf(name string, data any, match func(WSConn) bool) {
	h.mu.RLock()
	conns := make([]WSConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	for _, c := range conns {
		if match == nil || match(c) {
			c.Push(name, data)
		}
	}
}
