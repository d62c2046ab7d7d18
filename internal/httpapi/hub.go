package httpapi

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/ent0n29/remindbot/internal/observability"
	"github.com/ent0n29/remindbot/internal/protocol"
)

// Hub fans bot output out to every open WebSocket of a user. Messages for a
// user with no open connection wait in a bounded outbox.
type Hub struct {
	mu          sync.Mutex
	conns       map[string]map[string]chan any
	outbox      map[string][]any
	outboxLimit int
	sendBuffer  int
	metrics     *observability.Metrics
}

func NewHub(outboxLimit, sendBuffer int, metrics *observability.Metrics) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	if outboxLimit < 0 {
		outboxLimit = 0
	}
	return &Hub{
		conns:       make(map[string]map[string]chan any),
		outbox:      make(map[string][]any),
		outboxLimit: outboxLimit,
		sendBuffer:  sendBuffer,
		metrics:     metrics,
	}
}

func (h *Hub) Send(_ context.Context, msg protocol.BotMessage) error {
	h.deliver(msg.UserID, msg)
	return nil
}

func (h *Hub) EditMarkup(_ context.Context, edit protocol.BotEditMarkup) error {
	h.deliver(edit.UserID, edit)
	return nil
}

// Notify delivers a transport-level event such as an ErrorEvent.
func (h *Hub) Notify(userID string, msg any) {
	h.deliver(userID, msg)
}

func (h *Hub) deliver(userID string, msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.conns[userID]
	if len(conns) == 0 {
		h.enqueueLocked(userID, msg)
		return
	}
	for id, ch := range conns {
		select {
		case ch <- msg:
		default:
			// Keep websocket writes single-threaded; drop if the connection queue is saturated.
			h.metrics.ObserveDropped("queue_full")
			log.Printf("httpapi: dropped message for user=%s conn=%s: queue full", userID, id)
		}
	}
}

func (h *Hub) enqueueLocked(userID string, msg any) {
	if h.outboxLimit == 0 {
		h.metrics.ObserveDropped("offline")
		return
	}
	q := append(h.outbox[userID], msg)
	if over := len(q) - h.outboxLimit; over > 0 {
		q = q[over:]
		h.metrics.ObserveDropped("outbox_full")
	}
	h.outbox[userID] = q
}

// Attach registers a connection for userID. The returned channel first
// yields any messages queued while the user was offline and is closed by
// detach.
func (h *Hub) Attach(userID string) (connID string, out <-chan any, detach func()) {
	connID = uuid.NewString()
	ch := make(chan any, h.sendBuffer)

	h.mu.Lock()
	queued := h.outbox[userID]
	n := 0
	for ; n < len(queued) && n < cap(ch); n++ {
		ch <- queued[n]
	}
	if n < len(queued) {
		h.outbox[userID] = queued[n:]
	} else {
		delete(h.outbox, userID)
	}
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[string]chan any)
	}
	h.conns[userID][connID] = ch
	h.mu.Unlock()

	var once sync.Once
	detach = func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.conns[userID], connID)
			if len(h.conns[userID]) == 0 {
				delete(h.conns, userID)
			}
			close(ch)
		})
	}
	return connID, ch, detach
}

// Drain removes and returns the messages queued for an offline user.
func (h *Hub) Drain(userID string) []any {
	h.mu.Lock()
	defer h.mu.Unlock()
	q := h.outbox[userID]
	delete(h.outbox, userID)
	return q
}

// Connections reports how many sockets userID has open.
func (h *Hub) Connections(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[userID])
}
