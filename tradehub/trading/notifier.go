package trading

import (
	"sync"

	"log/slog"

	"github.com/lucentgarden/tradehub/tradehub/database/models"
)

const subscriberBuffer = 8

// TradeChanged is published after every committed transition. Record is the
// post-transition row.
type TradeChanged struct {
	TradeID string        `json:"trade_id"`
	Record  *models.Trade `json:"record"`
}

// Notifier fans trade transitions out to in-process subscribers keyed by
// trade id. Delivery is best-effort: a slow subscriber drops events rather
// than blocking the mutation path.
type Notifier struct {
	mu     sync.RWMutex
	subs   map[string]map[int]chan TradeChanged
	nextID int
	closed bool
}

func NewNotifier() *Notifier {
	return &Notifier{
		subs: make(map[string]map[int]chan TradeChanged),
	}
}

// Subscribe registers interest in one trade. The returned cancel func must
// be called when the subscriber goes away; it closes the channel.
func (n *Notifier) Subscribe(tradeID string) (<-chan TradeChanged, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan TradeChanged, subscriberBuffer)
	if n.closed {
		close(ch)
		return ch, func() {}
	}

	id := n.nextID
	n.nextID++

	if n.subs[tradeID] == nil {
		n.subs[tradeID] = make(map[int]chan TradeChanged)
	}
	n.subs[tradeID][id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if subs, ok := n.subs[tradeID]; ok {
			if _, ok := subs[id]; ok {
				delete(subs, id)
				close(ch)
				if len(subs) == 0 {
					delete(n.subs, tradeID)
				}
			}
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber of the trade without
// blocking. Full buffers drop the event.
func (n *Notifier) Publish(event TradeChanged) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return
	}
	for _, ch := range n.subs[event.TradeID] {
		select {
		case ch <- event:
		default:
			slog.Warn("Dropping trade event for slow subscriber",
				slog.String("type", "sys"),
				slog.String("trade_id", event.TradeID),
			)
		}
	}
}

// Close shuts down all subscriber channels. Subsequent Publish calls are
// no-ops and subsequent Subscribe calls return closed channels.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	for tradeID, subs := range n.subs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(n.subs, tradeID)
	}
}
