package realtime

import (
	"sync"
)

// StatusEvent is pushed to device agents when a self-destruct flag changes.
type StatusEvent struct {
	Email        string `json:"email"`
	DeviceID     string `json:"device_id,omitempty"`
	SelfDestruct bool   `json:"self_destruct"`
}

// StatusHub fans flag changes out to subscribers keyed by account email.
type StatusHub struct {
	mu   sync.Mutex
	subs map[string]map[chan StatusEvent]struct{}
}

func NewStatusHub() *StatusHub {
	return &StatusHub{
		subs: make(map[string]map[chan StatusEvent]struct{}),
	}
}

// Subscribe returns a buffered channel of events for email and a cancel func
// that must be called once the subscriber goes away.
func (h *StatusHub) Subscribe(email string, buf int) (<-chan StatusEvent, func()) {
	if buf <= 0 {
		buf = 1
	}
	ch := make(chan StatusEvent, buf)

	h.mu.Lock()
	if h.subs[email] == nil {
		h.subs[email] = make(map[chan StatusEvent]struct{})
	}
	h.subs[email][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if chans, ok := h.subs[email]; ok {
				delete(chans, ch)
				if len(chans) == 0 {
					delete(h.subs, email)
				}
			}
			close(ch)
		})
	}
}

// PublishSelfDestruct never blocks; a subscriber with a full buffer misses
// the event and can still poll /selfdestruct.
func (h *StatusHub) PublishSelfDestruct(email, deviceID string, value bool) {
	ev := StatusEvent{Email: email, DeviceID: deviceID, SelfDestruct: value}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[email] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers reports how many listeners an email has.
func (h *StatusHub) Subscribers(email string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[email])
}
