package broadcast

import "sync"

// DefaultInboxSize is the number of undelivered messages a member buffers
// before further messages to it are dropped.
const DefaultInboxSize = 64

// member is one Channel's registration on a Hub.
type member struct {
	id    string
	inbox chan []byte
}

// Hub routes messages between the members of named channels.
// All operations are thread-safe.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*member]struct{} // name -> members
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]map[*member]struct{}),
	}
}

func (h *Hub) join(name string, m *member) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.channels[name] == nil {
		h.channels[name] = make(map[*member]struct{})
	}
	h.channels[name][m] = struct{}{}
}

// leave removes m from name and closes its inbox.
func (h *Hub) leave(name string, m *member) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.channels[name]
	if !ok {
		return
	}
	if _, ok := members[m]; !ok {
		return
	}

	delete(members, m)
	if len(members) == 0 {
		delete(h.channels, name)
	}
	close(m.inbox)
}

// post delivers data to every member of name except from, without blocking.
// It returns how many members received the message.
func (h *Hub) post(name string, from *member, data []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for m := range h.channels[name] {
		if m == from {
			continue
		}
		select {
		case m.inbox <- data:
			delivered++
		default:
			// Inbox full; this member misses the message.
		}
	}
	return delivered
}

// MemberCount returns the number of members joined to name.
func (h *Hub) MemberCount(name string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[name])
}

// ChannelCount returns the number of channel names with at least one member.
func (h *Hub) ChannelCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}
