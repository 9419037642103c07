package broadcast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultChannelName is the channel every context joins unless configured
// otherwise.
const DefaultChannelName = "health-management-sync"

// Channel is one context's end of a named broadcast channel.
//
// Thread-safety: all methods are safe from any goroutine.
type Channel struct {
	name   string
	id     string
	hub    *Hub
	member *member
	now    func() time.Time

	mu      sync.Mutex
	last    Event
	hasLast bool
	version uint64
	changed chan struct{}
	closed  bool

	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Channel.
type Option func(*options)

type options struct {
	now       func() time.Time
	id        string
	inboxSize int
}

// WithClock sets the clock used to stamp outgoing events.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithID sets the member id. The default is a fresh UUIDv7.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithInboxSize sets how many undelivered messages the channel buffers.
func WithInboxSize(n int) Option {
	return func(o *options) {
		o.inboxSize = n
	}
}

// Open joins hub under name and starts receiving. An empty name uses
// DefaultChannelName.
//
// A nil hub yields a degraded channel: it logs one warning, never receives,
// and Broadcast only updates the channel's own last-event slot.
func Open(hub *Hub, name string, opts ...Option) *Channel {
	o := options{now: time.Now, inboxSize: DefaultInboxSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.Must(uuid.NewV7()).String()
	}
	if o.inboxSize <= 0 {
		o.inboxSize = DefaultInboxSize
	}
	if name == "" {
		name = DefaultChannelName
	}

	c := &Channel{
		name:    name,
		id:      o.id,
		hub:     hub,
		now:     o.now,
		changed: make(chan struct{}),
		done:    make(chan struct{}),
	}

	if hub == nil {
		slog.Warn("sync channel unavailable; changes will not reach other contexts", "channel", name)
		close(c.done)
		return c
	}

	c.member = &member{id: c.id, inbox: make(chan []byte, o.inboxSize)}
	hub.join(name, c.member)
	go c.receive()

	slog.Debug("sync channel opened", "channel", name, "member", c.id)
	return c
}

// Name returns the channel name.
func (c *Channel) Name() string { return c.name }

// ID returns this member's id.
func (c *Channel) ID() string { return c.id }

// Degraded reports whether the channel runs without a hub.
func (c *Channel) Degraded() bool { return c.hub == nil }

// Broadcast sends ev to every other member of the channel and makes it this
// channel's last event. A zero Timestamp is stamped with the current time.
//
// The local slot receives the same decoded value other members see. Encoding
// failures are logged and the event is dropped. After Close, Broadcast does
// nothing.
func (c *Channel) Broadcast(ev Event) {
	if c.isClosed() {
		slog.Debug("sync event dropped: channel closed", "channel", c.name, "type", ev.Type)
		return
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = c.now().UnixMilli()
	}

	data, err := Encode(ev)
	if err != nil {
		slog.Error("sync event dropped", "channel", c.name, "type", ev.Type, "error", err)
		return
	}
	local, err := Decode(data)
	if err != nil {
		slog.Error("sync event dropped", "channel", c.name, "type", ev.Type, "error", err)
		return
	}

	if c.hub != nil {
		n := c.hub.post(c.name, c.member, data)
		slog.Debug("sync event sent", "channel", c.name, "type", ev.Type, "delivered", n)
	}
	c.setLast(local)
}

// Last returns the most recent event sent or received, and false if there
// has been none.
func (c *Channel) Last() (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.hasLast
}

// Version counts replacements of the last-event slot.
func (c *Channel) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Changed returns a channel that is closed the next time the last event is
// replaced. Call it again after each wakeup.
func (c *Channel) Changed() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changed
}

// Close leaves the hub and stops receiving before it returns. It is
// idempotent.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		if c.hub != nil {
			c.hub.leave(c.name, c.member)
		}
		<-c.done
		slog.Debug("sync channel closed", "channel", c.name, "member", c.id)
	})
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Channel) setLast(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.last = ev
	c.hasLast = true
	c.version++
	close(c.changed)
	c.changed = make(chan struct{})
}

// receive applies inbound messages until the hub closes the inbox.
func (c *Channel) receive() {
	defer close(c.done)

	for data := range c.member.inbox {
		ev, err := Decode(data)
		if err != nil {
			slog.Warn("malformed sync message dropped", "channel", c.name, "error", err)
			continue
		}
		if c.isClosed() {
			continue
		}
		slog.Debug("sync event received", "channel", c.name, "type", ev.Type)
		c.setLast(ev)
	}
}
