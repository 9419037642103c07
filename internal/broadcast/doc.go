// Package broadcast propagates data-change notifications between application
// contexts that share one patient database.
//
// A Hub is the messaging primitive: contexts join it under a channel name
// and every message posted by one member is delivered to every other member
// of that name. The sender never receives its own message. Delivery is
// asynchronous and best-effort; a member whose inbox is full misses the
// message.
//
// Each context opens one Channel. A Channel keeps a single "last event"
// slot, replaced by every event it sends or receives, and exposes Changed so
// consumers can re-query when the slot moves:
//
//	for {
//		select {
//		case <-ch.Changed():
//			ev, _ := ch.Last()
//			reload(ev)
//		case <-ctx.Done():
//			return
//		}
//	}
//
// The slot is level-triggered. Several events arriving between two reads of
// Last collapse into the most recent one, so consumers must reload state
// rather than replay events. Events are never persisted or queued.
//
// A Hub only reaches members in its own process. A Bridge carries its
// messages to the hubs of other processes using the same database, over
// unix datagram sockets that meet in RendezvousDir. Peers that are not
// running when a message is sent miss it.
package broadcast
