package broadcast

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// MaxDatagram bounds the size of a message a Bridge forwards. Larger
// messages are dropped.
const MaxDatagram = 64 << 10

// sendTimeout bounds a write to one peer whose receive queue is full.
const sendTimeout = 100 * time.Millisecond

const socketSuffix = ".sock"

// RendezvousDir returns the directory in which bridges for the channel name
// of the database at dbPath meet. Processes using the same database file
// share it.
func RendezvousDir(dbPath, name string) string {
	if abs, err := filepath.Abs(dbPath); err == nil {
		dbPath = abs
	}
	sum := sha256.Sum256([]byte(dbPath + "\x00" + name))
	return filepath.Join(os.TempDir(), "prms-"+hex.EncodeToString(sum[:8]))
}

// Bridge connects a Hub to the hubs of other processes on this host.
//
// Each bridge binds one unix datagram socket in a shared directory. A message
// posted on the local hub is sent to every other socket in that directory,
// and a datagram received from a peer is posted on the local hub. Nothing is
// stored: a peer that is not listening when a message is sent misses it, and
// sockets left behind by dead processes are removed when a send to them is
// refused.
//
// Thread-safety: Close is safe from any goroutine.
type Bridge struct {
	name   string
	dir    string
	path   string
	hub    *Hub
	member *member
	conn   *net.UnixConn

	sent      chan struct{}
	received  chan struct{}
	closeOnce sync.Once
}

// OpenBridge joins hub under name and starts relaying through dir, which is
// created if missing. It fails when the platform has no unix datagram
// sockets; the hub keeps working for in-process members.
func OpenBridge(hub *Hub, dir, name string) (*Bridge, error) {
	if name == "" {
		name = DefaultChannelName
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("open sync bridge: %w", err)
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	path := filepath.Join(dir, id+socketSuffix)
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		return nil, fmt.Errorf("open sync bridge: %w", err)
	}

	b := &Bridge{
		name:     name,
		dir:      dir,
		path:     path,
		hub:      hub,
		member:   &member{id: "bridge-" + id, inbox: make(chan []byte, DefaultInboxSize)},
		conn:     conn,
		sent:     make(chan struct{}),
		received: make(chan struct{}),
	}
	hub.join(name, b.member)

	go b.send()
	go b.receive()

	slog.Debug("sync bridge opened", "channel", name, "socket", path)
	return b, nil
}

// Path returns the bridge's socket path.
func (b *Bridge) Path() string { return b.path }

// Close leaves the hub, sends what is already queued, and removes the
// socket. It is idempotent.
func (b *Bridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.hub.leave(b.name, b.member)
		<-b.sent
		err = b.conn.Close()
		<-b.received

		if rmErr := os.Remove(b.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
		_ = os.Remove(b.dir) // succeeds only once the last peer is gone
		slog.Debug("sync bridge closed", "channel", b.name, "socket", b.path)
	})
	return err
}

// send forwards local messages to every peer until the inbox is closed.
func (b *Bridge) send() {
	defer close(b.sent)

	for data := range b.member.inbox {
		if len(data) > MaxDatagram {
			slog.Warn("sync message too large for bridge", "channel", b.name, "bytes", len(data))
			continue
		}
		for _, peer := range b.peers() {
			b.sendTo(peer, data)
		}
	}
}

func (b *Bridge) sendTo(peer string, data []byte) {
	_ = b.conn.SetWriteDeadline(time.Now().Add(sendTimeout))
	_, err := b.conn.WriteToUnix(data, &net.UnixAddr{Name: peer, Net: "unixgram"})
	switch {
	case err == nil:
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, os.ErrNotExist):
		// No process behind the socket any more.
		_ = os.Remove(peer)
		slog.Debug("stale sync peer removed", "socket", peer)
	default:
		slog.Debug("sync message not delivered", "socket", peer, "error", err)
	}
}

func (b *Bridge) peers() []string {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		slog.Warn("sync peers unavailable", "dir", b.dir, "error", err)
		return nil
	}

	var peers []string
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), socketSuffix) {
			continue
		}
		p := filepath.Join(b.dir, e.Name())
		if p != b.path {
			peers = append(peers, p)
		}
	}
	return peers
}

// receive posts peer datagrams on the local hub until the socket closes.
// The bridge's own member is excluded, so nothing received is sent back out.
func (b *Bridge) receive() {
	defer close(b.received)

	buf := make([]byte, MaxDatagram)
	for {
		n, _, err := b.conn.ReadFromUnix(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				slog.Warn("sync bridge stopped receiving", "channel", b.name, "error", err)
			}
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		b.hub.post(b.name, b.member, data)
	}
}
