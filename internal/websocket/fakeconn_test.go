package websocket

import (
	"errors"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errFakeClosed = errors.New("fake connection closed")

// frame is one outbound websocket frame.
type frame struct {
	Type int
	Data []byte
}

// fakeConn is an in-memory Connection. Reads block until push or close;
// writes are recorded and observable through waitFor.
type fakeConn struct {
	inbox  chan []byte
	closed chan struct{}
	once   sync.Once

	mu        sync.Mutex
	frames    []frame
	changed   chan struct{}
	limit     int64
	failWrite error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbox:   make(chan []byte, 64),
		closed:  make(chan struct{}),
		changed: make(chan struct{}),
	}
}

func (f *fakeConn) push(data string) {
	select {
	case f.inbox <- []byte(data):
	case <-f.closed:
	}
}

// failWrites makes every later write return err.
func (f *fakeConn) failWrites(err error) {
	f.mu.Lock()
	f.failWrite = err
	f.mu.Unlock()
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	if f.isClosed() {
		return errFakeClosed
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return f.failWrite
	}
	f.frames = append(f.frames, frame{Type: messageType, Data: append([]byte(nil), data...)})
	close(f.changed)
	f.changed = make(chan struct{})
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-f.inbox:
		return websocket.TextMessage, data, nil
	case <-f.closed:
		return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

func (f *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) SetReadLimit(limit int64) {
	f.mu.Lock()
	f.limit = limit
	f.mu.Unlock()
}

func (f *fakeConn) readLimit() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.limit
}

func (f *fakeConn) RemoteAddr() net.Addr {
	return net.TCPAddrFromAddrPort(netip.MustParseAddrPort("127.0.0.1:50000"))
}

// snapshot returns the text frames so far and a channel closed on the
// next write.
func (f *fakeConn) snapshot() ([]frame, <-chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]frame, 0, len(f.frames))
	for _, fr := range f.frames {
		if fr.Type == websocket.TextMessage {
			out = append(out, fr)
		}
	}
	return out, f.changed
}

func (f *fakeConn) written() []frame {
	frames, _ := f.snapshot()
	return frames
}

// waitFor reports whether cond holds for the written text frames before
// timeout.
func (f *fakeConn) waitFor(timeout time.Duration, cond func([]frame) bool) bool {
	deadline := time.After(timeout)
	for {
		frames, changed := f.snapshot()
		if cond(frames) {
			return true
		}
		select {
		case <-changed:
		case <-deadline:
			return false
		}
	}
}
