package transport

import (
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlabkit/labware/command"
)

// fakeInstrument is a line-oriented TCP device: every received line starting
// with "IN_" is answered, every other line is swallowed.
type fakeInstrument struct {
	listener net.Listener

	mu    sync.Mutex
	conns []net.Conn
}

func newFakeInstrument(t *testing.T) *fakeInstrument {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	dev := &fakeInstrument{listener: ln}
	go dev.serve()
	t.Cleanup(dev.close)

	return dev
}

func (d *fakeInstrument) serve() {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			return
		}
		d.mu.Lock()
		d.conns = append(d.conns, conn)
		d.mu.Unlock()
		go d.handle(conn)
	}
}

func (d *fakeInstrument) handle(conn net.Conn) {
	buf := make([]byte, 256)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		for _, line := range strings.Split(strings.TrimSpace(string(buf[:n])), "\r\n") {
			if strings.HasPrefix(line, "IN_PV_2") {
				_, _ = conn.Write([]byte("103.5 1\r\n"))
			}
		}
	}
}

func (d *fakeInstrument) close() {
	_ = d.listener.Close()
	d.mu.Lock()
	for _, conn := range d.conns {
		_ = conn.Close()
	}
	d.mu.Unlock()
}

func (d *fakeInstrument) addr() (string, int) {
	addr := d.listener.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func newSocketConn(t *testing.T, dev *fakeInstrument, opts ...Option) *SocketConnection {
	t.Helper()

	host, port := dev.addr()
	opts = append([]Option{
		WithAddress(host),
		WithPort(port),
		WithCommandDelay(0),
		WithReceivingInterval(5 * time.Millisecond),
		WithReceiveTimeout(200 * time.Millisecond),
		WithReceiveRetries(0),
	}, opts...)
	cfg, err := NewConfig(opts...)
	require.NoError(t, err)

	conn, err := NewSocketConnection(cfg)
	require.NoError(t, err)

	return conn
}

func TestSocketTransmitReceive(t *testing.T) {
	dev := newFakeInstrument(t)
	conn := newSocketConn(t, dev)

	require.NoError(t, conn.Open())
	defer conn.Close()

	require.NoError(t, conn.Transmit(command.Message{Body: []byte("IN_PV_2\r\n")}))

	reply, err := conn.Receive()
	require.NoError(t, err)
	assert.Equal(t, command.ContentChunked, reply.ContentType)
	assert.Equal(t, "103.5 1\r\n", reply.Body)
}

func TestSocketReceiveTimeout(t *testing.T) {
	dev := newFakeInstrument(t)
	conn := newSocketConn(t, dev)

	require.NoError(t, conn.Open())
	defer conn.Close()

	// STOP_1 is fire-and-forget on the fake device; nothing comes back.
	require.NoError(t, conn.Transmit(command.Message{Body: []byte("STOP_1\r\n")}))

	_, err := conn.Receive()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReceiveTimeout)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestSocketCommandDelay(t *testing.T) {
	dev := newFakeInstrument(t)
	conn := newSocketConn(t, dev, WithCommandDelay(80*time.Millisecond))

	require.NoError(t, conn.Open())
	defer conn.Close()

	start := time.Now()
	require.NoError(t, conn.Transmit(command.Message{Body: []byte("STOP_1\r\n")}))
	require.NoError(t, conn.Transmit(command.Message{Body: []byte("STOP_1\r\n")}))
	require.NoError(t, conn.Transmit(command.Message{Body: []byte("STOP_1\r\n")}))

	// Three transmits mean two enforced gaps.
	assert.GreaterOrEqual(t, time.Since(start), 160*time.Millisecond)
}

func TestSocketTransmitNotOpen(t *testing.T) {
	dev := newFakeInstrument(t)
	conn := newSocketConn(t, dev)

	err := conn.Transmit(command.Message{Body: []byte("IN_PV_2\r\n")})
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestSocketCloseIdempotent(t *testing.T) {
	dev := newFakeInstrument(t)
	conn := newSocketConn(t, dev)

	require.NoError(t, conn.Open())
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	assert.False(t, conn.IsOpen())
}

func TestSocketReopen(t *testing.T) {
	dev := newFakeInstrument(t)
	conn := newSocketConn(t, dev)

	require.NoError(t, conn.Open())
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Open())
	defer conn.Close()

	require.NoError(t, conn.Transmit(command.Message{Body: []byte("IN_PV_2\r\n")}))
	reply, err := conn.Receive()
	require.NoError(t, err)
	assert.Equal(t, "103.5 1\r\n", reply.Body)
}

func TestSocketUnsolicitedReplyOverwritten(t *testing.T) {
	dev := newFakeInstrument(t)
	conn := newSocketConn(t, dev)

	require.NoError(t, conn.Open())
	defer conn.Close()

	// Two queries back to back without consuming the first reply: the
	// pending slot keeps only the last one.
	require.NoError(t, conn.Transmit(command.Message{Body: []byte("IN_PV_2\r\n")}))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, conn.Transmit(command.Message{Body: []byte("IN_PV_2\r\n")}))
	time.Sleep(50 * time.Millisecond)

	reply, err := conn.Receive()
	require.NoError(t, err)
	assert.Equal(t, "103.5 1\r\n", reply.Body)

	_, err = conn.Receive()
	assert.ErrorIs(t, err, ErrReceiveTimeout)
}

func TestSocketCloseAfterRemoteDisconnect(t *testing.T) {
	dev := newFakeInstrument(t)
	conn := newSocketConn(t, dev)

	require.NoError(t, conn.Open())

	conn.connMu.Lock()
	raw := conn.conn
	conn.connMu.Unlock()
	require.NotNil(t, raw)

	// Drop the device side; the listener notices and marks the connection
	// down on its own.
	dev.close()
	assert.Eventually(t, func() bool { return !conn.IsOpen() },
		2*time.Second, 10*time.Millisecond)

	// Close must still release the socket even though the listener already
	// flagged the connection as down.
	require.NoError(t, conn.Close())
	assert.ErrorIs(t, raw.Close(), net.ErrClosed)
}

func TestJoinHostPortHelper(t *testing.T) {
	cfg, err := NewConfig(WithAddress("192.168.1.40"), WithPort(5025))
	require.NoError(t, err)

	assert.Equal(t, net.JoinHostPort("192.168.1.40", strconv.Itoa(5025)), cfg.remoteAddr())
}
