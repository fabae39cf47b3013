package transport

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlabkit/labware/command"
)

func newHTTPConn(t *testing.T, srv *httptest.Server, opts ...Option) *HTTPConnection {
	t.Helper()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	opts = append([]Option{WithAddress(u.Hostname()), WithPort(port)}, opts...)
	cfg, err := NewConfig(opts...)
	require.NoError(t, err)

	conn, err := NewHTTPConnection(cfg)
	require.NoError(t, err)
	require.NoError(t, conn.Open())
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func TestHTTPTransmitReceive(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"state":{"temperature":21.5}}`))
	}))
	defer srv.Close()

	conn := newHTTPConn(t, srv)

	err := conn.Transmit(command.Message{Method: "get", Endpoint: "/api/v1/process"})
	require.NoError(t, err)
	assert.Equal(t, "GET", gotMethod)
	assert.Equal(t, "/api/v1/process", gotPath)

	reply, err := conn.Receive()
	require.NoError(t, err)
	assert.Equal(t, command.ContentJSON, reply.ContentType)
	assert.Equal(t, `{"state":{"temperature":21.5}}`, reply.Body)
	assert.Equal(t, "application/json", reply.Parameters["Content-Type"])
}

func TestHTTPTransmitBody(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		gotBody = string(payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	conn := newHTTPConn(t, srv)

	err := conn.Transmit(command.Message{
		Method:   "put",
		Endpoint: "/api/v1/process/start",
		Body:     []byte(`{"setpoint":50}`),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"setpoint":50}`, gotBody)
}

func TestHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such endpoint", http.StatusNotFound)
	}))
	defer srv.Close()

	conn := newHTTPConn(t, srv)

	err := conn.Transmit(command.Message{Method: "get", Endpoint: "/nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
	assert.ErrorIs(t, err, ErrConnection)
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPAuthAndHeaders(t *testing.T) {
	var gotUser, gotPassword, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPassword, _ = r.BasicAuth()
		gotAccept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	conn := newHTTPConn(t, srv,
		WithCredentials("operator", "hunter2"),
		WithHeaders(map[string]string{"Accept": "application/json"}),
	)

	require.NoError(t, conn.Transmit(command.Message{Method: "get", Endpoint: "/api"}))
	assert.Equal(t, "operator", gotUser)
	assert.Equal(t, "hunter2", gotPassword)
	assert.Equal(t, "application/json", gotAccept)
}

func TestHTTPNotOpen(t *testing.T) {
	cfg, err := NewConfig(WithAddress("localhost"))
	require.NoError(t, err)

	conn, err := NewHTTPConnection(cfg)
	require.NoError(t, err)

	err = conn.Transmit(command.Message{Method: "get", Endpoint: "/api"})
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestHTTPIsOpen(t *testing.T) {
	cfg, err := NewConfig(WithAddress("localhost"))
	require.NoError(t, err)

	conn, err := NewHTTPConnection(cfg)
	require.NoError(t, err)

	assert.False(t, conn.IsOpen())
	require.NoError(t, conn.Open())
	assert.True(t, conn.IsOpen())
	require.NoError(t, conn.Close())
	assert.False(t, conn.IsOpen())
}
