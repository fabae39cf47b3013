package transport

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/openlabkit/labware/command"
	"github.com/openlabkit/labware/logger"
)

// HTTPConnection drives an instrument with a REST interface. It differs in
// shape from the byte-stream adapters: each Transmit performs one
// request/response exchange and stores the decoded response, which the next
// Receive hands back. There is no listener loop, and no command delay is
// enforced since network stack latency already spaces requests out.
type HTTPConnection struct {
	cfg     *Config
	logger  logger.Logger
	baseURL string

	clientMu sync.Mutex
	client   *http.Client

	replyMu     sync.Mutex
	lastBody    string
	lastHeaders map[string]string
}

var _ Connection = (*HTTPConnection)(nil)

// NewHTTPConnection creates an HTTP REST connection from cfg.
func NewHTTPConnection(cfg *Config) (*HTTPConnection, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrConnection)
	}
	if cfg.Address() == "" {
		return nil, fmt.Errorf("%w: HTTP address not configured", ErrConnection)
	}

	baseURL := cfg.Scheme() + "://" + cfg.Address()
	if cfg.Port() != 0 {
		baseURL = cfg.Scheme() + "://" + net.JoinHostPort(cfg.Address(), strconv.Itoa(cfg.Port()))
	}

	return &HTTPConnection{
		cfg:     cfg,
		logger:  cfg.Logger().With("transport", "http", "base_url", baseURL),
		baseURL: baseURL,
	}, nil
}

// Open initializes the HTTP client session.
func (c *HTTPConnection) Open() error {
	c.clientMu.Lock()
	defer c.clientMu.Unlock()

	transport := http.DefaultTransport
	if c.cfg.SkipVerify() {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		}
	}
	c.client = &http.Client{
		Timeout:   c.cfg.TransmitTimeout(),
		Transport: transport,
	}
	c.logger.Info("session initialized")

	return nil
}

// Close tears the session down. Idempotent.
func (c *HTTPConnection) Close() error {
	c.clientMu.Lock()
	defer c.clientMu.Unlock()

	if c.client == nil {
		return nil
	}
	c.client.CloseIdleConnections()
	c.client = nil
	c.logger.Info("session closed")

	return nil
}

// IsOpen reports whether the HTTP session has been initialized. REST is
// stateless, so there is no live link to probe beyond that.
func (c *HTTPConnection) IsOpen() bool {
	c.clientMu.Lock()
	defer c.clientMu.Unlock()

	return c.client != nil
}

// Transmit performs the HTTP request described by msg and stores the
// response for the next Receive.
func (c *HTTPConnection) Transmit(msg command.Message) error {
	c.clientMu.Lock()
	client := c.client
	c.clientMu.Unlock()
	if client == nil {
		return fmt.Errorf("%w: session not initialized", ErrNotOpen)
	}

	target, err := url.JoinPath(c.baseURL, msg.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: bad endpoint %q: %v", ErrProtocol, msg.Endpoint, err)
	}

	var body io.Reader
	if len(msg.Body) > 0 {
		body = bytes.NewReader(msg.Body)
	}
	req, err := http.NewRequest(strings.ToUpper(msg.Method), target, body)
	if err != nil {
		return fmt.Errorf("%w: can't build request: %v", ErrProtocol, err)
	}
	if user, password := c.cfg.Credentials(); user != "" {
		req.SetBasicAuth(user, password)
	}
	for k, v := range c.cfg.Headers() {
		req.Header.Set(k, v)
	}

	c.logger.Debug("invoking endpoint", "url", target, "method", req.Method)
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: can't reach host: %v", ErrTransmitFailed, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: can't read response body: %v", ErrProtocol, err)
	}
	if resp.StatusCode > 400 {
		return fmt.Errorf("%w: server replied with HTTP code %d (%s)",
			ErrProtocol, resp.StatusCode, string(payload))
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	c.replyMu.Lock()
	c.lastBody = string(payload)
	c.lastHeaders = headers
	c.replyMu.Unlock()

	return nil
}

// Receive hands back the response stored by the previous Transmit, with the
// response headers attached as reply parameters.
func (c *HTTPConnection) Receive() (*command.Reply, error) {
	c.replyMu.Lock()
	defer c.replyMu.Unlock()

	return &command.Reply{
		ContentType: command.ContentJSON,
		Parameters:  c.lastHeaders,
		Body:        c.lastBody,
	}, nil
}
