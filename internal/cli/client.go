package cli

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mkerrigan/roomrelay/internal/protocol"
	"github.com/mkerrigan/roomrelay/internal/transport"
)

// Client is a TCP client for the relay's wire protocol. Frames carry a
// uint32 little-endian length prefix, matching the server's TCP listener.
type Client struct {
	nc      net.Conn
	timeout time.Duration
}

// Dial connects to the relay's TCP listener
func Dial(addr string, timeout time.Duration) (*Client, error) {
	nc, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return &Client{nc: nc, timeout: timeout}, nil
}

// Close tears down the connection
func (c *Client) Close() error {
	return c.nc.Close()
}

// Send encodes and writes one message
func (c *Client) Send(msg protocol.Message) error {
	frame := protocol.Encode(msg)
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(frame)))
	if _, err := c.nc.Write(prefix[:]); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	if _, err := c.nc.Write(frame); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Recv blocks for one server message, up to the client timeout
func (c *Client) Recv() (protocol.Message, error) {
	return c.recv(c.timeout)
}

// RecvWait blocks for one server message without the one-shot timeout.
// Session commands use it to sit in a receive loop.
func (c *Client) RecvWait() (protocol.Message, error) {
	return c.recv(0)
}

func (c *Client) recv(timeout time.Duration) (protocol.Message, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := c.nc.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	var prefix [4]byte
	if _, err := io.ReadFull(c.nc, prefix[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(prefix[:])
	if n == 0 || n > transport.MaxFrameSize {
		return nil, fmt.Errorf("invalid frame length %d", n)
	}
	frame := make([]byte, n)
	if _, err := io.ReadFull(c.nc, frame); err != nil {
		return nil, err
	}
	return protocol.DecodeServerFrame(frame)
}

// AdminClient is an HTTP client for the admin endpoints
type AdminClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAdminClient creates a client for the admin API
func NewAdminClient(baseURL string, timeout time.Duration) *AdminClient {
	return &AdminClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get performs a GET request and decodes the JSON response into result
func (c *AdminClient) Get(path string, result any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
