package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"syscall"
	"time"

	"github.com/maximbilan/sensclip/internal/sensitive"
)

// Client talks to a running daemon. Each call opens a fresh connection.
type Client struct {
	sockPath string
	timeout  time.Duration
}

// NewClient creates a Client for sockPath. An empty path selects SocketPath().
func NewClient(sockPath string, timeout time.Duration) *Client {
	if sockPath == "" {
		sockPath = SocketPath()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{sockPath: sockPath, timeout: timeout}
}

// SetString asks the daemon to copy text and clear it after duration seconds.
func (c *Client) SetString(ctx context.Context, text string, duration float64) error {
	_, err := c.Call(ctx, sensitive.ModuleName, MethodSetString, SetStringArgs{Text: text, Duration: duration})
	return err
}

// Clear asks the daemon to clear the clipboard now.
func (c *Client) Clear(ctx context.Context) error {
	_, err := c.Call(ctx, sensitive.ModuleName, MethodClear, nil)
	return err
}

// Status asks the daemon whether a clear is pending.
func (c *Client) Status(ctx context.Context) (Status, error) {
	raw, err := c.Call(ctx, sensitive.ModuleName, MethodStatus, nil)
	if err != nil {
		return Status{}, err
	}
	var st Status
	if err := json.Unmarshal(raw, &st); err != nil {
		return Status{}, fmt.Errorf("parse status failed: %w", err)
	}
	return st, nil
}

// Call sends one request and returns the raw result. Dial failures caused by
// a missing or dead daemon wrap ErrNoDaemon.
func (c *Client) Call(ctx context.Context, module, method string, args any) (json.RawMessage, error) {
	req := Request{Module: module, Method: method}
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("failed to encode args: %w", err)
		}
		req.Args = data
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Type == "Error" {
		return nil, &RemoteError{Code: resp.Code, Message: resp.Message}
	}
	return resp.Result, nil
}

// RemoteError is an error reported by the daemon.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("bridge error (code %d): %s", e.Code, e.Message)
}

// send opens a connection, writes the request, reads one response, and closes.
func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.sockPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED) {
			return nil, fmt.Errorf("%w (socket %s)", ErrNoDaemon, c.sockPath)
		}
		return nil, fmt.Errorf("cannot connect to sensclip daemon at %s: %w", c.sockPath, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	data = append(data, '\n')

	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("write failed: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), MaxLineSize)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read failed: %w", err)
		}
		return nil, fmt.Errorf("bridge closed connection")
	}

	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}
	return &resp, nil
}
