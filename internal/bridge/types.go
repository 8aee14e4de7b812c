package bridge

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Error codes carried in Response.Code.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
	CodeRateLimited    = -32029
)

// Method names understood by the SensitiveClipboard module.
const (
	MethodSetString = "setString"
	MethodClear     = "clear"
	MethodStatus    = "status"
)

var (
	// ErrNoDaemon is returned by the client when nothing listens on the socket.
	ErrNoDaemon = errors.New("sensclip daemon is not running")
	// ErrUnknownMethod is returned by a Router for methods it does not serve.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrInvalidParams is returned by a Router when arguments do not decode.
	ErrInvalidParams = errors.New("invalid params")
)

// Request is the wire format for requests sent over the Unix socket.
type Request struct {
	Module string          `json:"module"`
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args,omitempty"`
}

// Response is the wire format for responses sent over the Unix socket.
type Response struct {
	Type    string          `json:"type"` // "Result" or "Error"
	Result  json.RawMessage `json:"result,omitempty"`
	Code    int             `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
}

// SetStringArgs are the arguments of setString.
type SetStringArgs struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
}

// Status is the result of the status method.
type Status struct {
	Pending bool  `json:"pending"`
	Due     int64 `json:"due,omitempty"` // unix seconds
}

// Router handles decoded requests. Implemented by the daemon.
type Router interface {
	Call(module, method string, args json.RawMessage) (json.RawMessage, error)
}

// SocketPath returns the default socket path, ~/.sensclip/sensclip.sock.
// Creates the parent directory if it does not exist.
func SocketPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	dir := filepath.Join(home, ".sensclip")
	_ = os.MkdirAll(dir, 0o700)
	return filepath.Join(dir, "sensclip.sock")
}
