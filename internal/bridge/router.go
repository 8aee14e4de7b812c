package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/maximbilan/sensclip/internal/sensitive"
)

// Gateway is what the router needs from sensitive.Gateway.
type Gateway interface {
	SetString(text string, duration float64) error
	ClearNow() error
	Due() (time.Time, bool)
}

var _ Gateway = (*sensitive.Gateway)(nil)

// GatewayRouter exposes a Gateway as the SensitiveClipboard bridge module.
type GatewayRouter struct {
	gateway Gateway
}

// NewGatewayRouter creates a router for gw.
func NewGatewayRouter(gw Gateway) *GatewayRouter {
	return &GatewayRouter{gateway: gw}
}

// Call dispatches a request. Gateway failures are passed back unchanged.
func (r *GatewayRouter) Call(module, method string, args json.RawMessage) (json.RawMessage, error) {
	if module != sensitive.ModuleName {
		return nil, fmt.Errorf("%w: module %q", ErrUnknownMethod, module)
	}

	switch method {
	case MethodSetString:
		var a SetStringArgs
		if len(args) == 0 {
			return nil, fmt.Errorf("%w: setString needs text and duration", ErrInvalidParams)
		}
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		if err := r.gateway.SetString(a.Text, a.Duration); err != nil {
			return nil, err
		}
		return json.RawMessage("null"), nil

	case MethodClear:
		if err := r.gateway.ClearNow(); err != nil {
			return nil, err
		}
		return json.RawMessage("null"), nil

	case MethodStatus:
		var st Status
		if due, ok := r.gateway.Due(); ok {
			st.Pending = true
			st.Due = due.Unix()
		}
		return json.Marshal(st)

	default:
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMethod, module, method)
	}
}
