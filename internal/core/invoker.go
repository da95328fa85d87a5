package core

import (
	"context"
	"strconv"
)

// Param is one named argument of a remote procedure call.
// Value holds either a string or a bool.
type Param struct {
	Name  string
	Value any
}

// String renders the parameter value in its wire form.
func (p Param) String() string {
	switch v := p.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// Invoker executes remote operations of a single endpoint on a single site.
// It returns the complete raw response body without decoding and fails with
// *RemoteFault or *TransportError.
type Invoker interface {
	Invoke(ctx context.Context, operation string, params []Param) ([]byte, error)
}

// InvokerFactory creates the invoker for a (site, endpoint) pair.
type InvokerFactory func(site Site, endpoint Endpoint) (Invoker, error)

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, operation string, params []Param) ([]byte, error)

func (f InvokerFunc) Invoke(ctx context.Context, operation string, params []Param) ([]byte, error) {
	return f(ctx, operation, params)
}
