// Package llm models chat completion as an optional capability. Whether a
// completer is configured is resolved once at startup; call sites branch
// on the capability variant instead of scattering nil checks.
package llm

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by Complete when no completer is configured.
var ErrUnavailable = errors.New("llm: no completion capability configured")

// Message roles mirror the chat completion wire format.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one turn of a chat completion prompt.
type Message struct {
	Role    string
	Content string
}

// Completer produces a text completion for a sequence of chat messages.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Capability is either Available (wrapping a completer) or Unavailable.
type Capability struct {
	completer Completer
}

// Available wraps a configured completer.
func Available(c Completer) Capability {
	return Capability{completer: c}
}

// Unavailable is the capability of a deployment with no LLM configured.
func Unavailable() Capability {
	return Capability{}
}

// Enabled reports whether a completer is configured.
func (c Capability) Enabled() bool {
	return c.completer != nil
}

// Complete forwards to the wrapped completer, or fails with ErrUnavailable.
func (c Capability) Complete(ctx context.Context, messages []Message) (string, error) {
	if c.completer == nil {
		return "", ErrUnavailable
	}
	return c.completer.Complete(ctx, messages)
}
