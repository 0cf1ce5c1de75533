package ai

import (
	"context"
	"fmt"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is a synchronous chat-completion backend.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// TransportError wraps a network-level failure reaching the provider.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("ai: transport: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a non-2xx (or in-band error) response from the provider.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ai: upstream status %d", e.Status)
	}
	return fmt.Sprintf("ai: upstream: %s", e.Message)
}

// DecodeError is a malformed or empty provider response body.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("ai: decode response: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }
