// Package notify delivers permit lifecycle notifications.
//
// Dispatch is fire-and-forget from the engine's point of view: a failed
// send is logged by the caller and never rolls back a completed state
// transition.
package notify

import "context"

// Message is one outbound notification.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Dispatcher sends notification messages.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// Noop discards every message. Used when mail is disabled in config and
// in tests.
type Noop struct{}

// Send implements Dispatcher.
func (Noop) Send(context.Context, Message) error { return nil }
